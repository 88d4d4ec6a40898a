package domain

import (
	"fmt"
	"strings"
	"time"
)

type CheckID string
type Verdict string

const (
	VerdictVerified   Verdict = "verified"
	VerdictUnverified Verdict = "unverified"
	VerdictWarning    Verdict = "warning"
	VerdictError      Verdict = "error"
)

// Result is the outcome for a single reference of a checked document.
type Result struct {
	Reference string
	Verdict   Verdict
	Detail    string
}

// Check is the canonical record of one verification run, keyed by the
// server-assigned CheckID. Results is populated near or at completion.
type Check struct {
	ID              CheckID
	Status          Status
	TotalRefs       int
	ErrorsCount     int
	WarningsCount   int
	UnverifiedCount int
	Title           string
	Source          string
	Timestamp       time.Time
	Results         []Result
}

func (c Check) Validate() error {
	if strings.TrimSpace(string(c.ID)) == "" {
		return fmt.Errorf("check id is required")
	}
	if !c.Status.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownStatus, c.Status)
	}

	return nil
}

// Merge folds incoming fields for the same check into c. Counters never
// decrease, the status never regresses under precedence, and the first
// observed terminal status is sticky. Results are replaced wholesale
// only on the transition into a terminal status; before that, incoming
// results longer than the established list extend it.
func (c *Check) Merge(incoming Check) {
	wasTerminal := c.Status.Terminal()

	if !wasTerminal && incoming.Status.Rank() > c.Status.Rank() {
		c.Status = incoming.Status
	}

	c.TotalRefs = maxInt(c.TotalRefs, incoming.TotalRefs)
	c.ErrorsCount = maxInt(c.ErrorsCount, incoming.ErrorsCount)
	c.WarningsCount = maxInt(c.WarningsCount, incoming.WarningsCount)
	c.UnverifiedCount = maxInt(c.UnverifiedCount, incoming.UnverifiedCount)

	if c.Title == "" {
		c.Title = incoming.Title
	}
	if c.Source == "" {
		c.Source = incoming.Source
	}
	if c.Timestamp.IsZero() {
		c.Timestamp = incoming.Timestamp
	}

	if !wasTerminal && c.Status.Terminal() {
		if len(incoming.Results) > 0 {
			c.Results = append([]Result(nil), incoming.Results...)
		}
		return
	}
	if wasTerminal {
		return
	}
	if len(incoming.Results) > len(c.Results) {
		c.Results = append([]Result(nil), incoming.Results...)
	}
}

// Stale reports whether a non-terminal check has gone quiet for longer
// than threshold and deserves an authoritative detail fetch.
func (c Check) Stale(now time.Time, threshold time.Duration) bool {
	if c.Status.Terminal() {
		return false
	}
	if c.Timestamp.IsZero() || threshold <= 0 {
		return false
	}

	return now.Sub(c.Timestamp) > threshold
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
