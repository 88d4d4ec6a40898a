package domain

import "fmt"

// Status is the lifecycle state of a check. Exactly five values cross
// the wire; anything else is rejected at the boundary.
type Status string

const (
	StatusStarting   Status = "starting"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusError      Status = "error"
	StatusCancelled  Status = "cancelled"
)

func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if !s.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, raw)
	}

	return s, nil
}

func (s Status) Valid() bool {
	switch s {
	case StatusStarting, StatusInProgress, StatusCompleted, StatusError, StatusCancelled:
		return true
	default:
		return false
	}
}

// Terminal reports whether no further progress is expected.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusError, StatusCancelled:
		return true
	default:
		return false
	}
}

// Rank orders statuses for merging: starting < in_progress < terminal.
// All terminal statuses share a rank, so the first one observed wins.
func (s Status) Rank() int {
	switch s {
	case StatusStarting:
		return 0
	case StatusInProgress:
		return 1
	case StatusCompleted, StatusError, StatusCancelled:
		return 2
	default:
		return -1
	}
}
