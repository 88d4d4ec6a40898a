package application

import (
	"fmt"
	"sync"

	"github.com/refcheck-dev/refcheck/internal/domain"
)

// HistoryLedger is the single mutable source of truth for all known
// checks. Entries are keyed by check id and kept in display order:
// checks started live go to the head, checks discovered through a
// history pull are appended at the tail. Updates merge in place and
// never move an entry, so a completed check keeps its slot.
type HistoryLedger struct {
	mu      sync.RWMutex
	order   []domain.CheckID
	entries map[domain.CheckID]domain.Check
}

func NewHistoryLedger() *HistoryLedger {
	return &HistoryLedger{entries: map[domain.CheckID]domain.Check{}}
}

// Upsert inserts a check at the head when its id is unseen, otherwise
// merges into the existing entry under the monotonic merge rule.
func (l *HistoryLedger) Upsert(check domain.Check) error {
	if err := check.Validate(); err != nil {
		return fmt.Errorf("upsert check: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if existing, ok := l.entries[check.ID]; ok {
		existing.Merge(check)
		l.entries[check.ID] = existing
		return nil
	}

	l.order = append([]domain.CheckID{check.ID}, l.order...)
	l.entries[check.ID] = cloneCheck(check)

	return nil
}

// ApplyEvent merges a routed progress event into the entry for its
// check. Non-terminal deltas extend the established results; the merge
// rule handles everything else.
func (l *HistoryLedger) ApplyEvent(event domain.ProgressEvent) error {
	incoming := event.AsCheck()
	if err := incoming.Validate(); err != nil {
		return fmt.Errorf("apply event: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	existing, ok := l.entries[incoming.ID]
	if !ok {
		l.order = append([]domain.CheckID{incoming.ID}, l.order...)
		l.entries[incoming.ID] = cloneCheck(incoming)
		return nil
	}

	if len(event.ResultsDelta) > 0 && !incoming.Status.Terminal() && !existing.Status.Terminal() {
		incoming.Results = append(append([]domain.Result(nil), existing.Results...), event.ResultsDelta...)
	}

	existing.Merge(incoming)
	l.entries[incoming.ID] = existing

	return nil
}

// Refresh reconciles a freshly pulled batch of summaries against the
// live ledger. Unseen ids are appended at the tail; seen ids merge in
// place, so an older pulled copy can never regress live state.
func (l *HistoryLedger) Refresh(pulled []domain.Check) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, check := range pulled {
		if err := check.Validate(); err != nil {
			return fmt.Errorf("refresh history: %w", err)
		}

		if existing, ok := l.entries[check.ID]; ok {
			existing.Merge(check)
			l.entries[check.ID] = existing
			continue
		}

		l.order = append(l.order, check.ID)
		l.entries[check.ID] = cloneCheck(check)
	}

	return nil
}

// Get returns a copy of the entry for id.
func (l *HistoryLedger) Get(id domain.CheckID) (domain.Check, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	check, ok := l.entries[id]
	if !ok {
		return domain.Check{}, fmt.Errorf("%w: %s", domain.ErrCheckNotFound, id)
	}

	return cloneCheck(check), nil
}

// List returns copies of all entries in display order.
func (l *HistoryLedger) List() []domain.Check {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make([]domain.Check, 0, len(l.order))
	for _, id := range l.order {
		result = append(result, cloneCheck(l.entries[id]))
	}

	return result
}

// Len reports the number of known checks.
func (l *HistoryLedger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return len(l.order)
}

func cloneCheck(check domain.Check) domain.Check {
	if check.Results != nil {
		check.Results = append([]domain.Result(nil), check.Results...)
	}

	return check
}
