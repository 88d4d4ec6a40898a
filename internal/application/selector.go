package application

import (
	"sync"

	"github.com/refcheck-dev/refcheck/internal/domain"
)

// ActiveView tracks which single check is focused for detail display.
// Focus is a pure reassignment: it never touches ledger entries, and
// the view reads the ledger on demand instead of holding a copy that
// could drift.
type ActiveView struct {
	mu      sync.RWMutex
	ledger  *HistoryLedger
	focused domain.CheckID
}

func NewActiveView(ledger *HistoryLedger) *ActiveView {
	return &ActiveView{ledger: ledger}
}

func (v *ActiveView) Focus(id domain.CheckID) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.focused = id
}

func (v *ActiveView) Blur() {
	v.Focus("")
}

func (v *ActiveView) Focused() domain.CheckID {
	v.mu.RLock()
	defer v.mu.RUnlock()

	return v.focused
}

// CurrentView returns the ledger entry for the focused check, or false
// when nothing is focused or the entry is not known yet.
func (v *ActiveView) CurrentView() (domain.Check, bool) {
	v.mu.RLock()
	focused := v.focused
	v.mu.RUnlock()

	if focused == "" {
		return domain.Check{}, false
	}

	check, err := v.ledger.Get(focused)
	if err != nil {
		return domain.Check{}, false
	}

	return check, true
}
