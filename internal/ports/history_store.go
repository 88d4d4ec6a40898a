package ports

import (
	"context"

	"github.com/refcheck-dev/refcheck/internal/domain"
)

// HistoryStore is the local persisted view of past checks, used as the
// pull source when the ledger refreshes on startup.
type HistoryStore interface {
	List(ctx context.Context) ([]domain.Check, error)
	Save(ctx context.Context, check domain.Check) error
}
