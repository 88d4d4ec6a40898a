package ports

import (
	"context"

	"github.com/refcheck-dev/refcheck/internal/domain"
)

// ProgressSource delivers tagged progress events for running checks.
// The transport behind it (push channel or polling) is an adapter
// concern; consumers only rely on the channel closing when ctx ends.
type ProgressSource interface {
	Subscribe(ctx context.Context) (<-chan domain.ProgressEvent, error)
}
