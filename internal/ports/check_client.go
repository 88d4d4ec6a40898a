package ports

import (
	"context"

	"github.com/refcheck-dev/refcheck/internal/domain"
)

// Submission describes a document handed to the backend for
// verification. SessionID is the client-chosen identity echoed back on
// progress events for this check.
type Submission struct {
	SessionID domain.SessionID
	Title     string
	Source    string
}

// CheckClient is the job-control API of the verification backend.
type CheckClient interface {
	Start(ctx context.Context, submission Submission) (domain.CheckID, error)
	Detail(ctx context.Context, id domain.CheckID) (domain.Check, error)
	History(ctx context.Context) ([]domain.Check, error)
	Cancel(ctx context.Context, id domain.CheckID) error
}
