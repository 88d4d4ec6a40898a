package application

import (
	"context"
	"fmt"
	"time"

	"github.com/refcheck-dev/refcheck/internal/domain"
	"github.com/refcheck-dev/refcheck/internal/ports"
	"github.com/sirupsen/logrus"
)

const defaultStaleAfter = 30 * time.Second

// CheckService orchestrates the check lifecycle: starting jobs against
// the backend, reconciling the ledger with the local store and the
// backend's authoritative records, and persisting merged state back.
type CheckService struct {
	client   ports.CheckClient
	store    ports.HistoryStore
	registry *SessionRegistry
	router   *ProgressRouter
	ledger   *HistoryLedger
	view     *ActiveView
	clock    ports.Clock
	log      logrus.FieldLogger

	staleAfter time.Duration
}

func NewCheckService(client ports.CheckClient, store ports.HistoryStore, registry *SessionRegistry, router *ProgressRouter, ledger *HistoryLedger, view *ActiveView, clock ports.Clock, log logrus.FieldLogger) *CheckService {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	return &CheckService{
		client:     client,
		store:      store,
		registry:   registry,
		router:     router,
		ledger:     ledger,
		view:       view,
		clock:      clock,
		log:        log,
		staleAfter: defaultStaleAfter,
	}
}

// SetStaleAfter adjusts how long a non-terminal entry may sit untouched
// before ReconcileStale forces a detail fetch for it.
func (s *CheckService) SetStaleAfter(threshold time.Duration) {
	if threshold > 0 {
		s.staleAfter = threshold
	}
}

func (s *CheckService) Ledger() *HistoryLedger  { return s.ledger }
func (s *CheckService) View() *ActiveView       { return s.view }
func (s *CheckService) Router() *ProgressRouter { return s.router }

// StartCheck mints a session, submits the document, binds the assigned
// check id and seeds an optimistic starting entry in the ledger.
func (s *CheckService) StartCheck(ctx context.Context, submission ports.Submission) (domain.SessionID, domain.CheckID, error) {
	sessionID := s.registry.StartSession()
	submission.SessionID = sessionID

	checkID, err := s.client.Start(ctx, submission)
	if err != nil {
		return sessionID, "", fmt.Errorf("start check: %w", err)
	}

	if err := s.router.Bind(sessionID, checkID); err != nil {
		return sessionID, checkID, err
	}

	seed := domain.Check{
		ID:        checkID,
		Status:    domain.StatusStarting,
		Title:     submission.Title,
		Source:    submission.Source,
		Timestamp: s.clock.Now(),
	}
	if err := s.ledger.Upsert(seed); err != nil {
		return sessionID, checkID, err
	}

	return sessionID, checkID, nil
}

// RefreshLocal reconciles the ledger against the persisted local
// history. A failing pull keeps the last-known ledger state.
func (s *CheckService) RefreshLocal(ctx context.Context) error {
	pulled, err := s.store.List(ctx)
	if err != nil {
		s.log.Debugf("refresh local history: %v", err)
		return fmt.Errorf("refresh local history: %w", err)
	}

	return s.ledger.Refresh(pulled)
}

// RefreshRemote reconciles the ledger against the backend's history
// listing. A failing pull keeps the last-known ledger state.
func (s *CheckService) RefreshRemote(ctx context.Context) error {
	pulled, err := s.client.History(ctx)
	if err != nil {
		s.log.Debugf("refresh remote history: %v", err)
		return fmt.Errorf("refresh remote history: %w", err)
	}

	return s.ledger.Refresh(pulled)
}

// ReconcileStale forces a detail fetch for every ledger entry that
// still shows non-terminal after the staleness threshold and merges the
// authoritative record. Fetch failures leave the entry untouched.
func (s *CheckService) ReconcileStale(ctx context.Context) error {
	now := s.clock.Now()

	for _, entry := range s.ledger.List() {
		if !entry.Stale(now, s.staleAfter) {
			continue
		}

		if err := s.ReconcileDetail(ctx, entry.ID); err != nil {
			s.log.WithField("check", entry.ID).Debugf("reconcile detail: %v", err)
		}
	}

	return nil
}

// ReconcileDetail fetches the authoritative record for one check and
// merges it into the ledger.
func (s *CheckService) ReconcileDetail(ctx context.Context, id domain.CheckID) error {
	detail, err := s.client.Detail(ctx, id)
	if err != nil {
		return fmt.Errorf("fetch check detail: %w", err)
	}

	return s.ledger.Upsert(detail)
}

// Cancel asks the backend to stop a running check. The terminal status
// is recorded optimistically; a later authoritative fetch cannot
// regress it.
func (s *CheckService) Cancel(ctx context.Context, id domain.CheckID) error {
	if err := s.client.Cancel(ctx, id); err != nil {
		return fmt.Errorf("cancel check: %w", err)
	}

	return s.ledger.Upsert(domain.Check{ID: id, Status: domain.StatusCancelled})
}

// Persist writes the current ledger entries to the local history store.
func (s *CheckService) Persist(ctx context.Context) error {
	for _, entry := range s.ledger.List() {
		if err := s.store.Save(ctx, entry); err != nil {
			return fmt.Errorf("persist check %s: %w", entry.ID, err)
		}
	}

	return nil
}
