package application

import (
	"fmt"
	"time"

	"github.com/refcheck-dev/refcheck/internal/domain"
	"github.com/refcheck-dev/refcheck/internal/ports"
	"github.com/sirupsen/logrus"
)

const defaultBufferWindow = 10 * time.Second

type pendingEvent struct {
	event      domain.ProgressEvent
	bufferedAt time.Time
}

// ProgressRouter is the single writer feeding the history ledger. Every
// accepted event merges into the ledger regardless of focus; events for
// the focused check are additionally published to the view sink. Stale
// and malformed events degrade to a logged no-op.
type ProgressRouter struct {
	registry *SessionRegistry
	ledger   *HistoryLedger
	view     *ActiveView
	clock    ports.Clock
	log      logrus.FieldLogger

	bufferWindow time.Duration
	pending      map[domain.SessionID][]pendingEvent
	publish      func(domain.Check)
}

func NewProgressRouter(registry *SessionRegistry, ledger *HistoryLedger, view *ActiveView, clock ports.Clock, log logrus.FieldLogger) *ProgressRouter {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	return &ProgressRouter{
		registry:     registry,
		ledger:       ledger,
		view:         view,
		clock:        clock,
		log:          log,
		bufferWindow: defaultBufferWindow,
		pending:      map[domain.SessionID][]pendingEvent{},
	}
}

// SetPublisher installs the sink notified after each merge that touches
// the focused check.
func (r *ProgressRouter) SetPublisher(publish func(domain.Check)) {
	r.publish = publish
}

// SetBufferWindow bounds how long events for a not-yet-bound session
// are held before being dropped.
func (r *ProgressRouter) SetBufferWindow(window time.Duration) {
	if window > 0 {
		r.bufferWindow = window
	}
}

// Route applies one tagged progress event. Events whose session has no
// binding yet are buffered until Bind resolves them or the buffer
// window expires. Stale events are dropped silently.
func (r *ProgressRouter) Route(event domain.ProgressEvent) error {
	r.expirePending()

	if !event.Status.Valid() {
		r.log.WithField("session", event.SessionID).
			Warnf("rejecting event with unrecognized status %q", event.Status)
		return fmt.Errorf("route event: %w: %q", domain.ErrUnknownStatus, event.Status)
	}

	if event.CheckID == "" {
		checkID, err := r.registry.Lookup(event.SessionID)
		if err != nil || checkID == "" {
			r.bufferEvent(event)
			return nil
		}
		event.CheckID = checkID
	}

	if r.registry.IsStale(event.SessionID, event.CheckID) {
		r.log.WithFields(logrus.Fields{
			"session": event.SessionID,
			"check":   event.CheckID,
		}).Debug("dropping stale progress event")
		return nil
	}

	if err := r.ledger.ApplyEvent(event); err != nil {
		return err
	}

	r.publishIfFocused(event.CheckID)

	return nil
}

// Bind records a session-to-check binding and replays any events that
// were buffered waiting for it. A conflicting binding keeps the first
// one and is reported as a recoverable warning.
func (r *ProgressRouter) Bind(sessionID domain.SessionID, checkID domain.CheckID) error {
	if err := r.registry.BindCheck(sessionID, checkID); err != nil {
		r.log.WithFields(logrus.Fields{
			"session": sessionID,
			"check":   checkID,
		}).Warnf("bind check: %v", err)
		return err
	}

	buffered := r.pending[sessionID]
	delete(r.pending, sessionID)
	for _, held := range buffered {
		if err := r.Route(held.event); err != nil {
			r.log.WithField("session", sessionID).Debugf("replaying buffered event: %v", err)
		}
	}

	return nil
}

func (r *ProgressRouter) bufferEvent(event domain.ProgressEvent) {
	r.pending[event.SessionID] = append(r.pending[event.SessionID], pendingEvent{
		event:      event,
		bufferedAt: r.clock.Now(),
	})
}

func (r *ProgressRouter) expirePending() {
	now := r.clock.Now()
	for sessionID, held := range r.pending {
		kept := held[:0]
		for _, p := range held {
			if now.Sub(p.bufferedAt) > r.bufferWindow {
				r.log.WithField("session", sessionID).
					Debug("dropping buffered event for unresolved session")
				continue
			}
			kept = append(kept, p)
		}
		if len(kept) == 0 {
			delete(r.pending, sessionID)
			continue
		}
		r.pending[sessionID] = kept
	}
}

func (r *ProgressRouter) publishIfFocused(checkID domain.CheckID) {
	if r.publish == nil || r.view == nil {
		return
	}
	if r.view.Focused() != checkID {
		return
	}

	if check, ok := r.view.CurrentView(); ok {
		r.publish(check)
	}
}
