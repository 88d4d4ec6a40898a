package application

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/refcheck-dev/refcheck/internal/domain"
	"github.com/refcheck-dev/refcheck/internal/ports"
)

// SessionRegistry mints client-side session identities and keeps the
// append-only session-to-check binding. Bindings are written once: a
// repeated bind with the same pair is a no-op, a conflicting pair keeps
// the first binding and reports the conflict.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[domain.SessionID]domain.Session
	byCheck  map[domain.CheckID]domain.SessionID
	clock    ports.Clock
}

func NewSessionRegistry(clock ports.Clock) *SessionRegistry {
	if clock == nil {
		clock = ports.SystemClock{}
	}

	return &SessionRegistry{
		sessions: map[domain.SessionID]domain.Session{},
		byCheck:  map[domain.CheckID]domain.SessionID{},
		clock:    clock,
	}
}

// StartSession allocates a fresh, never-reused session identifier and
// registers it as active. No network side effect.
func (r *SessionRegistry) StartSession() domain.SessionID {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := domain.SessionID(uuid.NewString())
	r.sessions[id] = domain.Session{ID: id, CreatedAt: r.clock.Now()}

	return id
}

// BindCheck records the backend-assigned check for a started session.
// Idempotent for the same pair; a conflicting pair returns
// domain.ErrConflictingBinding and leaves the first binding in place.
func (r *SessionRegistry) BindCheck(sessionID domain.SessionID, checkID domain.CheckID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[sessionID]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrSessionNotFound, sessionID)
	}

	if session.Bound() {
		if session.CheckID == checkID {
			return nil
		}
		return fmt.Errorf("%w: session %s is bound to %s, refusing %s",
			domain.ErrConflictingBinding, sessionID, session.CheckID, checkID)
	}

	session.CheckID = checkID
	r.sessions[sessionID] = session
	r.byCheck[checkID] = sessionID

	return nil
}

// Lookup returns the check bound to a session, or ErrSessionNotFound /
// an empty CheckID when the binding has not arrived yet.
func (r *SessionRegistry) Lookup(sessionID domain.SessionID) (domain.CheckID, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[sessionID]
	if !ok {
		return "", fmt.Errorf("%w: %s", domain.ErrSessionNotFound, sessionID)
	}

	return session.CheckID, nil
}

// IsStale reports whether events carrying this (session, check) pair
// should no longer be trusted. True only when the session is bound to a
// different check; an unfocused or still-unbound session is not stale.
func (r *SessionRegistry) IsStale(sessionID domain.SessionID, checkID domain.CheckID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[sessionID]
	if !ok {
		return false
	}

	return session.Bound() && session.CheckID != checkID
}

// Sessions returns a snapshot of all registered sessions, newest last.
func (r *SessionRegistry) Sessions() []domain.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.Session, 0, len(r.sessions))
	for _, session := range r.sessions {
		result = append(result, session)
	}

	return result
}
