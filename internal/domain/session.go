package domain

import "time"

type SessionID string

// Session is the ephemeral client-side identity minted when a check is
// started. CheckID stays empty until the backend assigns one; once set
// it never changes for the life of the session.
type Session struct {
	ID        SessionID
	CheckID   CheckID
	CreatedAt time.Time
}

func (s Session) Bound() bool {
	return s.CheckID != ""
}
