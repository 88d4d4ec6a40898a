package domain

import "errors"

var (
	ErrCheckNotFound      = errors.New("check not found")
	ErrSessionNotFound    = errors.New("session not found")
	ErrConflictingBinding = errors.New("session already bound to a different check")
	ErrUnknownStatus      = errors.New("unknown check status")
)
