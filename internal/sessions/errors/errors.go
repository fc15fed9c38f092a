package errors

import "errors"

var (
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionClosed means the compare-and-set close matched the session but
	// it was already completed.
	ErrSessionClosed = errors.New("session already completed")
)
