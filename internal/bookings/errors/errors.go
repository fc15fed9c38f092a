package errors

import "errors"

var (
	ErrBookingNotFound = errors.New("booking not found")

	// ErrSpotLocked means another request holds the advisory lock for the spot.
	ErrSpotLocked = errors.New("spot lock already held")

	// ErrInvalidTransition means the compare-and-set status update matched the
	// booking but not the expected current status.
	ErrInvalidTransition = errors.New("booking status transition not allowed")
)
