package errors

import "errors"

var (
	ErrPaymentNotFound = errors.New("payment not found")

	// ErrInvalidTransition means the compare-and-set status update matched the
	// payment but not the expected current status.
	ErrInvalidTransition = errors.New("payment status transition not allowed")
)
