package errors

import "errors"

var (
	ErrNotFound = errors.New("vehicle not found")

	ErrDuplicatePlate = errors.New("license plate already registered")
)
