package errors

import "errors"

var (
	ErrNotFound = errors.New("tariff plan not found")

	ErrInactive = errors.New("tariff plan is inactive")
)
