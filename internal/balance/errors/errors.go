package errors

import "errors"

var (
	ErrCustomerNotFound = errors.New("customer not found")

	ErrInsufficientFunds = errors.New("insufficient balance")

	ErrDuplicateEmail = errors.New("email already registered")
)
