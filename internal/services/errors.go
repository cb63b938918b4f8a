package services

import "errors"

// The ledger's error taxonomy. These are returned to the immediate caller,
// never retried in-core and never converted into one another.
var (
	ErrNotFound              = errors.New("not found")
	ErrNotPermitted          = errors.New("not permitted")
	ErrInvalidValue          = errors.New("invalid value")
	ErrInsufficientFunds     = errors.New("insufficient funds")
	ErrNoAllocationAvailable = errors.New("no allocation available")
)
