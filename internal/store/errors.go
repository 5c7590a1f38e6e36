package store

import "errors"

var (
	// ErrNotFound is returned when no key matches the requested code or ID.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate is returned when an insert violates the key_code
	// uniqueness constraint. Callers regenerate the code and retry.
	ErrDuplicate = errors.New("duplicate key code")
)
