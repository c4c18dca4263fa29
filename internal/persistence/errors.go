package persistence

import "errors"

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("persistence: not found")
	// ErrDuplicate is returned when a uniqueness constraint is violated.
	ErrDuplicate = errors.New("persistence: duplicate record")
	// ErrConstraintViolation is returned when a stored check constraint rejects a write.
	ErrConstraintViolation = errors.New("persistence: constraint violation")
	// ErrCapacityExceeded is returned when a conditional appointment insert
	// finds the slot already at capacity.
	ErrCapacityExceeded = errors.New("persistence: slot capacity exceeded")
	// ErrAlreadyCancelled is returned when cancelling an appointment that is
	// already in the cancelled state.
	ErrAlreadyCancelled = errors.New("persistence: appointment already cancelled")
)
