package application

import "errors"

var (
	// ErrUnauthorized is returned when the acting principal lacks permission for an operation.
	ErrUnauthorized = errors.New("application: unauthorized")
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrAlreadyExists is returned when a resource with the same identity already exists.
	ErrAlreadyExists = errors.New("application: already exists")
	// ErrRuleConflict is returned when a rule would overlap an existing active rule on the same weekday.
	ErrRuleConflict = errors.New("application: rule overlaps an existing rule")
	// ErrSlotUnavailable is returned when a booking targets a slot the current
	// rules, exceptions, and configuration do not generate.
	ErrSlotUnavailable = errors.New("application: slot unavailable")
	// ErrSlotExpired is returned when a booking targets a slot whose start no
	// longer satisfies the minimum lead time.
	ErrSlotExpired = errors.New("application: slot expired")
	// ErrSlotFull is returned when a booking targets a slot already at capacity.
	ErrSlotFull = errors.New("application: slot full")
	// ErrAlreadyCancelled is returned when cancelling a booking that is already cancelled.
	ErrAlreadyCancelled = errors.New("application: booking already cancelled")
)

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}
