package persistence

import (
	"context"
	"time"

	"github.com/example/appointment-scheduler/internal/timeslot"
)

// SettingsRepository stores the singleton booking configuration.
type SettingsRepository interface {
	// GetSettings returns the configuration row, or ErrNotFound before
	// initialization.
	GetSettings(ctx context.Context) (Settings, error)
	// InitSettings inserts the row if absent and returns the stored value.
	// Concurrent initializers all observe the same single row.
	InitSettings(ctx context.Context, defaults Settings) (Settings, error)
	// UpdateSettings replaces the configuration values in place.
	UpdateSettings(ctx context.Context, settings Settings) (Settings, error)
}

// RuleRepository stores weekly availability rules.
type RuleRepository interface {
	CreateRule(ctx context.Context, rule AvailabilityRule) error
	UpdateRule(ctx context.Context, rule AvailabilityRule) error
	GetRule(ctx context.Context, id string) (AvailabilityRule, error)
	// ListRules returns all rules ordered by weekday then start time. When
	// weekday is non-nil only that weekday's rules are returned.
	ListRules(ctx context.Context, weekday *time.Weekday) ([]AvailabilityRule, error)
	DeleteRule(ctx context.Context, id string) error
}

// ExceptionRepository stores excluded calendar dates.
type ExceptionRepository interface {
	// CreateException inserts a new exception; ErrDuplicate when the date is
	// already present.
	CreateException(ctx context.Context, exception ExceptionDate) error
	// DeleteException removes the exception for a date; ErrNotFound when absent.
	DeleteException(ctx context.Context, date timeslot.Date) error
	ListExceptions(ctx context.Context) ([]ExceptionDate, error)
	// ListExceptionsInRange returns exceptions with from <= date <= to.
	ListExceptionsInRange(ctx context.Context, from, to timeslot.Date) ([]ExceptionDate, error)
}

// AppointmentRepository is the booking ledger's storage contract. The
// conditional insert is the single correctness-critical operation: it must
// never allow more than capacity confirmed appointments per slot, regardless
// of concurrent callers.
type AppointmentRepository interface {
	// CreateAppointmentIfCapacity atomically counts confirmed appointments for
	// the appointment's slot and inserts only when the count is below
	// capacity; ErrCapacityExceeded otherwise.
	CreateAppointmentIfCapacity(ctx context.Context, appointment Appointment, capacity int) error
	// CancelAppointment transitions a confirmed appointment to cancelled.
	// ErrNotFound when the id is unknown, ErrAlreadyCancelled on a repeat
	// cancel; the slot's booked count (derived from confirmed rows) drops by
	// exactly one.
	CancelAppointment(ctx context.Context, id string, cancelledAt time.Time) (Appointment, error)
	GetAppointment(ctx context.Context, id string) (Appointment, error)
	// ListAppointments returns appointments with slot_start in [from, to),
	// ordered by slot_start then id. Zero bounds are open.
	ListAppointments(ctx context.Context, from, to time.Time) ([]Appointment, error)
	// CountConfirmedBySlot returns the number of confirmed appointments per
	// slot start instant for slots starting in [from, to).
	CountConfirmedBySlot(ctx context.Context, from, to time.Time) (map[time.Time]int, error)
}
