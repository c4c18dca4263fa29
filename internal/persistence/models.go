package persistence

import (
	"time"

	"github.com/example/appointment-scheduler/internal/timeslot"
)

// Settings is the process-wide booking configuration. Exactly one row exists
// after initialization; it is updated in place and never deleted.
type Settings struct {
	SlotDurationMinutes int
	MaxBookingsPerSlot  int
	Timezone            string
	MinLeadMinutes      int
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// AvailabilityRule is a weekly recurring open-hours interval keyed by weekday.
type AvailabilityRule struct {
	ID        string
	Weekday   time.Weekday
	Start     timeslot.MinuteOfDay
	End       timeslot.MinuteOfDay
	Active    bool
	Recurring bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ExceptionDate suppresses slot generation for one calendar date.
type ExceptionDate struct {
	Date      timeslot.Date
	Reason    string
	CreatedAt time.Time
}

// Appointment statuses. Cancelled is terminal.
const (
	AppointmentStatusConfirmed = "confirmed"
	AppointmentStatusCancelled = "cancelled"
)

// Appointment is a committed booking. SlotStart and SlotEnd are value copies
// of the slot bounds at commit time; the record carries no reference to the
// rule that produced the slot, so later rule edits cannot corrupt it.
type Appointment struct {
	ID          string
	SlotStart   time.Time
	SlotEnd     time.Time
	SubjectID   string
	Status      string
	CreatedAt   time.Time
	CancelledAt *time.Time
}
