package application

import (
	"time"

	"github.com/example/appointment-scheduler/internal/persistence"
)

// Principal identifies the caller of a service operation. Booking operations
// are open to any caller; configuration operations require IsAdmin.
type Principal struct {
	SubjectID string
	IsAdmin   bool
}

// SettingsInput carries the editable configuration fields.
type SettingsInput struct {
	SlotDurationMinutes int
	MaxBookingsPerSlot  int
	Timezone            string
	MinLeadMinutes      int
}

// UpdateSettingsParams bundles the principal and input for a settings update.
type UpdateSettingsParams struct {
	Principal Principal
	Input     SettingsInput
}

// RuleInput carries the editable fields of an availability rule. Weekday is a
// lowercase English day name; Start and End are wall-clock times ("09:00").
type RuleInput struct {
	Weekday string
	Start   string
	End     string
	Active  bool
}

// CreateRuleParams bundles the principal and input for rule creation.
type CreateRuleParams struct {
	Principal Principal
	Input     RuleInput
}

// UpdateRuleParams bundles the principal, target rule, and input for a rule update.
type UpdateRuleParams struct {
	Principal Principal
	RuleID    string
	Input     RuleInput
}

// ExceptionInput carries the fields of a calendar exception. Date is ISO
// formatted ("2026-12-25").
type ExceptionInput struct {
	Date   string
	Reason string
}

// AddExceptionParams bundles the principal and input for adding an exception.
type AddExceptionParams struct {
	Principal Principal
	Input     ExceptionInput
}

// ListSlotsParams describes an availability query over an inclusive date window.
type ListSlotsParams struct {
	Principal Principal
	From      string
	To        string
	// IncludeFull keeps fully booked slots in the result. Administrators only;
	// public queries always omit them.
	IncludeFull bool
}

// SlotAvailability is one bookable slot joined with its current occupancy.
type SlotAvailability struct {
	Start     time.Time
	End       time.Time
	Capacity  int
	Booked    int
	Remaining int
}

// BookingInput carries the fields of a booking request. SlotStart and SlotEnd
// are the RFC3339 bounds of the slot being booked; both must match a
// generatable slot exactly, off-grid bounds are never rounded.
type BookingInput struct {
	SlotStart string
	SlotEnd   string
	SubjectID string
}

// ListBookingsParams describes an administrator query over committed bookings.
// From and To are optional RFC3339 bounds on the slot start.
type ListBookingsParams struct {
	Principal Principal
	From      string
	To        string
}

// Booking is the service-level view of a committed appointment.
type Booking = persistence.Appointment
