package timeslot

import (
	"fmt"
	"time"
)

// Date is a civil calendar date with no time-of-day or zone attached.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// ParseDate parses a date in 2006-01-02 form.
func ParseDate(value string) (Date, error) {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return Date{}, fmt.Errorf("timeslot: invalid date %q: %w", value, err)
	}
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}, nil
}

// DateOf returns the civil date of t in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// String formats the date in 2006-01-02 form.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// IsZero reports whether the date is the zero value.
func (d Date) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

// Before reports whether d falls before other in calendar order.
func (d Date) Before(other Date) bool {
	if d.Year != other.Year {
		return d.Year < other.Year
	}
	if d.Month != other.Month {
		return d.Month < other.Month
	}
	return d.Day < other.Day
}

// Next returns the following calendar date, normalizing month and year rollovers.
func (d Date) Next() Date {
	t := time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
	return DateOf(t)
}

// Weekday returns the day of week the date falls on.
func (d Date) Weekday() time.Weekday {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC).Weekday()
}

// MinuteOfDay is a wall-clock time expressed as minutes since midnight.
// The valid range is [0, 1440]; 1440 ("24:00") is permitted as an interval
// end bound meaning midnight of the following day.
type MinuteOfDay int

// ParseMinuteOfDay parses a wall-clock time in 15:04 form. "24:00" is accepted.
func ParseMinuteOfDay(value string) (MinuteOfDay, error) {
	var hour, minute int
	if _, err := fmt.Sscanf(value, "%d:%d", &hour, &minute); err != nil {
		return 0, fmt.Errorf("timeslot: invalid time %q", value)
	}
	if len(value) != 5 || value[2] != ':' {
		return 0, fmt.Errorf("timeslot: invalid time %q", value)
	}
	if minute < 0 || minute > 59 || hour < 0 || hour > 24 || (hour == 24 && minute != 0) {
		return 0, fmt.Errorf("timeslot: time %q out of range", value)
	}
	return MinuteOfDay(hour*60 + minute), nil
}

// String formats the time in 15:04 form.
func (m MinuteOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(m)/60, int(m)%60)
}

// Valid reports whether the value lies within [0, 1440].
func (m MinuteOfDay) Valid() bool {
	return m >= 0 && m <= 24*60
}

// Rule is a weekly recurring open interval evaluated by the Engine. It is a
// projection of the persisted availability rule carrying only the fields the
// generation algorithm needs.
type Rule struct {
	ID      string
	Weekday time.Weekday
	Start   MinuteOfDay
	End     MinuteOfDay
	Active  bool
}

// Slot is a bookable interval derived from a rule. Instants are UTC; Capacity
// is the configured per-slot booking limit at generation time.
type Slot struct {
	Start    time.Time
	End      time.Time
	Capacity int
}
