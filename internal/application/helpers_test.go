package application

import (
	"testing"

	"github.com/example/appointment-scheduler/internal/timeslot"
)

func mustParseDate(t *testing.T, value string) timeslot.Date {
	t.Helper()
	d, err := timeslot.ParseDate(value)
	if err != nil {
		t.Fatalf("invalid date %q: %v", value, err)
	}
	return d
}
