package sqlite_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/example/appointment-scheduler/internal/persistence"
	"github.com/example/appointment-scheduler/internal/persistence/sqlite"
	"github.com/example/appointment-scheduler/internal/testfixtures"
)

func sampleAppointment(id, subjectID string, slotStart time.Time) persistence.Appointment {
	return persistence.Appointment{
		ID:        id,
		SlotStart: slotStart,
		SlotEnd:   slotStart.Add(30 * time.Minute),
		SubjectID: subjectID,
		Status:    persistence.AppointmentStatusConfirmed,
		CreatedAt: slotStart.Add(-24 * time.Hour),
	}
}

func TestAppointmentRepository(t *testing.T) {
	t.Parallel()

	slotStart := time.Date(2026, time.August, 24, 9, 0, 0, 0, time.UTC)

	t.Run("insert succeeds below capacity and fails at capacity", func(t *testing.T) {
		t.Parallel()
		harness := testfixtures.NewSQLiteHarness(t)
		repo := sqlite.NewAppointmentRepository(harness.Pool)

		first := sampleAppointment("appt-1", "client-a", slotStart)
		if err := repo.CreateAppointmentIfCapacity(context.Background(), first, 2); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		second := sampleAppointment("appt-2", "client-b", slotStart)
		if err := repo.CreateAppointmentIfCapacity(context.Background(), second, 2); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		third := sampleAppointment("appt-3", "client-c", slotStart)
		err := repo.CreateAppointmentIfCapacity(context.Background(), third, 2)
		if !errors.Is(err, persistence.ErrCapacityExceeded) {
			t.Fatalf("expected ErrCapacityExceeded, got %v", err)
		}
	})

	t.Run("concurrent bookings never exceed capacity", func(t *testing.T) {
		t.Parallel()
		harness := testfixtures.NewSQLiteHarness(t)
		repo := sqlite.NewAppointmentRepository(harness.Pool)

		const capacity = 3
		const attempts = 10

		var wg sync.WaitGroup
		results := make([]error, attempts)
		for i := 0; i < attempts; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				appointment := sampleAppointment(
					fmt.Sprintf("appt-%d", i),
					fmt.Sprintf("client-%d", i),
					slotStart,
				)
				results[i] = repo.CreateAppointmentIfCapacity(context.Background(), appointment, capacity)
			}(i)
		}
		wg.Wait()

		var succeeded, rejected int
		for _, err := range results {
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, persistence.ErrCapacityExceeded):
				rejected++
			default:
				t.Fatalf("unexpected error: %v", err)
			}
		}
		if succeeded != capacity {
			t.Fatalf("expected exactly %d successful bookings, got %d", capacity, succeeded)
		}
		if rejected != attempts-capacity {
			t.Fatalf("expected %d rejections, got %d", attempts-capacity, rejected)
		}

		counts, err := repo.CountConfirmedBySlot(context.Background(), slotStart, slotStart.Add(time.Hour))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if counts[slotStart] != capacity {
			t.Fatalf("expected %d confirmed rows, got %d", capacity, counts[slotStart])
		}
	})

	t.Run("cancel transitions to cancelled and frees capacity", func(t *testing.T) {
		t.Parallel()
		harness := testfixtures.NewSQLiteHarness(t)
		repo := sqlite.NewAppointmentRepository(harness.Pool)

		appointment := sampleAppointment("appt-1", "client-a", slotStart)
		if err := repo.CreateAppointmentIfCapacity(context.Background(), appointment, 1); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		blocked := sampleAppointment("appt-2", "client-b", slotStart)
		if err := repo.CreateAppointmentIfCapacity(context.Background(), blocked, 1); !errors.Is(err, persistence.ErrCapacityExceeded) {
			t.Fatalf("expected ErrCapacityExceeded, got %v", err)
		}

		cancelledAt := slotStart.Add(-time.Hour)
		cancelled, err := repo.CancelAppointment(context.Background(), "appt-1", cancelledAt)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cancelled.Status != persistence.AppointmentStatusCancelled {
			t.Fatalf("unexpected status: %s", cancelled.Status)
		}
		if cancelled.CancelledAt == nil || !cancelled.CancelledAt.Equal(cancelledAt) {
			t.Fatalf("unexpected cancelled_at: %v", cancelled.CancelledAt)
		}

		// The freed place is immediately bookable again.
		if err := repo.CreateAppointmentIfCapacity(context.Background(), blocked, 1); err != nil {
			t.Fatalf("unexpected error after cancel: %v", err)
		}
	})

	t.Run("repeat cancel reports already cancelled", func(t *testing.T) {
		t.Parallel()
		harness := testfixtures.NewSQLiteHarness(t)
		repo := sqlite.NewAppointmentRepository(harness.Pool)

		appointment := sampleAppointment("appt-1", "client-a", slotStart)
		if err := repo.CreateAppointmentIfCapacity(context.Background(), appointment, 1); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := repo.CancelAppointment(context.Background(), "appt-1", slotStart); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := repo.CancelAppointment(context.Background(), "appt-1", slotStart); !errors.Is(err, persistence.ErrAlreadyCancelled) {
			t.Fatalf("expected ErrAlreadyCancelled, got %v", err)
		}
	})

	t.Run("cancel of an unknown id reports not found", func(t *testing.T) {
		t.Parallel()
		harness := testfixtures.NewSQLiteHarness(t)
		repo := sqlite.NewAppointmentRepository(harness.Pool)

		if _, err := repo.CancelAppointment(context.Background(), "missing", slotStart); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("confirmed counts exclude cancelled rows", func(t *testing.T) {
		t.Parallel()
		harness := testfixtures.NewSQLiteHarness(t)
		repo := sqlite.NewAppointmentRepository(harness.Pool)

		for i := 0; i < 3; i++ {
			appointment := sampleAppointment(fmt.Sprintf("appt-%d", i), fmt.Sprintf("client-%d", i), slotStart)
			if err := repo.CreateAppointmentIfCapacity(context.Background(), appointment, 3); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		}
		if _, err := repo.CancelAppointment(context.Background(), "appt-0", slotStart); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		counts, err := repo.CountConfirmedBySlot(context.Background(), slotStart, slotStart.Add(time.Hour))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if counts[slotStart] != 2 {
			t.Fatalf("expected 2 confirmed, got %d", counts[slotStart])
		}
	})

	t.Run("list returns the half-open window ordered by slot start", func(t *testing.T) {
		t.Parallel()
		harness := testfixtures.NewSQLiteHarness(t)
		repo := sqlite.NewAppointmentRepository(harness.Pool)

		slots := []time.Time{
			slotStart.Add(time.Hour),
			slotStart,
			slotStart.Add(2 * time.Hour),
		}
		for i, start := range slots {
			appointment := sampleAppointment(fmt.Sprintf("appt-%d", i), "client-a", start)
			if err := repo.CreateAppointmentIfCapacity(context.Background(), appointment, 5); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		}

		listed, err := repo.ListAppointments(context.Background(), slotStart, slotStart.Add(2*time.Hour))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(listed) != 2 {
			t.Fatalf("expected 2 appointments, got %d", len(listed))
		}
		if !listed[0].SlotStart.Equal(slotStart) || !listed[1].SlotStart.Equal(slotStart.Add(time.Hour)) {
			t.Fatalf("unexpected order: %+v", listed)
		}

		all, err := repo.ListAppointments(context.Background(), time.Time{}, time.Time{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(all) != 3 {
			t.Fatalf("expected 3 appointments with open bounds, got %d", len(all))
		}
	})

	t.Run("get returns the stored row", func(t *testing.T) {
		t.Parallel()
		harness := testfixtures.NewSQLiteHarness(t)
		repo := sqlite.NewAppointmentRepository(harness.Pool)

		appointment := sampleAppointment("appt-1", "client-a", slotStart)
		if err := repo.CreateAppointmentIfCapacity(context.Background(), appointment, 1); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		fetched, err := repo.GetAppointment(context.Background(), "appt-1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if fetched.ID != "appt-1" || fetched.SubjectID != "client-a" || !fetched.SlotStart.Equal(slotStart) {
			t.Fatalf("unexpected appointment: %+v", fetched)
		}
		if _, err := repo.GetAppointment(context.Background(), "missing"); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}
