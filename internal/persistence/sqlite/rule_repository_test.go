package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/appointment-scheduler/internal/persistence"
	"github.com/example/appointment-scheduler/internal/persistence/sqlite"
	"github.com/example/appointment-scheduler/internal/testfixtures"
	"github.com/example/appointment-scheduler/internal/timeslot"
)

func sampleRule(id string, weekday time.Weekday, start, end timeslot.MinuteOfDay) persistence.AvailabilityRule {
	now := time.Date(2026, time.August, 24, 12, 0, 0, 0, time.UTC)
	return persistence.AvailabilityRule{
		ID:        id,
		Weekday:   weekday,
		Start:     start,
		End:       end,
		Active:    true,
		Recurring: true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestRuleRepository(t *testing.T) {
	t.Parallel()

	t.Run("create and get round trip", func(t *testing.T) {
		t.Parallel()
		harness := testfixtures.NewSQLiteHarness(t)
		repo := sqlite.NewRuleRepository(harness.Pool)

		rule := sampleRule("rule-1", time.Monday, 9*60, 11*60)
		if err := repo.CreateRule(context.Background(), rule); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		fetched, err := repo.GetRule(context.Background(), "rule-1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if fetched != rule {
			t.Fatalf("expected %+v, got %+v", rule, fetched)
		}
	})

	t.Run("duplicate id is rejected", func(t *testing.T) {
		t.Parallel()
		harness := testfixtures.NewSQLiteHarness(t)
		repo := sqlite.NewRuleRepository(harness.Pool)

		rule := sampleRule("rule-1", time.Monday, 9*60, 11*60)
		if err := repo.CreateRule(context.Background(), rule); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := repo.CreateRule(context.Background(), rule); !errors.Is(err, persistence.ErrDuplicate) {
			t.Fatalf("expected ErrDuplicate, got %v", err)
		}
	})

	t.Run("inverted interval violates the schema constraint", func(t *testing.T) {
		t.Parallel()
		harness := testfixtures.NewSQLiteHarness(t)
		repo := sqlite.NewRuleRepository(harness.Pool)

		rule := sampleRule("rule-1", time.Monday, 11*60, 9*60)
		if err := repo.CreateRule(context.Background(), rule); !errors.Is(err, persistence.ErrConstraintViolation) {
			t.Fatalf("expected ErrConstraintViolation, got %v", err)
		}
	})

	t.Run("list orders by weekday then start", func(t *testing.T) {
		t.Parallel()
		harness := testfixtures.NewSQLiteHarness(t)
		repo := sqlite.NewRuleRepository(harness.Pool)

		for _, rule := range []persistence.AvailabilityRule{
			sampleRule("rule-wed", time.Wednesday, 9*60, 10*60),
			sampleRule("rule-mon-late", time.Monday, 14*60, 16*60),
			sampleRule("rule-mon-early", time.Monday, 9*60, 11*60),
		} {
			if err := repo.CreateRule(context.Background(), rule); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		}

		rules, err := repo.ListRules(context.Background(), nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(rules) != 3 {
			t.Fatalf("expected 3 rules, got %d", len(rules))
		}
		wantOrder := []string{"rule-mon-early", "rule-mon-late", "rule-wed"}
		for i, id := range wantOrder {
			if rules[i].ID != id {
				t.Fatalf("expected %s at position %d, got %s", id, i, rules[i].ID)
			}
		}

		monday := time.Monday
		mondayRules, err := repo.ListRules(context.Background(), &monday)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(mondayRules) != 2 {
			t.Fatalf("expected 2 Monday rules, got %d", len(mondayRules))
		}
	})

	t.Run("update rewrites an existing rule", func(t *testing.T) {
		t.Parallel()
		harness := testfixtures.NewSQLiteHarness(t)
		repo := sqlite.NewRuleRepository(harness.Pool)

		rule := sampleRule("rule-1", time.Monday, 9*60, 11*60)
		if err := repo.CreateRule(context.Background(), rule); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		rule.End = 12 * 60
		rule.Active = false
		rule.UpdatedAt = rule.UpdatedAt.Add(time.Hour)
		if err := repo.UpdateRule(context.Background(), rule); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		fetched, err := repo.GetRule(context.Background(), "rule-1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if fetched.End != 12*60 || fetched.Active {
			t.Fatalf("update not applied: %+v", fetched)
		}
	})

	t.Run("update and delete of unknown rules report not found", func(t *testing.T) {
		t.Parallel()
		harness := testfixtures.NewSQLiteHarness(t)
		repo := sqlite.NewRuleRepository(harness.Pool)

		if err := repo.UpdateRule(context.Background(), sampleRule("missing", time.Monday, 9*60, 10*60)); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		if err := repo.DeleteRule(context.Background(), "missing"); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("delete removes the rule", func(t *testing.T) {
		t.Parallel()
		harness := testfixtures.NewSQLiteHarness(t)
		repo := sqlite.NewRuleRepository(harness.Pool)

		rule := sampleRule("rule-1", time.Monday, 9*60, 11*60)
		if err := repo.CreateRule(context.Background(), rule); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := repo.DeleteRule(context.Background(), "rule-1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := repo.GetRule(context.Background(), "rule-1"); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected ErrNotFound after delete, got %v", err)
		}
	})
}
