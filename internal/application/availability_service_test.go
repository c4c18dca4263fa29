package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/appointment-scheduler/internal/persistence"
	"github.com/example/appointment-scheduler/internal/testfixtures"
	"github.com/example/appointment-scheduler/internal/timeslot"
)

type stubRuleRepo struct {
	rules []persistence.AvailabilityRule

	createErr error
	listErr   error
}

func (s *stubRuleRepo) CreateRule(ctx context.Context, rule persistence.AvailabilityRule) error {
	if s.createErr != nil {
		return s.createErr
	}
	for _, existing := range s.rules {
		if existing.ID == rule.ID {
			return persistence.ErrDuplicate
		}
	}
	s.rules = append(s.rules, rule)
	return nil
}

func (s *stubRuleRepo) UpdateRule(ctx context.Context, rule persistence.AvailabilityRule) error {
	for i, existing := range s.rules {
		if existing.ID == rule.ID {
			s.rules[i] = rule
			return nil
		}
	}
	return persistence.ErrNotFound
}

func (s *stubRuleRepo) GetRule(ctx context.Context, id string) (persistence.AvailabilityRule, error) {
	for _, existing := range s.rules {
		if existing.ID == id {
			return existing, nil
		}
	}
	return persistence.AvailabilityRule{}, persistence.ErrNotFound
}

func (s *stubRuleRepo) ListRules(ctx context.Context, weekday *time.Weekday) ([]persistence.AvailabilityRule, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	if weekday == nil {
		return append([]persistence.AvailabilityRule(nil), s.rules...), nil
	}
	var filtered []persistence.AvailabilityRule
	for _, rule := range s.rules {
		if rule.Weekday == *weekday {
			filtered = append(filtered, rule)
		}
	}
	return filtered, nil
}

func (s *stubRuleRepo) DeleteRule(ctx context.Context, id string) error {
	for i, existing := range s.rules {
		if existing.ID == id {
			s.rules = append(s.rules[:i], s.rules[i+1:]...)
			return nil
		}
	}
	return persistence.ErrNotFound
}

type stubExceptionRepo struct {
	exceptions map[string]persistence.ExceptionDate
}

func newStubExceptionRepo() *stubExceptionRepo {
	return &stubExceptionRepo{exceptions: make(map[string]persistence.ExceptionDate)}
}

func (s *stubExceptionRepo) CreateException(ctx context.Context, exception persistence.ExceptionDate) error {
	key := exception.Date.String()
	if _, ok := s.exceptions[key]; ok {
		return persistence.ErrDuplicate
	}
	s.exceptions[key] = exception
	return nil
}

func (s *stubExceptionRepo) DeleteException(ctx context.Context, date timeslot.Date) error {
	key := date.String()
	if _, ok := s.exceptions[key]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.exceptions, key)
	return nil
}

func (s *stubExceptionRepo) ListExceptions(ctx context.Context) ([]persistence.ExceptionDate, error) {
	var all []persistence.ExceptionDate
	for _, exception := range s.exceptions {
		all = append(all, exception)
	}
	return all, nil
}

func (s *stubExceptionRepo) ListExceptionsInRange(ctx context.Context, from, to timeslot.Date) ([]persistence.ExceptionDate, error) {
	var inRange []persistence.ExceptionDate
	for _, exception := range s.exceptions {
		if !exception.Date.Before(from) && !to.Before(exception.Date) {
			inRange = append(inRange, exception)
		}
	}
	return inRange, nil
}

func newAvailabilityService(rules *stubRuleRepo, exceptions *stubExceptionRepo) *AvailabilityService {
	now := time.Date(2026, time.August, 24, 12, 0, 0, 0, time.UTC)
	return NewAvailabilityService(rules, exceptions,
		testfixtures.NewIDGenerator("rule").NextFunc(),
		testfixtures.NewClock(now).NowFunc(),
	)
}

func validRuleInput() RuleInput {
	return RuleInput{Weekday: "monday", Start: "09:00", End: "11:00", Active: true}
}

func TestAvailabilityServiceCreateRule(t *testing.T) {
	t.Parallel()

	admin := Principal{SubjectID: "admin", IsAdmin: true}

	t.Run("creates a valid rule", func(t *testing.T) {
		t.Parallel()
		repo := &stubRuleRepo{}
		service := newAvailabilityService(repo, newStubExceptionRepo())

		rule, err := service.CreateRule(context.Background(), CreateRuleParams{Principal: admin, Input: validRuleInput()})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rule.ID != "rule-1" || rule.Weekday != time.Monday || rule.Start != 9*60 || rule.End != 11*60 {
			t.Fatalf("unexpected rule: %+v", rule)
		}
		if !rule.Active || !rule.Recurring {
			t.Fatalf("expected active recurring rule: %+v", rule)
		}
		if len(repo.rules) != 1 {
			t.Fatalf("rule was not persisted")
		}
	})

	t.Run("rejects non-administrators", func(t *testing.T) {
		t.Parallel()
		service := newAvailabilityService(&stubRuleRepo{}, newStubExceptionRepo())

		_, err := service.CreateRule(context.Background(), CreateRuleParams{
			Principal: Principal{SubjectID: "user"},
			Input:     validRuleInput(),
		})
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("validates weekday and times", func(t *testing.T) {
		t.Parallel()
		service := newAvailabilityService(&stubRuleRepo{}, newStubExceptionRepo())

		cases := map[string]RuleInput{
			"weekday": {Weekday: "someday", Start: "09:00", End: "11:00", Active: true},
			"start":   {Weekday: "monday", Start: "9am", End: "11:00", Active: true},
			"end":     {Weekday: "monday", Start: "09:00", End: "25:00", Active: true},
		}
		for field, input := range cases {
			_, err := service.CreateRule(context.Background(), CreateRuleParams{Principal: admin, Input: input})
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected validation error for %s, got %v", field, err)
			}
			if _, ok := vErr.FieldErrors[field]; !ok {
				t.Fatalf("expected field error for %s, got %v", field, vErr.FieldErrors)
			}
		}
	})

	t.Run("rejects an interval ending at or before its start", func(t *testing.T) {
		t.Parallel()
		service := newAvailabilityService(&stubRuleRepo{}, newStubExceptionRepo())

		input := RuleInput{Weekday: "monday", Start: "11:00", End: "09:00", Active: true}
		_, err := service.CreateRule(context.Background(), CreateRuleParams{Principal: admin, Input: input})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})

	t.Run("rejects overlap with an existing active rule", func(t *testing.T) {
		t.Parallel()
		repo := &stubRuleRepo{}
		service := newAvailabilityService(repo, newStubExceptionRepo())

		if _, err := service.CreateRule(context.Background(), CreateRuleParams{Principal: admin, Input: validRuleInput()}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		overlapping := RuleInput{Weekday: "monday", Start: "10:00", End: "12:00", Active: true}
		_, err := service.CreateRule(context.Background(), CreateRuleParams{Principal: admin, Input: overlapping})
		if !errors.Is(err, ErrRuleConflict) {
			t.Fatalf("expected ErrRuleConflict, got %v", err)
		}
	})

	t.Run("allows overlap with an inactive rule", func(t *testing.T) {
		t.Parallel()
		repo := &stubRuleRepo{}
		service := newAvailabilityService(repo, newStubExceptionRepo())

		inactive := validRuleInput()
		inactive.Active = false
		if _, err := service.CreateRule(context.Background(), CreateRuleParams{Principal: admin, Input: inactive}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := service.CreateRule(context.Background(), CreateRuleParams{Principal: admin, Input: validRuleInput()}); err != nil {
			t.Fatalf("expected overlap with inactive rule to pass, got %v", err)
		}
	})
}

func TestAvailabilityServiceUpdateRule(t *testing.T) {
	t.Parallel()

	admin := Principal{SubjectID: "admin", IsAdmin: true}

	t.Run("a rule may shrink or grow without conflicting with itself", func(t *testing.T) {
		t.Parallel()
		repo := &stubRuleRepo{}
		service := newAvailabilityService(repo, newStubExceptionRepo())

		created, err := service.CreateRule(context.Background(), CreateRuleParams{Principal: admin, Input: validRuleInput()})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		updated, err := service.UpdateRule(context.Background(), UpdateRuleParams{
			Principal: admin,
			RuleID:    created.ID,
			Input:     RuleInput{Weekday: "monday", Start: "09:00", End: "12:00", Active: true},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if updated.End != 12*60 {
			t.Fatalf("update not applied: %+v", updated)
		}
	})

	t.Run("update into another rule's interval is rejected", func(t *testing.T) {
		t.Parallel()
		repo := &stubRuleRepo{}
		service := newAvailabilityService(repo, newStubExceptionRepo())

		first, err := service.CreateRule(context.Background(), CreateRuleParams{Principal: admin, Input: validRuleInput()})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := service.CreateRule(context.Background(), CreateRuleParams{
			Principal: admin,
			Input:     RuleInput{Weekday: "monday", Start: "13:00", End: "15:00", Active: true},
		}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		_, err = service.UpdateRule(context.Background(), UpdateRuleParams{
			Principal: admin,
			RuleID:    first.ID,
			Input:     RuleInput{Weekday: "monday", Start: "09:00", End: "14:00", Active: true},
		})
		if !errors.Is(err, ErrRuleConflict) {
			t.Fatalf("expected ErrRuleConflict, got %v", err)
		}
	})

	t.Run("unknown rule reports not found", func(t *testing.T) {
		t.Parallel()
		service := newAvailabilityService(&stubRuleRepo{}, newStubExceptionRepo())

		_, err := service.UpdateRule(context.Background(), UpdateRuleParams{
			Principal: admin,
			RuleID:    "missing",
			Input:     validRuleInput(),
		})
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestAvailabilityServiceListRules(t *testing.T) {
	t.Parallel()

	admin := Principal{SubjectID: "admin", IsAdmin: true}

	seeded := func(t *testing.T) *AvailabilityService {
		t.Helper()
		repo := &stubRuleRepo{}
		service := newAvailabilityService(repo, newStubExceptionRepo())
		for _, input := range []RuleInput{
			{Weekday: "monday", Start: "09:00", End: "11:00", Active: true},
			{Weekday: "monday", Start: "13:00", End: "15:00", Active: true},
			{Weekday: "friday", Start: "09:00", End: "11:00", Active: true},
		} {
			if _, err := service.CreateRule(context.Background(), CreateRuleParams{Principal: admin, Input: input}); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		}
		return service
	}

	t.Run("lists every rule without a filter", func(t *testing.T) {
		t.Parallel()
		service := seeded(t)

		rules, err := service.ListRules(context.Background(), admin, "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(rules) != 3 {
			t.Fatalf("expected 3 rules, got %d", len(rules))
		}
	})

	t.Run("filters by weekday", func(t *testing.T) {
		t.Parallel()
		service := seeded(t)

		rules, err := service.ListRules(context.Background(), admin, "monday")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(rules) != 2 {
			t.Fatalf("expected 2 monday rules, got %d", len(rules))
		}
		for _, rule := range rules {
			if rule.Weekday != time.Monday {
				t.Fatalf("unexpected weekday: %v", rule.Weekday)
			}
		}
	})

	t.Run("rejects an unknown weekday name", func(t *testing.T) {
		t.Parallel()
		service := seeded(t)

		_, err := service.ListRules(context.Background(), admin, "someday")
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})

	t.Run("rejects non-administrators", func(t *testing.T) {
		t.Parallel()
		service := seeded(t)

		if _, err := service.ListRules(context.Background(), Principal{SubjectID: "user"}, ""); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})
}

func TestAvailabilityServiceExceptions(t *testing.T) {
	t.Parallel()

	admin := Principal{SubjectID: "admin", IsAdmin: true}

	t.Run("adds and removes an exception", func(t *testing.T) {
		t.Parallel()
		exceptions := newStubExceptionRepo()
		service := newAvailabilityService(&stubRuleRepo{}, exceptions)

		added, err := service.AddException(context.Background(), AddExceptionParams{
			Principal: admin,
			Input:     ExceptionInput{Date: "2026-12-25", Reason: "holiday"},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if added.Date.String() != "2026-12-25" || added.Reason != "holiday" {
			t.Fatalf("unexpected exception: %+v", added)
		}

		if err := service.RemoveException(context.Background(), admin, "2026-12-25"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(exceptions.exceptions) != 0 {
			t.Fatal("exception was not removed")
		}
	})

	t.Run("duplicate date reports already exists", func(t *testing.T) {
		t.Parallel()
		service := newAvailabilityService(&stubRuleRepo{}, newStubExceptionRepo())

		params := AddExceptionParams{Principal: admin, Input: ExceptionInput{Date: "2026-12-25"}}
		if _, err := service.AddException(context.Background(), params); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := service.AddException(context.Background(), params); !errors.Is(err, ErrAlreadyExists) {
			t.Fatalf("expected ErrAlreadyExists, got %v", err)
		}
	})

	t.Run("removing an absent date reports not found", func(t *testing.T) {
		t.Parallel()
		service := newAvailabilityService(&stubRuleRepo{}, newStubExceptionRepo())

		if err := service.RemoveException(context.Background(), admin, "2026-12-25"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("rejects malformed dates", func(t *testing.T) {
		t.Parallel()
		service := newAvailabilityService(&stubRuleRepo{}, newStubExceptionRepo())

		_, err := service.AddException(context.Background(), AddExceptionParams{
			Principal: admin,
			Input:     ExceptionInput{Date: "25-12-2026"},
		})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})

	t.Run("rejects non-administrators", func(t *testing.T) {
		t.Parallel()
		service := newAvailabilityService(&stubRuleRepo{}, newStubExceptionRepo())
		user := Principal{SubjectID: "user"}

		if _, err := service.AddException(context.Background(), AddExceptionParams{Principal: user, Input: ExceptionInput{Date: "2026-12-25"}}); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
		if err := service.RemoveException(context.Background(), user, "2026-12-25"); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
		if _, err := service.ListExceptions(context.Background(), user); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})
}
