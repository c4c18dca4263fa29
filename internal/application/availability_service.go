package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/appointment-scheduler/internal/persistence"
	"github.com/example/appointment-scheduler/internal/timeslot"
)

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// ParseWeekday maps a lowercase English day name to its weekday.
func ParseWeekday(name string) (time.Weekday, error) {
	weekday, ok := weekdayNames[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, fmt.Errorf("unknown weekday %q", name)
	}
	return weekday, nil
}

// AvailabilityService manages weekly rules and calendar exceptions.
type AvailabilityService struct {
	rules       persistence.RuleRepository
	exceptions  persistence.ExceptionRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewAvailabilityService constructs an availability service with the provided dependencies.
func NewAvailabilityService(rules persistence.RuleRepository, exceptions persistence.ExceptionRepository, idGenerator func() string, now func() time.Time) *AvailabilityService {
	return NewAvailabilityServiceWithLogger(rules, exceptions, idGenerator, now, nil)
}

// NewAvailabilityServiceWithLogger constructs an availability service with a specified logger.
func NewAvailabilityServiceWithLogger(rules persistence.RuleRepository, exceptions persistence.ExceptionRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *AvailabilityService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &AvailabilityService{
		rules:       rules,
		exceptions:  exceptions,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *AvailabilityService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AvailabilityService", operation, attrs...)
}

// CreateRule validates input, rejects overlaps with existing active rules on
// the same weekday, and persists a new rule for an administrator.
func (s *AvailabilityService) CreateRule(ctx context.Context, params CreateRuleParams) (rule persistence.AvailabilityRule, err error) {
	if s == nil {
		err = fmt.Errorf("AvailabilityService is nil")
		return
	}
	if s.rules == nil {
		err = fmt.Errorf("rule repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "CreateRule",
		"principal_id", params.Principal.SubjectID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create rule", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("rule_id", rule.ID).InfoContext(ctx, "rule created")
	}()

	if !params.Principal.IsAdmin {
		err = ErrUnauthorized
		return
	}

	weekday, start, end, vErr := parseRuleInput(params.Input)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	candidate := persistence.AvailabilityRule{
		ID:        s.idGenerator(),
		Weekday:   weekday,
		Start:     start,
		End:       end,
		Active:    params.Input.Active,
		Recurring: true,
		CreatedAt: s.now(),
	}
	candidate.UpdatedAt = candidate.CreatedAt

	if err = s.checkRuleConflicts(ctx, candidate); err != nil {
		return
	}

	if err = s.rules.CreateRule(ctx, candidate); err != nil {
		err = mapRuleRepoError(err)
		return
	}
	rule = candidate
	return
}

// UpdateRule validates input and rewrites an existing rule for an
// administrator. The updated interval must not overlap other active rules;
// the rule never conflicts with its own previous shape.
func (s *AvailabilityService) UpdateRule(ctx context.Context, params UpdateRuleParams) (rule persistence.AvailabilityRule, err error) {
	if s == nil {
		err = fmt.Errorf("AvailabilityService is nil")
		return
	}
	if s.rules == nil {
		err = fmt.Errorf("rule repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "UpdateRule",
		"principal_id", params.Principal.SubjectID,
		"rule_id", params.RuleID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update rule", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "rule updated")
	}()

	if !params.Principal.IsAdmin {
		err = ErrUnauthorized
		return
	}

	var existing persistence.AvailabilityRule
	existing, err = s.rules.GetRule(ctx, params.RuleID)
	if err != nil {
		err = mapRuleRepoError(err)
		return
	}

	weekday, start, end, vErr := parseRuleInput(params.Input)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	updated := existing
	updated.Weekday = weekday
	updated.Start = start
	updated.End = end
	updated.Active = params.Input.Active
	updated.UpdatedAt = s.now()

	if err = s.checkRuleConflicts(ctx, updated); err != nil {
		return
	}

	if err = s.rules.UpdateRule(ctx, updated); err != nil {
		err = mapRuleRepoError(err)
		return
	}
	rule = updated
	return
}

// GetRule returns one rule to an administrator.
func (s *AvailabilityService) GetRule(ctx context.Context, principal Principal, ruleID string) (persistence.AvailabilityRule, error) {
	if s == nil {
		return persistence.AvailabilityRule{}, fmt.Errorf("AvailabilityService is nil")
	}
	if !principal.IsAdmin {
		return persistence.AvailabilityRule{}, ErrUnauthorized
	}
	rule, err := s.rules.GetRule(ctx, ruleID)
	if err != nil {
		return persistence.AvailabilityRule{}, mapRuleRepoError(err)
	}
	return rule, nil
}

// ListRules returns rules ordered by weekday then start to an administrator.
// A non-empty weekdayName restricts the listing to that day.
func (s *AvailabilityService) ListRules(ctx context.Context, principal Principal, weekdayName string) ([]persistence.AvailabilityRule, error) {
	if s == nil {
		return nil, fmt.Errorf("AvailabilityService is nil")
	}
	if !principal.IsAdmin {
		return nil, ErrUnauthorized
	}

	var filter *time.Weekday
	if strings.TrimSpace(weekdayName) != "" {
		weekday, err := ParseWeekday(weekdayName)
		if err != nil {
			vErr := &ValidationError{}
			vErr.add("weekday", "weekday must be an English day name such as monday")
			return nil, vErr
		}
		filter = &weekday
	}

	rules, err := s.rules.ListRules(ctx, filter)
	if err != nil {
		return nil, mapRuleRepoError(err)
	}
	return rules, nil
}

// DeleteRule removes a rule for an administrator. Existing bookings are
// untouched; the rule only stops producing future slots.
func (s *AvailabilityService) DeleteRule(ctx context.Context, principal Principal, ruleID string) error {
	if s == nil {
		return fmt.Errorf("AvailabilityService is nil")
	}
	if !principal.IsAdmin {
		return ErrUnauthorized
	}

	logger := s.loggerWith(ctx, "DeleteRule",
		"principal_id", principal.SubjectID,
		"rule_id", ruleID,
	)

	if err := s.rules.DeleteRule(ctx, ruleID); err != nil {
		err = mapRuleRepoError(err)
		logger.ErrorContext(ctx, "failed to delete rule", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	logger.InfoContext(ctx, "rule deleted")
	return nil
}

// AddException registers a date on which no slots are generated.
func (s *AvailabilityService) AddException(ctx context.Context, params AddExceptionParams) (exception persistence.ExceptionDate, err error) {
	if s == nil {
		err = fmt.Errorf("AvailabilityService is nil")
		return
	}
	if s.exceptions == nil {
		err = fmt.Errorf("exception repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "AddException",
		"principal_id", params.Principal.SubjectID,
		"date", params.Input.Date,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to add exception", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "exception added")
	}()

	if !params.Principal.IsAdmin {
		err = ErrUnauthorized
		return
	}

	date, parseErr := timeslot.ParseDate(params.Input.Date)
	if parseErr != nil {
		vErr := &ValidationError{}
		vErr.add("date", "date must be formatted as YYYY-MM-DD")
		err = vErr
		return
	}

	exception = persistence.ExceptionDate{
		Date:      date,
		Reason:    strings.TrimSpace(params.Input.Reason),
		CreatedAt: s.now(),
	}
	if err = s.exceptions.CreateException(ctx, exception); err != nil {
		err = mapExceptionRepoError(err)
		exception = persistence.ExceptionDate{}
		return
	}
	return
}

// RemoveException deletes the exception for a date; generation resumes there.
func (s *AvailabilityService) RemoveException(ctx context.Context, principal Principal, rawDate string) error {
	if s == nil {
		return fmt.Errorf("AvailabilityService is nil")
	}
	if !principal.IsAdmin {
		return ErrUnauthorized
	}

	logger := s.loggerWith(ctx, "RemoveException",
		"principal_id", principal.SubjectID,
		"date", rawDate,
	)

	date, err := timeslot.ParseDate(rawDate)
	if err != nil {
		vErr := &ValidationError{}
		vErr.add("date", "date must be formatted as YYYY-MM-DD")
		logger.ErrorContext(ctx, "failed to remove exception", "error", vErr, "error_kind", ErrorKind(vErr))
		return vErr
	}

	if err := s.exceptions.DeleteException(ctx, date); err != nil {
		err = mapExceptionRepoError(err)
		logger.ErrorContext(ctx, "failed to remove exception", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	logger.InfoContext(ctx, "exception removed")
	return nil
}

// ListExceptions returns all exceptions ordered by date to an administrator.
func (s *AvailabilityService) ListExceptions(ctx context.Context, principal Principal) ([]persistence.ExceptionDate, error) {
	if s == nil {
		return nil, fmt.Errorf("AvailabilityService is nil")
	}
	if !principal.IsAdmin {
		return nil, ErrUnauthorized
	}
	exceptions, err := s.exceptions.ListExceptions(ctx)
	if err != nil {
		return nil, mapExceptionRepoError(err)
	}
	return exceptions, nil
}

func (s *AvailabilityService) checkRuleConflicts(ctx context.Context, candidate persistence.AvailabilityRule) error {
	weekday := candidate.Weekday
	existing, err := s.rules.ListRules(ctx, &weekday)
	if err != nil {
		return mapRuleRepoError(err)
	}

	others := make([]timeslot.Rule, 0, len(existing))
	for _, rule := range existing {
		others = append(others, toTimeslotRule(rule))
	}
	if conflicts := timeslot.DetectRuleConflicts(others, toTimeslotRule(candidate)); len(conflicts) > 0 {
		return fmt.Errorf("%w: overlaps rule %s", ErrRuleConflict, conflicts[0].WithRuleID)
	}
	return nil
}

func toTimeslotRule(rule persistence.AvailabilityRule) timeslot.Rule {
	return timeslot.Rule{
		ID:      rule.ID,
		Weekday: rule.Weekday,
		Start:   rule.Start,
		End:     rule.End,
		Active:  rule.Active,
	}
}

func parseRuleInput(input RuleInput) (time.Weekday, timeslot.MinuteOfDay, timeslot.MinuteOfDay, *ValidationError) {
	vErr := &ValidationError{}

	weekday, err := ParseWeekday(input.Weekday)
	if err != nil {
		vErr.add("weekday", "weekday must be an English day name such as monday")
	}

	start, err := timeslot.ParseMinuteOfDay(input.Start)
	if err != nil {
		vErr.add("start", "start must be formatted as HH:MM")
	}
	end, err := timeslot.ParseMinuteOfDay(input.End)
	if err != nil {
		vErr.add("end", "end must be formatted as HH:MM")
	}
	if !vErr.HasErrors() && end <= start {
		vErr.add("end", "end must be after start")
	}

	return weekday, start, end, vErr
}

func mapRuleRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrDuplicate) {
		return ErrAlreadyExists
	}
	if errors.Is(err, persistence.ErrConstraintViolation) {
		vErr := &ValidationError{}
		vErr.add("end", "end must be after start")
		return vErr
	}
	return err
}

func mapExceptionRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrDuplicate) {
		return ErrAlreadyExists
	}
	return err
}
