package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/appointment-scheduler/internal/persistence"
)

// DefaultSettings returns the configuration used before an administrator has
// ever saved one: 30 minute slots, one booking per slot, UTC, no lead time.
func DefaultSettings(now time.Time) persistence.Settings {
	return persistence.Settings{
		SlotDurationMinutes: 30,
		MaxBookingsPerSlot:  1,
		Timezone:            "UTC",
		MinLeadMinutes:      0,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
}

// SettingsService manages the singleton booking configuration.
type SettingsService struct {
	settings persistence.SettingsRepository
	now      func() time.Time
	logger   *slog.Logger
}

// NewSettingsService constructs a settings service with the provided dependencies.
func NewSettingsService(settings persistence.SettingsRepository, now func() time.Time) *SettingsService {
	return NewSettingsServiceWithLogger(settings, now, nil)
}

// NewSettingsServiceWithLogger constructs a settings service with a specified logger.
func NewSettingsServiceWithLogger(settings persistence.SettingsRepository, now func() time.Time, logger *slog.Logger) *SettingsService {
	if now == nil {
		now = time.Now
	}
	return &SettingsService{settings: settings, now: now, logger: defaultLogger(logger)}
}

func (s *SettingsService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "SettingsService", operation, attrs...)
}

// Current returns the active configuration, initializing the defaults row on
// first use. It carries no authorization check; slot generation and booking
// need the configuration on behalf of anonymous callers.
func (s *SettingsService) Current(ctx context.Context) (persistence.Settings, error) {
	if s == nil {
		return persistence.Settings{}, fmt.Errorf("SettingsService is nil")
	}
	if s.settings == nil {
		return persistence.Settings{}, fmt.Errorf("settings repository not configured")
	}

	settings, err := s.settings.GetSettings(ctx)
	if err == nil {
		return settings, nil
	}
	if !errors.Is(err, persistence.ErrNotFound) {
		return persistence.Settings{}, err
	}

	settings, err = s.settings.InitSettings(ctx, DefaultSettings(s.now()))
	if err != nil {
		return persistence.Settings{}, err
	}
	s.loggerWith(ctx, "Current").InfoContext(ctx, "settings initialized with defaults")
	return settings, nil
}

// Get returns the active configuration to an administrator.
func (s *SettingsService) Get(ctx context.Context, principal Principal) (settings persistence.Settings, err error) {
	if s == nil {
		err = fmt.Errorf("SettingsService is nil")
		return
	}
	if !principal.IsAdmin {
		err = ErrUnauthorized
		return
	}
	return s.Current(ctx)
}

// Update validates and replaces the configuration for an administrator.
// Existing bookings are untouched; the new values only shape slots generated
// from now on.
func (s *SettingsService) Update(ctx context.Context, params UpdateSettingsParams) (settings persistence.Settings, err error) {
	if s == nil {
		err = fmt.Errorf("SettingsService is nil")
		return
	}
	if s.settings == nil {
		err = fmt.Errorf("settings repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "Update",
		"principal_id", params.Principal.SubjectID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update settings", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "settings updated",
			"slot_duration_minutes", settings.SlotDurationMinutes,
			"max_bookings_per_slot", settings.MaxBookingsPerSlot,
			"timezone", settings.Timezone,
		)
	}()

	if !params.Principal.IsAdmin {
		err = ErrUnauthorized
		return
	}

	vErr := validateSettingsInput(params.Input)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	// Initialize on first write so update always has a row to replace.
	if _, err = s.Current(ctx); err != nil {
		return
	}

	settings, err = s.settings.UpdateSettings(ctx, persistence.Settings{
		SlotDurationMinutes: params.Input.SlotDurationMinutes,
		MaxBookingsPerSlot:  params.Input.MaxBookingsPerSlot,
		Timezone:            strings.TrimSpace(params.Input.Timezone),
		MinLeadMinutes:      params.Input.MinLeadMinutes,
		UpdatedAt:           s.now(),
	})
	if err != nil {
		err = mapSettingsRepoError(err)
		return
	}
	return
}

func validateSettingsInput(input SettingsInput) *ValidationError {
	vErr := &ValidationError{}

	if input.SlotDurationMinutes <= 0 {
		vErr.add("slot_duration_minutes", "slot duration must be positive")
	} else if input.SlotDurationMinutes > 24*60 {
		vErr.add("slot_duration_minutes", "slot duration must not exceed one day")
	}
	if input.MaxBookingsPerSlot <= 0 {
		vErr.add("max_bookings_per_slot", "capacity must be positive")
	}
	if input.MinLeadMinutes < 0 {
		vErr.add("min_lead_minutes", "lead time must not be negative")
	}

	tz := strings.TrimSpace(input.Timezone)
	if tz == "" {
		vErr.add("timezone", "timezone is required")
	} else if _, err := time.LoadLocation(tz); err != nil {
		vErr.add("timezone", "timezone is not a valid IANA zone name")
	}

	return vErr
}

func mapSettingsRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrConstraintViolation) {
		vErr := &ValidationError{}
		vErr.add("settings", "configuration values violate storage constraints")
		return vErr
	}
	return err
}
