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

// maxQueryWindowDays bounds availability queries so a single request cannot
// ask for years of slots.
const maxQueryWindowDays = 366

// SettingsProvider supplies the active configuration.
type SettingsProvider interface {
	Current(ctx context.Context) (persistence.Settings, error)
}

// BookingService answers availability queries and commits bookings against
// the capacity-checked ledger.
type BookingService struct {
	settings     SettingsProvider
	rules        persistence.RuleRepository
	exceptions   persistence.ExceptionRepository
	appointments persistence.AppointmentRepository
	publisher    EventPublisher
	idGenerator  func() string
	now          func() time.Time
	logger       *slog.Logger
}

// NewBookingService constructs a booking service with the provided dependencies.
func NewBookingService(
	settings SettingsProvider,
	rules persistence.RuleRepository,
	exceptions persistence.ExceptionRepository,
	appointments persistence.AppointmentRepository,
	publisher EventPublisher,
	idGenerator func() string,
	now func() time.Time,
) *BookingService {
	return NewBookingServiceWithLogger(settings, rules, exceptions, appointments, publisher, idGenerator, now, nil)
}

// NewBookingServiceWithLogger constructs a booking service with a specified logger.
func NewBookingServiceWithLogger(
	settings SettingsProvider,
	rules persistence.RuleRepository,
	exceptions persistence.ExceptionRepository,
	appointments persistence.AppointmentRepository,
	publisher EventPublisher,
	idGenerator func() string,
	now func() time.Time,
	logger *slog.Logger,
) *BookingService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &BookingService{
		settings:     settings,
		rules:        rules,
		exceptions:   exceptions,
		appointments: appointments,
		publisher:    publisher,
		idGenerator:  idGenerator,
		now:          now,
		logger:       defaultLogger(logger),
	}
}

func (s *BookingService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "BookingService", operation, attrs...)
}

// ListAvailableSlots generates the bookable slots in an inclusive date window
// and joins each with its confirmed booking count. Public callers never see
// full or lead-time-expired slots; administrators may request full slots with
// IncludeFull.
func (s *BookingService) ListAvailableSlots(ctx context.Context, params ListSlotsParams) (slots []SlotAvailability, err error) {
	if s == nil {
		err = fmt.Errorf("BookingService is nil")
		return
	}

	logger := s.loggerWith(ctx, "ListAvailableSlots",
		"from", params.From,
		"to", params.To,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list slots", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(slots)).InfoContext(ctx, "slots listed")
	}()

	if params.IncludeFull && !params.Principal.IsAdmin {
		err = ErrUnauthorized
		return
	}

	from, to, vErr := parseDateWindow(params.From, params.To)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	settings, loc, resolveErr := s.resolveSettings(ctx)
	if resolveErr != nil {
		err = resolveErr
		return
	}

	generated, genErr := s.generateSlots(ctx, settings, loc, from, to, timeslot.Options{
		Now:  s.now(),
		Lead: time.Duration(settings.MinLeadMinutes) * time.Minute,
	})
	if genErr != nil {
		err = genErr
		return
	}
	if len(generated) == 0 {
		slots = []SlotAvailability{}
		return
	}

	duration := time.Duration(settings.SlotDurationMinutes) * time.Minute
	countFrom := generated[0].Start
	countTo := generated[len(generated)-1].Start.Add(duration)
	counts, countErr := s.appointments.CountConfirmedBySlot(ctx, countFrom, countTo)
	if countErr != nil {
		err = countErr
		return
	}

	slots = make([]SlotAvailability, 0, len(generated))
	for _, slot := range generated {
		booked := counts[slot.Start]
		remaining := slot.Capacity - booked
		if remaining < 0 {
			remaining = 0
		}
		if remaining == 0 && !params.IncludeFull {
			continue
		}
		slots = append(slots, SlotAvailability{
			Start:     slot.Start,
			End:       slot.End,
			Capacity:  slot.Capacity,
			Booked:    booked,
			Remaining: remaining,
		})
	}
	return
}

// RequestBooking commits a booking for one generated slot. The slot must
// exist under the current rules and configuration, satisfy the minimum lead
// time, and have a free place; the capacity check and insert are atomic in
// the ledger.
func (s *BookingService) RequestBooking(ctx context.Context, input BookingInput) (booking Booking, err error) {
	if s == nil {
		err = fmt.Errorf("BookingService is nil")
		return
	}

	logger := s.loggerWith(ctx, "RequestBooking",
		"slot_start", input.SlotStart,
		"subject_id", input.SubjectID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to book slot", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("booking_id", booking.ID).InfoContext(ctx, "slot booked")
	}()

	vErr := &ValidationError{}
	slotStart, parseErr := time.Parse(time.RFC3339, input.SlotStart)
	if parseErr != nil {
		vErr.add("slot_start", "slot_start must be an RFC3339 timestamp")
	}
	slotEnd, parseErr := time.Parse(time.RFC3339, input.SlotEnd)
	if parseErr != nil {
		vErr.add("slot_end", "slot_end must be an RFC3339 timestamp")
	}
	subjectID := strings.TrimSpace(input.SubjectID)
	if subjectID == "" {
		vErr.add("subject_id", "subject_id is required")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}
	slotStart = slotStart.UTC()
	slotEnd = slotEnd.UTC()

	settings, loc, resolveErr := s.resolveSettings(ctx)
	if resolveErr != nil {
		err = resolveErr
		return
	}

	// Regenerate the slot's day without a lead cutoff so a missing slot and
	// an expired slot stay distinguishable.
	day := timeslot.DateOf(slotStart.In(loc))
	generated, genErr := s.generateSlots(ctx, settings, loc, day, day, timeslot.Options{})
	if genErr != nil {
		err = genErr
		return
	}

	var slot timeslot.Slot
	found := false
	for _, candidate := range generated {
		if candidate.Start.Equal(slotStart) {
			slot = candidate
			found = true
			break
		}
	}
	if !found || !slot.End.Equal(slotEnd) {
		err = ErrSlotUnavailable
		return
	}

	now := s.now()
	lead := time.Duration(settings.MinLeadMinutes) * time.Minute
	if slot.Start.Before(now.Add(lead)) {
		err = ErrSlotExpired
		return
	}

	booking = Booking{
		ID:        s.idGenerator(),
		SlotStart: slot.Start,
		SlotEnd:   slot.End,
		SubjectID: subjectID,
		Status:    persistence.AppointmentStatusConfirmed,
		CreatedAt: now,
	}
	if err = s.appointments.CreateAppointmentIfCapacity(ctx, booking, slot.Capacity); err != nil {
		err = mapAppointmentRepoError(err)
		booking = Booking{}
		return
	}

	if s.publisher != nil {
		s.publisher.BookingConfirmed(ctx, booking)
	}
	return
}

// CancelBooking transitions a booking to cancelled and frees its place.
// Cancelling is idempotent in effect but a repeat cancel reports
// ErrAlreadyCancelled so callers can tell the difference.
func (s *BookingService) CancelBooking(ctx context.Context, bookingID string) (booking Booking, err error) {
	if s == nil {
		err = fmt.Errorf("BookingService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CancelBooking",
		"booking_id", bookingID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to cancel booking", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "booking cancelled")
	}()

	booking, err = s.appointments.CancelAppointment(ctx, bookingID, s.now())
	if err != nil {
		err = mapAppointmentRepoError(err)
		booking = Booking{}
		return
	}

	if s.publisher != nil {
		s.publisher.BookingCancelled(ctx, booking)
	}
	return
}

// ListBookings returns committed bookings to an administrator. From and To
// are optional RFC3339 bounds on the slot start.
func (s *BookingService) ListBookings(ctx context.Context, params ListBookingsParams) (bookings []Booking, err error) {
	if s == nil {
		err = fmt.Errorf("BookingService is nil")
		return
	}
	if !params.Principal.IsAdmin {
		err = ErrUnauthorized
		return
	}

	logger := s.loggerWith(ctx, "ListBookings",
		"principal_id", params.Principal.SubjectID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list bookings", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(bookings)).InfoContext(ctx, "bookings listed")
	}()

	vErr := &ValidationError{}
	var from, to time.Time
	if params.From != "" {
		parsed, parseErr := time.Parse(time.RFC3339, params.From)
		if parseErr != nil {
			vErr.add("from", "from must be an RFC3339 timestamp")
		}
		from = parsed
	}
	if params.To != "" {
		parsed, parseErr := time.Parse(time.RFC3339, params.To)
		if parseErr != nil {
			vErr.add("to", "to must be an RFC3339 timestamp")
		}
		to = parsed
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	bookings, err = s.appointments.ListAppointments(ctx, from, to)
	return
}

func (s *BookingService) resolveSettings(ctx context.Context) (persistence.Settings, *time.Location, error) {
	if s.settings == nil {
		return persistence.Settings{}, nil, fmt.Errorf("settings provider not configured")
	}
	settings, err := s.settings.Current(ctx)
	if err != nil {
		return persistence.Settings{}, nil, err
	}
	loc, err := time.LoadLocation(settings.Timezone)
	if err != nil {
		return persistence.Settings{}, nil, fmt.Errorf("stored timezone %q is invalid: %w", settings.Timezone, err)
	}
	return settings, loc, nil
}

func (s *BookingService) generateSlots(ctx context.Context, settings persistence.Settings, loc *time.Location, from, to timeslot.Date, opts timeslot.Options) ([]timeslot.Slot, error) {
	stored, err := s.rules.ListRules(ctx, nil)
	if err != nil {
		return nil, err
	}
	rules := make([]timeslot.Rule, 0, len(stored))
	for _, rule := range stored {
		rules = append(rules, toTimeslotRule(rule))
	}

	exceptions, err := s.exceptions.ListExceptionsInRange(ctx, from, to)
	if err != nil {
		return nil, err
	}
	excepted := make(map[timeslot.Date]struct{}, len(exceptions))
	for _, exception := range exceptions {
		excepted[exception.Date] = struct{}{}
	}

	engine := timeslot.NewEngine(loc)
	return engine.Generate(rules, func(d timeslot.Date) bool {
		_, ok := excepted[d]
		return ok
	}, timeslot.Parameters{
		SlotDuration: time.Duration(settings.SlotDurationMinutes) * time.Minute,
		Capacity:     settings.MaxBookingsPerSlot,
	}, from, to, opts)
}

func parseDateWindow(rawFrom, rawTo string) (timeslot.Date, timeslot.Date, *ValidationError) {
	vErr := &ValidationError{}

	from, err := timeslot.ParseDate(rawFrom)
	if err != nil {
		vErr.add("from", "from must be formatted as YYYY-MM-DD")
	}
	to, err := timeslot.ParseDate(rawTo)
	if err != nil {
		vErr.add("to", "to must be formatted as YYYY-MM-DD")
	}
	if vErr.HasErrors() {
		return from, to, vErr
	}

	if to.Before(from) {
		vErr.add("to", "to must not be before from")
		return from, to, vErr
	}
	if daysBetween(from, to) > maxQueryWindowDays {
		vErr.add("to", "window must not exceed one year")
	}
	return from, to, vErr
}

func daysBetween(from, to timeslot.Date) int {
	days := 0
	for d := from; d.Before(to); d = d.Next() {
		days++
		if days > maxQueryWindowDays {
			break
		}
	}
	return days
}

func mapAppointmentRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrCapacityExceeded) {
		return ErrSlotFull
	}
	if errors.Is(err, persistence.ErrAlreadyCancelled) {
		return ErrAlreadyCancelled
	}
	if errors.Is(err, persistence.ErrDuplicate) {
		return ErrAlreadyExists
	}
	return err
}
