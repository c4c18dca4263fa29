package application

import (
	"context"
	"log/slog"
)

// EventPublisher receives booking lifecycle notifications. Publishing happens
// after the state change is committed; a slow or failing publisher must not
// undo the booking.
type EventPublisher interface {
	BookingConfirmed(ctx context.Context, booking Booking)
	BookingCancelled(ctx context.Context, booking Booking)
}

// LogPublisher emits booking lifecycle events as structured log records.
type LogPublisher struct {
	logger *slog.Logger
}

// NewLogPublisher creates a publisher writing to the given logger.
func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: defaultLogger(logger)}
}

func (p *LogPublisher) BookingConfirmed(ctx context.Context, booking Booking) {
	p.logger.InfoContext(ctx, "booking confirmed",
		"event", "booking_confirmed",
		"booking_id", booking.ID,
		"subject_id", booking.SubjectID,
		"slot_start", booking.SlotStart,
	)
}

func (p *LogPublisher) BookingCancelled(ctx context.Context, booking Booking) {
	p.logger.InfoContext(ctx, "booking cancelled",
		"event", "booking_cancelled",
		"booking_id", booking.ID,
		"subject_id", booking.SubjectID,
		"slot_start", booking.SlotStart,
	)
}
