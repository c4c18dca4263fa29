package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/example/appointment-scheduler/internal/persistence"
)

// AppointmentRepository persists bookings and enforces per-slot capacity.
type AppointmentRepository struct {
	pool  *ConnectionPool
	retry RetryConfig
}

func NewAppointmentRepository(pool *ConnectionPool) *AppointmentRepository {
	return &AppointmentRepository{pool: pool, retry: DefaultRetryConfig()}
}

const appointmentColumns = `id, slot_start, slot_end, subject_id, status, created_at, cancelled_at`

// CreateAppointmentIfCapacity counts confirmed appointments for the slot and
// inserts only when the count is below capacity. Count and insert share one
// immediate write transaction, so two concurrent bookings for the last place
// serialize and exactly one succeeds.
func (r *AppointmentRepository) CreateAppointmentIfCapacity(ctx context.Context, appointment persistence.Appointment, capacity int) error {
	return r.pool.WithRetryingTransaction(ctx, r.retry, func(tx *sql.Tx) error {
		var booked int
		err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM appointments WHERE slot_start = ? AND status = ?`,
			formatTime(appointment.SlotStart),
			persistence.AppointmentStatusConfirmed,
		).Scan(&booked)
		if err != nil {
			return mapError(err)
		}
		if booked >= capacity {
			return persistence.ErrCapacityExceeded
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO appointments (`+appointmentColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			appointment.ID,
			formatTime(appointment.SlotStart),
			formatTime(appointment.SlotEnd),
			appointment.SubjectID,
			appointment.Status,
			formatTime(appointment.CreatedAt),
			formatNullableTime(appointment.CancelledAt),
		)
		return mapError(err)
	})
}

// CancelAppointment transitions a confirmed appointment to cancelled. The
// status check and update share one transaction so a repeat cancel reliably
// reports ErrAlreadyCancelled instead of silently rewriting the row.
func (r *AppointmentRepository) CancelAppointment(ctx context.Context, id string, cancelledAt time.Time) (persistence.Appointment, error) {
	var cancelled persistence.Appointment
	err := r.pool.WithRetryingTransaction(ctx, r.retry, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `SELECT `+appointmentColumns+` FROM appointments WHERE id = ?`, id)
		current, err := scanAppointment(row)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return persistence.ErrNotFound
			}
			return err
		}
		if current.Status == persistence.AppointmentStatusCancelled {
			return persistence.ErrAlreadyCancelled
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE appointments SET status = ?, cancelled_at = ? WHERE id = ?`,
			persistence.AppointmentStatusCancelled,
			formatTime(cancelledAt),
			id,
		)
		if err != nil {
			return mapError(err)
		}

		cancelled = current
		cancelled.Status = persistence.AppointmentStatusCancelled
		at := cancelledAt.UTC()
		cancelled.CancelledAt = &at
		return nil
	})
	if err != nil {
		return persistence.Appointment{}, err
	}
	return cancelled, nil
}

func (r *AppointmentRepository) GetAppointment(ctx context.Context, id string) (persistence.Appointment, error) {
	row := r.pool.DB().QueryRowContext(ctx, `SELECT `+appointmentColumns+` FROM appointments WHERE id = ?`, id)
	appointment, err := scanAppointment(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Appointment{}, persistence.ErrNotFound
		}
		return persistence.Appointment{}, err
	}
	return appointment, nil
}

func (r *AppointmentRepository) ListAppointments(ctx context.Context, from, to time.Time) ([]persistence.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments`
	var (
		clauses []string
		args    []any
	)
	if !from.IsZero() {
		clauses = append(clauses, `slot_start >= ?`)
		args = append(args, formatTime(from))
	}
	if !to.IsZero() {
		clauses = append(clauses, `slot_start < ?`)
		args = append(args, formatTime(to))
	}
	for i, clause := range clauses {
		if i == 0 {
			query += ` WHERE ` + clause
		} else {
			query += ` AND ` + clause
		}
	}
	query += ` ORDER BY slot_start, id`

	rows, err := r.pool.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var appointments []persistence.Appointment
	for rows.Next() {
		appointment, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		appointments = append(appointments, appointment)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return appointments, nil
}

func (r *AppointmentRepository) CountConfirmedBySlot(ctx context.Context, from, to time.Time) (map[time.Time]int, error) {
	rows, err := r.pool.DB().QueryContext(ctx,
		`SELECT slot_start, COUNT(*) FROM appointments
		 WHERE status = ? AND slot_start >= ? AND slot_start < ?
		 GROUP BY slot_start`,
		persistence.AppointmentStatusConfirmed,
		formatTime(from),
		formatTime(to),
	)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	counts := make(map[time.Time]int)
	for rows.Next() {
		var (
			slotStart string
			count     int
		)
		if err := rows.Scan(&slotStart, &count); err != nil {
			return nil, err
		}
		start, err := parseTime(slotStart)
		if err != nil {
			return nil, err
		}
		counts[start] = count
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return counts, nil
}

func scanAppointment(row rowScanner) (persistence.Appointment, error) {
	var (
		appointment          persistence.Appointment
		slotStart, slotEnd   string
		createdAt            string
		cancelledAt          sql.NullString
	)
	err := row.Scan(&appointment.ID, &slotStart, &slotEnd, &appointment.SubjectID, &appointment.Status, &createdAt, &cancelledAt)
	if err != nil {
		return persistence.Appointment{}, err
	}
	if appointment.SlotStart, err = parseTime(slotStart); err != nil {
		return persistence.Appointment{}, err
	}
	if appointment.SlotEnd, err = parseTime(slotEnd); err != nil {
		return persistence.Appointment{}, err
	}
	if appointment.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Appointment{}, err
	}
	if appointment.CancelledAt, err = parseNullableTime(cancelledAt); err != nil {
		return persistence.Appointment{}, err
	}
	return appointment, nil
}
