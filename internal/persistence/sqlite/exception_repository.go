package sqlite

import (
	"context"

	"github.com/example/appointment-scheduler/internal/persistence"
	"github.com/example/appointment-scheduler/internal/timeslot"
)

// ExceptionRepository persists excluded calendar dates.
type ExceptionRepository struct {
	pool *ConnectionPool
}

func NewExceptionRepository(pool *ConnectionPool) *ExceptionRepository {
	return &ExceptionRepository{pool: pool}
}

func (r *ExceptionRepository) CreateException(ctx context.Context, exception persistence.ExceptionDate) error {
	_, err := r.pool.DB().ExecContext(ctx,
		`INSERT INTO exception_dates (date, reason, created_at) VALUES (?, ?, ?)`,
		exception.Date.String(),
		exception.Reason,
		formatTime(exception.CreatedAt),
	)
	return mapError(err)
}

func (r *ExceptionRepository) DeleteException(ctx context.Context, date timeslot.Date) error {
	result, err := r.pool.DB().ExecContext(ctx, `DELETE FROM exception_dates WHERE date = ?`, date.String())
	if err != nil {
		return mapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

func (r *ExceptionRepository) ListExceptions(ctx context.Context) ([]persistence.ExceptionDate, error) {
	return r.list(ctx, `SELECT date, reason, created_at FROM exception_dates ORDER BY date`)
}

// ListExceptionsInRange returns exceptions with from <= date <= to. ISO dates
// sort lexicographically, so the comparison happens in SQL.
func (r *ExceptionRepository) ListExceptionsInRange(ctx context.Context, from, to timeslot.Date) ([]persistence.ExceptionDate, error) {
	return r.list(ctx,
		`SELECT date, reason, created_at FROM exception_dates WHERE date >= ? AND date <= ? ORDER BY date`,
		from.String(), to.String())
}

func (r *ExceptionRepository) list(ctx context.Context, query string, args ...any) ([]persistence.ExceptionDate, error) {
	rows, err := r.pool.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var exceptions []persistence.ExceptionDate
	for rows.Next() {
		var (
			exception persistence.ExceptionDate
			date      string
			createdAt string
		)
		if err := rows.Scan(&date, &exception.Reason, &createdAt); err != nil {
			return nil, err
		}
		if exception.Date, err = timeslot.ParseDate(date); err != nil {
			return nil, err
		}
		if exception.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		exceptions = append(exceptions, exception)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return exceptions, nil
}
