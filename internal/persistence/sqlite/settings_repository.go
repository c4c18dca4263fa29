package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/example/appointment-scheduler/internal/persistence"
)

// SettingsRepository persists the singleton configuration row.
type SettingsRepository struct {
	pool *ConnectionPool
}

func NewSettingsRepository(pool *ConnectionPool) *SettingsRepository {
	return &SettingsRepository{pool: pool}
}

const settingsColumns = `slot_duration_minutes, max_bookings_per_slot, timezone, min_lead_minutes, created_at, updated_at`

func (r *SettingsRepository) GetSettings(ctx context.Context) (persistence.Settings, error) {
	row := r.pool.DB().QueryRowContext(ctx, `SELECT `+settingsColumns+` FROM settings WHERE id = 1`)
	return scanSettings(row)
}

// InitSettings inserts the defaults row when no configuration exists yet and
// returns the stored row either way. The insert-then-select runs in a write
// transaction, so concurrent initializers converge on a single row.
func (r *SettingsRepository) InitSettings(ctx context.Context, defaults persistence.Settings) (persistence.Settings, error) {
	var stored persistence.Settings
	err := r.pool.WithRetryingTransaction(ctx, DefaultRetryConfig(), func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO settings (id, `+settingsColumns+`) VALUES (1, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT (id) DO NOTHING`,
			defaults.SlotDurationMinutes,
			defaults.MaxBookingsPerSlot,
			defaults.Timezone,
			defaults.MinLeadMinutes,
			formatTime(defaults.CreatedAt),
			formatTime(defaults.UpdatedAt),
		)
		if err != nil {
			return mapError(err)
		}
		row := tx.QueryRowContext(ctx, `SELECT `+settingsColumns+` FROM settings WHERE id = 1`)
		stored, err = scanSettings(row)
		return err
	})
	if err != nil {
		return persistence.Settings{}, err
	}
	return stored, nil
}

func (r *SettingsRepository) UpdateSettings(ctx context.Context, settings persistence.Settings) (persistence.Settings, error) {
	var stored persistence.Settings
	err := r.pool.WithRetryingTransaction(ctx, DefaultRetryConfig(), func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			`UPDATE settings
			 SET slot_duration_minutes = ?, max_bookings_per_slot = ?, timezone = ?, min_lead_minutes = ?, updated_at = ?
			 WHERE id = 1`,
			settings.SlotDurationMinutes,
			settings.MaxBookingsPerSlot,
			settings.Timezone,
			settings.MinLeadMinutes,
			formatTime(settings.UpdatedAt),
		)
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
		row := tx.QueryRowContext(ctx, `SELECT `+settingsColumns+` FROM settings WHERE id = 1`)
		stored, err = scanSettings(row)
		return err
	})
	if err != nil {
		return persistence.Settings{}, err
	}
	return stored, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSettings(row rowScanner) (persistence.Settings, error) {
	var (
		s                    persistence.Settings
		createdAt, updatedAt string
	)
	err := row.Scan(&s.SlotDurationMinutes, &s.MaxBookingsPerSlot, &s.Timezone, &s.MinLeadMinutes, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Settings{}, persistence.ErrNotFound
		}
		return persistence.Settings{}, mapError(err)
	}
	if s.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Settings{}, err
	}
	if s.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.Settings{}, err
	}
	return s, nil
}
