package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

// schemaVersions holds the ordered schema migrations. Each entry is applied
// once, in a transaction together with its version bookkeeping row.
var schemaVersions = []struct {
	version int
	stmts   []string
}{
	{
		version: 1,
		stmts: []string{
			`CREATE TABLE settings (
				id INTEGER PRIMARY KEY CHECK (id = 1),
				slot_duration_minutes INTEGER NOT NULL CHECK (slot_duration_minutes > 0),
				max_bookings_per_slot INTEGER NOT NULL CHECK (max_bookings_per_slot > 0),
				timezone TEXT NOT NULL,
				min_lead_minutes INTEGER NOT NULL CHECK (min_lead_minutes >= 0),
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)`,
			`CREATE TABLE availability_rules (
				id TEXT PRIMARY KEY,
				weekday INTEGER NOT NULL CHECK (weekday BETWEEN 0 AND 6),
				start_minute INTEGER NOT NULL CHECK (start_minute BETWEEN 0 AND 1440),
				end_minute INTEGER NOT NULL CHECK (end_minute BETWEEN 0 AND 1440),
				active INTEGER NOT NULL DEFAULT 1,
				recurring INTEGER NOT NULL DEFAULT 1,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL,
				CHECK (start_minute < end_minute)
			)`,
			`CREATE INDEX idx_availability_rules_weekday ON availability_rules(weekday, start_minute)`,
			`CREATE TABLE exception_dates (
				date TEXT PRIMARY KEY,
				reason TEXT NOT NULL DEFAULT '',
				created_at TEXT NOT NULL
			)`,
			`CREATE TABLE appointments (
				id TEXT PRIMARY KEY,
				slot_start TEXT NOT NULL,
				slot_end TEXT NOT NULL,
				subject_id TEXT NOT NULL,
				status TEXT NOT NULL CHECK (status IN ('confirmed', 'cancelled')),
				created_at TEXT NOT NULL,
				cancelled_at TEXT
			)`,
			`CREATE INDEX idx_appointments_slot_start ON appointments(slot_start, status)`,
		},
	},
}

// Migrate brings the database schema up to the current version. It is safe to
// call on every startup; already-applied versions are skipped.
func Migrate(ctx context.Context, pool *ConnectionPool) error {
	_, err := pool.DB().ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
	)`)
	if err != nil {
		return fmt.Errorf("sqlite: failed to create migration table: %w", err)
	}

	for _, m := range schemaVersions {
		applied, err := versionApplied(ctx, pool.DB(), m.version)
		if err != nil {
			return err
		}
		if applied {
			continue
		}
		stmts := m.stmts
		version := m.version
		err = pool.WithTransaction(ctx, func(tx *sql.Tx) error {
			for _, stmt := range stmts {
				if _, err := tx.ExecContext(ctx, stmt); err != nil {
					return fmt.Errorf("sqlite: migration %d failed: %w", version, err)
				}
			}
			if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES (?)`, version); err != nil {
				return fmt.Errorf("sqlite: failed to record migration %d: %w", version, err)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func versionApplied(ctx context.Context, db *sql.DB, version int) (bool, error) {
	var count int
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM schema_migrations WHERE version = ?`, version).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("sqlite: failed to query migration state: %w", err)
	}
	return count > 0, nil
}
