package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/example/appointment-scheduler/internal/persistence/sqlite"
)

// SQLiteHarness provides a migrated on-disk database in a temporary directory
// that is removed when the test finishes.
type SQLiteHarness struct {
	Pool *sqlite.ConnectionPool
	Path string
}

// NewSQLiteHarness opens a fresh database for the test and applies the schema.
func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "appointments.db")
	pool, err := sqlite.Open(path)
	if err != nil {
		tb.Fatalf("failed to open test database: %v", err)
	}
	tb.Cleanup(func() {
		if err := pool.Close(); err != nil {
			tb.Errorf("failed to close test database: %v", err)
		}
	})

	if err := sqlite.Migrate(context.Background(), pool); err != nil {
		tb.Fatalf("failed to migrate test database: %v", err)
	}

	return &SQLiteHarness{Pool: pool, Path: path}
}
