// Package testutil provides helpers shared by package tests.
package testutil

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/vmunix/trackarr/internal/database"
)

// NewTestDB creates a migrated database in a per-test temp directory.
// The connection is closed when the test finishes.
func NewTestDB(t testing.TB) *sql.DB {
	t.Helper()

	db, err := database.OpenAndMigrate(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// NewTestLogger creates a logger that writes to t.Log.
func NewTestLogger(t testing.TB) zerolog.Logger {
	t.Helper()
	return zerolog.New(zerolog.NewTestWriter(t)).Level(zerolog.DebugLevel)
}
