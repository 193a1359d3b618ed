package library

import (
	"database/sql"
	"testing"

	"github.com/vmunix/trackarr/internal/testutil"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	return testutil.NewTestDB(t)
}

func ptr[T any](v T) *T { return &v }
