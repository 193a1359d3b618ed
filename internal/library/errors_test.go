package library

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapSQLiteError(t *testing.T) {
	other := errors.New("disk I/O error")
	tests := []struct {
		name string
		in   error
		want error
	}{
		{"nil", nil, nil},
		{"no rows", fmt.Errorf("query: %w", sql.ErrNoRows), ErrNotFound},
		{"unique", errors.New("constraint failed: UNIQUE constraint failed: records.item_id, records.user_id (2067)"), ErrDuplicate},
		{"check", errors.New("constraint failed: CHECK constraint failed: progress >= 0 (275)"), ErrConstraint},
		{"foreign key", errors.New("constraint failed: FOREIGN KEY constraint failed (787)"), ErrConstraint},
		{"passthrough", other, other},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mapSQLiteError(tt.in))
		})
	}
}

func TestStoreErrors_FromDatabase(t *testing.T) {
	store := NewStore(setupTestDB(t))
	it := newMovie(t, store, 42)

	err := store.AddRecord(&Record{ItemID: it.ID, UserID: 1, Progress: -1, Status: StatusPlanning})
	assert.ErrorIs(t, err, ErrConstraint)

	err = store.AddRecord(&Record{ItemID: 9999, UserID: 1, Status: StatusPlanning})
	assert.ErrorIs(t, err, ErrConstraint)

	_, err = store.GetRecord(9999)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.False(t, errors.Is(err, ErrDuplicate))
}
