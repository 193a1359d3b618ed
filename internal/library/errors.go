package library

import (
	"database/sql"
	"errors"
	"strings"
)

// Store errors. Callers match them with errors.Is.
var (
	ErrNotFound   = errors.New("library: not found")
	ErrDuplicate  = errors.New("library: already exists")
	ErrConstraint = errors.New("library: constraint violated")
)

// mapSQLiteError translates driver failures into the store errors. The
// modernc driver only exposes constraint kinds through the message text.
func mapSQLiteError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return ErrNotFound
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"), strings.Contains(msg, "PRIMARY KEY constraint failed"):
		return ErrDuplicate
	case strings.Contains(msg, "FOREIGN KEY constraint failed"), strings.Contains(msg, "CHECK constraint failed"):
		return ErrConstraint
	}
	return err
}
