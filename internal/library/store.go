package library

import (
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// querier abstracts *sql.DB and *sql.Tx for shared query logic.
type querier interface {
	QueryRow(query string, args ...any) *sql.Row
	Query(query string, args ...any) (*sql.Rows, error)
	Exec(query string, args ...any) (sql.Result, error)
	Prepare(query string) (*sql.Stmt, error)
}

// Store provides access to library data.
type Store struct {
	db *sql.DB
}

// NewStore creates a new library store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Begin starts a transaction.
func (s *Store) Begin() (*Tx, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	return &Tx{tx: tx}, nil
}

// Tx wraps a database transaction with the same methods as Store.
type Tx struct {
	tx *sql.Tx
}

// Commit commits the transaction.
func (t *Tx) Commit() error {
	return t.tx.Commit()
}

// Rollback aborts the transaction. Calling it after Commit is harmless.
func (t *Tx) Rollback() error {
	err := t.tx.Rollback()
	if errors.Is(err, sql.ErrTxDone) {
		return nil
	}
	return err
}

// updateOne runs an UPDATE that must touch exactly one row; zero rows
// means the target is gone.
func updateOne(q querier, what string, query string, args ...any) error {
	res, err := q.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", what, mapSQLiteError(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update %s: %w", what, err)
	}
	if n == 0 {
		return fmt.Errorf("update %s: %w", what, ErrNotFound)
	}
	return nil
}

const dateLayout = "2006-01-02"

// Day truncates t to its calendar date, expressed as midnight UTC.
// Dates are stored without a time or zone.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// dateValue converts an optional date to its column value.
func dateValue(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(dateLayout)
}

// nullDate scans a nullable date column into a *time.Time.
type nullDate struct {
	dst **time.Time
}

func (n nullDate) Scan(src any) error {
	var s string
	switch v := src.(type) {
	case nil:
		*n.dst = nil
		return nil
	case time.Time:
		d := Day(v)
		*n.dst = &d
		return nil
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return fmt.Errorf("scan date: unsupported type %T", src)
	}
	if len(s) > len(dateLayout) {
		s = s[:len(dateLayout)]
	}
	d, err := time.Parse(dateLayout, s)
	if err != nil {
		return fmt.Errorf("scan date %q: %w", s, err)
	}
	*n.dst = &d
	return nil
}

func scanDate(dst **time.Time) sql.Scanner { return nullDate{dst: dst} }

// roundScore keeps one decimal place.
func roundScore(s *float64) any {
	if s == nil {
		return nil
	}
	return math.Round(*s*10) / 10
}

// whereClause joins conditions with AND.
func whereClause(conditions []string) string {
	if len(conditions) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(conditions, " AND ")
}

// inClause builds "col IN (?, ?)" for a non-empty list.
func inClause[T any](col string, values []T, args []any) (string, []any) {
	placeholders := make([]string, len(values))
	for i, v := range values {
		placeholders[i] = "?"
		args = append(args, v)
	}
	return fmt.Sprintf("%s IN (%s)", col, strings.Join(placeholders, ", ")), args
}

// queryAll runs query and scans every row into a fresh T.
func queryAll[T any](q querier, what string, dest func(*T) []any, query string, args ...any) ([]*T, error) {
	rows, err := q.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", what, err)
	}
	defer func() { _ = rows.Close() }()

	var out []*T
	for rows.Next() {
		v := new(T)
		if err := rows.Scan(dest(v)...); err != nil {
			return nil, fmt.Errorf("scan %s: %w", what, err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", what, err)
	}
	return out, nil
}

func paginate(query string, limit, offset int) string {
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset)
	}
	return query
}
