package events

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// EventLog is the persistent history of tracking events.
type EventLog struct {
	db *sql.DB
}

// NewEventLog returns a history log over db.
func NewEventLog(db *sql.DB) *EventLog {
	return &EventLog{db: db}
}

// Append stores e with its JSON payload and returns the row ID.
func (l *EventLog) Append(e Event) (int64, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return 0, fmt.Errorf("encode %s: %w", e.EventType(), err)
	}

	res, err := l.db.Exec(
		`INSERT INTO events (event_type, entity_type, entity_id, user_id, payload, occurred_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		e.EventType(), e.EntityType(), e.EntityID(), e.UserID(), string(payload), e.OccurredAt().UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("append %s: %w", e.EventType(), err)
	}
	return res.LastInsertId()
}

// RawEvent is a stored event. Payload holds the JSON the registry decodes.
type RawEvent struct {
	ID         int64
	EventType  string
	EntityType string
	EntityID   int64
	UserID     int64
	Payload    string
	OccurredAt time.Time
	CreatedAt  time.Time
}

// Query narrows a history read. Zero fields are not applied. Newest
// returns the latest rows first; otherwise rows come in insertion order.
type Query struct {
	UserID     int64
	EntityType string
	EntityID   int64
	Types      []string
	Since      time.Time
	Limit      int
	Newest     bool
}

func (q Query) sql() (string, []any) {
	var (
		where []string
		args  []any
	)
	if q.UserID != 0 {
		where = append(where, "user_id = ?")
		args = append(args, q.UserID)
	}
	if q.EntityType != "" {
		where = append(where, "entity_type = ?")
		args = append(args, q.EntityType)
	}
	if q.EntityID != 0 {
		where = append(where, "entity_id = ?")
		args = append(args, q.EntityID)
	}
	if len(q.Types) > 0 {
		where = append(where, "event_type IN (?"+strings.Repeat(", ?", len(q.Types)-1)+")")
		for _, t := range q.Types {
			args = append(args, t)
		}
	}
	if !q.Since.IsZero() {
		where = append(where, "occurred_at >= ?")
		args = append(args, q.Since.UTC())
	}

	var b strings.Builder
	b.WriteString("SELECT id, event_type, entity_type, entity_id, user_id, payload, occurred_at, created_at FROM events")
	if len(where) > 0 {
		b.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	if q.Newest {
		b.WriteString(" ORDER BY id DESC")
	} else {
		b.WriteString(" ORDER BY id")
	}
	if q.Limit > 0 {
		b.WriteString(" LIMIT ?")
		args = append(args, q.Limit)
	}
	return b.String(), args
}

// Find returns the stored events matching q.
func (l *EventLog) Find(q Query) ([]RawEvent, error) {
	query, args := q.sql()
	rows, err := l.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []RawEvent
	for rows.Next() {
		var e RawEvent
		if err := rows.Scan(&e.ID, &e.EventType, &e.EntityType, &e.EntityID, &e.UserID, &e.Payload, &e.OccurredAt, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ForUser returns up to limit of a user's events, newest first. A limit of
// 0 returns the full history.
func (l *EventLog) ForUser(userID int64, limit int) ([]RawEvent, error) {
	return l.Find(Query{UserID: userID, Limit: limit, Newest: true})
}

// Prune deletes events that occurred more than retention ago and reports
// how many went.
func (l *EventLog) Prune(retention time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-retention)
	res, err := l.db.Exec(`DELETE FROM events WHERE occurred_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune history: %w", err)
	}
	return res.RowsAffected()
}
