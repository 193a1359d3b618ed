// Package calendar keeps upcoming release dates for tracked media.
package calendar

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/vmunix/trackarr/internal/library"
)

const dateLayout = "2006-01-02"

// Event is a release date for an item. EpisodeNumber is set for season items.
type Event struct {
	ID            int64
	ItemID        int64
	EpisodeNumber *int
	Date          time.Time

	Item library.Item // populated by UserEvents
}

// Label renders the event for listings, e.g. "Severance S02E05".
func (e *Event) Label() string {
	switch {
	case e.Item.MediaType == library.MediaSeason && e.Item.SeasonNumber != nil && e.EpisodeNumber != nil:
		return fmt.Sprintf("%s S%02dE%02d", e.Item.Title, *e.Item.SeasonNumber, *e.EpisodeNumber)
	case e.EpisodeNumber != nil:
		return fmt.Sprintf("%s - Ep. %d", e.Item.Title, *e.EpisodeNumber)
	}
	return e.Item.Title
}

// Store persists calendar events.
type Store struct {
	db *sql.DB
}

// NewStore creates a calendar store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// PendingItems returns items tracked with one of the given statuses, by any
// user, that either have an event on or after today or no events at all.
// Items whose events are all in the past are settled and skipped.
func (s *Store) PendingItems(statuses []library.Status, today time.Time) ([]*library.Item, error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(statuses)), ", ")
	args := make([]any, 0, 2*len(statuses)+1)
	for range 2 {
		for _, st := range statuses {
			args = append(args, string(st))
		}
	}
	args = append(args, today.Format(dateLayout))

	rows, err := s.db.Query(`
		SELECT i.id, i.source, i.media_id, i.media_type, i.season_number, i.title, i.image
		FROM items i
		WHERE (i.id IN (SELECT item_id FROM records WHERE status IN (`+marks+`))
		    OR i.id IN (SELECT item_id FROM seasons WHERE status IN (`+marks+`)))
		  AND (i.id IN (SELECT item_id FROM calendar_events WHERE date >= ?)
		    OR i.id NOT IN (SELECT item_id FROM calendar_events))
		ORDER BY i.id`, args...)
	if err != nil {
		return nil, fmt.Errorf("list pending items: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var items []*library.Item
	for rows.Next() {
		it := &library.Item{}
		var season sql.NullInt64
		if err := rows.Scan(&it.ID, &it.Source, &it.MediaID, &it.MediaType, &season, &it.Title, &it.Image); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		if season.Valid {
			n := int(season.Int64)
			it.SeasonNumber = &n
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate items: %w", err)
	}
	return items, nil
}

// Replace deletes every event of the given items and inserts events in one
// transaction. Events must belong to the listed items.
func (s *Store) Replace(itemIDs []int64, events []*Event) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	del, err := tx.Prepare(`DELETE FROM calendar_events WHERE item_id = ?`)
	if err != nil {
		return fmt.Errorf("prepare delete: %w", err)
	}
	defer func() { _ = del.Close() }()
	for _, id := range itemIDs {
		if _, err := del.Exec(id); err != nil {
			return fmt.Errorf("delete events of item %d: %w", id, err)
		}
	}

	ins, err := tx.Prepare(`
		INSERT OR REPLACE INTO calendar_events (item_id, episode_number, date) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer func() { _ = ins.Close() }()
	for _, e := range events {
		var ep any
		if e.EpisodeNumber != nil {
			ep = *e.EpisodeNumber
		}
		res, err := ins.Exec(e.ItemID, ep, e.Date.Format(dateLayout))
		if err != nil {
			return fmt.Errorf("insert event for item %d: %w", e.ItemID, err)
		}
		if id, err := res.LastInsertId(); err == nil {
			e.ID = id
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// UserEvents returns events between from and to, inclusive, for items the
// user tracks through a record or a season, ordered by date.
func (s *Store) UserEvents(userID int64, from, to time.Time) ([]*Event, error) {
	rows, err := s.db.Query(`
		SELECT ce.id, ce.item_id, ce.episode_number, ce.date,
		       i.source, i.media_id, i.media_type, i.season_number, i.title, i.image
		FROM calendar_events ce
		JOIN items i ON i.id = ce.item_id
		WHERE ce.date >= ? AND ce.date <= ?
		  AND (ce.item_id IN (SELECT item_id FROM records WHERE user_id = ?)
		    OR ce.item_id IN (SELECT item_id FROM seasons WHERE user_id = ?))
		ORDER BY ce.date, i.title, ce.episode_number`,
		from.Format(dateLayout), to.Format(dateLayout), userID, userID)
	if err != nil {
		return nil, fmt.Errorf("list user events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*Event
	for rows.Next() {
		e := &Event{}
		var episode, season sql.NullInt64
		var date string
		if err := rows.Scan(&e.ID, &e.ItemID, &episode, &date,
			&e.Item.Source, &e.Item.MediaID, &e.Item.MediaType, &season, &e.Item.Title, &e.Item.Image); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		if e.Date, err = parseDate(date); err != nil {
			return nil, err
		}
		e.Item.ID = e.ItemID
		if episode.Valid {
			n := int(episode.Int64)
			e.EpisodeNumber = &n
		}
		if season.Valid {
			n := int(season.Int64)
			e.Item.SeasonNumber = &n
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return out, nil
}

// ItemEvents returns all events of one item, ordered by date.
func (s *Store) ItemEvents(itemID int64) ([]*Event, error) {
	rows, err := s.db.Query(`
		SELECT id, item_id, episode_number, date FROM calendar_events
		WHERE item_id = ? ORDER BY date, episode_number`, itemID)
	if err != nil {
		return nil, fmt.Errorf("list item events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*Event
	for rows.Next() {
		e := &Event{}
		var episode sql.NullInt64
		var date string
		if err := rows.Scan(&e.ID, &e.ItemID, &episode, &date); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		if e.Date, err = parseDate(date); err != nil {
			return nil, err
		}
		if episode.Valid {
			n := int(episode.Int64)
			e.EpisodeNumber = &n
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func parseDate(s string) (time.Time, error) {
	if len(s) > len(dateLayout) {
		s = s[:len(dateLayout)]
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse event date %q: %w", s, err)
	}
	return t, nil
}
