package library

import (
	"database/sql"
	"fmt"
	"time"
)

const episodeSelect = `SELECT e.id, e.item_id, e.season_id, COALESCE(i.episode_number, 0), e.watch_date, e.repeats
	FROM episodes e JOIN items i ON i.id = e.item_id `

func episodeDest(e *Episode) []any {
	return []any{&e.ID, &e.ItemID, &e.SeasonID, &e.EpisodeNumber, scanDate(&e.WatchDate), &e.Repeats}
}

func upsertWatch(q querier, seasonID, itemID int64, watchDate *time.Time) (*Episode, error) {
	_, err := q.Exec(`
		INSERT INTO episodes (item_id, season_id, watch_date, repeats)
		VALUES (?, ?, ?, 0)
		ON CONFLICT (season_id, item_id) DO UPDATE SET
			repeats = repeats + 1,
			watch_date = COALESCE(excluded.watch_date, watch_date)`,
		itemID, seasonID, dateValue(watchDate),
	)
	if err != nil {
		return nil, fmt.Errorf("upsert episode: %w", mapSQLiteError(err))
	}

	e := &Episode{}
	err = q.QueryRow(episodeSelect+"WHERE e.season_id = ? AND e.item_id = ?", seasonID, itemID).Scan(episodeDest(e)...)
	if err != nil {
		return nil, fmt.Errorf("reload episode: %w", mapSQLiteError(err))
	}
	return e, nil
}

// UpsertWatch records a watch of an episode item in a season. A first watch
// creates the row with zero repeats; later watches bump repeats and replace
// the watch date when one is given. The uniqueness of (season, item) makes this safe to repeat
// from concurrent callers.
func (s *Store) UpsertWatch(seasonID, itemID int64, watchDate *time.Time) (*Episode, error) {
	return upsertWatch(s.db, seasonID, itemID, watchDate)
}

// UpsertWatch records a watch within a transaction.
func (t *Tx) UpsertWatch(seasonID, itemID int64, watchDate *time.Time) (*Episode, error) {
	return upsertWatch(t.tx, seasonID, itemID, watchDate)
}

func getEpisode(q querier, seasonID int64, number int) (*Episode, error) {
	e := &Episode{}
	err := q.QueryRow(episodeSelect+"WHERE e.season_id = ? AND i.episode_number = ?", seasonID, number).Scan(episodeDest(e)...)
	if err != nil {
		return nil, fmt.Errorf("get episode %d of season %d: %w", number, seasonID, mapSQLiteError(err))
	}
	return e, nil
}

// GetEpisode retrieves a season's episode by episode number.
// Returns ErrNotFound if the episode has not been watched.
func (s *Store) GetEpisode(seasonID int64, number int) (*Episode, error) {
	return getEpisode(s.db, seasonID, number)
}

// GetEpisode retrieves an episode by number within a transaction.
func (t *Tx) GetEpisode(seasonID int64, number int) (*Episode, error) {
	return getEpisode(t.tx, seasonID, number)
}

func listEpisodes(q querier, f EpisodeFilter) ([]*Episode, int, error) {
	var conditions []string
	var args []any

	if f.SeasonID != nil {
		conditions = append(conditions, "e.season_id = ?")
		args = append(args, *f.SeasonID)
	}

	where := whereClause(conditions)

	var total int
	if err := q.QueryRow("SELECT COUNT(*) FROM episodes e "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count episodes: %w", err)
	}

	results, err := queryAll(q, "episodes", episodeDest, paginate(episodeSelect+where+" ORDER BY e.season_id, i.episode_number", f.Limit, f.Offset), args...)
	return results, total, err
}

// ListEpisodes returns episodes matching the filter, ordered by episode number.
// Returns (results, totalCount, error).
func (s *Store) ListEpisodes(f EpisodeFilter) ([]*Episode, int, error) { return listEpisodes(s.db, f) }

// ListEpisodes returns episodes matching the filter within a transaction.
func (t *Tx) ListEpisodes(f EpisodeFilter) ([]*Episode, int, error) { return listEpisodes(t.tx, f) }

func updateEpisode(q querier, e *Episode) error {
	return updateOne(q, fmt.Sprintf("episode %d", e.ID),
		`UPDATE episodes SET watch_date = ?, repeats = ? WHERE id = ?`,
		dateValue(e.WatchDate), e.Repeats, e.ID)
}

// UpdateEpisode updates an episode's watch date and repeat count.
// Returns ErrNotFound if the episode does not exist.
func (s *Store) UpdateEpisode(e *Episode) error { return updateEpisode(s.db, e) }

// UpdateEpisode updates an episode within a transaction.
func (t *Tx) UpdateEpisode(e *Episode) error { return updateEpisode(t.tx, e) }

func deleteEpisode(q querier, id int64) error {
	_, err := q.Exec("DELETE FROM episodes WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete episode %d: %w", id, mapSQLiteError(err))
	}
	return nil
}

// DeleteEpisode removes an episode by ID.
// This operation is idempotent - no error is returned if the episode does not exist.
func (s *Store) DeleteEpisode(id int64) error { return deleteEpisode(s.db, id) }

// DeleteEpisode removes an episode by ID within a transaction.
func (t *Tx) DeleteEpisode(id int64) error { return deleteEpisode(t.tx, id) }

func episodeNumbers(q querier, seasonID int64) (map[int]bool, error) {
	rows, err := q.Query(`
		SELECT i.episode_number FROM episodes e JOIN items i ON i.id = e.item_id
		WHERE e.season_id = ? AND i.episode_number IS NOT NULL`, seasonID)
	if err != nil {
		return nil, fmt.Errorf("list episode numbers: %w", err)
	}
	defer func() { _ = rows.Close() }()

	present := make(map[int]bool)
	for rows.Next() {
		var n int
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("scan episode number: %w", err)
		}
		present[n] = true
	}
	return present, rows.Err()
}

// EpisodeNumbers returns the set of episode numbers recorded for a season.
func (s *Store) EpisodeNumbers(seasonID int64) (map[int]bool, error) {
	return episodeNumbers(s.db, seasonID)
}

// EpisodeNumbers returns the recorded episode numbers within a transaction.
func (t *Tx) EpisodeNumbers(seasonID int64) (map[int]bool, error) {
	return episodeNumbers(t.tx, seasonID)
}

func bulkAddEpisodes(q querier, episodes []*Episode) (int, error) {
	stmt, err := q.Prepare(`
		INSERT OR IGNORE INTO episodes (item_id, season_id, watch_date, repeats)
		VALUES (?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	inserted := 0
	for _, e := range episodes {
		result, err := stmt.Exec(e.ItemID, e.SeasonID, dateValue(e.WatchDate), e.Repeats)
		if err != nil {
			return inserted, fmt.Errorf("insert episode %d: %w", e.EpisodeNumber, mapSQLiteError(err))
		}
		if rows, _ := result.RowsAffected(); rows > 0 {
			inserted++
		}
	}
	return inserted, nil
}

// BulkAddEpisodes inserts multiple episodes in one transaction.
// Skips episodes that already exist (by season and item).
// Returns the count of newly inserted episodes.
func (s *Store) BulkAddEpisodes(episodes []*Episode) (int, error) {
	if len(episodes) == 0 {
		return 0, nil
	}

	tx, err := s.Begin()
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	inserted, err := tx.BulkAddEpisodes(episodes)
	if err != nil {
		return 0, err
	}
	return inserted, tx.Commit()
}

// BulkAddEpisodes inserts multiple episodes within a transaction.
// The caller owns commit and rollback.
func (t *Tx) BulkAddEpisodes(episodes []*Episode) (int, error) {
	if len(episodes) == 0 {
		return 0, nil
	}
	return bulkAddEpisodes(t.tx, episodes)
}

var _ querier = (*sql.Tx)(nil)
