package library

import (
	"fmt"
	"time"
)

const seasonColumns = "s.id, s.item_id, s.user_id, s.tv_id, s.score, s.status, s.notes, s.created_at, s.updated_at"

func seasonDest(s *Season) []any {
	dest := []any{&s.ID, &s.ItemID, &s.UserID, &s.TVID, &s.Score, &s.Status, &s.Notes, &s.CreatedAt, &s.UpdatedAt}
	return append(dest, itemDest(&s.Item)...)
}

const seasonSelect = "SELECT " + seasonColumns + ", i.id, i.source, i.media_id, i.media_type, i.season_number, i.episode_number, i.title, i.image, i.created_at, i.updated_at" +
	" FROM seasons s JOIN items i ON i.id = s.item_id "

// summarySelect adds the episode-derived fields. Callers append WHERE and
// the GROUP BY clause.
const summarySelect = "SELECT " + seasonColumns + ", i.id, i.source, i.media_id, i.media_type, i.season_number, i.episode_number, i.title, i.image, i.created_at, i.updated_at," +
	" COUNT(e.id), COALESCE(MAX(e.repeats), 0), COALESCE(SUM(e.repeats), 0), MIN(e.watch_date), MAX(e.watch_date)" +
	" FROM seasons s JOIN items i ON i.id = s.item_id LEFT JOIN episodes e ON e.season_id = s.id "

func summaryDest(ss *SeasonSummary) []any {
	return append(seasonDest(&ss.Season), &ss.Progress, &ss.Repeats, &ss.TotalRepeats,
		scanDate(&ss.StartDate), scanDate(&ss.EndDate))
}

func addSeason(q querier, s *Season) error {
	now := time.Now().UTC()
	result, err := q.Exec(`
		INSERT INTO seasons (item_id, user_id, tv_id, score, status, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ItemID, s.UserID, s.TVID, roundScore(s.Score), s.Status, s.Notes, now, now,
	)
	if err != nil {
		return fmt.Errorf("insert season: %w", mapSQLiteError(err))
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	s.ID = id
	s.CreatedAt = now
	s.UpdatedAt = now
	return nil
}

// AddSeason inserts a new season record.
// Returns ErrDuplicate if the season is already tracked under the same TV record.
func (s *Store) AddSeason(season *Season) error { return addSeason(s.db, season) }

// AddSeason inserts a new season record within a transaction.
func (t *Tx) AddSeason(season *Season) error { return addSeason(t.tx, season) }

func getSeason(q querier, id int64) (*Season, error) {
	s := &Season{}
	err := q.QueryRow(seasonSelect+"WHERE s.id = ?", id).Scan(seasonDest(s)...)
	if err != nil {
		return nil, fmt.Errorf("get season %d: %w", id, mapSQLiteError(err))
	}
	return s, nil
}

// GetSeason retrieves a season and its item by ID.
// Returns ErrNotFound if the season does not exist.
func (s *Store) GetSeason(id int64) (*Season, error) { return getSeason(s.db, id) }

// GetSeason retrieves a season by ID within a transaction.
func (t *Tx) GetSeason(id int64) (*Season, error) { return getSeason(t.tx, id) }

func findSeason(q querier, tvID int64, number int) (*Season, error) {
	s := &Season{}
	err := q.QueryRow(seasonSelect+"WHERE s.tv_id = ? AND i.season_number = ?", tvID, number).Scan(seasonDest(s)...)
	if err != nil {
		return nil, fmt.Errorf("find season %d of tv %d: %w", number, tvID, mapSQLiteError(err))
	}
	return s, nil
}

// FindSeason retrieves the season with the given number under a TV record.
// Returns ErrNotFound if that season is not tracked.
func (s *Store) FindSeason(tvID int64, number int) (*Season, error) { return findSeason(s.db, tvID, number) }

// FindSeason retrieves a season by number within a transaction.
func (t *Tx) FindSeason(tvID int64, number int) (*Season, error) { return findSeason(t.tx, tvID, number) }

func seasonConditions(f SeasonFilter) ([]string, []any) {
	var conditions []string
	var args []any

	if f.UserID != nil {
		conditions = append(conditions, "s.user_id = ?")
		args = append(args, *f.UserID)
	}
	if f.TVID != nil {
		conditions = append(conditions, "s.tv_id = ?")
		args = append(args, *f.TVID)
	}
	if len(f.Statuses) > 0 {
		var cond string
		cond, args = inClause("s.status", f.Statuses, args)
		conditions = append(conditions, cond)
	}
	return conditions, args
}

func listSeasons(q querier, f SeasonFilter) ([]*Season, error) {
	conditions, args := seasonConditions(f)
	query := paginate(seasonSelect+whereClause(conditions)+" ORDER BY s.tv_id, i.season_number", f.Limit, f.Offset)
	return queryAll(q, "seasons", seasonDest, query, args...)
}

// ListSeasons returns seasons matching the filter, ordered by season number.
func (s *Store) ListSeasons(f SeasonFilter) ([]*Season, error) { return listSeasons(s.db, f) }

// ListSeasons returns seasons matching the filter within a transaction.
func (t *Tx) ListSeasons(f SeasonFilter) ([]*Season, error) { return listSeasons(t.tx, f) }

func updateSeason(q querier, s *Season) error {
	now := time.Now().UTC()
	err := updateOne(q, fmt.Sprintf("season %d", s.ID), `
		UPDATE seasons SET score = ?, status = ?, notes = ?, updated_at = ?
		WHERE id = ?`,
		roundScore(s.Score), s.Status, s.Notes, now, s.ID,
	)
	if err != nil {
		return err
	}
	s.UpdatedAt = now
	return nil
}

// UpdateSeason updates a season's user fields.
// Returns ErrNotFound if the season does not exist.
func (s *Store) UpdateSeason(season *Season) error { return updateSeason(s.db, season) }

// UpdateSeason updates a season within a transaction.
func (t *Tx) UpdateSeason(season *Season) error { return updateSeason(t.tx, season) }

func deleteSeason(q querier, id int64) error {
	_, err := q.Exec("DELETE FROM seasons WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete season %d: %w", id, mapSQLiteError(err))
	}
	return nil
}

// DeleteSeason removes a season and its episodes.
// This operation is idempotent - no error is returned if the season does not exist.
func (s *Store) DeleteSeason(id int64) error { return deleteSeason(s.db, id) }

// DeleteSeason removes a season within a transaction.
func (t *Tx) DeleteSeason(id int64) error { return deleteSeason(t.tx, id) }

func seasonSummary(q querier, id int64) (*SeasonSummary, error) {
	ss := &SeasonSummary{}
	err := q.QueryRow(summarySelect+"WHERE s.id = ? GROUP BY s.id", id).Scan(summaryDest(ss)...)
	if err != nil {
		return nil, fmt.Errorf("season summary %d: %w", id, mapSQLiteError(err))
	}
	return ss, nil
}

// SeasonSummary returns a season with progress, repeats and dates derived from its episodes.
// Returns ErrNotFound if the season does not exist.
func (s *Store) SeasonSummary(id int64) (*SeasonSummary, error) { return seasonSummary(s.db, id) }

// SeasonSummary returns a derived season view within a transaction.
func (t *Tx) SeasonSummary(id int64) (*SeasonSummary, error) { return seasonSummary(t.tx, id) }

func listSeasonSummaries(q querier, f SeasonFilter) ([]*SeasonSummary, error) {
	conditions, args := seasonConditions(f)
	query := paginate(summarySelect+whereClause(conditions)+" GROUP BY s.id ORDER BY s.tv_id, i.season_number", f.Limit, f.Offset)
	return queryAll(q, "season summaries", summaryDest, query, args...)
}

// ListSeasonSummaries returns derived season views matching the filter.
func (s *Store) ListSeasonSummaries(f SeasonFilter) ([]*SeasonSummary, error) {
	return listSeasonSummaries(s.db, f)
}

// ListSeasonSummaries returns derived season views within a transaction.
func (t *Tx) ListSeasonSummaries(f SeasonFilter) ([]*SeasonSummary, error) {
	return listSeasonSummaries(t.tx, f)
}

func tvSummary(q querier, tvID int64) (*TVSummary, error) {
	r, err := getRecord(q, tvID)
	if err != nil {
		return nil, err
	}
	if r.Item.MediaType != MediaTV {
		return nil, fmt.Errorf("tv summary: record %d is a %s: %w", tvID, r.Item.MediaType, ErrNotFound)
	}

	tv := &TVSummary{Record: *r}
	err = q.QueryRow(`
		SELECT COUNT(*), COALESCE(SUM(progress), 0), COALESCE(MAX(repeats), 0), MIN(start_date), MAX(end_date)
		FROM (
			SELECT COUNT(e.id) AS progress, COALESCE(MAX(e.repeats), 0) AS repeats,
			       MIN(e.watch_date) AS start_date, MAX(e.watch_date) AS end_date
			FROM seasons s LEFT JOIN episodes e ON e.season_id = s.id
			WHERE s.tv_id = ?
			GROUP BY s.id
		)`, tvID,
	).Scan(&tv.Seasons, &tv.Progress, &tv.Repeats, scanDate(&tv.StartDate), scanDate(&tv.EndDate))
	if err != nil {
		return nil, fmt.Errorf("tv summary %d: %w", tvID, mapSQLiteError(err))
	}
	return tv, nil
}

// TVSummary returns a TV record with progress, repeats and dates rolled up from its seasons.
// Returns ErrNotFound if the record does not exist or is not a TV record.
func (s *Store) TVSummary(tvID int64) (*TVSummary, error) { return tvSummary(s.db, tvID) }

// TVSummary returns a rolled-up TV view within a transaction.
func (t *Tx) TVSummary(tvID int64) (*TVSummary, error) { return tvSummary(t.tx, tvID) }
