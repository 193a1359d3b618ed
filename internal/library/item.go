package library

import (
	"errors"
	"fmt"
	"time"
)

func itemColumns(alias string) string {
	p := ""
	if alias != "" {
		p = alias + "."
	}
	return p + "id, " + p + "source, " + p + "media_id, " + p + "media_type, " + p + "season_number, " +
		p + "episode_number, " + p + "title, " + p + "image, " + p + "created_at, " + p + "updated_at"
}

func itemDest(it *Item) []any {
	return []any{&it.ID, &it.Source, &it.MediaID, &it.MediaType, &it.SeasonNumber,
		&it.EpisodeNumber, &it.Title, &it.Image, &it.CreatedAt, &it.UpdatedAt}
}

func orNone(n *int) int {
	if n == nil {
		return -1
	}
	return *n
}

func findItem(q querier, mediaID int64, mediaType MediaType, season, episode *int) (*Item, error) {
	it := &Item{}
	err := q.QueryRow(`
		SELECT `+itemColumns("")+`
		FROM items
		WHERE media_id = ? AND media_type = ?
		  AND COALESCE(season_number, -1) = ? AND COALESCE(episode_number, -1) = ?`,
		mediaID, mediaType, orNone(season), orNone(episode),
	).Scan(itemDest(it)...)
	if err != nil {
		return nil, fmt.Errorf("find item %s %d: %w", mediaType, mediaID, mapSQLiteError(err))
	}
	return it, nil
}

// FindItem looks up an item by its identity.
// Returns ErrNotFound if no such item exists.
func (s *Store) FindItem(mediaID int64, mediaType MediaType, season, episode *int) (*Item, error) {
	return findItem(s.db, mediaID, mediaType, season, episode)
}

// FindItem looks up an item by its identity within a transaction.
func (t *Tx) FindItem(mediaID int64, mediaType MediaType, season, episode *int) (*Item, error) {
	return findItem(t.tx, mediaID, mediaType, season, episode)
}

func getItem(q querier, id int64) (*Item, error) {
	it := &Item{}
	err := q.QueryRow(`SELECT `+itemColumns("")+` FROM items WHERE id = ?`, id).Scan(itemDest(it)...)
	if err != nil {
		return nil, fmt.Errorf("get item %d: %w", id, mapSQLiteError(err))
	}
	return it, nil
}

// GetItem retrieves an item by ID.
// Returns ErrNotFound if the item does not exist.
func (s *Store) GetItem(id int64) (*Item, error) { return getItem(s.db, id) }

// GetItem retrieves an item by ID within a transaction.
func (t *Tx) GetItem(id int64) (*Item, error) { return getItem(t.tx, id) }

func getOrCreateItem(q querier, it *Item) (bool, error) {
	existing, err := findItem(q, it.MediaID, it.MediaType, it.SeasonNumber, it.EpisodeNumber)
	if err == nil {
		*it = *existing
		return false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return false, err
	}

	now := time.Now().UTC()
	result, err := q.Exec(`
		INSERT INTO items (source, media_id, media_type, season_number, episode_number, title, image, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		it.Source, it.MediaID, it.MediaType, it.SeasonNumber, it.EpisodeNumber, it.Title, it.Image, now, now,
	)
	if err != nil {
		err = mapSQLiteError(err)
		if errors.Is(err, ErrDuplicate) {
			// Lost a race with another writer.
			existing, ferr := findItem(q, it.MediaID, it.MediaType, it.SeasonNumber, it.EpisodeNumber)
			if ferr != nil {
				return false, ferr
			}
			*it = *existing
			return false, nil
		}
		return false, fmt.Errorf("insert item: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return false, fmt.Errorf("get last insert id: %w", err)
	}
	it.ID = id
	it.CreatedAt = now
	it.UpdatedAt = now
	return true, nil
}

// GetOrCreateItem loads the item with the same identity as it, or inserts it.
// On return it holds the stored row. The bool reports whether a row was created.
func (s *Store) GetOrCreateItem(it *Item) (bool, error) { return getOrCreateItem(s.db, it) }

// GetOrCreateItem loads or inserts an item within a transaction.
func (t *Tx) GetOrCreateItem(it *Item) (bool, error) { return getOrCreateItem(t.tx, it) }

func refreshItem(q querier, id int64, title, image string) error {
	return updateOne(q, fmt.Sprintf("item %d", id),
		`UPDATE items SET title = ?, image = ?, updated_at = ? WHERE id = ?`,
		title, image, time.Now().UTC(), id)
}

// RefreshItem replaces an item's title and image with fresh metadata.
func (s *Store) RefreshItem(id int64, title, image string) error {
	return refreshItem(s.db, id, title, image)
}

// RefreshItem replaces an item's title and image within a transaction.
func (t *Tx) RefreshItem(id int64, title, image string) error {
	return refreshItem(t.tx, id, title, image)
}

// ListTrackedItems returns the distinct items a user tracks through records or seasons.
func (s *Store) ListTrackedItems(userID int64) ([]*Item, error) {
	return queryAll(s.db, "tracked items", itemDest, `
		SELECT `+itemColumns("i")+`
		FROM items i
		WHERE i.id IN (SELECT item_id FROM records WHERE user_id = ?)
		   OR i.id IN (SELECT item_id FROM seasons WHERE user_id = ?)
		ORDER BY i.title, i.id`, userID, userID)
}
