package library

import (
	"fmt"
	"time"
)

const recordColumns = "r.id, r.item_id, r.user_id, r.score, r.progress, r.status, r.repeats, r.start_date, r.end_date, r.notes, r.created_at, r.updated_at"

func recordDest(r *Record) []any {
	dest := []any{&r.ID, &r.ItemID, &r.UserID, &r.Score, &r.Progress, &r.Status, &r.Repeats,
		scanDate(&r.StartDate), scanDate(&r.EndDate), &r.Notes, &r.CreatedAt, &r.UpdatedAt}
	return append(dest, itemDest(&r.Item)...)
}

const recordSelect = "SELECT " + recordColumns + ", " + "i.id, i.source, i.media_id, i.media_type, i.season_number, i.episode_number, i.title, i.image, i.created_at, i.updated_at" +
	" FROM records r JOIN items i ON i.id = r.item_id "

func addRecord(q querier, r *Record) error {
	now := time.Now().UTC()
	result, err := q.Exec(`
		INSERT INTO records (item_id, user_id, score, progress, status, repeats, start_date, end_date, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ItemID, r.UserID, roundScore(r.Score), r.Progress, r.Status, r.Repeats,
		dateValue(r.StartDate), dateValue(r.EndDate), r.Notes, now, now,
	)
	if err != nil {
		return fmt.Errorf("insert record: %w", mapSQLiteError(err))
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	r.ID = id
	r.CreatedAt = now
	r.UpdatedAt = now
	return nil
}

// AddRecord inserts a new record.
// Sets ID, CreatedAt, and UpdatedAt on the struct.
// Returns ErrDuplicate if the user already tracks the item.
func (s *Store) AddRecord(r *Record) error { return addRecord(s.db, r) }

// AddRecord inserts a new record within a transaction.
func (t *Tx) AddRecord(r *Record) error { return addRecord(t.tx, r) }

func getRecord(q querier, id int64) (*Record, error) {
	r := &Record{}
	err := q.QueryRow(recordSelect+"WHERE r.id = ?", id).Scan(recordDest(r)...)
	if err != nil {
		return nil, fmt.Errorf("get record %d: %w", id, mapSQLiteError(err))
	}
	return r, nil
}

// GetRecord retrieves a record and its item by ID.
// Returns ErrNotFound if the record does not exist.
func (s *Store) GetRecord(id int64) (*Record, error) { return getRecord(s.db, id) }

// GetRecord retrieves a record by ID within a transaction.
func (t *Tx) GetRecord(id int64) (*Record, error) { return getRecord(t.tx, id) }

func getRecordByItem(q querier, itemID, userID int64) (*Record, error) {
	r := &Record{}
	err := q.QueryRow(recordSelect+"WHERE r.item_id = ? AND r.user_id = ?", itemID, userID).Scan(recordDest(r)...)
	if err != nil {
		return nil, fmt.Errorf("get record for item %d: %w", itemID, mapSQLiteError(err))
	}
	return r, nil
}

// GetRecordByItem retrieves the user's record for an item.
// Returns ErrNotFound if the user does not track the item.
func (s *Store) GetRecordByItem(itemID, userID int64) (*Record, error) {
	return getRecordByItem(s.db, itemID, userID)
}

// GetRecordByItem retrieves the user's record for an item within a transaction.
func (t *Tx) GetRecordByItem(itemID, userID int64) (*Record, error) {
	return getRecordByItem(t.tx, itemID, userID)
}

func listRecords(q querier, f RecordFilter) ([]*Record, int, error) {
	var conditions []string
	var args []any

	if f.UserID != nil {
		conditions = append(conditions, "r.user_id = ?")
		args = append(args, *f.UserID)
	}
	if f.ItemID != nil {
		conditions = append(conditions, "r.item_id = ?")
		args = append(args, *f.ItemID)
	}
	if f.MediaType != nil {
		conditions = append(conditions, "i.media_type = ?")
		args = append(args, *f.MediaType)
	}
	if f.Status != nil {
		conditions = append(conditions, "r.status = ?")
		args = append(args, *f.Status)
	}
	if len(f.Statuses) > 0 {
		var cond string
		cond, args = inClause("r.status", f.Statuses, args)
		conditions = append(conditions, cond)
	}

	where := whereClause(conditions)

	var total int
	if err := q.QueryRow("SELECT COUNT(*) FROM records r JOIN items i ON i.id = r.item_id "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count records: %w", err)
	}

	results, err := queryAll(q, "records", recordDest, paginate(recordSelect+where+" ORDER BY r.id", f.Limit, f.Offset), args...)
	return results, total, err
}

// ListRecords returns records matching the filter with pagination.
// Returns (results, totalCount, error).
func (s *Store) ListRecords(f RecordFilter) ([]*Record, int, error) { return listRecords(s.db, f) }

// ListRecords returns records matching the filter within a transaction.
func (t *Tx) ListRecords(f RecordFilter) ([]*Record, int, error) { return listRecords(t.tx, f) }

func updateRecord(q querier, r *Record) error {
	now := time.Now().UTC()
	err := updateOne(q, fmt.Sprintf("record %d", r.ID), `
		UPDATE records SET score = ?, progress = ?, status = ?, repeats = ?, start_date = ?, end_date = ?, notes = ?, updated_at = ?
		WHERE id = ?`,
		roundScore(r.Score), r.Progress, r.Status, r.Repeats, dateValue(r.StartDate), dateValue(r.EndDate), r.Notes, now, r.ID,
	)
	if err != nil {
		return err
	}
	r.UpdatedAt = now
	return nil
}

// UpdateRecord updates an existing record's user fields.
// Returns ErrNotFound if the record does not exist.
func (s *Store) UpdateRecord(r *Record) error { return updateRecord(s.db, r) }

// UpdateRecord updates an existing record within a transaction.
func (t *Tx) UpdateRecord(r *Record) error { return updateRecord(t.tx, r) }

func deleteRecord(q querier, id int64) error {
	_, err := q.Exec("DELETE FROM records WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete record %d: %w", id, mapSQLiteError(err))
	}
	return nil
}

// DeleteRecord removes a record by ID. Seasons and episodes of a TV record go with it.
// This operation is idempotent - no error is returned if the record does not exist.
func (s *Store) DeleteRecord(id int64) error { return deleteRecord(s.db, id) }

// DeleteRecord removes a record by ID within a transaction.
func (t *Tx) DeleteRecord(id int64) error { return deleteRecord(t.tx, id) }
