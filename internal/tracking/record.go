package tracking

import (
	"context"
	"fmt"
	"time"

	"github.com/vmunix/trackarr/internal/events"
	"github.com/vmunix/trackarr/internal/library"
	"github.com/vmunix/trackarr/internal/metadata"
)

// TrackRequest starts tracking a movie, show, anime, manga or game.
type TrackRequest struct {
	UserID    int64
	Source    library.Source
	MediaID   int64
	MediaType library.MediaType

	// Title and Image are used when the provider has none.
	Title string
	Image string

	Status    library.Status // empty means Planning
	Score     *float64
	Progress  int
	Repeats   int
	StartDate *time.Time
	EndDate   *time.Time
	Notes     string
}

// RecordEdit changes a record. Nil fields are left as they are.
// Progress, Repeats and the dates are ignored for TV records, whose values
// are derived from their seasons.
type RecordEdit struct {
	Score      *float64
	ClearScore bool
	Progress   *int
	Status     *library.Status
	Repeats    *int
	StartDate  *time.Time
	EndDate    *time.Time
	Notes      *string
}

func (ed RecordEdit) validate() error {
	if ed.Status != nil {
		if err := validateStatus(*ed.Status); err != nil {
			return err
		}
	}
	return validateScore(ed.Score)
}

// maxProgress is the clamp bound for a leaf record. Movies are always 1.
func maxProgress(t library.MediaType, md *metadata.Media) *int {
	if t == library.MediaMovie {
		one := 1
		return &one
	}
	if md == nil {
		return nil
	}
	return md.MaxProgress
}

// Track creates the user's record for an item, creating the item on first
// reference. Tracking an item that is already tracked edits the existing
// record instead.
func (e *Engine) Track(ctx context.Context, req TrackRequest) (*library.Record, error) {
	if !req.MediaType.Valid() || req.MediaType == library.MediaSeason || req.MediaType == library.MediaEpisode {
		return nil, fmt.Errorf("%w: cannot track %q as a record", ErrValidation, req.MediaType)
	}
	if !req.Source.Valid() {
		return nil, fmt.Errorf("%w: unknown source %q", ErrValidation, req.Source)
	}
	if req.Status != "" {
		if err := validateStatus(req.Status); err != nil {
			return nil, err
		}
	}
	if err := validateScore(req.Score); err != nil {
		return nil, err
	}

	md, err := e.metadata(ctx, metadata.Query{Type: req.MediaType, ID: req.MediaID, Source: req.Source})
	if err != nil {
		return nil, err
	}

	item := &library.Item{
		Source:    req.Source,
		MediaID:   req.MediaID,
		MediaType: req.MediaType,
		Title:     firstNonEmpty(md.Title, req.Title),
		Image:     e.image(firstNonEmpty(md.Image, req.Image)),
	}

	edit := RecordEdit{Score: req.Score, Notes: &req.Notes}
	if req.Status != "" {
		edit.Status = &req.Status
	}
	if req.MediaType.Leaf() {
		edit.Progress = &req.Progress
		edit.Repeats = &req.Repeats
		edit.StartDate = req.StartDate
		edit.EndDate = req.EndDate
	}

	var plan []plannedSeason
	if req.MediaType == library.MediaTV && req.Status == library.StatusCompleted {
		if plan, err = e.planShow(ctx, req.Source, req.MediaID, 0, md); err != nil {
			return nil, err
		}
	}

	tx, err := e.store.Begin()
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.GetOrCreateItem(item); err != nil {
		return nil, fmt.Errorf("track: %w", err)
	}

	var evs []events.Event
	r, err := tx.GetRecordByItem(item.ID, req.UserID)
	switch {
	case err == nil:
		e.log.Debug().Int64("record_id", r.ID).Msg("already tracked, applying as edit")
		evs, err = e.applyEdit(tx, r, edit, md, plan)
		if err != nil {
			return nil, err
		}
	case isNotFound(err):
		r = &library.Record{ItemID: item.ID, UserID: req.UserID, Item: *item}
		if req.Status == "" {
			r.Status = library.StatusPlanning
		}
		if req.MediaType.Leaf() {
			applyLeaf(r, edit, maxProgress(req.MediaType, md), e.today())
		} else {
			applyTV(r, edit)
		}
		if err := tx.AddRecord(r); err != nil {
			return nil, fmt.Errorf("track: %w", err)
		}
		ev := &events.RecordTracked{
			BaseEvent: events.NewBaseEvent(events.EventRecordTracked, events.EntityRecord, r.ID, r.UserID),
			ItemID:    item.ID,
			MediaType: string(item.MediaType),
			Title:     item.Title,
			Status:    string(r.Status),
		}
		evs = append(evs, ev)
		if req.MediaType == library.MediaTV && r.Status == library.StatusCompleted {
			more, err := e.completeShow(tx, r, plan)
			if err != nil {
				return nil, err
			}
			evs = append(evs, more...)
		}
	default:
		return nil, fmt.Errorf("track: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	e.log.Info().Int64("record_id", r.ID).Str("type", string(item.MediaType)).Str("title", item.Title).
		Str("status", string(r.Status)).Msg("tracked")
	e.publish(ctx, evs)
	return r, nil
}

// UpdateRecord edits a record and runs the status side effects. Marking a
// show Completed completes every season the catalog lists.
func (e *Engine) UpdateRecord(ctx context.Context, userID, recordID int64, edit RecordEdit) (*library.Record, error) {
	if err := edit.validate(); err != nil {
		return nil, err
	}
	r, err := e.ownedRecord(userID, recordID)
	if err != nil {
		return nil, err
	}

	var md *metadata.Media
	var plan []plannedSeason
	leaf := r.Item.MediaType.Leaf()
	needsLength := leaf && (edit.Progress != nil || edit.Status != nil) && r.Item.MediaType != library.MediaMovie
	completingShow := !leaf && edit.Status != nil && *edit.Status == library.StatusCompleted && r.Status != library.StatusCompleted

	if needsLength || completingShow {
		md, err = e.metadata(ctx, metadata.Query{Type: r.Item.MediaType, ID: r.Item.MediaID, Source: r.Item.Source})
		if err != nil {
			return nil, err
		}
	}
	if completingShow {
		if plan, err = e.planShow(ctx, r.Item.Source, r.Item.MediaID, r.ID, md); err != nil {
			return nil, err
		}
	}

	tx, err := e.store.Begin()
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	evs, err := e.applyEdit(tx, r, edit, md, plan)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	e.log.Info().Int64("record_id", r.ID).Str("status", string(r.Status)).Int("progress", r.Progress).Msg("record updated")
	e.publish(ctx, evs)
	return r, nil
}

// SetStatus changes only the status of a record.
func (e *Engine) SetStatus(ctx context.Context, userID, recordID int64, status library.Status) (*library.Record, error) {
	return e.UpdateRecord(ctx, userID, recordID, RecordEdit{Status: &status})
}

// applyEdit writes an edit to an existing record inside tx and returns the
// events to publish after commit.
func (e *Engine) applyEdit(tx *library.Tx, r *library.Record, edit RecordEdit, md *metadata.Media, plan []plannedSeason) ([]events.Event, error) {
	oldStatus, oldProgress := r.Status, r.Progress

	if r.Item.MediaType.Leaf() {
		applyLeaf(r, edit, maxProgress(r.Item.MediaType, md), e.today())
	} else {
		applyTV(r, edit)
	}
	if err := tx.UpdateRecord(r); err != nil {
		return nil, err
	}

	evs := recordChangeEvents(r, oldStatus, oldProgress)

	if r.Item.MediaType == library.MediaTV && r.Status == library.StatusCompleted && oldStatus != library.StatusCompleted {
		more, err := e.completeShow(tx, r, plan)
		if err != nil {
			return nil, err
		}
		evs = append(evs, more...)
	}
	return evs, nil
}

// applyLeaf runs an edit through Transition and stores the outcome on r.
func applyLeaf(r *library.Record, edit RecordEdit, limit *int, today time.Time) Outcome {
	c := Change{
		OldStatus:   r.Status,
		NewStatus:   r.Status,
		OldProgress: r.Progress,
		NewProgress: r.Progress,
		MaxProgress: limit,
		Repeats:     r.Repeats,
		StartDate:   r.StartDate,
		EndDate:     r.EndDate,
		Today:       today,
	}
	if edit.Status != nil {
		c.NewStatus = *edit.Status
		c.StatusSet = *edit.Status != r.Status
	}
	if edit.Progress != nil {
		c.NewProgress = *edit.Progress
	}
	if edit.Repeats != nil {
		c.Repeats = max0(*edit.Repeats)
	}
	if edit.StartDate != nil {
		d := library.Day(*edit.StartDate)
		c.StartDate = &d
	}
	if edit.EndDate != nil {
		d := library.Day(*edit.EndDate)
		c.EndDate = &d
	}

	out := Transition(c)
	r.Status = out.Status
	r.Progress = out.Progress
	r.Repeats = out.Repeats
	r.StartDate = out.StartDate
	r.EndDate = out.EndDate
	applyUserFields(r, edit)
	return out
}

// applyTV stores the user-set fields of a TV record.
func applyTV(r *library.Record, edit RecordEdit) {
	if edit.Status != nil {
		r.Status = *edit.Status
	}
	applyUserFields(r, edit)
}

func applyUserFields(r *library.Record, edit RecordEdit) {
	switch {
	case edit.ClearScore:
		r.Score = nil
	case edit.Score != nil:
		s := *edit.Score
		r.Score = &s
	}
	if edit.Notes != nil {
		r.Notes = *edit.Notes
	}
}

func recordChangeEvents(r *library.Record, oldStatus library.Status, oldProgress int) []events.Event {
	var evs []events.Event
	if r.Status != oldStatus {
		evs = append(evs, &events.RecordStatusChanged{
			BaseEvent: events.NewBaseEvent(events.EventRecordStatusChanged, events.EntityRecord, r.ID, r.UserID),
			ItemID:    r.ItemID,
			Title:     r.Item.Title,
			OldStatus: string(oldStatus),
			NewStatus: string(r.Status),
			Repeats:   r.Repeats,
		})
	}
	if r.Progress != oldProgress {
		evs = append(evs, &events.RecordProgressChanged{
			BaseEvent:   events.NewBaseEvent(events.EventRecordProgressChanged, events.EntityRecord, r.ID, r.UserID),
			ItemID:      r.ItemID,
			Title:       r.Item.Title,
			OldProgress: oldProgress,
			NewProgress: r.Progress,
		})
	}
	return evs
}

// IncreaseProgress moves a leaf record forward one step (30 minutes for
// games). It is a no-op once the record is at its catalog length. The bool
// reports whether this step completed the record.
func (e *Engine) IncreaseProgress(ctx context.Context, userID, recordID int64) (*library.Record, bool, error) {
	r, err := e.leafRecord(userID, recordID)
	if err != nil {
		return nil, false, err
	}

	var md *metadata.Media
	if r.Item.MediaType != library.MediaMovie {
		if md, err = e.metadata(ctx, metadata.Query{Type: r.Item.MediaType, ID: r.Item.MediaID, Source: r.Item.Source}); err != nil {
			return nil, false, err
		}
	}
	limit := maxProgress(r.Item.MediaType, md)
	return e.step(ctx, userID, recordID, r.Item.MediaType.Step(), limit)
}

// DecreaseProgress moves a leaf record back one step, stopping at zero.
func (e *Engine) DecreaseProgress(ctx context.Context, userID, recordID int64) (*library.Record, error) {
	r, err := e.leafRecord(userID, recordID)
	if err != nil {
		return nil, err
	}
	r, _, err = e.step(ctx, userID, recordID, -r.Item.MediaType.Step(), nil)
	return r, err
}

func (e *Engine) leafRecord(userID, recordID int64) (*library.Record, error) {
	r, err := e.ownedRecord(userID, recordID)
	if err != nil {
		return nil, err
	}
	if !r.Item.MediaType.Leaf() {
		return nil, fmt.Errorf("%w: %s progress is derived from episodes", ErrValidation, r.Item.MediaType)
	}
	return r, nil
}

// step adds delta to the stored progress. The read and the write share one
// transaction so concurrent steps never lose an update.
func (e *Engine) step(ctx context.Context, userID, recordID int64, delta int, limit *int) (*library.Record, bool, error) {
	tx, err := e.store.Begin()
	if err != nil {
		return nil, false, err
	}
	defer func() { _ = tx.Rollback() }()

	r, err := tx.GetRecord(recordID)
	if err != nil {
		return nil, false, err
	}
	if r.UserID != userID {
		return nil, false, fmt.Errorf("record %d: %w", recordID, library.ErrNotFound)
	}
	if delta > 0 && limit != nil && r.Progress >= *limit {
		e.log.Debug().Int64("record_id", r.ID).Int("progress", r.Progress).Msg("already at max progress")
		return r, false, nil
	}
	if delta < 0 && r.Progress <= 0 {
		return r, false, nil
	}

	oldStatus, oldProgress := r.Status, r.Progress
	progress := r.Progress + delta
	out := applyLeaf(r, RecordEdit{Progress: &progress}, limit, e.today())
	if err := tx.UpdateRecord(r); err != nil {
		return nil, false, err
	}
	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("commit: %w", err)
	}

	e.log.Debug().Int64("record_id", r.ID).Int("from", oldProgress).Int("to", r.Progress).Msg("progress changed")
	e.publish(ctx, recordChangeEvents(r, oldStatus, oldProgress))
	return r, out.AutoCompleted, nil
}

// Delete stops tracking a record. Seasons and episodes of a show go with it.
func (e *Engine) Delete(ctx context.Context, userID, recordID int64) error {
	r, err := e.ownedRecord(userID, recordID)
	if err != nil {
		return err
	}
	if err := e.store.DeleteRecord(r.ID); err != nil {
		return err
	}
	e.log.Info().Int64("record_id", r.ID).Str("title", r.Item.Title).Msg("record deleted")
	e.publish(ctx, []events.Event{&events.RecordDeleted{
		BaseEvent: events.NewBaseEvent(events.EventRecordDeleted, events.EntityRecord, r.ID, r.UserID),
		ItemID:    r.ItemID,
		MediaType: string(r.Item.MediaType),
		Title:     r.Item.Title,
	}})
	return nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func max0(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
