package tracking

import (
	"context"
	"fmt"
	"time"

	"github.com/vmunix/trackarr/internal/events"
	"github.com/vmunix/trackarr/internal/library"
	"github.com/vmunix/trackarr/internal/metadata"
)

// SeasonRequest starts tracking one season of a show.
type SeasonRequest struct {
	UserID  int64
	Source  library.Source
	MediaID int64 // the show's catalog id
	Season  int

	// Title and Image are used when the provider has none.
	Title string
	Image string

	Status library.Status // empty means Planning
	Score  *float64
	Notes  string
}

// SeasonEdit changes a season. Nil fields are left as they are.
type SeasonEdit struct {
	Score      *float64
	ClearScore bool
	Status     *library.Status
	Notes      *string
}

func (ed SeasonEdit) validate() error {
	if ed.Status != nil {
		if err := validateStatus(*ed.Status); err != nil {
			return err
		}
	}
	return validateScore(ed.Score)
}

func (ed SeasonEdit) apply(s *library.Season) {
	if ed.Status != nil {
		s.Status = *ed.Status
	}
	switch {
	case ed.ClearScore:
		s.Score = nil
	case ed.Score != nil:
		v := *ed.Score
		s.Score = &v
	}
	if ed.Notes != nil {
		s.Notes = *ed.Notes
	}
}

// EpisodeRequest records the watch state of one episode, as imports carry it.
type EpisodeRequest struct {
	UserID    int64
	Source    library.Source
	MediaID   int64 // the show's catalog id
	Season    int
	Episode   int
	Title     string // used when the provider has none
	WatchDate *time.Time
	Repeats   int
}

// TrackSeason starts tracking a season, creating the parent show record if
// needed. Tracking a season that is already tracked edits it instead.
// A Completed season gets every episode the catalog lists.
func (e *Engine) TrackSeason(ctx context.Context, req SeasonRequest) (*library.SeasonSummary, error) {
	if !req.Source.Valid() {
		return nil, fmt.Errorf("%w: unknown source %q", ErrValidation, req.Source)
	}
	edit := SeasonEdit{Score: req.Score, Notes: &req.Notes}
	status := library.StatusPlanning
	if req.Status != "" {
		status = req.Status
		edit.Status = &status
	}
	if err := edit.validate(); err != nil {
		return nil, err
	}

	show, err := e.metadata(ctx, metadata.Query{Type: library.MediaTV, ID: req.MediaID, Source: req.Source})
	if err != nil {
		return nil, err
	}
	smd, err := e.seasonMetadata(ctx, req.Source, req.MediaID, req.Season)
	if err != nil {
		if status == library.StatusCompleted {
			return nil, err
		}
		e.log.Warn().Err(err).Int64("media_id", req.MediaID).Int("season", req.Season).Msg("season metadata unavailable")
		smd = nil
	}

	tx, err := e.store.Begin()
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	item := showItem(req.Source, req.MediaID, firstNonEmpty(show.Title, req.Title), e.image(firstNonEmpty(show.Image, req.Image)))
	tv, evs, err := e.ensureShow(tx, req.UserID, item, show, status)
	if err != nil {
		return nil, err
	}

	proto := library.Season{Status: status, Score: req.Score, Notes: req.Notes}
	s, created, err := e.ensureSeason(tx, tv, req.Season, smd, proto)
	if err != nil {
		return nil, err
	}

	oldStatus := s.Status
	if created {
		oldStatus = ""
		evs = append(evs, &events.RecordTracked{
			BaseEvent: events.NewBaseEvent(events.EventRecordTracked, events.EntitySeason, s.ID, s.UserID),
			ItemID:    s.ItemID,
			MediaType: string(library.MediaSeason),
			Title:     s.Item.Title,
			Status:    string(s.Status),
		})
	} else {
		edit.apply(s)
		if err := tx.UpdateSeason(s); err != nil {
			return nil, err
		}
		evs = append(evs, seasonStatusEvents(s, oldStatus)...)
	}

	if s.Status == library.StatusCompleted && oldStatus != library.StatusCompleted {
		n, err := e.fillSeason(tx, s, smd, e.today())
		if err != nil {
			return nil, err
		}
		evs = append(evs, seasonCompleted(s, n, false))
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	e.log.Info().Int64("season_id", s.ID).Int64("tv_id", tv.ID).Int("season", req.Season).
		Str("status", string(s.Status)).Msg("season tracked")
	e.publish(ctx, evs)
	return e.store.SeasonSummary(s.ID)
}

// UpdateSeason edits a season. Moving it to Completed fills every missing
// episode with today's date, all or nothing.
func (e *Engine) UpdateSeason(ctx context.Context, userID, seasonID int64, edit SeasonEdit) (*library.SeasonSummary, error) {
	if err := edit.validate(); err != nil {
		return nil, err
	}
	s, err := e.ownedSeason(userID, seasonID)
	if err != nil {
		return nil, err
	}

	oldStatus := s.Status
	var smd *metadata.Media
	if edit.Status != nil && *edit.Status == library.StatusCompleted && oldStatus != library.StatusCompleted {
		if smd, err = e.seasonMetadata(ctx, s.Item.Source, s.Item.MediaID, seasonNumber(s)); err != nil {
			return nil, err
		}
	}

	tx, err := e.store.Begin()
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	edit.apply(s)
	if err := tx.UpdateSeason(s); err != nil {
		return nil, err
	}
	evs := seasonStatusEvents(s, oldStatus)

	if smd != nil {
		n, err := e.fillSeason(tx, s, smd, e.today())
		if err != nil {
			return nil, err
		}
		evs = append(evs, seasonCompleted(s, n, false))
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	e.publish(ctx, evs)
	return e.store.SeasonSummary(s.ID)
}

// Watch records a watch of an episode. Watching an episode again bumps its
// repeat count and replaces its watch date; it never adds a second row.
// When every episode has been seen repeats+1 times the season completes.
// A nil date means today. If the catalog is unreachable the watch is still
// stored and the completion check is skipped.
func (e *Engine) Watch(ctx context.Context, userID, seasonID int64, number int, watchDate *time.Time) (*library.Episode, error) {
	if number < 1 {
		return nil, fmt.Errorf("%w: episode number %d", ErrValidation, number)
	}
	if watchDate == nil {
		today := e.today()
		watchDate = &today
	}
	s, err := e.ownedSeason(userID, seasonID)
	if err != nil {
		return nil, err
	}

	smd, err := e.seasonMetadata(ctx, s.Item.Source, s.Item.MediaID, seasonNumber(s))
	if err != nil {
		e.log.Warn().Err(err).Int64("season_id", s.ID).Msg("skipping completion check")
		smd = nil
	}

	tx, err := e.store.Begin()
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	it, err := episodeItem(tx, s, number, smd)
	if err != nil {
		return nil, err
	}
	ep, err := tx.UpsertWatch(s.ID, it.ID, dayPtr(watchDate))
	if err != nil {
		return nil, err
	}
	evs := []events.Event{episodeWatched(s, ep)}

	more, err := e.recomputeSeason(tx, s, smd)
	if err != nil {
		return nil, err
	}
	evs = append(evs, more...)

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	e.log.Debug().Int64("season_id", s.ID).Int("episode", number).Int("repeats", ep.Repeats).Msg("episode watched")
	e.publish(ctx, evs)
	return ep, nil
}

// Unwatch reverts the latest watch of an episode: a repeat is decremented,
// a first watch removes the row. Unwatching an unwatched episode does nothing.
func (e *Engine) Unwatch(ctx context.Context, userID, seasonID int64, number int) error {
	s, err := e.ownedSeason(userID, seasonID)
	if err != nil {
		return err
	}

	tx, err := e.store.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	ep, err := tx.GetEpisode(s.ID, number)
	if isNotFound(err) {
		e.log.Debug().Int64("season_id", s.ID).Int("episode", number).Msg("unwatch of unwatched episode ignored")
		return nil
	}
	if err != nil {
		return err
	}

	removed := ep.Repeats == 0
	if removed {
		err = tx.DeleteEpisode(ep.ID)
	} else {
		ep.Repeats--
		err = tx.UpdateEpisode(ep)
	}
	if err != nil {
		return err
	}
	if _, err := e.recomputeSeason(tx, s, nil); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	e.publish(ctx, []events.Event{&events.EpisodeUnwatched{
		BaseEvent:     events.NewBaseEvent(events.EventEpisodeUnwatched, events.EntityEpisode, ep.ID, s.UserID),
		SeasonID:      s.ID,
		Title:         s.Item.Title,
		SeasonNumber:  seasonNumber(s),
		EpisodeNumber: number,
		Removed:       removed,
	}})
	return nil
}

// TrackEpisode sets the watch state of an episode, creating the show and
// season records when missing. Unlike Watch it sets state rather than adding
// a watch: replaying the same request leaves the episode unchanged, and an
// existing episode keeps the larger repeat count and the later date.
func (e *Engine) TrackEpisode(ctx context.Context, req EpisodeRequest) (*library.Episode, error) {
	if !req.Source.Valid() {
		return nil, fmt.Errorf("%w: unknown source %q", ErrValidation, req.Source)
	}
	if req.Episode < 1 {
		return nil, fmt.Errorf("%w: episode number %d", ErrValidation, req.Episode)
	}

	show, err := e.metadata(ctx, metadata.Query{Type: library.MediaTV, ID: req.MediaID, Source: req.Source})
	if err != nil {
		return nil, err
	}
	smd, err := e.seasonMetadata(ctx, req.Source, req.MediaID, req.Season)
	if err != nil {
		e.log.Warn().Err(err).Int64("media_id", req.MediaID).Int("season", req.Season).Msg("skipping completion check")
		smd = nil
	}

	tx, err := e.store.Begin()
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	item := showItem(req.Source, req.MediaID, firstNonEmpty(show.Title, req.Title), e.image(show.Image))
	tv, evs, err := e.ensureShow(tx, req.UserID, item, show, library.StatusInProgress)
	if err != nil {
		return nil, err
	}
	s, _, err := e.ensureSeason(tx, tv, req.Season, smd, library.Season{Status: library.StatusInProgress})
	if err != nil {
		return nil, err
	}
	it, err := episodeItem(tx, s, req.Episode, smd)
	if err != nil {
		return nil, err
	}

	date := dayPtr(req.WatchDate)
	ep, err := tx.GetEpisode(s.ID, req.Episode)
	switch {
	case isNotFound(err):
		if ep, err = tx.UpsertWatch(s.ID, it.ID, date); err != nil {
			return nil, err
		}
		if req.Repeats > 0 {
			ep.Repeats = req.Repeats
			if err := tx.UpdateEpisode(ep); err != nil {
				return nil, err
			}
		}
		evs = append(evs, episodeWatched(s, ep))
	case err != nil:
		return nil, err
	default:
		changed := false
		if req.Repeats > ep.Repeats {
			ep.Repeats = req.Repeats
			changed = true
		}
		if date != nil && (ep.WatchDate == nil || date.After(*ep.WatchDate)) {
			ep.WatchDate = date
			changed = true
		}
		if changed {
			if err := tx.UpdateEpisode(ep); err != nil {
				return nil, err
			}
			evs = append(evs, episodeWatched(s, ep))
		}
	}

	more, err := e.recomputeSeason(tx, s, smd)
	if err != nil {
		return nil, err
	}
	evs = append(evs, more...)

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	e.publish(ctx, evs)
	return ep, nil
}

// DeleteSeason stops tracking a season and drops its episodes.
func (e *Engine) DeleteSeason(ctx context.Context, userID, seasonID int64) error {
	s, err := e.ownedSeason(userID, seasonID)
	if err != nil {
		return err
	}
	if err := e.store.DeleteSeason(s.ID); err != nil {
		return err
	}
	e.log.Info().Int64("season_id", s.ID).Int("season", seasonNumber(s)).Msg("season deleted")
	e.publish(ctx, []events.Event{&events.RecordDeleted{
		BaseEvent: events.NewBaseEvent(events.EventRecordDeleted, events.EntitySeason, s.ID, s.UserID),
		ItemID:    s.ItemID,
		MediaType: string(library.MediaSeason),
		Title:     s.Item.Title,
	}})
	return nil
}

// recomputeSeason re-reads a season after an episode mutation and completes
// it once total watches reach total*(repeats+1), where repeats is the highest
// episode repeat count. A season already Completed, or one whose length is
// unknown, is left alone.
func (e *Engine) recomputeSeason(tx *library.Tx, s *library.Season, md *metadata.Media) ([]events.Event, error) {
	sum, err := tx.SeasonSummary(s.ID)
	if err != nil {
		return nil, err
	}
	if sum.Status == library.StatusCompleted {
		return nil, nil
	}
	n, ok := total(md)
	if !ok || n == 0 {
		return nil, nil
	}
	if sum.Progress+sum.TotalRepeats < n*(sum.Repeats+1) {
		return nil, nil
	}

	oldStatus := s.Status
	s.Status = library.StatusCompleted
	if err := tx.UpdateSeason(s); err != nil {
		return nil, err
	}
	added, err := e.fillSeason(tx, s, md, e.today())
	if err != nil {
		return nil, err
	}
	e.log.Info().Int64("season_id", s.ID).Int("watched", sum.Progress).Int("total", n).Msg("season completed by watching")

	evs := seasonStatusEvents(s, oldStatus)
	return append(evs, seasonCompleted(s, added, true)), nil
}

// ensureSeason returns the season with the given number under tv, creating
// it from proto when it is not tracked yet.
func (e *Engine) ensureSeason(tx *library.Tx, tv *library.Record, number int, md *metadata.Media, proto library.Season) (*library.Season, bool, error) {
	s, err := tx.FindSeason(tv.ID, number)
	if err == nil {
		return s, false, nil
	}
	if !isNotFound(err) {
		return nil, false, err
	}

	n := number
	image := tv.Item.Image
	if md != nil && md.Image != "" {
		image = md.Image
	}
	it := &library.Item{
		Source:       tv.Item.Source,
		MediaID:      tv.Item.MediaID,
		MediaType:    library.MediaSeason,
		SeasonNumber: &n,
		Title:        tv.Item.Title,
		Image:        image,
	}
	if _, err := tx.GetOrCreateItem(it); err != nil {
		return nil, false, err
	}

	s = &proto
	s.ItemID = it.ID
	s.UserID = tv.UserID
	s.TVID = tv.ID
	s.Item = *it
	if err := tx.AddSeason(s); err != nil {
		return nil, false, err
	}
	return s, true, nil
}

// fillSeason inserts every episode the catalog lists that the season does
// not have yet, dated today. Re-running it on a complete season adds nothing.
func (e *Engine) fillSeason(tx *library.Tx, s *library.Season, md *metadata.Media, today time.Time) (int, error) {
	if md == nil {
		return 0, nil
	}
	numbers := md.EpisodeNumbers()
	if len(numbers) == 0 {
		return 0, nil
	}
	have, err := tx.EpisodeNumbers(s.ID)
	if err != nil {
		return 0, err
	}

	var missing []*library.Episode
	for _, number := range numbers {
		if have[number] {
			continue
		}
		it, err := episodeItem(tx, s, number, md)
		if err != nil {
			return 0, err
		}
		d := today
		missing = append(missing, &library.Episode{ItemID: it.ID, SeasonID: s.ID, EpisodeNumber: number, WatchDate: &d})
	}
	n, err := tx.BulkAddEpisodes(missing)
	if err != nil {
		return 0, err
	}
	e.log.Debug().Int64("season_id", s.ID).Int("added", n).Msg("filled season")
	return n, nil
}

// episodeItem gets or creates the item for an episode of season s.
func episodeItem(tx *library.Tx, s *library.Season, number int, md *metadata.Media) (*library.Item, error) {
	sn, en := seasonNumber(s), number
	title := s.Item.Title
	if md != nil {
		for _, ep := range md.Episodes {
			if ep.Number == number && ep.Title != "" {
				title = ep.Title
				break
			}
		}
	}
	it := &library.Item{
		Source:        s.Item.Source,
		MediaID:       s.Item.MediaID,
		MediaType:     library.MediaEpisode,
		SeasonNumber:  &sn,
		EpisodeNumber: &en,
		Title:         title,
		Image:         s.Item.Image,
	}
	if _, err := tx.GetOrCreateItem(it); err != nil {
		return nil, err
	}
	return it, nil
}

func seasonNumber(s *library.Season) int {
	if s.Item.SeasonNumber == nil {
		return 0
	}
	return *s.Item.SeasonNumber
}

func dayPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := library.Day(*t)
	return &d
}

func seasonStatusEvents(s *library.Season, oldStatus library.Status) []events.Event {
	if s.Status == oldStatus {
		return nil
	}
	return []events.Event{&events.RecordStatusChanged{
		BaseEvent: events.NewBaseEvent(events.EventRecordStatusChanged, events.EntitySeason, s.ID, s.UserID),
		ItemID:    s.ItemID,
		Title:     s.Item.Title,
		OldStatus: string(oldStatus),
		NewStatus: string(s.Status),
	}}
}

func seasonCompleted(s *library.Season, added int, automatic bool) events.Event {
	return &events.SeasonCompleted{
		BaseEvent:     events.NewBaseEvent(events.EventSeasonCompleted, events.EntitySeason, s.ID, s.UserID),
		TVID:          s.TVID,
		Title:         s.Item.Title,
		SeasonNumber:  seasonNumber(s),
		EpisodesAdded: added,
		Automatic:     automatic,
	}
}

func episodeWatched(s *library.Season, ep *library.Episode) events.Event {
	return &events.EpisodeWatched{
		BaseEvent:     events.NewBaseEvent(events.EventEpisodeWatched, events.EntityEpisode, ep.ID, s.UserID),
		SeasonID:      s.ID,
		Title:         s.Item.Title,
		SeasonNumber:  seasonNumber(s),
		EpisodeNumber: ep.EpisodeNumber,
		Repeats:       ep.Repeats,
	}
}
