package tracking

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/vmunix/trackarr/internal/events"
	"github.com/vmunix/trackarr/internal/library"
	"github.com/vmunix/trackarr/internal/metadata"
)

// seasonFetchLimit bounds concurrent season lookups during whole-show completion.
const seasonFetchLimit = 4

type plannedSeason struct {
	number int
	md     *metadata.Media
}

// planShow fetches the metadata whole-show completion needs, before any
// transaction is opened. It returns nothing when the show's length is
// unknown or already reached. Seasons already Completed under tvID are
// skipped; tvID is zero for a show that is not tracked yet.
func (e *Engine) planShow(ctx context.Context, source library.Source, showID, tvID int64, show *metadata.Media) ([]plannedSeason, error) {
	if show.MaxProgress == nil {
		e.log.Debug().Int64("media_id", showID).Msg("show length unknown, completing status only")
		return nil, nil
	}

	done := make(map[int]bool)
	if tvID != 0 {
		sum, err := e.store.TVSummary(tvID)
		if err != nil {
			return nil, err
		}
		if sum.Progress >= *show.MaxProgress {
			return nil, nil
		}
		seasons, err := e.store.ListSeasons(library.SeasonFilter{TVID: &tvID})
		if err != nil {
			return nil, err
		}
		for _, s := range seasons {
			if s.Status == library.StatusCompleted && s.Item.SeasonNumber != nil {
				done[*s.Item.SeasonNumber] = true
			}
		}
	}

	var plan []plannedSeason
	for _, s := range show.RegularSeasons() {
		if !done[s.Number] {
			plan = append(plan, plannedSeason{number: s.Number})
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(seasonFetchLimit)
	for i := range plan {
		g.Go(func() error {
			md, err := e.seasonMetadata(gctx, source, showID, plan[i].number)
			if err != nil {
				return err
			}
			plan[i].md = md
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return plan, nil
}

// completeShow marks every planned season Completed and fills its missing
// episodes, in season order, inside tx.
func (e *Engine) completeShow(tx *library.Tx, tv *library.Record, plan []plannedSeason) ([]events.Event, error) {
	today := e.today()
	var evs []events.Event
	completed, added := 0, 0

	for _, p := range plan {
		s, created, err := e.ensureSeason(tx, tv, p.number, p.md, library.Season{Status: library.StatusCompleted})
		if err != nil {
			return nil, err
		}
		if !created {
			if s.Status == library.StatusCompleted {
				continue
			}
			s.Status = library.StatusCompleted
			if err := tx.UpdateSeason(s); err != nil {
				return nil, err
			}
		}
		n, err := e.fillSeason(tx, s, p.md, today)
		if err != nil {
			return nil, err
		}
		completed++
		added += n
		evs = append(evs, seasonCompleted(s, n, false))
	}

	e.log.Info().Int64("record_id", tv.ID).Int("seasons", completed).Int("episodes", added).Msg("show completed")
	evs = append(evs, &events.TVCompleted{
		BaseEvent:        events.NewBaseEvent(events.EventTVCompleted, events.EntityRecord, tv.ID, tv.UserID),
		Title:            tv.Item.Title,
		SeasonsCompleted: completed,
		EpisodesAdded:    added,
	})
	return evs, nil
}

// ensureShow returns the user's record for a show, creating it when a
// season is tracked first. A new show mirrors the season's status, except
// that one Completed season of a multi-season show leaves the show In
// progress.
func (e *Engine) ensureShow(tx *library.Tx, userID int64, item *library.Item, show *metadata.Media, seasonStatus library.Status) (*library.Record, []events.Event, error) {
	if _, err := tx.GetOrCreateItem(item); err != nil {
		return nil, nil, err
	}
	tv, err := tx.GetRecordByItem(item.ID, userID)
	if err == nil {
		return tv, nil, nil
	}
	if !isNotFound(err) {
		return nil, nil, err
	}

	tv = &library.Record{ItemID: item.ID, UserID: userID, Status: parentStatus(seasonStatus, show), Item: *item}
	if err := tx.AddRecord(tv); err != nil {
		return nil, nil, err
	}
	e.log.Debug().Int64("record_id", tv.ID).Str("status", string(tv.Status)).Msg("created parent show")
	return tv, []events.Event{&events.RecordTracked{
		BaseEvent: events.NewBaseEvent(events.EventRecordTracked, events.EntityRecord, tv.ID, userID),
		ItemID:    item.ID,
		MediaType: string(library.MediaTV),
		Title:     item.Title,
		Status:    string(tv.Status),
	}}, nil
}

func parentStatus(seasonStatus library.Status, show *metadata.Media) library.Status {
	if seasonStatus == library.StatusCompleted && show != nil && len(show.RegularSeasons()) > 1 {
		return library.StatusInProgress
	}
	return seasonStatus
}

func showItem(source library.Source, showID int64, title, image string) *library.Item {
	return &library.Item{Source: source, MediaID: showID, MediaType: library.MediaTV, Title: title, Image: image}
}
