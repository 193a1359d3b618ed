// Package importer applies parsed entries through the tracking engine and
// exports a user's library.
package importer

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vmunix/trackarr/internal/events"
	"github.com/vmunix/trackarr/internal/library"
	"github.com/vmunix/trackarr/internal/tracking"
)

// Tracker is the part of the tracking engine imports drive.
type Tracker interface {
	Track(ctx context.Context, req tracking.TrackRequest) (*library.Record, error)
	TrackSeason(ctx context.Context, req tracking.SeasonRequest) (*library.SeasonSummary, error)
	TrackEpisode(ctx context.Context, req tracking.EpisodeRequest) (*library.Episode, error)
}

// Importer applies entries for a user.
type Importer struct {
	tracker Tracker
	bus     tracking.Publisher // nil disables the finished event
	log     zerolog.Logger
}

// New creates an importer.
func New(tracker Tracker, bus tracking.Publisher, logger zerolog.Logger) *Importer {
	return &Importer{
		tracker: tracker,
		bus:     bus,
		log:     logger.With().Str("component", "importer").Logger(),
	}
}

// Result summarizes an import batch.
type Result struct {
	BatchID  string
	Imported int
	Skipped  int
	Warnings []string
}

// Import applies entries in order: episodes first, then seasons, then
// records. A failing entry is skipped with a warning and the batch goes on.
// Importing the same entries twice leaves the library unchanged.
func (im *Importer) Import(ctx context.Context, userID int64, format string, entries []Entry) (*Result, error) {
	res := &Result{BatchID: uuid.NewString()}
	log := im.log.With().Str("batch_id", res.BatchID).Int64("user_id", userID).Logger()
	log.Info().Str("format", format).Int("entries", len(entries)).Msg("import started")

	ordered := slices.Clone(entries)
	slices.SortStableFunc(ordered, func(a, b Entry) int { return a.rank() - b.rank() })

	for _, e := range ordered {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := im.apply(ctx, userID, &e); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			res.Skipped++
			res.Warnings = append(res.Warnings, fmt.Sprintf("%s: %v", e, err))
			log.Warn().Err(err).Str("entry", e.String()).Msg("skipping entry")
			continue
		}
		res.Imported++
	}

	log.Info().Int("imported", res.Imported).Int("skipped", res.Skipped).Msg("import finished")
	if im.bus != nil {
		ev := &events.ImportFinished{
			BaseEvent: events.NewBaseEvent(events.EventImportFinished, events.EntityImport, 0, userID),
			BatchID:   res.BatchID,
			Format:    format,
			Imported:  res.Imported,
			Skipped:   res.Skipped,
			Warnings:  res.Warnings,
		}
		if err := im.bus.Publish(ctx, ev); err != nil {
			log.Warn().Err(err).Msg("publish import event")
		}
	}
	return res, nil
}

func (im *Importer) apply(ctx context.Context, userID int64, e *Entry) error {
	if err := e.validate(); err != nil {
		return err
	}

	switch e.MediaType {
	case library.MediaSeason:
		_, err := im.tracker.TrackSeason(ctx, tracking.SeasonRequest{
			UserID:  userID,
			Source:  e.Source,
			MediaID: e.MediaID,
			Season:  *e.SeasonNumber,
			Title:   e.Title,
			Image:   e.Image,
			Status:  e.Status,
			Score:   e.Score,
			Notes:   e.Notes,
		})
		return err
	case library.MediaEpisode:
		_, err := im.tracker.TrackEpisode(ctx, tracking.EpisodeRequest{
			UserID:    userID,
			Source:    e.Source,
			MediaID:   e.MediaID,
			Season:    *e.SeasonNumber,
			Episode:   *e.EpisodeNumber,
			Title:     e.Title,
			WatchDate: e.WatchDate,
			Repeats:   e.repeats(),
		})
		return err
	}

	_, err := im.tracker.Track(ctx, tracking.TrackRequest{
		UserID:    userID,
		Source:    e.Source,
		MediaID:   e.MediaID,
		MediaType: e.MediaType,
		Title:     e.Title,
		Image:     e.Image,
		Status:    e.Status,
		Score:     e.Score,
		Progress:  e.Progress,
		Repeats:   e.Repeats,
		StartDate: e.StartDate,
		EndDate:   e.EndDate,
		Notes:     e.Notes,
	})
	return err
}
