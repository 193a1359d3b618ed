// Package tracking implements the progress and status rules for tracked
// media: leaf records, seasons built from watched episodes, and shows rolled
// up from their seasons.
package tracking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/vmunix/trackarr/internal/events"
	"github.com/vmunix/trackarr/internal/library"
	"github.com/vmunix/trackarr/internal/metadata"
)

// Publisher receives domain events after a mutation commits.
type Publisher interface {
	Publish(ctx context.Context, e events.Event) error
}

// Engine applies user actions to the library.
type Engine struct {
	store    *library.Store
	provider metadata.Provider
	bus      Publisher // nil disables events
	log      zerolog.Logger
	cfg      Config
}

// New creates an engine. bus may be nil.
func New(store *library.Store, provider metadata.Provider, bus Publisher, logger zerolog.Logger, cfg Config) *Engine {
	return &Engine{
		store:    store,
		provider: provider,
		bus:      bus,
		log:      logger.With().Str("component", "tracking").Logger(),
		cfg:      cfg.withDefaults(),
	}
}

// Store exposes the underlying library store for read paths.
func (e *Engine) Store() *library.Store { return e.store }

// today is the current calendar day in the configured zone.
func (e *Engine) today() time.Time {
	return library.Day(e.cfg.Now().In(e.cfg.Location))
}

// metadata looks up catalog data under the configured timeout. Every
// failure is reported as ErrMetadataUnavailable.
func (e *Engine) metadata(ctx context.Context, q metadata.Query) (*metadata.Media, error) {
	if e.cfg.ProviderTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.ProviderTimeout)
		defer cancel()
	}
	md, err := e.provider.Metadata(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %d: %w", ErrMetadataUnavailable, q.Type, q.ID, err)
	}
	return md, nil
}

func (e *Engine) seasonMetadata(ctx context.Context, source library.Source, showID int64, number int) (*metadata.Media, error) {
	return e.metadata(ctx, metadata.Query{Type: library.MediaSeason, ID: showID, Source: source, Season: &number})
}

// publish sends events in order. Failures are logged; the mutation has
// already committed.
func (e *Engine) publish(ctx context.Context, evs []events.Event) {
	if e.bus == nil {
		return
	}
	for _, ev := range evs {
		if err := e.bus.Publish(ctx, ev); err != nil {
			e.log.Warn().Err(err).Str("type", ev.EventType()).Msg("publish failed")
		}
	}
}

func (e *Engine) image(img string) string {
	if img == "" {
		return e.cfg.UnknownImage
	}
	return img
}

func validateStatus(s library.Status) error {
	if !s.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrValidation, s)
	}
	return nil
}

func validateScore(score *float64) error {
	if score != nil && (*score < 0 || *score > 10) {
		return fmt.Errorf("%w: score %.1f outside [0,10]", ErrValidation, *score)
	}
	return nil
}

// ownedRecord loads a record and checks it belongs to userID. Records of
// other users are reported as not found.
func (e *Engine) ownedRecord(userID, recordID int64) (*library.Record, error) {
	r, err := e.store.GetRecord(recordID)
	if err != nil {
		return nil, err
	}
	if r.UserID != userID {
		return nil, fmt.Errorf("record %d: %w", recordID, library.ErrNotFound)
	}
	return r, nil
}

func (e *Engine) ownedSeason(userID, seasonID int64) (*library.Season, error) {
	s, err := e.store.GetSeason(seasonID)
	if err != nil {
		return nil, err
	}
	if s.UserID != userID {
		return nil, fmt.Errorf("season %d: %w", seasonID, library.ErrNotFound)
	}
	return s, nil
}

// total is the number of episodes a season's metadata lists.
func total(md *metadata.Media) (int, bool) {
	if md == nil {
		return 0, false
	}
	if md.MaxProgress != nil {
		return *md.MaxProgress, true
	}
	if n := len(md.EpisodeNumbers()); n > 0 {
		return n, true
	}
	return 0, false
}

func isNotFound(err error) bool { return errors.Is(err, library.ErrNotFound) }
