package calendar

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/vmunix/trackarr/internal/library"
	"github.com/vmunix/trackarr/internal/metadata"
)

// trackedStatuses are the statuses whose items get release dates.
var trackedStatuses = []library.Status{library.StatusPlanning, library.StatusInProgress}

// Config tunes a Service.
type Config struct {
	Location        *time.Location
	ProviderTimeout time.Duration
	Concurrency     int
	Now             func() time.Time
}

func (c Config) withDefaults() Config {
	if c.Location == nil {
		c.Location = time.UTC
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 4
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

// Service rebuilds calendar events from catalog metadata.
type Service struct {
	store    *Store
	provider metadata.Provider
	log      zerolog.Logger
	cfg      Config
}

// NewService creates a calendar service.
func NewService(store *Store, provider metadata.Provider, logger zerolog.Logger, cfg Config) *Service {
	return &Service{
		store:    store,
		provider: provider,
		log:      logger.With().Str("component", "calendar").Logger(),
		cfg:      cfg.withDefaults(),
	}
}

// ReloadResult summarizes a reload run.
type ReloadResult struct {
	Items  int // items whose events were rebuilt
	Events int
	Failed int // items skipped because the catalog lookup failed
}

// Reload re-derives events for items tracked as Planning or In progress that
// have upcoming events or none at all. The events of every successfully
// looked-up item are replaced in one transaction; items whose lookup fails
// keep their previous events.
func (s *Service) Reload(ctx context.Context) (*ReloadResult, error) {
	today := library.Day(s.cfg.Now().In(s.cfg.Location))
	items, err := s.store.PendingItems(trackedStatuses, today)
	if err != nil {
		return nil, err
	}

	var (
		mu     sync.Mutex
		ids    []int64
		events []*Event
		failed int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)
	for _, it := range items {
		g.Go(func() error {
			evs, err := s.itemEvents(gctx, it)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return err
				}
				failed++
				s.log.Warn().Err(err).Int64("item_id", it.ID).Str("title", it.Title).Msg("skipping calendar item")
				return nil
			}
			ids = append(ids, it.ID)
			events = append(events, evs...)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := s.store.Replace(ids, events); err != nil {
		return nil, err
	}

	res := &ReloadResult{Items: len(ids), Events: len(events), Failed: failed}
	s.log.Info().Int("items", res.Items).Int("events", res.Events).Int("failed", res.Failed).Msg("calendar reloaded")
	return res, nil
}

// UserEvents returns the user's events between from and to, inclusive.
func (s *Service) UserEvents(userID int64, from, to time.Time) ([]*Event, error) {
	return s.store.UserEvents(userID, library.Day(from), library.Day(to))
}

// itemEvents derives events for one item: every dated episode of a season,
// or the release date of anything else.
func (s *Service) itemEvents(ctx context.Context, it *library.Item) ([]*Event, error) {
	q := metadata.Query{Type: it.MediaType, ID: it.MediaID, Source: it.Source, Season: it.SeasonNumber}
	if s.cfg.ProviderTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.ProviderTimeout)
		defer cancel()
	}
	md, err := s.provider.Metadata(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("metadata for %s %d: %w", it.MediaType, it.MediaID, err)
	}

	if it.MediaType == library.MediaSeason {
		var out []*Event
		for _, ep := range md.Episodes {
			if ep.AirDate == nil {
				continue
			}
			out = append(out, &Event{ItemID: it.ID, EpisodeNumber: &ep.Number, Date: library.Day(*ep.AirDate)})
		}
		return out, nil
	}
	if md.ReleaseDate == nil {
		return nil, nil
	}
	return []*Event{{ItemID: it.ID, Date: library.Day(*md.ReleaseDate)}}, nil
}
