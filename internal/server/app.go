// Package server assembles trackarr's components from configuration and
// runs the background services.
package server

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/vmunix/trackarr/internal/calendar"
	"github.com/vmunix/trackarr/internal/config"
	"github.com/vmunix/trackarr/internal/database"
	"github.com/vmunix/trackarr/internal/events"
	"github.com/vmunix/trackarr/internal/importer"
	"github.com/vmunix/trackarr/internal/library"
	"github.com/vmunix/trackarr/internal/metadata"
	"github.com/vmunix/trackarr/internal/tmdb"
	"github.com/vmunix/trackarr/internal/tracking"
)

// App holds the wired components shared by the daemon and the CLI.
type App struct {
	Config   *config.Config
	Log      zerolog.Logger
	DB       *sql.DB
	Library  *library.Store
	History  *events.EventLog
	Bus      *events.Bus
	Provider *metadata.Router
	Engine   *tracking.Engine
	Calendar *calendar.Service
	Importer *importer.Importer
}

// NewApp opens and migrates the database and wires every component.
func NewApp(cfg *config.Config, logger zerolog.Logger) (*App, error) {
	db, err := database.OpenAndMigrate(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return newApp(cfg, logger, db, buildProvider(cfg, logger)), nil
}

// newApp wires components around an open database and a provider.
func newApp(cfg *config.Config, logger zerolog.Logger, db *sql.DB, provider *metadata.Router) *App {
	loc := cfg.Tracking.Location()
	history := events.NewEventLog(db)
	bus := events.NewBus(history, &logger)
	store := library.NewStore(db)

	engine := tracking.New(store, provider, bus, logger, tracking.Config{
		Location:        loc,
		UnknownImage:    cfg.Tracking.UnknownImage,
		ProviderTimeout: cfg.Tracking.ProviderTimeout.Duration,
	})

	return &App{
		Config:   cfg,
		Log:      logger,
		DB:       db,
		Library:  store,
		History:  history,
		Bus:      bus,
		Provider: provider,
		Engine:   engine,
		Calendar: calendar.NewService(calendar.NewStore(db), provider, logger, calendar.Config{
			Location:        loc,
			ProviderTimeout: cfg.Tracking.ProviderTimeout.Duration,
		}),
		Importer: importer.New(engine, bus, logger),
	}
}

// buildProvider registers a provider per configured source. Manual entries
// are always available; TMDB needs an API key.
func buildProvider(cfg *config.Config, logger zerolog.Logger) *metadata.Router {
	router := metadata.NewRouter()
	router.Register(library.SourceManual, metadata.Manual{Image: cfg.Tracking.UnknownImage})

	if t := cfg.Metadata.TMDB; t != nil && t.APIKey != "" {
		router.Register(library.SourceTMDB, tmdb.NewClient(t.APIKey,
			tmdb.WithBaseURL(t.BaseURL),
			tmdb.WithImageBaseURL(t.ImageBaseURL),
			tmdb.WithLanguage(t.Language),
			tmdb.WithHTTPClient(&http.Client{Timeout: t.Timeout.Duration}),
			tmdb.WithRetries(t.Retries),
			tmdb.WithLogger(logger),
		))
	} else {
		logger.Warn().Msg("metadata.tmdb not configured, tmdb lookups will fail")
	}
	return router
}

// Close releases the bus and the database.
func (a *App) Close() error {
	return errors.Join(a.Bus.Close(), a.DB.Close())
}
