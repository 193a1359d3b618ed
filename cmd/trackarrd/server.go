package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/vmunix/trackarr/internal/config"
	"github.com/vmunix/trackarr/internal/logger"
	"github.com/vmunix/trackarr/internal/server"
)

func runServer(configPath string) error {
	if configPath == "" {
		p, err := config.Discover()
		if err != nil {
			return err
		}
		configPath = p
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log := logger.New(logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Path:       cfg.Log.Path,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Compress:   cfg.Log.Compress,
	})
	defer func() { _ = log.Close() }()

	app, err := server.NewApp(cfg, log.Logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Error().Err(err).Msg("shutdown")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info().
		Str("version", version).
		Str("config", configPath).
		Str("database", cfg.Database.Path).
		Bool("calendar", cfg.Calendar.Enabled).
		Msg("trackarrd starting")

	if err := server.NewRunner(app).Run(ctx); err != nil {
		return err
	}
	log.Info().Msg("trackarrd stopped")
	return nil
}
