package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vmunix/trackarr/internal/config"
	"github.com/vmunix/trackarr/internal/logger"
	"github.com/vmunix/trackarr/internal/server"
)

var version = "dev"

var (
	configPath string
	userID     int64
	jsonOutput bool
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "trackarr",
	Short: "Track what you watch, read and play",
	Long: `trackarr - media progress tracker

Track movies, TV shows, anime, manga and games: progress, status,
scores, rewatches and episode history, backed by a local database.

Run 'trackarrd' to keep the release calendar up to date in the background.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: discovered)")
	rootCmd.PersistentFlags().Int64Var(&userID, "user", 0, "User id to act as (default: server.default_user)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output to stderr")

	rootCmd.Version = version
	rootCmd.SetVersionTemplate("trackarr {{.Version}}\n")
}

// session is an open app plus the user the command acts for.
type session struct {
	*server.App
	user int64
	log  *logger.Logger
}

func (s *session) Close() {
	_ = s.App.Close()
	_ = s.log.Close()
}

// openSession loads the config and wires the app. CLI logging stays at warn
// unless --verbose is given.
func openSession() (*session, error) {
	path := configPath
	if path == "" {
		p, err := config.Discover()
		if err != nil {
			return nil, fmt.Errorf("%w (run 'trackarr init' to create one)", err)
		}
		path = p
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	return newSession(cfg)
}

func newSession(cfg *config.Config) (*session, error) {
	level := "warn"
	if verbose {
		level = "debug"
	}
	log := logger.New(logger.Config{Level: level, Format: cfg.Log.Format})

	app, err := server.NewApp(cfg, log.Logger)
	if err != nil {
		_ = log.Close()
		return nil, err
	}

	user := userID
	if user == 0 {
		user = cfg.Server.DefaultUser
	}
	return &session{App: app, user: user, log: log}, nil
}

// withSession runs fn against an open session and closes it afterwards.
func withSession(fn func(s *session) error) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(s)
}
