// Package config handles TOML configuration loading with environment variable substitution.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Config is the root configuration structure.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Log      LogConfig      `toml:"log"`
	Database DatabaseConfig `toml:"database"`
	Tracking TrackingConfig `toml:"tracking"`
	Metadata MetadataConfig `toml:"metadata"`
	Calendar CalendarConfig `toml:"calendar"`
	History  HistoryConfig  `toml:"history"`
}

type ServerConfig struct {
	// DefaultUser is the user id the CLI acts as when --user is not given.
	DefaultUser int64 `toml:"default_user"`
}

type LogConfig struct {
	Level      string `toml:"level"`
	Format     string `toml:"format"` // console or json
	Path       string `toml:"path"`   // directory for rotated log files, empty disables
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
	Compress   bool   `toml:"compress"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

type TrackingConfig struct {
	Timezone        string   `toml:"timezone"`
	UnknownImage    string   `toml:"unknown_image"`
	ProviderTimeout Duration `toml:"provider_timeout"`
}

type MetadataConfig struct {
	TMDB *TMDBConfig `toml:"tmdb"`
}

type TMDBConfig struct {
	APIKey       string   `toml:"api_key"`
	BaseURL      string   `toml:"base_url"`
	ImageBaseURL string   `toml:"image_base_url"`
	Language     string   `toml:"language"`
	Timeout      Duration `toml:"timeout"`
	Retries      uint     `toml:"retries"`
}

type CalendarConfig struct {
	Enabled    bool   `toml:"enabled"`
	Cron       string `toml:"cron"`
	RunOnStart bool   `toml:"run_on_start"`
}

type HistoryConfig struct {
	// Retention is how long history events are kept. Zero keeps them forever.
	Retention Duration `toml:"retention"`
	PruneCron string   `toml:"prune_cron"`
}

// Duration wraps time.Duration so TOML values like "30s" decode.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Location resolves the configured timezone, falling back to UTC.
func (c TrackingConfig) Location() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Load reads and parses the configuration file.
// A .env file next to the working directory is loaded first so ${VAR} references can use it.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	cfg, missing, err := decode(string(data))
	if err != nil {
		return nil, err
	}

	cfgErr := &ConfigError{Path: path, Missing: missing, Problems: cfg.Validate()}
	if !cfgErr.empty() {
		return nil, cfgErr
	}

	return cfg, nil
}

// LoadWithoutValidation parses the file and applies defaults but skips Validate
// and unresolved variable checks. Used by `trackarr init` to inspect a fresh file.
func LoadWithoutValidation(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg, _, err := decode(string(data))
	return cfg, err
}

func decode(raw string) (*Config, []string, error) {
	content, missing := substituteEnvVars(raw)

	var cfg Config
	if _, err := toml.Decode(content, &cfg); err != nil {
		return nil, nil, fmt.Errorf("parsing config: %w", err)
	}

	applyDefaults(&cfg)
	return &cfg, missing, nil
}

// Default returns a configuration with every default applied.
func Default() *Config {
	var cfg Config
	applyDefaults(&cfg)
	return &cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Server.DefaultUser == 0 {
		cfg.Server.DefaultUser = 1
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "./data/trackarr.db"
	}
	if cfg.Tracking.Timezone == "" {
		cfg.Tracking.Timezone = "UTC"
	}
	if cfg.Tracking.UnknownImage == "" {
		cfg.Tracking.UnknownImage = "none.svg"
	}
	if cfg.Tracking.ProviderTimeout.Duration == 0 {
		cfg.Tracking.ProviderTimeout.Duration = 15 * time.Second
	}
	if cfg.Calendar.Cron == "" {
		cfg.Calendar.Cron = "0 4 * * *"
	}
	if cfg.History.PruneCron == "" {
		cfg.History.PruneCron = "30 4 * * *"
	}
	if t := cfg.Metadata.TMDB; t != nil {
		if t.BaseURL == "" {
			t.BaseURL = "https://api.themoviedb.org"
		}
		if t.ImageBaseURL == "" {
			t.ImageBaseURL = "https://image.tmdb.org/t/p/w500"
		}
		if t.Language == "" {
			t.Language = "en-US"
		}
		if t.Timeout.Duration == 0 {
			t.Timeout.Duration = 10 * time.Second
		}
		if t.Retries == 0 {
			t.Retries = 3
		}
	}
}

// envVarPattern matches ${VAR}, ${VAR:-default} and ${VAR:?message}.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?:(:-|:\?)([^}]*))?\}`)

// substituteEnvVars replaces ${VAR_NAME} with environment variable values.
// Unresolved variables without a default are left in place and reported.
func substituteEnvVars(content string) (string, []string) {
	var missing []string
	seen := make(map[string]bool)

	result := envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		parts := envVarPattern.FindStringSubmatch(match)
		name, op, arg := parts[1], parts[2], parts[3]

		value, ok := os.LookupEnv(name)
		switch op {
		case ":-":
			if ok && value != "" {
				return value
			}
			return arg
		case ":?":
			if ok && value != "" {
				return value
			}
			msg := name + ": " + arg
			if !seen[msg] {
				seen[msg] = true
				missing = append(missing, msg)
			}
			return match
		}

		if ok {
			return value
		}
		if !seen[name] {
			seen[name] = true
			missing = append(missing, name)
		}
		return match
	})

	return result, missing
}

func normalizedLevel(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
