package config

import (
	"time"

	"github.com/robfig/cron/v3"
)

var validLogLevels = map[string]bool{
	"trace": true, "debug": true, "info": true, "warn": true, "error": true, "": true,
}

var validLogFormats = map[string]bool{
	"console": true, "json": true, "": true,
}

// Validate reports every invalid setting. A nil result means c is usable.
func (c *Config) Validate() []Problem {
	var probs []Problem

	if c.Server.DefaultUser < 0 {
		probs = append(probs, problemf("server.default_user", "must be positive, got %d", c.Server.DefaultUser))
	}

	if !validLogLevels[normalizedLevel(c.Log.Level)] {
		probs = append(probs, problemf("log.level", "must be one of trace, debug, info, warn, error; got %q", c.Log.Level))
	}
	if !validLogFormats[c.Log.Format] {
		probs = append(probs, problemf("log.format", "must be console or json; got %q", c.Log.Format))
	}

	if c.Tracking.Timezone != "" {
		if _, err := time.LoadLocation(c.Tracking.Timezone); err != nil {
			probs = append(probs, problemf("tracking.timezone", "unknown timezone %q", c.Tracking.Timezone))
		}
	}
	if c.Tracking.ProviderTimeout.Duration < 0 {
		probs = append(probs, Problem{Field: "tracking.provider_timeout", Message: "must not be negative"})
	}

	if c.Metadata.TMDB != nil && c.Metadata.TMDB.APIKey == "" {
		probs = append(probs, Problem{Field: "metadata.tmdb.api_key", Message: "required when tmdb is configured"})
	}

	if c.Calendar.Enabled {
		if c.Metadata.TMDB == nil {
			probs = append(probs, Problem{Field: "calendar.enabled", Message: "requires a metadata provider (metadata.tmdb)"})
		}
		if c.Calendar.Cron != "" {
			if _, err := cron.ParseStandard(c.Calendar.Cron); err != nil {
				probs = append(probs, problemf("calendar.cron", "invalid expression %q: %v", c.Calendar.Cron, err))
			}
		}
	}

	if c.History.Retention.Duration < 0 {
		probs = append(probs, Problem{Field: "history.retention", Message: "must not be negative"})
	}
	if c.History.Retention.Duration > 0 && c.History.PruneCron != "" {
		if _, err := cron.ParseStandard(c.History.PruneCron); err != nil {
			probs = append(probs, problemf("history.prune_cron", "invalid expression %q: %v", c.History.PruneCron, err))
		}
	}

	return probs
}
