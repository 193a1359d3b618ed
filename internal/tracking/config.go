package tracking

import "time"

// Config holds settings injected into the engine.
type Config struct {
	// Location decides which calendar day "today" is.
	Location *time.Location

	// UnknownImage is stored for items whose provider has no artwork.
	UnknownImage string

	// ProviderTimeout bounds each metadata call. Zero means no extra bound.
	ProviderTimeout time.Duration

	// Now replaces the clock in tests.
	Now func() time.Time
}

func (c Config) withDefaults() Config {
	if c.Location == nil {
		c.Location = time.UTC
	}
	if c.UnknownImage == "" {
		c.UnknownImage = "none.svg"
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}
