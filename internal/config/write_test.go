package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "trackarr", "config.toml")
	require.NoError(t, WriteDefault(path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	for _, section := range []string{"[tracking]", "[metadata.tmdb]", "[calendar]", "[history]"} {
		assert.Contains(t, string(content), section)
	}
	assert.Contains(t, string(content), "${TMDB_API_KEY}")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestWriteDefault_LoadsWithKey(t *testing.T) {
	t.Setenv("TMDB_API_KEY", "k")
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, WriteDefault(path))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NotNil(t, cfg.Metadata.TMDB)
	assert.Equal(t, "k", cfg.Metadata.TMDB.APIKey)
}

func TestConfig_WriteRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Database.Path = "/var/lib/trackarr/trackarr.db"
	cfg.Tracking.Timezone = "Asia/Tokyo"
	cfg.Tracking.ProviderTimeout = Duration{5 * time.Second}
	cfg.Server.DefaultUser = 3

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, cfg.Write(path))

	reloaded, err := LoadWithoutValidation(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Database.Path, reloaded.Database.Path)
	assert.Equal(t, "Asia/Tokyo", reloaded.Tracking.Timezone)
	assert.Equal(t, 5*time.Second, reloaded.Tracking.ProviderTimeout.Duration)
	assert.Equal(t, int64(3), reloaded.Server.DefaultUser)
}
