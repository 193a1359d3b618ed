package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Valid(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "trackarr.db")
	cfg, err := Load(writeConfig(t, "[database]\npath = \""+dbPath+"\"\n\n[tracking]\ntimezone = \"Europe/Lisbon\"\n"))
	require.NoError(t, err)

	assert.Equal(t, dbPath, cfg.Database.Path)
	assert.Equal(t, "Europe/Lisbon", cfg.Tracking.Location().String())
}

func TestLoad_EmptyFileGetsDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)

	assert.Equal(t, "./data/trackarr.db", cfg.Database.Path)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "UTC", cfg.Tracking.Timezone)
	assert.Equal(t, int64(1), cfg.Server.DefaultUser)
}

func TestLoad_ReportsUnsetVariables(t *testing.T) {
	_, err := Load(writeConfig(t, "[metadata.tmdb]\napi_key = \"${TRACKARR_TEST_NO_SUCH_KEY}\"\n"))

	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr), "got %v", err)
	assert.Equal(t, []string{"TRACKARR_TEST_NO_SUCH_KEY"}, cfgErr.Missing)
}

func TestLoad_ReportsInvalidSettings(t *testing.T) {
	_, err := Load(writeConfig(t, "[log]\nlevel = \"verbose\"\n\n[tracking]\ntimezone = \"Mars/Olympus\"\n"))

	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr), "got %v", err)
	_, ok := cfgErr.Field("log.level")
	assert.True(t, ok)
	_, ok = cfgErr.Field("tracking.timezone")
	assert.True(t, ok)
}

func TestLoad_VariableDefault(t *testing.T) {
	cfg, err := Load(writeConfig(t, "[tracking]\nunknown_image = \"${TRACKARR_TEST_NO_SUCH_IMAGE:-blank.svg}\"\n"))
	require.NoError(t, err)
	assert.Equal(t, "blank.svg", cfg.Tracking.UnknownImage)
}

func TestLoad_BadTOML(t *testing.T) {
	_, err := Load(writeConfig(t, "[log\nlevel = 1"))
	require.Error(t, err)

	var cfgErr *ConfigError
	assert.False(t, errors.As(err, &cfgErr))
}

func TestLoadWithoutValidation(t *testing.T) {
	cfg, err := LoadWithoutValidation(writeConfig(t, "[log]\nlevel = \"verbose\"\n"))
	require.NoError(t, err)
	assert.Equal(t, "verbose", cfg.Log.Level)
}
