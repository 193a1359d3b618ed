package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"INFO", zerolog.InfoLevel},
		{"warning", zerolog.WarnLevel},
		{" error ", zerolog.ErrorLevel},
		{"", zerolog.InfoLevel},
		{"loud", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "debug", Format: "json", Out: &buf})

	log.Debug().Str("item", "tmdb_1").Msg("tracked")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "tracked", entry["message"])
	assert.Equal(t, "tmdb_1", entry["item"])
	assert.Equal(t, "debug", entry["level"])
}

func TestNew_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "warn", Format: "json", Out: &buf})

	log.Info().Msg("hidden")
	assert.Zero(t, buf.Len())
}

func TestNew_FileSink(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	var buf bytes.Buffer
	log := New(Config{Format: "json", Path: dir, Out: &buf})

	log.Info().Msg("to file")
	require.NoError(t, log.Close())

	data, err := os.ReadFile(filepath.Join(dir, "trackarr.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "to file")
	assert.Contains(t, buf.String(), "to file")
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Format: "json", Out: &buf})

	sub := log.WithComponent("calendar")
	sub.Info().Msg("reloaded")
	assert.Contains(t, buf.String(), `"component":"calendar"`)
}
