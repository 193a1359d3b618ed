package server

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmunix/trackarr/internal/config"
	"github.com/vmunix/trackarr/internal/events"
	"github.com/vmunix/trackarr/internal/library"
	"github.com/vmunix/trackarr/internal/testutil"
	"github.com/vmunix/trackarr/internal/tracking"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	cfg := config.Default()
	cfg.Database.Path = filepath.Join(t.TempDir(), "trackarr.db")
	app, err := NewApp(cfg, testutil.NewTestLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })
	return app
}

func TestNewApp_TracksManualEntriesAndRecordsHistory(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()

	assert.True(t, app.Provider.Supports(library.SourceManual))
	assert.False(t, app.Provider.Supports(library.SourceTMDB))

	r, err := app.Engine.Track(ctx, tracking.TrackRequest{
		UserID: 1, Source: library.SourceManual, MediaID: 1, MediaType: library.MediaMovie,
		Title: "Home video", Status: library.StatusCompleted,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, r.Progress)

	raw, err := app.History.ForUser(1, 10)
	require.NoError(t, err)
	require.NotEmpty(t, raw)
	assert.Equal(t, events.EventRecordTracked, raw[len(raw)-1].EventType)
}

func TestRunner_StopsCleanlyOnCancel(t *testing.T) {
	app := newTestApp(t)
	app.Config.Calendar.Enabled = true
	app.Config.Calendar.RunOnStart = true
	app.Config.History.Retention.Duration = 24 * time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- NewRunner(app).Run(ctx) }()

	// Events published while running reach the history log.
	require.NoError(t, app.Bus.Publish(ctx, &events.ImportFinished{
		BaseEvent: events.NewBaseEvent(events.EventImportFinished, events.EntityImport, 0, 1),
		BatchID:   "b1",
		Format:    "csv",
	}))

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("runner did not stop")
	}

	raw, err := app.History.ForUser(1, 10)
	require.NoError(t, err)
	require.Len(t, raw, 1)
	assert.Equal(t, events.EventImportFinished, raw[0].EventType)
}

func TestRunner_RejectsBadCron(t *testing.T) {
	app := newTestApp(t)
	app.Config.Calendar.Enabled = true
	app.Config.Calendar.Cron = "whenever"

	err := NewRunner(app).Run(context.Background())
	assert.ErrorContains(t, err, "calendar")
}
