// internal/importer/importer_test.go
package importer

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/vmunix/trackarr/internal/events"
	"github.com/vmunix/trackarr/internal/library"
	"github.com/vmunix/trackarr/internal/metadata"
	"github.com/vmunix/trackarr/internal/metadata/mocks"
	"github.com/vmunix/trackarr/internal/testutil"
	"github.com/vmunix/trackarr/internal/tracking"
)

var testNow = time.Date(2026, 3, 14, 21, 30, 0, 0, time.UTC)

func intPtr(n int) *int { return &n }

// fakeTracker records requests in call order.
type fakeTracker struct {
	calls    []string
	episodes []tracking.EpisodeRequest
	fail     map[int64]error
}

func (f *fakeTracker) Track(_ context.Context, req tracking.TrackRequest) (*library.Record, error) {
	f.calls = append(f.calls, string(req.MediaType))
	if err := f.fail[req.MediaID]; err != nil {
		return nil, err
	}
	return &library.Record{}, nil
}

func (f *fakeTracker) TrackSeason(_ context.Context, _ tracking.SeasonRequest) (*library.SeasonSummary, error) {
	f.calls = append(f.calls, "season")
	return &library.SeasonSummary{}, nil
}

func (f *fakeTracker) TrackEpisode(_ context.Context, req tracking.EpisodeRequest) (*library.Episode, error) {
	f.calls = append(f.calls, "episode")
	f.episodes = append(f.episodes, req)
	return &library.Episode{}, nil
}

type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) Publish(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func TestImport_OrdersEntriesAndCollectsWarnings(t *testing.T) {
	tracker := &fakeTracker{fail: map[int64]error{13: errors.New("catalog said no")}}
	bus := &recorder{}
	im := New(tracker, bus, zerolog.Nop())

	entries := []Entry{
		{MediaID: 1399, MediaType: library.MediaEpisode, SeasonNumber: intPtr(1), EpisodeNumber: intPtr(3), Plays: 3},
		{MediaID: 603, MediaType: library.MediaMovie, Title: "The Matrix", Status: "completed"},
		{MediaID: 1, MediaType: "podcast", Title: "Bad type"},
		{MediaID: 1399, MediaType: library.MediaSeason, SeasonNumber: intPtr(1)},
		{MediaID: 13, MediaType: library.MediaAnime, Title: "Failing"},
		{MediaID: 1399, MediaType: library.MediaEpisode, SeasonNumber: intPtr(1)},
	}

	res, err := im.Import(context.Background(), 7, FormatCSV, entries)
	require.NoError(t, err)

	assert.Equal(t, []string{"episode", "season", "movie", "anime"}, tracker.calls)
	assert.Equal(t, 3, res.Imported)
	assert.Equal(t, 3, res.Skipped)
	require.Len(t, res.Warnings, 3)
	assert.Contains(t, res.Warnings[0], "without season and episode numbers")
	assert.Contains(t, res.Warnings[1], "Bad type")
	assert.Contains(t, res.Warnings[2], "catalog said no")

	require.Len(t, tracker.episodes, 1)
	assert.Equal(t, 2, tracker.episodes[0].Repeats, "three plays are two repeats")
	assert.Equal(t, library.SourceTMDB, tracker.episodes[0].Source)

	_, err = uuid.Parse(res.BatchID)
	require.NoError(t, err)
	require.Len(t, bus.events, 1)
	finished := bus.events[0].(*events.ImportFinished)
	assert.Equal(t, res.BatchID, finished.BatchID)
	assert.Equal(t, int64(7), finished.UserID())
	assert.Equal(t, 3, finished.Imported)
}

func TestImport_StopsOnCancel(t *testing.T) {
	im := New(&fakeTracker{}, nil, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := im.Import(ctx, 1, FormatJSON, []Entry{{MediaID: 1, MediaType: library.MediaMovie}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEntry_Validate(t *testing.T) {
	e := Entry{MediaID: 1, MediaType: library.MediaAnime, Status: "in-progress"}
	require.NoError(t, e.validate())
	assert.Equal(t, library.StatusInProgress, e.Status)
	assert.Equal(t, library.SourceTMDB, e.Source)

	e = Entry{MediaID: 1, MediaType: library.MediaSeason}
	assert.ErrorIs(t, e.validate(), ErrInvalidEntry)

	e = Entry{MediaID: 1, MediaType: library.MediaMovie, Source: "netflix"}
	assert.ErrorIs(t, e.validate(), ErrInvalidEntry)
}

// catalog answers every query with a small fixed library.
func catalog(_ context.Context, q metadata.Query) (*metadata.Media, error) {
	switch q.Type {
	case library.MediaTV:
		total := 20
		return &metadata.Media{Title: "Severance", MaxProgress: &total, Seasons: []metadata.Season{
			{Number: 1, EpisodeCount: 10}, {Number: 2, EpisodeCount: 10},
		}}, nil
	case library.MediaSeason:
		n := 10
		md := &metadata.Media{Title: "Season", MaxProgress: &n}
		for i := 1; i <= n; i++ {
			md.Episodes = append(md.Episodes, metadata.Episode{Number: i})
		}
		return md, nil
	case library.MediaAnime:
		n := 12
		return &metadata.Media{Title: "Frieren", Image: "frieren.jpg", MaxProgress: &n}, nil
	}
	return &metadata.Media{Title: "Arrival"}, nil
}

func TestExportImport_RoundTrip(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewTestDB(t)
	store := library.NewStore(db)
	provider := mocks.NewMockProvider(gomock.NewController(t))
	provider.EXPECT().Metadata(gomock.Any(), gomock.Any()).DoAndReturn(catalog).AnyTimes()
	engine := tracking.New(store, provider, nil, zerolog.Nop(), tracking.Config{
		Now: func() time.Time { return testNow },
	})

	score := 8.5
	_, err := engine.Track(ctx, tracking.TrackRequest{UserID: 1, Source: library.SourceTMDB, MediaID: 329865,
		MediaType: library.MediaMovie, Status: library.StatusCompleted, Score: &score, Notes: "rewatch soon"})
	require.NoError(t, err)
	_, err = engine.Track(ctx, tracking.TrackRequest{UserID: 1, Source: library.SourceMAL, MediaID: 52991,
		MediaType: library.MediaAnime, Status: library.StatusInProgress, Progress: 5})
	require.NoError(t, err)
	ss, err := engine.TrackSeason(ctx, tracking.SeasonRequest{UserID: 1, Source: library.SourceTMDB, MediaID: 95396,
		Season: 1, Status: library.StatusInProgress})
	require.NoError(t, err)
	for _, n := range []int{1, 2, 2} {
		_, err := engine.Watch(ctx, 1, ss.ID, n, &testNow)
		require.NoError(t, err)
	}

	// A show finished in the past: season 1 completes by watching, then the
	// show is marked Completed, which fills season 2 dated today.
	past := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	done, err := engine.TrackSeason(ctx, tracking.SeasonRequest{UserID: 1, Source: library.SourceTMDB, MediaID: 1399,
		Season: 1, Status: library.StatusInProgress})
	require.NoError(t, err)
	for n := 1; n <= 10; n++ {
		_, err := engine.Watch(ctx, 1, done.ID, n, &past)
		require.NoError(t, err)
	}
	completed := library.StatusCompleted
	_, err = engine.UpdateRecord(ctx, 1, done.TVID, tracking.RecordEdit{Status: &completed})
	require.NoError(t, err)

	original, err := Export(store, 1)
	require.NoError(t, err)
	require.Len(t, original, 29, "movie, anime, two shows, three seasons, 22 episodes")

	for _, format := range []string{FormatCSV, FormatJSON} {
		t.Run(format, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Write(&buf, format, original))
			entries, warnings, err := Read(&buf, format)
			require.NoError(t, err)
			assert.Empty(t, warnings)

			user := int64(2)
			if format == FormatJSON {
				user = 3
			}
			im := New(engine, nil, zerolog.Nop())
			for range 2 {
				res, err := im.Import(ctx, user, format, entries)
				require.NoError(t, err)
				assert.Equal(t, len(original), res.Imported)
				assert.Empty(t, res.Warnings)
			}

			copied, err := Export(store, user)
			require.NoError(t, err)
			assert.ElementsMatch(t, original, copied)

			for _, e := range copied {
				if e.MediaType == library.MediaEpisode && e.MediaID == 1399 && *e.SeasonNumber == 1 {
					require.NotNil(t, e.WatchDate)
					assert.Equal(t, past, *e.WatchDate, "episode %d keeps its watch date", *e.EpisodeNumber)
				}
			}
		})
	}
}

func TestRead_CSVReportsBadRows(t *testing.T) {
	input := "media_id,media_type,title,score,watch_date\n" +
		"603,movie,The Matrix,9,2024\n" +
		"abc,movie,Broken,,\n" +
		"604,movie,Reloaded,x,\n"

	entries, warnings, err := Read(bytes.NewBufferString(input), FormatCSV)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, int64(603), entries[0].MediaID)
	require.NotNil(t, entries[0].WatchDate)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), *entries[0].WatchDate)
	require.Len(t, warnings, 2)
	assert.Contains(t, warnings[0], "line 3")
	assert.Contains(t, warnings[1], "line 4")
}

func TestRead_RejectsUnknownFormat(t *testing.T) {
	_, _, err := Read(bytes.NewBufferString(""), "xml")
	assert.ErrorIs(t, err, ErrUnknownFormat)
	assert.ErrorIs(t, Write(&bytes.Buffer{}, "xml", nil), ErrUnknownFormat)
}
