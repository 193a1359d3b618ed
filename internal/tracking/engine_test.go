package tracking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/vmunix/trackarr/internal/events"
	"github.com/vmunix/trackarr/internal/library"
	"github.com/vmunix/trackarr/internal/metadata"
	"github.com/vmunix/trackarr/internal/metadata/mocks"
	"github.com/vmunix/trackarr/internal/testutil"
)

const testUser int64 = 1

var testNow = time.Date(2026, 3, 14, 21, 30, 0, 0, time.UTC)

func testToday() time.Time { return library.Day(testNow) }

// recorder collects published events.
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

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.EventType()
	}
	return out
}

type testEnv struct {
	engine   *Engine
	store    *library.Store
	provider *mocks.MockProvider
	events   *recorder
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctrl := gomock.NewController(t)
	provider := mocks.NewMockProvider(ctrl)
	store := library.NewStore(testutil.NewTestDB(t))
	rec := &recorder{}
	engine := New(store, provider, rec, zerolog.Nop(), Config{
		Location:        time.UTC,
		ProviderTimeout: 5 * time.Second,
		Now:             func() time.Time { return testNow },
	})
	return &testEnv{engine: engine, store: store, provider: provider, events: rec}
}

var errProviderDown = errors.New("connection refused")

func leafQuery(t library.MediaType, id int64) metadata.Query {
	return metadata.Query{Type: t, ID: id, Source: library.SourceTMDB}
}

func showQuery(id int64) metadata.Query {
	return metadata.Query{Type: library.MediaTV, ID: id, Source: library.SourceTMDB}
}

func seasonQuery(id int64, number int) metadata.Query {
	return metadata.Query{Type: library.MediaSeason, ID: id, Source: library.SourceTMDB, Season: &number}
}

func lengthMedia(title string, n int) *metadata.Media {
	return &metadata.Media{Title: title, Image: "https://img/" + title, MaxProgress: &n}
}

// showMedia builds a show whose seasons 1..len(counts) have the given episode counts.
func showMedia(title string, counts ...int) *metadata.Media {
	m := &metadata.Media{Title: title}
	total := 0
	for i, c := range counts {
		m.Seasons = append(m.Seasons, metadata.Season{Number: i + 1, EpisodeCount: c})
		total += c
	}
	m.MaxProgress = &total
	return m
}

func seasonMedia(n int) *metadata.Media {
	m := &metadata.Media{Title: "Season", MaxProgress: &n}
	for i := 1; i <= n; i++ {
		m.Episodes = append(m.Episodes, metadata.Episode{Number: i, Title: "Episode"})
	}
	return m
}

func (env *testEnv) expect(q metadata.Query, md *metadata.Media) *gomock.Call {
	return env.provider.EXPECT().Metadata(gomock.Any(), q).Return(md, nil)
}

func (env *testEnv) expectFailure(q metadata.Query) *gomock.Call {
	return env.provider.EXPECT().Metadata(gomock.Any(), q).Return(nil, errProviderDown)
}

// trackSeason tracks a season of show 100 with the given status.
func (env *testEnv) trackSeason(t *testing.T, show *metadata.Media, number, episodes int, status library.Status) *library.SeasonSummary {
	t.Helper()
	env.expect(showQuery(100), show)
	env.expect(seasonQuery(100, number), seasonMedia(episodes))
	ss, err := env.engine.TrackSeason(context.Background(), SeasonRequest{
		UserID: testUser, Source: library.SourceTMDB, MediaID: 100, Season: number, Status: status,
	})
	require.NoError(t, err)
	return ss
}

func (env *testEnv) seasonProgress(t *testing.T, seasonID int64) int {
	t.Helper()
	ss, err := env.store.SeasonSummary(seasonID)
	require.NoError(t, err)
	_, total, err := env.store.ListEpisodes(library.EpisodeFilter{SeasonID: &seasonID})
	require.NoError(t, err)
	require.Equal(t, total, ss.Progress, "season progress must equal the live episode count")
	return ss.Progress
}

func TestEngine_MetadataErrorsAreWrapped(t *testing.T) {
	env := newTestEnv(t)
	env.provider.EXPECT().Metadata(gomock.Any(), leafQuery(library.MediaAnime, 1)).Return(nil, metadata.ErrNotFound)

	_, err := env.engine.Track(context.Background(), TrackRequest{
		UserID: testUser, Source: library.SourceTMDB, MediaID: 1, MediaType: library.MediaAnime,
	})
	assert.ErrorIs(t, err, ErrMetadataUnavailable)
	assert.ErrorIs(t, err, metadata.ErrNotFound)

	_, total, err := env.store.ListRecords(library.RecordFilter{})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestEngine_ProviderTimeoutApplied(t *testing.T) {
	env := newTestEnv(t)
	env.provider.EXPECT().Metadata(gomock.Any(), leafQuery(library.MediaManga, 2)).
		DoAndReturn(func(ctx context.Context, _ metadata.Query) (*metadata.Media, error) {
			deadline, ok := ctx.Deadline()
			require.True(t, ok)
			assert.WithinDuration(t, time.Now().Add(5*time.Second), deadline, time.Second)
			return lengthMedia("Berserk", 380), nil
		})

	_, err := env.engine.Track(context.Background(), TrackRequest{
		UserID: testUser, Source: library.SourceTMDB, MediaID: 2, MediaType: library.MediaManga,
	})
	require.NoError(t, err)
}

func TestProgressOf(t *testing.T) {
	n, ok := ProgressOf(&library.Record{Progress: 4})
	assert.True(t, ok)
	assert.Equal(t, 4, n)

	n, ok = ProgressOf(&library.SeasonSummary{Progress: 7})
	assert.True(t, ok)
	assert.Equal(t, 7, n)

	n, ok = ProgressOf(&library.TVSummary{Progress: 9, Record: library.Record{Progress: 0}})
	assert.True(t, ok)
	assert.Equal(t, 9, n, "a show reports its derived progress")

	_, ok = ProgressOf(&library.Item{})
	assert.False(t, ok)
}

// unknownMedia is a catalog entry with no title, image or length.
func unknownMedia() *metadata.Media { return &metadata.Media{} }
