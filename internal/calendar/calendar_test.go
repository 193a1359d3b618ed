package calendar

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/vmunix/trackarr/internal/library"
	"github.com/vmunix/trackarr/internal/metadata"
	"github.com/vmunix/trackarr/internal/metadata/mocks"
	"github.com/vmunix/trackarr/internal/testutil"
)

var testNow = time.Date(2026, 3, 14, 21, 30, 0, 0, time.UTC)

type fixture struct {
	lib      *library.Store
	store    *Store
	provider *mocks.MockProvider
	svc      *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewTestDB(t)
	provider := mocks.NewMockProvider(gomock.NewController(t))
	store := NewStore(db)
	return &fixture{
		lib:      library.NewStore(db),
		store:    store,
		provider: provider,
		svc: NewService(store, provider, zerolog.Nop(), Config{
			Now:             func() time.Time { return testNow },
			ProviderTimeout: time.Second,
		}),
	}
}

func day(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func (f *fixture) record(t *testing.T, user int64, typ library.MediaType, mediaID int64, title string, status library.Status) *library.Item {
	t.Helper()
	it := &library.Item{Source: library.SourceTMDB, MediaID: mediaID, MediaType: typ, Title: title}
	_, err := f.lib.GetOrCreateItem(it)
	require.NoError(t, err)
	require.NoError(t, f.lib.AddRecord(&library.Record{ItemID: it.ID, UserID: user, Status: status}))
	return it
}

func (f *fixture) season(t *testing.T, user int64, mediaID int64, number int, status library.Status) *library.Item {
	t.Helper()
	show := f.record(t, user, library.MediaTV, mediaID, "Severance", library.StatusInProgress)
	tv, err := f.lib.GetRecordByItem(show.ID, user)
	require.NoError(t, err)
	it := &library.Item{Source: library.SourceTMDB, MediaID: mediaID, MediaType: library.MediaSeason, SeasonNumber: &number, Title: "Severance"}
	_, err = f.lib.GetOrCreateItem(it)
	require.NoError(t, err)
	require.NoError(t, f.lib.AddSeason(&library.Season{ItemID: it.ID, UserID: user, TVID: tv.ID, Status: status}))
	return it
}

func (f *fixture) expect(it *library.Item, md *metadata.Media) {
	q := metadata.Query{Type: it.MediaType, ID: it.MediaID, Source: it.Source, Season: it.SeasonNumber}
	f.provider.EXPECT().Metadata(gomock.Any(), q).Return(md, nil)
}

func TestReload_DerivesEvents(t *testing.T) {
	f := newFixture(t)
	movie := f.record(t, 1, library.MediaMovie, 10, "Dune: Part Three", library.StatusPlanning)
	f.record(t, 1, library.MediaMovie, 11, "Arrival", library.StatusCompleted)
	s2 := f.season(t, 1, 95396, 2, library.StatusInProgress)

	f.expect(movie, &metadata.Media{ReleaseDate: day(2026, 12, 18)})
	f.expect(&library.Item{Source: library.SourceTMDB, MediaID: 95396, MediaType: library.MediaTV}, &metadata.Media{ReleaseDate: day(2022, 2, 18)})
	f.expect(s2, &metadata.Media{Episodes: []metadata.Episode{
		{Number: 1, AirDate: day(2026, 3, 10)},
		{Number: 2, AirDate: day(2026, 3, 17)},
		{Number: 3},
	}})

	res, err := f.svc.Reload(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, res.Items)
	assert.Equal(t, 4, res.Events)
	assert.Zero(t, res.Failed)

	evs, err := f.store.ItemEvents(s2.ID)
	require.NoError(t, err)
	require.Len(t, evs, 2)
	assert.Equal(t, 1, *evs[0].EpisodeNumber)
	assert.Equal(t, *day(2026, 3, 17), evs[1].Date)

	evs, err = f.store.ItemEvents(movie.ID)
	require.NoError(t, err)
	require.Len(t, evs, 1)
	assert.Nil(t, evs[0].EpisodeNumber)
}

func TestReload_SkipsSettledItems(t *testing.T) {
	f := newFixture(t)
	past := f.record(t, 1, library.MediaMovie, 10, "Past", library.StatusPlanning)
	future := f.record(t, 1, library.MediaMovie, 11, "Future", library.StatusPlanning)
	require.NoError(t, f.store.Replace([]int64{past.ID, future.ID}, []*Event{
		{ItemID: past.ID, Date: *day(2025, 1, 1)},
		{ItemID: future.ID, Date: *day(2026, 6, 1)},
	}))

	// Only the item with an upcoming event is looked up again.
	f.expect(future, &metadata.Media{ReleaseDate: day(2026, 7, 4)})

	res, err := f.svc.Reload(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Items)

	evs, err := f.store.ItemEvents(future.ID)
	require.NoError(t, err)
	require.Len(t, evs, 1)
	assert.Equal(t, *day(2026, 7, 4), evs[0].Date)

	evs, err = f.store.ItemEvents(past.ID)
	require.NoError(t, err)
	assert.Len(t, evs, 1)
}

func TestReload_FailedLookupKeepsEvents(t *testing.T) {
	f := newFixture(t)
	movie := f.record(t, 1, library.MediaMovie, 10, "Movie", library.StatusPlanning)
	require.NoError(t, f.store.Replace([]int64{movie.ID}, []*Event{{ItemID: movie.ID, Date: *day(2026, 9, 1)}}))

	f.provider.EXPECT().Metadata(gomock.Any(), gomock.Any()).Return(nil, errors.New("timeout"))

	res, err := f.svc.Reload(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Failed)
	assert.Zero(t, res.Items)

	evs, err := f.store.ItemEvents(movie.ID)
	require.NoError(t, err)
	require.Len(t, evs, 1)
	assert.Equal(t, *day(2026, 9, 1), evs[0].Date)
}

func TestUserEvents_FiltersByUserAndRange(t *testing.T) {
	f := newFixture(t)
	mine := f.record(t, 1, library.MediaMovie, 10, "Mine", library.StatusPlanning)
	theirs := f.record(t, 2, library.MediaMovie, 11, "Theirs", library.StatusPlanning)
	s2 := f.season(t, 1, 95396, 2, library.StatusInProgress)
	ep := 5
	require.NoError(t, f.store.Replace(nil, []*Event{
		{ItemID: mine.ID, Date: *day(2026, 3, 20)},
		{ItemID: mine.ID, EpisodeNumber: &ep, Date: *day(2026, 5, 1)},
		{ItemID: theirs.ID, Date: *day(2026, 3, 16)},
		{ItemID: s2.ID, EpisodeNumber: &ep, Date: *day(2026, 3, 15)},
	}))

	evs, err := f.svc.UserEvents(1, testNow, testNow.AddDate(0, 0, 7))
	require.NoError(t, err)
	require.Len(t, evs, 2)
	assert.Equal(t, "Severance S02E05", evs[0].Label())
	assert.Equal(t, "Mine", evs[1].Label())

	evs, err = f.svc.UserEvents(2, testNow, testNow.AddDate(0, 0, 7))
	require.NoError(t, err)
	require.Len(t, evs, 1)
	assert.Equal(t, "Theirs", evs[0].Item.Title)
}

func TestEvent_Label(t *testing.T) {
	ep := 3
	e := &Event{EpisodeNumber: &ep, Item: library.Item{Title: "Frieren", MediaType: library.MediaAnime}}
	assert.Equal(t, "Frieren - Ep. 3", e.Label())
}
