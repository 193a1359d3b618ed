package metadata_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/vmunix/trackarr/internal/library"
	"github.com/vmunix/trackarr/internal/metadata"
	"github.com/vmunix/trackarr/internal/metadata/mocks"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2024-08-17", time.Date(2024, 8, 17, 0, 0, 0, 0, time.UTC)},
		{"2024-08", time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC)},
		{"2024", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := metadata.ParseDate(tt.in)
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.True(t, tt.want.Equal(*got), "got %v", got)
		})
	}
}

func TestParseDate_EmptyAndInvalid(t *testing.T) {
	got, err := metadata.ParseDate("")
	assert.NoError(t, err)
	assert.Nil(t, got)

	_, err = metadata.ParseDate("invalid-date")
	assert.Error(t, err)
}

func TestMedia_RegularSeasons(t *testing.T) {
	m := &metadata.Media{Seasons: []metadata.Season{
		{Number: 2, EpisodeCount: 8},
		{Number: 0, EpisodeCount: 3},
		{Number: 1, EpisodeCount: 10},
	}}
	got := m.RegularSeasons()
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].Number)
	assert.Equal(t, 2, got[1].Number)
}

func TestMedia_EpisodeNumbers(t *testing.T) {
	m := &metadata.Media{Episodes: []metadata.Episode{
		{Number: 3}, {Number: 1}, {Number: 0}, {Number: 3}, {Number: 2},
	}}
	assert.Equal(t, []int{1, 2, 3}, m.EpisodeNumbers())
	assert.Empty(t, (&metadata.Media{}).EpisodeNumbers())
}

func TestRouter_Dispatch(t *testing.T) {
	ctrl := gomock.NewController(t)
	tmdb := mocks.NewMockProvider(ctrl)

	q := metadata.Query{Type: library.MediaMovie, ID: 550, Source: library.SourceTMDB}
	tmdb.EXPECT().
		Metadata(gomock.Any(), q).
		Return(&metadata.Media{Title: "Fight Club"}, nil)

	r := metadata.NewRouter()
	r.Register(library.SourceTMDB, tmdb)

	m, err := r.Metadata(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, "Fight Club", m.Title)
	assert.True(t, r.Supports(library.SourceTMDB))
	assert.False(t, r.Supports(library.SourceIGDB))
}

func TestRouter_UnsupportedSource(t *testing.T) {
	r := metadata.NewRouter()
	_, err := r.Metadata(context.Background(), metadata.Query{Type: library.MediaGame, ID: 1, Source: library.SourceIGDB})
	assert.True(t, errors.Is(err, metadata.ErrUnsupportedSource))
}

func TestManual(t *testing.T) {
	m := metadata.Manual{Image: "none.svg"}

	movie, err := m.Metadata(context.Background(), metadata.Query{Type: library.MediaMovie, Source: library.SourceManual})
	require.NoError(t, err)
	require.NotNil(t, movie.MaxProgress)
	assert.Equal(t, 1, *movie.MaxProgress)
	assert.Equal(t, "none.svg", movie.Image)

	anime, err := m.Metadata(context.Background(), metadata.Query{Type: library.MediaAnime, Source: library.SourceManual})
	require.NoError(t, err)
	assert.Nil(t, anime.MaxProgress)

	_, err = m.Metadata(context.Background(), metadata.Query{Type: library.MediaAnime, Source: library.SourceMAL})
	assert.ErrorIs(t, err, metadata.ErrUnsupportedSource)
}
