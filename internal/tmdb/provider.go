package tmdb

import (
	"context"
	"fmt"

	"github.com/vmunix/trackarr/internal/library"
	"github.com/vmunix/trackarr/internal/metadata"
)

// Metadata implements metadata.Provider for movies, shows and seasons.
func (c *Client) Metadata(ctx context.Context, q metadata.Query) (*metadata.Media, error) {
	switch q.Type {
	case library.MediaMovie:
		return c.movieMetadata(ctx, q.ID)
	case library.MediaTV:
		return c.tvMetadata(ctx, q.ID)
	case library.MediaSeason:
		if q.Season == nil {
			return nil, fmt.Errorf("tmdb season query for %d without a season number", q.ID)
		}
		return c.seasonMetadata(ctx, q.ID, *q.Season)
	default:
		return nil, fmt.Errorf("tmdb does not serve %s: %w", q.Type, metadata.ErrUnsupportedSource)
	}
}

func (c *Client) movieMetadata(ctx context.Context, id int64) (*metadata.Media, error) {
	movie, err := c.GetMovie(ctx, id)
	if err != nil {
		return nil, err
	}
	one := 1
	m := &metadata.Media{
		Title:       movie.Title,
		Image:       c.ImageURL(movie.PosterPath),
		MaxProgress: &one,
	}
	m.ReleaseDate, _ = metadata.ParseDate(movie.ReleaseDate)
	return m, nil
}

func (c *Client) tvMetadata(ctx context.Context, id int64) (*metadata.Media, error) {
	tv, err := c.GetTV(ctx, id)
	if err != nil {
		return nil, err
	}
	total := tv.NumberOfEpisodes
	m := &metadata.Media{
		Title:       tv.Name,
		Image:       c.ImageURL(tv.PosterPath),
		MaxProgress: &total,
	}
	m.ReleaseDate, _ = metadata.ParseDate(tv.FirstAirDate)
	for _, s := range tv.Seasons {
		airDate, _ := metadata.ParseDate(s.AirDate)
		m.Seasons = append(m.Seasons, metadata.Season{
			Number:       s.SeasonNumber,
			EpisodeCount: s.EpisodeCount,
			AirDate:      airDate,
		})
	}
	return m, nil
}

func (c *Client) seasonMetadata(ctx context.Context, tvID int64, number int) (*metadata.Media, error) {
	season, err := c.GetSeason(ctx, tvID, number)
	if err != nil {
		return nil, err
	}
	total := len(season.Episodes)
	m := &metadata.Media{
		Title:       season.Name,
		Image:       c.ImageURL(season.PosterPath),
		MaxProgress: &total,
	}
	m.ReleaseDate, _ = metadata.ParseDate(season.AirDate)
	for _, e := range season.Episodes {
		airDate, _ := metadata.ParseDate(e.AirDate)
		m.Episodes = append(m.Episodes, metadata.Episode{
			Number:  e.EpisodeNumber,
			Title:   e.Name,
			AirDate: airDate,
		})
	}
	return m, nil
}

var _ metadata.Provider = (*Client)(nil)
