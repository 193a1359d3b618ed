// Package tmdb provides a client for The Movie Database API.
package tmdb

import "strconv"

// Movie represents TMDB movie metadata.
type Movie struct {
	ID          int64   `json:"id"`
	IMDBID      string  `json:"imdb_id,omitempty"` // e.g., "tt0133093"
	Title       string  `json:"title"`
	Overview    string  `json:"overview"`
	ReleaseDate string  `json:"release_date"` // "2024-03-01"
	PosterPath  string  `json:"poster_path"`  // "/abc123.jpg"
	VoteAverage float64 `json:"vote_average"`
	Runtime     int     `json:"runtime"` // minutes
	Genres      []Genre `json:"genres"`
}

// Genre represents a movie or show genre.
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Year extracts the year from ReleaseDate.
func (m *Movie) Year() int {
	if len(m.ReleaseDate) < 4 {
		return 0
	}
	year, err := strconv.Atoi(m.ReleaseDate[:4])
	if err != nil {
		return 0
	}
	return year
}

// TV represents TMDB show metadata.
type TV struct {
	ID               int64        `json:"id"`
	Name             string       `json:"name"`
	Overview         string       `json:"overview"`
	FirstAirDate     string       `json:"first_air_date"`
	PosterPath       string       `json:"poster_path"`
	Status           string       `json:"status"` // "Returning Series", "Ended", ...
	NumberOfSeasons  int          `json:"number_of_seasons"`
	NumberOfEpisodes int          `json:"number_of_episodes"`
	Seasons          []SeasonInfo `json:"seasons"`
	Genres           []Genre      `json:"genres"`
}

// SeasonInfo is the season entry embedded in a show response.
type SeasonInfo struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	SeasonNumber int    `json:"season_number"`
	EpisodeCount int    `json:"episode_count"`
	AirDate      string `json:"air_date"`
	PosterPath   string `json:"poster_path"`
}

// Season represents TMDB season metadata with its episodes.
type Season struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	SeasonNumber int       `json:"season_number"`
	AirDate      string    `json:"air_date"`
	PosterPath   string    `json:"poster_path"`
	Episodes     []Episode `json:"episodes"`
}

// Episode is one episode in a season response.
type Episode struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	EpisodeNumber int    `json:"episode_number"`
	SeasonNumber  int    `json:"season_number"`
	AirDate       string `json:"air_date"`
	Runtime       int    `json:"runtime"`
}
