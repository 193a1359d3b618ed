// Package library stores items, tracking records, seasons and episodes.
package library

import (
	"strings"
	"time"
)

// MediaType distinguishes the kinds of tracked media.
type MediaType string

const (
	MediaMovie   MediaType = "movie"
	MediaTV      MediaType = "tv"
	MediaSeason  MediaType = "season"
	MediaEpisode MediaType = "episode"
	MediaAnime   MediaType = "anime"
	MediaManga   MediaType = "manga"
	MediaGame    MediaType = "game"
)

// MediaTypes lists every media type in display order.
var MediaTypes = []MediaType{MediaMovie, MediaTV, MediaSeason, MediaEpisode, MediaAnime, MediaManga, MediaGame}

// Valid reports whether t is a known media type.
func (t MediaType) Valid() bool {
	for _, v := range MediaTypes {
		if t == v {
			return true
		}
	}
	return false
}

// Leaf reports whether records of this type store their own progress.
func (t MediaType) Leaf() bool {
	switch t {
	case MediaMovie, MediaAnime, MediaManga, MediaGame:
		return true
	}
	return false
}

// Source identifies the catalog an item's media_id belongs to.
type Source string

const (
	SourceTMDB         Source = "tmdb"
	SourceMAL          Source = "mal"
	SourceAniList      Source = "anilist"
	SourceIGDB         Source = "igdb"
	SourceMangaUpdates Source = "mangaupdates"
	SourceManual       Source = "manual"
)

// Valid reports whether s is a known source.
func (s Source) Valid() bool {
	switch s {
	case SourceTMDB, SourceMAL, SourceAniList, SourceIGDB, SourceMangaUpdates, SourceManual:
		return true
	}
	return false
}

// Status is the user-facing tracking state of a record.
type Status string

const (
	StatusCompleted  Status = "Completed"
	StatusInProgress Status = "In progress"
	StatusRepeating  Status = "Repeating"
	StatusPlanning   Status = "Planning"
	StatusPaused     Status = "Paused"
	StatusDropped    Status = "Dropped"
)

// Statuses lists every status in display order.
var Statuses = []Status{StatusCompleted, StatusInProgress, StatusRepeating, StatusPlanning, StatusPaused, StatusDropped}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

// ParseStatus matches s against the known statuses, ignoring case and
// accepting "in-progress" and "in_progress" for In progress.
func ParseStatus(s string) (Status, bool) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer("-", " ", "_", " ").Replace(norm)
	for _, v := range Statuses {
		if strings.ToLower(string(v)) == norm {
			return v, true
		}
	}
	return "", false
}

// Item is the shared identity of a piece of content. It is unique by
// (media_id, media_type, season_number, episode_number).
type Item struct {
	ID            int64
	Source        Source
	MediaID       int64
	MediaType     MediaType
	SeasonNumber  *int // season and episode items only
	EpisodeNumber *int // episode items only
	Title         string
	Image         string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Record is a user's tracking entry for a movie, TV show, anime, manga or game.
// For TV records only Score, Status and Notes are meaningful; see TVSummary.
type Record struct {
	ID        int64
	ItemID    int64
	UserID    int64
	Score     *float64
	Progress  int
	Status    Status
	Repeats   int
	StartDate *time.Time
	EndDate   *time.Time
	Notes     string
	CreatedAt time.Time
	UpdatedAt time.Time

	Item Item // populated on reads
}

// Season is a user's tracking entry for one season of a tracked TV show.
type Season struct {
	ID        int64
	ItemID    int64
	UserID    int64
	TVID      int64 // parent TV record
	Score     *float64
	Status    Status
	Notes     string
	CreatedAt time.Time
	UpdatedAt time.Time

	Item Item // populated on reads
}

// Episode is a watched episode of a season.
type Episode struct {
	ID            int64
	ItemID        int64
	SeasonID      int64
	EpisodeNumber int // from the episode item, populated on reads
	WatchDate     *time.Time
	Repeats       int
}

// SeasonSummary is a season with the fields derived from its episodes.
type SeasonSummary struct {
	Season
	Progress     int        // number of episode rows
	Repeats      int        // highest episode repeat count
	TotalRepeats int        // sum of episode repeat counts
	StartDate    *time.Time // earliest watch date, nil if none
	EndDate      *time.Time // latest watch date, nil if none
}

// TVSummary is a TV record with the fields derived from its seasons.
type TVSummary struct {
	Record    Record
	Seasons   int        // number of tracked seasons
	Progress  int        // sum of season progress
	Repeats   int        // highest season repeat count
	StartDate *time.Time // nil when no season has episodes
	EndDate   *time.Time // nil when no season has episodes
}
