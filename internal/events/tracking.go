package events

import "fmt"

// Event types
const (
	EventRecordTracked         = "record.tracked"
	EventRecordStatusChanged   = "record.status_changed"
	EventRecordProgressChanged = "record.progress_changed"
	EventRecordDeleted         = "record.deleted"
	EventEpisodeWatched        = "episode.watched"
	EventEpisodeUnwatched      = "episode.unwatched"
	EventSeasonCompleted       = "season.completed"
	EventTVCompleted           = "tv.completed"
	EventImportFinished        = "import.finished"
)

// Entity types
const (
	EntityRecord  = "record"
	EntitySeason  = "season"
	EntityEpisode = "episode"
	EntityImport  = "import"
)

// Describer is implemented by events that render a one-line summary for history listings.
type Describer interface {
	Describe() string
}

// RecordTracked is emitted when a user starts tracking an item.
type RecordTracked struct {
	BaseEvent
	ItemID    int64  `json:"item_id"`
	MediaType string `json:"media_type"`
	Title     string `json:"title"`
	Status    string `json:"status"`
}

func (e *RecordTracked) Describe() string {
	return fmt.Sprintf("tracked %s %q as %s", e.MediaType, e.Title, e.Status)
}

// RecordStatusChanged is emitted when a record or season changes status.
type RecordStatusChanged struct {
	BaseEvent
	ItemID    int64  `json:"item_id"`
	Title     string `json:"title"`
	OldStatus string `json:"old_status"`
	NewStatus string `json:"new_status"`
	Repeats   int    `json:"repeats"`
}

func (e *RecordStatusChanged) Describe() string {
	return fmt.Sprintf("%q: %s -> %s", e.Title, e.OldStatus, e.NewStatus)
}

// RecordProgressChanged is emitted when a leaf record's progress changes.
type RecordProgressChanged struct {
	BaseEvent
	ItemID      int64  `json:"item_id"`
	Title       string `json:"title"`
	OldProgress int    `json:"old_progress"`
	NewProgress int    `json:"new_progress"`
}

func (e *RecordProgressChanged) Describe() string {
	return fmt.Sprintf("%q: progress %d -> %d", e.Title, e.OldProgress, e.NewProgress)
}

// RecordDeleted is emitted when a user stops tracking an item.
type RecordDeleted struct {
	BaseEvent
	ItemID    int64  `json:"item_id"`
	MediaType string `json:"media_type"`
	Title     string `json:"title"`
}

func (e *RecordDeleted) Describe() string {
	return fmt.Sprintf("deleted %s %q", e.MediaType, e.Title)
}

// EpisodeWatched is emitted for every watch, first or repeat.
type EpisodeWatched struct {
	BaseEvent
	SeasonID      int64  `json:"season_id"`
	Title         string `json:"title"`
	SeasonNumber  int    `json:"season_number"`
	EpisodeNumber int    `json:"episode_number"`
	Repeats       int    `json:"repeats"`
}

func (e *EpisodeWatched) Describe() string {
	s := fmt.Sprintf("watched %q S%02dE%02d", e.Title, e.SeasonNumber, e.EpisodeNumber)
	if e.Repeats > 0 {
		s += fmt.Sprintf(" (repeat %d)", e.Repeats)
	}
	return s
}

// EpisodeUnwatched is emitted when a watch is reverted.
type EpisodeUnwatched struct {
	BaseEvent
	SeasonID      int64  `json:"season_id"`
	Title         string `json:"title"`
	SeasonNumber  int    `json:"season_number"`
	EpisodeNumber int    `json:"episode_number"`
	Removed       bool   `json:"removed"` // row deleted rather than repeat decremented
}

func (e *EpisodeUnwatched) Describe() string {
	return fmt.Sprintf("unwatched %q S%02dE%02d", e.Title, e.SeasonNumber, e.EpisodeNumber)
}

// SeasonCompleted is emitted when a season reaches Completed.
type SeasonCompleted struct {
	BaseEvent
	TVID          int64  `json:"tv_id"`
	Title         string `json:"title"`
	SeasonNumber  int    `json:"season_number"`
	EpisodesAdded int    `json:"episodes_added"`
	Automatic     bool   `json:"automatic"` // reached by watching, not set by the user
}

func (e *SeasonCompleted) Describe() string {
	return fmt.Sprintf("completed %q season %d (%d episodes filled)", e.Title, e.SeasonNumber, e.EpisodesAdded)
}

// TVCompleted is emitted when a whole show is marked Completed.
type TVCompleted struct {
	BaseEvent
	Title            string `json:"title"`
	SeasonsCompleted int    `json:"seasons_completed"`
	EpisodesAdded    int    `json:"episodes_added"`
}

func (e *TVCompleted) Describe() string {
	return fmt.Sprintf("completed %q (%d seasons, %d episodes filled)", e.Title, e.SeasonsCompleted, e.EpisodesAdded)
}

// ImportFinished is emitted once per import batch.
type ImportFinished struct {
	BaseEvent
	BatchID  string   `json:"batch_id"`
	Format   string   `json:"format"`
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Warnings []string `json:"warnings,omitempty"`
}

func (e *ImportFinished) Describe() string {
	return fmt.Sprintf("import %s (%s): %d imported, %d skipped", e.BatchID, e.Format, e.Imported, e.Skipped)
}
