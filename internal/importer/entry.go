// internal/importer/entry.go
package importer

import (
	"fmt"
	"time"

	"github.com/vmunix/trackarr/internal/library"
)

// Entry is one parsed import row. Service parsers produce entries; trackarr's
// own CSV and JSON exports round-trip through them.
//
// Leaf and TV entries carry record fields. Season entries set SeasonNumber.
// Episode entries set SeasonNumber and EpisodeNumber; Plays counts every
// watch, so an episode seen three times imports with two repeats.
type Entry struct {
	Source        library.Source    `json:"source,omitempty"`
	MediaID       int64             `json:"media_id"`
	MediaType     library.MediaType `json:"media_type"`
	Title         string            `json:"title,omitempty"`
	Image         string            `json:"image,omitempty"`
	Score         *float64          `json:"score,omitempty"`
	Progress      int               `json:"progress,omitempty"`
	Status        library.Status    `json:"status,omitempty"`
	Repeats       int               `json:"repeats,omitempty"`
	StartDate     *time.Time        `json:"start_date,omitempty"`
	EndDate       *time.Time        `json:"end_date,omitempty"`
	Notes         string            `json:"notes,omitempty"`
	SeasonNumber  *int              `json:"season_number,omitempty"`
	EpisodeNumber *int              `json:"episode_number,omitempty"`
	WatchDate     *time.Time        `json:"watch_date,omitempty"`
	Plays         int               `json:"plays,omitempty"`
}

// String identifies the entry in warnings.
func (e Entry) String() string {
	name := e.Title
	if name == "" {
		name = fmt.Sprintf("%s %d", e.MediaType, e.MediaID)
	}
	switch {
	case e.EpisodeNumber != nil && e.SeasonNumber != nil:
		return fmt.Sprintf("%s S%02dE%02d", name, *e.SeasonNumber, *e.EpisodeNumber)
	case e.SeasonNumber != nil:
		return fmt.Sprintf("%s season %d", name, *e.SeasonNumber)
	}
	return name
}

// repeats converts a play count into a repeat count. Zero plays means the
// source did not report one and counts as a single watch.
func (e Entry) repeats() int {
	if e.Plays > 1 {
		return e.Plays - 1
	}
	return e.Repeats
}

// validate checks the fields every kind of entry needs.
func (e *Entry) validate() error {
	if e.Source == "" {
		e.Source = library.SourceTMDB
	}
	if !e.Source.Valid() {
		return fmt.Errorf("%w: unknown source %q", ErrInvalidEntry, e.Source)
	}
	if !e.MediaType.Valid() {
		return fmt.Errorf("%w: unknown media type %q", ErrInvalidEntry, e.MediaType)
	}
	if e.MediaID < 0 {
		return fmt.Errorf("%w: negative media id", ErrInvalidEntry)
	}
	if e.Status != "" && !e.Status.Valid() {
		if st, ok := library.ParseStatus(string(e.Status)); ok {
			e.Status = st
		} else {
			return fmt.Errorf("%w: unknown status %q", ErrInvalidEntry, e.Status)
		}
	}
	switch e.MediaType {
	case library.MediaSeason:
		if e.SeasonNumber == nil {
			return fmt.Errorf("%w: season entry without season number", ErrInvalidEntry)
		}
	case library.MediaEpisode:
		if e.SeasonNumber == nil || e.EpisodeNumber == nil {
			return fmt.Errorf("%w: episode entry without season and episode numbers", ErrInvalidEntry)
		}
	}
	return nil
}

// rank orders entries so episodes import before their season and show.
// An episode creates missing parents as In progress with its own watch
// date; the parent entries then apply their status as an edit, so a
// Completed season or show only fills the episodes that are still missing.
func (e Entry) rank() int {
	switch e.MediaType {
	case library.MediaEpisode:
		return 0
	case library.MediaSeason:
		return 1
	}
	return 2
}
