// Package metadata defines the catalog lookup contract the tracking engine
// consumes and routes queries to the right provider by source.
package metadata

//go:generate mockgen -destination=mocks/provider.go -package=mocks . Provider

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"time"

	"github.com/vmunix/trackarr/internal/library"
)

var (
	// ErrNotFound is returned when the catalog has no such media.
	ErrNotFound = errors.New("media not found")

	// ErrUnsupportedSource is returned for sources with no configured provider.
	ErrUnsupportedSource = errors.New("unsupported metadata source")
)

// Query identifies the media to look up. Season is set for season lookups only.
type Query struct {
	Type   library.MediaType
	ID     int64
	Source library.Source
	Season *int
}

// Episode is one episode of a season as known by the catalog.
type Episode struct {
	Number  int
	Title   string
	AirDate *time.Time
}

// Season is a season entry in a TV show's metadata.
type Season struct {
	Number       int
	EpisodeCount int
	AirDate      *time.Time
}

// Media is the catalog's view of a movie, show, season or leaf item.
type Media struct {
	Title string
	Image string

	// MaxProgress is the total episode, chapter or minute count. Nil means unknown.
	MaxProgress *int

	Seasons     []Season  // tv only
	Episodes    []Episode // season only
	ReleaseDate *time.Time
}

// RegularSeasons returns the seasons numbered above zero, sorted by number.
// Season 0 holds specials.
func (m *Media) RegularSeasons() []Season {
	var out []Season
	for _, s := range m.Seasons {
		if s.Number > 0 {
			out = append(out, s)
		}
	}
	slices.SortFunc(out, func(a, b Season) int { return cmp.Compare(a.Number, b.Number) })
	return out
}

// EpisodeNumbers returns the distinct positive episode numbers of a season's
// metadata in ascending order.
func (m *Media) EpisodeNumbers() []int {
	nums := make([]int, 0, len(m.Episodes))
	for _, e := range m.Episodes {
		if e.Number > 0 {
			nums = append(nums, e.Number)
		}
	}
	slices.Sort(nums)
	return slices.Compact(nums)
}

// Provider looks up catalog metadata.
type Provider interface {
	Metadata(ctx context.Context, q Query) (*Media, error)
}
