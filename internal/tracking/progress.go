package tracking

import "github.com/vmunix/trackarr/internal/library"

// StoredProgress is a leaf record whose progress is a column edited
// directly and run through Transition.
type StoredProgress interface {
	StoredProgress() int
	CurrentStatus() library.Status
}

// DerivedProgress is a season or show whose progress is counted from
// child rows and is never written.
type DerivedProgress interface {
	DerivedProgress() int
	CurrentStatus() library.Status
}

var (
	_ StoredProgress  = (*library.Record)(nil)
	_ DerivedProgress = (*library.SeasonSummary)(nil)
	_ DerivedProgress = (*library.TVSummary)(nil)
)

// ProgressOf returns the progress of any tracked view, stored or derived.
// The bool is false for values that carry no progress.
func ProgressOf(v any) (int, bool) {
	switch p := v.(type) {
	case DerivedProgress:
		return p.DerivedProgress(), true
	case StoredProgress:
		return p.StoredProgress(), true
	}
	return 0, false
}
