package tracking

import (
	"time"

	"github.com/vmunix/trackarr/internal/library"
)

// Change describes one edit of a leaf record as old and new values.
type Change struct {
	OldStatus library.Status
	NewStatus library.Status
	// StatusSet reports that the user chose NewStatus in this edit.
	StatusSet bool

	OldProgress int
	NewProgress int

	// MaxProgress is the catalog length. Nil means unknown, which disables clamping.
	MaxProgress *int

	Repeats   int
	StartDate *time.Time
	EndDate   *time.Time
	Today     time.Time
}

// Outcome is the state a leaf record should be persisted with.
type Outcome struct {
	Status    library.Status
	Progress  int
	Repeats   int
	StartDate *time.Time
	EndDate   *time.Time

	// AutoCompleted is set when reaching MaxProgress forced Completed.
	AutoCompleted bool
}

// Transition applies the progress and status rules to a leaf record edit.
//
// Progress is clamped to [0, MaxProgress]. Reaching MaxProgress through a
// progress change forces Completed unless the user picked another status in
// the same edit. Entering Completed fills the end date and progress, and
// closes a rewatch cycle when leaving Repeating. Entering In progress for the
// first time fills the start date.
func Transition(c Change) Outcome {
	out := Outcome{
		Status:    c.NewStatus,
		Progress:  c.NewProgress,
		Repeats:   c.Repeats,
		StartDate: c.StartDate,
		EndDate:   c.EndDate,
	}

	if out.Progress < 0 {
		out.Progress = 0
	}
	if c.MaxProgress != nil && out.Progress > *c.MaxProgress {
		out.Progress = *c.MaxProgress
	}

	if c.MaxProgress != nil && out.Progress != c.OldProgress && out.Progress == *c.MaxProgress {
		if !c.StatusSet || c.NewStatus == library.StatusCompleted {
			out.AutoCompleted = out.Status != library.StatusCompleted
			out.Status = library.StatusCompleted
		}
	}

	today := library.Day(c.Today)

	completed := out.Status == library.StatusCompleted
	entering := completed && c.OldStatus != library.StatusCompleted
	if entering && c.MaxProgress != nil {
		out.Progress = *c.MaxProgress
	}
	if completed && (entering || out.Progress != c.OldProgress) && out.EndDate == nil {
		out.EndDate = &today
	}
	if entering && c.OldStatus == library.StatusRepeating {
		out.Repeats++
	}

	if out.Status == library.StatusInProgress && c.OldStatus != library.StatusInProgress && out.StartDate == nil {
		out.StartDate = &today
	}

	return out
}
