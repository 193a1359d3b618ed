package tracking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmunix/trackarr/internal/library"
)

func intPtr(n int) *int { return &n }

func datePtr(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestTransition(t *testing.T) {
	today := testToday()

	tests := []struct {
		name   string
		change Change
		want   Outcome
	}{
		{
			name: "progress above max is clamped and completes",
			change: Change{
				OldStatus: library.StatusInProgress, NewStatus: library.StatusInProgress,
				OldProgress: 10, NewProgress: 40, MaxProgress: intPtr(26),
				StartDate: datePtr(2026, 1, 2),
			},
			want: Outcome{
				Status: library.StatusCompleted, Progress: 26,
				StartDate: datePtr(2026, 1, 2), EndDate: &today, AutoCompleted: true,
			},
		},
		{
			name: "negative progress floors at zero",
			change: Change{
				OldStatus: library.StatusInProgress, NewStatus: library.StatusInProgress,
				OldProgress: 3, NewProgress: -2, MaxProgress: intPtr(26),
				StartDate: datePtr(2026, 1, 2),
			},
			want: Outcome{Status: library.StatusInProgress, Progress: 0, StartDate: datePtr(2026, 1, 2)},
		},
		{
			name: "unknown max does not clamp or complete",
			change: Change{
				OldStatus: library.StatusInProgress, NewStatus: library.StatusInProgress,
				OldProgress: 3, NewProgress: 500,
				StartDate: datePtr(2026, 1, 2),
			},
			want: Outcome{Status: library.StatusInProgress, Progress: 500, StartDate: datePtr(2026, 1, 2)},
		},
		{
			name: "explicit status wins over reaching max",
			change: Change{
				OldStatus: library.StatusInProgress, NewStatus: library.StatusPaused, StatusSet: true,
				OldProgress: 10, NewProgress: 26, MaxProgress: intPtr(26),
			},
			want: Outcome{Status: library.StatusPaused, Progress: 26},
		},
		{
			name: "completing fills end date and progress",
			change: Change{
				OldStatus: library.StatusPlanning, NewStatus: library.StatusCompleted, StatusSet: true,
				OldProgress: 0, NewProgress: 0, MaxProgress: intPtr(12),
			},
			want: Outcome{Status: library.StatusCompleted, Progress: 12, EndDate: &today},
		},
		{
			name: "completing keeps a user end date",
			change: Change{
				OldStatus: library.StatusInProgress, NewStatus: library.StatusCompleted, StatusSet: true,
				OldProgress: 5, NewProgress: 5, MaxProgress: intPtr(12),
				EndDate: datePtr(2025, 12, 31),
			},
			want: Outcome{Status: library.StatusCompleted, Progress: 12, EndDate: datePtr(2025, 12, 31)},
		},
		{
			name: "leaving Repeating for Completed closes a cycle",
			change: Change{
				OldStatus: library.StatusRepeating, NewStatus: library.StatusCompleted, StatusSet: true,
				OldProgress: 3, NewProgress: 3, MaxProgress: intPtr(12), Repeats: 1,
				EndDate: datePtr(2025, 6, 1),
			},
			want: Outcome{Status: library.StatusCompleted, Progress: 12, Repeats: 2, EndDate: datePtr(2025, 6, 1)},
		},
		{
			name: "finishing a rewatch by progress closes a cycle",
			change: Change{
				OldStatus: library.StatusRepeating, NewStatus: library.StatusRepeating,
				OldProgress: 11, NewProgress: 12, MaxProgress: intPtr(12),
			},
			want: Outcome{Status: library.StatusCompleted, Progress: 12, Repeats: 1, EndDate: &today, AutoCompleted: true},
		},
		{
			name: "first In progress sets start date",
			change: Change{
				OldStatus: library.StatusPlanning, NewStatus: library.StatusInProgress, StatusSet: true,
			},
			want: Outcome{Status: library.StatusInProgress, StartDate: &today},
		},
		{
			name: "In progress again keeps the start date",
			change: Change{
				OldStatus: library.StatusPaused, NewStatus: library.StatusInProgress, StatusSet: true,
				StartDate: datePtr(2024, 2, 2),
			},
			want: Outcome{Status: library.StatusInProgress, StartDate: datePtr(2024, 2, 2)},
		},
		{
			name: "Completed without known length keeps progress",
			change: Change{
				OldStatus: library.StatusInProgress, NewStatus: library.StatusCompleted, StatusSet: true,
				OldProgress: 4, NewProgress: 4,
			},
			want: Outcome{Status: library.StatusCompleted, Progress: 4, EndDate: &today},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.change.Today = testNow
			assert.Equal(t, tt.want, Transition(tt.change))
		})
	}
}

func TestTransition_ClampInvariant(t *testing.T) {
	limit := 26
	for _, old := range []int{0, 13, 26} {
		for p := -5; p <= 40; p++ {
			out := Transition(Change{
				OldStatus: library.StatusInProgress, NewStatus: library.StatusInProgress,
				OldProgress: old, NewProgress: p, MaxProgress: &limit, Today: testNow,
			})
			assert.GreaterOrEqual(t, out.Progress, 0)
			assert.LessOrEqual(t, out.Progress, limit)
		}
	}
}

func TestTransition_ReachingMaxAlwaysCompletes(t *testing.T) {
	limit := 26
	for _, st := range library.Statuses {
		for _, old := range []int{0, 25} {
			out := Transition(Change{
				OldStatus: st, NewStatus: st,
				OldProgress: old, NewProgress: limit, MaxProgress: &limit, Today: testNow,
			})
			assert.Equal(t, library.StatusCompleted, out.Status, "from %s", st)
			require.NotNil(t, out.EndDate, "from %s", st)
		}
	}
}
