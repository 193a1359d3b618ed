package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vmunix/trackarr/internal/events"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Recent tracking activity",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		types, _ := cmd.Flags().GetStringSlice("type")
		return withSession(func(s *session) error {
			return runHistory(s, cmd.OutOrStdout(), limit, types...)
		})
	},
}

func init() {
	historyCmd.Flags().IntP("limit", "n", 20, "Number of events (0 for all)")
	historyCmd.Flags().StringSliceP("type", "t", nil, "Only these event types (e.g. episode.watched)")
	rootCmd.AddCommand(historyCmd)
}

// historyLine is one rendered history event.
type historyLine struct {
	ID      int64  `json:"id"`
	Type    string `json:"type"`
	When    string `json:"when"`
	Summary string `json:"summary"`
}

func runHistory(s *session, w io.Writer, limit int, types ...string) error {
	reg := events.DefaultRegistry()
	for _, t := range types {
		if !reg.Known(t) {
			return fmt.Errorf("unknown event type %q (want one of %s)", t, strings.Join(reg.Types(), ", "))
		}
	}

	raw, err := s.History.Find(events.Query{UserID: s.user, Types: types, Limit: limit, Newest: true})
	if err != nil {
		return err
	}

	lines := make([]historyLine, 0, len(raw))
	for _, r := range raw {
		lines = append(lines, historyLine{
			ID:      r.ID,
			Type:    r.EventType,
			When:    r.OccurredAt.Local().Format("2006-01-02 15:04"),
			Summary: reg.Summary(r),
		})
	}

	if jsonOutput {
		return printJSON(w, lines)
	}
	if len(lines) == 0 {
		fmt.Fprintln(w, "No history yet")
		return nil
	}
	for _, l := range lines {
		fmt.Fprintf(w, "  %s  %-24s %s\n", l.When, l.Type, l.Summary)
	}
	return nil
}
