package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/vmunix/trackarr/internal/library"
	"github.com/vmunix/trackarr/internal/titles"
	"github.com/vmunix/trackarr/internal/tracking"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List tracked records",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		f := library.RecordFilter{}
		if t, _ := cmd.Flags().GetString("type"); t != "" {
			typ, err := parseMediaType(t)
			if err != nil {
				return err
			}
			f.MediaType = &typ
		}
		if st, _ := cmd.Flags().GetString("status"); st != "" {
			status, err := parseStatus(st)
			if err != nil {
				return err
			}
			f.Status = &status
		}
		f.Limit, _ = cmd.Flags().GetInt("limit")
		return withSession(func(s *session) error {
			return runList(s, cmd.OutOrStdout(), f)
		})
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Find tracked items by title",
	Long:  "Fuzzy-match a title against everything you track. Accents, articles and punctuation are ignored.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		minScore, _ := cmd.Flags().GetFloat64("min-score")
		return withSession(func(s *session) error {
			return runSearch(s, cmd.OutOrStdout(), args[0], minScore)
		})
	},
}

func init() {
	listCmd.Flags().String("type", "", "Filter by media type")
	listCmd.Flags().String("status", "", "Filter by status")
	listCmd.Flags().Int("limit", 0, "Maximum rows (0 for all)")

	searchCmd.Flags().Float64("min-score", 0.70, "Minimum similarity from 0 to 1")

	rootCmd.AddCommand(listCmd, searchCmd)
}

// listRow is a record with its progress resolved, stored or derived.
type listRow struct {
	ID        int64             `json:"id"`
	MediaType library.MediaType `json:"media_type"`
	Title     string            `json:"title"`
	Status    library.Status    `json:"status"`
	Progress  int               `json:"progress"`
	Score     *float64          `json:"score,omitempty"`
}

func runList(s *session, w io.Writer, f library.RecordFilter) error {
	f.UserID = &s.user
	records, total, err := s.Library.ListRecords(f)
	if err != nil {
		return err
	}

	rows := make([]listRow, 0, len(records))
	for _, r := range records {
		var view any = r
		if r.Item.MediaType == library.MediaTV {
			if view, err = s.Library.TVSummary(r.ID); err != nil {
				return err
			}
		}
		progress, _ := tracking.ProgressOf(view)
		rows = append(rows, listRow{
			ID: r.ID, MediaType: r.Item.MediaType, Title: r.Item.Title,
			Status: r.Status, Progress: progress, Score: r.Score,
		})
	}

	if jsonOutput {
		return printJSON(w, rows)
	}
	if len(rows) == 0 {
		fmt.Fprintln(w, "Nothing tracked")
		return nil
	}

	fmt.Fprintf(w, "Records (%d):\n\n", total)
	fmt.Fprintf(w, "  %5s │ %-7s │ %-36s │ %-12s │ %-8s │ %s\n", "ID", "TYPE", "TITLE", "STATUS", "PROGRESS", "SCORE")
	fmt.Fprintln(w, "  ──────┼─────────┼──────────────────────────────────────┼──────────────┼──────────┼──────")
	for _, r := range rows {
		fmt.Fprintf(w, "  %5d │ %-7s │ %-36s │ %-12s │ %-8s │ %s\n",
			r.ID, r.MediaType, truncate(r.Title, 36), r.Status, formatProgress(r.Progress, r.MediaType), formatScore(r.Score))
	}
	return nil
}

// searchHit is a ranked tracked item.
type searchHit struct {
	Item       *library.Item `json:"item"`
	Score      float64       `json:"score"`
	Confidence string        `json:"confidence"`
}

func runSearch(s *session, w io.Writer, query string, minScore float64) error {
	items, err := s.Library.ListTrackedItems(s.user)
	if err != nil {
		return err
	}
	names := make([]string, len(items))
	for i, it := range items {
		names[i] = it.Title
	}

	matches := titles.Rank(query, names, minScore)
	hits := make([]searchHit, len(matches))
	for i, m := range matches {
		hits[i] = searchHit{Item: items[m.Index], Score: m.Score, Confidence: m.Confidence.String()}
	}

	if jsonOutput {
		return printJSON(w, hits)
	}
	if len(hits) == 0 {
		fmt.Fprintf(w, "No tracked titles match %q\n", query)
		return nil
	}
	for _, h := range hits {
		label := h.Item.Title
		if h.Item.MediaType == library.MediaSeason {
			label += " season " + strconv.Itoa(seasonNumber(h.Item))
		}
		fmt.Fprintf(w, "  %-40s %-7s %.2f (%s)\n", truncate(label, 40), h.Item.MediaType, h.Score, h.Confidence)
	}
	return nil
}
