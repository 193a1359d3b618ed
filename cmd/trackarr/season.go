package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/vmunix/trackarr/internal/library"
	"github.com/vmunix/trackarr/internal/tracking"
)

var seasonCmd = &cobra.Command{
	Use:   "season",
	Short: "Manage tracked seasons",
}

var seasonEditCmd = &cobra.Command{
	Use:   "edit <season-id>",
	Short: "Edit a tracked season",
	Long:  "Edit a season's status, score or notes. Marking a season completed adds every missing episode.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0], "season id")
		if err != nil {
			return err
		}
		var edit tracking.SeasonEdit
		if edit.Status, err = flagStatus(cmd, "status"); err != nil {
			return err
		}
		if edit.Score, err = flagScore(cmd, "score"); err != nil {
			return err
		}
		edit.ClearScore, _ = cmd.Flags().GetBool("clear-score")
		if cmd.Flags().Changed("notes") {
			notes, _ := cmd.Flags().GetString("notes")
			edit.Notes = &notes
		}
		return withSession(func(s *session) error {
			ss, err := s.Engine.UpdateSeason(cmd.Context(), s.user, id, edit)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(cmd.OutOrStdout(), ss)
			}
			printSeason(cmd.OutOrStdout(), ss)
			return nil
		})
	},
}

var seasonDeleteCmd = &cobra.Command{
	Use:   "delete <season-id>",
	Short: "Stop tracking a season and its episodes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0], "season id")
		if err != nil {
			return err
		}
		return withSession(func(s *session) error {
			if err := s.Engine.DeleteSeason(cmd.Context(), s.user, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted season #%d\n", id)
			return nil
		})
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch <season-id> <episode>",
	Short: "Mark an episode watched",
	Long:  "Mark an episode watched. Watching an episode again counts a repeat while the season is repeating.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, number, err := parseEpisodeArgs(args)
		if err != nil {
			return err
		}
		date, err := flagDate(cmd, "date")
		if err != nil {
			return err
		}
		return withSession(func(s *session) error {
			return runWatch(s, cmd.OutOrStdout(), id, number, func() error {
				_, err := s.Engine.Watch(cmd.Context(), s.user, id, number, date)
				return err
			})
		})
	},
}

var unwatchCmd = &cobra.Command{
	Use:   "unwatch <season-id> <episode>",
	Short: "Undo one watch of an episode",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, number, err := parseEpisodeArgs(args)
		if err != nil {
			return err
		}
		return withSession(func(s *session) error {
			return runWatch(s, cmd.OutOrStdout(), id, number, func() error {
				return s.Engine.Unwatch(cmd.Context(), s.user, id, number)
			})
		})
	},
}

var showCmd = &cobra.Command{
	Use:   "show <record-id>",
	Short: "Show a record; TV records list their seasons",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0], "record id")
		if err != nil {
			return err
		}
		return withSession(func(s *session) error {
			return runShow(s, cmd.OutOrStdout(), id)
		})
	},
}

func init() {
	seasonEditCmd.Flags().String("status", "", "Status")
	seasonEditCmd.Flags().Float64("score", 0, "Score from 0 to 10")
	seasonEditCmd.Flags().Bool("clear-score", false, "Remove the score")
	seasonEditCmd.Flags().String("notes", "", "Notes")
	seasonCmd.AddCommand(seasonEditCmd, seasonDeleteCmd)

	watchCmd.Flags().String("date", "", "Watch date (YYYY-MM-DD, default today)")

	rootCmd.AddCommand(seasonCmd, watchCmd, unwatchCmd, showCmd)
}

func parseEpisodeArgs(args []string) (int64, int, error) {
	id, err := parseID(args[0], "season id")
	if err != nil {
		return 0, 0, err
	}
	number, err := strconv.Atoi(args[1])
	if err != nil || number < 1 {
		return 0, 0, fmt.Errorf("invalid episode number %q", args[1])
	}
	return id, number, nil
}

// runWatch applies a watch change and prints the season afterwards.
func runWatch(s *session, w io.Writer, seasonID int64, number int, apply func() error) error {
	if err := apply(); err != nil {
		return err
	}
	ss, err := s.Library.SeasonSummary(seasonID)
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(w, ss)
	}
	fmt.Fprintf(w, "%s S%02dE%02d\n", ss.Item.Title, seasonNumber(&ss.Item), number)
	fmt.Fprintf(w, "  Season:   %s, %d episodes watched\n", ss.Status, ss.Progress)
	return nil
}

// showView is the JSON shape of the show command.
type showView struct {
	Record  *library.Record          `json:"record"`
	TV      *library.TVSummary       `json:"tv,omitempty"`
	Seasons []*library.SeasonSummary `json:"seasons,omitempty"`
}

func runShow(s *session, w io.Writer, recordID int64) error {
	r, err := s.Library.GetRecord(recordID)
	if err != nil {
		return err
	}
	if r.UserID != s.user {
		return fmt.Errorf("record %d: %w", recordID, library.ErrNotFound)
	}

	view := showView{Record: r}
	if r.Item.MediaType == library.MediaTV {
		if view.TV, err = s.Library.TVSummary(r.ID); err != nil {
			return err
		}
		if view.Seasons, err = s.Library.ListSeasonSummaries(library.SeasonFilter{TVID: &r.ID}); err != nil {
			return err
		}
	}
	if jsonOutput {
		return printJSON(w, view)
	}

	if view.TV == nil {
		printRecord(w, r)
		return nil
	}
	tv := view.TV
	fmt.Fprintf(w, "#%d %s (tv)\n", r.ID, r.Item.Title)
	fmt.Fprintf(w, "  Status:   %s\n", r.Status)
	fmt.Fprintf(w, "  Episodes: %d across %d seasons\n", tv.Progress, tv.Seasons)
	fmt.Fprintf(w, "  Score:    %s\n", formatScore(r.Score))
	fmt.Fprintf(w, "  Dates:    %s to %s\n", formatDate(tv.StartDate), formatDate(tv.EndDate))
	if len(view.Seasons) == 0 {
		return nil
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %6s │ %-6s │ %-12s │ %-8s │ %s\n", "ID", "SEASON", "STATUS", "EPISODES", "SCORE")
	fmt.Fprintln(w, "  ───────┼────────┼──────────────┼──────────┼──────")
	for _, ss := range view.Seasons {
		fmt.Fprintf(w, "  %6d │ %-6d │ %-12s │ %-8d │ %s\n",
			ss.ID, seasonNumber(&ss.Item), ss.Status, ss.Progress, formatScore(ss.Score))
	}
	return nil
}
