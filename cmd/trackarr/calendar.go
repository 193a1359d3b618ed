package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
)

var calendarCmd = &cobra.Command{
	Use:   "calendar",
	Short: "Upcoming releases for what you track",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		days, _ := cmd.Flags().GetInt("days")
		return withSession(func(s *session) error {
			return runCalendar(s, cmd.OutOrStdout(), time.Now(), days)
		})
	},
}

var calendarReloadCmd = &cobra.Command{
	Use:   "reload",
	Short: "Rebuild release dates from the catalog",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(func(s *session) error {
			return runCalendarReload(cmd.Context(), s, cmd.OutOrStdout())
		})
	},
}

func init() {
	calendarCmd.Flags().Int("days", 30, "How many days ahead to show")
	calendarCmd.AddCommand(calendarReloadCmd)
	rootCmd.AddCommand(calendarCmd)
}

func runCalendar(s *session, w io.Writer, now time.Time, days int) error {
	loc := s.Config.Tracking.Location()
	y, m, d := now.In(loc).Date()
	from := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, days)

	evs, err := s.Calendar.UserEvents(s.user, from, to)
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(w, evs)
	}
	if len(evs) == 0 {
		fmt.Fprintf(w, "Nothing releasing in the next %d days\n", days)
		return nil
	}

	var last time.Time
	for _, e := range evs {
		if !e.Date.Equal(last) {
			fmt.Fprintf(w, "%s\n", e.Date.Format("Mon Jan 2 2006"))
			last = e.Date
		}
		fmt.Fprintf(w, "  %s\n", e.Label())
	}
	return nil
}

func runCalendarReload(ctx context.Context, s *session, w io.Writer) error {
	res, err := s.Calendar.Reload(ctx)
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(w, res)
	}
	fmt.Fprintf(w, "Reloaded %d items, %d events", res.Items, res.Events)
	if res.Failed > 0 {
		fmt.Fprintf(w, " (%d lookups failed, kept previous dates)", res.Failed)
	}
	fmt.Fprintln(w)
	return nil
}
