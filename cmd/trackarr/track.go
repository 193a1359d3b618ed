package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/vmunix/trackarr/internal/library"
	"github.com/vmunix/trackarr/internal/tracking"
)

var trackCmd = &cobra.Command{
	Use:   "track <type> <media-id>",
	Short: "Start tracking a movie, show, season, episode, anime, manga or game",
	Long: `Start tracking an item by its catalog id. Tracking an item that is
already tracked edits it instead.

Types: movie, tv, season, episode, anime, manga, game.
Seasons need --season; episodes need --season and --episode.

Sources: only tmdb and manual have a catalog wired. tmdb needs
metadata.tmdb.api_key in the config. Anime, manga and games have no
catalog yet (mal, anilist, igdb and mangaupdates are rejected), so track
them with --source manual and give --title and --progress yourself.`,
	Example: `  trackarr track movie 603 --status completed --score 9
  trackarr track season 1396 --season 1 --status "in progress"
  trackarr track episode 1396 --season 1 --episode 3 --date 2024-05-01
  trackarr track game 1942 --source manual --title "The Witcher 3" --progress 90`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := parseTrackFlags(cmd, args)
		if err != nil {
			return err
		}
		return withSession(func(s *session) error {
			return runTrack(cmd.Context(), s, cmd.OutOrStdout(), req)
		})
	},
}

var editCmd = &cobra.Command{
	Use:   "edit <record-id>",
	Short: "Edit a tracked record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0], "record id")
		if err != nil {
			return err
		}
		edit, err := parseEditFlags(cmd)
		if err != nil {
			return err
		}
		return withSession(func(s *session) error {
			r, err := s.Engine.UpdateRecord(cmd.Context(), s.user, id, edit)
			if err != nil {
				return err
			}
			return outputRecord(cmd.OutOrStdout(), r)
		})
	},
}

var progressCmd = &cobra.Command{
	Use:   "progress <inc|dec> <record-id>",
	Short: "Step a record's progress up or down",
	Long:  "Step progress by one episode or chapter, or by 30 minutes for games.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[1], "record id")
		if err != nil {
			return err
		}
		return withSession(func(s *session) error {
			return runProgress(cmd.Context(), s, cmd.OutOrStdout(), args[0], id)
		})
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <record-id>",
	Short: "Stop tracking a record",
	Long:  "Stop tracking a record. Deleting a TV record removes its seasons and episodes.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0], "record id")
		if err != nil {
			return err
		}
		return withSession(func(s *session) error {
			if err := s.Engine.Delete(cmd.Context(), s.user, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted record #%d\n", id)
			return nil
		})
	},
}

func init() {
	addTrackFlags(trackCmd)

	addRecordFlags(editCmd)
	editCmd.Flags().Bool("clear-score", false, "Remove the score")

	rootCmd.AddCommand(trackCmd, editCmd, progressCmd, deleteCmd)
}

func addTrackFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("source", string(library.SourceTMDB), "Metadata source: tmdb or manual (anime, manga and games need manual)")
	f.String("title", "", "Title to use when the catalog has none")
	f.String("image", "", "Image to use when the catalog has none")
	f.Int("season", 0, "Season number (season and episode types)")
	f.Int("episode", 0, "Episode number (episode type)")
	f.String("date", "", "Watch date for an episode (YYYY-MM-DD)")
	addRecordFlags(cmd)
}

func addRecordFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("status", "", "Status: completed, in progress, repeating, planning, paused, dropped")
	f.Float64("score", 0, "Score from 0 to 10")
	f.Int("progress", 0, "Episodes, chapters, or minutes played")
	f.Int("repeats", 0, "Times repeated")
	f.String("start", "", "Start date (YYYY-MM-DD)")
	f.String("end", "", "End date (YYYY-MM-DD)")
	f.String("notes", "", "Notes")
}

// trackInput is a parsed track command.
type trackInput struct {
	record  tracking.TrackRequest
	season  *tracking.SeasonRequest
	episode *tracking.EpisodeRequest
}

func parseTrackFlags(cmd *cobra.Command, args []string) (trackInput, error) {
	var in trackInput
	typ, err := parseMediaType(args[0])
	if err != nil {
		return in, err
	}
	mediaID, err := parseID(args[1], "media id")
	if err != nil {
		return in, err
	}

	f := cmd.Flags()
	source, _ := f.GetString("source")
	title, _ := f.GetString("title")
	image, _ := f.GetString("image")
	notes, _ := f.GetString("notes")
	progress, _ := f.GetInt("progress")
	repeats, _ := f.GetInt("repeats")
	seasonNum, _ := f.GetInt("season")
	episodeNum, _ := f.GetInt("episode")

	var status library.Status
	if st, _ := f.GetString("status"); st != "" {
		if status, err = parseStatus(st); err != nil {
			return in, err
		}
	}
	score, err := flagScore(cmd, "score")
	if err != nil {
		return in, err
	}

	switch typ {
	case library.MediaSeason:
		if !f.Changed("season") {
			return in, fmt.Errorf("--season is required for seasons")
		}
		in.season = &tracking.SeasonRequest{
			Source: library.Source(source), MediaID: mediaID, Season: seasonNum,
			Title: title, Image: image, Status: status, Score: score, Notes: notes,
		}
	case library.MediaEpisode:
		if !f.Changed("season") || !f.Changed("episode") {
			return in, fmt.Errorf("--season and --episode are required for episodes")
		}
		date, err := flagDate(cmd, "date")
		if err != nil {
			return in, err
		}
		in.episode = &tracking.EpisodeRequest{
			Source: library.Source(source), MediaID: mediaID, Season: seasonNum, Episode: episodeNum,
			Title: title, WatchDate: date, Repeats: repeats,
		}
	default:
		start, err := flagDate(cmd, "start")
		if err != nil {
			return in, err
		}
		end, err := flagDate(cmd, "end")
		if err != nil {
			return in, err
		}
		in.record = tracking.TrackRequest{
			Source: library.Source(source), MediaID: mediaID, MediaType: typ,
			Title: title, Image: image, Status: status, Score: score,
			Progress: progress, Repeats: repeats, StartDate: start, EndDate: end, Notes: notes,
		}
	}
	return in, nil
}

func runTrack(ctx context.Context, s *session, w io.Writer, in trackInput) error {
	switch {
	case in.season != nil:
		req := *in.season
		req.UserID = s.user
		ss, err := s.Engine.TrackSeason(ctx, req)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(w, ss)
		}
		printSeason(w, ss)
	case in.episode != nil:
		req := *in.episode
		req.UserID = s.user
		ep, err := s.Engine.TrackEpisode(ctx, req)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(w, ep)
		}
		fmt.Fprintf(w, "Watched S%02dE%02d on %s\n", req.Season, ep.EpisodeNumber, formatDate(ep.WatchDate))
	default:
		req := in.record
		req.UserID = s.user
		r, err := s.Engine.Track(ctx, req)
		if err != nil {
			return err
		}
		return outputRecord(w, r)
	}
	return nil
}

func parseEditFlags(cmd *cobra.Command) (tracking.RecordEdit, error) {
	var edit tracking.RecordEdit
	var err error
	if edit.Status, err = flagStatus(cmd, "status"); err != nil {
		return edit, err
	}
	if edit.Score, err = flagScore(cmd, "score"); err != nil {
		return edit, err
	}
	edit.ClearScore, _ = cmd.Flags().GetBool("clear-score")
	if edit.Progress, err = flagInt(cmd, "progress"); err != nil {
		return edit, err
	}
	if edit.Repeats, err = flagInt(cmd, "repeats"); err != nil {
		return edit, err
	}
	if edit.StartDate, err = flagDate(cmd, "start"); err != nil {
		return edit, err
	}
	if edit.EndDate, err = flagDate(cmd, "end"); err != nil {
		return edit, err
	}
	if cmd.Flags().Changed("notes") {
		notes, _ := cmd.Flags().GetString("notes")
		edit.Notes = &notes
	}
	return edit, nil
}

func runProgress(ctx context.Context, s *session, w io.Writer, direction string, recordID int64) error {
	var (
		r         *library.Record
		completed bool
		err       error
	)
	switch direction {
	case "inc", "+":
		r, completed, err = s.Engine.IncreaseProgress(ctx, s.user, recordID)
	case "dec", "-":
		r, err = s.Engine.DecreaseProgress(ctx, s.user, recordID)
	default:
		return fmt.Errorf("unknown direction %q (want inc or dec)", direction)
	}
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(w, r)
	}
	fmt.Fprintf(w, "%s: %s (%s)\n", r.Item.Title, formatProgress(r.Progress, r.Item.MediaType), r.Status)
	if completed {
		fmt.Fprintln(w, "Completed!")
	}
	return nil
}

func outputRecord(w io.Writer, r *library.Record) error {
	if jsonOutput {
		return printJSON(w, r)
	}
	printRecord(w, r)
	return nil
}
