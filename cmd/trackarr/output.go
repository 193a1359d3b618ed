package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/vmunix/trackarr/internal/library"
	"github.com/vmunix/trackarr/internal/metadata"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func formatScore(s *float64) string {
	if s == nil {
		return "-"
	}
	return strconv.FormatFloat(*s, 'f', -1, 64)
}

func formatDate(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("2006-01-02")
}

func formatProgress(progress int, t library.MediaType) string {
	if t == library.MediaGame {
		return fmt.Sprintf("%dh%02dm", progress/60, progress%60)
	}
	return strconv.Itoa(progress)
}

func parseStatus(s string) (library.Status, error) {
	st, ok := library.ParseStatus(s)
	if !ok {
		names := make([]string, len(library.Statuses))
		for i, v := range library.Statuses {
			names[i] = string(v)
		}
		return "", fmt.Errorf("unknown status %q (want one of: %s)", s, strings.Join(names, ", "))
	}
	return st, nil
}

func parseMediaType(s string) (library.MediaType, error) {
	t := library.MediaType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("unknown media type %q", s)
	}
	return t, nil
}

func parseID(s, what string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s %q", what, s)
	}
	return id, nil
}

// flagScore reads a score flag when it was given on the command line.
func flagScore(cmd *cobra.Command, name string) (*float64, error) {
	if !cmd.Flags().Changed(name) {
		return nil, nil
	}
	v, err := cmd.Flags().GetFloat64(name)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// flagInt reads an int flag when it was given on the command line.
func flagInt(cmd *cobra.Command, name string) (*int, error) {
	if !cmd.Flags().Changed(name) {
		return nil, nil
	}
	v, err := cmd.Flags().GetInt(name)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// flagDate reads a date flag. Partial dates like "2024-08" are accepted.
func flagDate(cmd *cobra.Command, name string) (*time.Time, error) {
	s, err := cmd.Flags().GetString(name)
	if err != nil {
		return nil, err
	}
	t, err := metadata.ParseDate(s)
	if err != nil {
		return nil, fmt.Errorf("--%s: %w", name, err)
	}
	return t, nil
}

// flagStatus reads a status flag when it was given on the command line.
func flagStatus(cmd *cobra.Command, name string) (*library.Status, error) {
	if !cmd.Flags().Changed(name) {
		return nil, nil
	}
	s, _ := cmd.Flags().GetString(name)
	st, err := parseStatus(s)
	if err != nil {
		return nil, err
	}
	return &st, nil
}

func printRecord(w io.Writer, r *library.Record) {
	fmt.Fprintf(w, "#%d %s (%s)\n", r.ID, r.Item.Title, r.Item.MediaType)
	fmt.Fprintf(w, "  Status:   %s\n", r.Status)
	fmt.Fprintf(w, "  Progress: %s\n", formatProgress(r.Progress, r.Item.MediaType))
	fmt.Fprintf(w, "  Score:    %s\n", formatScore(r.Score))
	if r.Repeats > 0 {
		fmt.Fprintf(w, "  Repeats:  %d\n", r.Repeats)
	}
	fmt.Fprintf(w, "  Dates:    %s to %s\n", formatDate(r.StartDate), formatDate(r.EndDate))
	if r.Notes != "" {
		fmt.Fprintf(w, "  Notes:    %s\n", r.Notes)
	}
}

func printSeason(w io.Writer, s *library.SeasonSummary) {
	fmt.Fprintf(w, "#%d %s season %d\n", s.ID, s.Item.Title, seasonNumber(&s.Item))
	fmt.Fprintf(w, "  Status:   %s\n", s.Status)
	fmt.Fprintf(w, "  Episodes: %d\n", s.Progress)
	fmt.Fprintf(w, "  Score:    %s\n", formatScore(s.Score))
	if s.Repeats > 0 {
		fmt.Fprintf(w, "  Repeats:  %d\n", s.Repeats)
	}
	fmt.Fprintf(w, "  Dates:    %s to %s\n", formatDate(s.StartDate), formatDate(s.EndDate))
}

func seasonNumber(it *library.Item) int {
	if it.SeasonNumber == nil {
		return 0
	}
	return *it.SeasonNumber
}
