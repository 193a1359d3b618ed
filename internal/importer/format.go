// internal/importer/format.go
package importer

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/vmunix/trackarr/internal/library"
	"github.com/vmunix/trackarr/internal/metadata"
)

// Supported formats.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
)

// csvColumns is the export column order. Readers match columns by header
// name, so files with the first thirteen columns only still import.
var csvColumns = []string{
	"media_id", "media_type", "title", "image", "score", "progress", "status",
	"start_date", "end_date", "notes", "season_number", "episode_number", "watch_date",
	"source", "repeats",
}

const dateLayout = "2006-01-02"

// Write encodes entries in the given format.
func Write(w io.Writer, format string, entries []Entry) error {
	switch format {
	case FormatCSV:
		return writeCSV(w, entries)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if entries == nil {
			entries = []Entry{}
		}
		return enc.Encode(entries)
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

// Read decodes entries. CSV rows that cannot be parsed are reported as
// warnings and left out; a malformed JSON document is an error.
func Read(r io.Reader, format string) ([]Entry, []string, error) {
	switch format {
	case FormatCSV:
		return readCSV(r)
	case FormatJSON:
		var entries []Entry
		if err := json.NewDecoder(r).Decode(&entries); err != nil {
			return nil, nil, fmt.Errorf("decode json: %w", err)
		}
		return entries, nil, nil
	}
	return nil, nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

func writeCSV(w io.Writer, entries []Entry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvColumns); err != nil {
		return err
	}
	for _, e := range entries {
		row := []string{
			strconv.FormatInt(e.MediaID, 10),
			string(e.MediaType),
			e.Title,
			e.Image,
			formatScore(e.Score),
			strconv.Itoa(e.Progress),
			string(e.Status),
			formatDate(e.StartDate),
			formatDate(e.EndDate),
			e.Notes,
			formatInt(e.SeasonNumber),
			formatInt(e.EpisodeNumber),
			formatDate(e.WatchDate),
			string(e.Source),
			strconv.Itoa(e.Repeats),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func readCSV(r io.Reader) ([]Entry, []string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("read csv header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	for _, required := range []string{"media_id", "media_type"} {
		if _, ok := index[required]; !ok {
			return nil, nil, fmt.Errorf("%w: csv missing %q column", ErrInvalidEntry, required)
		}
	}

	var (
		entries  []Entry
		warnings []string
	)
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read csv line %d: %w", line, err)
		}
		e, err := parseRow(rec, index)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("line %d: %v", line, err))
			continue
		}
		entries = append(entries, e)
	}
	return entries, warnings, nil
}

func parseRow(rec []string, index map[string]int) (Entry, error) {
	get := func(col string) string {
		i, ok := index[col]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var e Entry
	var err error
	if e.MediaID, err = strconv.ParseInt(get("media_id"), 10, 64); err != nil {
		return e, fmt.Errorf("%w: media_id %q", ErrInvalidEntry, get("media_id"))
	}
	e.MediaType = library.MediaType(get("media_type"))
	e.Source = library.Source(get("source"))
	e.Title = get("title")
	e.Image = get("image")
	e.Status = library.Status(get("status"))
	e.Notes = get("notes")

	if s := get("score"); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return e, fmt.Errorf("%w: score %q", ErrInvalidEntry, s)
		}
		e.Score = &v
	}
	if e.Progress, err = parseCount(get("progress"), "progress"); err != nil {
		return e, err
	}
	if e.Repeats, err = parseCount(get("repeats"), "repeats"); err != nil {
		return e, err
	}
	if e.SeasonNumber, err = parseOptInt(get("season_number"), "season_number"); err != nil {
		return e, err
	}
	if e.EpisodeNumber, err = parseOptInt(get("episode_number"), "episode_number"); err != nil {
		return e, err
	}
	for col, dst := range map[string]**time.Time{
		"start_date": &e.StartDate,
		"end_date":   &e.EndDate,
		"watch_date": &e.WatchDate,
	} {
		if *dst, err = metadata.ParseDate(firstDate(get(col))); err != nil {
			return e, fmt.Errorf("%w: %s: %v", ErrInvalidEntry, col, err)
		}
	}
	return e, nil
}

// firstDate trims a timestamp down to its date part.
func firstDate(s string) string {
	if len(s) > len(dateLayout) && (s[len(dateLayout)] == 'T' || s[len(dateLayout)] == ' ') {
		return s[:len(dateLayout)]
	}
	return s
}

func parseCount(s, col string) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s %q", ErrInvalidEntry, col, s)
	}
	return n, nil
}

func parseOptInt(s, col string) (*int, error) {
	if s == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %q", ErrInvalidEntry, col, s)
	}
	return &n, nil
}

func formatScore(s *float64) string {
	if s == nil {
		return ""
	}
	return strconv.FormatFloat(*s, 'f', -1, 64)
}

func formatInt(n *int) string {
	if n == nil {
		return ""
	}
	return strconv.Itoa(*n)
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(dateLayout)
}
