// internal/importer/export.go
package importer

import (
	"fmt"

	"github.com/vmunix/trackarr/internal/library"
)

// Export collects a user's library as entries: records first, then
// seasons, then watched episodes. Importing the result into an empty
// library reproduces it.
func Export(store *library.Store, userID int64) ([]Entry, error) {
	records, _, err := store.ListRecords(library.RecordFilter{UserID: &userID})
	if err != nil {
		return nil, fmt.Errorf("export records: %w", err)
	}
	var out []Entry
	for _, r := range records {
		e := Entry{
			Source:    r.Item.Source,
			MediaID:   r.Item.MediaID,
			MediaType: r.Item.MediaType,
			Title:     r.Item.Title,
			Image:     r.Item.Image,
			Score:     r.Score,
			Status:    r.Status,
			Notes:     r.Notes,
		}
		if r.Item.MediaType.Leaf() {
			e.Progress = r.Progress
			e.Repeats = r.Repeats
			e.StartDate = r.StartDate
			e.EndDate = r.EndDate
		}
		out = append(out, e)
	}

	seasons, err := store.ListSeasons(library.SeasonFilter{UserID: &userID})
	if err != nil {
		return nil, fmt.Errorf("export seasons: %w", err)
	}
	var episodes []Entry
	for _, s := range seasons {
		out = append(out, Entry{
			Source:       s.Item.Source,
			MediaID:      s.Item.MediaID,
			MediaType:    library.MediaSeason,
			Title:        s.Item.Title,
			Image:        s.Item.Image,
			Score:        s.Score,
			Status:       s.Status,
			Notes:        s.Notes,
			SeasonNumber: s.Item.SeasonNumber,
		})

		eps, _, err := store.ListEpisodes(library.EpisodeFilter{SeasonID: &s.ID})
		if err != nil {
			return nil, fmt.Errorf("export episodes of season %d: %w", s.ID, err)
		}
		for _, ep := range eps {
			number := ep.EpisodeNumber
			episodes = append(episodes, Entry{
				Source:        s.Item.Source,
				MediaID:       s.Item.MediaID,
				MediaType:     library.MediaEpisode,
				Title:         s.Item.Title,
				SeasonNumber:  s.Item.SeasonNumber,
				EpisodeNumber: &number,
				WatchDate:     ep.WatchDate,
				Repeats:       ep.Repeats,
			})
		}
	}
	return append(out, episodes...), nil
}
