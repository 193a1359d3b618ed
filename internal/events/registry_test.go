package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmunix/trackarr/internal/testutil"
)

func TestDefaultRegistry_DecodesEveryStoredEvent(t *testing.T) {
	log := NewEventLog(testutil.NewTestDB(t))
	published := []Event{
		tracked(1, 1, "Dune"),
		&RecordStatusChanged{BaseEvent: NewBaseEvent(EventRecordStatusChanged, EntityRecord, 1, 1), Title: "Cowboy Bebop", OldStatus: "Repeating", NewStatus: "Completed", Repeats: 2},
		&RecordProgressChanged{BaseEvent: NewBaseEvent(EventRecordProgressChanged, EntityRecord, 1, 1), Title: "Dune", OldProgress: 0, NewProgress: 1},
		&RecordDeleted{BaseEvent: NewBaseEvent(EventRecordDeleted, EntityRecord, 1, 1), MediaType: "movie", Title: "Dune"},
		watched(10, 1, 4),
		&EpisodeUnwatched{BaseEvent: NewBaseEvent(EventEpisodeUnwatched, EntitySeason, 10, 1), Title: "Severance", SeasonNumber: 1, EpisodeNumber: 4, Removed: true},
		&SeasonCompleted{BaseEvent: NewBaseEvent(EventSeasonCompleted, EntitySeason, 10, 1), Title: "Severance", SeasonNumber: 1, EpisodesAdded: 9},
		&TVCompleted{BaseEvent: NewBaseEvent(EventTVCompleted, EntityRecord, 9, 1), Title: "Severance", SeasonsCompleted: 2, EpisodesAdded: 19},
		&ImportFinished{BaseEvent: NewBaseEvent(EventImportFinished, EntityImport, 0, 1), BatchID: "b1", Format: "csv", Imported: 3},
	}
	appendAll(t, log, published...)

	reg := DefaultRegistry()
	assert.Len(t, reg.Types(), len(published))

	raw, err := log.Find(Query{UserID: 1})
	require.NoError(t, err)
	require.Len(t, raw, len(published))
	for i, r := range raw {
		t.Run(r.EventType, func(t *testing.T) {
			e, err := reg.Unmarshal(r)
			require.NoError(t, err)
			assert.Equal(t, published[i].EventType(), e.EventType())
			assert.True(t, published[i].OccurredAt().Equal(e.OccurredAt()))
			assert.Equal(t, published[i].(Describer).Describe(), reg.Summary(r))
		})
	}
}

func TestRegistry_UnmarshalEpisodeWatched(t *testing.T) {
	raw := RawEvent{
		EventType: EventEpisodeWatched,
		Payload:   `{"type":"episode.watched","entity_type":"season","entity_id":3,"user_id":1,"occurred_at":"2024-01-01T00:00:00Z","season_id":3,"title":"Severance","season_number":1,"episode_number":4,"repeats":1}`,
	}

	e, err := DefaultRegistry().Unmarshal(raw)
	require.NoError(t, err)
	ep, ok := e.(*EpisodeWatched)
	require.True(t, ok)
	assert.Equal(t, int64(3), ep.SeasonID)
	assert.Equal(t, `watched "Severance" S01E04 (repeat 1)`, ep.Describe())
}

func TestRegistry_Failures(t *testing.T) {
	reg := NewRegistry()
	reg.Register(EventRecordTracked, func() Event { return new(RecordTracked) })

	_, err := reg.Unmarshal(RawEvent{EventType: "record.renamed", Payload: `{}`})
	assert.ErrorIs(t, err, ErrUnknownType)

	bad := RawEvent{ID: 5, EventType: EventRecordTracked, EntityType: EntityRecord, EntityID: 8, Payload: `{broken`}
	_, err = reg.Unmarshal(bad)
	assert.ErrorContains(t, err, "decode record.tracked #5")
	assert.Equal(t, "record 8", reg.Summary(bad))
}

func TestRegistry_Types(t *testing.T) {
	reg := DefaultRegistry()
	types := reg.Types()
	assert.IsNonDecreasing(t, types)
	assert.True(t, reg.Known(EventSeasonCompleted))
	assert.False(t, reg.Known("season.renamed"))
}
