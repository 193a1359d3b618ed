package events

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmunix/trackarr/internal/testutil"
)

func tracked(recordID, userID int64, title string) *RecordTracked {
	return &RecordTracked{
		BaseEvent: NewBaseEvent(EventRecordTracked, EntityRecord, recordID, userID),
		ItemID:    recordID + 100,
		MediaType: "movie",
		Title:     title,
		Status:    "Planning",
	}
}

func watched(seasonID, userID int64, episode int) *EpisodeWatched {
	return &EpisodeWatched{
		BaseEvent:     NewBaseEvent(EventEpisodeWatched, EntitySeason, seasonID, userID),
		SeasonID:      seasonID,
		Title:         "Severance",
		SeasonNumber:  1,
		EpisodeNumber: episode,
	}
}

func appendAll(t *testing.T, log *EventLog, evs ...Event) {
	t.Helper()
	for _, e := range evs {
		_, err := log.Append(e)
		require.NoError(t, err)
	}
}

func TestEventLog_AppendStoresPayload(t *testing.T) {
	log := NewEventLog(testutil.NewTestDB(t))

	id, err := log.Append(tracked(7, 3, "Arrival"))
	require.NoError(t, err)
	assert.Positive(t, id)

	got, err := log.Find(Query{EntityType: EntityRecord, EntityID: 7})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, id, got[0].ID)
	assert.Equal(t, EventRecordTracked, got[0].EventType)
	assert.Equal(t, int64(3), got[0].UserID)
	assert.Contains(t, got[0].Payload, `"title":"Arrival"`)
	assert.Contains(t, got[0].Payload, `"item_id":107`)
}

func TestEventLog_Find(t *testing.T) {
	log := NewEventLog(testutil.NewTestDB(t))
	appendAll(t, log,
		tracked(1, 1, "Dune"),
		watched(10, 1, 1),
		watched(10, 1, 2),
		watched(11, 2, 1),
		tracked(2, 2, "Alien"),
	)

	t.Run("by user in insertion order", func(t *testing.T) {
		got, err := log.Find(Query{UserID: 1})
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, EventRecordTracked, got[0].EventType)
		assert.Equal(t, EventEpisodeWatched, got[2].EventType)
	})

	t.Run("by type", func(t *testing.T) {
		got, err := log.Find(Query{Types: []string{EventRecordTracked}})
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("by several types and user", func(t *testing.T) {
		got, err := log.Find(Query{UserID: 2, Types: []string{EventRecordTracked, EventEpisodeWatched}})
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("by season", func(t *testing.T) {
		got, err := log.Find(Query{EntityType: EntitySeason, EntityID: 10})
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("newest first with limit", func(t *testing.T) {
		got, err := log.Find(Query{Newest: true, Limit: 2})
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, int64(2), got[0].EntityID)
		assert.Equal(t, int64(11), got[1].EntityID)
	})

	t.Run("since excludes older", func(t *testing.T) {
		got, err := log.Find(Query{Since: time.Now().Add(time.Hour)})
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestEventLog_ForUser(t *testing.T) {
	log := NewEventLog(testutil.NewTestDB(t))
	for i := int64(1); i <= 5; i++ {
		appendAll(t, log, tracked(i, 1, fmt.Sprintf("Movie %d", i)))
	}
	appendAll(t, log, tracked(99, 2, "Someone else's"))

	got, err := log.ForUser(1, 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []int64{5, 4, 3}, []int64{got[0].EntityID, got[1].EntityID, got[2].EntityID})

	all, err := log.ForUser(1, 0)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestEventLog_Prune(t *testing.T) {
	db := testutil.NewTestDB(t)
	log := NewEventLog(db)

	old := watched(10, 1, 1)
	old.Timestamp = time.Now().Add(-100 * 24 * time.Hour)
	appendAll(t, log, old, watched(10, 1, 2))

	n, err := log.Prune(90 * 24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	left, err := log.ForUser(1, 0)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Contains(t, left[0].Payload, `"episode_number":2`)
}
