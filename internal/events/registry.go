package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
)

// ErrUnknownType is returned when a stored event type has no registration.
var ErrUnknownType = errors.New("unknown event type")

// Registry turns stored history rows back into typed events.
type Registry struct {
	types map[string]func() Event
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{types: map[string]func() Event{}}
}

// Register binds eventType to a constructor for its zero value.
func (r *Registry) Register(eventType string, newEvent func() Event) {
	r.types[eventType] = newEvent
}

// Types lists the registered event types in sorted order.
func (r *Registry) Types() []string {
	return slices.Sorted(maps.Keys(r.types))
}

// Known reports whether eventType is registered.
func (r *Registry) Known(eventType string) bool {
	_, ok := r.types[eventType]
	return ok
}

// Unmarshal decodes raw into its registered type.
func (r *Registry) Unmarshal(raw RawEvent) (Event, error) {
	newEvent, ok := r.types[raw.EventType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, raw.EventType)
	}
	e := newEvent()
	if err := json.Unmarshal([]byte(raw.Payload), e); err != nil {
		return nil, fmt.Errorf("decode %s #%d: %w", raw.EventType, raw.ID, err)
	}
	return e, nil
}

// Summary is the one-line history text for raw. Rows that cannot be
// decoded fall back to their entity reference.
func (r *Registry) Summary(raw RawEvent) string {
	if e, err := r.Unmarshal(raw); err == nil {
		if d, ok := e.(Describer); ok {
			return d.Describe()
		}
	}
	return fmt.Sprintf("%s %d", raw.EntityType, raw.EntityID)
}

// DefaultRegistry knows every event trackarr publishes.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(EventRecordTracked, func() Event { return new(RecordTracked) })
	r.Register(EventRecordStatusChanged, func() Event { return new(RecordStatusChanged) })
	r.Register(EventRecordProgressChanged, func() Event { return new(RecordProgressChanged) })
	r.Register(EventRecordDeleted, func() Event { return new(RecordDeleted) })
	r.Register(EventEpisodeWatched, func() Event { return new(EpisodeWatched) })
	r.Register(EventEpisodeUnwatched, func() Event { return new(EpisodeUnwatched) })
	r.Register(EventSeasonCompleted, func() Event { return new(SeasonCompleted) })
	r.Register(EventTVCompleted, func() Event { return new(TVCompleted) })
	r.Register(EventImportFinished, func() Event { return new(ImportFinished) })
	return r
}
