package events

import (
	"context"
	"slices"
	"sync"

	"github.com/rs/zerolog"
)

// Filter selects the events a subscriber receives. Zero fields match
// everything.
type Filter struct {
	Types      []string
	UserID     int64
	EntityType string
	EntityID   int64
}

// Match reports whether e passes the filter.
func (f Filter) Match(e Event) bool {
	if len(f.Types) > 0 && !slices.Contains(f.Types, e.EventType()) {
		return false
	}
	if f.UserID != 0 && e.UserID() != f.UserID {
		return false
	}
	if f.EntityType != "" && e.EntityType() != f.EntityType {
		return false
	}
	return f.EntityID == 0 || e.EntityID() == f.EntityID
}

type subscriber struct {
	ch     chan Event
	filter Filter
}

// Bus records tracking events in the history log and fans them out to
// in-process subscribers.
type Bus struct {
	mu     sync.RWMutex
	subs   []subscriber
	log    *EventLog
	logger zerolog.Logger
	closed bool
}

// NewBus creates a bus backed by log. A nil log keeps events in memory only
// and a nil logger discards diagnostics.
func NewBus(log *EventLog, logger *zerolog.Logger) *Bus {
	l := zerolog.Nop()
	if logger != nil {
		l = logger.With().Str("component", "events").Logger()
	}
	return &Bus{log: log, logger: l}
}

// Publish writes e to the history log, then hands it to every matching
// subscriber without blocking. A full subscriber misses the event. The
// history write error is returned after delivery.
func (b *Bus) Publish(_ context.Context, e Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil
	}

	var err error
	if b.log != nil {
		_, err = b.log.Append(e)
	}

	for _, s := range b.subs {
		if !s.filter.Match(e) {
			continue
		}
		select {
		case s.ch <- e:
		default:
			b.logger.Warn().
				Str("type", e.EventType()).
				Str("entity_type", e.EntityType()).
				Int64("entity_id", e.EntityID()).
				Msg("subscriber behind, event dropped")
		}
	}
	return err
}

// Subscribe returns a buffered channel receiving the events that match f.
// The channel is closed by Unsubscribe or Close.
func (b *Bus) Subscribe(f Filter, bufferSize int) <-chan Event {
	ch := make(chan Event, bufferSize)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch
	}
	b.subs = append(b.subs, subscriber{ch: ch, filter: f})
	return ch
}

// SubscribeAll returns a channel receiving every event.
func (b *Bus) SubscribeAll(bufferSize int) <-chan Event {
	return b.Subscribe(Filter{}, bufferSize)
}

// SubscribeUser returns a channel receiving one user's events.
func (b *Bus) SubscribeUser(userID int64, bufferSize int) <-chan Event {
	return b.Subscribe(Filter{UserID: userID}, bufferSize)
}

// Unsubscribe detaches and closes ch. Unknown channels are ignored.
func (b *Bus) Unsubscribe(ch <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	i := slices.IndexFunc(b.subs, func(s subscriber) bool { return s.ch == ch })
	if i < 0 {
		return
	}
	close(b.subs[i].ch)
	b.subs = slices.Delete(b.subs, i, i+1)
}

// Close closes every subscriber channel. Later publishes are no-ops.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	for _, s := range b.subs {
		close(s.ch)
	}
	b.subs = nil
	return nil
}
