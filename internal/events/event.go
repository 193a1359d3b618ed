// Package events records what happened to a user's library. Every change the
// tracking engine commits becomes an Event, stored in the history log and
// fanned out on the Bus.
package events

import "time"

// Event is a committed library change.
type Event interface {
	EventType() string
	// EntityType is one of the Entity* constants.
	EntityType() string
	EntityID() int64
	UserID() int64
	OccurredAt() time.Time
}

// BaseEvent carries the envelope fields shared by every event and is
// embedded in each concrete type.
type BaseEvent struct {
	Type      string    `json:"type"`
	Entity    string    `json:"entity_type"`
	ID        int64     `json:"entity_id"`
	User      int64     `json:"user_id"`
	Timestamp time.Time `json:"occurred_at"`
}

func (e BaseEvent) EventType() string     { return e.Type }
func (e BaseEvent) EntityType() string    { return e.Entity }
func (e BaseEvent) EntityID() int64       { return e.ID }
func (e BaseEvent) UserID() int64         { return e.User }
func (e BaseEvent) OccurredAt() time.Time { return e.Timestamp }

// NewBaseEvent stamps an envelope with the current UTC time.
func NewBaseEvent(eventType, entityType string, entityID, userID int64) BaseEvent {
	return BaseEvent{Type: eventType, Entity: entityType, ID: entityID, User: userID, Timestamp: time.Now().UTC()}
}
