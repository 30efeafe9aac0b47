// Package events provides a lightweight in-process event stream for task
// mutations. Services publish events without knowledge of their consumers;
// the server registers handlers (currently an audit logger) at startup.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EventType identifies what happened to a task.
type EventType string

const (
	TaskCreated EventType = "task.created"
	TaskUpdated EventType = "task.updated"
	TaskDeleted EventType = "task.deleted"
)

// Event records one task mutation by one user.
type Event struct {
	ID         uuid.UUID `json:"id"`
	Type       EventType `json:"type"`
	UserID     uuid.UUID `json:"user_id"`
	TaskID     uuid.UUID `json:"task_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewTaskEvent creates an event for a task mutation, stamped with a fresh
// ID and the current time.
func NewTaskEvent(eventType EventType, userID, taskID uuid.UUID) *Event {
	return &Event{
		ID:         uuid.New(),
		Type:       eventType,
		UserID:     userID,
		TaskID:     taskID,
		OccurredAt: time.Now().UTC(),
	}
}

// Handler processes published events.
type Handler interface {
	// HandleEvent processes the given event within the provided context.
	// Returns an error if the event cannot be handled successfully.
	HandleEvent(ctx context.Context, event *Event) error
}

// Emitter publishes events to registered handlers.
type Emitter interface {
	// Emit publishes the given event to all registered handlers.
	// Returns an error if any handler failed to process the event.
	Emit(ctx context.Context, event *Event) error
}
