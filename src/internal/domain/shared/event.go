package shared

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// DomainEvent is a fact raised by an aggregate and collected with PullEvents.
type DomainEvent interface {
	EventID() string
	EventType() string
	OccurredAt() time.Time
	AggregateID() string
}

// EventPublisher ships domain events out of the process. Implementations are
// invoked only after the originating transaction committed.
type EventPublisher interface {
	Publish(ctx context.Context, event DomainEvent) error
	PublishBatch(ctx context.Context, events []DomainEvent) error
}

// PayloadEvent is implemented by events that carry a body worth shipping to
// external consumers. Publishers fall back to the envelope alone otherwise.
type PayloadEvent interface {
	DomainEvent
	Payload() map[string]interface{}
}

// BaseEvent holds the envelope fields every event shares. Concrete events
// embed it and add their own payload.
type BaseEvent struct {
	eventID     string
	eventType   string
	occurredAt  time.Time
	aggregateID string
}

// NewBaseEvent stamps a fresh event id and the current time.
func NewBaseEvent(eventType, aggregateID string) BaseEvent {
	return BaseEvent{
		eventID:     uuid.New().String(),
		eventType:   eventType,
		occurredAt:  time.Now().UTC(),
		aggregateID: aggregateID,
	}
}

func (e BaseEvent) EventID() string       { return e.eventID }
func (e BaseEvent) EventType() string     { return e.eventType }
func (e BaseEvent) OccurredAt() time.Time { return e.occurredAt }
func (e BaseEvent) AggregateID() string   { return e.aggregateID }
