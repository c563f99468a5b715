// Package events ships domain events to Kafka and consumes inbound business
// events from it.
package events

import (
	"encoding/json"
	"time"

	"github.com/fortyseven/affiliate_ledger/src/internal/domain/shared"
)

// Envelope is the outbound wire format.
type Envelope struct {
	EventID     string                 `json:"event_id"`
	EventType   string                 `json:"event_type"`
	AggregateID string                 `json:"aggregate_id"`
	OccurredAt  time.Time              `json:"occurred_at"`
	Payload     map[string]interface{} `json:"payload,omitempty"`
}

// NewEnvelope copies the envelope fields and, when the event carries one, its payload.
func NewEnvelope(event shared.DomainEvent) Envelope {
	env := Envelope{
		EventID:     event.EventID(),
		EventType:   event.EventType(),
		AggregateID: event.AggregateID(),
		OccurredAt:  event.OccurredAt().UTC(),
	}
	if p, ok := event.(shared.PayloadEvent); ok {
		env.Payload = p.Payload()
	}
	return env
}

func encode(event shared.DomainEvent) ([]byte, error) {
	return json.Marshal(NewEnvelope(event))
}
