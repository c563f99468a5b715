package events

import (
	"context"

	"github.com/fortyseven/affiliate_ledger/src/internal/domain/shared"
	"go.uber.org/zap"
)

// LogPublisher records events in the application log. Used when no broker
// is configured.
type LogPublisher struct {
	log *zap.Logger
}

func NewLogPublisher(log *zap.Logger) *LogPublisher {
	return &LogPublisher{log: log}
}

func (p *LogPublisher) Publish(_ context.Context, event shared.DomainEvent) error {
	p.log.Info("domain event",
		zap.String("event_id", event.EventID()),
		zap.String("event_type", event.EventType()),
		zap.String("aggregate_id", event.AggregateID()),
		zap.Time("occurred_at", event.OccurredAt()),
	)
	return nil
}

func (p *LogPublisher) PublishBatch(ctx context.Context, events []shared.DomainEvent) error {
	for _, event := range events {
		_ = p.Publish(ctx, event)
	}
	return nil
}
