package uow

import (
	"context"

	"github.com/fortyseven/affiliate_ledger/src/internal/application/notification"
	"github.com/fortyseven/affiliate_ledger/src/internal/domain/shared"
	"go.uber.org/zap"
)

// Dispatcher ships the side effects of a committed unit of work. Failures
// are logged and swallowed: the ledger state is already durable and must not
// be reported as failed because a downstream system is unavailable.
type Dispatcher struct {
	publisher shared.EventPublisher
	notifier  notification.Notifier
	log       *zap.Logger
}

// NewDispatcher wires the publisher and notifier. Nil arguments fall back to
// no-op implementations.
func NewDispatcher(publisher shared.EventPublisher, notifier notification.Notifier, log *zap.Logger) *Dispatcher {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	if notifier == nil {
		notifier = notification.Nop{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{publisher: publisher, notifier: notifier, log: log}
}

// Publish sends events to the event bus.
func (d *Dispatcher) Publish(ctx context.Context, op string, events []shared.DomainEvent) {
	if len(events) == 0 {
		return
	}
	if err := d.publisher.PublishBatch(ctx, events); err != nil {
		d.log.Warn("event publish failed",
			zap.String("operation", op),
			zap.String("aggregate_id", events[0].AggregateID()),
			zap.Int("events", len(events)),
			zap.Error(err),
		)
	}
}

// Notify delivers msgs one by one.
func (d *Dispatcher) Notify(ctx context.Context, op string, msgs ...notification.Message) {
	for _, msg := range msgs {
		if err := d.notifier.Notify(ctx, msg); err != nil {
			d.log.Warn("notification failed",
				zap.String("operation", op),
				zap.String("kind", string(msg.Kind)),
				zap.String("external_user_id", msg.Recipient.ExternalUserID),
				zap.String("email", msg.Recipient.Email),
				zap.Error(err),
			)
		}
	}
}

// NopPublisher discards events.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, shared.DomainEvent) error        { return nil }
func (NopPublisher) PublishBatch(context.Context, []shared.DomainEvent) error { return nil }
