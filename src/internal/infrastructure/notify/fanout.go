package notify

import (
	"context"

	"github.com/fortyseven/affiliate_ledger/src/internal/application/notification"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Fanout delivers every message on all channels. One failing channel does
// not stop the others; their errors are combined.
type Fanout struct {
	channels []notification.Notifier
}

func NewFanout(channels ...notification.Notifier) *Fanout {
	return &Fanout{channels: channels}
}

func (f *Fanout) Notify(ctx context.Context, msg notification.Message) error {
	var err error
	for _, ch := range f.channels {
		err = multierr.Append(err, ch.Notify(ctx, msg))
	}
	return err
}

// Log writes messages to the application log.
type Log struct {
	log *zap.Logger
}

func NewLog(log *zap.Logger) *Log {
	return &Log{log: log}
}

func (l *Log) Notify(_ context.Context, msg notification.Message) error {
	l.log.Info("notification",
		zap.String("kind", string(msg.Kind)),
		zap.String("recipient", recipientLabel(msg.Recipient)),
		zap.String("subject", msg.Subject),
	)
	return nil
}

func recipientLabel(r notification.Recipient) string {
	switch {
	case r.Email != "":
		return r.Email
	case r.ExternalUserID != "":
		return r.ExternalUserID
	default:
		return r.Name
	}
}
