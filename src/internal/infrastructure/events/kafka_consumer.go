package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

// MessageHandler processes one raw message. A returned error is treated as
// transient.
type MessageHandler func(ctx context.Context, body []byte) error

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaConsumer feeds inbound topics to a handler with at-least-once
// delivery: offsets are committed only after the handler returned.
type KafkaConsumer struct {
	reader     messageReader
	handler    MessageHandler
	log        *zap.Logger
	maxRetries uint64
	backoff    time.Duration
}

func NewKafkaConsumer(brokers []string, groupID string, topics []string, handler MessageHandler, log *zap.Logger) (*KafkaConsumer, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka consumer requires at least one broker")
	}
	if groupID == "" {
		return nil, fmt.Errorf("kafka consumer requires group id")
	}
	if len(topics) == 0 {
		return nil, fmt.Errorf("kafka consumer requires at least one topic")
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers,
		GroupID:     groupID,
		GroupTopics: topics,
		MinBytes:    1,
		MaxBytes:    10e6,
		MaxWait:     500 * time.Millisecond,
	})
	return newKafkaConsumer(reader, handler, log), nil
}

func newKafkaConsumer(reader messageReader, handler MessageHandler, log *zap.Logger) *KafkaConsumer {
	return &KafkaConsumer{
		reader:     reader,
		handler:    handler,
		log:        log,
		maxRetries: 5,
		backoff:    200 * time.Millisecond,
	}
}

// Run consumes until ctx is cancelled. A message that still fails after the
// retries is logged and committed so one bad message cannot stall its
// partition.
func (c *KafkaConsumer) Run(ctx context.Context) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("kafka fetch: %w", err)
		}

		if err := c.process(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.log.Error("inbound message failed, skipping",
				zap.String("topic", msg.Topic),
				zap.Int("partition", msg.Partition),
				zap.Int64("offset", msg.Offset),
				zap.Error(err),
			)
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("kafka commit: %w", err)
		}
	}
}

func (c *KafkaConsumer) process(ctx context.Context, msg kafka.Message) error {
	backoff := retry.WithMaxRetries(c.maxRetries, retry.NewExponential(c.backoff))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := c.handler(ctx, msg.Value); err != nil {
			c.log.Warn("inbound message attempt failed",
				zap.String("topic", msg.Topic),
				zap.Int64("offset", msg.Offset),
				zap.Error(err),
			)
			return retry.RetryableError(err)
		}
		return nil
	})
}

func (c *KafkaConsumer) Close() error {
	return c.reader.Close()
}
