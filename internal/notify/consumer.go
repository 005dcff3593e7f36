package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

// messageReader is the subset of *kafka.Reader the consumer uses.
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// HandlerFunc processes one decoded event.
type HandlerFunc func(ctx context.Context, ev Event) error

// Consumer reads notification events as part of a consumer group.
type Consumer struct {
	reader messageReader
	log    *slog.Logger
}

// NewConsumer joins groupID on topic.
func NewConsumer(brokers []string, groupID, topic string, log *slog.Logger) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:           brokers,
		GroupID:           groupID,
		Topic:             topic,
		HeartbeatInterval: 3 * time.Second,
		SessionTimeout:    30 * time.Second,
	})
	return newConsumer(r, log)
}

func newConsumer(r messageReader, log *slog.Logger) *Consumer {
	if log == nil {
		log = slog.Default()
	}
	return &Consumer{reader: r, log: log}
}

// Consume fetches messages until ctx is cancelled. A message is committed
// only after handle succeeds, so delivery is at least once. Undecodable
// messages are logged and committed. A handler error stops consumption and
// is returned; the message will be redelivered.
func (c *Consumer) Consume(ctx context.Context, handle HandlerFunc) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return fmt.Errorf("notify.Consumer.Consume: fetch: %w", err)
		}

		var ev Event
		if err := json.Unmarshal(msg.Value, &ev); err != nil {
			c.log.WarnContext(ctx, "dropping undecodable notification",
				"topic", msg.Topic,
				"partition", msg.Partition,
				"offset", msg.Offset,
				"error", err,
			)
		} else if err := handle(ctx, ev); err != nil {
			return fmt.Errorf("notify.Consumer.Consume: handle %s: %w", ev.Type, err)
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			return fmt.Errorf("notify.Consumer.Consume: commit: %w", err)
		}
	}
}

// Close leaves the consumer group.
func (c *Consumer) Close() error {
	return c.reader.Close()
}
