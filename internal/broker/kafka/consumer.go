package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
)

// ErrSkip marks a message that can never be applied. Consume logs and
// commits it instead of stopping, so it does not block the partition.
var ErrSkip = errors.New("skip message")

// Skip wraps err so that Consume commits the message past it.
func Skip(err error) error {
	return fmt.Errorf("%w: %w", ErrSkip, err)
}

// Handler processes one message. Returning an error wrapping ErrSkip
// commits the message; any other error stops Consume without committing.
type Handler func(ctx context.Context, key, value []byte) error

// JSONHandler decodes each value into T before calling fn. Values that
// do not decode are skipped.
func JSONHandler[T any](fn func(ctx context.Context, v T) error) Handler {
	return func(ctx context.Context, _ []byte, value []byte) error {
		var v T
		if err := json.Unmarshal(value, &v); err != nil {
			return Skip(errors.Wrap(err, "decode message"))
		}
		return fn(ctx, v)
	}
}

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer reads package status updates with at-least-once delivery.
type Consumer struct {
	r messageReader
}

func NewConsumer(brokers []string, topic, groupID string) *Consumer {
	cfg := kafka.ReaderConfig{
		Brokers:           brokers,
		GroupID:           groupID,
		HeartbeatInterval: 3 * time.Second,
		SessionTimeout:    30 * time.Second,
	}
	if groupID != "" {
		cfg.GroupTopics = []string{topic}
	} else {
		cfg.Topic = topic
	}
	return &Consumer{r: kafka.NewReader(cfg)}
}

func newConsumerWithReader(r messageReader) *Consumer {
	return &Consumer{r: r}
}

func (c *Consumer) Close() error {
	return c.r.Close()
}

// Consume runs h for every message until ctx is done or h fails.
func (c *Consumer) Consume(ctx context.Context, h Handler) error {
	for {
		msg, err := c.r.FetchMessage(ctx)
		if err != nil {
			return errors.Wrap(err, "fetch message")
		}
		if err := h(ctx, msg.Key, msg.Value); err != nil {
			if !errors.Is(err, ErrSkip) {
				// uncommitted, the message is redelivered after restart
				return err
			}
			slog.Warn("skip kafka message",
				"topic", msg.Topic,
				"partition", msg.Partition,
				"offset", msg.Offset,
				"error", err.Error(),
			)
		}
		if err := c.r.CommitMessages(ctx, msg); err != nil {
			return errors.Wrap(err, "commit message")
		}
	}
}
