// Package kafka carries index notifications over segmentio/kafka-go. The
// index builder publishes JSON events and searchers consume them through a
// MessageHandler.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/KhaiTheTran/SystemsProgramming/pkg/config"
)

// MessageHandler processes one message. A nil return commits it.
type MessageHandler func(ctx context.Context, key []byte, value []byte) error

const (
	minFetchBackoff = 250 * time.Millisecond
	maxFetchBackoff = 30 * time.Second
)

// Consumer reads a topic as part of a consumer group and hands each message
// to its handler. Messages whose handler fails stay uncommitted.
type Consumer struct {
	reader    *kafka.Reader
	logger    *slog.Logger
	handler   MessageHandler
	closeOnce sync.Once
	closeErr  error
}

func NewConsumer(cfg config.KafkaConfig, topic string, handler MessageHandler) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:        cfg.Brokers,
			Topic:          topic,
			GroupID:        cfg.ConsumerGroup,
			MinBytes:       1,
			MaxBytes:       1 << 20,
			MaxWait:        time.Second,
			StartOffset:    kafka.LastOffset,
			CommitInterval: 0,
		}),
		logger:  slog.Default().With("component", "kafka-consumer", "topic", topic),
		handler: handler,
	}
}

// Start consumes until ctx is cancelled, then closes the reader. Fetch
// errors back off exponentially up to maxFetchBackoff.
func (c *Consumer) Start(ctx context.Context) error {
	defer c.Close()
	c.logger.Info("consumer started")

	backoff := time.Duration(0)
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info("consumer stopping", "reason", ctx.Err())
				return nil
			}
			backoff = nextBackoff(backoff)
			c.logger.Warn("fetch failed", "error", err, "retry_in", backoff)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(backoff):
			}
			continue
		}
		backoff = 0
		c.dispatch(ctx, msg)
	}
}

func (c *Consumer) dispatch(ctx context.Context, msg kafka.Message) {
	log := c.logger.With("partition", msg.Partition, "offset", msg.Offset, "key", string(msg.Key))
	log.Debug("message received", "type", eventType(msg), "bytes", len(msg.Value))

	if err := c.handler(ctx, msg.Key, msg.Value); err != nil {
		log.Error("handler failed, leaving message uncommitted", "error", err)
		return
	}
	if err := c.reader.CommitMessages(ctx, msg); err != nil {
		log.Error("commit failed", "error", err)
	}
}

// Close closes the reader. It is safe to call more than once.
func (c *Consumer) Close() error {
	c.closeOnce.Do(func() { c.closeErr = c.reader.Close() })
	return c.closeErr
}

func nextBackoff(d time.Duration) time.Duration {
	if d < minFetchBackoff {
		return minFetchBackoff
	}
	d *= 2
	if d > maxFetchBackoff {
		return maxFetchBackoff
	}
	return d
}

// DecodeJSON unmarshals a message value into T.
func DecodeJSON[T any](value []byte) (T, error) {
	var v T
	if err := json.Unmarshal(value, &v); err != nil {
		return v, fmt.Errorf("decoding kafka message: %w", err)
	}
	return v, nil
}
