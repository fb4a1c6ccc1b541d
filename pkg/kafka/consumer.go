// Package kafka streams JSON records through segmentio/kafka-go. Producers
// batch and zstd-compress records; consumers hand each decoded record to a
// typed callback and commit once it has been applied.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Passage-Ranking-Platform/pkg/config"
	"github.com/segmentio/kafka-go"
)

// ErrMalformed marks a message that can never be applied. The consumer
// commits past it instead of waiting for redelivery.
var ErrMalformed = errors.New("malformed kafka message")

// MessageHandler applies one raw message.
type MessageHandler func(ctx context.Context, key, value []byte) error

// JSON adapts a typed callback into a MessageHandler. Values that do not
// decode into T are reported as ErrMalformed.
func JSON[T any](apply func(ctx context.Context, key string, record T) error) MessageHandler {
	return func(ctx context.Context, key, value []byte) error {
		var record T
		if err := json.Unmarshal(value, &record); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return apply(ctx, string(key), record)
	}
}

// Consumer reads one topic as part of a consumer group.
type Consumer struct {
	reader  *kafka.Reader
	handler MessageHandler
	backoff time.Duration
	logger  *slog.Logger
}

// NewConsumer joins cfg.ConsumerGroup on topic. A group that has never
// committed starts from the newest offset.
func NewConsumer(cfg config.KafkaConfig, topic string, handler MessageHandler) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:     cfg.Brokers,
			Topic:       topic,
			GroupID:     cfg.ConsumerGroup,
			MinBytes:    1,
			MaxBytes:    4 << 20,
			MaxWait:     500 * time.Millisecond,
			StartOffset: kafka.LastOffset,
		}),
		handler: handler,
		backoff: time.Second,
		logger:  slog.Default().With("component", "kafka-consumer", "topic", topic),
	}
}

// Start consumes until ctx is cancelled and then closes the reader.
func (c *Consumer) Start(ctx context.Context) error {
	defer c.reader.Close()
	c.logger.Info("consumer started")
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if ctx.Err() != nil {
			c.logger.Info("consumer stopping", "reason", ctx.Err())
			return nil
		}
		if err != nil {
			c.logger.Error("fetch failed", "error", err, "retry_in", c.backoff)
			if !sleep(ctx, c.backoff) {
				return nil
			}
			continue
		}
		c.apply(ctx, msg)
	}
}

func (c *Consumer) apply(ctx context.Context, msg kafka.Message) {
	log := c.logger.With("partition", msg.Partition, "offset", msg.Offset)
	err := c.handler(ctx, msg.Key, msg.Value)
	switch {
	case errors.Is(err, ErrMalformed):
		log.Warn("skipping malformed message", "error", err)
	case err != nil:
		// Left uncommitted; the group redelivers it after a rebalance.
		log.Error("handler failed", "error", err)
		return
	}
	if err := c.reader.CommitMessages(ctx, msg); err != nil {
		log.Error("commit failed", "error", err)
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
