package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Passage-Ranking-Platform/pkg/config"
	"github.com/segmentio/kafka-go"
)

// Record is one keyed message. Records sharing a Key land on the same
// partition; Value is encoded as JSON.
type Record struct {
	Key   string
	Value any
}

// Producer writes JSON records to a single topic.
type Producer struct {
	topic  string
	writer *kafka.Writer
	logger *slog.Logger
}

// NewProducer builds a batching writer for topic. Leader-only acks are
// enough for analytics traffic.
func NewProducer(cfg config.KafkaConfig, topic string) *Producer {
	return &Producer{
		topic: topic,
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			Compression:  kafka.Zstd,
			BatchSize:    200,
			BatchTimeout: 20 * time.Millisecond,
			MaxAttempts:  3,
			RequiredAcks: kafka.RequireOne,
		},
		logger: slog.Default().With("component", "kafka-producer", "topic", topic),
	}
}

// Topic reports the topic this producer writes to.
func (p *Producer) Topic() string { return p.topic }

// PublishBatch encodes records and writes them in one call. Nothing is
// written if any record fails to encode.
func (p *Producer) PublishBatch(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	msgs, err := encode(records)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		p.logger.Error("publish failed", "records", len(msgs), "error", err)
		return fmt.Errorf("publishing %d records to %s: %w", len(msgs), p.topic, err)
	}
	p.logger.Debug("published", "records", len(msgs))
	return nil
}

func encode(records []Record) ([]kafka.Message, error) {
	msgs := make([]kafka.Message, len(records))
	for i, rec := range records {
		value, err := json.Marshal(rec.Value)
		if err != nil {
			return nil, fmt.Errorf("encoding record %q: %w", rec.Key, err)
		}
		msgs[i] = kafka.Message{Key: []byte(rec.Key), Value: value}
	}
	return msgs, nil
}

// Close flushes buffered records.
func (p *Producer) Close() error {
	return p.writer.Close()
}
