package analytics

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Passage-Ranking-Platform/pkg/kafka"
)

// Publisher is the Kafka side of the collector; *kafka.Producer satisfies it.
type Publisher interface {
	PublishBatch(ctx context.Context, events []kafka.Record) error
}

type CollectorConfig struct {
	BufferSize    int
	BatchSize     int
	FlushInterval time.Duration
}

// Collector buffers events and publishes them in batches of BatchSize or
// every FlushInterval, whichever comes first. Events are dropped when the
// buffer is full.
type Collector struct {
	publisher Publisher
	cfg       CollectorConfig
	eventCh   chan PassageEvent
	logger    *slog.Logger

	mu      sync.RWMutex
	closed  bool
	started bool
	done    chan struct{}
}

func NewCollector(publisher Publisher, cfg CollectorConfig) *Collector {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 10000
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = time.Second
	}
	return &Collector{
		publisher: publisher,
		cfg:       cfg,
		eventCh:   make(chan PassageEvent, cfg.BufferSize),
		logger:    slog.Default().With("component", "analytics-collector"),
		done:      make(chan struct{}),
	}
}

func (c *Collector) Start(ctx context.Context) {
	c.mu.Lock()
	c.started = true
	c.mu.Unlock()

	go func() {
		defer close(c.done)
		ticker := time.NewTicker(c.cfg.FlushInterval)
		defer ticker.Stop()

		batch := make([]kafka.Record, 0, c.cfg.BatchSize)
		flush := func(ctx context.Context) {
			if len(batch) == 0 {
				return
			}
			if err := c.publisher.PublishBatch(ctx, batch); err != nil {
				c.logger.Error("failed to publish analytics batch", "count", len(batch), "error", err)
			}
			batch = batch[:0]
		}

		for {
			select {
			case event, ok := <-c.eventCh:
				if !ok {
					flush(context.Background())
					return
				}
				batch = append(batch, kafka.Record{Key: event.Query, Value: event})
				if len(batch) >= c.cfg.BatchSize {
					flush(ctx)
				}
			case <-ticker.C:
				flush(ctx)
			case <-ctx.Done():
				c.drain(&batch)
				flush(context.Background())
				return
			}
		}
	}()
	c.logger.Info("analytics collector started",
		"buffer_size", c.cfg.BufferSize,
		"batch_size", c.cfg.BatchSize,
	)
}

func (c *Collector) drain(batch *[]kafka.Record) {
	for {
		select {
		case event, ok := <-c.eventCh:
			if !ok {
				return
			}
			*batch = append(*batch, kafka.Record{Key: event.Query, Value: event})
		default:
			return
		}
	}
}

func (c *Collector) Track(event PassageEvent) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return
	}
	select {
	case c.eventCh <- event:
	default:
		c.logger.Warn("analytics event dropped (buffer full)")
	}
}

// Close stops accepting events and waits for the pending batch to be
// published.
func (c *Collector) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.eventCh)
	started := c.started
	c.mu.Unlock()
	if started {
		<-c.done
	}
}
