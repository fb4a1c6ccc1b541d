// Package resilience retries startup probes against the optional backends
// (postgres, redis) with jittered exponential backoff.
package resilience

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"
)

// RetryConfig shapes the backoff. Zero fields take the defaults.
type RetryConfig struct {
	MaxAttempts    int
	InitialDelay   time.Duration
	MaxDelay       time.Duration
	Multiplier     float64
	JitterFraction float64
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:    5,
		InitialDelay:   200 * time.Millisecond,
		MaxDelay:       5 * time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.1,
	}
}

func (c RetryConfig) normalized() RetryConfig {
	d := DefaultRetryConfig()
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = d.MaxAttempts
	}
	if c.InitialDelay <= 0 {
		c.InitialDelay = d.InitialDelay
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = d.MaxDelay
	}
	if c.Multiplier <= 0 {
		c.Multiplier = d.Multiplier
	}
	c.JitterFraction = max(c.JitterFraction, 0)
	return c
}

// delay is the pause after the given failed attempt, capped at MaxDelay.
func (c RetryConfig) delay(attempt int) time.Duration {
	d := float64(c.InitialDelay)
	for range attempt - 1 {
		d *= c.Multiplier
		if d >= float64(c.MaxDelay) {
			break
		}
	}
	if c.JitterFraction > 0 {
		d += d * c.JitterFraction * (2*rand.Float64() - 1)
	}
	return min(time.Duration(d), c.MaxDelay)
}

// Retry runs probe until it succeeds, the attempts run out or ctx ends.
// The last probe error is wrapped in the returned error.
func Retry(ctx context.Context, name string, cfg RetryConfig, probe func(ctx context.Context) error) error {
	cfg = cfg.normalized()
	log := slog.Default().With("component", "retry", "operation", name)

	var err error
	for attempt := 1; ; attempt++ {
		if err = probe(ctx); err == nil {
			if attempt > 1 {
				log.Info("recovered", "attempt", attempt)
			}
			return nil
		}
		if attempt == cfg.MaxAttempts {
			return fmt.Errorf("%s failed after %d attempts: %w", name, attempt, err)
		}
		wait := cfg.delay(attempt)
		log.Warn("attempt failed", "attempt", attempt, "of", cfg.MaxAttempts, "error", err, "retry_in", wait)

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return fmt.Errorf("%s abandoned: %w", name, ctx.Err())
		case <-t.C:
		}
	}
}
