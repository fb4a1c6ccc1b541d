// Package analytics records what the passage service answered. The search
// handler tracks one PassageEvent per request; a Collector ships them to
// Kafka in batches and an Aggregator folds them into running statistics.
package analytics

import "time"

type PassageEvent struct {
	Query      string    `json:"query"`
	Field      string    `json:"field"`
	Terms      []string  `json:"terms"`
	Candidates int       `json:"candidates"`
	Returned   int       `json:"returned"`
	TopScore   float64   `json:"top_score"`
	Partial    bool      `json:"partial"`
	CacheHit   bool      `json:"cache_hit"`
	LatencyMs  int64     `json:"latency_ms"`
	Timestamp  time.Time `json:"timestamp"`
	RequestID  string    `json:"request_id,omitempty"`
}

// Tracker accepts events without blocking the caller.
type Tracker interface {
	Track(event PassageEvent)
}
