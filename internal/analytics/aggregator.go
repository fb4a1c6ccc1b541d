package analytics

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Passage-Ranking-Platform/pkg/kafka"
)

const (
	latencyWindow = 10000
	defaultTop    = 10
	maxTop        = 100
)

type AggregatedStats struct {
	TotalQueries       int64        `json:"total_queries"`
	CacheHits          int64        `json:"cache_hits"`
	CacheMisses        int64        `json:"cache_misses"`
	PartialCount       int64        `json:"partial_count"`
	ZeroPassageCount   int64        `json:"zero_passage_count"`
	AvgCandidates      float64      `json:"avg_candidates"`
	AvgLatencyMs       float64      `json:"avg_latency_ms"`
	P50LatencyMs       int64        `json:"p50_latency_ms"`
	P95LatencyMs       int64        `json:"p95_latency_ms"`
	P99LatencyMs       int64        `json:"p99_latency_ms"`
	TopQueries         []QueryCount `json:"top_queries"`
	ZeroPassageQueries []QueryCount `json:"zero_passage_queries"`
	QueriesPerMinute   float64      `json:"queries_per_minute"`
}

type QueryCount struct {
	Query string `json:"query"`
	Count int64  `json:"count"`
}

// Aggregator folds passage events into running totals. Latency percentiles
// cover the most recent latencyWindow events.
type Aggregator struct {
	mu               sync.RWMutex
	totalQueries     int64
	cacheHits        int64
	partial          int64
	zeroPassages     int64
	totalCandidates  int64
	latencies        []int64
	next             int
	queryCounts      map[string]int64
	zeroPassageCount map[string]int64
	startTime        time.Time
	now              func() time.Time

	logger *slog.Logger
}

func NewAggregator() *Aggregator {
	return &Aggregator{
		latencies:        make([]int64, 0, latencyWindow),
		queryCounts:      make(map[string]int64),
		zeroPassageCount: make(map[string]int64),
		startTime:        time.Now(),
		now:              time.Now,
		logger:           slog.Default().With("component", "analytics-aggregator"),
	}
}

// Consume feeds the aggregator from a Kafka topic until ctx is cancelled.
func (a *Aggregator) Consume(ctx context.Context, consumer *kafka.Consumer) error {
	a.logger.Info("analytics aggregator consuming")
	return consumer.Start(ctx)
}

// HandleEvent applies PassageEvents read from Kafka. Undecodable messages
// surface as kafka.ErrMalformed so the consumer commits past them.
func HandleEvent(agg *Aggregator) kafka.MessageHandler {
	return kafka.JSON(func(_ context.Context, _ string, event PassageEvent) error {
		agg.Track(event)
		return nil
	})
}

// Track records one event.
func (a *Aggregator) Track(event PassageEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.totalQueries++
	if event.CacheHit {
		a.cacheHits++
	}
	if event.Partial {
		a.partial++
	}
	a.totalCandidates += int64(event.Candidates)
	a.queryCounts[event.Query]++
	if event.Returned == 0 {
		a.zeroPassages++
		a.zeroPassageCount[event.Query]++
	}

	if len(a.latencies) < latencyWindow {
		a.latencies = append(a.latencies, event.LatencyMs)
	} else {
		a.latencies[a.next] = event.LatencyMs
	}
	a.next = (a.next + 1) % latencyWindow
}

// Stats returns a snapshot with the default ranking length.
func (a *Aggregator) Stats() AggregatedStats {
	return a.Snapshot(defaultTop)
}

// Snapshot is Stats with the query rankings cut to top entries.
func (a *Aggregator) Snapshot(top int) AggregatedStats {
	a.mu.RLock()
	defer a.mu.RUnlock()

	stats := AggregatedStats{
		TotalQueries:     a.totalQueries,
		CacheHits:        a.cacheHits,
		CacheMisses:      a.totalQueries - a.cacheHits,
		PartialCount:     a.partial,
		ZeroPassageCount: a.zeroPassages,
	}
	if a.totalQueries > 0 {
		stats.AvgCandidates = float64(a.totalCandidates) / float64(a.totalQueries)
	}
	if len(a.latencies) > 0 {
		sorted := make([]int64, len(a.latencies))
		copy(sorted, a.latencies)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

		var sum int64
		for _, l := range sorted {
			sum += l
		}
		stats.AvgLatencyMs = float64(sum) / float64(len(sorted))
		stats.P50LatencyMs = percentile(sorted, 50)
		stats.P95LatencyMs = percentile(sorted, 95)
		stats.P99LatencyMs = percentile(sorted, 99)
	}
	stats.TopQueries = topN(a.queryCounts, top)
	stats.ZeroPassageQueries = topN(a.zeroPassageCount, top)
	if elapsed := a.now().Sub(a.startTime).Minutes(); elapsed > 0 {
		stats.QueriesPerMinute = float64(stats.TotalQueries) / elapsed
	}
	return stats
}

func percentile(sorted []int64, pct int) int64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := (pct * len(sorted)) / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// topN returns the n most frequent queries, ties broken alphabetically.
func topN(counts map[string]int64, n int) []QueryCount {
	result := make([]QueryCount, 0, len(counts))
	for query, count := range counts {
		result = append(result, QueryCount{Query: query, Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Query < result[j].Query
	})
	if len(result) > n {
		result = result[:n]
	}
	return result
}
