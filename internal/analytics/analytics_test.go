package analytics

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/Passage-Ranking-Platform/pkg/kafka"
)

func TestAggregatorStats(t *testing.T) {
	a := NewAggregator()
	a.startTime = time.Unix(0, 0)
	a.now = func() time.Time { return time.Unix(120, 0) }

	a.Track(PassageEvent{Query: "lincoln", Candidates: 4, Returned: 2, LatencyMs: 10})
	a.Track(PassageEvent{Query: "lincoln", Candidates: 2, Returned: 1, LatencyMs: 30, CacheHit: true})
	a.Track(PassageEvent{Query: "unicorn", Returned: 0, LatencyMs: 20, Partial: true})

	stats := a.Stats()
	assert.Equal(t, int64(3), stats.TotalQueries)
	assert.Equal(t, int64(1), stats.CacheHits)
	assert.Equal(t, int64(2), stats.CacheMisses)
	assert.Equal(t, int64(1), stats.PartialCount)
	assert.Equal(t, int64(1), stats.ZeroPassageCount)
	assert.InDelta(t, 2.0, stats.AvgCandidates, 1e-9)
	assert.InDelta(t, 20.0, stats.AvgLatencyMs, 1e-9)
	assert.Equal(t, int64(20), stats.P50LatencyMs)
	assert.Equal(t, int64(30), stats.P99LatencyMs)
	assert.Equal(t, []QueryCount{{Query: "lincoln", Count: 2}, {Query: "unicorn", Count: 1}}, stats.TopQueries)
	assert.Equal(t, []QueryCount{{Query: "unicorn", Count: 1}}, stats.ZeroPassageQueries)
	assert.InDelta(t, 1.5, stats.QueriesPerMinute, 1e-9)
}

func TestAggregatorLatencyWindowIsBounded(t *testing.T) {
	a := NewAggregator()
	for i := range latencyWindow + 5 {
		a.Track(PassageEvent{Query: "q", Returned: 1, LatencyMs: int64(i)})
	}
	assert.Len(t, a.latencies, latencyWindow)
	assert.Equal(t, int64(latencyWindow+4), a.latencies[4])
}

func TestHandleEventDecodes(t *testing.T) {
	a := NewAggregator()
	handle := HandleEvent(a)
	raw, err := json.Marshal(PassageEvent{Query: "fox", Returned: 3})
	require.NoError(t, err)

	require.NoError(t, handle(context.Background(), []byte("fox"), raw))
	assert.ErrorIs(t, handle(context.Background(), nil, []byte("{broken")), kafka.ErrMalformed)
	assert.Equal(t, int64(1), a.Stats().TotalQueries)
}

type recordingPublisher struct {
	mu      sync.Mutex
	batches [][]kafka.Record
}

func (p *recordingPublisher) PublishBatch(_ context.Context, events []kafka.Record) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.batches = append(p.batches, append([]kafka.Record(nil), events...))
	return nil
}

func (p *recordingPublisher) total() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, b := range p.batches {
		n += len(b)
	}
	return n
}

func TestCollectorBatchesAndFlushesOnClose(t *testing.T) {
	pub := &recordingPublisher{}
	c := NewCollector(pub, CollectorConfig{BatchSize: 2, FlushInterval: time.Hour})
	c.Start(context.Background())

	for _, q := range []string{"a", "b", "c"} {
		c.Track(PassageEvent{Query: q})
	}
	c.Close()
	c.Track(PassageEvent{Query: "late"})

	assert.Equal(t, 3, pub.total())
	require.NotEmpty(t, pub.batches)
	assert.Equal(t, "a", pub.batches[0][0].Key)
}

func TestStatsHandler(t *testing.T) {
	a := NewAggregator()
	a.Track(PassageEvent{Query: "fox", Returned: 1, LatencyMs: 5})

	rec := httptest.NewRecorder()
	NewHandler(a).Stats(rec, httptest.NewRequest(http.MethodGet, "/api/v1/analytics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var stats AggregatedStats
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&stats))
	assert.Equal(t, int64(1), stats.TotalQueries)
}

func TestStatsHandlerTopLimit(t *testing.T) {
	a := NewAggregator()
	for _, q := range []string{"fox", "fox", "dog", "cat"} {
		a.Track(PassageEvent{Query: q, Returned: 1})
	}

	rec := httptest.NewRecorder()
	NewHandler(a).Stats(rec, httptest.NewRequest(http.MethodGet, "/api/v1/analytics?top=2", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var stats AggregatedStats
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&stats))
	assert.Equal(t, []QueryCount{{Query: "fox", Count: 2}, {Query: "cat", Count: 1}}, stats.TopQueries)
}

func TestStatsHandlerRejectsBadTop(t *testing.T) {
	h := NewHandler(NewAggregator())
	for _, raw := range []string{"0", "-1", "abc", "101"} {
		rec := httptest.NewRecorder()
		h.Stats(rec, httptest.NewRequest(http.MethodGet, "/api/v1/analytics?top="+raw, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, raw)
	}
}
