// Package metrics defines the Prometheus metric collectors used by the
// passage service and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the service.
type Metrics struct {
	HTTPRequestsTotal      *prometheus.CounterVec
	HTTPRequestDuration    *prometheus.HistogramVec
	HTTPRequestsInFlight   prometheus.Gauge
	PassageQueriesTotal    *prometheus.CounterVec
	RankLatency            prometheus.Histogram
	CandidatesScanned      prometheus.Histogram
	CandidatesSkippedTotal prometheus.Counter
	PassageResultsCount    prometheus.Histogram
	CacheHitsTotal         prometheus.Counter
	CacheMissesTotal       prometheus.Counter
	DocsIndexedTotal       prometheus.Counter
}

// New creates all collectors and registers them on reg. A nil reg leaves
// them unregistered, which tests rely on.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed.",
			},
		),
		PassageQueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "passage_queries_total",
				Help: "Total passage queries by result type (ok, empty, partial, rejected, error).",
			},
			[]string{"result"},
		),
		RankLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "passage_rank_latency_seconds",
				Help:    "Time spent scanning and ranking candidate passages.",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
		),
		CandidatesScanned: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "passage_candidates_scanned",
				Help:    "Number of span matches scanned per passage query.",
				Buckets: []float64{0, 1, 5, 10, 50, 100, 500, 1000, 5000},
			},
		),
		CandidatesSkippedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "passage_candidates_skipped_total",
				Help: "Candidates dropped because their primary window was empty.",
			},
		),
		PassageResultsCount: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "passage_results_count",
				Help:    "Number of passages returned per query.",
				Buckets: []float64{0, 1, 2, 5, 10, 25, 50},
			},
		),
		CacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cache_hits_total",
				Help: "Total number of passage cache hits.",
			},
		),
		CacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cache_misses_total",
				Help: "Total number of passage cache misses.",
			},
		),
		DocsIndexedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "documents_indexed_total",
				Help: "Total documents indexed.",
			},
		),
	}

	if reg != nil {
		reg.MustRegister(
			m.HTTPRequestsTotal,
			m.HTTPRequestDuration,
			m.HTTPRequestsInFlight,
			m.PassageQueriesTotal,
			m.RankLatency,
			m.CandidatesScanned,
			m.CandidatesSkippedTotal,
			m.PassageResultsCount,
			m.CacheHitsTotal,
			m.CacheMissesTotal,
			m.DocsIndexedTotal,
		)
	}

	return m
}

// Handler returns the Prometheus scrape HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
