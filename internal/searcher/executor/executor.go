// Package executor runs a parsed question through the passage ranker under
// the configured time budget and attaches external document ids.
package executor

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Passage-Ranking-Platform/internal/passage"
	"github.com/Adithya-Monish-Kumar-K/Passage-Ranking-Platform/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/Passage-Ranking-Platform/internal/searcher/query"
	"github.com/Adithya-Monish-Kumar-K/Passage-Ranking-Platform/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/Passage-Ranking-Platform/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Passage-Ranking-Platform/pkg/metrics"
)

// Source is a passage source that can also name its documents.
type Source interface {
	passage.Source
	ExternalID(num uint32) (string, bool)
}

type Request struct {
	Query string
	Field string
	Rows  int
}

type Passage struct {
	DocID uint32  `json:"doc_id"`
	ID    string  `json:"id"`
	Field string  `json:"field"`
	Score float64 `json:"score"`
	Text  string  `json:"text"`
}

type Response struct {
	Query      string    `json:"query"`
	Candidates int       `json:"candidates"`
	Partial    bool      `json:"partial"`
	Passages   []Passage `json:"passages"`
	// Terms are the analysed query terms, kept for analytics.
	Terms []string `json:"-"`
}

type Executor struct {
	src     Source
	ranker  *passage.Ranker
	cfg     config.PassageConfig
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// New builds an executor. m may be nil.
func New(src Source, cfg config.PassageConfig, m *metrics.Metrics) *Executor {
	return &Executor{
		src:     src,
		ranker:  passage.NewRanker(src),
		cfg:     cfg,
		metrics: m,
		logger:  slog.Default().With("component", "query-executor"),
	}
}

func (e *Executor) options(req Request) passage.Options {
	field := req.Field
	if field == "" {
		field = e.cfg.Field
	}
	return passage.Options{
		Field: field,
		Windows: passage.WindowSizes{
			Primary:   e.cfg.PrimaryWindow,
			Adjacent:  e.cfg.AdjacentWindow,
			Secondary: e.cfg.SecondaryWindow,
		},
		Scoring: passage.ScoreConfig{
			AdjacentWeight:  e.cfg.AdjacentWeight,
			SecondaryWeight: e.cfg.SecondaryWeight,
			BigramWeight:    e.cfg.BigramWeight,
		},
		Rows:     req.Rows,
		Prefetch: e.cfg.PrefetchWorkers,
	}
}

// Execute parses and ranks one question. A ranking cut short by the time
// budget is returned with Partial set rather than as an error.
func (e *Executor) Execute(ctx context.Context, req Request) (*Response, error) {
	q, err := parser.Parse(req.Query, parser.Options{Slop: e.cfg.Slop, InOrder: e.cfg.InOrder})
	if err != nil {
		e.count("rejected")
		return nil, err
	}

	if e.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.Timeout)
		defer cancel()
	}

	start := time.Now()
	opts := e.options(req)
	ranking, err := e.ranker.Rank(ctx, q, opts)
	if err != nil {
		if errors.Is(err, apperrors.ErrUnsupportedQuery) || errors.Is(err, apperrors.ErrInvalidInput) {
			e.count("rejected")
		} else {
			e.count("error")
		}
		return nil, err
	}
	elapsed := time.Since(start)

	resp := &Response{
		Query:      req.Query,
		Candidates: ranking.Matches,
		Partial:    ranking.Partial,
		Passages:   make([]Passage, 0, len(ranking.Passages)),
		Terms:      query.Terms(q),
	}
	for _, p := range ranking.Passages {
		id, _ := e.src.ExternalID(p.DocID)
		resp.Passages = append(resp.Passages, Passage{
			DocID: p.DocID,
			ID:    id,
			Field: p.Field,
			Score: p.Score,
			Text:  p.Text,
		})
	}

	e.observe(ranking, elapsed)
	e.logger.Info("query executed",
		"query", req.Query,
		"field", opts.Field,
		"candidates", ranking.Matches,
		"skipped", ranking.Skipped,
		"results", len(resp.Passages),
		"partial", ranking.Partial,
		"duration", elapsed,
	)
	return resp, nil
}

func (e *Executor) count(result string) {
	if e.metrics != nil {
		e.metrics.PassageQueriesTotal.WithLabelValues(result).Inc()
	}
}

func (e *Executor) observe(r *passage.Ranking, elapsed time.Duration) {
	switch {
	case r.Partial:
		e.count("partial")
	case len(r.Passages) == 0:
		e.count("empty")
	default:
		e.count("ok")
	}
	if e.metrics == nil {
		return
	}
	e.metrics.RankLatency.Observe(elapsed.Seconds())
	e.metrics.CandidatesScanned.Observe(float64(r.Matches))
	e.metrics.CandidatesSkippedTotal.Add(float64(r.Skipped))
	e.metrics.PassageResultsCount.Observe(float64(len(r.Passages)))
}
