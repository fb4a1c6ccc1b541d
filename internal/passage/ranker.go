package passage

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/Passage-Ranking-Platform/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/Passage-Ranking-Platform/internal/searcher/query"
	apperrors "github.com/Adithya-Monish-Kumar-K/Passage-Ranking-Platform/pkg/errors"
)

// VectorEntry is one term row of a document's term vector.
type VectorEntry = index.VectorEntry

// Match is one span match: positions Start through End of a document field.
type Match struct {
	DocID uint32
	Start int
	End   int
}

// Source supplies matches, term vectors, document frequencies and stored
// text for ranking. Matches must be returned in the order the passages
// should be considered.
type Source interface {
	Matches(ctx context.Context, q *query.NearQuery, field string) ([]Match, error)
	TermVector(ctx context.Context, docID uint32, field string) ([]VectorEntry, error)
	DocFreq(ctx context.Context, field, term string) (int, error)
	FieldText(ctx context.Context, docID uint32, field string) (string, error)
}

// Options control a single Rank call. Prefetch above 1 loads the term
// vectors of all matched documents with that many concurrent fetches
// before scanning.
type Options struct {
	Field    string
	Windows  WindowSizes
	Scoring  ScoreConfig
	Rows     int
	Prefetch int
}

func DefaultOptions(field string) Options {
	return Options{
		Field:   field,
		Windows: DefaultWindowSizes(),
		Scoring: DefaultScoreConfig(),
		Rows:    DefaultCapacity,
	}
}

// Result is a ranked passage ready for display.
type Result struct {
	DocID uint32  `json:"doc_id"`
	Field string  `json:"field"`
	Score float64 `json:"score"`
	Text  string  `json:"text"`
}

// Ranking is the outcome of one Rank call. Passages are strongest first.
type Ranking struct {
	Passages  []Result `json:"passages"`
	Matches   int      `json:"matches"`
	Documents int      `json:"documents"`
	Skipped   int      `json:"skipped"`
	Offered   int      `json:"offered"`
	Retained  int      `json:"retained"`
	Partial   bool     `json:"partial"`
}

type Ranker struct {
	src    Source
	logger *slog.Logger
}

func NewRanker(src Source) *Ranker {
	return &Ranker{
		src:    src,
		logger: slog.Default().With("component", "passage-ranker"),
	}
}

// Rank scores every match of q in opts.Field and returns the strongest
// opts.Rows passages. Queries that are not phrase or near queries are
// rejected with ErrUnsupportedQuery before the source is consulted. When ctx
// is cancelled mid-scan the passages gathered so far are returned with
// Partial set.
func (r *Ranker) Rank(ctx context.Context, q query.Query, opts Options) (*Ranking, error) {
	near, err := query.AsNear(q)
	if err != nil {
		return nil, err
	}
	if opts.Field == "" {
		return nil, fmt.Errorf("%w: no field to rank", apperrors.ErrInvalidInput)
	}
	start := time.Now()
	field := opts.Field

	weights, err := ComputeWeights(query.Terms(near), func(term string) (int, error) {
		return r.src.DocFreq(ctx, field, term)
	})
	if err != nil {
		return r.abort(ctx, &Ranking{}, fmt.Errorf("computing weights: %w", err))
	}

	matches, err := r.src.Matches(ctx, near, field)
	if err != nil {
		return r.abort(ctx, &Ranking{}, fmt.Errorf("finding matches: %w", err))
	}
	ranking := &Ranking{Matches: len(matches)}

	vectors := newVectorCache(r.src, field)
	if opts.Prefetch > 1 {
		if err := vectors.prefetch(ctx, matches, opts.Prefetch); err != nil {
			return r.abort(ctx, ranking, err)
		}
	}

	b := NewBuilder()
	sel := NewSelector(opts.Rows)
	for _, m := range matches {
		if ctx.Err() != nil {
			ranking.Partial = true
			break
		}
		vector, err := vectors.get(ctx, m.DocID)
		if err != nil {
			if ctx.Err() != nil {
				ranking.Partial = true
				break
			}
			return nil, err
		}

		b.Reset(m.DocID, field)
		Classify(b, NewBounds(m.Start, m.End, opts.Windows), vector)
		if b.Len(ZonePrimary) == 0 {
			ranking.Skipped++
			continue
		}
		b.Score = Score(b, weights, opts.Scoring)
		ranking.Offered++
		if _, err := sel.Offer(b); err != nil {
			return nil, err
		}
	}
	ranking.Documents = vectors.loaded()

	passages := sel.Drain()
	slices.Reverse(passages)
	ranking.Retained = len(passages)

	textCtx := ctx
	if ranking.Partial {
		textCtx = context.WithoutCancel(ctx)
	}
	ranking.Passages, err = r.resolve(textCtx, passages)
	if err != nil {
		return nil, err
	}

	r.logger.Debug("passages ranked",
		"query", near.String(),
		"field", field,
		"matches", ranking.Matches,
		"skipped", ranking.Skipped,
		"retained", ranking.Retained,
		"partial", ranking.Partial,
		"duration", time.Since(start),
	)
	return ranking, nil
}

// abort turns a cancellation into an empty partial ranking and passes any
// other error through.
func (r *Ranker) abort(ctx context.Context, ranking *Ranking, err error) (*Ranking, error) {
	if ctx.Err() != nil {
		ranking.Partial = true
		return ranking, nil
	}
	return nil, err
}

func (r *Ranker) resolve(ctx context.Context, passages []Passage) ([]Result, error) {
	texts := make(map[uint32]string)
	results := make([]Result, 0, len(passages))
	for _, p := range passages {
		text, ok := texts[p.DocID]
		if !ok {
			var err error
			text, err = r.src.FieldText(ctx, p.DocID, p.Field)
			if err != nil {
				return nil, fmt.Errorf("loading text of doc %d: %w", p.DocID, err)
			}
			texts[p.DocID] = text
		}
		results = append(results, Result{
			DocID: p.DocID,
			Field: p.Field,
			Score: p.Score,
			Text:  DisplayText(p, text),
		})
	}
	return results, nil
}

// DisplayText cuts the primary window out of the field text using the first
// and last primary term offsets. Without usable offsets the whole text is
// returned.
func DisplayText(p Passage, text string) string {
	if len(p.Primary) == 0 {
		return text
	}
	first, last := p.Primary[0], p.Primary[len(p.Primary)-1]
	if !first.HasOffsets || !last.HasOffsets {
		return text
	}
	if first.Start < 0 || first.Start > last.End || last.End > len(text) {
		return text
	}
	return text[first.Start:last.End]
}

// vectorCache fetches each document's term vector at most once per query.
type vectorCache struct {
	src     Source
	field   string
	vectors map[uint32][]VectorEntry
}

func newVectorCache(src Source, field string) *vectorCache {
	return &vectorCache{src: src, field: field, vectors: make(map[uint32][]VectorEntry)}
}

func (c *vectorCache) get(ctx context.Context, docID uint32) ([]VectorEntry, error) {
	if v, ok := c.vectors[docID]; ok {
		return v, nil
	}
	v, err := c.src.TermVector(ctx, docID, c.field)
	if err != nil {
		return nil, fmt.Errorf("term vector of doc %d: %w", docID, err)
	}
	c.vectors[docID] = v
	return v, nil
}

func (c *vectorCache) loaded() int { return len(c.vectors) }

func (c *vectorCache) prefetch(ctx context.Context, matches []Match, workers int) error {
	var docs []uint32
	seen := make(map[uint32]struct{})
	for _, m := range matches {
		if _, ok := seen[m.DocID]; ok {
			continue
		}
		seen[m.DocID] = struct{}{}
		docs = append(docs, m.DocID)
	}

	fetched := make([][]VectorEntry, len(docs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, docID := range docs {
		g.Go(func() error {
			v, err := c.src.TermVector(gctx, docID, c.field)
			if err != nil {
				return fmt.Errorf("prefetching doc %d: %w", docID, err)
			}
			fetched[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	for i, docID := range docs {
		c.vectors[docID] = fetched[i]
	}
	return nil
}
