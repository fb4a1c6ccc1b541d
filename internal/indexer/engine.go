// Package indexer ties the tokenizer, the positional index and the document
// store together. Its Engine indexes documents and serves them to the
// passage ranker.
package indexer

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Passage-Ranking-Platform/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/Passage-Ranking-Platform/internal/indexer/span"
	"github.com/Adithya-Monish-Kumar-K/Passage-Ranking-Platform/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/Passage-Ranking-Platform/internal/passage"
	"github.com/Adithya-Monish-Kumar-K/Passage-Ranking-Platform/internal/searcher/query"
	"github.com/Adithya-Monish-Kumar-K/Passage-Ranking-Platform/internal/store"
	"github.com/Adithya-Monish-Kumar-K/Passage-Ranking-Platform/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/Passage-Ranking-Platform/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Passage-Ranking-Platform/pkg/metrics"
)

const maxCorpusLine = 16 << 20

type Engine struct {
	memIndex *index.MemoryIndex
	store    store.DocumentStore
	cfg      config.IndexerConfig
	metrics  *metrics.Metrics
	logger   *slog.Logger

	mu      sync.RWMutex
	nums    map[string]uint32
	ids     map[uint32]string
	nextNum uint32
}

// NewEngine creates an engine over an empty index. m may be nil.
func NewEngine(cfg config.IndexerConfig, st store.DocumentStore, m *metrics.Metrics) *Engine {
	return &Engine{
		memIndex: index.NewMemoryIndex(),
		store:    st,
		cfg:      cfg,
		metrics:  m,
		logger:   slog.Default().With("component", "indexer"),
		nums:     make(map[string]uint32),
		ids:      make(map[uint32]string),
		nextNum:  1,
	}
}

// IndexDocument tokenizes and indexes the configured fields of a document
// and stores all of its fields. Re-indexing an id replaces the previous
// version under the same document number.
func (e *Engine) IndexDocument(ctx context.Context, id string, fields map[string]string) (uint32, error) {
	if id == "" {
		return 0, fmt.Errorf("%w: document without id", apperrors.ErrInvalidInput)
	}
	num := e.assign(id)

	if err := e.store.Put(ctx, store.Document{Num: num, ID: id, Fields: fields}); err != nil {
		return 0, fmt.Errorf("storing document %s: %w", id, err)
	}
	tokenCount := 0
	for _, field := range e.cfg.Fields {
		tokens := tokenizer.Tokenize(fields[field])
		tokenCount += len(tokens)
		e.memIndex.AddField(num, field, tokens, e.cfg.StoreOffsets)
	}
	if e.metrics != nil {
		e.metrics.DocsIndexedTotal.Inc()
	}
	e.logger.Debug("document indexed",
		"doc_id", id,
		"num", num,
		"token_count", tokenCount,
	)
	return num, nil
}

func (e *Engine) assign(id string) uint32 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if num, ok := e.nums[id]; ok {
		return num
	}
	num := e.nextNum
	e.nextNum++
	e.nums[id] = num
	e.ids[num] = id
	return num
}

type corpusLine struct {
	ID     string            `json:"id"`
	Fields map[string]string `json:"fields"`
}

// LoadJSONL indexes every {"id": ..., "fields": {...}} line of the file at
// path. Blank lines are ignored.
func (e *Engine) LoadJSONL(ctx context.Context, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("opening corpus: %w", err)
	}
	defer f.Close()

	start := time.Now()
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxCorpusLine)
	count, lineNo := 0, 0
	for scanner.Scan() {
		lineNo++
		if err := ctx.Err(); err != nil {
			return count, err
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var doc corpusLine
		if err := json.Unmarshal(line, &doc); err != nil {
			return count, fmt.Errorf("corpus line %d: %w", lineNo, err)
		}
		if _, err := e.IndexDocument(ctx, doc.ID, doc.Fields); err != nil {
			return count, fmt.Errorf("corpus line %d: %w", lineNo, err)
		}
		count++
	}
	if err := scanner.Err(); err != nil {
		return count, fmt.Errorf("reading corpus: %w", err)
	}
	e.logger.Info("corpus loaded",
		"path", path,
		"documents", count,
		"duration", time.Since(start),
	)
	return count, nil
}

// ExternalID maps a document number back to the id it was indexed under.
func (e *Engine) ExternalID(num uint32) (string, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	id, ok := e.ids[num]
	return id, ok
}

func (e *Engine) DocCount() uint64 {
	return e.memIndex.DocCount()
}

func (e *Engine) Stats() []index.FieldStats {
	return e.memIndex.Stats()
}

// Ping reports whether the document store is reachable.
func (e *Engine) Ping(ctx context.Context) error {
	_, err := e.store.Count(ctx)
	return err
}

func (e *Engine) Matches(ctx context.Context, q *query.NearQuery, field string) ([]passage.Match, error) {
	found, err := span.Find(ctx, e.memIndex, field, q)
	if err != nil {
		return nil, err
	}
	matches := make([]passage.Match, len(found))
	for i, m := range found {
		matches[i] = passage.Match{DocID: m.DocID, Start: m.Start, End: m.End}
	}
	return matches, nil
}

// TermVector returns the shared, read-only term vector of a document field,
// or nil when the field was not indexed for it.
func (e *Engine) TermVector(_ context.Context, docID uint32, field string) ([]passage.VectorEntry, error) {
	vector, _ := e.memIndex.TermVector(docID, field)
	return vector, nil
}

func (e *Engine) DocFreq(_ context.Context, field, term string) (int, error) {
	return e.memIndex.DocFreq(field, term), nil
}

func (e *Engine) FieldText(ctx context.Context, docID uint32, field string) (string, error) {
	doc, err := e.store.Get(ctx, docID)
	if err != nil {
		return "", err
	}
	return doc.Fields[field], nil
}

func (e *Engine) Close() error {
	return e.store.Close()
}
