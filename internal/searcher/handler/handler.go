// Package handler serves passage queries over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Passage-Ranking-Platform/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/Passage-Ranking-Platform/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/Passage-Ranking-Platform/internal/searcher/executor"
	apperrors "github.com/Adithya-Monish-Kumar-K/Passage-Ranking-Platform/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Passage-Ranking-Platform/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Passage-Ranking-Platform/pkg/middleware"
)

type PassageExecutor interface {
	Execute(ctx context.Context, req executor.Request) (*executor.Response, error)
}

type Handler struct {
	executor    PassageExecutor
	cache       *cache.QueryCache
	tracker     analytics.Tracker
	defaultRows int
	maxRows     int
	logger      *slog.Logger
}

// New builds the handler. queryCache and tracker may be nil.
func New(exec PassageExecutor, queryCache *cache.QueryCache, tracker analytics.Tracker, defaultRows, maxRows int) *Handler {
	return &Handler{
		executor:    exec,
		cache:       queryCache,
		tracker:     tracker,
		defaultRows: defaultRows,
		maxRows:     maxRows,
		logger:      slog.Default().With("component", "passage-handler"),
	}
}

// Passages handles GET /api/v1/passages?q=&rows=&field=.
func (h *Handler) Passages(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	log := logger.FromContext(ctx)

	req, err := h.parseRequest(r)
	if err != nil {
		h.fail(w, log, req, err)
		return
	}

	var (
		resp     *executor.Response
		cacheHit bool
	)
	if h.cache != nil {
		resp, cacheHit, err = h.cache.GetOrCompute(ctx, req, func() (*executor.Response, error) {
			return h.executor.Execute(ctx, req)
		})
	} else {
		resp, err = h.executor.Execute(ctx, req)
	}
	if err != nil {
		h.fail(w, log, req, err)
		return
	}

	latencyMs := time.Since(start).Milliseconds()
	log.Info("passage query completed",
		"query", req.Query,
		"candidates", resp.Candidates,
		"returned", len(resp.Passages),
		"partial", resp.Partial,
		"cache_hit", cacheHit,
		"latency_ms", latencyMs,
	)
	if h.tracker != nil {
		event := analytics.PassageEvent{
			Query:      req.Query,
			Field:      req.Field,
			Terms:      resp.Terms,
			Candidates: resp.Candidates,
			Returned:   len(resp.Passages),
			Partial:    resp.Partial,
			CacheHit:   cacheHit,
			LatencyMs:  latencyMs,
			Timestamp:  time.Now().UTC(),
			RequestID:  middleware.GetRequestID(ctx),
		}
		if len(resp.Passages) > 0 {
			event.TopScore = resp.Passages[0].Score
		}
		h.tracker.Track(event)
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// parseRequest reads q, field and rows. rows is capped at the configured
// maximum rather than rejected.
func (h *Handler) parseRequest(r *http.Request) (executor.Request, error) {
	params := r.URL.Query()
	req := executor.Request{
		Query: params.Get("q"),
		Field: params.Get("field"),
		Rows:  h.defaultRows,
	}
	if req.Query == "" {
		return req, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "query parameter 'q' is required")
	}
	if raw := params.Get("rows"); raw != "" {
		rows, err := strconv.Atoi(raw)
		if err != nil || rows < 1 {
			return req, apperrors.Newf(apperrors.ErrInvalidInput, http.StatusBadRequest, "rows must be a positive integer, got %q", raw)
		}
		req.Rows = min(rows, h.maxRows)
	}
	return req, nil
}

// fail maps err to a status. Server-side failures are logged with detail
// and answered with a generic message.
func (h *Handler) fail(w http.ResponseWriter, log *slog.Logger, req executor.Request, err error) {
	status := apperrors.HTTPStatusCode(err)
	if status >= http.StatusInternalServerError {
		log.Error("passage query failed", "query", req.Query, "error", err)
		h.writeError(w, status, "passage query failed")
		return
	}
	log.Info("passage query rejected", "query", req.Query, "error", err)
	h.writeError(w, status, err.Error())
}

func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}

	hits, misses := h.cache.Stats()
	total := hits + misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"hits":     hits,
		"misses":   misses,
		"total":    total,
		"hit_rate": fmt.Sprintf("%.1f%%", hitRate),
	})
}

func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeError(w, http.StatusServiceUnavailable, "caching is disabled")
		return
	}
	if err := h.cache.Invalidate(r.Context()); err != nil {
		h.logger.Error("cache invalidation failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "cache invalidation failed")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
