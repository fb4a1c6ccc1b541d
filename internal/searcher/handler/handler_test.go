package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/Passage-Ranking-Platform/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/Passage-Ranking-Platform/internal/searcher/executor"
	apperrors "github.com/Adithya-Monish-Kumar-K/Passage-Ranking-Platform/pkg/errors"
)

type stubExecutor struct {
	last executor.Request
	resp *executor.Response
	err  error
}

func (s *stubExecutor) Execute(_ context.Context, req executor.Request) (*executor.Response, error) {
	s.last = req
	return s.resp, s.err
}

type recordingTracker struct{ events []analytics.PassageEvent }

func (r *recordingTracker) Track(e analytics.PassageEvent) { r.events = append(r.events, e) }

func get(h *Handler, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.Passages(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestPassagesReturnsRankedPassages(t *testing.T) {
	exec := &stubExecutor{resp: &executor.Response{
		Query:      "lincoln president",
		Candidates: 3,
		Passages:   []executor.Passage{{DocID: 1, ID: "lincoln", Field: "body", Score: 1.5, Text: "Lincoln was president"}},
	}}
	tracker := &recordingTracker{}
	h := New(exec, nil, tracker, 5, 20)

	rec := get(h, "/api/v1/passages?q=lincoln+president&rows=50&field=title")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, executor.Request{Query: "lincoln president", Field: "title", Rows: 20}, exec.last)

	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "lincoln president", body["query"])
	assert.Equal(t, 3.0, body["candidates"])
	assert.Equal(t, false, body["partial"])
	passages := body["passages"].([]any)
	require.Len(t, passages, 1)
	first := passages[0].(map[string]any)
	assert.Equal(t, "lincoln", first["id"])
	assert.Equal(t, 1.0, first["doc_id"])
	assert.Equal(t, "Lincoln was president", first["text"])

	require.Len(t, tracker.events, 1)
	assert.Equal(t, 1, tracker.events[0].Returned)
	assert.Equal(t, 1.5, tracker.events[0].TopScore)
}

func TestPassagesDefaultsRows(t *testing.T) {
	exec := &stubExecutor{resp: &executor.Response{Passages: []executor.Passage{}}}
	h := New(exec, nil, nil, 5, 20)
	rec := get(h, "/api/v1/passages?q=fox")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, exec.last.Rows)
}

func TestPassagesValidation(t *testing.T) {
	h := New(&stubExecutor{}, nil, nil, 5, 20)
	for _, target := range []string{
		"/api/v1/passages",
		"/api/v1/passages?q=fox&rows=0",
		"/api/v1/passages?q=fox&rows=many",
	} {
		assert.Equal(t, http.StatusBadRequest, get(h, target).Code, target)
	}
}

func TestPassagesMapsErrors(t *testing.T) {
	cases := map[error]int{
		fmt.Errorf("%w: boolean", apperrors.ErrUnsupportedQuery): http.StatusBadRequest,
		fmt.Errorf("%w: empty", apperrors.ErrInvalidInput):       http.StatusBadRequest,
		errors.New("store offline"):                              http.StatusInternalServerError,
	}
	for err, status := range cases {
		h := New(&stubExecutor{err: err}, nil, nil, 5, 20)
		assert.Equal(t, status, get(h, "/api/v1/passages?q=fox+AND+dog").Code, err.Error())
	}
}

func TestCacheEndpointsWithoutCache(t *testing.T) {
	h := New(&stubExecutor{}, nil, nil, 5, 20)

	rec := httptest.NewRecorder()
	h.CacheStats(rec, httptest.NewRequest(http.MethodGet, "/api/v1/cache/stats", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.CacheInvalidate(rec, httptest.NewRequest(http.MethodPost, "/api/v1/cache/invalidate", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
