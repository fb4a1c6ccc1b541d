package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Adithya-Monish-Kumar-K/Passage-Ranking-Platform/pkg/metrics"
)

var ok = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestRequestIDPropagatesAndMints(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/passages", nil)
	req.Header.Set(RequestIDHeader, "abc123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc123", seen)
	assert.Equal(t, "abc123", rec.Header().Get(RequestIDHeader))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, seen, 16)
	assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))
}

func TestRateLimitRejectsOverBurst(t *testing.T) {
	h := RateLimit(0.001, 2)(ok)
	codes := make([]int, 3)
	for i := range codes {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		codes[i] = rec.Code
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestRateLimitDisabled(t *testing.T) {
	h := RateLimit(0, 0)(ok)
	for range 5 {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestTimeoutSendsGatewayTimeout(t *testing.T) {
	slow := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
		time.Sleep(20 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	})
	rec := httptest.NewRecorder()
	Timeout(10*time.Millisecond)(slow).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)

	rec = httptest.NewRecorder()
	Timeout(time.Second)(ok).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMetricsRecordsStatus(t *testing.T) {
	m := metrics.New(nil)
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/passages", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	rec := httptest.NewRecorder()
	Metrics(m, mux)(mux).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/passages?q=x", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestRouteLabel(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/passages", func(http.ResponseWriter, *http.Request) {})
	mux.HandleFunc("/health/live", func(http.ResponseWriter, *http.Request) {})

	assert.Equal(t, "/api/v1/passages", routeLabel(mux, httptest.NewRequest(http.MethodGet, "/api/v1/passages?q=x", nil)))
	assert.Equal(t, "/health/live", routeLabel(mux, httptest.NewRequest(http.MethodGet, "/health/live", nil)))
	assert.Equal(t, unmatchedRoute, routeLabel(mux, httptest.NewRequest(http.MethodGet, "/favicon.ico", nil)))
	assert.Equal(t, unmatchedRoute, routeLabel(nil, httptest.NewRequest(http.MethodGet, "/", nil)))
}

func TestStatusRecorderDefaultsToOK(t *testing.T) {
	rec := &statusRecorder{ResponseWriter: httptest.NewRecorder()}
	assert.Equal(t, http.StatusOK, rec.Status())
	_, _ = rec.Write([]byte("x"))
	rec.WriteHeader(http.StatusInternalServerError)
	assert.Equal(t, http.StatusOK, rec.Status())
}
