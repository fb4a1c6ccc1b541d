package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Passage-Ranking-Platform/pkg/metrics"
)

// Router resolves the pattern a request would be dispatched to.
// *http.ServeMux satisfies it.
type Router interface {
	Handler(r *http.Request) (http.Handler, string)
}

const unmatchedRoute = "unmatched"

// Metrics records request count, latency and in-flight requests. Requests
// are labelled by their registered route so unknown paths share one label.
func Metrics(m *metrics.Metrics, routes Router) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			m.HTTPRequestsInFlight.Inc()
			defer m.HTTPRequestsInFlight.Dec()

			route := routeLabel(routes, r)
			rec := &statusRecorder{ResponseWriter: w}
			start := time.Now()
			next.ServeHTTP(rec, r)

			m.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
			m.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rec.Status())).Inc()
		})
	}
}

// routeLabel drops the method prefix of a "GET /path" pattern.
func routeLabel(routes Router, r *http.Request) string {
	if routes == nil {
		return unmatchedRoute
	}
	_, pattern := routes.Handler(r)
	if pattern == "" {
		return unmatchedRoute
	}
	if _, path, ok := strings.Cut(pattern, " "); ok {
		return path
	}
	return pattern
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	if s.status == 0 {
		s.status = code
	}
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	return s.ResponseWriter.Write(b)
}

// Status is the code sent to the client, 200 if the handler never wrote.
func (s *statusRecorder) Status() int {
	if s.status == 0 {
		return http.StatusOK
	}
	return s.status
}
