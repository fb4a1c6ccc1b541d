package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"golang.org/x/time/rate"

	apperrors "github.com/Adithya-Monish-Kumar-K/Passage-Ranking-Platform/pkg/errors"
)

// RateLimit rejects requests with 429 once the shared token bucket is empty.
// A non-positive limit disables limiting.
func RateLimit(limit float64, burst int) func(http.Handler) http.Handler {
	if limit <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	if burst <= 0 {
		burst = max(1, int(limit))
	}
	limiter := rate.NewLimiter(rate.Limit(limit), burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				slog.Warn("request rate limited", "method", r.Method, "path", r.URL.Path)
				writeError(w, apperrors.ErrRateLimited)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// writeError answers with err's status and a JSON body naming it.
func writeError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apperrors.HTTPStatusCode(err))
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
