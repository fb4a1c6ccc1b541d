package analytics

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
)

// Handler serves aggregator snapshots over HTTP.
type Handler struct {
	aggregator *Aggregator
	logger     *slog.Logger
}

func NewHandler(aggregator *Aggregator) *Handler {
	return &Handler{
		aggregator: aggregator,
		logger:     slog.Default().With("component", "analytics-handler"),
	}
}

// Stats writes the current snapshot. The optional top parameter sets how
// many queries each ranking lists, between 1 and maxTop.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	top := defaultTop
	if raw := r.URL.Query().Get("top"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxTop {
			h.write(w, http.StatusBadRequest, map[string]string{
				"error": "top must be an integer between 1 and " + strconv.Itoa(maxTop),
			})
			return
		}
		top = n
	}
	h.write(w, http.StatusOK, h.aggregator.Snapshot(top))
}

func (h *Handler) write(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("failed to write analytics response", "error", err)
	}
}
