package handler

import (
	"net/http"

	"github.com/coursehub/notify/internal/queue"
)

// MetricsHandler serves a human-readable JSON queue snapshot.
// Raw Prometheus metrics (counters, histograms) are available at /metrics
// via promhttp.Handler and are separate from this endpoint.
type MetricsHandler struct {
	q *queue.JobQueue
}

func NewMetricsHandler(q *queue.JobQueue) *MetricsHandler {
	return &MetricsHandler{q: q}
}

// GetMetrics handles GET /api/v1/metrics
//
// @Summary  Real-time per-kind queue depth snapshot
// @Tags     metrics
// @Produce  json
// @Success  200  {object}  map[string]any
// @Router   /api/v1/metrics [get]
func (h *MetricsHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	depths := h.q.Depths()
	total := 0
	byKind := make(map[string]int, len(depths))
	for kind, depth := range depths {
		byKind[string(kind)] = depth
		total += depth
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"queue_depth": map[string]any{
			"by_kind": byKind,
			"total":   total,
		},
	})
}
