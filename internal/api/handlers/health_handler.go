package handlers

import (
	"net/http"

	"github.com/isdelr/homevalue/internal/monitoring"
)

// StatsProvider exposes the latest host sample.
type StatsProvider interface {
	Latest() monitoring.HostStats
}

// HealthHandler reports liveness plus host statistics.
type HealthHandler struct {
	stats StatsProvider
}

// NewHealthHandler creates a new HealthHandler. stats may be nil.
func NewHealthHandler(stats StatsProvider) *HealthHandler {
	return &HealthHandler{stats: stats}
}

// Get handles GET /health.
func (h *HealthHandler) Get(w http.ResponseWriter, r *http.Request) {
	body := map[string]interface{}{
		"status":  "ok",
		"service": "homevalue",
	}
	if h.stats != nil {
		if s := h.stats.Latest(); !s.SampledAt.IsZero() {
			body["host"] = s
		}
	}
	writeJSON(w, http.StatusOK, body)
}
