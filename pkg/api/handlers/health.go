package handlers

import (
	"context"
	"net/http"
	"time"
)

// HealthHandler handles health check endpoints.
//
// Health endpoints are unauthenticated and provide:
//   - Liveness probe: Is the server process running?
//   - Readiness probe: Are the coordination and table backends reachable?
type HealthHandler struct {
	instance Instance
}

// NewHealthHandler creates a new health handler. A nil instance makes the
// readiness probe fail.
func NewHealthHandler(inst Instance) *HealthHandler {
	return &HealthHandler{instance: inst}
}

// Liveness handles GET /health.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthyResponse(map[string]string{
		"service": "ordo",
	}))
}

// Readiness handles GET /health/ready. It reads the lifecycle state, which
// touches the coordination service, and returns 503 when that fails.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	if h.instance == nil {
		writeJSON(w, http.StatusServiceUnavailable, unhealthyResponse("instance not configured"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	start := time.Now()
	state, err := h.instance.State(ctx)
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, unhealthyResponse(err.Error()))
		return
	}

	writeJSON(w, http.StatusOK, healthyResponse(map[string]string{
		"state":   string(state),
		"latency": time.Since(start).String(),
	}))
}
