package handlers

import (
	"context"
	"net/http"
	"time"
)

// HealthChecker reports whether a backing service is reachable
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// HealthResponse is the body of the health endpoint
type HealthResponse struct {
	Status   string            `json:"status"`
	Version  string            `json:"version"`
	Services map[string]string `json:"services"`
}

// HealthHandler reports the health of the database and, when configured, Vault
type HealthHandler struct {
	checks  map[string]HealthChecker
	version string
}

// NewHealthHandler creates a new health handler. Nil checkers are skipped.
func NewHealthHandler(version string, checks map[string]HealthChecker) *HealthHandler {
	active := make(map[string]HealthChecker, len(checks))
	for name, c := range checks {
		if c != nil {
			active[name] = c
		}
	}
	return &HealthHandler{checks: active, version: version}
}

// Health godoc
// @Summary Health check
// @Tags Health
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /health [get]
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	resp := HealthResponse{Status: "ok", Version: h.version, Services: make(map[string]string, len(h.checks))}
	for name, c := range h.checks {
		if err := c.HealthCheck(ctx); err != nil {
			resp.Services[name] = "unavailable"
			resp.Status = "degraded"
			continue
		}
		resp.Services[name] = "ok"
	}

	status := http.StatusOK
	if resp.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	JSONResponse(w, status, resp)
}
