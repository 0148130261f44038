package handler

import (
	"context"
	"net/http"
	"time"
)

// HealthChecker defines an interface for checking service health.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// HealthHandler manages health check endpoints.
type HealthHandler struct {
	db    HealthChecker
	cache HealthChecker
}

// NewHealthHandler creates a new HealthHandler.
// A nil db means the memory store is in use.
func NewHealthHandler(db, cache HealthChecker) *HealthHandler {
	return &HealthHandler{db: db, cache: cache}
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Healthz is a liveness probe. It does not check dependencies.
//
// GET /healthz
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// Readyz checks every configured dependency and returns 503 if one fails.
//
// GET /readyz
func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := map[string]string{
		"postgres": check(ctx, h.db),
		"redis":    check(ctx, h.cache),
	}

	status, code := "ok", http.StatusOK
	for _, result := range checks {
		if result != "ok" && result != "not configured" {
			status, code = "unhealthy", http.StatusServiceUnavailable
		}
	}
	writeJSON(w, code, HealthResponse{Status: status, Checks: checks})
}

func check(ctx context.Context, c HealthChecker) string {
	if c == nil {
		return "not configured"
	}
	if err := c.Ping(ctx); err != nil {
		return "error: " + err.Error()
	}
	return "ok"
}
