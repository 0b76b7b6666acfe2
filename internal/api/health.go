// internal/api/health.go
package api

import (
	"context"
	"net/http"
	"time"

	"hub-backoffice/internal/common/logger"
)

// Checker reports whether one dependency is reachable.
type Checker func(ctx context.Context) error

type HealthCheck struct {
	checks  map[string]Checker
	timeout time.Duration
	logger  logger.Logger
}

func NewHealthCheck(checks map[string]Checker, log logger.Logger) *HealthCheck {
	return &HealthCheck{checks: checks, timeout: 2 * time.Second, logger: log}
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func (h *HealthCheck) LivenessHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "healthy"})
}

// ReadinessHandler pings every registered dependency.
func (h *HealthCheck) ReadinessHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	resp := healthResponse{Status: "ready", Checks: make(map[string]string, len(h.checks))}
	status := http.StatusOK
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			h.logger.Warn("readiness check failed", map[string]interface{}{"check": name, "error": err.Error()})
			resp.Checks[name] = err.Error()
			resp.Status = "not_ready"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "ok"
	}
	writeJSON(w, status, resp)
}
