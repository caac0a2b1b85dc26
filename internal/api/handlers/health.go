package handlers

import (
	"context"
	"net/http"
	"time"
)

// Pinger is the slice of the database pool the health checker needs.
type Pinger interface {
	Ping(ctx context.Context) error
}

type checkResult struct {
	Status    string `json:"status"`
	Message   string `json:"message,omitempty"`
	LatencyMs int64  `json:"latency_ms"`
}

type healthResponse struct {
	Status    string                 `json:"status"`
	Version   string                 `json:"version"`
	Commit    string                 `json:"commit,omitempty"`
	Checks    map[string]checkResult `json:"checks,omitempty"`
	Timestamp string                 `json:"timestamp"`
}

type HealthHandler struct {
	db      Pinger
	version string
	commit  string
}

func NewHealthHandler(db Pinger, version, commit string) *HealthHandler {
	return &HealthHandler{db: db, version: version, commit: commit}
}

// Healthz is the liveness probe: the process is up and serving.
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "ok",
		Version:   h.version,
		Commit:    h.commit,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// Readyz is the readiness probe: the database must answer a ping.
func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := map[string]checkResult{
		"database": h.checkDatabase(ctx),
	}

	status := "ok"
	statusCode := http.StatusOK
	for _, check := range checks {
		if check.Status == "fail" {
			status = "unavailable"
			statusCode = http.StatusServiceUnavailable
			break
		}
	}

	writeJSON(w, statusCode, healthResponse{
		Status:    status,
		Version:   h.version,
		Commit:    h.commit,
		Checks:    checks,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *HealthHandler) checkDatabase(ctx context.Context) checkResult {
	start := time.Now()

	if h.db == nil {
		return checkResult{Status: "fail", Message: "database pool not configured"}
	}

	if err := h.db.Ping(ctx); err != nil {
		return checkResult{
			Status:    "fail",
			Message:   err.Error(),
			LatencyMs: time.Since(start).Milliseconds(),
		}
	}

	return checkResult{
		Status:    "pass",
		LatencyMs: time.Since(start).Milliseconds(),
	}
}
