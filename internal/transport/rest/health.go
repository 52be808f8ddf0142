package rest

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/goccy/go-json"
)

type HealthStatus string

const (
	HealthHealthy   HealthStatus = "healthy"
	HealthDegraded  HealthStatus = "degraded"
	HealthUnhealthy HealthStatus = "unhealthy"
	HealthDisabled  HealthStatus = "disabled"
)

type HealthResponse struct {
	Status     HealthStatus          `json:"status"`
	CheckedAt  time.Time             `json:"checked_at"`
	Components map[string]CheckEntry `json:"components"`
}

type CheckEntry struct {
	Status     HealthStatus `json:"status"`
	Message    string       `json:"message,omitempty"`
	CheckedAt  time.Time    `json:"checked_at"`
	DurationMs int64        `json:"duration_ms"`
}

// HealthHandler checks the local cache and, when configured, the cloud.
// The app keeps working offline, so an unreachable cloud only degrades.
type HealthHandler struct {
	local *sql.DB
	cloud *sql.DB
}

func NewHealthHandler(local, cloud *sql.DB) *HealthHandler {
	return &HealthHandler{local: local, cloud: cloud}
}

func (h *HealthHandler) pingHandler(w http.ResponseWriter, r *http.Request) {
	writeHealthJSON(w, http.StatusOK, map[string]string{"status": "OK"})
}

func (h *HealthHandler) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	local := check(ctx, h.local)
	cloud := check(ctx, h.cloud)

	resp := HealthResponse{
		Status:     HealthHealthy,
		CheckedAt:  time.Now(),
		Components: map[string]CheckEntry{"sqlite": local, "postgres": cloud},
	}

	statusCode := http.StatusOK
	switch {
	case local.Status != HealthHealthy:
		resp.Status = HealthUnhealthy
		statusCode = http.StatusServiceUnavailable
	case cloud.Status == HealthUnhealthy:
		resp.Status = HealthDegraded
	}

	writeHealthJSON(w, statusCode, resp)
}

func check(ctx context.Context, db *sql.DB) CheckEntry {
	if db == nil {
		return CheckEntry{Status: HealthDisabled, CheckedAt: time.Now()}
	}

	start := time.Now()
	err := db.PingContext(ctx)
	entry := CheckEntry{
		Status:     HealthHealthy,
		CheckedAt:  time.Now(),
		DurationMs: time.Since(start).Milliseconds(),
	}
	if err != nil {
		entry.Status = HealthUnhealthy
		entry.Message = err.Error()
	}
	return entry
}

func writeHealthJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
