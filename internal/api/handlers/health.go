package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/irfndi/exohunter-go/internal/services"
)

// HealthChecker is a dependency that can be pinged.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

type HealthHandler struct {
	db              HealthChecker
	redis           HealthChecker
	monitor         *services.SystemMonitor
	telegramEnabled bool
	version         string
	started         time.Time
}

type HealthResponse struct {
	Status    string                   `json:"status"`
	Timestamp time.Time                `json:"timestamp"`
	Services  map[string]string        `json:"services"`
	Version   string                   `json:"version"`
	Uptime    string                   `json:"uptime"`
	System    *services.SystemSnapshot `json:"system,omitempty"`
}

// NewHealthHandler creates the health endpoints. A nil db or redis is
// reported as disabled, which does not degrade the service.
func NewHealthHandler(db, redis HealthChecker, monitor *services.SystemMonitor, telegramEnabled bool, version string) *HealthHandler {
	return &HealthHandler{
		db:              db,
		redis:           redis,
		monitor:         monitor,
		telegramEnabled: telegramEnabled,
		version:         version,
		started:         time.Now(),
	}
}

func probe(ctx context.Context, dep HealthChecker) string {
	if dep == nil {
		return "disabled"
	}
	if err := dep.HealthCheck(ctx); err != nil {
		return "unhealthy: " + err.Error()
	}
	return "healthy"
}

func (h *HealthHandler) serviceStatuses(ctx context.Context) map[string]string {
	statuses := map[string]string{
		"database": probe(ctx, h.db),
		"redis":    probe(ctx, h.redis),
		"telegram": "disabled",
	}
	if h.telegramEnabled {
		statuses["telegram"] = "healthy"
	}
	return statuses
}

func overallStatus(statuses map[string]string) string {
	for _, status := range statuses {
		if strings.HasPrefix(status, "unhealthy") {
			return "degraded"
		}
	}
	return "healthy"
}

func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	statuses := h.serviceStatuses(r.Context())
	response := HealthResponse{
		Status:    overallStatus(statuses),
		Timestamp: time.Now(),
		Services:  statuses,
		Version:   h.version,
		Uptime:    time.Since(h.started).Round(time.Second).String(),
	}

	if h.monitor != nil {
		if snapshot, err := h.monitor.Collect(r.Context()); err == nil {
			response.System = &snapshot
		}
	}

	status := http.StatusOK
	if response.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, response)
}

// ReadinessCheck fails while any configured dependency is unreachable.
func (h *HealthHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	statuses := h.serviceStatuses(r.Context())
	ready := overallStatus(statuses) == "healthy"

	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]interface{}{
		"ready":    ready,
		"services": statuses,
	})
}

// LivenessCheck only reports that the process is serving.
func (h *HealthHandler) LivenessCheck(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}
