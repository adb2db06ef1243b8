package handler

import (
	"net/http"
)

// HealthStatus is the body of the health check.
type HealthStatus struct {
	Status  string `json:"status"`
	Oracle  string `json:"oracle"`
	Storage string `json:"storage"`
}

// HealthHandler answers liveness probes.
type HealthHandler struct {
	status HealthStatus
}

// NewHealthHandler creates a health handler reporting the oracle mode
// ("live" or "mock") and whether audit storage is enabled.
func NewHealthHandler(oracleLive, storageEnabled bool) *HealthHandler {
	status := HealthStatus{Status: "healthy", Oracle: "mock", Storage: "disabled"}
	if oracleLive {
		status.Oracle = "live"
	}
	if storageEnabled {
		status.Storage = "enabled"
	}
	return &HealthHandler{status: status}
}

// Health handles GET /health requests.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.status)
}

// Test handles GET /api/test requests.
func (h *HealthHandler) Test(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("API is running"))
}
