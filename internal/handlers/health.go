package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/benvon/fitness-buddy/internal/storage"
	json "github.com/goccy/go-json"
)

// HealthChecker handles health check requests
type HealthChecker struct {
	gw storage.Gateway
}

// NewHealthChecker creates a health checker probing gw
func NewHealthChecker(gw storage.Gateway) *HealthChecker {
	return &HealthChecker{gw: gw}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// HealthCheck handles /healthz. With ?mode=extended the durable store is probed.
func (h *HealthChecker) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	statusCode := http.StatusOK

	if r.URL.Query().Get("mode") == "extended" {
		checks := make(map[string]string)
		if err := h.checkStorage(r.Context()); err != nil {
			response.Status = "unhealthy"
			checks["storage"] = "unhealthy: " + sanitizeErrorMessage(err.Error())
			statusCode = http.StatusServiceUnavailable
		} else {
			checks["storage"] = "healthy"
		}
		response.Checks = checks
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(response)
}

// checkStorage reads the profile key; a missing key still proves the store answers
func (h *HealthChecker) checkStorage(ctx context.Context) error {
	if h.gw == nil {
		return errors.New("no storage configured")
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := h.gw.Get(ctx, storage.KeyProfile)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return err
	}
	return nil
}
