package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// HealthHandler handles the health check endpoint.
type HealthHandler struct {
	*Handler
}

// NewHealthHandler creates a health handler on shared dependencies.
func NewHealthHandler(base *Handler) *HealthHandler {
	return &HealthHandler{Handler: base}
}

// RegisterHealth registers the health check route.
func (h *HealthHandler) RegisterHealth(r chi.Router) {
	r.Get("/health", h.Health)
}

// Health reports service status. The probe never fails with an
// internal error: backing-store trouble degrades the reported status
// instead.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	connected := h.history.HealthCheck(ctx)
	models := len(h.registry.ListVersions(ctx))

	status := "healthy"
	statusCode := http.StatusOK
	if !connected {
		status = "degraded"
		statusCode = http.StatusServiceUnavailable
	}

	JSON(w, statusCode, map[string]interface{}{
		"status":                  status,
		"backing_store_connected": connected,
		"models_available":        models,
	})
}
