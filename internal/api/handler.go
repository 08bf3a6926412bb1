// Package api provides HTTP handlers for the KBK classifier API.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/siakad-labs/kbk-classifier/internal/classifier"
	"github.com/siakad-labs/kbk-classifier/internal/config"
	"github.com/siakad-labs/kbk-classifier/internal/engine"
	"github.com/siakad-labs/kbk-classifier/internal/history"
	"github.com/siakad-labs/kbk-classifier/internal/registry"
)

// Handler provides common handler dependencies and utilities.
type Handler struct {
	registry *registry.Registry
	engine   *engine.Engine
	history  history.Store
	cfg      *config.Config
}

// NewHandler creates a new Handler with common dependencies.
func NewHandler(reg *registry.Registry, eng *engine.Engine, hist history.Store, cfg *config.Config) *Handler {
	return &Handler{
		registry: reg,
		engine:   eng,
		history:  hist,
		cfg:      cfg,
	}
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// writeDomainError maps typed core errors to response codes without
// leaking internal state to the caller.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, registry.ErrVersionNotFound):
		Error(w, http.StatusNotFound, "model version not found")
	case errors.Is(err, registry.ErrArtifactCorrupt):
		slog.Error("Stored model artifact is corrupt", "error", err)
		Error(w, http.StatusServiceUnavailable, "model artifact unavailable")
	case errors.Is(err, registry.ErrModelNotLoaded):
		Error(w, http.StatusServiceUnavailable, "no model available")
	case errors.Is(err, classifier.ErrTrainingData):
		Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, history.ErrUnavailable):
		Error(w, http.StatusServiceUnavailable, "history unavailable")
	default:
		slog.Error("Unhandled error in request", "error", err)
		Error(w, http.StatusInternalServerError, "internal error")
	}
}
