package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/siakad-labs/kbk-classifier/internal/classifier"
	"github.com/siakad-labs/kbk-classifier/internal/domain"
	"github.com/siakad-labs/kbk-classifier/internal/metrics"
	"github.com/siakad-labs/kbk-classifier/internal/registry"
)

// ModelHandler handles prediction, training, analysis, and model
// listing endpoints.
type ModelHandler struct {
	*Handler
}

// NewModelHandler creates a model handler on shared dependencies.
func NewModelHandler(base *Handler) *ModelHandler {
	return &ModelHandler{Handler: base}
}

// RegisterRoutes registers model routes.
func (h *ModelHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Post("/predict", h.Predict)
		r.Post("/train", h.Train)
		r.Get("/analyze", h.Analyze)
		r.Get("/models", h.ListModels)
	})
}

type predictRequest struct {
	Title     string `json:"title"`
	Version   string `json:"version"`
	SessionID string `json:"session_id"`
}

// Predict classifies a title with the requested (or latest) model
// version and records the result in the session's history.
func (h *ModelHandler) Predict(w http.ResponseWriter, r *http.Request) {
	var req predictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		Error(w, http.StatusBadRequest, "title is required")
		return
	}
	if req.SessionID == "" {
		req.SessionID = r.Header.Get("X-Session-ID")
	}

	start := time.Now()
	bundle, err := h.resolveBundle(r.Context(), req.Version)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	pred, err := h.engine.Predict(bundle, req.Title)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	metrics.PredictionDuration.Observe(time.Since(start).Seconds())
	metrics.PredictionsTotal.WithLabelValues(pred.Predicted, pred.ModelVersion).Inc()

	// History is best-effort: a failed write never aborts a successful
	// prediction.
	if req.SessionID != "" {
		rec := domain.HistoryRecord{
			Title:         pred.Title,
			Predicted:     pred.Predicted,
			Probabilities: pred.Probabilities,
			ModelVersion:  pred.ModelVersion,
		}
		if _, err := h.history.Append(r.Context(), req.SessionID, rec); err != nil {
			slog.Warn("Failed to append prediction to history", "session_id", req.SessionID, "error", err)
		}
	}

	JSON(w, http.StatusOK, pred)
}

// resolveBundle loads the requested version, or the latest when the
// request does not pin one.
func (h *ModelHandler) resolveBundle(ctx context.Context, version string) (*domain.Bundle, error) {
	if version != "" {
		v, err := domain.ParseVersion(version)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", registry.ErrVersionNotFound, version)
		}
		return h.registry.Load(ctx, v)
	}

	latest, ok := h.registry.Latest(ctx)
	if !ok {
		return nil, registry.ErrModelNotLoaded
	}
	return h.registry.Load(ctx, latest)
}

type trainRequest struct {
	CSVPath     string `json:"csv_path"`
	Bump        string `json:"bump"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Train fits a new model from CSV training data and registers it as the
// next version.
func (h *ModelHandler) Train(w http.ResponseWriter, r *http.Request) {
	var req trainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	kind, err := domain.ParseBumpKind(req.Bump)
	if err != nil {
		Error(w, http.StatusBadRequest, err.Error())
		return
	}

	csvPath := req.CSVPath
	if csvPath == "" {
		csvPath = h.cfg.TrainingDataPath
	}

	samples, err := classifier.LoadTrainingCSV(csvPath)
	if err != nil {
		metrics.TrainingsTotal.WithLabelValues("invalid_data").Inc()
		writeDomainError(w, err)
		return
	}

	result, err := classifier.Train(samples, classifier.DefaultTrainOptions())
	if err != nil {
		metrics.TrainingsTotal.WithLabelValues("failed").Inc()
		writeDomainError(w, err)
		return
	}

	name := req.Name
	if name == "" {
		name = "KBK Classifier"
	}
	meta, err := h.registry.CreateVersion(r.Context(), result, kind, domain.ModelMetadata{
		Name:        name,
		Description: req.Description,
	})
	if err != nil {
		metrics.TrainingsTotal.WithLabelValues("failed").Inc()
		writeDomainError(w, err)
		return
	}
	metrics.TrainingsTotal.WithLabelValues("success").Inc()

	slog.Info("Training completed", "version", meta.Version, "samples", meta.SampleCount)
	JSON(w, http.StatusOK, map[string]interface{}{
		"message":  "model trained successfully",
		"version":  meta.Version,
		"metadata": meta,
	})
}

// Analyze returns an introspection report for a model version (latest
// when unspecified).
func (h *ModelHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	bundle, err := h.resolveBundle(r.Context(), r.URL.Query().Get("version"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	nb, okNB := bundle.Classifier.(*classifier.MultinomialNB)
	enc, okEnc := bundle.Encoder.(*classifier.TFIDFEncoder)
	if !okNB || !okEnc {
		Error(w, http.StatusInternalServerError, "bundle does not support analysis")
		return
	}

	report, err := classifier.Analyze(nb, enc, 10)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"version":  bundle.Version.String(),
		"analysis": report,
	})
}

// ListModels returns metadata for all versions, newest first.
func (h *ModelHandler) ListModels(w http.ResponseWriter, r *http.Request) {
	metas := h.registry.ListVersions(r.Context())
	if metas == nil {
		metas = []domain.ModelMetadata{}
	}
	JSON(w, http.StatusOK, map[string]interface{}{
		"models": metas,
		"count":  len(metas),
	})
}
