package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/siakad-labs/kbk-classifier/internal/domain"
)

// HistoryHandler handles session history endpoints.
type HistoryHandler struct {
	*Handler
}

// NewHistoryHandler creates a history handler on shared dependencies.
func NewHistoryHandler(base *Handler) *HistoryHandler {
	return &HistoryHandler{Handler: base}
}

// RegisterRoutes registers history routes.
func (h *HistoryHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/history", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/clear", h.Clear)
		r.Delete("/{recordID}", h.DeleteOne)
	})
}

// sessionID extracts the session identifier from query or header.
func sessionID(r *http.Request) string {
	if sid := strings.TrimSpace(r.URL.Query().Get("session_id")); sid != "" {
		return sid
	}
	return strings.TrimSpace(r.Header.Get("X-Session-ID"))
}

// List returns the session's history, newest-first.
func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	sid := sessionID(r)
	if sid == "" {
		Error(w, http.StatusBadRequest, "session_id is required")
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			Error(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	records, err := h.history.List(r.Context(), sid, limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if records == nil {
		records = []domain.HistoryRecord{}
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"history": records,
		"count":   len(records),
	})
}

type clearRequest struct {
	SessionID string `json:"session_id"`
}

// Clear deletes all history for a session.
func (h *HistoryHandler) Clear(w http.ResponseWriter, r *http.Request) {
	var req clearRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && sessionID(r) == "" {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	sid := strings.TrimSpace(req.SessionID)
	if sid == "" {
		sid = sessionID(r)
	}
	if sid == "" {
		Error(w, http.StatusBadRequest, "session_id is required")
		return
	}

	deleted, err := h.history.Clear(r.Context(), sid)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"deleted": deleted,
	})
}

// DeleteOne removes a single history record. Deleting an absent record
// is a no-op, not an error.
func (h *HistoryHandler) DeleteOne(w http.ResponseWriter, r *http.Request) {
	sid := sessionID(r)
	if sid == "" {
		Error(w, http.StatusBadRequest, "session_id is required")
		return
	}
	recordID := chi.URLParam(r, "recordID")
	if recordID == "" {
		Error(w, http.StatusBadRequest, "record id is required")
		return
	}

	deleted, err := h.history.DeleteOne(r.Context(), sid, recordID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"deleted": deleted,
	})
}
