package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/lectern/lectern/internal/rag"
)

// SessionHandler handles session management endpoints.
type SessionHandler struct {
	service QueryService
	logger  *slog.Logger
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(service QueryService, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{service: service, logger: logger}
}

// RegisterRoutes registers session routes on the given mux.
func (h *SessionHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("DELETE /api/sessions/{id}", h.clear)
}

// ClearSessionResponse acknowledges a cleared session.
type ClearSessionResponse struct {
	Success bool `json:"success"`
}

// clear removes a session's conversation history. Clearing a session that
// doesn't exist still succeeds, so clients can retry safely.
func (h *SessionHandler) clear(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := h.service.ClearSession(id); err != nil {
		if errors.Is(err, rag.ErrInvalidSession) {
			writeError(h.logger, w, http.StatusBadRequest, "invalid_session", "session id is not a valid UUID")
			return
		}
		h.logger.Error("clearing session failed", "error", err)
		writeError(h.logger, w, http.StatusInternalServerError, "clear_failed", "failed to clear session")
		return
	}

	writeJSON(h.logger, w, http.StatusOK, ClearSessionResponse{Success: true})
}
