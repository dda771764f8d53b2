package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/lectern/lectern/internal/course"
	"github.com/lectern/lectern/internal/rag"
)

// MaxQueryLength bounds the accepted question size in bytes.
const MaxQueryLength = 10000

// QueryHandler handles the question answering endpoint.
type QueryHandler struct {
	service QueryService
	logger  *slog.Logger
}

// NewQueryHandler creates a new query handler.
func NewQueryHandler(service QueryService, logger *slog.Logger) *QueryHandler {
	return &QueryHandler{service: service, logger: logger}
}

// RegisterRoutes registers query routes on the given mux.
func (h *QueryHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/query", h.query)
}

// QueryRequest is the request body for answering a question.
// SessionID is optional; omitting it starts a new session.
type QueryRequest struct {
	Query     string `json:"query"`
	SessionID string `json:"session_id,omitempty"`
}

// QueryResponse is the answer to a question.
type QueryResponse struct {
	Answer    string          `json:"answer"`
	Sources   []course.Source `json:"sources"`
	SessionID string          `json:"session_id"`
}

// query answers a question, creating a session if none was supplied.
func (h *QueryHandler) query(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(h.logger, w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}

	if strings.TrimSpace(req.Query) == "" {
		writeError(h.logger, w, http.StatusBadRequest, "invalid_request", "query is required")
		return
	}
	if len(req.Query) > MaxQueryLength {
		writeError(h.logger, w, http.StatusBadRequest, "invalid_request", "query too long")
		return
	}

	answer, err := h.service.Query(r.Context(), req.Query, req.SessionID)
	if err != nil {
		if errors.Is(err, rag.ErrInvalidSession) {
			writeError(h.logger, w, http.StatusBadRequest, "invalid_session", "session_id is not a valid UUID")
			return
		}
		h.logger.Error("query failed", "error", err)
		writeError(h.logger, w, http.StatusInternalServerError, "query_failed", "failed to answer query")
		return
	}

	// Sources serializes as [] rather than null for empty results.
	sources := answer.Sources
	if sources == nil {
		sources = []course.Source{}
	}

	writeJSON(h.logger, w, http.StatusOK, QueryResponse{
		Answer:    answer.Text,
		Sources:   sources,
		SessionID: answer.SessionID.String(),
	})
}
