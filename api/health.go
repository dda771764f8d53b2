package api

import (
	"log/slog"
	"net/http"
)

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	service QueryService
	logger  *slog.Logger
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(service QueryService, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{service: service, logger: logger}
}

// RegisterRoutes registers health routes on the given mux.
func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.liveness)
	mux.HandleFunc("GET /ready", h.readiness)
}

// liveness is a liveness probe endpoint.
// Returns 200 OK if the process is alive.
func (h *HealthHandler) liveness(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// readiness is a readiness probe endpoint.
// Returns 503 until the RAG system is wired in, 200 after. The vector store
// is embedded in-process, so there is no further dependency to probe.
func (h *HealthHandler) readiness(w http.ResponseWriter, _ *http.Request) {
	if h.service == nil {
		h.logger.Warn("readiness check failed, service not configured")
		http.Error(w, "service not configured", http.StatusServiceUnavailable)
		return
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
