package api

import (
	"log/slog"
	"net/http"
)

// CourseHandler handles course catalog endpoints.
type CourseHandler struct {
	service QueryService
	logger  *slog.Logger
}

// NewCourseHandler creates a new course handler.
func NewCourseHandler(service QueryService, logger *slog.Logger) *CourseHandler {
	return &CourseHandler{service: service, logger: logger}
}

// RegisterRoutes registers course routes on the given mux.
func (h *CourseHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/courses", h.stats)
}

// CourseStatsResponse summarizes the indexed catalog.
type CourseStatsResponse struct {
	TotalCourses int      `json:"total_courses"`
	CourseTitles []string `json:"course_titles"`
}

// stats returns the number of indexed courses and their titles.
func (h *CourseHandler) stats(w http.ResponseWriter, _ *http.Request) {
	s := h.service.Stats()

	titles := s.CourseTitles
	if titles == nil {
		titles = []string{}
	}

	writeJSON(h.logger, w, http.StatusOK, CourseStatsResponse{
		TotalCourses: s.TotalCourses,
		CourseTitles: titles,
	})
}
