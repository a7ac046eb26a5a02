package api

import (
	"net/http"
)

// SummaryDependencies defines the interface for summary operations.
type SummaryDependencies interface {
	Summary() (Report, bool)
}

// SummaryHandler handles summary requests.
type SummaryHandler struct {
	deps SummaryDependencies
}

// NewSummaryHandler creates a new summary handler.
func NewSummaryHandler(deps SummaryDependencies) *SummaryHandler {
	return &SummaryHandler{deps: deps}
}

// HandleSummary handles GET /summary requests.
func (h *SummaryHandler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_summary"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	report, ok := h.deps.Summary()
	if !ok {
		writeError(w, http.StatusNotFound, "not_loaded", NewKind(op, ErrNotLoaded))
		return
	}
	writeJSON(w, http.StatusOK, report)
}
