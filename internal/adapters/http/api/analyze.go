package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/okian/pulse/internal/domain/analysis"
)

const maxAnalyzeBody = 64 << 10

// AnalyzeDependencies defines the interface for natural-language analysis.
type AnalyzeDependencies interface {
	Analyze(ctx context.Context, query string) (Result, error)
}

// AnalyzeHandler handles analysis requests.
type AnalyzeHandler struct {
	deps     AnalyzeDependencies
	validate *validator.Validate
}

// NewAnalyzeHandler creates a new analyze handler.
func NewAnalyzeHandler(deps AnalyzeDependencies) *AnalyzeHandler {
	return &AnalyzeHandler{deps: deps, validate: validator.New(validator.WithRequiredStructEnabled())}
}

// analyzeRequest mirrors the OpenAPI schema for POST /analyze.
type analyzeRequest struct {
	Query string `json:"query" validate:"required,max=4000"`
}

type analyzeResponse struct {
	Analysis string `json:"analysis"`
}

// HandleAnalyze handles POST /analyze requests.
func (h *AnalyzeHandler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_analyze"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req analyzeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxAnalyzeBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	req.Query = strings.TrimSpace(req.Query)
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errors.New("query must be a non-empty string of at most 4000 characters")))
		return
	}

	res, err := h.deps.Analyze(r.Context(), req.Query)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, analyzeResponse{Analysis: res.Analysis})
	case errors.Is(err, analysis.ErrInvalidQuery):
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
	case errors.Is(err, analysis.ErrNotReady):
		writeError(w, http.StatusServiceUnavailable, "not_ready", WrapKind(op, ErrUnavailable, err))
	default:
		writeError(w, http.StatusServiceUnavailable, "analysis_unavailable", WrapKind(op, ErrUnavailable, err))
	}
}
