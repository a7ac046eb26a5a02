package api

import (
	"context"
	"fmt"
	"net/http"

	service "github.com/okian/pulse/internal/app"
)

// ReloadDependencies defines the interface for triggering a reload.
type ReloadDependencies interface {
	Reload(ctx context.Context) (service.Outcome, error)
}

// ReloadHandler handles reload requests.
type ReloadHandler struct {
	deps ReloadDependencies
}

// NewReloadHandler creates a new reload handler.
func NewReloadHandler(deps ReloadDependencies) *ReloadHandler {
	return &ReloadHandler{deps: deps}
}

type reloadResponse struct {
	Status         string `json:"status"`
	Message        string `json:"message"`
	TotalEmployees int    `json:"total_employees"`
	Clamped        int    `json:"clamped,omitempty"`
	Unscored       int    `json:"unscored,omitempty"`
	Generation     uint64 `json:"generation,omitempty"`
}

// HandleReload handles POST /reload-data requests.
func (h *ReloadHandler) HandleReload(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_reload"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	out, err := h.deps.Reload(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "reload_failed", Wrap(op, err))
		return
	}
	if !out.RecordsWereFound {
		writeJSON(w, http.StatusNotFound, reloadResponse{
			Status:         "warning",
			Message:        "Reload command executed, but no data was returned from the data source.",
			TotalEmployees: 0,
			Generation:     out.Generation,
		})
		return
	}
	writeJSON(w, http.StatusOK, reloadResponse{
		Status:         "success",
		Message:        fmt.Sprintf("Successfully reloaded %d records.", out.RecordCount),
		TotalEmployees: out.RecordCount,
		Clamped:        out.Clamped,
		Unscored:       out.Unscored,
		Generation:     out.Generation,
	})
}
