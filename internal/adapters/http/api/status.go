package api

import (
	"net/http"

	service "github.com/okian/pulse/internal/app"
)

// StatusDependencies defines the interface for the status endpoint.
type StatusDependencies interface {
	Status() service.Status
}

// StatusHandler handles status requests.
type StatusHandler struct {
	deps StatusDependencies
}

// NewStatusHandler creates a new status handler.
func NewStatusHandler(deps StatusDependencies) *StatusHandler {
	return &StatusHandler{deps: deps}
}

type statusResponse struct {
	State string `json:"status"`
	service.Status
}

// HandleStatus handles GET /status requests.
func (h *StatusHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{State: "online", Status: h.deps.Status()})
}
