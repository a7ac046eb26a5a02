package api

import (
	"net/http"
	"strings"
)

// EmployeesDependencies defines the interface for employee listing.
type EmployeesDependencies interface {
	Employees(label string) ([]Record, bool)
}

// EmployeesHandler handles employee listing requests.
type EmployeesHandler struct {
	deps EmployeesDependencies
}

// NewEmployeesHandler creates a new employees handler.
func NewEmployeesHandler(deps EmployeesDependencies) *EmployeesHandler {
	return &EmployeesHandler{deps: deps}
}

// HandleEmployees handles GET /employees?quadrant=<label> requests.
// An unknown label yields an empty array rather than an error.
func (h *EmployeesHandler) HandleEmployees(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_employees"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	label := strings.TrimSpace(r.URL.Query().Get("quadrant"))
	records, ok := h.deps.Employees(label)
	if !ok {
		writeError(w, http.StatusNotFound, "not_loaded", NewKind(op, ErrNotLoaded))
		return
	}
	if records == nil {
		records = []Record{}
	}
	writeJSON(w, http.StatusOK, records)
}
