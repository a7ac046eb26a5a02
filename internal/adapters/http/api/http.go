// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	service "github.com/okian/pulse/internal/app"
	"github.com/okian/pulse/internal/domain/analysis"
	"github.com/okian/pulse/internal/domain/model"
	"github.com/okian/pulse/internal/domain/summary"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	StatusDependencies
	SummaryDependencies
	EmployeesDependencies
	AnalyzeDependencies
	ReloadDependencies
}

// Record mirrors the employee shape returned by read endpoints.
type Record = model.EmployeeRecord

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	statusHandler    *StatusHandler
	summaryHandler   *SummaryHandler
	employeesHandler *EmployeesHandler
	analyzeHandler   *AnalyzeHandler
	reloadHandler    *ReloadHandler
	dashboardHandler *dashboardHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(statsProvider),
		statusHandler:    NewStatusHandler(deps),
		summaryHandler:   NewSummaryHandler(deps),
		employeesHandler: NewEmployeesHandler(deps),
		analyzeHandler:   NewAnalyzeHandler(deps),
		reloadHandler:    NewReloadHandler(deps),
		dashboardHandler: newdashboardHandler(),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/dashboard", s.dashboardHandler.HandleDashboard)
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/status", MetricsMiddleware(CORSMiddleware(s.statusHandler.HandleStatus), "status"))
	mux.HandleFunc("/summary", MetricsMiddleware(CORSMiddleware(s.summaryHandler.HandleSummary), "summary"))
	mux.HandleFunc("/employees", MetricsMiddleware(CORSMiddleware(s.employeesHandler.HandleEmployees), "employees"))
	mux.HandleFunc("/analyze", MetricsMiddleware(CORSMiddleware(s.analyzeHandler.HandleAnalyze), "analyze"))
	mux.HandleFunc("/reload-data", MetricsMiddleware(CORSMiddleware(s.reloadHandler.HandleReload), "reload"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// compile-time checks that the service satisfies the handler contracts.
var (
	_ Dependencies  = (*service.Service)(nil)
	_ StatsProvider = (*service.Service)(nil)
)

// Shapes re-exported for handler signatures.
type (
	Report = summary.Report
	Result = analysis.Result
)
