package smoke

import (
	"time"

	"github.com/okian/pulse/internal/domain/model"
	"github.com/okian/pulse/internal/domain/summary"
)

// Config holds configuration for a probe run.
type Config struct {
	BaseURL string        // Base URL of the service
	Timeout time.Duration // HTTP request timeout
	Workers int           // Concurrent quadrant filter requests
	Reload  bool          // POST /reload-data before probing
	Verbose bool          // Log per-quadrant results
}

// GenerateConfig controls synthetic feedback generation.
type GenerateConfig struct {
	Rows int
	// Seed makes output reproducible; zero picks a time-based seed.
	Seed uint64
	// Dirty mixes in missing, malformed and out-of-range scores plus blank roles.
	Dirty bool
}

// Employee is one record as served by GET /employees.
type Employee = model.EmployeeRecord

// Summary is the body served by GET /summary.
type Summary = summary.Report

// Status is the body served by GET /status.
type Status struct {
	Status         string `json:"status"`
	DataLoaded     bool   `json:"data_loaded"`
	TotalEmployees int    `json:"total_employees"`
	Generation     uint64 `json:"generation"`
	AnalysisReady  bool   `json:"analysis_ready"`
}

// Stats holds probe statistics.
type Stats struct {
	Generation     uint64
	TotalEmployees int
	Distribution   map[string]int
	Requests       int
	Reloaded       bool
	StartTime      time.Time
	EndTime        time.Time
	Duration       time.Duration
}
