// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"sync"
	"time"

	repository "github.com/okian/pulse/internal/adapters/repository"
	"github.com/okian/pulse/internal/adapters/source"
	"github.com/okian/pulse/internal/domain/analysis"
	"github.com/okian/pulse/internal/domain/model"
	"github.com/okian/pulse/internal/domain/quadrant"
	"github.com/okian/pulse/internal/domain/summary"
	"github.com/okian/pulse/pkg/logger"
)

// Status is the lightweight health view of the dataset.
type Status struct {
	DataLoaded     bool       `json:"data_loaded"`
	TotalEmployees int        `json:"total_employees"`
	Generation     uint64     `json:"generation"`
	LoadedAt       *time.Time `json:"loaded_at,omitempty"`
	AnalysisReady  bool       `json:"analysis_ready"`
}

// Service implements the API dependencies for the sentiment snapshot.
type Service struct {
	mu sync.RWMutex

	// Core components
	source     source.Source
	store      repository.Store
	classifier quadrant.Classifier
	analyzer   *analysis.Analyzer
	reloader   *Reloader

	// Configuration
	reloadTimeout  time.Duration
	reloadInterval time.Duration
	initialReload  bool

	// State
	started bool
	stopCh  chan struct{}
	wg      sync.WaitGroup

	statsMu     sync.Mutex
	reloads     int
	failures    int
	lastOutcome *Outcome
	lastError   string

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithSource sets the data source read on every reload.
func WithSource(src source.Source) Option {
	return func(s *Service) {
		s.source = src
	}
}

// WithStore replaces the default in-memory snapshot store.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithClassifier sets the quadrant classifier used during reloads.
func WithClassifier(c quadrant.Classifier) Option {
	return func(s *Service) {
		if c != nil {
			s.classifier = c
		}
	}
}

// WithAnalyzer sets the analyzer answering natural-language queries.
func WithAnalyzer(a *analysis.Analyzer) Option {
	return func(s *Service) {
		if a != nil {
			s.analyzer = a
		}
	}
}

// WithReloadTimeout bounds a single reload.
func WithReloadTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.reloadTimeout = d
		}
	}
}

// WithReloadInterval enables periodic reloads. Zero disables them.
func WithReloadInterval(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.reloadInterval = d
		}
	}
}

// WithInitialReload controls whether Start loads data before returning.
func WithInitialReload(enabled bool) Option {
	return func(s *Service) {
		s.initialReload = enabled
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		reloadTimeout: defaultReloadTime,
		initialReload: true,
		stopCh:        make(chan struct{}),
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}
	if s.store == nil {
		s.store = repository.NewSnapshotStore()
	}
	if s.classifier == nil {
		s.classifier = quadrant.NewBandClassifier()
	}
	if s.analyzer == nil {
		s.analyzer = analysis.New(nil)
	}
	s.reloader = NewReloader(s.source, s.store, s.classifier, s.reloadTimeout, s.logger.Named("reload"))

	return s
}

// Start performs the initial reload and launches periodic reloads if configured.
// A failed or empty initial reload is logged and the service starts without data.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = true
	s.stopCh = make(chan struct{})
	stopCh := s.stopCh
	s.mu.Unlock()

	s.logger.Info(ctx, "starting sentiment service...")

	if s.initialReload {
		out, err := s.Reload(ctx)
		switch {
		case err != nil:
			s.logger.Warn(ctx, "service started with no initial data", logger.Error(err))
		case !out.RecordsWereFound:
			s.logger.Warn(ctx, "service started with an empty dataset")
		}
	}

	if s.reloadInterval > 0 {
		s.wg.Add(1)
		go s.reloadLoop(ctx, stopCh)
	}

	s.logger.Info(ctx, "sentiment service started",
		logger.Int("records", s.store.Current().Len()),
		logger.String("reloadInterval", s.reloadInterval.String()),
		logger.Bool("analysisConfigured", s.analyzer.Configured()),
	)
	return nil
}

func (s *Service) reloadLoop(ctx context.Context, stopCh <-chan struct{}) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.reloadInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case <-ticker.C:
			if _, err := s.Reload(ctx); err != nil {
				s.logger.Warn(ctx, "periodic reload failed", logger.Error(err))
			}
		}
	}
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.logger.Info(context.Background(), "stopping sentiment service...")

	// Signal reload loop to stop
	select {
	case <-s.stopCh:
		// Channel already closed
	default:
		close(s.stopCh)
	}
	s.started = false
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Info(context.Background(), "sentiment service stopped")
}

// Reload replaces the snapshot with a fresh read of the data source.
func (s *Service) Reload(ctx context.Context) (Outcome, error) {
	out, err := s.reloader.Reload(ctx)

	s.statsMu.Lock()
	s.reloads++
	if err != nil {
		s.failures++
		s.lastError = err.Error()
	} else {
		s.lastOutcome = &out
		s.lastError = ""
	}
	s.statsMu.Unlock()

	return out, err
}

// Snapshot returns the currently visible snapshot.
func (s *Service) Snapshot() *model.Snapshot {
	return s.store.Current()
}

// Status reports whether data is loaded and analysis can be served.
func (s *Service) Status() Status {
	snap := s.store.Current()
	st := Status{
		DataLoaded:     snap.Ready(),
		TotalEmployees: snap.Len(),
		Generation:     snap.Generation,
		AnalysisReady:  snap.Ready() && s.analyzer.Configured(),
	}
	if snap.Loaded {
		at := snap.LoadedAt
		st.LoadedAt = &at
	}
	return st
}

// Summary aggregates the current snapshot. ok is false when no records are loaded.
func (s *Service) Summary() (report summary.Report, ok bool) {
	snap := s.store.Current()
	return summary.Summarize(snap), snap.Ready()
}

// Employees lists the records in the current snapshot, optionally filtered by
// exact quadrant label. Any other label matches nothing. ok is false when no
// records are loaded.
func (s *Service) Employees(label string) (records []model.EmployeeRecord, ok bool) {
	snap := s.store.Current()
	if !snap.Ready() {
		return []model.EmployeeRecord{}, false
	}
	if label == "" {
		return model.CloneRecords(snap.Records), true
	}
	return summary.Filter(snap, quadrant.Label(label)), true
}

// Analyze answers query against the current snapshot.
func (s *Service) Analyze(ctx context.Context, query string) (analysis.Result, error) {
	return s.analyzer.Answer(ctx, query, s.store.Current())
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()

	snap := s.store.Current()
	stats := map[string]interface{}{
		"started":            started,
		"dataLoaded":         snap.Ready(),
		"totalEmployees":     snap.Len(),
		"generation":         snap.Generation,
		"reloadInterval":     s.reloadInterval.String(),
		"analysisConfigured": s.analyzer.Configured(),
	}
	if snap.Loaded {
		stats["loadedAt"] = snap.LoadedAt
		stats["snapshotId"] = snap.ID
	}

	s.statsMu.Lock()
	stats["reloads"] = s.reloads
	stats["reloadFailures"] = s.failures
	if s.lastOutcome != nil {
		stats["lastReload"] = map[string]interface{}{
			"records":     s.lastOutcome.RecordCount,
			"clamped":     s.lastOutcome.Clamped,
			"unscored":    s.lastOutcome.Unscored,
			"assignedIds": s.lastOutcome.AssignedIDs,
			"durationMs":  s.lastOutcome.Duration.Milliseconds(),
		}
	}
	if s.lastError != "" {
		stats["lastReloadError"] = s.lastError
	}
	s.statsMu.Unlock()

	return stats
}
