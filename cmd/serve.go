package main

import (
	"context"
	"errors"
	"net/http"
	"runtime"
	"time"

	"github.com/okian/pulse/internal/adapters/http/api"
	"github.com/okian/pulse/internal/adapters/http/site"
	"github.com/okian/pulse/internal/adapters/http/swagger"
	"github.com/okian/pulse/internal/adapters/llm"
	"github.com/okian/pulse/internal/adapters/source"
	service "github.com/okian/pulse/internal/app"
	"github.com/okian/pulse/internal/config"
	"github.com/okian/pulse/internal/domain/analysis"
	"github.com/okian/pulse/internal/domain/quadrant"
	"github.com/okian/pulse/pkg/logger"
	"github.com/okian/pulse/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 10 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	nanosecondsPerMillisecond = 1e6
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Load the snapshot and serve the HTTP API",
	Long: `Loads feedback from the configured source, then serves the dashboard,
the JSON API, the OpenAPI document and Prometheus metrics.

A failed initial load is logged and the server starts without data;
POST /reload-data or the periodic reload (reload_interval) retries it.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	// Our metrics live on a custom registry; drop the default collectors.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	defer syncLogger(ctx)
	log := logger.Get()

	metricOpts, err := cfg.MetricsOptions()
	if err != nil {
		return err
	}
	metrics.Init(metricOpts...)

	src := source.NewLazy(cfg.SourceConfig(), source.WithLogger(log.Named("source")))
	defer func() {
		if err := src.Close(); err != nil {
			log.Error(ctx, "failed to close data source", logger.Error(err))
		}
	}()

	svc := service.New(
		service.WithLogger(log),
		service.WithSource(src),
		service.WithClassifier(quadrant.NewBandClassifier(quadrant.WithBands(cfg.Bands()))),
		service.WithAnalyzer(newAnalyzer(ctx, cfg, log)),
		service.WithReloadTimeout(cfg.ReloadTimeout),
		service.WithReloadInterval(cfg.ReloadInterval),
	)
	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer svc.Stop()

	go startSystemMetricsUpdater(ctx, cfg.SystemMetricsInterval)

	// HTTP mux and routes.
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	site.Register(ctx, mux)
	api.NewServer(svc, svc).Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      responseTimeout(cfg),
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return err
		}
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
	return nil
}

// newAnalyzer wires the completion client when an API key is configured.
// Without one the analyzer answers every query with ErrNotReady.
func newAnalyzer(ctx context.Context, cfg *config.Config, log logger.Logger) *analysis.Analyzer {
	opts := []analysis.Option{
		analysis.WithLimits(cfg.AnalysisLimits()),
		analysis.WithTimeout(cfg.AnalysisTimeout),
		analysis.WithCacheTTL(cfg.AnalysisCacheTTL),
		analysis.WithLogger(log.Named("analysis")),
	}
	if cfg.GeminiAPIKey == "" {
		log.Warn(ctx, "gemini_api_key not set; POST /analyze is disabled")
		return analysis.New(nil, opts...)
	}
	g, err := llm.NewGemini(ctx, cfg.GeminiConfig())
	if err != nil {
		log.Error(ctx, "failed to create completion client; POST /analyze is disabled", logger.Error(err))
		return analysis.New(nil, opts...)
	}
	log.Info(ctx, "analysis enabled", logger.String("model", g.Model()))
	return analysis.New(g, opts...)
}

// responseTimeout leaves room for a retried completion or a full reload.
func responseTimeout(cfg *config.Config) time.Duration {
	d := max(writeTimeout, 2*cfg.AnalysisTimeout, cfg.ReloadTimeout)
	return d + writeTimeout
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}
