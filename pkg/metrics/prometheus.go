// Package metrics provides Prometheus metrics for the pulse sentiment service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the pulse service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Reload Metrics - full re-derivation of the dataset
	reloads          *prometheus.CounterVec
	reloadDuration   prometheus.Histogram
	recordsLoaded    prometheus.Gauge
	recordsClamped   prometheus.Counter
	recordsUnscored  prometheus.Counter
	quadrantRecords  *prometheus.GaugeVec
	averageSentiment prometheus.Gauge

	// Snapshot Metrics - Record store publications
	snapshotGeneration prometheus.Gauge
	snapshotLastUnix   prometheus.Gauge
	snapshotCount      prometheus.Counter
	snapshotInstallMs  prometheus.Histogram

	// Analysis Metrics - Completion service usage
	analysisRequests *prometheus.CounterVec
	analysisLatency  prometheus.Histogram

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error Metrics
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec
	errorLatency         *prometheus.HistogramVec

	// System Performance Metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry *prometheus.Registry //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	Init()
}

// Init replaces the global manager with one built from opts on a fresh
// registry and returns that registry. Call it at startup, before metrics are
// recorded or the registry is served.
func Init(opts ...Option) *prometheus.Registry {
	registry := prometheus.NewRegistry()
	globalManager = NewManager(append(opts, WithPrometheusRegistry(registry))...)
	customRegistry = registry
	return registry
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "pulse",
		subsystem:        "sentiment",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		customLabels:     make(map[string]string),
		metricPrefix:     "",
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)
	latencyBuckets := []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000}

	m.reloads = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.metricPrefix + "reloads_total",
		Help:        "Total number of dataset reloads by outcome (success, empty, failed)",
		ConstLabels: m.customLabels,
	}, []string{"outcome"})

	m.reloadDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.metricPrefix + "reload_duration_milliseconds",
		Help:        "Duration of a full fetch-classify-install reload in milliseconds",
		Buckets:     latencyBuckets,
		ConstLabels: m.customLabels,
	})

	m.recordsLoaded = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.metricPrefix + "records_loaded",
		Help:        "Number of employee records in the current snapshot",
		ConstLabels: m.customLabels,
	})

	m.recordsClamped = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.metricPrefix + "records_clamped_total",
		Help:        "Rows whose sentiment score was clamped into 0-100 (upstream data quality)",
		ConstLabels: m.customLabels,
	})

	m.recordsUnscored = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.metricPrefix + "records_unscored_total",
		Help:        "Rows loaded without a usable sentiment score (classified Unknown)",
		ConstLabels: m.customLabels,
	})

	m.quadrantRecords = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.metricPrefix + "quadrant_records",
		Help:        "Number of records per quadrant in the current snapshot",
		ConstLabels: m.customLabels,
	}, []string{"quadrant"})

	m.averageSentiment = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.metricPrefix + "average_sentiment",
		Help:        "Mean sentiment score of the current snapshot",
		ConstLabels: m.customLabels,
	})

	m.snapshotGeneration = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.metricPrefix + "snapshot_generation",
		Help:        "Generation number of the currently installed snapshot",
		ConstLabels: m.customLabels,
	})

	m.snapshotLastUnix = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.metricPrefix + "snapshot_last_unix",
		Help:        "Unix timestamp of the last snapshot install",
		ConstLabels: m.customLabels,
	})

	m.snapshotCount = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.metricPrefix + "snapshot_count_total",
		Help:        "Total number of snapshots installed",
		ConstLabels: m.customLabels,
	})

	m.snapshotInstallMs = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.metricPrefix + "snapshot_install_duration_milliseconds",
		Help:        "Time spent copying and publishing a snapshot in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.customLabels,
	})

	m.analysisRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.metricPrefix + "analysis_requests_total",
		Help:        "Natural-language analysis requests by outcome",
		ConstLabels: m.customLabels,
	}, []string{"outcome"})

	m.analysisLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.metricPrefix + "analysis_latency_milliseconds",
		Help:        "Latency of individual completion service attempts in milliseconds",
		Buckets:     latencyBuckets,
		ConstLabels: m.customLabels,
	})

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.metricPrefix + "http_requests_total",
			Help:        "Total number of HTTP requests by endpoint and method",
			ConstLabels: m.customLabels,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.metricPrefix + "http_request_duration_milliseconds",
			Help:        "HTTP request duration in milliseconds (user experience)",
			Buckets:     m.histogramBuckets,
			ConstLabels: m.customLabels,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.errorRateByComponent = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.metricPrefix + "errors_by_component_total",
			Help:        "Total number of errors by component",
			ConstLabels: m.customLabels,
		},
		[]string{"component", "error_type"},
	)

	m.errorRateByType = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.metricPrefix + "errors_by_type_total",
			Help:        "Total number of errors by type",
			ConstLabels: m.customLabels,
		},
		[]string{"error_type", "severity"},
	)

	m.errorRateByEndpoint = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.metricPrefix + "errors_by_endpoint_total",
			Help:        "Total number of errors by endpoint",
			ConstLabels: m.customLabels,
		},
		[]string{"endpoint", "method", "error_type"},
	)

	m.errorLatency = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.metricPrefix + "error_latency_milliseconds",
			Help:        "Latency of operations that resulted in errors",
			Buckets:     m.histogramBuckets,
			ConstLabels: m.customLabels,
		},
		[]string{"component", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.metricPrefix + "system_memory_usage_bytes",
		Help:        "System memory usage in bytes",
		ConstLabels: m.customLabels,
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.metricPrefix + "system_goroutine_count",
		Help:        "Number of goroutines",
		ConstLabels: m.customLabels,
	})

	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.metricPrefix + "system_gc_pause_time_milliseconds",
		Help:        "GC pause time in milliseconds",
		Buckets:     []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
		ConstLabels: m.customLabels,
	})
}

// RecordReload counts one reload with its outcome and duration.
func RecordReload(outcome string, durationMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.reloads.WithLabelValues(outcome).Inc()
	globalManager.reloadDuration.Observe(durationMs)
}

// RecordRecordQuality adds the clamped and unscored row counts of one reload.
func RecordRecordQuality(clamped, unscored int) {
	if !globalManager.enabled {
		return
	}
	globalManager.recordsClamped.Add(float64(clamped))
	globalManager.recordsUnscored.Add(float64(unscored))
}

// UpdateDatasetGauges publishes the shape of the current snapshot.
func UpdateDatasetGauges(records int, average float64, distribution map[string]int) {
	if !globalManager.enabled {
		return
	}
	globalManager.recordsLoaded.Set(float64(records))
	globalManager.averageSentiment.Set(average)
	globalManager.quadrantRecords.Reset()
	for q, n := range distribution {
		globalManager.quadrantRecords.WithLabelValues(q).Set(float64(n))
	}
}

// RecordSnapshotInstalled records a snapshot publication.
func RecordSnapshotInstalled(generation uint64, at time.Time, durationMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.snapshotGeneration.Set(float64(generation))
	globalManager.snapshotLastUnix.Set(float64(at.Unix()))
	globalManager.snapshotCount.Inc()
	globalManager.snapshotInstallMs.Observe(durationMs)
}

// RecordAnalysisRequest counts an analysis request by outcome.
func RecordAnalysisRequest(outcome string) {
	if !globalManager.enabled {
		return
	}
	globalManager.analysisRequests.WithLabelValues(outcome).Inc()
}

// RecordAnalysisLatency records one completion attempt latency.
func RecordAnalysisLatency(latencyMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.analysisLatency.Observe(latencyMs)
}

// RecordHTTPRequest increments the HTTP requests counter.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if !globalManager.enabled {
		return
	}
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent increments error counter by component.
func RecordErrorByComponent(component, errorType string) {
	if !globalManager.enabled {
		return
	}
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType increments error counter by type.
func RecordErrorByType(errorType, severity string) {
	if !globalManager.enabled {
		return
	}
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint increments error counter by endpoint.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	if !globalManager.enabled {
		return
	}
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorLatency records latency for operations that resulted in errors.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
}

// UpdateSystemMemoryUsage updates the system memory usage gauge.
func UpdateSystemMemoryUsage(bytes uint64) {
	if !globalManager.enabled {
		return
	}
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount updates the goroutine count gauge.
func UpdateSystemGoroutineCount(count int) {
	if !globalManager.enabled {
		return
	}
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time.
func RecordSystemGCPauseTime(pauseMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom registry used for metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
