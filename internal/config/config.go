// Package config defines service configuration structures and loading hooks.
//
// Conventions:
//   - Keys are flat and snake_case; the koanf tag is the YAML key and the
//     PULSE_ environment suffix.
//   - New returns a Config holding every default; Load layers overrides on top.
//   - External errors are wrapped with this package's sentinels.
package config

import (
	"fmt"
	"net"
	"regexp"
	"strconv"
	"strings"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/okian/pulse/internal/adapters/llm"
	"github.com/okian/pulse/internal/adapters/source"
	"github.com/okian/pulse/internal/domain/analysis"
	"github.com/okian/pulse/internal/domain/quadrant"
	"github.com/okian/pulse/pkg/logger"
	"github.com/okian/pulse/pkg/metrics"
)

var metricName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel  string `koanf:"log_level" validate:"oneof=debug info warn warning error"`
	LogFormat string `koanf:"log_format" validate:"oneof=text json"`
	// LogFile, when set, receives a rotated copy of the log stream.
	LogFile       string `koanf:"log_file"`
	LogMaxSizeMB  int    `koanf:"log_max_size_mb" validate:"gte=0"`
	LogMaxBackups int    `koanf:"log_max_backups" validate:"gte=0"`
	LogMaxAgeDays int    `koanf:"log_max_age_days" validate:"gte=0"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr            string        `koanf:"addr" validate:"required"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`

	// SourceDriver selects where feedback rows come from.
	SourceDriver  string `koanf:"source_driver" validate:"oneof=mysql postgres sqlite csv"`
	SourceDSN     string `koanf:"source_dsn"`
	SourceTable   string `koanf:"source_table" validate:"required"`
	SourceCSVPath string `koanf:"source_csv_path" validate:"required_if=SourceDriver csv"`

	ColumnEmployeeID      string `koanf:"column_employee_id" validate:"required"`
	ColumnEmployeeName    string `koanf:"column_employee_name" validate:"required"`
	ColumnContent         string `koanf:"column_content" validate:"required"`
	ColumnContentFallback string `koanf:"column_content_fallback"`
	ColumnRole            string `koanf:"column_role" validate:"required"`
	ColumnSentiment       string `koanf:"column_sentiment" validate:"required"`

	DBMaxOpenConns    int           `koanf:"db_max_open_conns" validate:"gte=1"`
	DBMaxIdleConns    int           `koanf:"db_max_idle_conns" validate:"gte=0"`
	DBConnMaxLifetime time.Duration `koanf:"db_conn_max_lifetime" validate:"gte=0"`

	// MySQL connection parts, used to build a DSN when SourceDSN is empty.
	MySQLHost     string `koanf:"mysql_host"`
	MySQLPort     int    `koanf:"mysql_port" validate:"gte=1,lte=65535"`
	MySQLUser     string `koanf:"mysql_user"`
	MySQLPassword string `koanf:"mysql_password"`
	MySQLDB       string `koanf:"mysql_db"`

	// GeminiAPIKey enables POST /analyze. Empty leaves analysis unconfigured.
	GeminiAPIKey          string  `koanf:"gemini_api_key"`
	GeminiModel           string  `koanf:"gemini_model" validate:"required"`
	GeminiTemperature     float32 `koanf:"gemini_temperature" validate:"gte=0,lte=2"`
	GeminiMaxOutputTokens int32   `koanf:"gemini_max_output_tokens" validate:"gte=1"`

	AnalysisTimeout         time.Duration `koanf:"analysis_timeout" validate:"gt=0"`
	AnalysisCacheTTL        time.Duration `koanf:"analysis_cache_ttl" validate:"gte=0"`
	AnalysisMaxSamples      int           `koanf:"analysis_max_samples" validate:"gte=0"`
	AnalysisMaxContentRunes int           `koanf:"analysis_max_content_runes" validate:"gte=1"`
	AnalysisMaxRoles        int           `koanf:"analysis_max_roles" validate:"gte=1"`
	AnalysisMaxContextRunes int           `koanf:"analysis_max_context_runes" validate:"gte=1"`

	// ReloadInterval of zero disables periodic reloads.
	ReloadInterval time.Duration `koanf:"reload_interval" validate:"gte=0"`
	ReloadTimeout  time.Duration `koanf:"reload_timeout" validate:"gt=0"`

	QuadrantChampionMin   float64 `koanf:"quadrant_champion_min"`
	QuadrantConcernedMin  float64 `koanf:"quadrant_concerned_min"`
	QuadrantDisengagedMin float64 `koanf:"quadrant_disengaged_min"`

	SystemMetricsInterval time.Duration `koanf:"system_metrics_interval" validate:"gt=0"`

	// Metrics naming. MetricsLabels is "key=value,key=value"; MetricsBuckets
	// is a comma-separated, increasing list of histogram bounds.
	MetricsEnabled   bool   `koanf:"metrics_enabled"`
	MetricsNamespace string `koanf:"metrics_namespace" validate:"required"`
	MetricsSubsystem string `koanf:"metrics_subsystem"`
	MetricsPrefix    string `koanf:"metrics_prefix"`
	MetricsLabels    string `koanf:"metrics_labels"`
	MetricsBuckets   string `koanf:"metrics_buckets"`
}

// New creates a Config holding the defaults.
func New() *Config {
	cols := source.DefaultColumns()
	limits := analysis.DefaultLimits()
	bands := quadrant.DefaultBands()
	return &Config{
		LogLevel:      "info",
		LogFormat:     "text",
		LogMaxSizeMB:  100,
		LogMaxBackups: 5,
		LogMaxAgeDays: 30,

		Addr:            ":9080",
		ShutdownTimeout: 10 * time.Second,

		SourceDriver: source.DriverMySQL,
		SourceTable:  source.DefaultTable,

		ColumnEmployeeID:      cols.EmployeeID,
		ColumnEmployeeName:    cols.EmployeeName,
		ColumnContent:         cols.Content,
		ColumnContentFallback: cols.ContentFallback,
		ColumnRole:            cols.Role,
		ColumnSentiment:       cols.Sentiment,

		DBMaxOpenConns:    100,
		DBMaxIdleConns:    10,
		DBConnMaxLifetime: time.Hour,

		MySQLHost: "localhost",
		MySQLPort: 3306,
		MySQLUser: "root",
		MySQLDB:   "fortai_employees",

		GeminiModel:           llm.DefaultModel,
		GeminiTemperature:     llm.DefaultTemperature,
		GeminiMaxOutputTokens: llm.DefaultMaxOutputTokens,

		AnalysisTimeout:         30 * time.Second,
		AnalysisCacheTTL:        5 * time.Minute,
		AnalysisMaxSamples:      limits.MaxSamples,
		AnalysisMaxContentRunes: limits.MaxContentRunes,
		AnalysisMaxRoles:        limits.MaxRoles,
		AnalysisMaxContextRunes: limits.MaxContextRunes,

		ReloadTimeout: 30 * time.Second,

		QuadrantChampionMin:   bands.ChampionMin,
		QuadrantConcernedMin:  bands.ConcernedMin,
		QuadrantDisengagedMin: bands.DisengagedMin,

		SystemMetricsInterval: 5 * time.Second,

		MetricsEnabled:   true,
		MetricsNamespace: "pulse",
		MetricsSubsystem: "sentiment",
	}
}

// DSN returns the connection string for the relational drivers. An explicit
// SourceDSN wins; otherwise MySQL DSNs are assembled from the mysql_* parts.
func (c *Config) DSN() string {
	if c.SourceDSN != "" || c.SourceDriver != source.DriverMySQL {
		return c.SourceDSN
	}
	mc := mysqldriver.NewConfig()
	mc.User = c.MySQLUser
	mc.Passwd = c.MySQLPassword
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(c.MySQLHost, strconv.Itoa(c.MySQLPort))
	mc.DBName = c.MySQLDB
	mc.ParseTime = true
	return mc.FormatDSN()
}

// Columns returns the configured column mapping.
func (c *Config) Columns() source.Columns {
	return source.Columns{
		EmployeeID:      c.ColumnEmployeeID,
		EmployeeName:    c.ColumnEmployeeName,
		Content:         c.ColumnContent,
		ContentFallback: c.ColumnContentFallback,
		Role:            c.ColumnRole,
		Sentiment:       c.ColumnSentiment,
	}
}

// SourceConfig returns the data source settings.
func (c *Config) SourceConfig() source.Config {
	return source.Config{
		Driver:          c.SourceDriver,
		DSN:             c.DSN(),
		Table:           c.SourceTable,
		CSVPath:         c.SourceCSVPath,
		Columns:         c.Columns(),
		MaxIdleConns:    c.DBMaxIdleConns,
		MaxOpenConns:    c.DBMaxOpenConns,
		ConnMaxLifetime: c.DBConnMaxLifetime,
	}
}

// GeminiConfig returns the completion client settings.
func (c *Config) GeminiConfig() llm.GeminiConfig {
	temperature := c.GeminiTemperature
	return llm.GeminiConfig{
		APIKey:          c.GeminiAPIKey,
		Model:           c.GeminiModel,
		Temperature:     &temperature,
		MaxOutputTokens: c.GeminiMaxOutputTokens,
	}
}

// AnalysisLimits returns the context size limits.
func (c *Config) AnalysisLimits() analysis.Limits {
	return analysis.Limits{
		MaxSamples:      c.AnalysisMaxSamples,
		MaxContentRunes: c.AnalysisMaxContentRunes,
		MaxRoles:        c.AnalysisMaxRoles,
		MaxContextRunes: c.AnalysisMaxContextRunes,
	}
}

// Bands returns the quadrant cut points.
func (c *Config) Bands() quadrant.Bands {
	return quadrant.Bands{
		ChampionMin:   c.QuadrantChampionMin,
		ConcernedMin:  c.QuadrantConcernedMin,
		DisengagedMin: c.QuadrantDisengagedMin,
	}
}

// LoggerOptions returns the global logger settings.
func (c *Config) LoggerOptions() logger.Options {
	return logger.Options{
		Format:     c.LogFormat,
		File:       c.LogFile,
		MaxSizeMB:  c.LogMaxSizeMB,
		MaxBackups: c.LogMaxBackups,
		MaxAgeDays: c.LogMaxAgeDays,
	}
}

// MetricsOptions returns the metrics manager settings.
func (c *Config) MetricsOptions() ([]metrics.Option, error) {
	for _, name := range []string{c.MetricsNamespace, c.MetricsSubsystem, c.MetricsPrefix} {
		if name != "" && !metricName.MatchString(name) {
			return nil, fmt.Errorf("metric name part %q is invalid", name)
		}
	}

	labels := map[string]string{}
	for _, pair := range strings.Split(c.MetricsLabels, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		k, v, ok := strings.Cut(pair, "=")
		k = strings.TrimSpace(k)
		if !ok || !metricName.MatchString(k) {
			return nil, fmt.Errorf("metrics label %q is not key=value", pair)
		}
		labels[k] = strings.TrimSpace(v)
	}

	var buckets []float64
	for _, f := range strings.Split(c.MetricsBuckets, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		b, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("metrics bucket %q: %w", f, err)
		}
		if n := len(buckets); n > 0 && b <= buckets[n-1] {
			return nil, fmt.Errorf("metrics buckets must increase, got %v after %v", b, buckets[n-1])
		}
		buckets = append(buckets, b)
	}

	return []metrics.Option{
		metrics.WithMetricsEnabled(c.MetricsEnabled),
		metrics.WithNamespace(c.MetricsNamespace),
		metrics.WithSubsystem(c.MetricsSubsystem),
		metrics.WithMetricPrefix(c.MetricsPrefix),
		metrics.WithCustomLabels(labels),
		metrics.WithHistogramBuckets(buckets),
	}, nil
}
