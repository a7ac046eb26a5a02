package config_test

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/okian/pulse/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		_ = os.Setenv("PULSE_ENV_FILE", "/non/existent/.env")
		defer clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.SourceDriver, convey.ShouldEqual, "mysql")
				convey.So(cfg.MySQLHost, convey.ShouldEqual, "localhost")
				convey.So(cfg.GeminiAPIKey, convey.ShouldEqual, "")
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("PULSE_ADDR", ":8080")
			_ = os.Setenv("PULSE_SOURCE_DRIVER", "sqlite")
			_ = os.Setenv("PULSE_SOURCE_DSN", "file:pulse.db")
			_ = os.Setenv("PULSE_RELOAD_INTERVAL", "5m")
			_ = os.Setenv("PULSE_GEMINI_TEMPERATURE", "0.25")
			_ = os.Setenv("PULSE_ANALYSIS_MAX_SAMPLES", "7")
			_ = os.Setenv("PULSE_METRICS_ENABLED", "false")
			_ = os.Setenv("PULSE_METRICS_LABELS", "env=staging")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.SourceDriver, convey.ShouldEqual, "sqlite")
				convey.So(cfg.DSN(), convey.ShouldEqual, "file:pulse.db")
				convey.So(cfg.ReloadInterval, convey.ShouldEqual, 5*time.Minute)
				convey.So(cfg.GeminiTemperature, convey.ShouldEqual, float32(0.25))
				convey.So(cfg.AnalysisMaxSamples, convey.ShouldEqual, 7)
				convey.So(cfg.MetricsEnabled, convey.ShouldBeFalse)
				convey.So(cfg.MetricsLabels, convey.ShouldEqual, "env=staging")
			})
		})

		convey.Convey("When the unprefixed secret variables are set", func() {
			_ = os.Setenv("GEMINI_API_KEY", "legacy-key")
			_ = os.Setenv("MYSQL_HOST", "db")
			_ = os.Setenv("MYSQL_PORT", "3310")
			_ = os.Setenv("MYSQL_PASSWORD", "pw")

			cfg, err := config.Load(ctx)

			convey.Convey("Then they should be honoured", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.GeminiAPIKey, convey.ShouldEqual, "legacy-key")
				convey.So(cfg.MySQLHost, convey.ShouldEqual, "db")
				convey.So(cfg.MySQLPort, convey.ShouldEqual, 3310)
				convey.So(cfg.DSN(), convey.ShouldStartWith, "root:pw@tcp(db:3310)/fortai_employees")
			})

			convey.Convey("And the prefixed variable is also set", func() {
				_ = os.Setenv("PULSE_GEMINI_API_KEY", "prefixed-key")

				cfg, err := config.Load(ctx)

				convey.Convey("Then the prefixed variable should win", func() {
					convey.So(err, convey.ShouldBeNil)
					convey.So(cfg.GeminiAPIKey, convey.ShouldEqual, "prefixed-key")
				})
			})
		})

		convey.Convey("When loading config from a YAML file", func() {
			yamlContent := `
addr: ":9090"
source_driver: csv
source_csv_path: /data/feedback.csv
column_role: job_title
reload_interval: 90s
quadrant_champion_min: 80
`
			tmpFile := createTempFile("pulse-config-*.yaml", yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("PULSE_CONFIG", tmpFile)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.SourceDriver, convey.ShouldEqual, "csv")
				convey.So(cfg.SourceCSVPath, convey.ShouldEqual, "/data/feedback.csv")
				convey.So(cfg.ColumnRole, convey.ShouldEqual, "job_title")
				convey.So(cfg.ReloadInterval, convey.ShouldEqual, 90*time.Second)
				convey.So(cfg.QuadrantChampionMin, convey.ShouldEqual, 80.0)
			})

			convey.Convey("Then missing fields should keep their defaults", func() {
				convey.So(cfg.ColumnContent, convey.ShouldEqual, "full_analysis")
				convey.So(cfg.ReloadTimeout, convey.ShouldEqual, 30*time.Second)
			})

			convey.Convey("When environment variables are also set", func() {
				_ = os.Setenv("PULSE_ADDR", ":8080")

				cfg, err := config.Load(ctx)

				convey.Convey("Then environment variables should override file values", func() {
					convey.So(err, convey.ShouldBeNil)
					convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
					convey.So(cfg.SourceCSVPath, convey.ShouldEqual, "/data/feedback.csv")
				})
			})
		})

		convey.Convey("When a dotenv file is present", func() {
			envFile := createTempFile("pulse-*.env", "GEMINI_API_KEY=from-dotenv\nPULSE_ADDR=:7070\nPULSE_LOG_LEVEL=debug\nUNRELATED=1\n")
			defer func() { _ = os.Remove(envFile) }()
			_ = os.Setenv("PULSE_ENV_FILE", envFile)

			cfg, err := config.Load(ctx)

			convey.Convey("Then its values should be applied", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.GeminiAPIKey, convey.ShouldEqual, "from-dotenv")
				convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
				convey.So(cfg.LogLevel, convey.ShouldEqual, "debug")
			})

			convey.Convey("When the process environment sets the same key", func() {
				_ = os.Setenv("PULSE_ADDR", ":6060")

				cfg, err := config.Load(ctx)

				convey.Convey("Then the process environment should win", func() {
					convey.So(err, convey.ShouldBeNil)
					convey.So(cfg.Addr, convey.ShouldEqual, ":6060")
				})
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempFile("pulse-config-*.yaml", `invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("PULSE_CONFIG", tmpFile)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("PULSE_CONFIG", "/non/existent/file.yaml")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with empty addr", func() {
			_ = os.Setenv("PULSE_ADDR", "")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "Addr")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("PULSE_MYSQL_PORT", "not_a_number")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with an unknown source driver", func() {
			_ = os.Setenv("PULSE_SOURCE_DRIVER", "oracle")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	for _, kv := range os.Environ() {
		name, _, _ := strings.Cut(kv, "=")
		switch {
		case strings.HasPrefix(name, "PULSE_"), strings.HasPrefix(name, "MYSQL_"), name == "GEMINI_API_KEY":
			_ = os.Unsetenv(name)
		}
	}
}

func createTempFile(pattern, content string) string {
	tmpFile, err := os.CreateTemp("", pattern)
	if err != nil {
		panic(err)
	}

	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}

	if err := tmpFile.Close(); err != nil {
		panic(err)
	}

	return tmpFile.Name()
}
