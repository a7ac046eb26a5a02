package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/okian/pulse/internal/adapters/source"
)

const (
	envPrefix  = "PULSE_"
	envConfig  = envPrefix + "CONFIG"
	envEnvFile = envPrefix + "ENV_FILE"
	// DefaultEnvFile is read when PULSE_ENV_FILE is unset. A missing file is not an error.
	DefaultEnvFile = ".env"
)

// legacyEnv maps the unprefixed variable names deployments already use onto
// config keys. PULSE_* variables take precedence over these.
var legacyEnv = map[string]string{
	"GEMINI_API_KEY": "gemini_api_key",
	"MYSQL_HOST":     "mysql_host",
	"MYSQL_PORT":     "mysql_port",
	"MYSQL_USER":     "mysql_user",
	"MYSQL_PASSWORD": "mysql_password",
	"MYSQL_DB":       "mysql_db",
}

// Load builds a Config by layering defaults, a dotenv file, an optional YAML
// file and env vars. Order of precedence (low -> high):
//  1. defaults (New())
//  2. dotenv file (PULSE_ENV_FILE, default .env)
//  3. file (YAML) if PULSE_CONFIG is set
//  4. unprefixed GEMINI_API_KEY and MYSQL_* env
//  5. env (prefix PULSE_)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	envFile := os.Getenv(envEnvFile)
	if envFile == "" {
		envFile = DefaultEnvFile
	}
	if err := loadDotenv(k, envFile); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, envFile, err)
	}

	if path := os.Getenv(envConfig); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", legacyKey), nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}
	// PULSE_ADDR -> addr, PULSE_RELOAD_INTERVAL -> reload_interval (flat keys).
	if err := k.Load(env.Provider(envPrefix, ".", prefixedKey), nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints and cross-field rules.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%w: %s failed %q", ErrInvalidConfig, fe.Field(), fe.Tag())
		}
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.SourceDriver != source.DriverCSV && c.DSN() == "" {
		return fmt.Errorf("%w: source_dsn must not be empty for driver %s", ErrInvalidConfig, c.SourceDriver)
	}
	if err := c.Bands().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if _, err := c.MetricsOptions(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

func prefixedKey(s string) string {
	return strings.ToLower(strings.TrimPrefix(s, envPrefix))
}

func legacyKey(s string) string {
	return legacyEnv[s]
}

// loadDotenv reads path and sets its entries under the same key mapping as
// the process environment.
func loadDotenv(k *koanf.Koanf, path string) error {
	vars, err := godotenv.Read(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	for _, mapper := range []func(string) string{legacyKey, func(s string) string {
		if !strings.HasPrefix(s, envPrefix) {
			return ""
		}
		return prefixedKey(s)
	}} {
		for name, val := range vars {
			key := mapper(name)
			if key == "" {
				continue
			}
			if err := k.Set(key, val); err != nil {
				return err
			}
		}
	}
	return nil
}
