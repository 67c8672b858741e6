// Package config defines process configuration and its loading rules.
//
// Precedence, low to high: built-in defaults, optional YAML file, then
// environment variables with the EMPOWERHUB_ prefix.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config contains all process configuration.
type Config struct {
	App          AppConfig          `koanf:"app"`
	Server       ServerConfig       `koanf:"server"`
	Database     DatabaseConfig     `koanf:"database"`
	Redis        RedisConfig        `koanf:"redis"`
	Orchestrator OrchestratorConfig `koanf:"orchestrator"`
	Matching     MatchingConfig     `koanf:"matching"`
	Metrics      MetricsConfig      `koanf:"metrics"`
}

// AppConfig holds general process settings.
type AppConfig struct {
	// Env names the deployment environment: development, staging, production.
	Env string `koanf:"env" validate:"oneof=development staging production"`

	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level" validate:"oneof=debug info warn error"`

	// LogFormat selects the slog handler: json or text.
	LogFormat string `koanf:"log_format" validate:"oneof=json text"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	// Addr is the listen address for the API, health, and metrics routes.
	Addr string `koanf:"addr" validate:"required"`
}

// DatabaseConfig holds PostgreSQL settings.
type DatabaseConfig struct {
	// URL is the full connection string. Empty means run on the in-memory
	// store, which is only suitable for local development.
	URL string `koanf:"url"`

	MaxConns        int32         `koanf:"max_conns" validate:"gte=0"`
	MinConns        int32         `koanf:"min_conns" validate:"gte=0"`
	MaxConnLifetime time.Duration `koanf:"max_conn_lifetime"`
}

// RedisConfig holds the user cache settings.
type RedisConfig struct {
	// Enabled turns the read-through user cache on. Requires Addr.
	Enabled bool `koanf:"enabled"`

	Addr     string        `koanf:"addr"`
	Password string        `koanf:"password"`
	DB       int           `koanf:"db" validate:"gte=0"`
	UserTTL  time.Duration `koanf:"user_ttl"`
}

// OrchestratorConfig tunes event emission.
type OrchestratorConfig struct {
	// Workers sizes the async emission pool.
	Workers int `koanf:"workers" validate:"gte=1"`

	// AppendRetries bounds event log append attempts before the failure
	// is swallowed.
	AppendRetries int `koanf:"append_retries" validate:"gte=1"`

	// AppendRetryDelay is the initial backoff between append attempts.
	AppendRetryDelay time.Duration `koanf:"append_retry_delay"`
}

// MatchingConfig tunes the opportunity matching query.
type MatchingConfig struct {
	// ResultLimit caps matches returned per request.
	ResultLimit int `koanf:"result_limit" validate:"gte=1"`
}

// MetricsConfig controls the Prometheus endpoint on the HTTP server.
type MetricsConfig struct {
	Enabled bool `koanf:"enabled"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		App: AppConfig{
			Env:       "development",
			LogLevel:  "info",
			LogFormat: "json",
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Database: DatabaseConfig{
			MaxConns:        10,
			MinConns:        2,
			MaxConnLifetime: time.Hour,
		},
		Redis: RedisConfig{
			Addr:    "localhost:6379",
			UserTTL: 5 * time.Minute,
		},
		Orchestrator: OrchestratorConfig{
			Workers:          4,
			AppendRetries:    3,
			AppendRetryDelay: 50 * time.Millisecond,
		},
		Matching: MatchingConfig{
			ResultLimit: 20,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// Load builds a Config by layering defaults, an optional YAML file, and
// environment variables.
//
// The file path comes from configPath, or EMPOWERHUB_CONFIG when configPath
// is empty. Env keys map dots to underscores, so EMPOWERHUB_DATABASE_URL
// sets database.url.
func Load(configPath string) (*Config, error) {
	cfg := Default()

	k := koanf.New(".")

	if configPath == "" {
		configPath = os.Getenv("EMPOWERHUB_CONFIG")
	}
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", configPath, err)
		}
	}

	envProvider := env.Provider("EMPOWERHUB_", ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, "EMPOWERHUB_"))
		return strings.Replace(s, "_", ".", 1)
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	if cfg.Redis.Enabled && cfg.Redis.Addr == "" {
		return nil, fmt.Errorf("redis enabled but addr is empty")
	}
	return cfg, nil
}
