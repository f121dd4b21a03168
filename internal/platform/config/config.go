// Package config loads deployment configuration from the environment.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Storage backend selectors.
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

// Config contains server configuration parameters.
type Config struct {
	// Addr is the listen address of the HTTP API.
	Addr string `env:"ADDR" envDefault:":8080"`

	// StorageBackend selects the persistence adapter: "postgres" for
	// production, "memory" for local development and tests.
	StorageBackend string `env:"STORAGE_BACKEND" envDefault:"postgres"`

	// DatabaseURL is the Postgres DSN. Required unless StorageBackend is
	// "memory".
	DatabaseURL string `env:"DATABASE_URL"`

	// CORSAllowedOrigins enables the CORS middleware when non-empty. Use
	// "*" to allow any origin.
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`

	// LogLevel is a zap level name: debug, info, warn, error.
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// ShutdownGraceSeconds bounds how long in-flight requests may run after
	// a termination signal.
	ShutdownGraceSeconds int `env:"SHUTDOWN_GRACE_SECONDS" envDefault:"10"`
}

// Load reads configuration from environment variables and validates the
// cross-field constraints env tags cannot express.
func Load() (Config, error) {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	switch cfg.StorageBackend {
	case StorageMemory:
	case StoragePostgres:
		if cfg.DatabaseURL == "" {
			return Config{}, fmt.Errorf("DATABASE_URL is required when STORAGE_BACKEND is %q", StoragePostgres)
		}
	default:
		return Config{}, fmt.Errorf("STORAGE_BACKEND must be %q or %q, got %q", StorageMemory, StoragePostgres, cfg.StorageBackend)
	}

	return cfg, nil
}
