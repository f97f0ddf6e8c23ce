// Package config reads runtime settings from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

const (
	LocalSQLite = "sqlite"
	LocalJSON   = "json"
	LocalRedis  = "redis"

	RemoteNone      = "none"
	RemoteFirestore = "firestore"
	RemotePostgres  = "postgres"
)

type Config struct {
	// Local key/value backend
	LocalBackend string `env:"IBADAH_LOCAL_BACKEND" envDefault:"sqlite"`
	RedisURL     string `env:"IBADAH_REDIS_URL" envDefault:"redis://localhost:6379/0"`
	Timezone     string `env:"IBADAH_TIMEZONE" envDefault:"Local"`
	LogLevel     string `env:"IBADAH_LOG_LEVEL"`

	// Remote document store
	RemoteBackend       string  `env:"IBADAH_REMOTE_BACKEND" envDefault:"none"`
	FirebaseProjectID   string  `env:"IBADAH_FIREBASE_PROJECT_ID"`
	FirebaseCredentials string  `env:"IBADAH_FIREBASE_CREDENTIALS"` // base64 service account JSON
	CredentialsFile     string  `env:"GOOGLE_APPLICATION_CREDENTIALS"`
	DatabaseURL         string  `env:"IBADAH_DATABASE_URL"`
	RemoteWritesPerSec  float64 `env:"IBADAH_REMOTE_WRITES_PER_SEC" envDefault:"5"`
	RemoteWriteBurst    int     `env:"IBADAH_REMOTE_WRITE_BURST" envDefault:"10"`

	// Observability and feed server
	MetricsFile         string   `env:"IBADAH_METRICS_FILE"`
	ServeAddr           string   `env:"IBADAH_SERVE_ADDR" envDefault:"127.0.0.1:8085"`
	ServeRequestsPerSec float64  `env:"IBADAH_SERVE_REQUESTS_PER_SEC" envDefault:"20"`
	CORSOrigins         []string `env:"IBADAH_CORS_ORIGINS" envSeparator:"," envDefault:"*"`
}

// Load reads dotenvPath when it exists, then parses the environment.
// Variables already set in the environment win over the file.
func Load(dotenvPath string) (*Config, error) {
	if dotenvPath != "" {
		if err := godotenv.Load(dotenvPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", dotenvPath, err)
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment variables: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.LocalBackend {
	case LocalSQLite, LocalJSON:
	case LocalRedis:
		if c.RedisURL == "" {
			return errors.New("IBADAH_REDIS_URL is required for the redis backend")
		}
	default:
		return fmt.Errorf("unknown local backend %q (want sqlite, json or redis)", c.LocalBackend)
	}

	switch c.RemoteBackend {
	case RemoteNone, RemotePostgres:
	case RemoteFirestore:
		if c.FirebaseProjectID == "" {
			return errors.New("IBADAH_FIREBASE_PROJECT_ID is required for the firestore backend")
		}
	default:
		return fmt.Errorf("unknown remote backend %q (want none, firestore or postgres)", c.RemoteBackend)
	}

	if c.RemoteWritesPerSec < 0 {
		return errors.New("IBADAH_REMOTE_WRITES_PER_SEC cannot be negative")
	}
	return nil
}

// RemoteEnabled reports whether a remote backend is configured.
func (c *Config) RemoteEnabled() bool {
	return c.RemoteBackend != RemoteNone && c.RemoteBackend != ""
}
