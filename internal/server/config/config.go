// Package config handles configuration for the server and the admin tool:
// defaults, an optional JSON file, environment variables and command-line
// flags, applied in that order.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/dmitrijs2005/cardkeeper/internal/dbx"
)

// DefaultSecretKey is the development signing secret. The server warns at
// startup when it is still in use.
const DefaultSecretKey = "change-this-secret-in-production"

// Config holds runtime settings for the cardkeeper server.
//
// Fields:
//   - HTTPAddr: bind address of the HTTP API.
//   - DatabaseDriver: "sqlite" (default) or "pgx".
//   - DatabaseDSN: driver DSN. Empty with sqlite means <DataDir>/cardkeeper.db.
//   - DataDir: root of the per-user collection directories.
//   - SecretKey: HMAC secret for signing tokens (HS256).
//   - SessionTTL: lifetime of a session and of the token that references it.
//   - TokenLeeway: clock skew tolerated when verifying token expiry.
//   - SessionSweepInterval: how often expired sessions are deleted; 0 disables.
//   - LogLevel / LogFormat: slog level and handler ("json" or "text").
type Config struct {
	HTTPAddr             string        `env:"HTTP_ADDR"`
	DatabaseDriver       string        `env:"DATABASE_DRIVER"`
	DatabaseDSN          string        `env:"DATABASE_DSN"`
	DataDir              string        `env:"DATA_DIR"`
	SecretKey            string        `env:"SECRET_KEY"`
	SessionTTL           time.Duration `env:"SESSION_TTL"`
	TokenLeeway          time.Duration `env:"TOKEN_LEEWAY"`
	SessionSweepInterval time.Duration `env:"SESSION_SWEEP_INTERVAL"`
	LogLevel             string        `env:"LOG_LEVEL"`
	LogFormat            string        `env:"LOG_FORMAT"`
}

// LoadDefaults populates Config with development defaults.
func (c *Config) LoadDefaults() {
	c.HTTPAddr = "127.0.0.1:8080"
	c.DatabaseDriver = string(dbx.DialectSQLite)
	c.DatabaseDSN = ""
	c.DataDir = "./data"
	c.SecretKey = DefaultSecretKey
	c.SessionTTL = 24 * time.Hour
	c.TokenLeeway = 60 * time.Second
	c.SessionSweepInterval = time.Hour
	c.LogLevel = "info"
	c.LogFormat = "json"
}

// LoadConfig builds a Config from defaults, then overlays the JSON file,
// the environment and the command-line flags, and validates the result.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseJson(cfg); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	if c.SecretKey == "" {
		return errors.New("config: secret key must not be empty")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("config: session ttl must be positive, got %s", c.SessionTTL)
	}
	if c.TokenLeeway < 0 {
		return fmt.Errorf("config: token leeway must not be negative, got %s", c.TokenLeeway)
	}
	if c.DataDir == "" {
		return errors.New("config: data dir must not be empty")
	}
	if _, err := c.Dialect(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if d, _ := c.Dialect(); d == dbx.DialectPostgres && c.DatabaseDSN == "" {
		return errors.New("config: database dsn is required for postgres")
	}
	return nil
}

// UsesDefaultSecret reports whether the development secret is configured.
func (c *Config) UsesDefaultSecret() bool {
	return c.SecretKey == DefaultSecretKey
}

func (c *Config) Dialect() (dbx.Dialect, error) {
	return dbx.ParseDialect(c.DatabaseDriver)
}

// DSN returns DatabaseDSN, falling back to a database file inside DataDir
// for sqlite.
func (c *Config) DSN() string {
	if c.DatabaseDSN != "" {
		return c.DatabaseDSN
	}
	return filepath.Join(c.DataDir, "cardkeeper.db")
}
