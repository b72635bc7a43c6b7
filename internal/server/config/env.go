package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// EnvPrefix is prepended to every variable name in Config's env tags.
const EnvPrefix = "CARDKEEPER_"

// parseEnv loads .env from the working directory when present, then
// overlays CARDKEEPER_* variables. Unset variables keep the current value.
func parseEnv(config *Config) error {
	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return fmt.Errorf("config: load .env file: %w", err)
		}
	}

	if err := env.ParseWithOptions(config, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("config: parse environment: %w", err)
	}
	return nil
}

// LoadEnv overlays .env and CARDKEEPER_* variables onto c.
func (c *Config) LoadEnv() error {
	return parseEnv(c)
}
