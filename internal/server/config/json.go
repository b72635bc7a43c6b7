package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/cardkeeper/internal/flagx"
)

// Duration accepts either a Go duration string ("90s", "24h") or an integer
// number of nanoseconds in JSON.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case float64:
		d.Duration = time.Duration(value)
		return nil
	case string:
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		d.Duration = parsed
		return nil
	default:
		return errors.New("invalid duration")
	}
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// JsonConfig is the on-disk shape of the configuration file. Absent keys
// leave the corresponding Config field untouched.
type JsonConfig struct {
	HTTPAddr             string    `json:"http_addr"`
	DatabaseDriver       string    `json:"database_driver"`
	DatabaseDSN          string    `json:"database_dsn"`
	DataDir              string    `json:"data_dir"`
	SecretKey            string    `json:"secret_key"`
	SessionTTL           *Duration `json:"session_ttl"`
	TokenLeeway          *Duration `json:"token_leeway"`
	SessionSweepInterval *Duration `json:"session_sweep_interval"`
	LogLevel             string    `json:"log_level"`
	LogFormat            string    `json:"log_format"`
}

// parseJson loads the file named by -c / -config, if any, into config.
func parseJson(config *Config) error {
	jsonConfigFile := flagx.ConfigPath()
	if jsonConfigFile == "" {
		return nil
	}
	return config.LoadFile(jsonConfigFile)
}

// LoadFile overlays the JSON configuration file at path.
func (config *Config) LoadFile(path string) error {
	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	c.apply(config)
	return nil
}

func (c *JsonConfig) apply(config *Config) {
	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.DatabaseDriver, c.DatabaseDriver)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.DataDir, c.DataDir)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.LogFormat, c.LogFormat)

	if c.SessionTTL != nil {
		config.SessionTTL = c.SessionTTL.Duration
	}
	if c.TokenLeeway != nil {
		config.TokenLeeway = c.TokenLeeway.Duration
	}
	if c.SessionSweepInterval != nil {
		config.SessionSweepInterval = c.SessionSweepInterval.Duration
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
