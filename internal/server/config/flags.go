package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/cardkeeper/internal/flagx"
)

var serverFlags = []string{
	"-a", "-d", "-driver", "-data", "-s", "-t", "-leeway", "-sweep", "-log-level", "-log-format",
}

// parseFlags overlays command-line flags onto config.
//
// Supported flags:
//
//	-a string          HTTP bind address (e.g. "127.0.0.1:8080")
//	-d string          database DSN
//	-driver string     database driver: sqlite or pgx
//	-data string       data directory for collections
//	-s string          token signing secret
//	-t duration        session ttl (e.g. "24h")
//	-leeway duration   token expiry leeway
//	-sweep duration    expired session sweep interval, 0 disables
//	-log-level string  debug, info, warn or error
//	-log-format string json or text
//
// Only these flags are looked at; os.Args is filtered with flagx.FilterArgs
// first so that -c / -config and flags of other components do not collide.
func parseFlags(config *Config) error {
	args := flagx.FilterArgs(os.Args[1:], serverFlags)

	fs := flag.NewFlagSet("server", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.DatabaseDriver, "driver", config.DatabaseDriver, "database driver (sqlite, pgx)")
	fs.StringVar(&config.DataDir, "data", config.DataDir, "data directory")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.DurationVar(&config.SessionTTL, "t", config.SessionTTL, "session ttl")
	fs.DurationVar(&config.TokenLeeway, "leeway", config.TokenLeeway, "token expiry leeway")
	fs.DurationVar(&config.SessionSweepInterval, "sweep", config.SessionSweepInterval, "expired session sweep interval")
	fs.StringVar(&config.LogLevel, "log-level", config.LogLevel, "log level")
	fs.StringVar(&config.LogFormat, "log-format", config.LogFormat, "log format (json, text)")

	return fs.Parse(args)
}
