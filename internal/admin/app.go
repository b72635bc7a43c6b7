// Package admin implements the cardkeeper operator tool: account and
// session maintenance performed directly against the server's database.
package admin

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/cardkeeper/internal/dbx"
	"github.com/dmitrijs2005/cardkeeper/internal/filex"
	"github.com/dmitrijs2005/cardkeeper/internal/logging"
	"github.com/dmitrijs2005/cardkeeper/internal/server/auth"
	"github.com/dmitrijs2005/cardkeeper/internal/server/config"
	"github.com/dmitrijs2005/cardkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/cardkeeper/internal/server/services"
	"github.com/urfave/cli/v2"
)

// Build information, set via ldflags.
var Version = "dev"

const envKey = "env"

// Env is what the commands operate on.
type Env struct {
	DB     *sql.DB
	Admin  *services.AdminService
	Users  *services.UserService
	Prompt *Prompter
	Out    io.Writer
}

// Opener builds the Env for a command invocation.
type Opener func(ctx context.Context, c *cli.Context) (*Env, error)

// NewApp returns the command tree. open is called once before any command
// runs; the database it opened is closed afterwards.
func NewApp(open Opener) *cli.App {
	return &cli.App{
		Name:    "cardkeeper-admin",
		Usage:   "cardkeeper account and session maintenance",
		Version: Version,
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			UserCommand(),
			SessionsCommand(),
		},
		Before: func(c *cli.Context) error {
			if c.Args().Len() == 0 {
				return nil
			}
			env, err := open(c.Context, c)
			if err != nil {
				return err
			}
			c.App.Metadata[envKey] = env
			return nil
		},
		After: func(c *cli.Context) error {
			if env, ok := c.App.Metadata[envKey].(*Env); ok && env.DB != nil {
				return env.DB.Close()
			}
			return nil
		},
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "JSON config file shared with the server",
		},
		&cli.StringFlag{
			Name:  "driver",
			Usage: "database driver: sqlite or pgx",
		},
		&cli.StringFlag{
			Name:  "dsn",
			Usage: "database DSN",
		},
		&cli.StringFlag{
			Name:  "data-dir",
			Usage: "server data directory",
		},
	}
}

func getEnv(c *cli.Context) (*Env, error) {
	env, ok := c.App.Metadata[envKey].(*Env)
	if !ok {
		return nil, fmt.Errorf("admin: environment not initialized")
	}
	return env, nil
}

// loadConfig resolves settings the way the server does: defaults, the
// JSON file, the environment, then this tool's flags.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg := &config.Config{}
	cfg.LoadDefaults()

	if path := c.String("config"); path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.LoadEnv(); err != nil {
		return nil, err
	}
	if v := c.String("driver"); v != "" {
		cfg.DatabaseDriver = v
	}
	if v := c.String("dsn"); v != "" {
		cfg.DatabaseDSN = v
	}
	if v := c.String("data-dir"); v != "" {
		cfg.DataDir = v
	}
	return cfg, cfg.Validate()
}

// OpenDatabase is the production Opener: it connects to the configured
// database and applies pending migrations.
func OpenDatabase(ctx context.Context, c *cli.Context) (*Env, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	dialect, err := cfg.Dialect()
	if err != nil {
		return nil, err
	}
	if dialect == dbx.DialectSQLite && cfg.DatabaseDSN == "" {
		if _, err := filex.EnsureDir(cfg.DataDir); err != nil {
			return nil, err
		}
	}

	db, err := dbx.Open(ctx, dialect, cfg.DSN())
	if err != nil {
		return nil, err
	}
	env, err := NewEnv(ctx, db, dialect, cfg.SecretKey, c.App.Reader, c.App.Writer)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return env, nil
}

// NewEnv migrates db and builds the services on top of it.
func NewEnv(ctx context.Context, db *sql.DB, dialect dbx.Dialect, secret string, in io.Reader, out io.Writer) (*Env, error) {
	rm, err := repomanager.New(dialect)
	if err != nil {
		return nil, err
	}
	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migrations: %w", err)
	}

	tokens, err := auth.NewTokenService([]byte(secret))
	if err != nil {
		return nil, err
	}

	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}

	logger := logging.New(os.Stderr, "text", "warn")
	return &Env{
		DB:     db,
		Admin:  services.NewAdminService(db, rm, logger),
		Users:  services.NewUserService(db, rm, tokens, 0, logger),
		Prompt: NewPrompter(in, out),
		Out:    out,
	}, nil
}
