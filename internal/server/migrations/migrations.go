// Package migrations embeds the goose schema migrations for every supported
// database dialect. Each dialect lives in its own directory.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/dmitrijs2005/cardkeeper/internal/dbx"
	"github.com/pressly/goose/v3"
)

//go:embed sqlite/*.sql postgres/*.sql
var Migrations embed.FS

// For returns the migration directory for dialect, rooted so that goose sees
// the .sql files at the top level.
func For(dialect dbx.Dialect) (fs.FS, error) {
	switch dialect {
	case dbx.DialectSQLite:
		return fs.Sub(Migrations, "sqlite")
	case dbx.DialectPostgres:
		return fs.Sub(Migrations, "postgres")
	default:
		return nil, fmt.Errorf("no migrations for dialect %q", dialect)
	}
}

func gooseDialect(dialect dbx.Dialect) goose.Dialect {
	if dialect == dbx.DialectPostgres {
		return goose.DialectPostgres
	}
	return goose.DialectSQLite3
}

// Up applies every pending migration for dialect and returns the number of
// migrations applied.
func Up(ctx context.Context, db *sql.DB, dialect dbx.Dialect) (int, error) {
	fsys, err := For(dialect)
	if err != nil {
		return 0, err
	}

	provider, err := goose.NewProvider(gooseDialect(dialect), db, fsys)
	if err != nil {
		return 0, fmt.Errorf("goose provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return 0, fmt.Errorf("migrate up: %w", err)
	}
	return len(results), nil
}
