// Package repomanager vends dialect-specific repository implementations and
// runs the matching schema migrations (via goose).
package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/cardkeeper/internal/dbx"
	"github.com/dmitrijs2005/cardkeeper/internal/server/migrations"
	"github.com/dmitrijs2005/cardkeeper/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/cardkeeper/internal/server/repositories/users"
)

type RepositoryManager interface {
	Dialect() dbx.Dialect
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Sessions(db dbx.DBTX) sessions.Repository
}

// migrateUp is a seam for testing migrations.Up.
var migrateUp = migrations.Up

func runMigrations(ctx context.Context, db *sql.DB, dialect dbx.Dialect) error {
	if _, err := migrateUp(ctx, db, dialect); err != nil {
		return err
	}
	return nil
}

// New returns the RepositoryManager for dialect.
func New(dialect dbx.Dialect) (RepositoryManager, error) {
	switch dialect {
	case dbx.DialectSQLite:
		return &SQLiteRepositoryManager{}, nil
	case dbx.DialectPostgres:
		return &PostgresRepositoryManager{}, nil
	default:
		return nil, fmt.Errorf("unsupported dialect %q", dialect)
	}
}
