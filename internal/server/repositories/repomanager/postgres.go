package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/cardkeeper/internal/dbx"
	"github.com/dmitrijs2005/cardkeeper/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/cardkeeper/internal/server/repositories/users"
)

// PostgresRepositoryManager vends PostgreSQL-backed repository implementations
// and exposes a schema migration hook.
type PostgresRepositoryManager struct{}

func (m *PostgresRepositoryManager) Dialect() dbx.Dialect { return dbx.DialectPostgres }

// Users returns a users.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db)
}

// Sessions returns a sessions.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Sessions(db dbx.DBTX) sessions.Repository {
	return sessions.NewPostgresRepository(db)
}

// RunMigrations applies the embedded postgres migrations.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	return runMigrations(ctx, db, dbx.DialectPostgres)
}
