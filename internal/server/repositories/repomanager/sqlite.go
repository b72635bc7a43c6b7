package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/cardkeeper/internal/dbx"
	"github.com/dmitrijs2005/cardkeeper/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/cardkeeper/internal/server/repositories/users"
)

// SQLiteRepositoryManager is the default manager: a single local database
// file holds both users and sessions.
type SQLiteRepositoryManager struct{}

func (m *SQLiteRepositoryManager) Dialect() dbx.Dialect { return dbx.DialectSQLite }

func (m *SQLiteRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewSQLiteRepository(db)
}

func (m *SQLiteRepositoryManager) Sessions(db dbx.DBTX) sessions.Repository {
	return sessions.NewSQLiteRepository(db)
}

func (m *SQLiteRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	return runMigrations(ctx, db, dbx.DialectSQLite)
}
