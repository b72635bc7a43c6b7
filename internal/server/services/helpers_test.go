package services

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/cardkeeper/internal/cryptox"
	"github.com/dmitrijs2005/cardkeeper/internal/dbx"
	"github.com/dmitrijs2005/cardkeeper/internal/logging"
	"github.com/dmitrijs2005/cardkeeper/internal/server/auth"
	"github.com/dmitrijs2005/cardkeeper/internal/server/models"
	"github.com/dmitrijs2005/cardkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/cardkeeper/internal/server/repositories/sessions"
	"github.com/stretchr/testify/require"
)

var cheapParams = cryptox.Params{Time: 1, Memory: 8 * 1024, Threads: 1, KeyLength: 32, SaltLength: 16}

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

func newSQLiteDB(t *testing.T) (*sql.DB, repomanager.RepositoryManager) {
	t.Helper()
	ctx := context.Background()

	db, err := dbx.Open(ctx, dbx.DialectSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	rm, err := repomanager.New(dbx.DialectSQLite)
	require.NoError(t, err)
	require.NoError(t, rm.RunMigrations(ctx, db))
	return db, rm
}

func newTokens(t *testing.T) *auth.TokenService {
	t.Helper()
	tokens, err := auth.NewTokenService([]byte("test-secret"))
	require.NoError(t, err)
	return tokens
}

type closer struct {
	mu     sync.Mutex
	closed []int64
}

func (c *closer) Close(uid int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = append(c.closed, uid)
	return nil
}

func newUserService(t *testing.T, db *sql.DB, rm repomanager.RepositoryManager, opts ...UserOption) *UserService {
	t.Helper()
	opts = append([]UserOption{WithPasswordParams(cheapParams)}, opts...)
	return NewUserService(db, rm, newTokens(t), time.Hour, logging.Nop(), opts...)
}

func countRows(t *testing.T, db *sql.DB, table string) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM `+table).Scan(&n))
	return n
}

// failingSessionsManager wraps a real manager and makes session creation
// fail.
type failingSessionsManager struct {
	repomanager.RepositoryManager
}

func (m failingSessionsManager) Sessions(db dbx.DBTX) sessions.Repository {
	return failingSessions{m.RepositoryManager.Sessions(db)}
}

type failingSessions struct {
	sessions.Repository
}

func (failingSessions) Create(context.Context, string, int64, time.Duration) (*models.Session, error) {
	return nil, errBoom{}
}
