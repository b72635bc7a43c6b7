package sessions

import (
	"time"

	"github.com/dmitrijs2005/cardkeeper/internal/dbx"
)

const sessionColumns = `id, user_id, created_at, expires_at, last_accessed`

var postgresQueries = queries{
	create: `INSERT INTO sessions (id, user_id, created_at, expires_at, last_accessed)
		VALUES ($1, $2, $3, $4, $5)`,
	get:            `SELECT ` + sessionColumns + ` FROM sessions WHERE id = $1`,
	touch:          `UPDATE sessions SET last_accessed = $1 WHERE id = $2`,
	delete:         `DELETE FROM sessions WHERE id = $1`,
	deleteByUser:   `DELETE FROM sessions WHERE user_id = $1`,
	cleanupExpired: `DELETE FROM sessions WHERE expires_at < $1`,
	listByUser:     `SELECT ` + sessionColumns + ` FROM sessions WHERE user_id = $1 ORDER BY created_at DESC, id`,
}

// PostgresRepository implements the session ledger over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	sqlRepository
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{sqlRepository{db: db, q: postgresQueries, now: time.Now}}
}
