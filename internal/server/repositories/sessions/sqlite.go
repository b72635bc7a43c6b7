package sessions

import (
	"time"

	"github.com/dmitrijs2005/cardkeeper/internal/dbx"
)

var sqliteQueries = queries{
	create: `INSERT INTO sessions (id, user_id, created_at, expires_at, last_accessed)
		VALUES (?, ?, ?, ?, ?)`,
	get:            `SELECT ` + sessionColumns + ` FROM sessions WHERE id = ?`,
	touch:          `UPDATE sessions SET last_accessed = ? WHERE id = ?`,
	delete:         `DELETE FROM sessions WHERE id = ?`,
	deleteByUser:   `DELETE FROM sessions WHERE user_id = ?`,
	cleanupExpired: `DELETE FROM sessions WHERE expires_at < ?`,
	listByUser:     `SELECT ` + sessionColumns + ` FROM sessions WHERE user_id = ? ORDER BY created_at DESC, id`,
}

// SQLiteRepository is the default session ledger.
type SQLiteRepository struct {
	sqlRepository
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{sqlRepository{db: db, q: sqliteQueries, now: time.Now}}
}
