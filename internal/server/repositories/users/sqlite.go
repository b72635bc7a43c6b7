package users

import (
	"time"

	"github.com/dmitrijs2005/cardkeeper/internal/dbx"
)

var sqliteQueries = queries{
	create: `INSERT INTO users (username, password_hash, email, created_at, updated_at, is_active)
		VALUES (?, ?, ?, ?, ?, 1)
		RETURNING id`,
	getByID:              `SELECT ` + userColumns + ` FROM users WHERE id = ?`,
	getByUsername:        `SELECT ` + userColumns + ` FROM users WHERE username = ?`,
	updatePassword:       `UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
	setActive:            `UPDATE users SET is_active = ?, updated_at = ? WHERE id = ?`,
	updateCollectionPath: `UPDATE users SET collection_path = ?, updated_at = ? WHERE id = ?`,
	delete:               `DELETE FROM users WHERE id = ?`,
	list:                 `SELECT ` + userColumns + ` FROM users ORDER BY id`,
}

// SQLiteRepository is the SQLite-backed users.Repository.
type SQLiteRepository struct {
	sqlRepository
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{sqlRepository{db: db, q: sqliteQueries, now: time.Now}}
}
