package users

import (
	"time"

	"github.com/dmitrijs2005/cardkeeper/internal/dbx"
)

const userColumns = `id, username, password_hash, email, created_at, updated_at, is_active, collection_path`

var postgresQueries = queries{
	create: `INSERT INTO users (username, password_hash, email, created_at, updated_at, is_active)
		VALUES ($1, $2, $3, $4, $5, TRUE)
		RETURNING id`,
	getByID:              `SELECT ` + userColumns + ` FROM users WHERE id = $1`,
	getByUsername:        `SELECT ` + userColumns + ` FROM users WHERE username = $1`,
	updatePassword:       `UPDATE users SET password_hash = $1, updated_at = $2 WHERE id = $3`,
	setActive:            `UPDATE users SET is_active = $1, updated_at = $2 WHERE id = $3`,
	updateCollectionPath: `UPDATE users SET collection_path = $1, updated_at = $2 WHERE id = $3`,
	delete:               `DELETE FROM users WHERE id = $1`,
	list:                 `SELECT ` + userColumns + ` FROM users ORDER BY id`,
}

// PostgresRepository is the PostgreSQL-backed users.Repository.
type PostgresRepository struct {
	sqlRepository
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{sqlRepository{db: db, q: postgresQueries, now: time.Now}}
}
