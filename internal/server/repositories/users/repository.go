// Package users declares the credential store contract and its SQL
// implementations for SQLite and PostgreSQL.
package users

import (
	"context"

	"github.com/dmitrijs2005/cardkeeper/internal/server/models"
)

// Repository persists user credential records.
type Repository interface {
	// Create inserts a new active user. A taken username yields
	// common.ErrorConflict.
	Create(ctx context.Context, username, passwordHash string, email *string) (*models.User, error)

	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)

	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	SetActive(ctx context.Context, id int64, active bool) error
	UpdateCollectionPath(ctx context.Context, id int64, path string) error

	// Delete removes the record. Session rows are not removed; callers clear
	// them first, otherwise the foreign key yields common.ErrorConflict.
	Delete(ctx context.Context, id int64) error

	List(ctx context.Context) ([]*models.User, error)
}
