// Package sessions provides the session ledger: revocable login grants
// referenced by signed tokens, stored in SQLite or PostgreSQL.
package sessions

import (
	"context"
	"time"

	"github.com/dmitrijs2005/cardkeeper/internal/server/models"
)

// Repository defines operations for creating, validating and revoking
// sessions.
type Repository interface {
	// Create stores a new session for userID expiring at now+ttl. A negative
	// ttl yields a session that is already expired.
	Create(ctx context.Context, id string, userID int64, ttl time.Duration) (*models.Session, error)

	// Get returns the session by id, or common.ErrorNotFound. Expired rows
	// are still returned; callers check IsExpired.
	Get(ctx context.Context, id string) (*models.Session, error)

	UpdateAccessTime(ctx context.Context, id string) error

	// Delete removes a session. Deleting an absent session is not an error.
	Delete(ctx context.Context, id string) error

	// DeleteByUser removes all sessions of userID and returns how many.
	DeleteByUser(ctx context.Context, userID int64) (int64, error)

	// CleanupExpired removes every session whose expiry lies in the past.
	CleanupExpired(ctx context.Context) (int64, error)

	ListByUser(ctx context.Context, userID int64) ([]*models.Session, error)
}
