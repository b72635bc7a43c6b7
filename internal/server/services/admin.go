package services

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dmitrijs2005/cardkeeper/internal/common"
	"github.com/dmitrijs2005/cardkeeper/internal/dbx"
	"github.com/dmitrijs2005/cardkeeper/internal/logging"
	"github.com/dmitrijs2005/cardkeeper/internal/server/models"
	"github.com/dmitrijs2005/cardkeeper/internal/server/repositories/repomanager"
)

// AdminService backs the operator CLI. Every operation addresses users by
// username and revokes sessions before it changes or removes an account.
type AdminService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

func NewAdminService(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger) *AdminService {
	return &AdminService{db: db, repomanager: m, logger: logger.With("module", "admin")}
}

func (s *AdminService) ListUsers(ctx context.Context) ([]*models.User, error) {
	list, err := s.repomanager.Users(s.db).List(ctx)
	if err != nil {
		return nil, common.Internal("failed to list users", err)
	}
	return list, nil
}

// Lookup resolves username to its account.
func (s *AdminService) Lookup(ctx context.Context, username string) (*models.User, error) {
	user, err := s.repomanager.Users(s.db).GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.NotFound("User not found")
		}
		return nil, common.Internal("failed to load user", err)
	}
	return user, nil
}

// SetActive enables or disables an account. Disabling revokes all of its
// sessions in the same transaction and returns how many were removed.
func (s *AdminService) SetActive(ctx context.Context, username string, active bool) (int64, error) {
	user, err := s.Lookup(ctx, username)
	if err != nil {
		return 0, err
	}

	var revoked int64
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if !active {
			n, err := s.repomanager.Sessions(tx).DeleteByUser(ctx, user.ID)
			if err != nil {
				return common.Internal("failed to revoke sessions", err)
			}
			revoked = n
		}
		if err := s.repomanager.Users(tx).SetActive(ctx, user.ID, active); err != nil {
			return common.Internal("failed to update user", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info(ctx, "account state changed", "user_id", user.ID, "active", active, "sessions_revoked", revoked)
	return revoked, nil
}

// DeleteUser revokes the user's sessions, then removes the account. The
// collection directory on disk is left in place.
func (s *AdminService) DeleteUser(ctx context.Context, username string) (int64, error) {
	user, err := s.Lookup(ctx, username)
	if err != nil {
		return 0, err
	}

	var revoked int64
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		n, err := s.repomanager.Sessions(tx).DeleteByUser(ctx, user.ID)
		if err != nil {
			return common.Internal("failed to revoke sessions", err)
		}
		revoked = n
		if err := s.repomanager.Users(tx).Delete(ctx, user.ID); err != nil {
			return common.Internal("failed to delete user", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info(ctx, "user deleted", "user_id", user.ID, "sessions_revoked", revoked)
	return revoked, nil
}

func (s *AdminService) ListSessions(ctx context.Context, username string) ([]*models.Session, error) {
	user, err := s.Lookup(ctx, username)
	if err != nil {
		return nil, err
	}
	list, err := s.repomanager.Sessions(s.db).ListByUser(ctx, user.ID)
	if err != nil {
		return nil, common.Internal("failed to list sessions", err)
	}
	return list, nil
}

// RevokeSessions logs the user out everywhere.
func (s *AdminService) RevokeSessions(ctx context.Context, username string) (int64, error) {
	user, err := s.Lookup(ctx, username)
	if err != nil {
		return 0, err
	}
	n, err := s.repomanager.Sessions(s.db).DeleteByUser(ctx, user.ID)
	if err != nil {
		return 0, common.Internal("failed to revoke sessions", err)
	}
	s.logger.Info(ctx, "sessions revoked", "user_id", user.ID, "count", n)
	return n, nil
}

func (s *AdminService) CleanupExpired(ctx context.Context) (int64, error) {
	n, err := s.repomanager.Sessions(s.db).CleanupExpired(ctx)
	if err != nil {
		return 0, common.Internal("failed to clean up sessions", err)
	}
	return n, nil
}
