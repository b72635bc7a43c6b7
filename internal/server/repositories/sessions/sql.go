package sessions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/cardkeeper/internal/common"
	"github.com/dmitrijs2005/cardkeeper/internal/dbx"
	"github.com/dmitrijs2005/cardkeeper/internal/server/models"
)

type queries struct {
	create         string
	get            string
	touch          string
	delete         string
	deleteByUser   string
	cleanupExpired string
	listByUser     string
}

type sqlRepository struct {
	db  dbx.DBTX
	q   queries
	now func() time.Time
}

func (r *sqlRepository) Create(ctx context.Context, id string, userID int64, ttl time.Duration) (*models.Session, error) {
	now := time.Unix(r.now().Unix(), 0)
	s := &models.Session{
		ID:           id,
		UserID:       userID,
		CreatedAt:    now,
		ExpiresAt:    now.Add(ttl.Truncate(time.Second)),
		LastAccessed: now,
	}

	_, err := r.db.ExecContext(ctx, r.q.create,
		s.ID, s.UserID, s.CreatedAt.Unix(), s.ExpiresAt.Unix(), s.LastAccessed.Unix())
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrorConflict
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}

func (r *sqlRepository) Get(ctx context.Context, id string) (*models.Session, error) {
	s, err := scanSession(r.db.QueryRowContext(ctx, r.q.get, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}

func (r *sqlRepository) UpdateAccessTime(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, r.q.touch, r.now().Unix(), id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *sqlRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, r.q.delete, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *sqlRepository) DeleteByUser(ctx context.Context, userID int64) (int64, error) {
	return r.execCount(ctx, r.q.deleteByUser, userID)
}

func (r *sqlRepository) CleanupExpired(ctx context.Context) (int64, error) {
	return r.execCount(ctx, r.q.cleanupExpired, r.now().Unix())
}

func (r *sqlRepository) ListByUser(ctx context.Context, userID int64) ([]*models.Session, error) {
	rows, err := r.db.QueryContext(ctx, r.q.listByUser, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *sqlRepository) execCount(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(s scanner) (*models.Session, error) {
	var (
		sess                           models.Session
		createdAt, expiresAt, accessed int64
	)
	if err := s.Scan(&sess.ID, &sess.UserID, &createdAt, &expiresAt, &accessed); err != nil {
		return nil, err
	}
	sess.CreatedAt = time.Unix(createdAt, 0)
	sess.ExpiresAt = time.Unix(expiresAt, 0)
	sess.LastAccessed = time.Unix(accessed, 0)
	return &sess, nil
}
