package users

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

// queries holds one dialect's statements. Column order in every SELECT
// matches scanUser.
type queries struct {
	create               string
	getByID              string
	getByUsername        string
	updatePassword       string
	setActive            string
	updateCollectionPath string
	delete               string
	list                 string
}

// sqlRepository implements Repository over dbx.DBTX (satisfied by *sql.DB
// or *sql.Tx). Dialects differ only in their statements.
type sqlRepository struct {
	db  dbx.DBTX
	q   queries
	now func() time.Time
}

func (r *sqlRepository) Create(ctx context.Context, username, passwordHash string, email *string) (*models.User, error) {
	now := time.Unix(r.now().Unix(), 0)

	user := &models.User{
		Username:     username,
		PasswordHash: passwordHash,
		Email:        email,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err := r.db.QueryRowContext(ctx, r.q.create,
		username, passwordHash, nullString(email), now.Unix(), now.Unix()).Scan(&user.ID)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrorConflict
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *sqlRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return r.getOne(ctx, r.q.getByID, id)
}

func (r *sqlRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getOne(ctx, r.q.getByUsername, username)
}

func (r *sqlRepository) getOne(ctx context.Context, query string, arg any) (*models.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

func (r *sqlRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	return r.exec(ctx, r.q.updatePassword, passwordHash, r.now().Unix(), id)
}

func (r *sqlRepository) SetActive(ctx context.Context, id int64, active bool) error {
	return r.exec(ctx, r.q.setActive, active, r.now().Unix(), id)
}

func (r *sqlRepository) UpdateCollectionPath(ctx context.Context, id int64, path string) error {
	return r.exec(ctx, r.q.updateCollectionPath, path, r.now().Unix(), id)
}

func (r *sqlRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, r.q.delete, id); err != nil {
		if dbx.IsForeignKeyViolation(err) {
			return common.ErrorConflict
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *sqlRepository) List(ctx context.Context) ([]*models.User, error) {
	rows, err := r.db.QueryContext(ctx, r.q.list)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *sqlRepository) exec(ctx context.Context, query string, args ...any) error {
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(s scanner) (*models.User, error) {
	var (
		u                    models.User
		email, path          sql.NullString
		createdAt, updatedAt int64
	)
	if err := s.Scan(&u.ID, &u.Username, &u.PasswordHash, &email,
		&createdAt, &updatedAt, &u.IsActive, &path); err != nil {
		return nil, err
	}
	if email.Valid {
		u.Email = &email.String
	}
	if path.Valid {
		u.CollectionPath = &path.String
	}
	u.CreatedAt = time.Unix(createdAt, 0)
	u.UpdatedAt = time.Unix(updatedAt, 0)
	return &u, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
