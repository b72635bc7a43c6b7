// Package services contains server-side business logic. This file implements
// UserService: registration, login, logout, password change and session
// listing, each backed by the credential store and the session ledger.
package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/dmitrijs2005/cardkeeper/internal/common"
	"github.com/dmitrijs2005/cardkeeper/internal/cryptox"
	"github.com/dmitrijs2005/cardkeeper/internal/dbx"
	"github.com/dmitrijs2005/cardkeeper/internal/logging"
	"github.com/dmitrijs2005/cardkeeper/internal/server/auth"
	"github.com/dmitrijs2005/cardkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/cardkeeper/internal/server/models"
	"github.com/dmitrijs2005/cardkeeper/internal/server/repositories/repomanager"
)

const (
	msgInvalidCredentials = "Invalid username or password"
	msgAccountDisabled    = "Account is disabled"
	msgUsernameTaken      = "Username already exists"
)

// verifyPassword is a seam for tests.
var verifyPassword = cryptox.VerifyPassword

// AuthResult is returned by Register and Login.
type AuthResult struct {
	Token   string
	User    *models.User
	Session *models.Session
}

// CollectionCloser releases a user's open collection.
type CollectionCloser interface {
	Close(userID int64) error
}

type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	tokens      *auth.TokenService
	sessionTTL  time.Duration
	logger      logging.Logger

	passwords   cryptox.Params
	collections CollectionCloser
	metrics     *metrics.Metrics

	// dummyHash is verified against on unknown usernames so that both
	// login failures cost one argon2id run.
	dummyHash func() string
}

type UserOption func(*UserService)

// WithPasswordParams overrides the argon2id cost parameters.
func WithPasswordParams(p cryptox.Params) UserOption {
	return func(s *UserService) { s.passwords = p }
}

// WithCollections closes a user's collection on logout and password change.
func WithCollections(c CollectionCloser) UserOption {
	return func(s *UserService) { s.collections = c }
}

func WithUserMetrics(m *metrics.Metrics) UserOption {
	return func(s *UserService) { s.metrics = m }
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, tokens *auth.TokenService,
	sessionTTL time.Duration, logger logging.Logger, opts ...UserOption) *UserService {
	s := &UserService{
		db:          db,
		repomanager: m,
		tokens:      tokens,
		sessionTTL:  sessionTTL,
		logger:      logger.With("module", "user_service"),
		passwords:   cryptox.DefaultParams,
	}
	for _, o := range opts {
		o(s)
	}
	s.dummyHash = sync.OnceValue(func() string {
		h, err := s.passwords.Hash("cardkeeper-unknown-user")
		if err != nil {
			return ""
		}
		return h
	})
	return s
}

// NormalizeUsername trims surrounding whitespace and enforces the length
// limit. Stored usernames never carry surrounding whitespace, so " alice"
// and "alice" name the same account; case is kept and significant.
func NormalizeUsername(username string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return "", common.BadRequest("Username cannot be empty")
	}
	if utf8.RuneCountInString(username) > common.MaxUsernameLength {
		return "", common.BadRequest("Username must be 50 characters or less")
	}
	return username, nil
}

func validatePassword(password string) error {
	if len(password) < common.MinPasswordLength {
		return common.BadRequest("Password must be at least 8 characters")
	}
	return nil
}

// CreateUser validates and stores a new account without opening a session.
func (s *UserService) CreateUser(ctx context.Context, username, password string, email *string) (*models.User, error) {
	username, err := NormalizeUsername(username)
	if err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}
	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, common.Internal("failed to hash password", err)
	}

	user, err := s.repomanager.Users(s.db).Create(ctx, username, hash, email)
	if err != nil {
		return nil, s.mapCreateErr(err)
	}
	return user, nil
}

// Register creates the account and its first session in one transaction.
// The token is signed before commit, so any failure leaves neither a user
// nor an orphan session behind.
func (s *UserService) Register(ctx context.Context, username, password string, email *string) (*AuthResult, error) {
	username, err := NormalizeUsername(username)
	if err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, common.Internal("failed to hash password", err)
	}

	var res *AuthResult
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		user, err := s.repomanager.Users(tx).Create(ctx, username, hash, email)
		if err != nil {
			return s.mapCreateErr(err)
		}
		res, err = s.openSession(ctx, tx, user)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.countSession()
	s.logger.Info(ctx, "user registered", "user_id", res.User.ID, "username", res.User.Username)
	return res, nil
}

// Login verifies credentials and opens a new session.
func (s *UserService) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	user, err := s.repomanager.Users(s.db).GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			_, _ = verifyPassword(password, s.dummyHash())
			return nil, common.Unauthorized(msgInvalidCredentials)
		}
		return nil, common.Internal("failed to load user", err)
	}

	ok, err := verifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, common.Internal("failed to verify password", err)
	}
	if !ok {
		s.logger.Debug(ctx, "login rejected", "username", user.Username)
		return nil, common.Unauthorized(msgInvalidCredentials)
	}
	if !user.IsActive {
		return nil, common.Forbidden(msgAccountDisabled)
	}

	res, err := s.openSession(ctx, s.db, user)
	if err != nil {
		return nil, err
	}

	s.countSession()
	s.logger.Info(ctx, "user logged in", "user_id", user.ID)
	return res, nil
}

func (s *UserService) openSession(ctx context.Context, db dbx.DBTX, user *models.User) (*AuthResult, error) {
	sid, err := common.NewSessionID()
	if err != nil {
		return nil, common.Internal("failed to generate session id", err)
	}

	session, err := s.repomanager.Sessions(db).Create(ctx, sid, user.ID, s.sessionTTL)
	if err != nil {
		return nil, common.Internal("failed to create session", err)
	}

	token, err := s.tokens.Issue(user.ID, user.Username, sid, s.sessionTTL)
	if err != nil {
		return nil, common.Internal("failed to sign token", err)
	}

	return &AuthResult{Token: token, User: user, Session: session}, nil
}

// Logout deletes the caller's session, then closes the user's collection.
func (s *UserService) Logout(ctx context.Context, id *auth.Identity) error {
	if err := s.repomanager.Sessions(s.db).Delete(ctx, id.SessionID); err != nil {
		return common.Internal("failed to delete session", err)
	}
	s.countRevoked(1)
	s.closeCollection(ctx, id.UserID)
	s.logger.Info(ctx, "user logged out", "user_id", id.UserID)
	return nil
}

// Me returns the caller's account.
func (s *UserService) Me(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.NotFound("User not found")
		}
		return nil, common.Internal("failed to load user", err)
	}
	return user, nil
}

// ChangePassword verifies the current password, stores the new hash and
// revokes every session of the user, including the caller's.
func (s *UserService) ChangePassword(ctx context.Context, userID int64, current, next string) error {
	user, err := s.Me(ctx, userID)
	if err != nil {
		return err
	}

	ok, err := verifyPassword(current, user.PasswordHash)
	if err != nil {
		return common.Internal("failed to verify password", err)
	}
	if !ok {
		return common.Unauthorized("Current password is incorrect")
	}
	if err := validatePassword(next); err != nil {
		return err
	}

	if err := s.SetPassword(ctx, userID, next); err != nil {
		return err
	}
	s.closeCollection(ctx, userID)
	return nil
}

// SetPassword replaces the password without checking the old one and
// revokes all sessions. Used by the admin tool.
func (s *UserService) SetPassword(ctx context.Context, userID int64, password string) error {
	if err := validatePassword(password); err != nil {
		return err
	}
	hash, err := s.passwords.Hash(password)
	if err != nil {
		return common.Internal("failed to hash password", err)
	}

	var revoked int64
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Users(tx).UpdatePassword(ctx, userID, hash); err != nil {
			return common.Internal("failed to update password", err)
		}
		n, err := s.repomanager.Sessions(tx).DeleteByUser(ctx, userID)
		if err != nil {
			return common.Internal("failed to revoke sessions", err)
		}
		revoked = n
		return nil
	})
	if err != nil {
		return err
	}

	s.countRevoked(revoked)
	s.logger.Info(ctx, "password changed", "user_id", userID, "sessions_revoked", revoked)
	return nil
}

// Sessions lists the user's sessions, newest first.
func (s *UserService) Sessions(ctx context.Context, userID int64) ([]*models.Session, error) {
	list, err := s.repomanager.Sessions(s.db).ListByUser(ctx, userID)
	if err != nil {
		return nil, common.Internal("failed to list sessions", err)
	}
	return list, nil
}

func (s *UserService) mapCreateErr(err error) error {
	if errors.Is(err, common.ErrorConflict) {
		return common.Conflict(msgUsernameTaken)
	}
	return common.Internal("failed to create user", err)
}

func (s *UserService) closeCollection(ctx context.Context, userID int64) {
	if s.collections == nil {
		return
	}
	if err := s.collections.Close(userID); err != nil {
		s.logger.Warn(ctx, "failed to close collection", "user_id", userID, "error", err)
	}
}

func (s *UserService) countSession() {
	if s.metrics != nil {
		s.metrics.SessionsCreated.Inc()
	}
}

func (s *UserService) countRevoked(n int64) {
	if s.metrics != nil && n > 0 {
		s.metrics.SessionsRevoked.Add(float64(n))
	}
}
