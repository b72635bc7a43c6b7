package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/dmitrijs2005/cardkeeper/internal/common"
	"github.com/dmitrijs2005/cardkeeper/internal/logging"
	"github.com/dmitrijs2005/cardkeeper/internal/server/models"
)

// SessionStore is the part of the session ledger the enforcer needs.
type SessionStore interface {
	Get(ctx context.Context, id string) (*models.Session, error)
	UpdateAccessTime(ctx context.Context, id string) error
}

// Enforcer fuses token verification with the session ledger: a valid token
// grants nothing unless its session is still live.
type Enforcer struct {
	tokens   *TokenService
	sessions SessionStore
	logger   logging.Logger
}

func NewEnforcer(tokens *TokenService, sessions SessionStore, logger logging.Logger) *Enforcer {
	return &Enforcer{tokens: tokens, sessions: sessions, logger: logger}
}

const (
	msgMissingHeader   = "Missing authorization header"
	msgBadHeader       = "Invalid authorization header format"
	msgInvalidToken    = "Invalid token"
	msgTokenExpired    = "Token expired"
	msgSessionNotFound = "Session not found or expired"
)

// Authenticate validates an Authorization header value and returns ctx with
// the caller's Identity attached. Failures are common.ErrorUnauthorized
// except ledger storage errors, which are common.ErrorInternal.
func (e *Enforcer) Authenticate(ctx context.Context, header string) (context.Context, *Identity, error) {
	if header == "" {
		return ctx, nil, common.Unauthorized(msgMissingHeader)
	}
	if !strings.HasPrefix(header, common.BearerPrefix) {
		return ctx, nil, common.Unauthorized(msgBadHeader)
	}
	raw := strings.TrimSpace(strings.TrimPrefix(header, common.BearerPrefix))
	if raw == "" {
		return ctx, nil, common.Unauthorized(msgBadHeader)
	}

	claims, err := e.tokens.Verify(raw)
	if err != nil {
		if errors.Is(err, common.ErrTokenExpired) {
			return ctx, nil, common.Unauthorized(msgTokenExpired)
		}
		return ctx, nil, common.Unauthorized(msgInvalidToken)
	}
	userID, err := claims.UserID()
	if err != nil {
		return ctx, nil, common.Unauthorized(msgInvalidToken)
	}

	session, err := e.sessions.Get(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return ctx, nil, common.Unauthorized(msgSessionNotFound)
		}
		return ctx, nil, common.Internal("session lookup failed", err)
	}
	if session.IsExpired() {
		return ctx, nil, common.Unauthorized(msgSessionNotFound)
	}
	if session.UserID != userID {
		return ctx, nil, common.Unauthorized(msgInvalidToken)
	}

	if err := e.sessions.UpdateAccessTime(ctx, session.ID); err != nil {
		e.logger.Warn(ctx, "failed to update session access time", "user_id", userID, "error", err)
	}

	id := &Identity{UserID: userID, Username: claims.Username, SessionID: session.ID}
	return withIdentity(ctx, id), id, nil
}
