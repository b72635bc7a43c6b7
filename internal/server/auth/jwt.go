// Package auth issues and verifies signed session tokens and enforces them
// against the session ledger.
package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/dmitrijs2005/cardkeeper/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// DefaultLeeway absorbs clock drift between issuing and verifying hosts.
const DefaultLeeway = 60 * time.Second

// Claims is the token payload. Subject carries the user id as a decimal
// string; Username is informational only.
type Claims struct {
	jwt.RegisteredClaims
	Username  string `json:"username"`
	SessionID string `json:"session_id"`
}

// UserID parses the subject claim.
func (c *Claims) UserID() (int64, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, common.ErrInvalidToken
	}
	return id, nil
}

// IsExpired reports whether exp is at or before now, ignoring leeway.
func (c *Claims) IsExpired() bool {
	return c.isExpiredAt(time.Now())
}

func (c *Claims) isExpiredAt(now time.Time) bool {
	if c.ExpiresAt == nil {
		return true
	}
	return !c.ExpiresAt.After(now)
}

// TokenService signs and verifies HS256 tokens with one symmetric secret.
type TokenService struct {
	secret []byte
	leeway time.Duration
	now    func() time.Time
}

type TokenOption func(*TokenService)

// WithLeeway overrides DefaultLeeway.
func WithLeeway(d time.Duration) TokenOption {
	return func(s *TokenService) { s.leeway = d }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) TokenOption {
	return func(s *TokenService) { s.now = now }
}

var errEmptySecret = errors.New("token secret must not be empty")

func NewTokenService(secret []byte, opts ...TokenOption) (*TokenService, error) {
	if len(secret) == 0 {
		return nil, errEmptySecret
	}
	s := &TokenService{
		secret: append([]byte(nil), secret...),
		leeway: DefaultLeeway,
		now:    time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// NewClaims builds the claims Issue would sign.
func (s *TokenService) NewClaims(userID int64, username, sessionID string, ttl time.Duration) *Claims {
	now := s.now()
	return &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Username:  username,
		SessionID: sessionID,
	}
}

// Sign serializes and signs claims.
func (s *TokenService) Sign(claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Issue returns a signed token for the session, valid for ttl.
func (s *TokenService) Issue(userID int64, username, sessionID string, ttl time.Duration) (string, error) {
	return s.Sign(s.NewClaims(userID, username, sessionID, ttl))
}

// Verify checks signature, algorithm and expiry. A token is expired as
// soon as exp passes; the leeway tolerates an issuer clock running ahead
// (iat in the future). It returns common.ErrTokenExpired or
// common.ErrInvalidToken on failure.
func (s *TokenService) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (interface{}, error) {
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(s.leeway),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}

	if !token.Valid {
		return nil, common.ErrInvalidToken
	}

	// exp is strict here; leeway only covers the issuer's clock (iat)
	if claims.isExpiredAt(s.now()) {
		return nil, common.ErrTokenExpired
	}

	if claims.SessionID == "" {
		return nil, common.ErrInvalidToken
	}
	if _, err := claims.UserID(); err != nil {
		return nil, err
	}

	return claims, nil
}
