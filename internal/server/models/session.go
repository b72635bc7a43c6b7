package models

import "time"

// Session is a revocable login grant referenced by a signed token.
type Session struct {
	ID           string    `json:"-"`
	UserID       int64     `json:"user_id"`
	CreatedAt    time.Time `json:"created_at"`
	ExpiresAt    time.Time `json:"expires_at"`
	LastAccessed time.Time `json:"last_accessed"`
}

// IsExpired reports whether the session's absolute expiry lies in the past.
// Expired rows stay in the ledger until swept but grant nothing.
func (s *Session) IsExpired() bool {
	return s.ExpiresAt.Unix() < time.Now().Unix()
}
