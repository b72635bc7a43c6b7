package models

import "time"

// User is a credential record. PasswordHash never leaves the server: it is
// excluded from JSON and only compared through cryptox.
type User struct {
	ID             int64     `json:"id"`
	Username       string    `json:"username"`
	PasswordHash   string    `json:"-"`
	Email          *string   `json:"email,omitempty"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	CollectionPath *string   `json:"-"`
}
