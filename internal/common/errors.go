// Package common defines shared constants and sentinel errors used across
// cardkeeper components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")
	ErrorConflict = errors.New("conflict")

	// Service-level error kinds. Each one maps onto a single HTTP status.
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorBadRequest   = errors.New("bad request")
	ErrorForbidden    = errors.New("forbidden")

	// Token errors (invalid signature, malformed structure, wrong algorithm).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired = errors.New("token expired")
)
