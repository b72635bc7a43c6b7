package common

// AuthorizationHeaderName is the HTTP header carrying the bearer token.
const AuthorizationHeaderName = "Authorization"

// BearerPrefix precedes the token inside the Authorization header.
const BearerPrefix = "Bearer "

// RequestIDHeaderName is echoed back on every response.
const RequestIDHeaderName = "X-Request-ID"

// Registration limits.
const (
	MaxUsernameLength = 50
	MinPasswordLength = 8
)

// SessionIDBytes is the amount of entropy in a session id (256 bits).
const SessionIDBytes = 32
