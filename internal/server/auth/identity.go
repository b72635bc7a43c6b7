package auth

import "context"

// Identity is the authenticated caller attached to a request context.
type Identity struct {
	UserID    int64
	Username  string
	SessionID string
}

type identityKey struct{}

func withIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the identity attached by Enforcer, if any.
// The returned value is a copy.
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(*Identity)
	if !ok || id == nil {
		return nil, false
	}
	cp := *id
	return &cp, true
}
