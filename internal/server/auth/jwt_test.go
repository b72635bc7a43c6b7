package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/cardkeeper/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTokenService(t *testing.T, opts ...TokenOption) *TokenService {
	t.Helper()
	s, err := NewTokenService([]byte("super-secret"), opts...)
	require.NoError(t, err)
	return s
}

func TestIssueAndVerify_RoundTrip(t *testing.T) {
	t.Parallel()
	s := newTokenService(t)

	tok, err := s.Issue(42, "alice", "sess-1", time.Hour)
	require.NoError(t, err)

	claims, err := s.Verify(tok)
	require.NoError(t, err)

	uid, err := claims.UserID()
	require.NoError(t, err)
	assert.EqualValues(t, 42, uid)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "sess-1", claims.SessionID)
	assert.False(t, claims.IsExpired())
}

func TestNewTokenService_EmptySecret(t *testing.T) {
	t.Parallel()
	_, err := NewTokenService(nil)
	assert.Error(t, err)
}

func TestNewClaims_ZeroTTLIsExpired(t *testing.T) {
	t.Parallel()
	s := newTokenService(t)

	assert.True(t, s.NewClaims(1, "a", "s", 0).IsExpired())
	assert.True(t, s.NewClaims(1, "a", "s", -time.Minute).IsExpired())
	assert.False(t, s.NewClaims(1, "a", "s", time.Minute).IsExpired())
}

func TestVerify_Expired(t *testing.T) {
	t.Parallel()
	s := newTokenService(t)

	tok, err := s.Issue(1, "u1", "s1", -2*time.Minute)
	require.NoError(t, err)

	_, err = s.Verify(tok)
	assert.ErrorIs(t, err, common.ErrTokenExpired)
}

func TestVerify_ForcedPastExpiry(t *testing.T) {
	t.Parallel()
	s := newTokenService(t)

	claims := s.NewClaims(1, "u1", "s1", time.Hour)
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))
	tok, err := s.Sign(claims)
	require.NoError(t, err)

	_, err = s.Verify(tok)
	assert.ErrorIs(t, err, common.ErrTokenExpired)
}

func TestVerify_ExpiryIgnoresLeeway(t *testing.T) {
	t.Parallel()
	issuedAt := time.Unix(1_700_000_000, 0)
	issuer := newTokenService(t, WithClock(func() time.Time { return issuedAt }))

	tok, err := issuer.Issue(1, "u1", "s1", time.Minute)
	require.NoError(t, err)

	tests := []struct {
		name    string
		elapsed time.Duration
		wantErr error
	}{
		{"before exp", 59 * time.Second, nil},
		{"at exp", time.Minute, common.ErrTokenExpired},
		{"30s past exp", 90 * time.Second, common.ErrTokenExpired},
		{"past leeway", 3 * time.Minute, common.ErrTokenExpired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verifier := newTokenService(t, WithClock(func() time.Time { return issuedAt.Add(tt.elapsed) }))
			_, err := verifier.Verify(tok)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestVerify_ZeroTTLRejectedImmediately(t *testing.T) {
	t.Parallel()
	now := time.Unix(1_700_000_000, 0)
	s := newTokenService(t, WithClock(func() time.Time { return now }))

	tok, err := s.Issue(1, "u1", "s1", 0)
	require.NoError(t, err)

	_, err = s.Verify(tok)
	assert.ErrorIs(t, err, common.ErrTokenExpired)
}

func TestVerify_LeewayAbsorbsIssuerClockAhead(t *testing.T) {
	t.Parallel()
	verifyAt := time.Unix(1_700_000_000, 0)

	// issuer clock 30s ahead of the verifier: iat is in the future, inside the leeway
	ahead := newTokenService(t, WithClock(func() time.Time { return verifyAt.Add(30 * time.Second) }))
	tok, err := ahead.Issue(1, "u1", "s1", time.Hour)
	require.NoError(t, err)

	verifier := newTokenService(t, WithClock(func() time.Time { return verifyAt }))
	_, err = verifier.Verify(tok)
	assert.NoError(t, err)

	farAhead := newTokenService(t, WithClock(func() time.Time { return verifyAt.Add(3 * time.Minute) }))
	tok, err = farAhead.Issue(1, "u1", "s1", time.Hour)
	require.NoError(t, err)

	_, err = verifier.Verify(tok)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestVerify_WrongSecret(t *testing.T) {
	t.Parallel()
	s := newTokenService(t)
	tok, err := s.Issue(2, "u2", "s2", time.Hour)
	require.NoError(t, err)

	other, err := NewTokenService([]byte("wrong-secret"))
	require.NoError(t, err)

	_, err = other.Verify(tok)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestVerify_MalformedString(t *testing.T) {
	t.Parallel()
	s := newTokenService(t)

	_, err := s.Verify("not.a.jwt")
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestVerify_RejectsOtherAlgorithms(t *testing.T) {
	t.Parallel()
	s := newTokenService(t)

	claims := s.NewClaims(1, "u1", "s1", time.Hour)
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("super-secret"))
	require.NoError(t, err)
	_, err = s.Verify(tok)
	assert.ErrorIs(t, err, common.ErrInvalidToken)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = s.Verify(none)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestVerify_MissingExpiry(t *testing.T) {
	t.Parallel()
	s := newTokenService(t)

	claims := s.NewClaims(1, "u1", "s1", time.Hour)
	claims.ExpiresAt = nil
	tok, err := s.Sign(claims)
	require.NoError(t, err)

	_, err = s.Verify(tok)
	assert.Error(t, err)
}

func TestVerify_BadSubjectOrSession(t *testing.T) {
	t.Parallel()
	s := newTokenService(t)

	bad := s.NewClaims(1, "u1", "s1", time.Hour)
	bad.Subject = "not-a-number"
	tok, err := s.Sign(bad)
	require.NoError(t, err)
	_, err = s.Verify(tok)
	assert.ErrorIs(t, err, common.ErrInvalidToken)

	noSession := s.NewClaims(1, "u1", "", time.Hour)
	tok, err = s.Sign(noSession)
	require.NoError(t, err)
	_, err = s.Verify(tok)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestVerify_TamperedPayload(t *testing.T) {
	t.Parallel()
	s := newTokenService(t)

	tok, err := s.Issue(1, "u1", "s1", time.Hour)
	require.NoError(t, err)

	other, err := s.Issue(2, "u2", "s2", time.Hour)
	require.NoError(t, err)

	// header.payload.signature: splice the second payload under the first signature
	a := strings.Split(tok, ".")
	b := strings.Split(other, ".")
	forged := a[0] + "." + b[1] + "." + a[2]

	_, err = s.Verify(forged)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}
