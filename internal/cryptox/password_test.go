package cryptox

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cheap parameters keep the suite fast
var testParams = Params{Time: 1, Memory: 8 * 1024, Threads: 1, KeyLength: 32, SaltLength: 16}

func TestDeriveKey_Deterministic(t *testing.T) {
	password := []byte("secret-password")
	salt := []byte("fixed-salt")

	key1 := deriveKey(password, salt, DefaultParams)
	key2 := deriveKey(password, salt, DefaultParams)
	assert.Equal(t, key1, key2)

	// snapshot of the default cost parameters
	expectedHex := "34f7a1c64df63ab1ad5b5ee06e64db5713b35f81839823304db63e8e5e6a6a39"
	assert.Equal(t, expectedHex, hex.EncodeToString(key1))
}

func TestDeriveKey_DifferentSalts(t *testing.T) {
	password := []byte("secret-password")

	key1 := deriveKey(password, []byte("salt-1"), testParams)
	key2 := deriveKey(password, []byte("salt-2"), testParams)
	assert.NotEqual(t, key1, key2)
}

func TestHashAndVerify(t *testing.T) {
	encoded, err := testParams.Hash("correct horse")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(encoded, "$argon2id$v=19$m=8192,t=1,p=1$"), encoded)

	ok, err := VerifyPassword("correct horse", encoded)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword("wrong horse", encoded)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHash_SaltIsRandom(t *testing.T) {
	h1, err := testParams.Hash("same-password")
	require.NoError(t, err)
	h2, err := testParams.Hash("same-password")
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2)
}

func TestHashPassword_DefaultParams(t *testing.T) {
	encoded, err := HashPassword("password123")
	require.NoError(t, err)
	assert.Contains(t, encoded, "$m=65536,t=1,p=4$")

	ok, err := VerifyPassword("password123", encoded)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerifyPassword_Malformed(t *testing.T) {
	for _, tc := range []string{
		"",
		"plaintext",
		"$bcrypt$v=19$m=8192,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=18$m=8192,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=x,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=0,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=8192,t=1,p=1$!!!$aGFzaA",
		"$argon2id$v=19$m=8192,t=1,p=1$c2FsdA$",
	} {
		ok, err := VerifyPassword("pw", tc)
		assert.ErrorIs(t, err, ErrInvalidHash, "input %q", tc)
		assert.False(t, ok)
	}
}
