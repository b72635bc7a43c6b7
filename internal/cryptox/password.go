// Package cryptox hashes and verifies account passwords with argon2id.
// Hashes are stored in the PHC string format, so parameters travel with
// the hash and can be raised later without breaking existing accounts.
package cryptox

import (
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/cardkeeper/internal/common"
	"golang.org/x/crypto/argon2"
)

const algorithmID = "argon2id"

var ErrInvalidHash = errors.New("invalid password hash")

// Params are the argon2id cost parameters.
type Params struct {
	Time       uint32
	Memory     uint32 // KiB
	Threads    uint8
	KeyLength  uint32
	SaltLength int
}

// DefaultParams matches the key derivation cost used elsewhere in the project.
var DefaultParams = Params{Time: 1, Memory: 64 * 1024, Threads: 4, KeyLength: 32, SaltLength: 16}

func deriveKey(password, salt []byte, p Params) []byte {
	return argon2.IDKey(password, salt, p.Time, p.Memory, p.Threads, p.KeyLength)
}

// HashPassword hashes password with DefaultParams and a fresh random salt.
func HashPassword(password string) (string, error) {
	return DefaultParams.Hash(password)
}

// Hash hashes password with p.
func (p Params) Hash(password string) (string, error) {
	salt, err := common.GenerateRandByteArray(p.SaltLength)
	if err != nil {
		return "", err
	}
	key := deriveKey([]byte(password), salt, p)

	return fmt.Sprintf("$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		algorithmID, argon2.Version, p.Memory, p.Time, p.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// VerifyPassword reports whether password matches encoded. A malformed
// hash is an error, a mismatch is not.
func VerifyPassword(password, encoded string) (bool, error) {
	p, salt, key, err := decodeHash(encoded)
	if err != nil {
		return false, err
	}
	computed := deriveKey([]byte(password), salt, p)
	return subtle.ConstantTimeCompare(computed, key) == 1, nil
}

func decodeHash(encoded string) (Params, []byte, []byte, error) {
	var p Params

	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != algorithmID {
		return p, nil, nil, ErrInvalidHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return p, nil, nil, ErrInvalidHash
	}
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Time, &p.Threads); err != nil {
		return p, nil, nil, ErrInvalidHash
	}
	if p.Memory == 0 || p.Time == 0 || p.Threads == 0 {
		return p, nil, nil, ErrInvalidHash
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		return p, nil, nil, ErrInvalidHash
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return p, nil, nil, ErrInvalidHash
	}

	p.SaltLength = len(salt)
	p.KeyLength = uint32(len(key))
	return p, salt, key, nil
}
