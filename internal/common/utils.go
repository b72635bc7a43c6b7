package common

import (
	"crypto/rand"
	"encoding/hex"
)

// MakeRandHexString generates a random hexadecimal string of the given size.
// The size parameter specifies the number of random bytes to generate before
// encoding them as a hexadecimal string, so the result is twice as long.
//
// It returns an error if the random number generator fails.
func MakeRandHexString(size int) (string, error) {
	b, err := GenerateRandByteArray(size)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// GenerateRandByteArray returns size bytes from crypto/rand.
func GenerateRandByteArray(size int) ([]byte, error) {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	return b, nil
}

// NewSessionID returns an unguessable session identifier.
func NewSessionID() (string, error) {
	return MakeRandHexString(SessionIDBytes)
}

// WipeByteArray overwrites the contents of the provided byte slice with zeros.
// Used for password buffers read from a terminal. Nil is a no-op.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
