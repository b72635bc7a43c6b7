package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_IsExpired(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name    string
		expires time.Time
		want    bool
	}{
		{"future", now.Add(time.Hour), false},
		{"one minute ahead", now.Add(time.Minute), false},
		{"past", now.Add(-2 * time.Second), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Session{ExpiresAt: tt.expires}
			assert.Equal(t, tt.want, s.IsExpired())
		})
	}
}

func TestUser_JSONOmitsSecrets(t *testing.T) {
	path := "/data/users/user_1/alice.collection"
	u := &User{ID: 1, Username: "alice", PasswordHash: "$argon2id$secret", CollectionPath: &path}

	b, err := json.Marshal(u)
	require.NoError(t, err)

	assert.NotContains(t, string(b), "argon2id")
	assert.NotContains(t, string(b), "password")
	assert.NotContains(t, string(b), path)
	assert.Contains(t, string(b), `"username":"alice"`)
}
