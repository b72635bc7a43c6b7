package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	tests := []struct {
		name     string
		args     []string
		expected Config
		wantErr  bool
	}{
		{
			name: "all flags",
			args: []string{"cmd",
				"-a", "127.0.0.1:9090", "-d", "db", "-driver", "pgx", "-data", "/srv",
				"-s", "secret", "-t", "1h", "-leeway", "5s", "-sweep", "10m",
				"-log-level", "debug", "-log-format", "text",
			},
			expected: Config{
				HTTPAddr:             "127.0.0.1:9090",
				DatabaseDSN:          "db",
				DatabaseDriver:       "pgx",
				DataDir:              "/srv",
				SecretKey:            "secret",
				SessionTTL:           time.Hour,
				TokenLeeway:          5 * time.Second,
				SessionSweepInterval: 10 * time.Minute,
				LogLevel:             "debug",
				LogFormat:            "text",
			},
		},
		{
			name:     "foreign flags are ignored",
			args:     []string{"cmd", "-config", "x.json", "-unknown", "1", "-a=:1"},
			expected: Config{HTTPAddr: ":1"},
		},
		{
			name:    "bad duration",
			args:    []string{"cmd", "-t", "soon"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Args = tt.args

			config := &Config{}
			err := parseFlags(config)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, *config)
		})
	}
}
