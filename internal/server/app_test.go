package server

import (
	"bytes"
	"context"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/dmitrijs2005/cardkeeper/internal/server/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func freeAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())
	return addr
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	c := &config.Config{}
	c.LoadDefaults()
	c.DataDir = t.TempDir()
	c.HTTPAddr = freeAddr(t)
	c.SessionSweepInterval = 0
	return c
}

func TestApp_RunAndShutdown(t *testing.T) {
	c := testConfig(t)
	var logs bytes.Buffer

	app, err := NewApp(context.Background(), c, &logs)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + c.HTTPAddr + "/health")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 3*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop")
	}

	assert.Contains(t, logs.String(), "using the default secret key")
	assert.Error(t, app.db.Ping(), "database closed on shutdown")
}

func TestNewApp_BadDriver(t *testing.T) {
	c := testConfig(t)
	c.DatabaseDriver = "mysql"

	_, err := NewApp(context.Background(), c, &bytes.Buffer{})
	assert.Error(t, err)
}
