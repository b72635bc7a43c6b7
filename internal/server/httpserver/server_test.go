package httpserver

import (
	"context"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/dmitrijs2005/cardkeeper/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_StopsOnContextCancel(t *testing.T) {
	srv := NewHTTPServer("127.0.0.1:0", logging.Nop(), Deps{Auth: fakeAuth{}})

	listen, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listen.Addr().String()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- srv.Serve(ctx, listen)
	}()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/health")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop within timeout after context cancel")
	}
}

func TestRun_ReturnsErrorOnBadAddress(t *testing.T) {
	srv := NewHTTPServer("127.0.0.1:99999", logging.Nop(), Deps{Auth: fakeAuth{}})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	assert.Error(t, srv.Run(ctx))
}
