// Package httpserver exposes the authentication and collection API over
// HTTP using gin.
package httpserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/cardkeeper/internal/logging"
	"github.com/dmitrijs2005/cardkeeper/internal/server/collections"
	"github.com/dmitrijs2005/cardkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/cardkeeper/internal/server/services"
	"github.com/gin-gonic/gin"
)

// ShutdownTimeout bounds how long Run waits for in-flight requests after
// its context is cancelled.
const ShutdownTimeout = 10 * time.Second

// Deps are the collaborators the handlers call into.
type Deps struct {
	Users       *services.UserService
	Auth        Authenticator
	Collections *collections.Manager
	Metrics     *metrics.Metrics
}

type HTTPServer struct {
	address string
	logger  logging.Logger
	deps    Deps
	engine  *gin.Engine
}

func NewHTTPServer(address string, l logging.Logger, deps Deps) *HTTPServer {
	s := &HTTPServer{
		address: address,
		logger:  l.With("module", "http_server"),
		deps:    deps,
	}
	s.engine = s.routes()
	return s
}

// Handler returns the router, for httptest.
func (s *HTTPServer) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *HTTPServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve is Run on an existing listener.
func (s *HTTPServer) Serve(ctx context.Context, listen net.Listener) error {
	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	stopped := make(chan error, 1)
	go func() {
		<-ctx.Done()
		s.logger.Info(context.Background(), "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		stopped <- srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return <-stopped
}
