package httpserver

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dmitrijs2005/cardkeeper/internal/common"
	"github.com/dmitrijs2005/cardkeeper/internal/logging"
	"github.com/dmitrijs2005/cardkeeper/internal/server/auth"
	"github.com/dmitrijs2005/cardkeeper/internal/server/metrics"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Authenticator validates an Authorization header. *auth.Enforcer
// implements it.
type Authenticator interface {
	Authenticate(ctx context.Context, header string) (context.Context, *auth.Identity, error)
}

// requestID reuses a client-supplied X-Request-ID or generates one, echoes
// it back and stores it in the request context for the logger.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(common.RequestIDHeaderName)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Header(common.RequestIDHeaderName, id)
		c.Request = c.Request.WithContext(logging.WithRequestID(c.Request.Context(), id))
		c.Next()
	}
}

func accessLog(logger logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info(c.Request.Context(), "request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"client_ip", c.ClientIP(),
		)
	}
}

// recovery turns a handler panic into a 500 with the standard body.
func recovery(logger logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if p := recover(); p != nil {
				writeError(c, logger, common.Internal("panic", fmt.Errorf("%v", p)))
			}
		}()
		c.Next()
	}
}

func instrument(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.HTTPDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

func countAuth(m *metrics.Metrics, mode, result string) {
	if m != nil {
		m.AuthRequests.WithLabelValues(mode, result).Inc()
	}
}

// RequireAuth rejects requests without a valid token and live session. On
// success the caller's Identity is in the request context.
func RequireAuth(a Authenticator, logger logging.Logger, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, _, err := a.Authenticate(c.Request.Context(), c.GetHeader(common.AuthorizationHeaderName))
		if err != nil {
			if errors.Is(err, common.ErrorUnauthorized) {
				countAuth(m, "required", "rejected")
			} else {
				countAuth(m, "required", "error")
			}
			writeError(c, logger, err)
			return
		}
		countAuth(m, "required", "ok")
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// OptionalAuth attaches an Identity when the request carries valid
// credentials and otherwise lets it through anonymously.
func OptionalAuth(a Authenticator, logger logging.Logger, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(common.AuthorizationHeaderName)
		if header == "" {
			countAuth(m, "optional", "anonymous")
			c.Next()
			return
		}

		ctx, _, err := a.Authenticate(c.Request.Context(), header)
		switch {
		case err == nil:
			countAuth(m, "optional", "ok")
			c.Request = c.Request.WithContext(ctx)
		case errors.Is(err, common.ErrorUnauthorized):
			countAuth(m, "optional", "rejected")
			logger.Debug(c.Request.Context(), "optional auth rejected", "reason", common.Message(err))
		default:
			countAuth(m, "optional", "error")
			logger.Warn(c.Request.Context(), "optional auth failed", "error", err)
		}
		c.Next()
	}
}

// identity returns the caller set by RequireAuth.
func identity(c *gin.Context) (*auth.Identity, error) {
	id, ok := auth.IdentityFromContext(c.Request.Context())
	if !ok {
		return nil, common.Unauthorized("Missing authorization header")
	}
	return id, nil
}
