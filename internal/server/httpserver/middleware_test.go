package httpserver

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dmitrijs2005/cardkeeper/internal/common"
	"github.com/dmitrijs2005/cardkeeper/internal/logging"
	"github.com/dmitrijs2005/cardkeeper/internal/server/auth"
	"github.com/dmitrijs2005/cardkeeper/internal/server/metrics"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAuth struct {
	err error
}

func (f fakeAuth) Authenticate(ctx context.Context, header string) (context.Context, *auth.Identity, error) {
	return ctx, nil, f.err
}

func newRouter(mw gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(requestID(), recovery(logging.Nop()))
	r.GET("/x", mw, func(c *gin.Context) {
		_, ok := auth.IdentityFromContext(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"authenticated": ok})
	})
	r.GET("/panic", func(c *gin.Context) { panic("boom") })
	return r
}

func serve(r http.Handler, path, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestRequireAuth_StorageErrorIs500(t *testing.T) {
	mt := metrics.New()
	storage := common.Internal("session lookup failed", errors.New("disk I/O error"))
	r := newRouter(RequireAuth(fakeAuth{err: storage}, logging.Nop(), mt))

	rec := serve(r, "/x", "Bearer t")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":{"message":"Internal server error"}}`, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "disk")
	assert.Equal(t, 1.0, testutil.ToFloat64(mt.AuthRequests.WithLabelValues("required", "error")))
}

func TestRequireAuth_Rejected(t *testing.T) {
	mt := metrics.New()
	r := newRouter(RequireAuth(fakeAuth{err: common.Unauthorized("Token expired")}, logging.Nop(), mt))

	rec := serve(r, "/x", "Bearer t")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":{"message":"Token expired"}}`, rec.Body.String())
	assert.Equal(t, 1.0, testutil.ToFloat64(mt.AuthRequests.WithLabelValues("required", "rejected")))
}

func TestOptionalAuth_StorageErrorProceedsAnonymously(t *testing.T) {
	mt := metrics.New()
	storage := common.Internal("session lookup failed", errors.New("disk I/O error"))
	r := newRouter(OptionalAuth(fakeAuth{err: storage}, logging.Nop(), mt))

	rec := serve(r, "/x", "Bearer t")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"authenticated":false}`, rec.Body.String())
	assert.Equal(t, 1.0, testutil.ToFloat64(mt.AuthRequests.WithLabelValues("optional", "error")))
}

func TestRecovery(t *testing.T) {
	r := newRouter(func(c *gin.Context) { c.Next() })

	rec := serve(r, "/panic", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":{"message":"Internal server error"}}`, rec.Body.String())
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(requestID())
	r.GET("/id", func(c *gin.Context) {
		c.String(http.StatusOK, logging.RequestID(c.Request.Context()))
	})

	req := httptest.NewRequest(http.MethodGet, "/id", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "abc-123", rec.Body.String())

	rec = serve(r, "/id", "")
	generated := rec.Header().Get("X-Request-ID")
	require.Len(t, generated, 36)
	assert.Equal(t, generated, rec.Body.String())
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{common.Unauthorized("x"), http.StatusUnauthorized},
		{common.BadRequest("x"), http.StatusBadRequest},
		{common.Conflict("x"), http.StatusConflict},
		{common.NotFound("x"), http.StatusNotFound},
		{common.Forbidden("x"), http.StatusForbidden},
		{common.Internal("x", nil), http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}
