package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *HTTPServer) routes() *gin.Engine {
	r := gin.New()
	r.Use(requestID(), instrument(s.deps.Metrics), accessLog(s.logger), recovery(s.logger))

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, envelope{Success: false, Error: &errorBody{Message: "Not found"}})
	})

	r.GET("/health", s.health)
	if s.deps.Metrics != nil {
		r.GET("/metrics", gin.WrapH(s.deps.Metrics.Handler()))
	}

	required := RequireAuth(s.deps.Auth, s.logger, s.deps.Metrics)
	optional := OptionalAuth(s.deps.Auth, s.logger, s.deps.Metrics)

	api := r.Group("/api/v1")
	api.GET("/status", optional, s.status)

	authGroup := api.Group("/auth")
	authGroup.POST("/register", s.register)
	authGroup.POST("/login", s.login)
	{
		protected := authGroup.Group("", required)
		protected.POST("/logout", s.logout)
		protected.GET("/me", s.me)
		protected.GET("/profile", s.me)
		protected.POST("/password", s.changePassword)
		protected.GET("/sessions", s.sessions)
	}

	coll := api.Group("/collection", required)
	{
		coll.GET("", s.collectionInfo)
		coll.POST("/close", s.closeCollection)
		coll.GET("/records", s.listRecords)
		coll.GET("/records/:key", s.getRecord)
		coll.PUT("/records/:key", s.putRecord)
		coll.DELETE("/records/:key", s.deleteRecord)
	}

	return r
}

func (s *HTTPServer) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
