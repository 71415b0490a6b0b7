package http

import (
	"github.com/dmitrijs2005/sessionkeeper/internal/logging"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires routes and middleware. limiter may be nil.
func NewRouter(h *Handler, l logging.Logger, limiter *RateLimiter) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(l.With("module", "http_access")))

	limited := r.Group("/", limiter.Handler())
	{
		limited.POST("/signup", h.Signup)
		limited.POST("/login", h.Login)
	}

	r.GET("/profile", h.RequireAccess, h.Profile)
	r.GET("/refresh", h.RequireRefresh, h.Refresh)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}
