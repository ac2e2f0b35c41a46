// Package api exposes the pipeline over HTTP.
package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopmorph/shopmorph/api/handler"
	"github.com/shopmorph/shopmorph/api/middleware"
	"github.com/shopmorph/shopmorph/config"
	"github.com/shopmorph/shopmorph/pipeline"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//	API:     Auth (if enabled) → RateLimit
//
// Health endpoint is intentionally outside auth so monitoring probes always work.
func NewRouter(p *pipeline.Pipeline, cfg *config.Config, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	v1 := r.Group("/api/v1")

	// Health stays open, no auth.
	v1.GET("/health", handler.Health(startTime))

	// Protected group: auth + rate limit.
	protected := v1.Group("")
	if len(cfg.Auth.APIKeys) > 0 {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	protected.Use(middleware.RateLimit(cfg.RateLimit))

	// Capture: donor page → passport.
	protected.POST("/capture", handler.Capture(p))

	// Plan: passport → rendering plan.
	protected.POST("/plan", handler.Plan(p))

	return r
}
