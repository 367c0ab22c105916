package api

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/oddscout/api/handler"
	"github.com/use-agent/oddscout/api/middleware"
	"github.com/use-agent/oddscout/cleaner"
	"github.com/use-agent/oddscout/config"
	"github.com/use-agent/oddscout/logos"
	"github.com/use-agent/oddscout/webhook"
)

// Deps are the services behind the HTTP API.
type Deps struct {
	Config   *config.Config
	Sessions *handler.Sessions
	Cleaner  *cleaner.Cleaner
	Logos    *logos.Service
	Notifier *webhook.Notifier
	Started  time.Time
}

// NewRouter creates a configured Gin engine with all routes and middleware.
// Background work started for the router stops when ctx ends.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//	API:     Auth (if enabled) → RateLimit
//
// Health stays outside auth so monitoring probes always work.
func NewRouter(ctx context.Context, d Deps) *gin.Engine {
	gin.SetMode(d.Config.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	v1 := r.Group("/api/v1")
	v1.GET("/health", handler.Health(d.Sessions, d.Started))

	protected := v1.Group("")
	if d.Config.Auth.Enabled {
		protected.Use(middleware.Auth(d.Config.Auth.APIKeys))
	}
	protected.Use(middleware.RateLimit(ctx, d.Config.RateLimit))

	protected.POST("/capture", handler.Capture(d.Sessions, d.Cleaner, d.Config.Server.CaptureDir, d.Notifier))
	protected.POST("/votes", handler.Votes(d.Sessions, d.Notifier))
	protected.GET("/logos", handler.Logo(d.Logos))

	return r
}
