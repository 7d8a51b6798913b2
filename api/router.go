package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pagesift/pagesift/api/handler"
	"github.com/pagesift/pagesift/api/middleware"
	"github.com/pagesift/pagesift/browser"
	"github.com/pagesift/pagesift/cache"
	"github.com/pagesift/pagesift/config"
	"github.com/pagesift/pagesift/reader"
	"github.com/pagesift/pagesift/scrape"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger → RequestID
//	API:     Auth (if enabled) → RateLimit
//
// Health endpoints are intentionally outside auth so monitoring probes always work.
func NewRouter(o *scrape.Orchestrator, rd *reader.Reader, b *browser.Engine, cfg *config.Config, cc *cache.Cache, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())
	r.Use(middleware.RequestID())

	// Bare liveness probe.
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1")

	// Health, no auth required.
	v1.GET("/health", handler.Health(b, startTime))

	// Protected group: auth + rate limit.
	protected := v1.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	protected.Use(middleware.RateLimit(cfg.RateLimit))

	// Scrape
	protected.POST("/scrape", handler.Scrape(o, cc))

	// Reader (article extraction + markdown)
	protected.POST("/reader", handler.Reader(o, rd))

	// Batch
	protected.POST("/batch", handler.PostBatch(o, cfg.Pool.MaxPages))
	protected.GET("/batch/:id", handler.GetBatch())

	return r
}
