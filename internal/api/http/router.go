package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/headroom-sh/headroom/internal/api/middleware"
	"github.com/headroom-sh/headroom/internal/infrastructure/config"
	"github.com/headroom-sh/headroom/internal/infrastructure/monitoring"
)

// NewRouter builds the gin engine with all routes and middleware.
func NewRouter(h *Handlers, metrics *monitoring.Metrics, cfg *config.Config) *gin.Engine {
	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS())
	router.Use(monitoring.Middleware(metrics))

	router.GET("/health", h.Health)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(
		metrics.Registry(),
		promhttp.HandlerOpts{},
	)))

	api := router.Group("/api")
	{
		api.GET("/snapshot", h.Snapshot)
		api.GET("/events", h.Events)

		mutating := api.Group("")
		if cfg.RateLimit.Enabled {
			mutating.Use(middleware.RateLimit(middleware.RateLimitConfig{
				RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
				Burst:             cfg.RateLimit.Burst,
			}))
		}
		mutating.POST("/mode", h.SetMode)
		mutating.POST("/suspend/:pid", h.Suspend)
		mutating.POST("/resume/:pid", h.Resume)
	}

	router.GET("/ws/events", h.EventStream)

	return router
}
