// internal/api/routes.go
// Central route registration for all API endpoints

package api

import (
	"github.com/gin-gonic/gin"

	"matchqueue/internal/config"
	"matchqueue/internal/middleware"
	"matchqueue/internal/services"
	"matchqueue/internal/tracker"
	"matchqueue/internal/transport"
)

// RegisterHealthRoutes registers the unauthenticated health check.
func RegisterHealthRoutes(router *gin.RouterGroup, cfg *config.Config) {
	router.GET("/health", HealthCheck(cfg))
}

// RegisterJoinRoutes registers the public matchmaking join transport.
func RegisterJoinRoutes(router *gin.RouterGroup, tr *tracker.Tracker, svc *services.Container) {
	router.GET("/queue/:name/join", transport.HandleJoin(tr, svc.Repositories.Rating))
}

// RegisterQueueRoutes registers the operator-only queue CRUD surface,
// gated behind admin auth and rate limiting.
func RegisterQueueRoutes(router *gin.RouterGroup, tr *tracker.Tracker, svc *services.Container, cfg *config.Config) {
	queues := router.Group("/queue")
	queues.Use(middleware.RequireAdmin(cfg.Auth.JWTSecret))
	if cfg.Features.EnableRateLimiting {
		queues.Use(middleware.RateLimiter(svc.Cache))
	}
	{
		queues.POST("", HandleCreateQueue(tr))
		queues.GET("", HandleListQueues(tr))
		queues.GET("/:name", HandleGetQueue(tr))
	}
}

// RegisterFinderRoutes registers the operator-only GameLocator
// configuration endpoint.
func RegisterFinderRoutes(router *gin.RouterGroup, tr *tracker.Tracker, cfg *config.Config) {
	finder := router.Group("/finder")
	finder.Use(middleware.RequireAdmin(cfg.Auth.JWTSecret))
	{
		finder.PUT("", HandleUpdateFinder(tr))
	}
}
