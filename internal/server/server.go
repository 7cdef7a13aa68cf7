// internal/server/server.go
// HTTP server setup with dependency injection

package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"matchqueue/internal/api"
	"matchqueue/internal/config"
	"matchqueue/internal/middleware"
	"matchqueue/internal/services"
	"matchqueue/internal/tracker"
)

// Server represents the HTTP server fronting the matchmaking tracker.
type Server struct {
	config   *config.Config
	router   *gin.Engine
	services *services.Container
	tracker  *tracker.Tracker
	logger   *logrus.Logger
	server   *http.Server
}

// New creates a new server with all dependencies wired in.
func New(cfg *config.Config, tr *tracker.Tracker, svc *services.Container, logger *logrus.Logger) *Server {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := setupRouter(cfg, tr, svc, logger)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &Server{
		config:   cfg,
		router:   router,
		services: svc,
		tracker:  tr,
		logger:   logger,
		server:   srv,
	}
}

// setupRouter configures all routes and middleware.
func setupRouter(cfg *config.Config, tr *tracker.Tracker, svc *services.Container, logger *logrus.Logger) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.Logger(logger))
	router.Use(middleware.RequestID())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.Server.AllowedOrigin},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * 3600,
	}))

	if cfg.Features.MaintenanceMode {
		router.Use(middleware.MaintenanceMode())
	}

	api.RegisterHealthRoutes(&router.RouterGroup, cfg)

	v1 := router.Group("/api/v1")
	{
		api.RegisterJoinRoutes(v1, tr, svc)
		api.RegisterQueueRoutes(v1, tr, svc, cfg)
		api.RegisterFinderRoutes(v1, tr, cfg)
	}

	return router
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.server.Shutdown(ctx)
}
