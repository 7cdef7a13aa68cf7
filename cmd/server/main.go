// cmd/server/main.go
// This is the main entry point for the matchmaking service.
// It initializes all dependencies, starts the HTTP/WebSocket server, and
// drives the graceful shutdown sequence on SIGINT/SIGTERM.

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"matchqueue/internal/config"
	"matchqueue/internal/database"
	"matchqueue/internal/locator"
	"matchqueue/internal/persistence"
	"matchqueue/internal/server"
	"matchqueue/internal/services"
	"matchqueue/internal/tracker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("failed to load configuration: %v", err)
	}

	logger := setupLogger(cfg.Environment)

	dbConnections, err := initializeDatabases(cfg, logger)
	if err != nil {
		logger.Fatalf("failed to initialize databases: %v", err)
	}
	defer dbConnections.Close()

	loc := locator.New(locator.Settings{
		BaseURL:  cfg.Locator.BaseURL,
		IDPath:   cfg.Locator.IDPath,
		HostPath: cfg.Locator.HostPath,
		PortPath: cfg.Locator.PortPath,
	}, http.DefaultClient)

	tr := tracker.New(loc, cfg.Matchmaking.TickInterval)
	if err := persistence.Load(cfg.Matchmaking.QueueStatePath, tr); err != nil {
		logger.WithError(err).Fatal("failed to load persisted queue state")
	}

	svc := services.NewContainer(dbConnections, loc, logger)
	tr.WireDomainStack(svc.LocatorCache, svc.Repositories.MatchAudit)

	runCtx, cancelRun := context.WithCancel(context.Background())
	defer cancelRun()
	tr.Start(runCtx)

	srv := server.New(cfg, tr, svc, logger)

	go func() {
		logger.WithFields(logrus.Fields{
			"port":        cfg.Server.Port,
			"environment": cfg.Environment,
		}).Info("starting matchmaking server")
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("failed to start server")
		}
	}()

	os.Exit(gracefulShutdown(srv, tr, cfg, logger))
}

// initializeDatabases sets up all database connections with health checks.
func initializeDatabases(cfg *config.Config, logger *logrus.Logger) (*database.Connections, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return database.Initialize(ctx, database.Config{
		MySQL: database.MySQLConfig{
			DSN:             cfg.Database.MySQL.DSN,
			MaxOpenConns:    cfg.Database.MySQL.MaxOpenConns,
			MaxIdleConns:    cfg.Database.MySQL.MaxIdleConns,
			ConnMaxLifetime: cfg.Database.MySQL.ConnMaxLifetime,
		},
		MongoDB: database.MongoConfig{
			URI:      cfg.Database.MongoDB.URI,
			Database: cfg.Database.MongoDB.Database,
		},
		Redis: database.RedisConfig{
			Addr:     cfg.Database.Redis.Addr,
			Password: cfg.Database.Redis.Password,
			DB:       cfg.Database.Redis.DB,
		},
	}, logger)
}

// setupLogger configures structured logging based on the environment.
func setupLogger(env string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)

	if env == "production" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	return logger
}

// gracefulShutdown locks the tracker against new joins, waits for every
// queue to drain (bounded by cfg.Matchmaking.ShutdownDrainTimeout),
// persists the queue configuration, and shuts down the HTTP server. It
// returns the process exit code: 1 if the HTTP server fails to shut down,
// 0 otherwise. A drain that hits the deadline with entries still queued is
// logged as a warning and does not change the exit code.
func gracefulShutdown(srv *server.Server, tr *tracker.Tracker, cfg *config.Config, logger *logrus.Logger) int {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutdown signal received, draining queues")
	tr.Lock()

	drainDeadline := time.Now().Add(cfg.Matchmaking.ShutdownDrainTimeout)
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for !tr.Empty() && time.Now().Before(drainDeadline) {
		<-ticker.C
	}
	if !tr.Empty() {
		logger.Warn("drain timeout exceeded, shutting down with entries still queued")
	}

	tr.Stop()

	if err := persistence.Save(cfg.Matchmaking.QueueStatePath, tr); err != nil {
		logger.WithError(err).Error("failed to persist queue state on shutdown")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("server forced to shutdown")
		return 1
	}

	logger.Info("server exited cleanly")
	return 0
}
