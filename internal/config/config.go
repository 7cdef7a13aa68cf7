// internal/config/config.go
// Configuration management using environment variables and optional config files

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Environment string
	Server      ServerConfig
	Database    DatabaseConfig
	Auth        AuthConfig
	Matchmaking MatchmakingConfig
	Locator     LocatorConfig
	Features    FeatureFlags
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	// AllowedOrigin is the CORS origin permitted to call the admin API
	// from a browser (e.g. an operator dashboard).
	AllowedOrigin string
}

// DatabaseConfig contains all database connection settings
type DatabaseConfig struct {
	MySQL   MySQLConfig
	MongoDB MongoDBConfig
	Redis   RedisConfig
}

// MySQLConfig contains MySQL-specific settings, used for the persisted
// rating repository.
type MySQLConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// MongoDBConfig contains MongoDB-specific settings, used for the match
// audit log.
type MongoDBConfig struct {
	URI      string
	Database string
}

// RedisConfig contains Redis-specific settings, used for locator response
// caching and admin API rate limiting.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// AuthConfig contains settings for the operator-facing admin JWT.
type AuthConfig struct {
	JWTSecret     string
	JWTExpiration time.Duration
}

// MatchmakingConfig contains settings governing the queue tracker itself.
type MatchmakingConfig struct {
	// TickInterval is how often each queue's matcher gets a chance to
	// form a match.
	TickInterval time.Duration
	// QueueStatePath is where queue configuration is persisted across
	// restarts.
	QueueStatePath string
	// ShutdownDrainTimeout bounds how long graceful shutdown waits for
	// every queue to empty before forcing an exit.
	ShutdownDrainTimeout time.Duration
}

// LocatorConfig is the default GameLocator configuration loaded at
// startup. It can be hot-reloaded afterward via the admin API, at which
// point these values are only the initial seed.
type LocatorConfig struct {
	BaseURL  string
	IDPath   string
	HostPath string
	PortPath string
}

// FeatureFlags allows toggling features without code changes
type FeatureFlags struct {
	EnableRateLimiting bool
	MaintenanceMode    bool
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (for local development)
	if err := godotenv.Load(); err != nil {
		// It's okay if .env doesn't exist in production
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	cfg := &Config{
		Environment: getEnvOrDefault("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Port:          getEnvOrDefault("PORT", "8080"),
			ReadTimeout:   getDurationOrDefault("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:  getDurationOrDefault("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:   getDurationOrDefault("SERVER_IDLE_TIMEOUT", 60*time.Second),
			AllowedOrigin: getEnvOrDefault("ADMIN_DASHBOARD_ORIGIN", "*"),
		},
		Database: DatabaseConfig{
			MySQL: MySQLConfig{
				DSN:             getEnvOrDefault("MYSQL_DSN", ""),
				MaxOpenConns:    getIntOrDefault("MYSQL_MAX_OPEN_CONNS", 25),
				MaxIdleConns:    getIntOrDefault("MYSQL_MAX_IDLE_CONNS", 5),
				ConnMaxLifetime: getDurationOrDefault("MYSQL_CONN_MAX_LIFETIME", 5*time.Minute),
			},
			MongoDB: MongoDBConfig{
				URI:      getEnvOrDefault("MONGO_URI", ""),
				Database: getEnvOrDefault("MONGO_DATABASE", "matchqueue"),
			},
			Redis: RedisConfig{
				Addr:     getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
				Password: getEnvOrDefault("REDIS_PASSWORD", ""),
				DB:       getIntOrDefault("REDIS_DB", 0),
			},
		},
		Auth: AuthConfig{
			JWTSecret:     getEnvOrDefault("JWT_SECRET", ""),
			JWTExpiration: getDurationOrDefault("JWT_EXPIRATION", 15*time.Minute),
		},
		Matchmaking: MatchmakingConfig{
			TickInterval:         getDurationOrDefault("TICK_INTERVAL", time.Second),
			QueueStatePath:       getEnvOrDefault("QUEUE_STATE_PATH", "./queues.json"),
			ShutdownDrainTimeout: getDurationOrDefault("SHUTDOWN_DRAIN_TIMEOUT", 30*time.Second),
		},
		Locator: LocatorConfig{
			BaseURL:  getEnvOrDefault("GAMEFINDER_BASE_URL", ""),
			IDPath:   getEnvOrDefault("GAMEFINDER_ID_PATH", "$.gameId"),
			HostPath: getEnvOrDefault("GAMEFINDER_HOST_PATH", "$.host"),
			PortPath: getEnvOrDefault("GAMEFINDER_PORT_PATH", "$.port"),
		},
		Features: FeatureFlags{
			EnableRateLimiting: getBoolOrDefault("ENABLE_RATE_LIMITING", true),
			MaintenanceMode:    getBoolOrDefault("MAINTENANCE_MODE", false),
		},
	}

	// Validate required configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration is present
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.Environment == "production" && c.Locator.BaseURL == "" {
		return fmt.Errorf("GAMEFINDER_BASE_URL is required in production")
	}
	return nil
}

// Helper functions to read environment variables with defaults
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
