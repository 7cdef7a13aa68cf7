// internal/services/container.go
// Service container provides dependency injection for all business logic services.
// This pattern makes testing easier and keeps services loosely coupled.

package services

import (
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"matchqueue/internal/database"
	"matchqueue/internal/locator"
	"matchqueue/internal/repositories"
)

// Container holds all service instances and provides them to handlers
type Container struct {
	Cache        *CacheService
	LocatorCache *LocatorCacheService
	Repositories *repositories.Container
}

// NewContainer creates a new service container with all dependencies
func NewContainer(db *database.Connections, loc *locator.Locator, logger *logrus.Logger) *Container {
	repos := repositories.NewContainer(db)
	cache := NewCacheService(db.Redis, logger)
	locatorCache := NewLocatorCacheService(loc, cache, 5*time.Second)

	return &Container{
		Cache:        cache,
		LocatorCache: locatorCache,
		Repositories: repos,
	}
}

// Common errors used across services
var (
	ErrNotFound     = errors.New("resource not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidInput = errors.New("invalid input")
)
