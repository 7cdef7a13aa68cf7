// internal/repositories/container.go
// Repository container for dependency injection

package repositories

import (
	"context"
	"database/sql"

	"matchqueue/internal/database"
)

// Container holds all repository instances
type Container struct {
	Rating     *RatingRepository
	MatchAudit *MatchAuditRepository
	db         *sql.DB
}

// NewContainer creates a new repository container
func NewContainer(conn *database.Connections) *Container {
	return &Container{
		Rating:     NewRatingRepository(conn.MySQL),
		MatchAudit: NewMatchAuditRepository(conn.MongoDB),
		db:         conn.MySQL,
	}
}

// BeginTx starts a new database transaction
func (c *Container) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return c.db.BeginTx(ctx, nil)
}
