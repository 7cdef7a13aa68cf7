// internal/repositories/rating_repository.go
// Player rating data access layer

package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"matchqueue/internal/models"
)

// RatingRepository handles persisted player rating access, backing the
// elo matcher's metadata when a client doesn't supply its own rating.
type RatingRepository struct {
	db *sql.DB
}

// NewRatingRepository creates a new rating repository.
func NewRatingRepository(db *sql.DB) *RatingRepository {
	return &RatingRepository{db: db}
}

// Upsert stores or updates a player's rating for a queue.
func (r *RatingRepository) Upsert(ctx context.Context, rating *models.PlayerRating) error {
	query := `
		INSERT INTO player_ratings (player_id, queue, rating, updated_at)
		VALUES (?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE rating = VALUES(rating), updated_at = VALUES(updated_at)
	`

	_, err := r.db.ExecContext(ctx, query,
		rating.PlayerID,
		rating.Queue,
		rating.Rating,
		rating.UpdatedAt,
	)

	return err
}

// GetByPlayerAndQueue retrieves a player's rating for a specific queue.
func (r *RatingRepository) GetByPlayerAndQueue(ctx context.Context, playerID, queue string) (*models.PlayerRating, error) {
	query := `
		SELECT player_id, queue, rating, updated_at
		FROM player_ratings
		WHERE player_id = ? AND queue = ?
	`

	var rating models.PlayerRating
	err := r.db.QueryRowContext(ctx, query, playerID, queue).Scan(
		&rating.PlayerID,
		&rating.Queue,
		&rating.Rating,
		&rating.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("rating not found")
	}
	if err != nil {
		return nil, err
	}

	return &rating, nil
}

// ListByQueue retrieves every persisted rating for a queue.
func (r *RatingRepository) ListByQueue(ctx context.Context, queue string) ([]*models.PlayerRating, error) {
	query := `
		SELECT player_id, queue, rating, updated_at
		FROM player_ratings
		WHERE queue = ?
		ORDER BY rating DESC
	`

	rows, err := r.db.QueryContext(ctx, query, queue)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ratings := make([]*models.PlayerRating, 0)
	for rows.Next() {
		var rt models.PlayerRating
		if err := rows.Scan(&rt.PlayerID, &rt.Queue, &rt.Rating, &rt.UpdatedAt); err != nil {
			return nil, err
		}
		ratings = append(ratings, &rt)
	}

	return ratings, nil
}
