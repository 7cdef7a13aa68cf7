// internal/repositories/match_audit_repository.go
// Match audit log data access (MongoDB)

package repositories

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"matchqueue/internal/models"
)

// MatchAuditRepository records every formed (or failed) match outcome for
// later analysis, independent of the queue's own in-memory state.
type MatchAuditRepository struct {
	collection *mongo.Collection
}

// NewMatchAuditRepository creates a new match audit repository.
func NewMatchAuditRepository(db *mongo.Database) *MatchAuditRepository {
	return &MatchAuditRepository{
		collection: db.Collection("match_audit"),
	}
}

// Record inserts one audit entry.
func (r *MatchAuditRepository) Record(ctx context.Context, entry *models.MatchAuditEntry) error {
	_, err := r.collection.InsertOne(ctx, entry)
	return err
}

// ListByQueue retrieves the most recent audit entries for a queue, newest
// first, bounded by limit.
func (r *MatchAuditRepository) ListByQueue(ctx context.Context, queue string, limit int64) ([]*models.MatchAuditEntry, error) {
	opts := options.Find().SetSort(bson.M{"createdAt": -1}).SetLimit(limit)

	cursor, err := r.collection.Find(ctx, bson.M{"queue": queue}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	entries := make([]*models.MatchAuditEntry, 0)
	for cursor.Next(ctx) {
		var e models.MatchAuditEntry
		if err := cursor.Decode(&e); err != nil {
			return nil, err
		}
		entries = append(entries, &e)
	}

	return entries, cursor.Err()
}
