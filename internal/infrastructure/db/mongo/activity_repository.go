package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/campus-events/event-system/internal/core/domain"
	"github.com/campus-events/event-system/internal/core/ports"
)

const collectionActivity = "event_activity"

// ActivityRepository appends entries to the event_activity audit collection.
type ActivityRepository struct {
	col *mongo.Collection
}

func NewActivityRepository(db *mongo.Database) ports.ActivityRepository {
	return &ActivityRepository{col: db.Collection(collectionActivity)}
}

func activityIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{Keys: bson.D{{Key: "event_id", Value: 1}, {Key: "occurred_at", Value: 1}}},
	}
}

func (r *ActivityRepository) Insert(ctx context.Context, a *domain.Activity) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.col.InsertOne(ctx, bson.M{
		"event_id":    a.EventID,
		"actor_id":    a.ActorID,
		"action":      string(a.Action),
		"occurred_at": a.OccurredAt.UTC(),
		"recorded_at": time.Now().UTC(),
	})
	return err
}
