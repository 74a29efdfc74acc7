package mongodb

import (
	"context"
	"fmt"
	"time"

	"fairride/internal/models"
	"fairride/internal/repositories/interfaces"
	"fairride/pkg/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type sosRepository struct {
	collection *mongo.Collection
}

func NewSOSRepository(db *database.MongoDB) interfaces.SOSRepository {
	return &sosRepository{
		collection: db.Collection("sos_alerts"),
	}
}

func (r *sosRepository) Create(ctx context.Context, alert *models.SOSAlert) error {
	alert.ID = primitive.NewObjectID()
	alert.CreatedAt = time.Now()

	_, err := r.collection.InsertOne(ctx, alert)
	if err != nil {
		return fmt.Errorf("failed to create sos alert: %w", err)
	}

	return nil
}

func (r *sosRepository) ListByRide(ctx context.Context, rideID primitive.ObjectID) ([]*models.SOSAlert, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"ride_id": rideID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list sos alerts: %w", err)
	}
	defer cursor.Close(ctx)

	var alerts []*models.SOSAlert
	for cursor.Next(ctx) {
		var alert models.SOSAlert
		if err := cursor.Decode(&alert); err != nil {
			return nil, fmt.Errorf("failed to decode sos alert: %w", err)
		}
		alerts = append(alerts, &alert)
	}

	return alerts, cursor.Err()
}
