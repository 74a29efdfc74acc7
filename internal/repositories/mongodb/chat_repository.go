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

type chatRepository struct {
	collection *mongo.Collection
}

func NewChatRepository(db *database.MongoDB) interfaces.ChatRepository {
	return &chatRepository{
		collection: db.Collection("chat_messages"),
	}
}

func (r *chatRepository) Append(ctx context.Context, message *models.ChatMessage) error {
	message.ID = primitive.NewObjectID()
	message.CreatedAt = time.Now()

	_, err := r.collection.InsertOne(ctx, message)
	if err != nil {
		return fmt.Errorf("failed to append chat message: %w", err)
	}

	return nil
}

func (r *chatRepository) ListByRide(ctx context.Context, rideID primitive.ObjectID) ([]*models.ChatMessage, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"ride_id": rideID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list chat messages: %w", err)
	}
	defer cursor.Close(ctx)

	var messages []*models.ChatMessage
	for cursor.Next(ctx) {
		var message models.ChatMessage
		if err := cursor.Decode(&message); err != nil {
			return nil, fmt.Errorf("failed to decode chat message: %w", err)
		}
		messages = append(messages, &message)
	}

	return messages, cursor.Err()
}
