package interfaces

import (
	"context"

	"fairride/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ChatRepository is append-only; messages are never edited or removed and
// listing is ordered by created_at.
type ChatRepository interface {
	Append(ctx context.Context, message *models.ChatMessage) error
	ListByRide(ctx context.Context, rideID primitive.ObjectID) ([]*models.ChatMessage, error)
}
