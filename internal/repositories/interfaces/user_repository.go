package interfaces

import (
	"context"

	"fairride/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error

	// ApplyRating folds a new rating into the user's running average inside a
	// single transaction, using total_rides as the prior-count proxy.
	ApplyRating(ctx context.Context, id primitive.ObjectID, rating float64) (float64, error)
	IncrementTotalRides(ctx context.Context, id primitive.ObjectID) error
}
