package interfaces

import (
	"context"

	"fairride/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type DriverRepository interface {
	Create(ctx context.Context, driver *models.Driver) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Driver, error)
	GetByUserID(ctx context.Context, userID primitive.ObjectID) (*models.Driver, error)
	Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error

	// Availability
	SetAvailability(ctx context.Context, id primitive.ObjectID, available bool) error
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.DriverStatus) error
	UpdateLocation(ctx context.Context, id primitive.ObjectID, location *models.Location) error

	// ApplyRating folds a new rating into the driver's running average inside
	// a single transaction, using total_rides as the prior-count proxy.
	ApplyRating(ctx context.Context, id primitive.ObjectID, rating float64) (float64, error)
	IncrementTotalRides(ctx context.Context, id primitive.ObjectID) error
}
