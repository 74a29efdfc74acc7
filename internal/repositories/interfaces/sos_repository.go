package interfaces

import (
	"context"

	"fairride/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SOSRepository stores emergency alerts raised during a ride.
type SOSRepository interface {
	Create(ctx context.Context, alert *models.SOSAlert) error
	ListByRide(ctx context.Context, rideID primitive.ObjectID) ([]*models.SOSAlert, error)
}
