package interfaces

import (
	"context"
	"time"

	"fairride/internal/models"
	"fairride/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RideRepository owns the shared ride record. Claim, accept and counter paths
// are compare-and-set operations: they re-check the ride's state inside the
// store's transaction and abort without side effects when the precondition no
// longer holds. That transaction isolation is the only concurrency control in
// the matching protocol.
type RideRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, ride *models.Ride) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Ride, error)
	Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error

	// Offer protocol (conditional writes)
	ClaimOffer(ctx context.Context, rideID, driverID primitive.ObjectID, window time.Duration) error
	ReleaseOffer(ctx context.Context, rideID, driverID primitive.ObjectID, reject bool) error
	AcceptOffer(ctx context.Context, rideID, driverID primitive.ObjectID, window time.Duration) (*models.Ride, error)
	CounterOffer(ctx context.Context, rideID, driverID primitive.ObjectID, fare float64, window time.Duration) error
	AcceptCounter(ctx context.Context, rideID, passengerID primitive.ObjectID) (*models.Ride, error)

	// Status transitions (conditional writes)
	Transition(ctx context.Context, id primitive.ObjectID, from, to models.RideStatus) error
	Cancel(ctx context.Context, id primitive.ObjectID, allowed []models.RideStatus, reason, note, cancelledBy string) error
	SetRated(ctx context.Context, id primitive.ObjectID, direction models.ReviewDirection) error

	// Candidate scanning
	GetSearching(ctx context.Context, driverID primitive.ObjectID, serviceTypes []models.ServiceType, window time.Duration) ([]*models.Ride, error)

	// Push subscriptions
	WatchSearching(ctx context.Context) (<-chan *models.Ride, error)
	WatchByPassenger(ctx context.Context, passengerID primitive.ObjectID) (<-chan *models.Ride, error)

	// Search and filtering
	GetActiveByPassenger(ctx context.Context, passengerID primitive.ObjectID) (*models.Ride, error)
	GetUnratedCompleted(ctx context.Context, passengerID primitive.ObjectID) (*models.Ride, error)
	GetByPassenger(ctx context.Context, passengerID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Ride, int64, error)
	GetByDriver(ctx context.Context, driverID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Ride, int64, error)
}
