package interfaces

import (
	"context"

	"fairride/internal/models"
	"fairride/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ReviewRepository interface {
	Create(ctx context.Context, review *models.Review) error
	GetByRideAndDirection(ctx context.Context, rideID primitive.ObjectID, direction models.ReviewDirection) (*models.Review, error)
	GetByReviewee(ctx context.Context, revieweeID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Review, int64, error)
}
