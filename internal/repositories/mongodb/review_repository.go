package mongodb

import (
	"context"
	"fmt"
	"time"

	"fairride/internal/models"
	"fairride/internal/repositories/interfaces"
	"fairride/internal/utils"
	"fairride/pkg/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type reviewRepository struct {
	collection *mongo.Collection
}

func NewReviewRepository(db *database.MongoDB) interfaces.ReviewRepository {
	return &reviewRepository{
		collection: db.Collection("reviews"),
	}
}

func (r *reviewRepository) Create(ctx context.Context, review *models.Review) error {
	review.ID = primitive.NewObjectID()
	review.CreatedAt = time.Now()
	if review.Sentiment == "" {
		review.Sentiment = models.SentimentNeutral
	}

	_, err := r.collection.InsertOne(ctx, review)
	if err != nil {
		return fmt.Errorf("failed to create review: %w", err)
	}

	return nil
}

func (r *reviewRepository) GetByRideAndDirection(ctx context.Context, rideID primitive.ObjectID, direction models.ReviewDirection) (*models.Review, error) {
	var review models.Review
	err := r.collection.FindOne(ctx, bson.M{
		"ride_id":   rideID,
		"direction": direction,
	}).Decode(&review)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get review: %w", err)
	}

	return &review, nil
}

func (r *reviewRepository) GetByReviewee(ctx context.Context, revieweeID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Review, int64, error) {
	filter := bson.M{"reviewee_id": revieweeID}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count reviews: %w", err)
	}

	cursor, err := r.collection.Find(ctx, filter, params.GetSortOptions())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find reviews: %w", err)
	}
	defer cursor.Close(ctx)

	var reviews []*models.Review
	for cursor.Next(ctx) {
		var review models.Review
		if err := cursor.Decode(&review); err != nil {
			return nil, 0, fmt.Errorf("failed to decode review: %w", err)
		}
		reviews = append(reviews, &review)
	}

	return reviews, total, cursor.Err()
}
