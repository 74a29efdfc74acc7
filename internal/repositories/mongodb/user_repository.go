package mongodb

import (
	"context"
	"fmt"
	"time"

	"fairride/internal/models"
	"fairride/internal/repositories/interfaces"
	"fairride/internal/services"
	"fairride/pkg/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type userRepository struct {
	db         *database.MongoDB
	collection *mongo.Collection
	cache      services.CacheService
}

func NewUserRepository(db *database.MongoDB, cache services.CacheService) interfaces.UserRepository {
	return &userRepository{
		db:         db,
		collection: db.Collection("users"),
		cache:      cache,
	}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	user.ID = primitive.NewObjectID()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	if user.Status == "" {
		user.Status = models.UserStatusActive
	}

	_, err := r.collection.InsertOne(ctx, user)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	if user := r.getUserFromCache(ctx, id.Hex()); user != nil {
		return user, nil
	}

	var user models.User
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, services.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	r.cacheUser(ctx, &user)
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.collection.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, services.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return &user, nil
}

func (r *userRepository) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()

	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": updates},
	)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	r.invalidateUserCache(ctx, id.Hex())
	return nil
}

// ApplyRating mirrors the driver-side fold for passenger ratings.
func (r *userRepository) ApplyRating(ctx context.Context, id primitive.ObjectID, rating float64) (float64, error) {
	result, err := r.db.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		var user models.User
		if err := r.collection.FindOne(sessCtx, bson.M{"_id": id}).Decode(&user); err != nil {
			if err == mongo.ErrNoDocuments {
				return nil, services.ErrUserNotFound
			}
			return nil, fmt.Errorf("failed to get user: %w", err)
		}

		avg := models.NextAverage(user.Rating, user.TotalRides, rating)

		_, err := r.collection.UpdateOne(
			sessCtx,
			bson.M{"_id": id},
			bson.M{"$set": bson.M{
				"rating":     avg,
				"updated_at": time.Now(),
			}},
		)
		if err != nil {
			return nil, fmt.Errorf("failed to apply user rating: %w", err)
		}
		return avg, nil
	})
	if err != nil {
		return 0, err
	}

	r.invalidateUserCache(ctx, id.Hex())
	return result.(float64), nil
}

func (r *userRepository) IncrementTotalRides(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{
			"$inc": bson.M{"total_rides": 1},
			"$set": bson.M{"updated_at": time.Now()},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to increment user total rides: %w", err)
	}

	r.invalidateUserCache(ctx, id.Hex())
	return nil
}

func (r *userRepository) cacheUser(ctx context.Context, user *models.User) {
	if r.cache != nil {
		cacheKey := fmt.Sprintf("user:%s", user.ID.Hex())
		r.cache.Set(ctx, cacheKey, user, 10*time.Minute)
	}
}

func (r *userRepository) getUserFromCache(ctx context.Context, userID string) *models.User {
	if r.cache == nil {
		return nil
	}

	cacheKey := fmt.Sprintf("user:%s", userID)
	var user models.User
	if err := r.cache.Get(ctx, cacheKey, &user); err != nil {
		return nil
	}

	return &user
}

func (r *userRepository) invalidateUserCache(ctx context.Context, userID string) {
	if r.cache != nil {
		cacheKey := fmt.Sprintf("user:%s", userID)
		r.cache.Delete(ctx, cacheKey)
	}
}
