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

type driverRepository struct {
	db         *database.MongoDB
	collection *mongo.Collection
	cache      services.CacheService
}

func NewDriverRepository(db *database.MongoDB, cache services.CacheService) interfaces.DriverRepository {
	return &driverRepository{
		db:         db,
		collection: db.Collection("drivers"),
		cache:      cache,
	}
}

func (r *driverRepository) Create(ctx context.Context, driver *models.Driver) error {
	driver.ID = primitive.NewObjectID()
	driver.CreatedAt = time.Now()
	driver.UpdatedAt = driver.CreatedAt
	if driver.Status == "" {
		driver.Status = models.DriverStatusOffline
	}
	if driver.ServiceType == "" {
		driver.ServiceType = models.ServiceTypeEconomy
	}

	_, err := r.collection.InsertOne(ctx, driver)
	if err != nil {
		return fmt.Errorf("failed to create driver: %w", err)
	}

	return nil
}

func (r *driverRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Driver, error) {
	if driver := r.getDriverFromCache(ctx, id.Hex()); driver != nil {
		return driver, nil
	}

	var driver models.Driver
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&driver)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, services.ErrDriverNotFound
		}
		return nil, fmt.Errorf("failed to get driver: %w", err)
	}

	r.cacheDriver(ctx, &driver)
	return &driver, nil
}

func (r *driverRepository) GetByUserID(ctx context.Context, userID primitive.ObjectID) (*models.Driver, error) {
	var driver models.Driver
	err := r.collection.FindOne(ctx, bson.M{"user_id": userID}).Decode(&driver)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, services.ErrDriverNotFound
		}
		return nil, fmt.Errorf("failed to get driver by user: %w", err)
	}

	return &driver, nil
}

func (r *driverRepository) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()

	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": updates},
	)
	if err != nil {
		return fmt.Errorf("failed to update driver: %w", err)
	}

	r.invalidateDriverCache(ctx, id.Hex())
	return nil
}

func (r *driverRepository) SetAvailability(ctx context.Context, id primitive.ObjectID, available bool) error {
	updates := map[string]interface{}{
		"is_available": available,
	}
	if available {
		updates["status"] = models.DriverStatusAvailable
	} else {
		updates["status"] = models.DriverStatusOffline
	}
	return r.Update(ctx, id, updates)
}

func (r *driverRepository) UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.DriverStatus) error {
	return r.Update(ctx, id, map[string]interface{}{"status": status})
}

func (r *driverRepository) UpdateLocation(ctx context.Context, id primitive.ObjectID, location *models.Location) error {
	now := time.Now()
	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"current_location":     location,
			"last_location_update": now,
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to update driver location: %w", err)
	}

	r.invalidateDriverCache(ctx, id.Hex())
	return nil
}

// ApplyRating folds a new rating into the driver's running average. The read
// and the write share one transaction so concurrent finalizers cannot fold
// against the same prior average.
func (r *driverRepository) ApplyRating(ctx context.Context, id primitive.ObjectID, rating float64) (float64, error) {
	result, err := r.db.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		var driver models.Driver
		if err := r.collection.FindOne(sessCtx, bson.M{"_id": id}).Decode(&driver); err != nil {
			if err == mongo.ErrNoDocuments {
				return nil, services.ErrDriverNotFound
			}
			return nil, fmt.Errorf("failed to get driver: %w", err)
		}

		avg := models.NextAverage(driver.Rating, driver.TotalRides, rating)

		_, err := r.collection.UpdateOne(
			sessCtx,
			bson.M{"_id": id},
			bson.M{"$set": bson.M{
				"rating":     avg,
				"updated_at": time.Now(),
			}},
		)
		if err != nil {
			return nil, fmt.Errorf("failed to apply driver rating: %w", err)
		}
		return avg, nil
	})
	if err != nil {
		return 0, err
	}

	r.invalidateDriverCache(ctx, id.Hex())
	return result.(float64), nil
}

func (r *driverRepository) IncrementTotalRides(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{
			"$inc": bson.M{"total_rides": 1},
			"$set": bson.M{"updated_at": time.Now()},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to increment driver total rides: %w", err)
	}

	r.invalidateDriverCache(ctx, id.Hex())
	return nil
}

func (r *driverRepository) cacheDriver(ctx context.Context, driver *models.Driver) {
	if r.cache != nil {
		cacheKey := fmt.Sprintf("driver:%s", driver.ID.Hex())
		r.cache.Set(ctx, cacheKey, driver, 10*time.Minute)
	}
}

func (r *driverRepository) getDriverFromCache(ctx context.Context, driverID string) *models.Driver {
	if r.cache == nil {
		return nil
	}

	cacheKey := fmt.Sprintf("driver:%s", driverID)
	var driver models.Driver
	if err := r.cache.Get(ctx, cacheKey, &driver); err != nil {
		return nil
	}

	return &driver
}

func (r *driverRepository) invalidateDriverCache(ctx context.Context, driverID string) {
	if r.cache != nil {
		cacheKey := fmt.Sprintf("driver:%s", driverID)
		r.cache.Delete(ctx, cacheKey)
	}
}
