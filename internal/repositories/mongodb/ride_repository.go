package mongodb

import (
	"context"
	"fmt"
	"time"

	"fairride/internal/models"
	"fairride/internal/repositories/interfaces"
	"fairride/internal/services"
	"fairride/internal/utils"
	"fairride/pkg/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type rideRepository struct {
	db         *database.MongoDB
	collection *mongo.Collection
	drivers    *mongo.Collection
	cache      services.CacheService
}

// NewRideRepository needs the full database handle, not just the rides
// collection, because accept paths update the driver document in the same
// transaction as the ride.
func NewRideRepository(db *database.MongoDB, cache services.CacheService) interfaces.RideRepository {
	return &rideRepository{
		db:         db,
		collection: db.Collection("rides"),
		drivers:    db.Collection("drivers"),
		cache:      cache,
	}
}

// Basic CRUD operations
func (r *rideRepository) Create(ctx context.Context, ride *models.Ride) error {
	ride.ID = primitive.NewObjectID()
	ride.CreatedAt = time.Now()
	if ride.Status == "" {
		ride.Status = models.RideStatusSearching
	}
	if ride.RejectedBy == nil {
		ride.RejectedBy = []primitive.ObjectID{}
	}

	_, err := r.collection.InsertOne(ctx, ride)
	if err != nil {
		return fmt.Errorf("failed to create ride: %w", err)
	}

	r.cacheRide(ctx, ride)
	return nil
}

func (r *rideRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Ride, error) {
	// Try cache first for active rides
	if ride := r.getRideFromCache(ctx, id.Hex()); ride != nil {
		return ride, nil
	}

	var ride models.Ride
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&ride)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, services.ErrRideNotFound
		}
		return nil, fmt.Errorf("failed to get ride: %w", err)
	}

	r.cacheRide(ctx, &ride)
	return &ride, nil
}

func (r *rideRepository) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": updates},
	)
	if err != nil {
		return fmt.Errorf("failed to update ride: %w", err)
	}

	r.invalidateRideCache(ctx, id.Hex())
	return nil
}

// Offer protocol

// ClaimOffer marks the ride as offered to the driver. The claim succeeds only
// when the ride is still searching, the driver has not already rejected it,
// and no other driver holds a live claim. A lapsed claim from another driver
// is overwritten.
func (r *rideRepository) ClaimOffer(ctx context.Context, rideID, driverID primitive.ObjectID, window time.Duration) error {
	_, err := r.db.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		var ride models.Ride
		if err := r.collection.FindOne(sessCtx, bson.M{"_id": rideID}).Decode(&ride); err != nil {
			if err == mongo.ErrNoDocuments {
				return nil, services.ErrRideNotFound
			}
			return nil, fmt.Errorf("failed to get ride: %w", err)
		}

		now := time.Now()
		if ride.Status != models.RideStatusSearching {
			return nil, services.ErrRideUnavailable
		}
		if ride.HasRejected(driverID) {
			return nil, services.ErrRideUnavailable
		}
		if ride.OfferLive(now, window) && *ride.OfferedTo != driverID {
			return nil, services.ErrRideUnavailable
		}

		_, err := r.collection.UpdateOne(
			sessCtx,
			bson.M{"_id": rideID, "status": models.RideStatusSearching},
			bson.M{"$set": bson.M{
				"offered_to": driverID,
				"offered_at": now,
			}},
		)
		if err != nil {
			return nil, fmt.Errorf("failed to claim ride: %w", err)
		}
		return nil, nil
	})
	if err != nil {
		return err
	}

	r.invalidateRideCache(ctx, rideID.Hex())
	return nil
}

// ReleaseOffer gives the ride back to the searching pool. With reject set the
// driver is also recorded in rejected_by so the ride is never offered to them
// again.
func (r *rideRepository) ReleaseOffer(ctx context.Context, rideID, driverID primitive.ObjectID, reject bool) error {
	update := bson.M{
		"$set": bson.M{
			"offered_to": nil,
			"offered_at": nil,
		},
	}
	if reject {
		update["$addToSet"] = bson.M{"rejected_by": driverID}
	}

	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{
			"_id":        rideID,
			"status":     models.RideStatusSearching,
			"offered_to": driverID,
		},
		update,
	)
	if err != nil {
		return fmt.Errorf("failed to release offer: %w", err)
	}
	if result.MatchedCount == 0 {
		return services.ErrOfferExpired
	}

	r.invalidateRideCache(ctx, rideID.Hex())
	return nil
}

// AcceptOffer turns the driver's live claim into an assignment at the
// published fare. A driver who countered may still accept while the ride sits
// in counter-offered; the claim TTL only binds while the ride is searching.
// The ride and the driver document change together or not at all.
func (r *rideRepository) AcceptOffer(ctx context.Context, rideID, driverID primitive.ObjectID, window time.Duration) (*models.Ride, error) {
	acceptable := []models.RideStatus{models.RideStatusSearching, models.RideStatusCounterOffered}

	result, err := r.db.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		var ride models.Ride
		if err := r.collection.FindOne(sessCtx, bson.M{"_id": rideID}).Decode(&ride); err != nil {
			if err == mongo.ErrNoDocuments {
				return nil, services.ErrRideNotFound
			}
			return nil, fmt.Errorf("failed to get ride: %w", err)
		}

		now := time.Now()
		if ride.Status != models.RideStatusSearching && ride.Status != models.RideStatusCounterOffered {
			return nil, services.ErrRideUnavailable
		}
		if ride.OfferedTo == nil || *ride.OfferedTo != driverID {
			return nil, services.ErrRideUnavailable
		}
		if ride.Status == models.RideStatusSearching && !ride.OfferLive(now, window) {
			return nil, services.ErrOfferExpired
		}

		_, err := r.collection.UpdateOne(
			sessCtx,
			bson.M{"_id": rideID, "status": bson.M{"$in": acceptable}, "offered_to": driverID},
			bson.M{"$set": bson.M{
				"status":       models.RideStatusAccepted,
				"driver_id":    driverID,
				"accepted_at":  now,
				"offered_to":   nil,
				"offered_at":   nil,
				"counter_fare": nil,
			}},
		)
		if err != nil {
			return nil, fmt.Errorf("failed to accept ride: %w", err)
		}

		_, err = r.drivers.UpdateOne(
			sessCtx,
			bson.M{"_id": driverID},
			bson.M{"$set": bson.M{
				"status":       models.DriverStatusOnRide,
				"is_available": false,
				"updated_at":   now,
			}},
		)
		if err != nil {
			return nil, fmt.Errorf("failed to update driver: %w", err)
		}

		ride.Status = models.RideStatusAccepted
		ride.DriverID = &driverID
		ride.AcceptedAt = &now
		ride.OfferedTo = nil
		ride.OfferedAt = nil
		ride.CounterFare = nil
		return &ride, nil
	})
	if err != nil {
		return nil, err
	}

	ride := result.(*models.Ride)
	r.invalidateRideCache(ctx, rideID.Hex())
	r.cacheRide(ctx, ride)
	return ride, nil
}

// CounterOffer records the driver's counter fare and parks the ride in
// counter-offered until the passenger responds. The claim must still be live.
func (r *rideRepository) CounterOffer(ctx context.Context, rideID, driverID primitive.ObjectID, fare float64, window time.Duration) error {
	_, err := r.db.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		var ride models.Ride
		if err := r.collection.FindOne(sessCtx, bson.M{"_id": rideID}).Decode(&ride); err != nil {
			if err == mongo.ErrNoDocuments {
				return nil, services.ErrRideNotFound
			}
			return nil, fmt.Errorf("failed to get ride: %w", err)
		}

		if ride.Status != models.RideStatusSearching {
			return nil, services.ErrRideUnavailable
		}
		if ride.OfferedTo == nil || *ride.OfferedTo != driverID {
			return nil, services.ErrRideUnavailable
		}
		if !ride.OfferLive(time.Now(), window) {
			return nil, services.ErrOfferExpired
		}

		_, err := r.collection.UpdateOne(
			sessCtx,
			bson.M{"_id": rideID, "status": models.RideStatusSearching, "offered_to": driverID},
			bson.M{"$set": bson.M{
				"status":       models.RideStatusCounterOffered,
				"counter_fare": fare,
			}},
		)
		if err != nil {
			return nil, fmt.Errorf("failed to record counter-offer: %w", err)
		}
		return nil, nil
	})
	if err != nil {
		return err
	}

	r.invalidateRideCache(ctx, rideID.Hex())
	return nil
}

// AcceptCounter adopts the driver's counter fare as the final fare and
// assigns the countering driver, flipping them to on-ride in the same
// transaction.
func (r *rideRepository) AcceptCounter(ctx context.Context, rideID, passengerID primitive.ObjectID) (*models.Ride, error) {
	result, err := r.db.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		var ride models.Ride
		if err := r.collection.FindOne(sessCtx, bson.M{"_id": rideID}).Decode(&ride); err != nil {
			if err == mongo.ErrNoDocuments {
				return nil, services.ErrRideNotFound
			}
			return nil, fmt.Errorf("failed to get ride: %w", err)
		}

		if ride.PassengerID != passengerID {
			return nil, services.ErrRideNotFound
		}
		if ride.Status != models.RideStatusCounterOffered || ride.OfferedTo == nil || ride.CounterFare == nil {
			return nil, services.ErrRideUnavailable
		}

		now := time.Now()
		driverID := *ride.OfferedTo
		fare := *ride.CounterFare

		updates := bson.M{
			"status":       models.RideStatusAccepted,
			"driver_id":    driverID,
			"fare":         fare,
			"counter_fare": nil,
			"accepted_at":  now,
			"offered_to":   nil,
			"offered_at":   nil,
		}
		if ride.FareBreakdown != nil {
			updates["fare_breakdown"] = ride.FareBreakdown.CloneWithTotal(fare)
		}

		_, err := r.collection.UpdateOne(
			sessCtx,
			bson.M{"_id": rideID, "status": models.RideStatusCounterOffered, "offered_to": driverID},
			bson.M{"$set": updates},
		)
		if err != nil {
			return nil, fmt.Errorf("failed to accept counter-offer: %w", err)
		}

		_, err = r.drivers.UpdateOne(
			sessCtx,
			bson.M{"_id": driverID},
			bson.M{"$set": bson.M{
				"status":       models.DriverStatusOnRide,
				"is_available": false,
				"updated_at":   now,
			}},
		)
		if err != nil {
			return nil, fmt.Errorf("failed to update driver: %w", err)
		}

		ride.Status = models.RideStatusAccepted
		ride.DriverID = &driverID
		ride.Fare = fare
		if ride.FareBreakdown != nil {
			ride.FareBreakdown = ride.FareBreakdown.CloneWithTotal(fare)
		}
		ride.CounterFare = nil
		ride.AcceptedAt = &now
		ride.OfferedTo = nil
		ride.OfferedAt = nil
		return &ride, nil
	})
	if err != nil {
		return nil, err
	}

	ride := result.(*models.Ride)
	r.invalidateRideCache(ctx, rideID.Hex())
	r.cacheRide(ctx, ride)
	return ride, nil
}

// Status transitions

func (r *rideRepository) Transition(ctx context.Context, id primitive.ObjectID, from, to models.RideStatus) error {
	if !models.CanTransition(from, to) {
		return fmt.Errorf("invalid transition from %s to %s", from, to)
	}

	now := time.Now()
	updates := bson.M{"status": to}
	switch to {
	case models.RideStatusArrived:
		updates["arrived_at"] = now
	case models.RideStatusInProgress:
		updates["started_at"] = now
	case models.RideStatusCompleted:
		updates["completed_at"] = now
	}

	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id, "status": from},
		bson.M{"$set": updates},
	)
	if err != nil {
		return fmt.Errorf("failed to transition ride: %w", err)
	}
	if result.MatchedCount == 0 {
		return services.ErrRideUnavailable
	}

	r.invalidateRideCache(ctx, id.Hex())
	return nil
}

func (r *rideRepository) Cancel(ctx context.Context, id primitive.ObjectID, allowed []models.RideStatus, reason, note, cancelledBy string) error {
	now := time.Now()
	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id, "status": bson.M{"$in": allowed}},
		bson.M{"$set": bson.M{
			"status":              models.RideStatusCancelled,
			"cancellation_reason": reason,
			"cancellation_note":   note,
			"cancelled_by":        cancelledBy,
			"cancelled_at":        now,
			"offered_to":          nil,
			"offered_at":          nil,
			"counter_fare":        nil,
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to cancel ride: %w", err)
	}
	if result.MatchedCount == 0 {
		return services.ErrRideUnavailable
	}

	r.invalidateRideCache(ctx, id.Hex())
	return nil
}

// SetRated flips the per-direction rated flag. The flag doubles as the
// at-most-once guard for reviews.
func (r *rideRepository) SetRated(ctx context.Context, id primitive.ObjectID, direction models.ReviewDirection) error {
	field := "passenger_rated"
	if direction == models.ReviewDriverToPassenger {
		field = "driver_rated"
	}

	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id, "status": models.RideStatusCompleted, field: false},
		bson.M{"$set": bson.M{field: true}},
	)
	if err != nil {
		return fmt.Errorf("failed to mark ride rated: %w", err)
	}
	if result.MatchedCount == 0 {
		return services.ErrAlreadyRated
	}

	r.invalidateRideCache(ctx, id.Hex())
	return nil
}

// Candidate scanning

// GetSearching returns claimable rides for the driver: still searching, not
// previously rejected by them, and either unclaimed or claimed past the offer
// window. Oldest requests first.
func (r *rideRepository) GetSearching(ctx context.Context, driverID primitive.ObjectID, serviceTypes []models.ServiceType, window time.Duration) ([]*models.Ride, error) {
	cutoff := time.Now().Add(-window)
	filter := bson.M{
		"status":       models.RideStatusSearching,
		"service_type": bson.M{"$in": serviceTypes},
		"rejected_by":  bson.M{"$ne": driverID},
		"$or": []bson.M{
			{"offered_to": nil},
			{"offered_at": bson.M{"$lte": cutoff}},
		},
	}

	opts := (&utils.PaginationParams{Page: 1, PageSize: utils.DefaultPageSize, Sort: "created_at", Order: "asc"}).GetSortOptions()
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find searching rides: %w", err)
	}
	defer cursor.Close(ctx)

	var rides []*models.Ride
	for cursor.Next(ctx) {
		var ride models.Ride
		if err := cursor.Decode(&ride); err != nil {
			return nil, fmt.Errorf("failed to decode ride: %w", err)
		}
		rides = append(rides, &ride)
	}

	return rides, cursor.Err()
}

// Push subscriptions

// WatchSearching streams rides as they enter or re-enter the searching pool.
func (r *rideRepository) WatchSearching(ctx context.Context) (<-chan *models.Ride, error) {
	match := bson.M{"fullDocument.status": models.RideStatusSearching}
	return r.watch(ctx, match)
}

// WatchByPassenger streams every change to the passenger's rides so their
// client sees claims, counters, accepts and cancellations as they land.
func (r *rideRepository) WatchByPassenger(ctx context.Context, passengerID primitive.ObjectID) (<-chan *models.Ride, error) {
	match := bson.M{"fullDocument.passenger_id": passengerID}
	return r.watch(ctx, match)
}

func (r *rideRepository) watch(ctx context.Context, match bson.M) (<-chan *models.Ride, error) {
	stream, err := r.db.Watch(ctx, "rides", match)
	if err != nil {
		return nil, fmt.Errorf("failed to open ride stream: %w", err)
	}

	ch := make(chan *models.Ride)
	go func() {
		defer close(ch)
		defer stream.Close(ctx)

		for stream.Next(ctx) {
			var event struct {
				FullDocument models.Ride `bson:"fullDocument"`
			}
			if err := stream.Decode(&event); err != nil {
				continue
			}
			ride := event.FullDocument
			select {
			case ch <- &ride:
			case <-ctx.Done():
				return
			}
		}
	}()

	return ch, nil
}

// Search and filtering

func (r *rideRepository) GetActiveByPassenger(ctx context.Context, passengerID primitive.ObjectID) (*models.Ride, error) {
	filter := bson.M{
		"passenger_id": passengerID,
		"status": bson.M{"$in": []models.RideStatus{
			models.RideStatusSearching,
			models.RideStatusCounterOffered,
			models.RideStatusAccepted,
			models.RideStatusArrived,
			models.RideStatusInProgress,
		}},
	}

	var ride models.Ride
	err := r.collection.FindOne(ctx, filter).Decode(&ride)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find active ride: %w", err)
	}

	return &ride, nil
}

func (r *rideRepository) GetUnratedCompleted(ctx context.Context, passengerID primitive.ObjectID) (*models.Ride, error) {
	filter := bson.M{
		"passenger_id":    passengerID,
		"status":          models.RideStatusCompleted,
		"passenger_rated": false,
	}

	opts := (&utils.PaginationParams{Page: 1, PageSize: 1, Sort: "completed_at", Order: "desc"}).GetSortOptions()
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find unrated ride: %w", err)
	}
	defer cursor.Close(ctx)

	if cursor.Next(ctx) {
		var ride models.Ride
		if err := cursor.Decode(&ride); err != nil {
			return nil, fmt.Errorf("failed to decode ride: %w", err)
		}
		return &ride, nil
	}

	return nil, cursor.Err()
}

func (r *rideRepository) GetByPassenger(ctx context.Context, passengerID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Ride, int64, error) {
	return r.findRidesWithFilter(ctx, bson.M{"passenger_id": passengerID}, params)
}

func (r *rideRepository) GetByDriver(ctx context.Context, driverID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Ride, int64, error) {
	return r.findRidesWithFilter(ctx, bson.M{"driver_id": driverID}, params)
}

func (r *rideRepository) findRidesWithFilter(ctx context.Context, filter bson.M, params *utils.PaginationParams) ([]*models.Ride, int64, error) {
	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count rides: %w", err)
	}

	cursor, err := r.collection.Find(ctx, filter, params.GetSortOptions())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find rides: %w", err)
	}
	defer cursor.Close(ctx)

	var rides []*models.Ride
	for cursor.Next(ctx) {
		var ride models.Ride
		if err := cursor.Decode(&ride); err != nil {
			return nil, 0, fmt.Errorf("failed to decode ride: %w", err)
		}
		rides = append(rides, &ride)
	}

	return rides, total, cursor.Err()
}

// Cache helpers

func (r *rideRepository) cacheRide(ctx context.Context, ride *models.Ride) {
	if r.cache == nil || ride.Status.IsTerminal() {
		return
	}
	cacheKey := fmt.Sprintf("ride:%s", ride.ID.Hex())
	r.cache.Set(ctx, cacheKey, ride, 15*time.Minute)
}

func (r *rideRepository) getRideFromCache(ctx context.Context, rideID string) *models.Ride {
	if r.cache == nil {
		return nil
	}

	cacheKey := fmt.Sprintf("ride:%s", rideID)
	var ride models.Ride
	if err := r.cache.Get(ctx, cacheKey, &ride); err != nil {
		return nil
	}

	return &ride
}

func (r *rideRepository) invalidateRideCache(ctx context.Context, rideID string) {
	if r.cache != nil {
		cacheKey := fmt.Sprintf("ride:%s", rideID)
		r.cache.Delete(ctx, cacheKey)
	}
}
