package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"fairride/internal/models"
	"fairride/internal/utils"
	"fairride/pkg/ai"
	"fairride/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func testLogger(t interface{ Fatalf(string, ...interface{}) }) *logger.Logger {
	log, err := logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Format: "text", Output: "stderr"})
	if err != nil {
		t.Fatalf("failed to build logger: %v", err)
	}
	return log
}

// memoryRideRepo mirrors the store's conditional-write semantics in memory so
// the protocol can be exercised concurrently without a live database.
type memoryRideRepo struct {
	mu      sync.Mutex
	rides   map[primitive.ObjectID]*models.Ride
	drivers *memoryDriverRepo
}

func newMemoryRideRepo(drivers *memoryDriverRepo) *memoryRideRepo {
	return &memoryRideRepo{
		rides:   make(map[primitive.ObjectID]*models.Ride),
		drivers: drivers,
	}
}

func (r *memoryRideRepo) Create(ctx context.Context, ride *models.Ride) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ride.ID = primitive.NewObjectID()
	ride.CreatedAt = time.Now()
	if ride.Status == "" {
		ride.Status = models.RideStatusSearching
	}
	copied := *ride
	r.rides[ride.ID] = &copied
	return nil
}

func (r *memoryRideRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Ride, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ride, ok := r.rides[id]
	if !ok {
		return nil, ErrRideNotFound
	}
	copied := *ride
	return &copied, nil
}

func (r *memoryRideRepo) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	return nil
}

func (r *memoryRideRepo) ClaimOffer(ctx context.Context, rideID, driverID primitive.ObjectID, window time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ride, ok := r.rides[rideID]
	if !ok {
		return ErrRideNotFound
	}
	now := time.Now()
	if ride.Status != models.RideStatusSearching {
		return ErrRideUnavailable
	}
	if ride.HasRejected(driverID) {
		return ErrRideUnavailable
	}
	if ride.OfferLive(now, window) && *ride.OfferedTo != driverID {
		return ErrRideUnavailable
	}
	ride.OfferedTo = &driverID
	ride.OfferedAt = &now
	return nil
}

func (r *memoryRideRepo) ReleaseOffer(ctx context.Context, rideID, driverID primitive.ObjectID, reject bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ride, ok := r.rides[rideID]
	if !ok {
		return ErrRideNotFound
	}
	if ride.Status != models.RideStatusSearching || ride.OfferedTo == nil || *ride.OfferedTo != driverID {
		return ErrOfferExpired
	}
	ride.OfferedTo = nil
	ride.OfferedAt = nil
	if reject {
		ride.RejectedBy = append(ride.RejectedBy, driverID)
	}
	return nil
}

func (r *memoryRideRepo) AcceptOffer(ctx context.Context, rideID, driverID primitive.ObjectID, window time.Duration) (*models.Ride, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ride, ok := r.rides[rideID]
	if !ok {
		return nil, ErrRideNotFound
	}
	now := time.Now()
	if ride.Status != models.RideStatusSearching && ride.Status != models.RideStatusCounterOffered {
		return nil, ErrRideUnavailable
	}
	if ride.OfferedTo == nil || *ride.OfferedTo != driverID {
		return nil, ErrRideUnavailable
	}
	if ride.Status == models.RideStatusSearching && !ride.OfferLive(now, window) {
		return nil, ErrOfferExpired
	}
	ride.Status = models.RideStatusAccepted
	ride.DriverID = &driverID
	ride.AcceptedAt = &now
	ride.OfferedTo = nil
	ride.OfferedAt = nil
	ride.CounterFare = nil
	if r.drivers != nil {
		r.drivers.setStatus(driverID, models.DriverStatusOnRide, false)
	}
	copied := *ride
	return &copied, nil
}

func (r *memoryRideRepo) CounterOffer(ctx context.Context, rideID, driverID primitive.ObjectID, fare float64, window time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ride, ok := r.rides[rideID]
	if !ok {
		return ErrRideNotFound
	}
	if ride.Status != models.RideStatusSearching {
		return ErrRideUnavailable
	}
	if ride.OfferedTo == nil || *ride.OfferedTo != driverID {
		return ErrRideUnavailable
	}
	if !ride.OfferLive(time.Now(), window) {
		return ErrOfferExpired
	}
	ride.Status = models.RideStatusCounterOffered
	ride.CounterFare = &fare
	return nil
}

func (r *memoryRideRepo) AcceptCounter(ctx context.Context, rideID, passengerID primitive.ObjectID) (*models.Ride, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ride, ok := r.rides[rideID]
	if !ok {
		return nil, ErrRideNotFound
	}
	if ride.PassengerID != passengerID {
		return nil, ErrRideNotFound
	}
	if ride.Status != models.RideStatusCounterOffered || ride.OfferedTo == nil || ride.CounterFare == nil {
		return nil, ErrRideUnavailable
	}
	now := time.Now()
	driverID := *ride.OfferedTo
	ride.Status = models.RideStatusAccepted
	ride.DriverID = &driverID
	ride.Fare = *ride.CounterFare
	if ride.FareBreakdown != nil {
		ride.FareBreakdown = ride.FareBreakdown.CloneWithTotal(ride.Fare)
	}
	ride.CounterFare = nil
	ride.AcceptedAt = &now
	ride.OfferedTo = nil
	ride.OfferedAt = nil
	if r.drivers != nil {
		r.drivers.setStatus(driverID, models.DriverStatusOnRide, false)
	}
	copied := *ride
	return &copied, nil
}

func (r *memoryRideRepo) Transition(ctx context.Context, id primitive.ObjectID, from, to models.RideStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ride, ok := r.rides[id]
	if !ok {
		return ErrRideNotFound
	}
	if !models.CanTransition(from, to) || ride.Status != from {
		return ErrRideUnavailable
	}
	ride.Status = to
	now := time.Now()
	switch to {
	case models.RideStatusArrived:
		ride.ArrivedAt = &now
	case models.RideStatusInProgress:
		ride.StartedAt = &now
	case models.RideStatusCompleted:
		ride.CompletedAt = &now
	}
	return nil
}

func (r *memoryRideRepo) Cancel(ctx context.Context, id primitive.ObjectID, allowed []models.RideStatus, reason, note, cancelledBy string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ride, ok := r.rides[id]
	if !ok {
		return ErrRideNotFound
	}
	permitted := false
	for _, s := range allowed {
		if ride.Status == s {
			permitted = true
		}
	}
	if !permitted {
		return ErrRideUnavailable
	}
	now := time.Now()
	ride.Status = models.RideStatusCancelled
	ride.CancellationReason = reason
	ride.CancellationNote = note
	ride.CancelledBy = cancelledBy
	ride.CancelledAt = &now
	ride.OfferedTo = nil
	ride.OfferedAt = nil
	ride.CounterFare = nil
	return nil
}

func (r *memoryRideRepo) SetRated(ctx context.Context, id primitive.ObjectID, direction models.ReviewDirection) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ride, ok := r.rides[id]
	if !ok {
		return ErrRideNotFound
	}
	if ride.Status != models.RideStatusCompleted {
		return ErrAlreadyRated
	}
	if direction == models.ReviewPassengerToDriver {
		if ride.PassengerRated {
			return ErrAlreadyRated
		}
		ride.PassengerRated = true
	} else {
		if ride.DriverRated {
			return ErrAlreadyRated
		}
		ride.DriverRated = true
	}
	return nil
}

func (r *memoryRideRepo) GetSearching(ctx context.Context, driverID primitive.ObjectID, serviceTypes []models.ServiceType, window time.Duration) ([]*models.Ride, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	var out []*models.Ride
	for _, ride := range r.rides {
		if ride.Status != models.RideStatusSearching || ride.HasRejected(driverID) {
			continue
		}
		if ride.OfferLive(now, window) {
			continue
		}
		served := false
		for _, t := range serviceTypes {
			if ride.ServiceType == t {
				served = true
			}
		}
		if !served {
			continue
		}
		copied := *ride
		out = append(out, &copied)
	}
	return out, nil
}

func (r *memoryRideRepo) WatchSearching(ctx context.Context) (<-chan *models.Ride, error) {
	ch := make(chan *models.Ride)
	go func() {
		<-ctx.Done()
		close(ch)
	}()
	return ch, nil
}

func (r *memoryRideRepo) WatchByPassenger(ctx context.Context, passengerID primitive.ObjectID) (<-chan *models.Ride, error) {
	return r.WatchSearching(ctx)
}

func (r *memoryRideRepo) GetActiveByPassenger(ctx context.Context, passengerID primitive.ObjectID) (*models.Ride, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ride := range r.rides {
		if ride.PassengerID == passengerID && !ride.Status.IsTerminal() {
			copied := *ride
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *memoryRideRepo) GetUnratedCompleted(ctx context.Context, passengerID primitive.ObjectID) (*models.Ride, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ride := range r.rides {
		if ride.PassengerID == passengerID && ride.Status == models.RideStatusCompleted && !ride.PassengerRated {
			copied := *ride
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *memoryRideRepo) GetByPassenger(ctx context.Context, passengerID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Ride, int64, error) {
	return nil, 0, nil
}

func (r *memoryRideRepo) GetByDriver(ctx context.Context, driverID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Ride, int64, error) {
	return nil, 0, nil
}

// memoryDriverRepo holds driver documents keyed by ID.
type memoryDriverRepo struct {
	mu      sync.Mutex
	drivers map[primitive.ObjectID]*models.Driver
}

func newMemoryDriverRepo() *memoryDriverRepo {
	return &memoryDriverRepo{drivers: make(map[primitive.ObjectID]*models.Driver)}
}

func (r *memoryDriverRepo) setStatus(id primitive.ObjectID, status models.DriverStatus, available bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d, ok := r.drivers[id]; ok {
		d.Status = status
		d.IsAvailable = available
	}
}

func (r *memoryDriverRepo) Create(ctx context.Context, driver *models.Driver) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if driver.ID.IsZero() {
		driver.ID = primitive.NewObjectID()
	}
	copied := *driver
	r.drivers[driver.ID] = &copied
	return nil
}

func (r *memoryDriverRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Driver, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	driver, ok := r.drivers[id]
	if !ok {
		return nil, ErrDriverNotFound
	}
	copied := *driver
	return &copied, nil
}

func (r *memoryDriverRepo) GetByUserID(ctx context.Context, userID primitive.ObjectID) (*models.Driver, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, driver := range r.drivers {
		if driver.UserID == userID {
			copied := *driver
			return &copied, nil
		}
	}
	return nil, ErrDriverNotFound
}

func (r *memoryDriverRepo) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	return nil
}

func (r *memoryDriverRepo) SetAvailability(ctx context.Context, id primitive.ObjectID, available bool) error {
	status := models.DriverStatusOffline
	if available {
		status = models.DriverStatusAvailable
	}
	r.setStatus(id, status, available)
	return nil
}

func (r *memoryDriverRepo) UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.DriverStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d, ok := r.drivers[id]; ok {
		d.Status = status
	}
	return nil
}

func (r *memoryDriverRepo) UpdateLocation(ctx context.Context, id primitive.ObjectID, location *models.Location) error {
	return nil
}

func (r *memoryDriverRepo) ApplyRating(ctx context.Context, id primitive.ObjectID, rating float64) (float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	driver, ok := r.drivers[id]
	if !ok {
		return 0, ErrDriverNotFound
	}
	driver.Rating = models.NextAverage(driver.Rating, driver.TotalRides, rating)
	return driver.Rating, nil
}

func (r *memoryDriverRepo) IncrementTotalRides(ctx context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d, ok := r.drivers[id]; ok {
		d.TotalRides++
	}
	return nil
}

// memoryUserRepo covers the user-side rating fold.
type memoryUserRepo struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]*models.User
}

func newMemoryUserRepo() *memoryUserRepo {
	return &memoryUserRepo{users: make(map[primitive.ObjectID]*models.User)}
}

func (r *memoryUserRepo) Create(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *memoryUserRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (r *memoryUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return nil, ErrUserNotFound
}

func (r *memoryUserRepo) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	return nil
}

func (r *memoryUserRepo) ApplyRating(ctx context.Context, id primitive.ObjectID, rating float64) (float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return 0, ErrUserNotFound
	}
	user.Rating = models.NextAverage(user.Rating, user.TotalRides, rating)
	return user.Rating, nil
}

func (r *memoryUserRepo) IncrementTotalRides(ctx context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		u.TotalRides++
	}
	return nil
}

// memoryReviewRepo stores reviews in insertion order.
type memoryReviewRepo struct {
	mu      sync.Mutex
	reviews []*models.Review
}

func (r *memoryReviewRepo) Create(ctx context.Context, review *models.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	review.ID = primitive.NewObjectID()
	review.CreatedAt = time.Now()
	copied := *review
	r.reviews = append(r.reviews, &copied)
	return nil
}

func (r *memoryReviewRepo) GetByRideAndDirection(ctx context.Context, rideID primitive.ObjectID, direction models.ReviewDirection) (*models.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, review := range r.reviews {
		if review.RideID == rideID && review.Direction == direction {
			copied := *review
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *memoryReviewRepo) GetByReviewee(ctx context.Context, revieweeID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Review, int64, error) {
	return nil, 0, nil
}

// stubNegotiator returns a scripted arbitration verdict.
type stubNegotiator struct {
	result *ai.NegotiationResult
	err    error
}

func (s *stubNegotiator) Negotiate(ctx context.Context, estimatedFare, proposedFare, minFare, maxFare float64) (*ai.NegotiationResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

// stubClassifier returns a scripted sentiment label.
type stubClassifier struct {
	label ai.Sentiment
	err   error
}

func (s *stubClassifier) Classify(ctx context.Context, comment string) (ai.Sentiment, error) {
	if s.err != nil {
		return ai.SentimentNeutral, s.err
	}
	return s.label, nil
}

// memoryCache is a JSON round-tripping stand-in for the redis cache.
type memoryCache struct {
	mu    sync.Mutex
	items map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{items: make(map[string][]byte)}
}

func (c *memoryCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = data
	return nil
}

func (c *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	data, ok := c.items[key]
	c.mu.Unlock()
	if !ok {
		return errors.New("cache miss")
	}
	return json.Unmarshal(data, dest)
}

func (c *memoryCache) Delete(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		delete(c.items, key)
	}
	return nil
}

func (c *memoryCache) Exists(ctx context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.items[key]
	return ok, nil
}
