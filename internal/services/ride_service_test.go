package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"fairride/internal/config"
	"fairride/internal/models"
	"fairride/pkg/ai"
	"fairride/pkg/websocket"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type rideServiceFixture struct {
	rides   *memoryRideRepo
	users   *memoryUserRepo
	drivers *memoryDriverRepo
	reviews *memoryReviewRepo
	cache   *memoryCache
	offers  *OfferService
	svc     *RideService
}

func newRideServiceFixture(t *testing.T, negotiator ai.Negotiator) *rideServiceFixture {
	t.Helper()
	drivers := newMemoryDriverRepo()
	rides := newMemoryRideRepo(drivers)
	users := newMemoryUserRepo()
	reviews := &memoryReviewRepo{}
	cache := newMemoryCache()
	hub := websocket.NewHub()
	log := testLogger(t)

	negotiation := testNegotiationService(t, negotiator)
	offers := NewOfferService(rides, drivers, negotiation, hub, &config.MatchingConfig{
		OfferWindow:  30 * time.Second,
		ScanInterval: time.Hour,
	}, log)

	svc := NewRideService(rides, users, drivers, &memoryChatRepo{}, &memorySOSRepo{}, cache, negotiation, offers, hub, log)
	return &rideServiceFixture{
		rides:   rides,
		users:   users,
		drivers: drivers,
		reviews: reviews,
		cache:   cache,
		offers:  offers,
		svc:     svc,
	}
}

// requestRide publishes a ride through the service, failing the test if the
// arbitration path did not yield one.
func (f *rideServiceFixture) requestRide(t *testing.T, passengerID primitive.ObjectID) *models.Ride {
	t.Helper()
	result, err := f.svc.RequestRide(context.Background(), passengerID, rideRequest())
	if err != nil {
		t.Fatalf("RequestRide: %v", err)
	}
	if result.Ride == nil {
		t.Fatalf("RequestRide did not publish a ride")
	}
	return result.Ride
}

func rideRequest() *models.RequestRideRequest {
	return &models.RequestRideRequest{
		PickupAddress:   "1 Main St",
		DropoffAddress:  "99 Broadway",
		PickupLocation:  &models.Location{Latitude: 40.7580, Longitude: -73.9855},
		DropoffLocation: &models.Location{Latitude: 40.7484, Longitude: -73.9857},
		ServiceType:     models.ServiceTypeEconomy,
		ProposedFare:    5.0,
	}
}

func TestRequestRidePublishesAtArbitratedFare(t *testing.T) {
	f := newRideServiceFixture(t, &stubNegotiator{
		result: &ai.NegotiationResult{Decision: ai.DecisionAccepted},
	})
	passengerID := primitive.NewObjectID()

	ride := f.requestRide(t, passengerID)
	if ride.Status != models.RideStatusSearching {
		t.Errorf("status = %q, want searching", ride.Status)
	}
	if ride.Fare != 5.0 {
		t.Errorf("fare = %.2f, want the accepted bid 5.00", ride.Fare)
	}
	if ride.FareBreakdown == nil || ride.FareBreakdown.Total != ride.Fare {
		t.Errorf("breakdown total does not match fare")
	}
}

func TestRequestRideCounterHoldsPublication(t *testing.T) {
	f := newRideServiceFixture(t, &stubNegotiator{
		result: &ai.NegotiationResult{Decision: ai.DecisionCounterOffer, CounterFare: 6.5, Reason: "bid too low for the route"},
	})
	passengerID := primitive.NewObjectID()

	result, err := f.svc.RequestRide(context.Background(), passengerID, rideRequest())
	if err != nil {
		t.Fatalf("RequestRide: %v", err)
	}
	if result.Ride != nil {
		t.Fatalf("ride published before the passenger answered the counter")
	}
	if result.CounterFare == nil {
		t.Fatalf("counter fare missing from the result")
	}
	if *result.CounterFare <= rideRequest().ProposedFare {
		t.Errorf("counter fare %.2f should exceed the bid %.2f", *result.CounterFare, rideRequest().ProposedFare)
	}

	f.rides.mu.Lock()
	stored := len(f.rides.rides)
	f.rides.mu.Unlock()
	if stored != 0 {
		t.Errorf("ride records = %d, want none until the counter is accepted", stored)
	}
}

func TestAcceptFareCounterPublishesRide(t *testing.T) {
	f := newRideServiceFixture(t, &stubNegotiator{
		result: &ai.NegotiationResult{Decision: ai.DecisionCounterOffer, CounterFare: 6.0},
	})
	passengerID := primitive.NewObjectID()

	result, err := f.svc.RequestRide(context.Background(), passengerID, rideRequest())
	if err != nil {
		t.Fatalf("RequestRide: %v", err)
	}
	if result.CounterFare == nil {
		t.Fatalf("expected a counter fare")
	}

	ride, err := f.svc.RespondToFareCounter(context.Background(), passengerID, true)
	if err != nil {
		t.Fatalf("RespondToFareCounter: %v", err)
	}
	if ride == nil {
		t.Fatalf("accepting the counter should publish the ride")
	}
	if ride.Status != models.RideStatusSearching {
		t.Errorf("status = %q, want searching", ride.Status)
	}
	if ride.Fare != *result.CounterFare {
		t.Errorf("fare = %.2f, want the countered %.2f", ride.Fare, *result.CounterFare)
	}
	if ride.FareBreakdown == nil || ride.FareBreakdown.Total != ride.Fare {
		t.Errorf("breakdown total does not match the countered fare")
	}
}

func TestDeclineFareCounterLeavesNoRide(t *testing.T) {
	f := newRideServiceFixture(t, &stubNegotiator{
		result: &ai.NegotiationResult{Decision: ai.DecisionCounterOffer, CounterFare: 6.0},
	})
	passengerID := primitive.NewObjectID()

	if _, err := f.svc.RequestRide(context.Background(), passengerID, rideRequest()); err != nil {
		t.Fatalf("RequestRide: %v", err)
	}

	ride, err := f.svc.RespondToFareCounter(context.Background(), passengerID, false)
	if err != nil {
		t.Fatalf("RespondToFareCounter: %v", err)
	}
	if ride != nil {
		t.Errorf("declining the counter must not publish a ride")
	}

	f.rides.mu.Lock()
	stored := len(f.rides.rides)
	f.rides.mu.Unlock()
	if stored != 0 {
		t.Errorf("ride records = %d, want 0 after walking away", stored)
	}

	// The counter is one-shot; a late answer finds nothing to settle.
	if _, err := f.svc.RespondToFareCounter(context.Background(), passengerID, true); !errors.Is(err, ErrNoPendingCounter) {
		t.Errorf("err = %v, want ErrNoPendingCounter", err)
	}
}

func TestRequestRideOnePerPassenger(t *testing.T) {
	f := newRideServiceFixture(t, &stubNegotiator{
		result: &ai.NegotiationResult{Decision: ai.DecisionAccepted},
	})
	passengerID := primitive.NewObjectID()

	if _, err := f.svc.RequestRide(context.Background(), passengerID, rideRequest()); err != nil {
		t.Fatalf("first request: %v", err)
	}
	if _, err := f.svc.RequestRide(context.Background(), passengerID, rideRequest()); !errors.Is(err, ErrActiveRide) {
		t.Errorf("err = %v, want ErrActiveRide", err)
	}
}

func TestDeclineCounterCancelsRide(t *testing.T) {
	f := newRideServiceFixture(t, &stubNegotiator{
		result: &ai.NegotiationResult{Decision: ai.DecisionAccepted},
	})
	passengerID := primitive.NewObjectID()
	driver := seedDriver(t, f.drivers, models.ServiceTypeEconomy)

	ride := f.requestRide(t, passengerID)
	if err := f.rides.ClaimOffer(context.Background(), ride.ID, driver.ID, 30*time.Second); err != nil {
		t.Fatalf("claim: %v", err)
	}
	if err := f.rides.CounterOffer(context.Background(), ride.ID, driver.ID, 4.5, 30*time.Second); err != nil {
		t.Fatalf("counter: %v", err)
	}

	declined, err := f.svc.RespondToCounter(context.Background(), ride.ID, passengerID, false)
	if err != nil {
		t.Fatalf("RespondToCounter: %v", err)
	}
	if declined.Status != models.RideStatusCancelled {
		t.Errorf("status = %q, want cancelled", declined.Status)
	}
	if declined.CancellationReason != models.CancelReasonCounterDeclined {
		t.Errorf("reason = %q, want %q", declined.CancellationReason, models.CancelReasonCounterDeclined)
	}
}

func TestAcceptCounterAssignsDriver(t *testing.T) {
	f := newRideServiceFixture(t, &stubNegotiator{
		result: &ai.NegotiationResult{Decision: ai.DecisionAccepted},
	})
	passengerID := primitive.NewObjectID()
	driver := seedDriver(t, f.drivers, models.ServiceTypeEconomy)

	ride := f.requestRide(t, passengerID)
	if err := f.rides.ClaimOffer(context.Background(), ride.ID, driver.ID, 30*time.Second); err != nil {
		t.Fatalf("claim: %v", err)
	}
	if err := f.rides.CounterOffer(context.Background(), ride.ID, driver.ID, 4.5, 30*time.Second); err != nil {
		t.Fatalf("counter: %v", err)
	}

	accepted, err := f.svc.RespondToCounter(context.Background(), ride.ID, passengerID, true)
	if err != nil {
		t.Fatalf("RespondToCounter: %v", err)
	}
	if accepted.Fare != 4.5 {
		t.Errorf("fare = %.2f, want 4.50", accepted.Fare)
	}
	if accepted.DriverID == nil || *accepted.DriverID != driver.ID {
		t.Errorf("driver not assigned")
	}
}

func TestCancelInProgressForbidden(t *testing.T) {
	f := newRideServiceFixture(t, &stubNegotiator{
		result: &ai.NegotiationResult{Decision: ai.DecisionAccepted},
	})
	passengerID := primitive.NewObjectID()
	driver := seedDriver(t, f.drivers, models.ServiceTypeEconomy)

	ride := f.requestRide(t, passengerID)
	if err := f.rides.ClaimOffer(context.Background(), ride.ID, driver.ID, 30*time.Second); err != nil {
		t.Fatalf("claim: %v", err)
	}
	if _, err := f.rides.AcceptOffer(context.Background(), ride.ID, driver.ID, 30*time.Second); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if _, err := f.svc.StartRide(context.Background(), ride.ID, driver.ID); err != nil {
		t.Fatalf("start: %v", err)
	}

	_, err := f.svc.CancelRide(context.Background(), ride.ID, passengerID, models.CancelledByPassenger, "changed_plans", "")
	if !errors.Is(err, ErrRideUnavailable) {
		t.Errorf("err = %v, want ErrRideUnavailable", err)
	}
}

func TestCompleteRideBumpsCountersAndFreesDriver(t *testing.T) {
	f := newRideServiceFixture(t, &stubNegotiator{
		result: &ai.NegotiationResult{Decision: ai.DecisionAccepted},
	})
	driver := seedDriver(t, f.drivers, models.ServiceTypeEconomy)

	passenger := &models.User{UserType: models.UserTypePassenger}
	if err := f.users.Create(context.Background(), passenger); err != nil {
		t.Fatalf("seed passenger: %v", err)
	}

	ride := f.requestRide(t, passenger.ID)
	if err := f.rides.ClaimOffer(context.Background(), ride.ID, driver.ID, 30*time.Second); err != nil {
		t.Fatalf("claim: %v", err)
	}
	if _, err := f.rides.AcceptOffer(context.Background(), ride.ID, driver.ID, 30*time.Second); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if _, err := f.svc.MarkArrived(context.Background(), ride.ID, driver.ID); err != nil {
		t.Fatalf("arrive: %v", err)
	}
	if _, err := f.svc.StartRide(context.Background(), ride.ID, driver.ID); err != nil {
		t.Fatalf("start: %v", err)
	}

	completed, err := f.svc.CompleteRide(context.Background(), ride.ID, driver.ID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if completed.Status != models.RideStatusCompleted {
		t.Errorf("status = %q, want completed", completed.Status)
	}

	gotDriver, _ := f.drivers.GetByID(context.Background(), driver.ID)
	if gotDriver.TotalRides != 1 {
		t.Errorf("driver total_rides = %d, want 1", gotDriver.TotalRides)
	}
	if gotDriver.Status != models.DriverStatusAvailable {
		t.Errorf("driver status = %q, want available", gotDriver.Status)
	}

	gotUser, _ := f.users.GetByID(context.Background(), passenger.ID)
	if gotUser.TotalRides != 1 {
		t.Errorf("passenger total_rides = %d, want 1", gotUser.TotalRides)
	}
}

// memoryChatRepo and memorySOSRepo are append-only stores for the ride's
// sub-records.
type memoryChatRepo struct {
	messages []*models.ChatMessage
}

func (r *memoryChatRepo) Append(ctx context.Context, message *models.ChatMessage) error {
	message.ID = primitive.NewObjectID()
	message.CreatedAt = time.Now()
	copied := *message
	r.messages = append(r.messages, &copied)
	return nil
}

func (r *memoryChatRepo) ListByRide(ctx context.Context, rideID primitive.ObjectID) ([]*models.ChatMessage, error) {
	var out []*models.ChatMessage
	for _, m := range r.messages {
		if m.RideID == rideID {
			out = append(out, m)
		}
	}
	return out, nil
}

type memorySOSRepo struct {
	alerts []*models.SOSAlert
}

func (r *memorySOSRepo) Create(ctx context.Context, alert *models.SOSAlert) error {
	alert.ID = primitive.NewObjectID()
	alert.CreatedAt = time.Now()
	copied := *alert
	r.alerts = append(r.alerts, &copied)
	return nil
}

func (r *memorySOSRepo) ListByRide(ctx context.Context, rideID primitive.ObjectID) ([]*models.SOSAlert, error) {
	return r.alerts, nil
}
