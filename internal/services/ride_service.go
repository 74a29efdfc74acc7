package services

import (
	"context"
	"fmt"

	"fairride/internal/models"
	"fairride/internal/repositories/interfaces"
	"fairride/internal/utils"
	"fairride/pkg/ai"
	"fairride/pkg/logger"
	"fairride/pkg/websocket"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RideService is the passenger-facing side of the matching protocol plus the
// driver's trip progression. All state changes go through the repository's
// conditional writes; the service layers authorization, fan-out and the
// driver session callbacks on top.
type RideService struct {
	rides       interfaces.RideRepository
	users       interfaces.UserRepository
	drivers     interfaces.DriverRepository
	chats       interfaces.ChatRepository
	sos         interfaces.SOSRepository
	cache       CacheService
	negotiation *NegotiationService
	offers      *OfferService
	hub         *websocket.Hub
	logger      *logger.Logger
}

func NewRideService(
	rides interfaces.RideRepository,
	users interfaces.UserRepository,
	drivers interfaces.DriverRepository,
	chats interfaces.ChatRepository,
	sos interfaces.SOSRepository,
	cache CacheService,
	negotiation *NegotiationService,
	offers *OfferService,
	hub *websocket.Hub,
	log *logger.Logger,
) *RideService {
	return &RideService{
		rides:       rides,
		users:       users,
		drivers:     drivers,
		chats:       chats,
		sos:         sos,
		cache:       cache,
		negotiation: negotiation,
		offers:      offers,
		hub:         hub,
		logger:      log,
	}
}

// EstimateFare quotes a trip without creating anything.
func (s *RideService) EstimateFare(ctx context.Context, req *models.EstimateFareRequest) (*models.FareQuote, error) {
	return s.negotiation.EstimateFare(ctx, req.PickupLocation, req.DropoffLocation, req.ServiceType)
}

// RideRequestResult is the outcome of a ride request. Exactly one of Ride and
// CounterFare is set: either the ride was published into the searching pool,
// or arbitration countered and no ride exists until the passenger answers.
type RideRequestResult struct {
	Ride        *models.Ride `json:"ride,omitempty"`
	CounterFare *float64     `json:"counter_fare,omitempty"`
	Reason      string       `json:"reason,omitempty"`
}

// fareCounter is a pending arbitration counter, cached under the passenger's
// id until they accept or walk away.
type fareCounter struct {
	Request     *models.RequestRideRequest `json:"request"`
	Quote       *models.FareQuote          `json:"quote"`
	CounterFare float64                    `json:"counter_fare"`
	Reason      string                     `json:"reason"`
}

func fareCounterKey(passengerID primitive.ObjectID) string {
	return fmt.Sprintf("negotiation:%s", passengerID.Hex())
}

// RequestRide arbitrates the passenger's bid exactly once. An accepted bid
// publishes the ride at that fare, a rejected bid fails the request, and a
// counter is parked for the passenger to settle: the ride is only created if
// they explicitly accept the countered fare. A passenger can have only one
// unfinished ride.
func (s *RideService) RequestRide(ctx context.Context, passengerID primitive.ObjectID, req *models.RequestRideRequest) (*RideRequestResult, error) {
	active, err := s.rides.GetActiveByPassenger(ctx, passengerID)
	if err != nil {
		return nil, err
	}
	if active != nil {
		return nil, ErrActiveRide
	}

	quote, err := s.negotiation.EstimateFare(ctx, req.PickupLocation, req.DropoffLocation, req.ServiceType)
	if err != nil {
		return nil, err
	}

	fare, verdict, err := s.negotiation.Propose(ctx, quote, req.ProposedFare)
	if err != nil {
		return nil, err
	}

	if verdict.Decision == ai.DecisionCounterOffer {
		pending := &fareCounter{
			Request:     req,
			Quote:       quote,
			CounterFare: fare,
			Reason:      verdict.Reason,
		}
		if err := s.cache.Set(ctx, fareCounterKey(passengerID), pending, utils.FareCounterTTL); err != nil {
			return nil, fmt.Errorf("failed to park fare counter: %w", err)
		}
		s.logger.WithUserID(passengerID).WithField("counter_fare", fare).Info("arbitration countered the passenger's bid")
		counter := fare
		return &RideRequestResult{CounterFare: &counter, Reason: verdict.Reason}, nil
	}

	ride, err := s.publishRide(ctx, passengerID, req, quote, fare)
	if err != nil {
		return nil, err
	}

	s.logger.LogRideEvent(ride.ID, "requested", map[string]interface{}{
		"passenger_id": passengerID.Hex(),
		"proposed":     req.ProposedFare,
		"fare":         fare,
		"verdict":      verdict.Decision,
	})
	return &RideRequestResult{Ride: ride}, nil
}

// RespondToFareCounter settles a pending arbitration counter. Accepting
// publishes the ride at the countered fare; declining discards the request
// and leaves no ride record behind.
func (s *RideService) RespondToFareCounter(ctx context.Context, passengerID primitive.ObjectID, accept bool) (*models.Ride, error) {
	key := fareCounterKey(passengerID)
	var pending fareCounter
	if err := s.cache.Get(ctx, key, &pending); err != nil {
		return nil, ErrNoPendingCounter
	}
	if err := s.cache.Delete(ctx, key); err != nil {
		s.logger.WithError(err).WithUserID(passengerID).Warn("failed to clear fare counter")
	}

	if !accept {
		s.logger.WithUserID(passengerID).Info("passenger walked away from fare counter")
		return nil, nil
	}

	active, err := s.rides.GetActiveByPassenger(ctx, passengerID)
	if err != nil {
		return nil, err
	}
	if active != nil {
		return nil, ErrActiveRide
	}

	ride, err := s.publishRide(ctx, passengerID, pending.Request, pending.Quote, pending.CounterFare)
	if err != nil {
		return nil, err
	}

	s.logger.LogRideEvent(ride.ID, "requested", map[string]interface{}{
		"passenger_id": passengerID.Hex(),
		"fare":         pending.CounterFare,
		"verdict":      ai.DecisionCounterOffer,
	})
	return ride, nil
}

func (s *RideService) publishRide(ctx context.Context, passengerID primitive.ObjectID, req *models.RequestRideRequest, quote *models.FareQuote, fare float64) (*models.Ride, error) {
	paymentMethod := req.PaymentMethod
	if paymentMethod == "" {
		paymentMethod = models.PaymentMethodCash
	}

	ride := &models.Ride{
		PassengerID:     passengerID,
		PickupAddress:   req.PickupAddress,
		DropoffAddress:  req.DropoffAddress,
		PickupLocation:  req.PickupLocation,
		DropoffLocation: req.DropoffLocation,
		ServiceType:     req.ServiceType,
		PaymentMethod:   paymentMethod,
		Fare:            fare,
		FareBreakdown:   quote.Breakdown.CloneWithTotal(fare),
		Status:          models.RideStatusSearching,
	}
	if err := s.rides.Create(ctx, ride); err != nil {
		return nil, err
	}

	s.hub.SendToDrivers(websocket.Event{
		Type: "ride_requested",
		Data: map[string]interface{}{"ride": ride},
	})
	return ride, nil
}

// StartPassengerFeed pushes the passenger's ride changes over the websocket
// until the context ends. One feed per connected passenger.
func (s *RideService) StartPassengerFeed(ctx context.Context, passengerID primitive.ObjectID) error {
	stream, err := s.rides.WatchByPassenger(ctx, passengerID)
	if err != nil {
		return err
	}

	go func() {
		for ride := range stream {
			s.hub.SendToUser(passengerID, websocket.Event{
				Type: "ride_update",
				Data: map[string]interface{}{"ride": ride},
			})
		}
	}()
	return nil
}

// RespondToCounter settles a driver's counter-offer. Accepting adopts the
// counter fare and assigns the driver; declining cancels the ride.
func (s *RideService) RespondToCounter(ctx context.Context, rideID, passengerID primitive.ObjectID, accept bool) (*models.Ride, error) {
	current, err := s.rides.GetByID(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if current.PassengerID != passengerID {
		return nil, ErrRideNotFound
	}
	if current.Status != models.RideStatusCounterOffered || current.OfferedTo == nil {
		return nil, ErrRideUnavailable
	}
	driverID := *current.OfferedTo

	if accept {
		ride, err := s.rides.AcceptCounter(ctx, rideID, passengerID)
		if err != nil {
			return nil, err
		}
		s.offers.NotifyCounterResolved(driverID, true)
		s.logger.LogRideEvent(rideID, "counter_accepted", map[string]interface{}{"fare": ride.Fare})
		s.hub.SendToUser(driverID, websocket.Event{
			Type: "counter_accepted",
			Data: map[string]interface{}{"ride": ride},
		})
		return ride, nil
	}

	err = s.rides.Cancel(ctx, rideID,
		[]models.RideStatus{models.RideStatusCounterOffered},
		models.CancelReasonCounterDeclined, "", models.CancelledByPassenger)
	if err != nil {
		return nil, err
	}
	s.offers.NotifyCounterResolved(driverID, false)
	s.logger.LogRideEvent(rideID, "counter_declined", nil)
	s.hub.SendToUser(driverID, websocket.Event{
		Type: "counter_declined",
		Data: map[string]interface{}{"ride_id": rideID.Hex()},
	})
	return s.rides.GetByID(ctx, rideID)
}

// CancelRide cancels a not-yet-started ride. A ride in progress cannot be
// cancelled, and a completed or cancelled ride stays as it is.
func (s *RideService) CancelRide(ctx context.Context, rideID, callerID primitive.ObjectID, cancelledBy, reason, note string) (*models.Ride, error) {
	ride, err := s.rides.GetByID(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if !s.isParticipant(ride, callerID) {
		return nil, ErrRideNotFound
	}

	allowed := []models.RideStatus{
		models.RideStatusSearching,
		models.RideStatusCounterOffered,
		models.RideStatusAccepted,
		models.RideStatusArrived,
	}
	if err := s.rides.Cancel(ctx, rideID, allowed, reason, note, cancelledBy); err != nil {
		return nil, err
	}

	if ride.DriverID != nil {
		s.releaseDriver(ctx, *ride.DriverID)
	}

	s.logger.LogRideEvent(rideID, "cancelled", map[string]interface{}{
		"by":     cancelledBy,
		"reason": reason,
	})
	s.hub.SendRideUpdate(rideID, websocket.Event{
		Type: "ride_cancelled",
		Data: map[string]interface{}{"ride_id": rideID.Hex(), "reason": reason},
	})
	return s.rides.GetByID(ctx, rideID)
}

// MarkArrived records the driver reaching the pickup point.
func (s *RideService) MarkArrived(ctx context.Context, rideID, driverID primitive.ObjectID) (*models.Ride, error) {
	return s.advance(ctx, rideID, driverID, models.RideStatusAccepted, models.RideStatusArrived, "arrived")
}

// StartRide begins the trip. Arrival confirmation may be skipped when the
// passenger boards immediately.
func (s *RideService) StartRide(ctx context.Context, rideID, driverID primitive.ObjectID) (*models.Ride, error) {
	ride, err := s.rides.GetByID(ctx, rideID)
	if err != nil {
		return nil, err
	}
	from := models.RideStatusArrived
	if ride.Status == models.RideStatusAccepted {
		from = models.RideStatusAccepted
	}
	return s.advance(ctx, rideID, driverID, from, models.RideStatusInProgress, "started")
}

// CompleteRide ends the trip, bumps both ride counters and frees the driver.
func (s *RideService) CompleteRide(ctx context.Context, rideID, driverID primitive.ObjectID) (*models.Ride, error) {
	ride, err := s.advance(ctx, rideID, driverID, models.RideStatusInProgress, models.RideStatusCompleted, "completed")
	if err != nil {
		return nil, err
	}

	if err := s.users.IncrementTotalRides(ctx, ride.PassengerID); err != nil {
		s.logger.WithError(err).WithRideID(rideID).Warn("failed to bump passenger ride count")
	}
	if err := s.drivers.IncrementTotalRides(ctx, driverID); err != nil {
		s.logger.WithError(err).WithRideID(rideID).Warn("failed to bump driver ride count")
	}
	s.releaseDriver(ctx, driverID)
	return ride, nil
}

func (s *RideService) advance(ctx context.Context, rideID, driverID primitive.ObjectID, from, to models.RideStatus, event string) (*models.Ride, error) {
	ride, err := s.rides.GetByID(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if ride.DriverID == nil || *ride.DriverID != driverID {
		return nil, ErrRideNotFound
	}

	if err := s.rides.Transition(ctx, rideID, from, to); err != nil {
		return nil, err
	}

	s.logger.LogRideEvent(rideID, event, nil)
	s.hub.SendRideUpdate(rideID, websocket.Event{
		Type: "ride_" + event,
		Data: map[string]interface{}{"ride_id": rideID.Hex(), "status": to},
	})
	return s.rides.GetByID(ctx, rideID)
}

// releaseDriver puts a driver back into the available pool after their ride
// ends.
func (s *RideService) releaseDriver(ctx context.Context, driverID primitive.ObjectID) {
	if err := s.drivers.SetAvailability(ctx, driverID, true); err != nil {
		s.logger.WithError(err).WithDriverID(driverID).Warn("failed to release driver")
	}
	s.offers.NotifyRideFinished(driverID)
}

// Chat

// SendMessage appends to the ride's chat. Only the two participants may
// write, and only while the ride is active.
func (s *RideService) SendMessage(ctx context.Context, rideID, senderID primitive.ObjectID, role models.UserType, text string) (*models.ChatMessage, error) {
	ride, err := s.rides.GetByID(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if !s.isParticipant(ride, senderID) {
		return nil, ErrRideNotFound
	}
	if !ride.Status.IsActive() {
		return nil, fmt.Errorf("chat is only available on an active ride")
	}

	message := &models.ChatMessage{
		RideID:     rideID,
		SenderID:   senderID,
		SenderRole: role,
		Text:       text,
	}
	if err := s.chats.Append(ctx, message); err != nil {
		return nil, err
	}

	s.hub.SendRideUpdate(rideID, websocket.Event{
		Type: "chat_message",
		Data: map[string]interface{}{"message": message},
	})
	return message, nil
}

func (s *RideService) GetMessages(ctx context.Context, rideID, callerID primitive.ObjectID) ([]*models.ChatMessage, error) {
	ride, err := s.rides.GetByID(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if !s.isParticipant(ride, callerID) {
		return nil, ErrRideNotFound
	}
	return s.chats.ListByRide(ctx, rideID)
}

// SOS

// RaiseSOS records an emergency alert against the ride and fans it out. The
// ride record itself is untouched.
func (s *RideService) RaiseSOS(ctx context.Context, rideID, callerID primitive.ObjectID, role models.UserType, req *models.SOSRequest) (*models.SOSAlert, error) {
	ride, err := s.rides.GetByID(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if !s.isParticipant(ride, callerID) {
		return nil, ErrRideNotFound
	}

	alert := &models.SOSAlert{
		RideID:      rideID,
		PassengerID: ride.PassengerID,
		DriverID:    ride.DriverID,
		TriggeredBy: role,
		Location:    req.Location,
		Note:        req.Note,
	}
	if err := s.sos.Create(ctx, alert); err != nil {
		return nil, err
	}

	s.logger.WithRideID(rideID).Warn("sos alert raised")
	s.hub.SendRideUpdate(rideID, websocket.Event{
		Type: "sos_alert",
		Data: map[string]interface{}{"alert": alert},
	})
	return alert, nil
}

// Queries

func (s *RideService) GetRide(ctx context.Context, rideID, callerID primitive.ObjectID) (*models.Ride, error) {
	ride, err := s.rides.GetByID(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if !s.isParticipant(ride, callerID) {
		return nil, ErrRideNotFound
	}
	return ride, nil
}

func (s *RideService) GetActiveRide(ctx context.Context, passengerID primitive.ObjectID) (*models.Ride, error) {
	return s.rides.GetActiveByPassenger(ctx, passengerID)
}

func (s *RideService) GetUnratedRide(ctx context.Context, passengerID primitive.ObjectID) (*models.Ride, error) {
	return s.rides.GetUnratedCompleted(ctx, passengerID)
}

func (s *RideService) GetPassengerHistory(ctx context.Context, passengerID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Ride, int64, error) {
	return s.rides.GetByPassenger(ctx, passengerID, params)
}

func (s *RideService) GetDriverHistory(ctx context.Context, driverID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Ride, int64, error) {
	return s.rides.GetByDriver(ctx, driverID, params)
}

func (s *RideService) isParticipant(ride *models.Ride, id primitive.ObjectID) bool {
	if ride.PassengerID == id {
		return true
	}
	if ride.DriverID != nil && *ride.DriverID == id {
		return true
	}
	if ride.OfferedTo != nil && *ride.OfferedTo == id {
		return true
	}
	return false
}
