package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"fairride/internal/config"
	"fairride/internal/models"
	"fairride/internal/repositories/interfaces"
	"fairride/pkg/logger"
	"fairride/pkg/websocket"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type sessionState string

const (
	stateScanning  sessionState = "scanning"
	stateHolding   sessionState = "holding-offer"
	stateCountered sessionState = "countered"
	stateOnRide    sessionState = "on-ride"
)

// driverSession tracks one online driver through the offer protocol. A driver
// holds at most one offer at a time; the session serializes every action
// against the expiry timer through its mutex.
type driverSession struct {
	driverID     primitive.ObjectID
	serviceTypes []models.ServiceType
	cancel       context.CancelFunc
	nudge        chan struct{}

	mu     sync.Mutex
	state  sessionState
	rideID primitive.ObjectID
	expiry *time.Timer
}

// OfferService runs the matching side of the protocol. Online drivers scan
// the searching pool, claim one ride at a time, and resolve the claim with
// accept, reject, counter or expiry inside the offer window. Losing a claim
// race is silent: the scanner just moves on to the next candidate.
type OfferService struct {
	rides       interfaces.RideRepository
	drivers     interfaces.DriverRepository
	negotiation *NegotiationService
	hub         *websocket.Hub
	cfg         *config.MatchingConfig
	logger      *logger.Logger

	mu       sync.Mutex
	sessions map[primitive.ObjectID]*driverSession
}

func NewOfferService(
	rides interfaces.RideRepository,
	drivers interfaces.DriverRepository,
	negotiation *NegotiationService,
	hub *websocket.Hub,
	cfg *config.MatchingConfig,
	log *logger.Logger,
) *OfferService {
	return &OfferService{
		rides:       rides,
		drivers:     drivers,
		negotiation: negotiation,
		hub:         hub,
		cfg:         cfg,
		logger:      log,
		sessions:    make(map[primitive.ObjectID]*driverSession),
	}
}

// Start consumes the searching-ride stream and nudges every scanning session
// so fresh requests are picked up ahead of the periodic scan. Runs until the
// context is cancelled.
func (s *OfferService) Start(ctx context.Context) error {
	stream, err := s.rides.WatchSearching(ctx)
	if err != nil {
		return fmt.Errorf("failed to watch searching rides: %w", err)
	}

	go func() {
		for range stream {
			s.mu.Lock()
			for _, session := range s.sessions {
				select {
				case session.nudge <- struct{}{}:
				default:
				}
			}
			s.mu.Unlock()
		}
	}()

	return nil
}

// GoOnline marks the driver available and starts their scanning session.
func (s *OfferService) GoOnline(ctx context.Context, driverID primitive.ObjectID) error {
	driver, err := s.drivers.GetByID(ctx, driverID)
	if err != nil {
		return err
	}
	if driver.Status == models.DriverStatusOnRide {
		return fmt.Errorf("driver is on a ride")
	}

	if err := s.drivers.SetAvailability(ctx, driverID, true); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[driverID]; ok {
		return nil
	}

	sessCtx, cancel := context.WithCancel(context.Background())
	session := &driverSession{
		driverID:     driverID,
		serviceTypes: driver.ServableTypes(),
		cancel:       cancel,
		nudge:        make(chan struct{}, 1),
		state:        stateScanning,
	}
	s.sessions[driverID] = session

	go s.scanLoop(sessCtx, session)

	s.logger.WithDriverID(driverID).Info("driver online, scanning for rides")
	return nil
}

// GoOffline stops the driver's session, releasing any held offer back to the
// pool without penalty.
func (s *OfferService) GoOffline(ctx context.Context, driverID primitive.ObjectID) error {
	s.mu.Lock()
	session, ok := s.sessions[driverID]
	if ok {
		delete(s.sessions, driverID)
	}
	s.mu.Unlock()

	if ok {
		session.cancel()
		session.mu.Lock()
		if session.state == stateHolding {
			session.stopExpiry()
			rideID := session.rideID
			session.mu.Unlock()
			if err := s.rides.ReleaseOffer(ctx, rideID, driverID, false); err != nil && !errors.Is(err, ErrOfferExpired) {
				s.logger.WithError(err).WithDriverID(driverID).Warn("failed to release offer on go-offline")
			}
		} else {
			session.mu.Unlock()
		}
	}

	if err := s.drivers.SetAvailability(ctx, driverID, false); err != nil {
		return err
	}

	s.logger.WithDriverID(driverID).Info("driver offline")
	return nil
}

func (s *OfferService) scanLoop(ctx context.Context, session *driverSession) {
	ticker := time.NewTicker(s.cfg.ScanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-session.nudge:
		}
		s.scanOnce(ctx, session)
	}
}

// scanOnce tries to claim the oldest claimable ride. A claim lost to another
// driver is not an error; the next candidate is tried.
func (s *OfferService) scanOnce(ctx context.Context, session *driverSession) {
	session.mu.Lock()
	if session.state != stateScanning {
		session.mu.Unlock()
		return
	}
	session.mu.Unlock()

	rides, err := s.rides.GetSearching(ctx, session.driverID, session.serviceTypes, s.cfg.OfferWindow)
	if err != nil {
		s.logger.WithError(err).WithDriverID(session.driverID).Warn("candidate scan failed")
		return
	}

	for _, ride := range rides {
		err := s.rides.ClaimOffer(ctx, ride.ID, session.driverID, s.cfg.OfferWindow)
		if err != nil {
			if errors.Is(err, ErrRideUnavailable) || errors.Is(err, ErrRideNotFound) {
				continue
			}
			s.logger.WithError(err).WithRideID(ride.ID).Warn("claim failed")
			continue
		}

		session.mu.Lock()
		session.state = stateHolding
		session.rideID = ride.ID
		session.expiry = time.AfterFunc(s.cfg.OfferWindow, func() {
			s.expireOffer(session, ride.ID)
		})
		session.mu.Unlock()

		s.logger.LogOfferEvent(ride.ID, session.driverID, "offered")
		s.hub.SendToUser(session.driverID, websocket.Event{
			Type: "ride_offer",
			Data: map[string]interface{}{
				"ride":           ride,
				"expires_in_sec": int(s.cfg.OfferWindow.Seconds()),
			},
		})
		return
	}
}

// expireOffer fires when the offer window lapses without a driver response.
// The claim is released without a rejection mark, so the same driver may see
// the ride again on a later scan.
func (s *OfferService) expireOffer(session *driverSession, rideID primitive.ObjectID) {
	session.mu.Lock()
	if session.state != stateHolding || session.rideID != rideID {
		session.mu.Unlock()
		return
	}
	session.state = stateScanning
	session.rideID = primitive.NilObjectID
	session.expiry = nil
	session.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.rides.ReleaseOffer(ctx, rideID, session.driverID, false); err != nil && !errors.Is(err, ErrOfferExpired) {
		s.logger.WithError(err).WithRideID(rideID).Warn("failed to release expired offer")
	}

	s.logger.LogOfferEvent(rideID, session.driverID, "expired")
	s.hub.SendToUser(session.driverID, websocket.Event{
		Type: "offer_expired",
		Data: map[string]interface{}{"ride_id": rideID.Hex()},
	})
}

// Accept turns the driver's held offer into an assignment at the published
// fare. A driver who countered can still fall back to accepting while the
// passenger has not answered.
func (s *OfferService) Accept(ctx context.Context, driverID primitive.ObjectID) (*models.Ride, error) {
	session, err := s.session(driverID)
	if err != nil {
		return nil, err
	}

	session.mu.Lock()
	if session.state != stateHolding && session.state != stateCountered {
		session.mu.Unlock()
		return nil, ErrOfferExpired
	}
	rideID := session.rideID
	session.mu.Unlock()

	ride, err := s.rides.AcceptOffer(ctx, rideID, driverID, s.cfg.OfferWindow)
	if err != nil {
		if errors.Is(err, ErrOfferExpired) || errors.Is(err, ErrRideUnavailable) {
			s.resetToScanning(session, rideID)
		}
		return nil, err
	}

	session.mu.Lock()
	session.stopExpiry()
	session.state = stateOnRide
	session.rideID = ride.ID
	session.mu.Unlock()

	s.logger.LogOfferEvent(ride.ID, driverID, "accepted")
	s.hub.SendToUser(ride.PassengerID, websocket.Event{
		Type: "ride_accepted",
		Data: map[string]interface{}{"ride": ride},
	})
	return ride, nil
}

// Reject releases the held offer and bars the ride from being offered to
// this driver again.
func (s *OfferService) Reject(ctx context.Context, driverID primitive.ObjectID) error {
	session, err := s.session(driverID)
	if err != nil {
		return err
	}

	session.mu.Lock()
	if session.state != stateHolding {
		session.mu.Unlock()
		return ErrOfferExpired
	}
	rideID := session.rideID
	session.stopExpiry()
	session.state = stateScanning
	session.rideID = primitive.NilObjectID
	session.mu.Unlock()

	if err := s.rides.ReleaseOffer(ctx, rideID, driverID, true); err != nil && !errors.Is(err, ErrOfferExpired) {
		return err
	}

	s.logger.LogOfferEvent(rideID, driverID, "rejected")
	return nil
}

// Counter proposes a different fare instead of accepting. The fare must fall
// inside the counter envelope around the published fare. The session then
// waits for the passenger's verdict.
func (s *OfferService) Counter(ctx context.Context, driverID primitive.ObjectID, fare float64) error {
	session, err := s.session(driverID)
	if err != nil {
		return err
	}

	session.mu.Lock()
	if session.state != stateHolding {
		session.mu.Unlock()
		return ErrOfferExpired
	}
	rideID := session.rideID
	session.mu.Unlock()

	ride, err := s.rides.GetByID(ctx, rideID)
	if err != nil {
		return err
	}

	minFare, maxFare := s.negotiation.CounterBounds(ride.Fare)
	if fare < minFare || fare > maxFare {
		return fmt.Errorf("%w: counter %.2f outside [%.2f, %.2f]", ErrInvalidFare, fare, minFare, maxFare)
	}

	if err := s.rides.CounterOffer(ctx, rideID, driverID, fare, s.cfg.OfferWindow); err != nil {
		if errors.Is(err, ErrOfferExpired) || errors.Is(err, ErrRideUnavailable) {
			s.resetToScanning(session, rideID)
		}
		return err
	}

	session.mu.Lock()
	session.stopExpiry()
	session.state = stateCountered
	session.mu.Unlock()

	s.logger.LogOfferEvent(rideID, driverID, "countered")
	s.hub.SendToUser(ride.PassengerID, websocket.Event{
		Type: "counter_offer",
		Data: map[string]interface{}{
			"ride_id":      rideID.Hex(),
			"counter_fare": fare,
		},
	})
	return nil
}

// NotifyCounterResolved moves a countered session forward once the passenger
// accepts or declines. Called by the ride service.
func (s *OfferService) NotifyCounterResolved(driverID primitive.ObjectID, accepted bool) {
	s.mu.Lock()
	session, ok := s.sessions[driverID]
	s.mu.Unlock()
	if !ok {
		return
	}

	session.mu.Lock()
	defer session.mu.Unlock()
	if session.state != stateCountered {
		return
	}
	if accepted {
		session.state = stateOnRide
	} else {
		session.state = stateScanning
		session.rideID = primitive.NilObjectID
	}
}

// NotifyRideFinished resumes scanning after the driver's ride completes or is
// cancelled.
func (s *OfferService) NotifyRideFinished(driverID primitive.ObjectID) {
	s.mu.Lock()
	session, ok := s.sessions[driverID]
	s.mu.Unlock()
	if !ok {
		return
	}

	session.mu.Lock()
	defer session.mu.Unlock()
	if session.state == stateOnRide {
		session.state = stateScanning
		session.rideID = primitive.NilObjectID
	}
}

func (s *OfferService) session(driverID primitive.ObjectID) (*driverSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[driverID]
	if !ok {
		return nil, fmt.Errorf("driver %s is not online", driverID.Hex())
	}
	return session, nil
}

func (s *OfferService) resetToScanning(session *driverSession, rideID primitive.ObjectID) {
	session.mu.Lock()
	defer session.mu.Unlock()
	if session.rideID == rideID {
		session.stopExpiry()
		session.state = stateScanning
		session.rideID = primitive.NilObjectID
	}
}

// stopExpiry must be called with the session mutex held.
func (d *driverSession) stopExpiry() {
	if d.expiry != nil {
		d.expiry.Stop()
		d.expiry = nil
	}
}
