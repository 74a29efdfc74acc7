package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RideStatus string
type ServiceType string
type PaymentMethod string

const (
	RideStatusSearching      RideStatus = "searching"
	RideStatusCounterOffered RideStatus = "counter-offered"
	RideStatusAccepted       RideStatus = "accepted"
	RideStatusArrived        RideStatus = "arrived"
	RideStatusInProgress     RideStatus = "in-progress"
	RideStatusCompleted      RideStatus = "completed"
	RideStatusCancelled      RideStatus = "cancelled"

	ServiceTypeEconomy   ServiceType = "economy"
	ServiceTypeComfort   ServiceType = "comfort"
	ServiceTypeExclusive ServiceType = "exclusive"

	PaymentMethodCash   PaymentMethod = "cash"
	PaymentMethodCard   PaymentMethod = "card"
	PaymentMethodWallet PaymentMethod = "wallet"
)

type Ride struct {
	ID                 primitive.ObjectID   `json:"id" bson:"_id,omitempty"`
	PassengerID        primitive.ObjectID   `json:"passenger_id" bson:"passenger_id" validate:"required"`
	DriverID           *primitive.ObjectID  `json:"driver_id" bson:"driver_id"`
	PickupAddress      string               `json:"pickup_address" bson:"pickup_address" validate:"required"`
	DropoffAddress     string               `json:"dropoff_address" bson:"dropoff_address" validate:"required"`
	PickupLocation     *Location            `json:"pickup_location" bson:"pickup_location"`
	DropoffLocation    *Location            `json:"dropoff_location" bson:"dropoff_location"`
	ServiceType        ServiceType          `json:"service_type" bson:"service_type" validate:"required"`
	PaymentMethod      PaymentMethod        `json:"payment_method" bson:"payment_method" default:"cash"`
	Fare               float64              `json:"fare" bson:"fare" validate:"required"`
	FareBreakdown      *FareBreakdown       `json:"fare_breakdown" bson:"fare_breakdown"`
	CounterFare        *float64             `json:"counter_fare" bson:"counter_fare"`
	Status             RideStatus           `json:"status" bson:"status" default:"searching"`
	OfferedTo          *primitive.ObjectID  `json:"offered_to" bson:"offered_to"`
	OfferedAt          *time.Time           `json:"offered_at" bson:"offered_at"`
	RejectedBy         []primitive.ObjectID `json:"rejected_by" bson:"rejected_by"`
	CancellationReason string               `json:"cancellation_reason" bson:"cancellation_reason"`
	CancellationNote   string               `json:"cancellation_note" bson:"cancellation_note"`
	CancelledBy        string               `json:"cancelled_by" bson:"cancelled_by"`
	PassengerRated     bool                 `json:"passenger_rated" bson:"passenger_rated" default:"false"`
	DriverRated        bool                 `json:"driver_rated" bson:"driver_rated" default:"false"`
	CreatedAt          time.Time            `json:"created_at" bson:"created_at"`
	AcceptedAt         *time.Time           `json:"accepted_at" bson:"accepted_at"`
	ArrivedAt          *time.Time           `json:"arrived_at" bson:"arrived_at"`
	StartedAt          *time.Time           `json:"started_at" bson:"started_at"`
	CompletedAt        *time.Time           `json:"completed_at" bson:"completed_at"`
	CancelledAt        *time.Time           `json:"cancelled_at" bson:"cancelled_at"`
}

// rideTransitions is the allowed status flow. completed and cancelled are
// terminal; searching is the entry status written at creation.
var rideTransitions = map[RideStatus][]RideStatus{
	RideStatusSearching:      {RideStatusCounterOffered, RideStatusAccepted, RideStatusCancelled},
	RideStatusCounterOffered: {RideStatusAccepted, RideStatusSearching, RideStatusCancelled},
	RideStatusAccepted:       {RideStatusArrived, RideStatusInProgress, RideStatusCancelled},
	RideStatusArrived:        {RideStatusInProgress, RideStatusCancelled},
	RideStatusInProgress:     {RideStatusCompleted},
}

func CanTransition(from, to RideStatus) bool {
	for _, s := range rideTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func (s RideStatus) IsTerminal() bool {
	return s == RideStatusCompleted || s == RideStatusCancelled
}

// IsActive reports whether the ride currently has an assigned driver en route
// or on board.
func (s RideStatus) IsActive() bool {
	switch s {
	case RideStatusAccepted, RideStatusArrived, RideStatusInProgress:
		return true
	}
	return false
}

// HasRejected reports whether the driver already declined this ride.
func (r *Ride) HasRejected(driverID primitive.ObjectID) bool {
	for _, id := range r.RejectedBy {
		if id == driverID {
			return true
		}
	}
	return false
}

// OfferLive reports whether the current claim on the ride is still inside the
// offer window at the given instant. An expired claim is reclaimable even
// though offered_to has not been cleared by the previous holder.
func (r *Ride) OfferLive(now time.Time, window time.Duration) bool {
	if r.OfferedTo == nil || r.OfferedAt == nil {
		return false
	}
	return r.OfferedAt.Add(window).After(now)
}
