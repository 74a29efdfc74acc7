package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SOSAlert is an independent alert record referencing a ride. Raising one
// never mutates the ride itself.
type SOSAlert struct {
	ID          primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	RideID      primitive.ObjectID  `json:"ride_id" bson:"ride_id" validate:"required"`
	PassengerID primitive.ObjectID  `json:"passenger_id" bson:"passenger_id" validate:"required"`
	DriverID    *primitive.ObjectID `json:"driver_id" bson:"driver_id"`
	TriggeredBy UserType            `json:"triggered_by" bson:"triggered_by" validate:"required"`
	Location    *Location           `json:"location" bson:"location"`
	Note        string              `json:"note" bson:"note"`
	CreatedAt   time.Time           `json:"created_at" bson:"created_at"`
}
