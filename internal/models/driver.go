package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type DriverStatus string

const (
	DriverStatusAvailable DriverStatus = "available"
	DriverStatusOnRide    DriverStatus = "on-ride"
	DriverStatusOffline   DriverStatus = "offline"
)

type Driver struct {
	ID                 primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID             primitive.ObjectID `json:"user_id" bson:"user_id" validate:"required"`
	LicenseNumber      string             `json:"license_number" bson:"license_number" validate:"required"`
	VehicleModel       string             `json:"vehicle_model" bson:"vehicle_model"`
	VehiclePlate       string             `json:"vehicle_plate" bson:"vehicle_plate"`
	ServiceType        ServiceType        `json:"service_type" bson:"service_type" default:"economy"`
	Status             DriverStatus       `json:"status" bson:"status" default:"offline"`
	IsAvailable        bool               `json:"is_available" bson:"is_available" default:"false"`
	Rating             float64            `json:"rating" bson:"rating" default:"0"`
	TotalRides         int64              `json:"total_rides" bson:"total_rides" default:"0"`
	CurrentLocation    *Location          `json:"current_location" bson:"current_location"`
	LastLocationUpdate *time.Time         `json:"last_location_update" bson:"last_location_update"`
	CreatedAt          time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at" bson:"updated_at"`
}

var serviceRank = map[ServiceType]int{
	ServiceTypeEconomy:   0,
	ServiceTypeComfort:   1,
	ServiceTypeExclusive: 2,
}

// Serves reports whether the driver's vehicle class covers the requested
// service type. Exclusive drivers also serve comfort and economy requests.
func (d *Driver) Serves(t ServiceType) bool {
	return serviceRank[d.ServiceType] >= serviceRank[t]
}

// ServableTypes lists every service type the driver's vehicle class covers,
// used to filter candidate rides during scanning.
func (d *Driver) ServableTypes() []ServiceType {
	var types []ServiceType
	for _, t := range []ServiceType{ServiceTypeEconomy, ServiceTypeComfort, ServiceTypeExclusive} {
		if d.Serves(t) {
			types = append(types, t)
		}
	}
	return types
}
