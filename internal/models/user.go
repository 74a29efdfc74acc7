package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UserType string
type UserStatus string

const (
	UserTypePassenger UserType = "passenger"
	UserTypeDriver    UserType = "driver"
	UserTypeAdmin     UserType = "admin"

	UserStatusActive    UserStatus = "active"
	UserStatusSuspended UserStatus = "suspended"
)

type User struct {
	ID             primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	FirstName      string             `json:"first_name" bson:"first_name" validate:"required,min=2,max=50"`
	LastName       string             `json:"last_name" bson:"last_name" validate:"required,min=2,max=50"`
	Email          string             `json:"email" bson:"email" validate:"required,email"`
	Phone          string             `json:"phone" bson:"phone" validate:"required"`
	ProfilePicture string             `json:"profile_picture" bson:"profile_picture"`
	UserType       UserType           `json:"user_type" bson:"user_type" validate:"required"`
	Status         UserStatus         `json:"status" bson:"status" default:"active"`
	Rating         float64            `json:"rating" bson:"rating" default:"0"`
	TotalRides     int64              `json:"total_rides" bson:"total_rides" default:"0"`
	CreatedAt      time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at" bson:"updated_at"`
}
