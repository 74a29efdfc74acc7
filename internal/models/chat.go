package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ChatMessage is an append-only sub-record of a ride, ordered by created_at.
// Messages are never edited or deleted.
type ChatMessage struct {
	ID         primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	RideID     primitive.ObjectID `json:"ride_id" bson:"ride_id" validate:"required"`
	SenderID   primitive.ObjectID `json:"sender_id" bson:"sender_id" validate:"required"`
	SenderRole UserType           `json:"sender_role" bson:"sender_role" validate:"required"`
	Text       string             `json:"text" bson:"text" validate:"required,max=1000"`
	CreatedAt  time.Time          `json:"created_at" bson:"created_at"`
}
