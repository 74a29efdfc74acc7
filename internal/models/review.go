package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Sentiment string
type ReviewDirection string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"

	ReviewPassengerToDriver ReviewDirection = "passenger_to_driver"
	ReviewDriverToPassenger ReviewDirection = "driver_to_passenger"
)

// Review is append-only: one per completed ride per direction.
type Review struct {
	ID         primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	RideID     primitive.ObjectID `json:"ride_id" bson:"ride_id" validate:"required"`
	ReviewerID primitive.ObjectID `json:"reviewer_id" bson:"reviewer_id" validate:"required"`
	RevieweeID primitive.ObjectID `json:"reviewee_id" bson:"reviewee_id" validate:"required"`
	Direction  ReviewDirection    `json:"direction" bson:"direction" validate:"required"`
	Rating     float64            `json:"rating" bson:"rating" validate:"required,min=1,max=5"`
	Comment    string             `json:"comment" bson:"comment"`
	Sentiment  Sentiment          `json:"sentiment" bson:"sentiment" default:"neutral"`
	CreatedAt  time.Time          `json:"created_at" bson:"created_at"`
}

// NextAverage folds a new rating into a running average. With zero prior
// ratings the result is the new rating itself, not a blend with the zero value.
func NextAverage(oldAverage float64, priorCount int64, newRating float64) float64 {
	if priorCount <= 0 {
		return newRating
	}
	return (oldAverage*float64(priorCount) + newRating) / float64(priorCount+1)
}
