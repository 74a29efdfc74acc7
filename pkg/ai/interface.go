package ai

import "context"

type Decision string
type Sentiment string

const (
	DecisionAccepted     Decision = "accepted"
	DecisionCounterOffer Decision = "counter-offer"
	DecisionRejected     Decision = "rejected"

	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

// NegotiationResult is the arbitration verdict on a passenger's fare proposal.
// CounterFare is only meaningful when Decision is counter-offer.
type NegotiationResult struct {
	Decision    Decision `json:"decision"`
	Reason      string   `json:"reason"`
	CounterFare float64  `json:"counter_fare,omitempty"`
}

// Negotiator arbitrates a proposed fare against the counterpart's acceptable
// envelope [minFare, maxFare]. One round only; the caller never re-submits.
type Negotiator interface {
	Negotiate(ctx context.Context, estimatedFare, proposedFare, minFare, maxFare float64) (*NegotiationResult, error)
}

// SentimentClassifier labels a free-text review comment.
type SentimentClassifier interface {
	Classify(ctx context.Context, comment string) (Sentiment, error)
}
