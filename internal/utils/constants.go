package utils

import "time"

// Application Constants
const (
	AppName    = "FairRide"
	AppVersion = "1.0.0"

	// Default values
	DefaultCurrency = "USD"

	// Pagination
	DefaultPageSize = 20
	MaxPageSize     = 100
	MinPageSize     = 1

	// Matching
	OfferWindow         = 30 * time.Second
	DefaultScanInterval = 3 * time.Second

	// Negotiation
	DefaultNegotiationRange = 0.20
	NegotiationMinFactor    = 0.90
	NegotiationMaxFactor    = 1.20
	FareCounterTTL          = 2 * time.Minute

	// Rating
	MinRating = 1.0
	MaxRating = 5.0

	// Chat
	MaxMessageLength = 1000

	// Geo
	EarthRadiusKM = 6371.0

	// Ride
	MaxRideDistance = 500.0 // kilometers
)

// HTTP Status Messages
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Error Messages
const (
	ErrValidationFailed = "validation failed"
	ErrInternalServer   = "internal server error"
	ErrUnauthorized     = "unauthorized"
	ErrNotFound         = "resource not found"
)
