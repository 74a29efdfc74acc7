package maps

import "context"

// RouteEstimate is the driving distance and duration between two points,
// consumed by the fare estimator.
type RouteEstimate struct {
	DistanceKM  float64 `json:"distance_km"`
	DurationMin int     `json:"duration_min"`
}

type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// RouteEstimator resolves a pickup/dropoff pair to distance and duration.
// Geocoding of free-text addresses happens outside this service.
type RouteEstimator interface {
	EstimateRoute(ctx context.Context, origin, destination Location) (*RouteEstimate, error)
}
