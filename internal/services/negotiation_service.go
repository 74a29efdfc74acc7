package services

import (
	"context"
	"fmt"
	"math"

	"fairride/internal/config"
	"fairride/internal/models"
	"fairride/internal/utils"
	"fairride/pkg/ai"
	"fairride/pkg/logger"
	"fairride/pkg/maps"
)

// NegotiationService computes fare quotes and arbitrates passenger bids. The
// passenger sees a slider bounded by [estimate*(1-range), estimate]; the
// arbitration envelope is wider on top, so a counter can land above the
// estimate when the bid is too low.
type NegotiationService struct {
	fares       *config.FareConfig
	negotiation *config.NegotiationConfig
	currency    string
	routes      maps.RouteEstimator
	negotiator  ai.Negotiator
	logger      *logger.Logger
}

func NewNegotiationService(
	fares *config.FareConfig,
	negotiation *config.NegotiationConfig,
	currency string,
	routes maps.RouteEstimator,
	negotiator ai.Negotiator,
	log *logger.Logger,
) *NegotiationService {
	return &NegotiationService{
		fares:       fares,
		negotiation: negotiation,
		currency:    currency,
		routes:      routes,
		negotiator:  negotiator,
		logger:      log,
	}
}

// EstimateFare computes the baseline quote for a trip. The route comes from
// the maps provider when one is configured, otherwise from the haversine
// distance at city driving speed.
func (s *NegotiationService) EstimateFare(ctx context.Context, pickup, dropoff *models.Location, serviceType models.ServiceType) (*models.FareQuote, error) {
	if pickup == nil || dropoff == nil {
		return nil, fmt.Errorf("pickup and dropoff locations are required")
	}

	distanceKM, durationMin, err := s.route(ctx, pickup, dropoff)
	if err != nil {
		return nil, err
	}
	if distanceKM > utils.MaxRideDistance {
		return nil, fmt.Errorf("trip distance %.1f km exceeds the maximum of %.0f km", distanceKM, utils.MaxRideDistance)
	}

	multiplier := s.serviceMultiplier(serviceType)
	distanceFare := distanceKM * s.fares.PricePerKM
	timeFare := float64(durationMin) * s.fares.PricePerMinute

	total := (s.fares.BaseFare+distanceFare+timeFare)*multiplier + s.fares.BookingFee
	if total < s.fares.MinimumFare {
		total = s.fares.MinimumFare
	}
	total = roundFare(total)

	minFare, maxFare := s.Bounds(total)

	return &models.FareQuote{
		EstimatedFare: total,
		MinFare:       minFare,
		MaxFare:       maxFare,
		DistanceKM:    distanceKM,
		DurationMin:   durationMin,
		ServiceType:   serviceType,
		Breakdown: &models.FareBreakdown{
			BaseFare:          s.fares.BaseFare,
			DistanceFare:      roundFare(distanceFare),
			TimeFare:          roundFare(timeFare),
			ServiceMultiplier: multiplier,
			BookingFee:        s.fares.BookingFee,
			Currency:          s.currency,
			Total:             total,
		},
	}, nil
}

// Bounds returns the passenger's slider range for a given estimate. The upper
// bound is the estimate itself; bidding above it makes no sense.
func (s *NegotiationService) Bounds(estimatedFare float64) (minFare, maxFare float64) {
	return roundFare(estimatedFare * (1 - s.negotiation.Range)), estimatedFare
}

// Propose arbitrates the passenger's bid. Accepted adopts the bid; a counter
// verdict returns the clamped counter fare, which binds nothing until the
// passenger settles it; rejected surfaces as an invalid fare. Exactly one
// round.
func (s *NegotiationService) Propose(ctx context.Context, quote *models.FareQuote, proposedFare float64) (float64, *ai.NegotiationResult, error) {
	minFare, maxFare := s.Bounds(quote.EstimatedFare)
	if proposedFare < minFare || proposedFare > maxFare {
		return 0, nil, fmt.Errorf("%w: proposed %.2f outside [%.2f, %.2f]", ErrInvalidFare, proposedFare, minFare, maxFare)
	}

	envelopeMin := roundFare(quote.EstimatedFare * s.negotiation.MinFactor)
	envelopeMax := roundFare(quote.EstimatedFare * s.negotiation.MaxFactor)

	result, err := s.negotiator.Negotiate(ctx, quote.EstimatedFare, proposedFare, envelopeMin, envelopeMax)
	if err != nil {
		return 0, nil, fmt.Errorf("fare arbitration failed: %w", err)
	}

	switch result.Decision {
	case ai.DecisionAccepted:
		return proposedFare, result, nil
	case ai.DecisionCounterOffer:
		counter := roundFare(result.CounterFare)
		if counter < envelopeMin {
			counter = envelopeMin
		}
		if counter > envelopeMax {
			counter = envelopeMax
		}
		return counter, result, nil
	case ai.DecisionRejected:
		return 0, result, fmt.Errorf("%w: %s", ErrInvalidFare, result.Reason)
	default:
		return 0, result, fmt.Errorf("fare arbitration returned unknown decision %q", result.Decision)
	}
}

// CounterBounds is the acceptable envelope for a driver's counter fare on a
// published ride.
func (s *NegotiationService) CounterBounds(estimatedFare float64) (minFare, maxFare float64) {
	return roundFare(estimatedFare * s.negotiation.MinFactor), roundFare(estimatedFare * s.negotiation.MaxFactor)
}

func (s *NegotiationService) route(ctx context.Context, pickup, dropoff *models.Location) (float64, int, error) {
	if s.routes != nil {
		estimate, err := s.routes.EstimateRoute(ctx,
			maps.Location{Latitude: pickup.Latitude, Longitude: pickup.Longitude},
			maps.Location{Latitude: dropoff.Latitude, Longitude: dropoff.Longitude},
		)
		if err == nil {
			return estimate.DistanceKM, estimate.DurationMin, nil
		}
		s.logger.WithError(err).Warn("route estimation failed, falling back to haversine")
	}

	distanceKM := utils.CalculateDistance(pickup.Latitude, pickup.Longitude, dropoff.Latitude, dropoff.Longitude)
	return distanceKM, utils.EstimateETAMinutes(distanceKM, 0), nil
}

func (s *NegotiationService) serviceMultiplier(serviceType models.ServiceType) float64 {
	switch serviceType {
	case models.ServiceTypeComfort:
		return s.fares.ComfortMultiplier
	case models.ServiceTypeExclusive:
		return s.fares.ExclusiveMultiplier
	default:
		return 1.0
	}
}

func roundFare(fare float64) float64 {
	return math.Round(fare*100) / 100
}
