package services

import (
	"context"
	"errors"
	"math"
	"testing"

	"fairride/internal/config"
	"fairride/internal/models"
	"fairride/pkg/ai"
)

func testNegotiationService(t *testing.T, negotiator ai.Negotiator) *NegotiationService {
	t.Helper()
	fares := &config.FareConfig{
		BaseFare:            2.0,
		PricePerKM:          1.2,
		PricePerMinute:      0.3,
		BookingFee:          1.0,
		MinimumFare:         4.0,
		ComfortMultiplier:   1.3,
		ExclusiveMultiplier: 1.8,
	}
	negotiation := &config.NegotiationConfig{
		Range:     0.20,
		MinFactor: 0.90,
		MaxFactor: 1.20,
	}
	return NewNegotiationService(fares, negotiation, "USD", nil, negotiator, testLogger(t))
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 0.005
}

func TestBounds(t *testing.T) {
	svc := testNegotiationService(t, nil)

	minFare, maxFare := svc.Bounds(20.0)
	if !almostEqual(minFare, 16.0) {
		t.Errorf("min fare = %.2f, want 16.00", minFare)
	}
	if !almostEqual(maxFare, 20.0) {
		t.Errorf("max fare = %.2f, want 20.00", maxFare)
	}
}

func TestCounterBounds(t *testing.T) {
	svc := testNegotiationService(t, nil)

	minFare, maxFare := svc.CounterBounds(20.0)
	if !almostEqual(minFare, 18.0) {
		t.Errorf("envelope min = %.2f, want 18.00", minFare)
	}
	if !almostEqual(maxFare, 24.0) {
		t.Errorf("envelope max = %.2f, want 24.00", maxFare)
	}
}

func TestEstimateFareFallsBackToHaversine(t *testing.T) {
	svc := testNegotiationService(t, nil)

	pickup := &models.Location{Latitude: 40.7580, Longitude: -73.9855}
	dropoff := &models.Location{Latitude: 40.7484, Longitude: -73.9857}

	quote, err := svc.EstimateFare(context.Background(), pickup, dropoff, models.ServiceTypeEconomy)
	if err != nil {
		t.Fatalf("EstimateFare: %v", err)
	}
	if quote.EstimatedFare < 4.0 {
		t.Errorf("estimate %.2f below minimum fare", quote.EstimatedFare)
	}
	if quote.MinFare >= quote.EstimatedFare {
		t.Errorf("min %.2f not below estimate %.2f", quote.MinFare, quote.EstimatedFare)
	}
	if quote.Breakdown == nil || quote.Breakdown.Total != quote.EstimatedFare {
		t.Errorf("breakdown total does not match estimate")
	}
	if quote.Breakdown.Currency != "USD" {
		t.Errorf("currency = %q, want USD", quote.Breakdown.Currency)
	}
}

func TestEstimateFareServiceMultipliers(t *testing.T) {
	svc := testNegotiationService(t, nil)

	pickup := &models.Location{Latitude: 40.70, Longitude: -74.00}
	dropoff := &models.Location{Latitude: 40.80, Longitude: -73.95}

	economy, err := svc.EstimateFare(context.Background(), pickup, dropoff, models.ServiceTypeEconomy)
	if err != nil {
		t.Fatalf("economy estimate: %v", err)
	}
	exclusive, err := svc.EstimateFare(context.Background(), pickup, dropoff, models.ServiceTypeExclusive)
	if err != nil {
		t.Fatalf("exclusive estimate: %v", err)
	}
	if exclusive.EstimatedFare <= economy.EstimatedFare {
		t.Errorf("exclusive %.2f not above economy %.2f", exclusive.EstimatedFare, economy.EstimatedFare)
	}
}

func TestProposeAcceptedAdoptsBid(t *testing.T) {
	svc := testNegotiationService(t, &stubNegotiator{
		result: &ai.NegotiationResult{Decision: ai.DecisionAccepted, Reason: "fair offer"},
	})

	quote := &models.FareQuote{EstimatedFare: 20.0}
	fare, result, err := svc.Propose(context.Background(), quote, 18.0)
	if err != nil {
		t.Fatalf("Propose: %v", err)
	}
	if !almostEqual(fare, 18.0) {
		t.Errorf("fare = %.2f, want 18.00", fare)
	}
	if result.Decision != ai.DecisionAccepted {
		t.Errorf("decision = %q, want accepted", result.Decision)
	}
}

func TestProposeOutsideSliderRejected(t *testing.T) {
	svc := testNegotiationService(t, &stubNegotiator{
		result: &ai.NegotiationResult{Decision: ai.DecisionAccepted},
	})

	quote := &models.FareQuote{EstimatedFare: 20.0}
	for _, bid := range []float64{15.99, 20.01, 0} {
		_, _, err := svc.Propose(context.Background(), quote, bid)
		if !errors.Is(err, ErrInvalidFare) {
			t.Errorf("bid %.2f: err = %v, want ErrInvalidFare", bid, err)
		}
	}
}

func TestProposeCounterClampedToEnvelope(t *testing.T) {
	svc := testNegotiationService(t, &stubNegotiator{
		result: &ai.NegotiationResult{Decision: ai.DecisionCounterOffer, CounterFare: 50.0},
	})

	quote := &models.FareQuote{EstimatedFare: 20.0}
	fare, _, err := svc.Propose(context.Background(), quote, 16.0)
	if err != nil {
		t.Fatalf("Propose: %v", err)
	}
	if !almostEqual(fare, 24.0) {
		t.Errorf("counter fare = %.2f, want clamp to 24.00", fare)
	}
}

func TestProposeRejectedVerdict(t *testing.T) {
	svc := testNegotiationService(t, &stubNegotiator{
		result: &ai.NegotiationResult{Decision: ai.DecisionRejected, Reason: "too low"},
	})

	quote := &models.FareQuote{EstimatedFare: 20.0}
	_, _, err := svc.Propose(context.Background(), quote, 16.0)
	if !errors.Is(err, ErrInvalidFare) {
		t.Errorf("err = %v, want ErrInvalidFare", err)
	}
}

func TestProposeArbitrationFailure(t *testing.T) {
	svc := testNegotiationService(t, &stubNegotiator{err: errors.New("model unavailable")})

	quote := &models.FareQuote{EstimatedFare: 20.0}
	_, _, err := svc.Propose(context.Background(), quote, 18.0)
	if err == nil {
		t.Fatal("expected error when arbitration fails")
	}
}
