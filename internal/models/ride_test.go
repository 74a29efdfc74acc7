package models

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to RideStatus
		want     bool
	}{
		{RideStatusSearching, RideStatusCounterOffered, true},
		{RideStatusSearching, RideStatusAccepted, true},
		{RideStatusSearching, RideStatusCancelled, true},
		{RideStatusSearching, RideStatusCompleted, false},
		{RideStatusSearching, RideStatusInProgress, false},
		{RideStatusCounterOffered, RideStatusAccepted, true},
		{RideStatusCounterOffered, RideStatusSearching, true},
		{RideStatusCounterOffered, RideStatusCancelled, true},
		{RideStatusAccepted, RideStatusArrived, true},
		{RideStatusAccepted, RideStatusInProgress, true},
		{RideStatusAccepted, RideStatusCancelled, true},
		{RideStatusArrived, RideStatusInProgress, true},
		{RideStatusArrived, RideStatusCancelled, true},
		{RideStatusInProgress, RideStatusCompleted, true},
		{RideStatusInProgress, RideStatusCancelled, false},
		{RideStatusCompleted, RideStatusSearching, false},
		{RideStatusCancelled, RideStatusSearching, false},
		{RideStatusCompleted, RideStatusCancelled, false},
	}

	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestTerminalStates(t *testing.T) {
	for _, s := range []RideStatus{RideStatusCompleted, RideStatusCancelled} {
		if !s.IsTerminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	for _, s := range []RideStatus{RideStatusSearching, RideStatusCounterOffered, RideStatusAccepted, RideStatusArrived, RideStatusInProgress} {
		if s.IsTerminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}

func TestOfferLive(t *testing.T) {
	now := time.Now()
	window := 30 * time.Second
	driverID := primitive.NewObjectID()

	ride := &Ride{}
	if ride.OfferLive(now, window) {
		t.Error("unclaimed ride should not have a live offer")
	}

	fresh := now.Add(-10 * time.Second)
	ride = &Ride{OfferedTo: &driverID, OfferedAt: &fresh}
	if !ride.OfferLive(now, window) {
		t.Error("claim inside the window should be live")
	}

	stale := now.Add(-31 * time.Second)
	ride = &Ride{OfferedTo: &driverID, OfferedAt: &stale}
	if ride.OfferLive(now, window) {
		t.Error("claim past the window should be dead")
	}

	boundary := now.Add(-window)
	ride = &Ride{OfferedTo: &driverID, OfferedAt: &boundary}
	if ride.OfferLive(now, window) {
		t.Error("claim exactly at the window edge should be dead")
	}
}

func TestHasRejected(t *testing.T) {
	a := primitive.NewObjectID()
	b := primitive.NewObjectID()
	ride := &Ride{RejectedBy: []primitive.ObjectID{a}}

	if !ride.HasRejected(a) {
		t.Error("driver a should be rejected")
	}
	if ride.HasRejected(b) {
		t.Error("driver b should not be rejected")
	}
}

func TestDriverServes(t *testing.T) {
	tests := []struct {
		driver  ServiceType
		request ServiceType
		want    bool
	}{
		{ServiceTypeEconomy, ServiceTypeEconomy, true},
		{ServiceTypeEconomy, ServiceTypeComfort, false},
		{ServiceTypeEconomy, ServiceTypeExclusive, false},
		{ServiceTypeComfort, ServiceTypeEconomy, true},
		{ServiceTypeComfort, ServiceTypeComfort, true},
		{ServiceTypeComfort, ServiceTypeExclusive, false},
		{ServiceTypeExclusive, ServiceTypeEconomy, true},
		{ServiceTypeExclusive, ServiceTypeComfort, true},
		{ServiceTypeExclusive, ServiceTypeExclusive, true},
	}

	for _, tt := range tests {
		d := &Driver{ServiceType: tt.driver}
		if got := d.Serves(tt.request); got != tt.want {
			t.Errorf("%s driver serves %s = %v, want %v", tt.driver, tt.request, got, tt.want)
		}
	}

	exclusive := &Driver{ServiceType: ServiceTypeExclusive}
	if got := len(exclusive.ServableTypes()); got != 3 {
		t.Errorf("exclusive driver covers %d types, want 3", got)
	}
}
