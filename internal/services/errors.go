package services

import "errors"

// Sentinel errors shared between the repository and service layers. Losing a
// claim race, acting on a stale offer or double-rating a ride are expected
// outcomes of the protocol, not faults, and callers branch on them.
var (
	// ErrRideUnavailable means the ride left the searching state before the
	// conditional write landed: another driver claimed or accepted it, or
	// the passenger cancelled.
	ErrRideUnavailable = errors.New("ride no longer available")

	// ErrOfferExpired means the caller's claim on the ride lapsed past the
	// offer window before the follow-up action arrived.
	ErrOfferExpired = errors.New("offer expired")

	// ErrInvalidFare means a proposed or countered fare fell outside the
	// allowed bounds.
	ErrInvalidFare = errors.New("fare outside allowed bounds")

	// ErrAlreadyRated means a review already exists for this ride and
	// direction.
	ErrAlreadyRated = errors.New("ride already rated")

	// ErrNoPendingCounter means the passenger answered an arbitration
	// counter that no longer exists, either because it lapsed or because it
	// was already settled.
	ErrNoPendingCounter = errors.New("no pending fare counter")

	ErrRideNotFound   = errors.New("ride not found")
	ErrDriverNotFound = errors.New("driver not found")
	ErrUserNotFound   = errors.New("user not found")
	ErrActiveRide     = errors.New("passenger already has an active ride")
)
