package models

// Request payloads bound from the HTTP layer.

type EstimateFareRequest struct {
	PickupLocation  *Location   `json:"pickup_location" binding:"required"`
	DropoffLocation *Location   `json:"dropoff_location" binding:"required"`
	ServiceType     ServiceType `json:"service_type" binding:"required"`
}

type RequestRideRequest struct {
	PickupAddress   string        `json:"pickup_address" binding:"required"`
	DropoffAddress  string        `json:"dropoff_address" binding:"required"`
	PickupLocation  *Location     `json:"pickup_location" binding:"required"`
	DropoffLocation *Location     `json:"dropoff_location" binding:"required"`
	ServiceType     ServiceType   `json:"service_type" binding:"required"`
	PaymentMethod   PaymentMethod `json:"payment_method"`
	ProposedFare    float64       `json:"proposed_fare" binding:"required,gt=0"`
}

type CounterOfferRequest struct {
	Fare float64 `json:"fare" binding:"required,gt=0"`
}

type CounterDecisionRequest struct {
	Accept bool `json:"accept"`
}

type CancelRideRequest struct {
	Reason string `json:"reason" binding:"required"`
	Note   string `json:"note"`
}

type ChatMessageRequest struct {
	Text string `json:"text" binding:"required,max=1000"`
}

type SOSRequest struct {
	Location *Location `json:"location"`
	Note     string    `json:"note"`
}

type SubmitReviewRequest struct {
	Rating  float64 `json:"rating" binding:"required,min=1,max=5"`
	Comment string  `json:"comment" binding:"max=2000"`
}

type UpdateLocationRequest struct {
	Location *Location `json:"location" binding:"required"`
}
