package validators

import (
	"fairride/internal/models"
)

func validServiceType(t models.ServiceType) bool {
	switch t {
	case models.ServiceTypeEconomy, models.ServiceTypeComfort, models.ServiceTypeExclusive:
		return true
	}
	return false
}

func validPaymentMethod(m models.PaymentMethod) bool {
	switch m {
	case "", models.PaymentMethodCash, models.PaymentMethodCard, models.PaymentMethodWallet:
		return true
	}
	return false
}

func validLocation(l *models.Location) bool {
	return l != nil &&
		l.Latitude >= -90 && l.Latitude <= 90 &&
		l.Longitude >= -180 && l.Longitude <= 180
}

func ValidateEstimateFare(req *models.EstimateFareRequest) ValidationErrors {
	var errors ValidationErrors
	if !validLocation(req.PickupLocation) {
		errors = append(errors, ValidationError{Field: "pickup_location", Tag: "coordinates", Message: "must be valid GPS coordinates"})
	}
	if !validLocation(req.DropoffLocation) {
		errors = append(errors, ValidationError{Field: "dropoff_location", Tag: "coordinates", Message: "must be valid GPS coordinates"})
	}
	if !validServiceType(req.ServiceType) {
		errors = append(errors, ValidationError{Field: "service_type", Tag: "oneof", Message: "must be one of: economy comfort exclusive"})
	}
	return errors
}

func ValidateRequestRide(req *models.RequestRideRequest) ValidationErrors {
	errors := ValidateEstimateFare(&models.EstimateFareRequest{
		PickupLocation:  req.PickupLocation,
		DropoffLocation: req.DropoffLocation,
		ServiceType:     req.ServiceType,
	})
	if req.PickupAddress == "" {
		errors = append(errors, ValidationError{Field: "pickup_address", Tag: "required", Message: "this field is required"})
	}
	if req.DropoffAddress == "" {
		errors = append(errors, ValidationError{Field: "dropoff_address", Tag: "required", Message: "this field is required"})
	}
	if !validPaymentMethod(req.PaymentMethod) {
		errors = append(errors, ValidationError{Field: "payment_method", Tag: "oneof", Message: "must be one of: cash card wallet"})
	}
	if req.ProposedFare <= 0 {
		errors = append(errors, ValidationError{Field: "proposed_fare", Tag: "fare_amount", Message: "fare must be a positive amount"})
	}
	return errors
}

func ValidateCounterOffer(req *models.CounterOfferRequest) ValidationErrors {
	var errors ValidationErrors
	if req.Fare <= 0 {
		errors = append(errors, ValidationError{Field: "fare", Tag: "fare_amount", Message: "fare must be a positive amount"})
	}
	return errors
}

func ValidateCancelRide(req *models.CancelRideRequest) ValidationErrors {
	var errors ValidationErrors
	if req.Reason == "" {
		errors = append(errors, ValidationError{Field: "reason", Tag: "required", Message: "this field is required"})
	}
	if len(req.Note) > 500 {
		errors = append(errors, ValidationError{Field: "note", Tag: "max", Message: "must be at most 500"})
	}
	return errors
}

func ValidateChatMessage(req *models.ChatMessageRequest) ValidationErrors {
	var errors ValidationErrors
	if req.Text == "" {
		errors = append(errors, ValidationError{Field: "text", Tag: "required", Message: "this field is required"})
	}
	if len(req.Text) > 1000 {
		errors = append(errors, ValidationError{Field: "text", Tag: "max", Message: "must be at most 1000"})
	}
	return errors
}
