package models

// CancellationReason is a code+text pair sourced from configuration.
type CancellationReason struct {
	Code string `json:"code" bson:"code"`
	Text string `json:"text" bson:"text"`
}

const (
	// CancelReasonCounterDeclined is written when a passenger rejects a
	// driver's counter-offer.
	CancelReasonCounterDeclined = "counter_declined"

	CancelledByPassenger = "passenger"
	CancelledByDriver    = "driver"
)

// DefaultCancellationReasons are used when none are configured.
var DefaultCancellationReasons = []CancellationReason{
	{Code: "changed_plans", Text: "Changed my plans"},
	{Code: "wait_too_long", Text: "Waiting time too long"},
	{Code: "wrong_pickup", Text: "Wrong pickup address"},
	{Code: "driver_request", Text: "Driver asked to cancel"},
	{Code: CancelReasonCounterDeclined, Text: "Counter-offer declined"},
	{Code: "other", Text: "Other"},
}
