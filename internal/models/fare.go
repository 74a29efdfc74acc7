package models

// FareBreakdown itemizes how a quoted total was computed. The negotiated ride
// stores a clone of the quote's breakdown with Total overwritten by the agreed
// amount.
type FareBreakdown struct {
	BaseFare          float64 `json:"base_fare" bson:"base_fare"`
	DistanceFare      float64 `json:"distance_fare" bson:"distance_fare"`
	TimeFare          float64 `json:"time_fare" bson:"time_fare"`
	ServiceMultiplier float64 `json:"service_multiplier" bson:"service_multiplier"`
	BookingFee        float64 `json:"booking_fee" bson:"booking_fee"`
	Surcharge         float64 `json:"surcharge" bson:"surcharge"`
	Discount          float64 `json:"discount" bson:"discount"`
	Currency          string  `json:"currency" bson:"currency" default:"USD"`
	Total             float64 `json:"total" bson:"total"`
}

// CloneWithTotal returns a copy of the breakdown with the total replaced by
// the agreed fare.
func (b *FareBreakdown) CloneWithTotal(total float64) *FareBreakdown {
	clone := *b
	clone.Total = total
	return &clone
}

// FareQuote is the computed baseline a passenger negotiates against.
type FareQuote struct {
	EstimatedFare float64        `json:"estimated_fare"`
	MinFare       float64        `json:"min_fare"`
	MaxFare       float64        `json:"max_fare"`
	DistanceKM    float64        `json:"distance_km"`
	DurationMin   int            `json:"duration_min"`
	ServiceType   ServiceType    `json:"service_type"`
	Breakdown     *FareBreakdown `json:"breakdown"`
}
