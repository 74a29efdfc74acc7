package config

// FareConfig holds the per-city tariff used to compute the baseline estimate.
type FareConfig struct {
	BaseFare            float64 `yaml:"base_fare"`
	PricePerKM          float64 `yaml:"price_per_km"`
	PricePerMinute      float64 `yaml:"price_per_minute"`
	BookingFee          float64 `yaml:"booking_fee"`
	MinimumFare         float64 `yaml:"minimum_fare"`
	ComfortMultiplier   float64 `yaml:"comfort_multiplier"`
	ExclusiveMultiplier float64 `yaml:"exclusive_multiplier"`
}

func loadFareConfig() *FareConfig {
	return &FareConfig{
		BaseFare:            getEnvAsFloat64("FARE_BASE", 2.0),
		PricePerKM:          getEnvAsFloat64("FARE_PER_KM", 1.2),
		PricePerMinute:      getEnvAsFloat64("FARE_PER_MINUTE", 0.3),
		BookingFee:          getEnvAsFloat64("FARE_BOOKING_FEE", 1.0),
		MinimumFare:         getEnvAsFloat64("FARE_MINIMUM", 4.0),
		ComfortMultiplier:   getEnvAsFloat64("FARE_COMFORT_MULTIPLIER", 1.3),
		ExclusiveMultiplier: getEnvAsFloat64("FARE_EXCLUSIVE_MULTIPLIER", 1.8),
	}
}
