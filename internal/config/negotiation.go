package config

// NegotiationConfig bounds the fare bidding exchange. Range is the fraction
// below the estimate a passenger may propose; MinFactor/MaxFactor define the
// counterpart's acceptable envelope around the estimate.
type NegotiationConfig struct {
	Range     float64 `yaml:"range"`
	MinFactor float64 `yaml:"min_factor"`
	MaxFactor float64 `yaml:"max_factor"`
}

func loadNegotiationConfig() *NegotiationConfig {
	return &NegotiationConfig{
		Range:     getEnvAsFloat64("NEGOTIATION_RANGE", 0.20),
		MinFactor: getEnvAsFloat64("NEGOTIATION_MIN_FACTOR", 0.90),
		MaxFactor: getEnvAsFloat64("NEGOTIATION_MAX_FACTOR", 1.20),
	}
}
