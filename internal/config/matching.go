package config

import (
	"time"
)

// MatchingConfig drives the driver offer engine. OfferWindow is both the
// client countdown and the store-side claim TTL: a claim older than the
// window is reclaimable by any other driver.
type MatchingConfig struct {
	OfferWindow  time.Duration `yaml:"offer_window"`
	ScanInterval time.Duration `yaml:"scan_interval"`
}

func loadMatchingConfig() *MatchingConfig {
	return &MatchingConfig{
		OfferWindow:  getEnvAsDuration("OFFER_WINDOW", 30*time.Second),
		ScanInterval: getEnvAsDuration("SCAN_INTERVAL", 3*time.Second),
	}
}
