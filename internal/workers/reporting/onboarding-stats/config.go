// internal/workers/reporting/onboarding-stats/config.go
package onboardingstats

import "time"

type Config struct {
	Timeout time.Duration
	// MaxTenants bounds the per-tenant rows copied into process variables.
	MaxTenants int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:    30 * time.Second,
		MaxTenants: 100,
	}
}
