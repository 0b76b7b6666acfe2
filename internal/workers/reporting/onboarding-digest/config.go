// internal/workers/reporting/onboarding-digest/config.go
package onboardingdigest

import "time"

type Config struct {
	FromEmail  string
	SMSEnabled bool
	WebhookURL string
	Timeout    time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 60 * time.Second,
	}
}
