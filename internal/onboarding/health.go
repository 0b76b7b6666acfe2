// internal/onboarding/health.go
package onboarding

type HealthStatus string

const (
	HealthActive    HealthStatus = "active"
	HealthCompleted HealthStatus = "completed"
	// HealthStuck is part of the presentation contract but is not derived:
	// no staleness threshold has been agreed on.
	HealthStuck HealthStatus = "stuck"
)

var nextActions = map[Stage]string{
	StageVerification:       "Complete identity verification",
	StageVerified:           "Create an account",
	StageAccountCreated:     "Initiate payment",
	StagePaymentPending:     "Complete payment",
	StagePaymentCompleted:   "Start brand submission",
	StageBrandSubmission:    "Submit brand for registry approval",
	StagePrivacySetup:       "Complete privacy policy setup",
	StageCampaignSubmission: "Submit messaging campaign for approval",
	StageGphoneProcurement:  "Procure phone numbers",
	StageAccountSetup:       "Finish account setup",
	StageOnboardingComplete: "Onboarding complete.",
}

// ParseHealth accepts "active", "stuck" or "completed".
func ParseHealth(name string) (HealthStatus, bool) {
	switch HealthStatus(normalize(name)) {
	case HealthActive:
		return HealthActive, true
	case HealthCompleted:
		return HealthCompleted, true
	case HealthStuck:
		return HealthStuck, true
	}
	return "", false
}

// Classify returns the health status and the single next action for a stage.
func Classify(s Stage) (HealthStatus, string) {
	if s == StageOnboardingComplete {
		return HealthCompleted, nextActions[s]
	}
	if action, ok := nextActions[s]; ok {
		return HealthActive, action
	}
	return HealthActive, "Review onboarding record"
}
