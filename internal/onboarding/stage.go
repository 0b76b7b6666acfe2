// internal/onboarding/stage.go
package onboarding

import (
	"strings"

	"hub-backoffice/internal/models"
)

// Stage is the inferred lifecycle position of a tenant.
type Stage string

const (
	StageVerification       Stage = "verification"
	StageVerified           Stage = "verified"
	StageAccountCreated     Stage = "accountCreated"
	StagePaymentPending     Stage = "paymentPending"
	StagePaymentCompleted   Stage = "paymentCompleted"
	StageBrandSubmission    Stage = "brandSubmission"
	StagePrivacySetup       Stage = "privacySetup"
	StageCampaignSubmission Stage = "campaignSubmission"
	StageGphoneProcurement  Stage = "gphoneProcurement"
	StageAccountSetup       Stage = "accountSetup"
	StageOnboardingComplete Stage = "onboardingComplete"
)

// orderedStages is the fixed total order used for progress and sorting.
var orderedStages = []Stage{
	StageVerification,
	StageVerified,
	StageAccountCreated,
	StagePaymentPending,
	StagePaymentCompleted,
	StageBrandSubmission,
	StagePrivacySetup,
	StageCampaignSubmission,
	StageGphoneProcurement,
	StageAccountSetup,
	StageOnboardingComplete,
}

// stepStages maps a submission current_step to a stage. The wizard has used
// both the short and the long step names.
var stepStages = map[string]Stage{
	"brand":              StageBrandSubmission,
	"privacy":            StagePrivacySetup,
	"campaign":           StageCampaignSubmission,
	"gphone":             StageGphoneProcurement,
	"phone-provisioning": StageGphoneProcurement,
	"account":            StageAccountSetup,
	"account-setup":      StageAccountSetup,
	"complete":           StageOnboardingComplete,
}

// OrderedStages returns a copy of the canonical stage order.
func OrderedStages() []Stage {
	out := make([]Stage, len(orderedStages))
	copy(out, orderedStages)
	return out
}

// Index returns the position of s in the canonical order, or -1.
func (s Stage) Index() int {
	for i, st := range orderedStages {
		if st == s {
			return i
		}
	}
	return -1
}

func (s Stage) Valid() bool {
	return s.Index() >= 0
}

func (s Stage) String() string {
	return string(s)
}

// ParseStage accepts the canonical names case-insensitively.
func ParseStage(name string) (Stage, bool) {
	name = strings.TrimSpace(name)
	for _, st := range orderedStages {
		if strings.EqualFold(string(st), name) {
			return st, true
		}
	}
	return "", false
}

// Evidence is everything known about one tenant at evaluation time. A nil
// pointer or empty string means the evidence is absent.
type Evidence struct {
	HasVerification bool
	HasUserAccount  bool
	HasMembership   bool
	Payment         *models.PaymentRecord
	Submission      *models.Submission
}

// InferStage applies the stage rules top-down; the first match wins. It reads
// nothing but its argument.
func InferStage(ev Evidence) Stage {
	status := ""
	if ev.Payment != nil {
		status = normalize(ev.Payment.PaymentStatus)
	}

	switch status {
	case "":
		return StageAccountCreated
	case models.PaymentStatusCompleted:
		return stageFromSubmission(ev.Submission)
	default:
		// pending, failed, requires_action and the like: billing started, not finished
		return StagePaymentPending
	}
}

func stageFromSubmission(sub *models.Submission) Stage {
	if sub == nil || normalize(sub.StripeStatus) != models.PaymentStatusCompleted {
		return StagePaymentCompleted
	}
	if st, ok := stepStages[normalize(sub.CurrentStep)]; ok {
		return st
	}
	return StagePaymentCompleted
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
