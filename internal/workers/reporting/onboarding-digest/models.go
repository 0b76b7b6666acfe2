// internal/workers/reporting/onboarding-digest/models.go
package onboardingdigest

type Input struct {
	Hub        string   `json:"hub,omitempty"`
	Recipients []string `json:"recipients"`
	Phones     []string `json:"phones,omitempty"`
}

type Output struct {
	DigestID       string   `json:"digestId"`
	Status         string   `json:"status"`
	Channels       []string `json:"channels"`
	FailedChannels []string `json:"failedChannels,omitempty"`
	Scope          string   `json:"scope"`
	TotalTenants   int      `json:"totalTenants"`
	SentAt         string   `json:"sentAt"` // ISO 8601
}

// WebhookPayload is posted to digest.webhook_url.
type WebhookPayload struct {
	DigestID             string         `json:"digestId"`
	Scope                string         `json:"scope"`
	HubName              string         `json:"hubName,omitempty"`
	TotalTenants         int            `json:"totalTenants"`
	ActiveTenants        int            `json:"activeTenants"`
	PendingVerifications int            `json:"pendingVerifications"`
	PendingLeads         int            `json:"pendingLeads"`
	StageCounts          map[string]int `json:"stageCounts"`
	DegradedSources      []string       `json:"degradedSources,omitempty"`
	GeneratedAt          string         `json:"generatedAt"`
}

// Statuses
const (
	StatusSent    = "sent"
	StatusPartial = "partial"
)

// Channels
const (
	ChannelEmail   = "email"
	ChannelSMS     = "sms"
	ChannelWebhook = "webhook"
)
