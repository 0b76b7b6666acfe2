// internal/workers/reporting/onboarding-stats/models.go
package onboardingstats

import "hub-backoffice/internal/onboarding"

type Input struct {
	Hub                string `json:"hub,omitempty"` // id or name; empty means every hub
	VerificationsSince string `json:"verificationsSince,omitempty"`
	IncludeTenants     bool   `json:"includeTenants,omitempty"`
}

type Output struct {
	Scope                string              `json:"scope"`
	HubName              string              `json:"hubName,omitempty"`
	TotalTenants         int                 `json:"totalTenants"`
	ActiveTenants        int                 `json:"activeTenants"`
	TotalUsers           int                 `json:"totalUsers"`
	ActiveUsers          int                 `json:"activeUsers"`
	PendingLeads         int                 `json:"pendingLeads"`
	PendingVerifications int                 `json:"pendingVerifications"`
	StageCounts          map[string]int      `json:"stageCounts"`
	AverageProgress      float64             `json:"averageProgress"`
	DegradedSources      []string            `json:"degradedSources,omitempty"`
	Tenants              []onboarding.Result `json:"tenants,omitempty"`
	GeneratedAt          string              `json:"generatedAt"` // ISO 8601
}
