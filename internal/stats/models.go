// internal/stats/models.go
package stats

import (
	"time"

	"hub-backoffice/internal/onboarding"
)

// Stats is the dashboard summary for one hub or for every hub.
type Stats struct {
	Scope   string `json:"scope"`
	HubID   *int   `json:"hubId,omitempty"`
	HubName string `json:"hubName,omitempty"`

	TotalTenants         int `json:"totalTenants"`
	ActiveTenants        int `json:"activeTenants"`
	ActiveUsers          int `json:"activeUsers"`
	TotalUsers           int `json:"totalUsers"`
	PendingLeads         int `json:"pendingLeads"`
	TotalLeads           int `json:"totalLeads"`
	PendingVerifications int `json:"pendingVerifications"`
	TotalVerifications   int `json:"totalVerifications"`

	StageCounts     map[onboarding.Stage]int `json:"stageCounts"`
	AverageProgress float64                  `json:"averageProgress"`

	// Tenants holds at most dashboard.page_size results, newest activity first.
	Tenants []onboarding.Result `json:"tenants"`

	// HubBreakdown is only set on global stats.
	HubBreakdown []HubBreakdown `json:"hubBreakdown,omitempty"`

	DegradedSources []string  `json:"degradedSources,omitempty"`
	GeneratedAt     time.Time `json:"generatedAt"`
}

// HubBreakdown is one row of the per-hub table on the global dashboard.
type HubBreakdown struct {
	HubID                int    `json:"hubId"`
	HubName              string `json:"hubName"`
	Tenants              int    `json:"tenants"`
	Users                int    `json:"users"`
	Leads                int    `json:"leads"`
	Verifications        int    `json:"verifications"`
	PendingVerifications int    `json:"pendingVerifications"`
}

// StatsOptions narrows the evidence read for a stats computation.
type StatsOptions struct {
	VerificationsSince time.Time
	VerificationsUntil time.Time
}

// RowsOptions filters and bounds a derived-result listing. Zero values mean
// no filter and the default page size.
type RowsOptions struct {
	Limit  int
	Stage  onboarding.Stage
	Health onboarding.HealthStatus
}

func (o RowsOptions) matches(r onboarding.Result) bool {
	if o.Stage != "" && r.Stage != o.Stage {
		return false
	}
	if o.Health != "" && r.Health != o.Health {
		return false
	}
	return true
}
