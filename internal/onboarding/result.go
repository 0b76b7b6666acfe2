// internal/onboarding/result.go
package onboarding

import (
	"sort"
	"time"

	"hub-backoffice/internal/models"
)

// Result is the derived onboarding view of one tenant. It is computed per
// request and never stored.
type Result struct {
	TenantID        string       `json:"tenantId"`
	TenantName      string       `json:"tenantName"`
	HubID           int          `json:"hubId"`
	Stage           Stage        `json:"stage"`
	Progress        float64      `json:"progress"`
	ProgressDisplay int          `json:"progressDisplay"`
	Health          HealthStatus `json:"health"`
	NextAction      string       `json:"nextAction"`
	LastActivity    time.Time    `json:"lastActivity"`
}

// Evaluate derives the Result for one tenant from its evidence.
func Evaluate(tenant models.Tenant, ev Evidence) Result {
	stage := InferStage(ev)
	progress := Progress(stage)
	health, action := Classify(stage)

	return Result{
		TenantID:        tenant.ID,
		TenantName:      tenant.Name,
		HubID:           tenant.HubID,
		Stage:           stage,
		Progress:        progress,
		ProgressDisplay: DisplayProgress(progress),
		Health:          health,
		NextAction:      action,
		LastActivity:    LastActivity(tenant, ev.Submission),
	}
}

// LastActivity prefers the submission update time, then the tenant update
// time, then the tenant creation time.
func LastActivity(tenant models.Tenant, sub *models.Submission) time.Time {
	if sub != nil && !sub.UpdatedAt.IsZero() {
		return sub.UpdatedAt
	}
	if !tenant.UpdatedAt.IsZero() {
		return tenant.UpdatedAt
	}
	return tenant.CreatedAt
}

// SortByActivity orders results newest activity first, ties by tenant id.
func SortByActivity(results []Result) {
	sort.SliceStable(results, func(i, j int) bool {
		if !results[i].LastActivity.Equal(results[j].LastActivity) {
			return results[i].LastActivity.After(results[j].LastActivity)
		}
		return results[i].TenantID < results[j].TenantID
	})
}
