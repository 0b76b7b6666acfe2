package onboarding

import (
	"testing"
	"time"

	"hub-backoffice/internal/models"

	"github.com/stretchr/testify/assert"
)

var (
	created = time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	updated = time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)
)

func testTenant() models.Tenant {
	return models.Tenant{ID: "t-1", Name: "Acme Dental", HubID: 1, CreatedAt: created, UpdatedAt: updated}
}

func TestEvaluate_CampaignSubmission(t *testing.T) {
	ev := Evidence{Payment: payment("completed"), Submission: submission("campaign", "completed")}

	r := Evaluate(testTenant(), ev)

	assert.Equal(t, "t-1", r.TenantID)
	assert.Equal(t, "Acme Dental", r.TenantName)
	assert.Equal(t, 1, r.HubID)
	assert.Equal(t, StageCampaignSubmission, r.Stage)
	assert.InDelta(t, 72.7, r.Progress, 0.05)
	assert.Equal(t, 73, r.ProgressDisplay)
	assert.Equal(t, HealthActive, r.Health)
	assert.Equal(t, "Submit messaging campaign for approval", r.NextAction)
	assert.Equal(t, ev.Submission.UpdatedAt, r.LastActivity)
}

func TestEvaluate_Complete(t *testing.T) {
	r := Evaluate(testTenant(), Evidence{Payment: payment("completed"), Submission: submission("complete", "completed")})

	assert.Equal(t, StageOnboardingComplete, r.Stage)
	assert.Equal(t, HealthCompleted, r.Health)
	assert.Equal(t, "Onboarding complete.", r.NextAction)
	assert.Equal(t, 100, r.ProgressDisplay)
}

func TestEvaluate_Idempotent(t *testing.T) {
	ev := Evidence{HasMembership: true, Payment: payment("pending"), Submission: submission("brand", "pending")}
	assert.Equal(t, Evaluate(testTenant(), ev), Evaluate(testTenant(), ev))
}

func TestLastActivity_Preference(t *testing.T) {
	tenant := testTenant()
	sub := submission("brand", "completed")

	assert.Equal(t, sub.UpdatedAt, LastActivity(tenant, sub))
	assert.Equal(t, updated, LastActivity(tenant, nil))
	assert.Equal(t, updated, LastActivity(tenant, &models.Submission{}))

	tenant.UpdatedAt = time.Time{}
	assert.Equal(t, created, LastActivity(tenant, nil))
}

func TestSortByActivity(t *testing.T) {
	results := []Result{
		{TenantID: "b", LastActivity: created},
		{TenantID: "c", LastActivity: updated},
		{TenantID: "a", LastActivity: created},
	}

	SortByActivity(results)

	assert.Equal(t, "c", results[0].TenantID)
	assert.Equal(t, "a", results[1].TenantID)
	assert.Equal(t, "b", results[2].TenantID)
}
