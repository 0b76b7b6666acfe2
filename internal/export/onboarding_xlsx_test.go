package export

import (
	"bytes"
	"testing"
	"time"

	"hub-backoffice/internal/onboarding"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleRows() []onboarding.Result {
	return []onboarding.Result{
		{
			TenantID:        "t-1",
			TenantName:      "Acme Dental",
			HubID:           1,
			Stage:           onboarding.StageCampaignSubmission,
			ProgressDisplay: 73,
			Health:          onboarding.HealthActive,
			NextAction:      "Submit messaging campaign for approval",
			LastActivity:    time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC),
		},
		{
			TenantID:        "t-2",
			TenantName:      "Bright Plumbing",
			HubID:           7,
			Stage:           onboarding.StageAccountCreated,
			ProgressDisplay: 27,
			Health:          onboarding.HealthActive,
			NextAction:      "Initiate payment",
		},
	}
}

func TestOnboardingWorkbook(t *testing.T) {
	names := map[int]string{1: "north"}
	data, err := OnboardingWorkbook(sampleRows(), func(id int) string { return names[id] })
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{OnboardingSheet, StagesSheet}, f.GetSheetList())

	rows, err := f.GetRows(OnboardingSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, OnboardingHeader, rows[0])
	assert.Equal(t, []string{"t-1", "Acme Dental", "north", "campaignSubmission", "73", "active", "Submit messaging campaign for approval", "2025-06-01 12:30:00"}, rows[1])

	// unknown hub falls back to the id
	assert.Equal(t, "7", rows[2][2])

	stages, err := f.GetRows(StagesSheet)
	require.NoError(t, err)
	require.Len(t, stages, len(onboarding.OrderedStages())+1)
	assert.Equal(t, []string{"accountCreated", "1"}, stages[3])
}

func TestOnboardingWorkbook_Empty(t *testing.T) {
	data, err := OnboardingWorkbook(nil, nil)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(OnboardingSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
