package onboarding

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgress_BoundsAndOrder(t *testing.T) {
	prev := 0.0
	for _, st := range OrderedStages() {
		p := Progress(st)
		assert.Greater(t, p, 0.0, st)
		assert.LessOrEqual(t, p, 100.0, st)
		assert.Greater(t, p, prev, "progress must increase at %s", st)
		prev = p
	}
	assert.Equal(t, 100.0, Progress(StageOnboardingComplete))
}

func TestProgress_Values(t *testing.T) {
	assert.InDelta(t, 8.0/11.0*100, Progress(StageCampaignSubmission), 1e-9)
	assert.Equal(t, 73, DisplayProgress(Progress(StageCampaignSubmission)))
	assert.InDelta(t, 100.0/11.0, Progress(StageVerification), 1e-9)
	assert.Equal(t, 0.0, Progress(Stage("archived")))
	assert.Equal(t, 0, DisplayProgress(0))
}
