package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestEvidenceQueryFailures_CountsPerKind(t *testing.T) {
	before := testutil.ToFloat64(EvidenceQueryFailures.WithLabelValues("payments"))
	EvidenceQueryFailures.WithLabelValues("payments").Inc()
	EvidenceQueryFailures.WithLabelValues("payments").Inc()

	assert.Equal(t, before+2, testutil.ToFloat64(EvidenceQueryFailures.WithLabelValues("payments")))
}

func TestOnboardingStageTenants_Set(t *testing.T) {
	OnboardingStageTenants.WithLabelValues("global", "paymentPending").Set(4)
	assert.Equal(t, float64(4), testutil.ToFloat64(OnboardingStageTenants.WithLabelValues("global", "paymentPending")))
}
