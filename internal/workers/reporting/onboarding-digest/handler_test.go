// internal/workers/reporting/onboarding-digest/handler_test.go
package onboardingdigest

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"hub-backoffice/internal/common/errors"
	httpclient "hub-backoffice/internal/common/http"
	"hub-backoffice/internal/common/logger"
	"hub-backoffice/internal/onboarding"
	"hub-backoffice/internal/stats"
	"hub-backoffice/pkg/registry"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Mock Implementations
// ==========================

type MockSESService struct {
	SendEmailFunc func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

func (m *MockSESService) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	return m.SendEmailFunc(ctx, params, optFns...)
}

type MockSNSService struct {
	PublishFunc func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

func (m *MockSNSService) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	return m.PublishFunc(ctx, params, optFns...)
}

type MockStatsService struct {
	err error
}

func (m *MockStatsService) GetStats(ctx context.Context, hubRef string, opts stats.StatsOptions) (*stats.Stats, error) {
	if m.err != nil {
		return nil, m.err
	}
	s := createTestStats()
	s.Scope = "hub"
	s.HubName = hubRef
	return s, nil
}

func (m *MockStatsService) GetGlobalStats(ctx context.Context, opts stats.StatsOptions) (*stats.Stats, error) {
	if m.err != nil {
		return nil, m.err
	}
	return createTestStats(), nil
}

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() *Config {
	return &Config{
		FromEmail:  "reports@backoffice.example",
		SMSEnabled: true,
		Timeout:    5 * time.Second,
	}
}

func createTestLogger(t *testing.T) logger.Logger {
	return logger.NewTestLogger(t)
}

func createTestStats() *stats.Stats {
	return &stats.Stats{
		Scope:                "global",
		TotalTenants:         4,
		ActiveTenants:        2,
		TotalUsers:           6,
		ActiveUsers:          3,
		PendingVerifications: 1,
		PendingLeads:         7,
		StageCounts: map[onboarding.Stage]int{
			onboarding.StageVerification:       1,
			onboarding.StageCampaignSubmission: 2,
			onboarding.StageOnboardingComplete: 1,
		},
		AverageProgress: 61.4,
		GeneratedAt:     time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC),
	}
}

func createTestInput() *Input {
	return &Input{
		Recipients: []string{"ops@backoffice.example"},
		Phones:     []string{"+15550001111"},
	}
}

func createTestHandler(t *testing.T, svc StatsService, sesSvc SESService, snsSvc SNSService) *Handler {
	log := createTestLogger(t)
	return &Handler{
		config:       createTestConfig(),
		service:      svc,
		sesClient:    sesSvc,
		snsClient:    snsSvc,
		registry:     registry.Default(),
		logger:       log,
		errorHandler: errors.NewErrorHandler(log),
	}
}

func okSES(t *testing.T) *MockSESService {
	return &MockSESService{
		SendEmailFunc: func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
			assert.Equal(t, "reports@backoffice.example", *params.Source)
			return &ses.SendEmailOutput{}, nil
		},
	}
}

func okSNS() *MockSNSService {
	return &MockSNSService{
		PublishFunc: func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
			return &sns.PublishOutput{}, nil
		},
	}
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_Success(t *testing.T) {
	tests := []struct {
		name           string
		input          *Input
		smsEnabled     bool
		snsErr         error
		validateOutput func(t *testing.T, output *Output)
	}{
		{
			name:       "email and SMS",
			input:      createTestInput(),
			smsEnabled: true,
			validateOutput: func(t *testing.T, output *Output) {
				assert.Equal(t, StatusSent, output.Status)
				assert.Equal(t, []string{ChannelEmail, ChannelSMS}, output.Channels)
				assert.NotEmpty(t, output.DigestID)
				assert.NotEmpty(t, output.SentAt)
				assert.Equal(t, 4, output.TotalTenants)
			},
		},
		{
			name:       "SMS disabled",
			input:      createTestInput(),
			smsEnabled: false,
			validateOutput: func(t *testing.T, output *Output) {
				assert.Equal(t, []string{ChannelEmail}, output.Channels)
			},
		},
		{
			name:       "SMS failure is partial",
			input:      createTestInput(),
			smsEnabled: true,
			snsErr:     stderrors.New("throttled"),
			validateOutput: func(t *testing.T, output *Output) {
				assert.Equal(t, StatusPartial, output.Status)
				assert.Equal(t, []string{ChannelSMS}, output.FailedChannels)
			},
		},
		{
			name:       "hub digest",
			input:      &Input{Hub: "north", Recipients: []string{"north@backoffice.example"}},
			smsEnabled: true,
			validateOutput: func(t *testing.T, output *Output) {
				assert.Equal(t, "hub", output.Scope)
				assert.Equal(t, []string{ChannelEmail}, output.Channels)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snsSvc := &MockSNSService{
				PublishFunc: func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
					assert.Equal(t, "+15550001111", *params.PhoneNumber)
					return &sns.PublishOutput{}, tt.snsErr
				},
			}
			h := createTestHandler(t, &MockStatsService{}, okSES(t), snsSvc)
			h.config.SMSEnabled = tt.smsEnabled

			output, err := h.Execute(context.Background(), tt.input)
			require.NoError(t, err)
			tt.validateOutput(t, output)
		})
	}
}

func TestHandler_Execute_Webhook(t *testing.T) {
	var payload WebhookPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	h := createTestHandler(t, &MockStatsService{}, okSES(t), okSNS())
	h.config.WebhookURL = srv.URL
	h.webhook = httpclient.NewClientWithOptions(httpclient.Options{
		Timeout:   time.Second,
		RetryWait: 10 * time.Millisecond,
	})

	output, err := h.Execute(context.Background(), createTestInput())
	require.NoError(t, err)

	assert.Contains(t, output.Channels, ChannelWebhook)
	assert.Equal(t, output.DigestID, payload.DigestID)
	assert.Equal(t, 2, payload.StageCounts["campaignSubmission"])
	assert.Equal(t, "2025-06-01T08:00:00Z", payload.GeneratedAt)
}

func TestRenderDigest(t *testing.T) {
	s := createTestStats()
	s.DegradedSources = []string{"leads", "payments"}

	subject, body, err := renderDigest(s)
	require.NoError(t, err)

	assert.Equal(t, "Onboarding digest: 4 tenants, 1 complete (all hubs)", subject)
	assert.Contains(t, body, "Tenants: 4 (2 active)")
	assert.Contains(t, body, "Average progress: 61%")
	assert.Contains(t, body, "unavailable sources: leads, payments")
	assert.NotContains(t, body, "paymentPending")

	// lifecycle order, not map order
	assert.Less(t, strings.Index(body, "verification:"), strings.Index(body, "campaignSubmission:"))
	assert.Less(t, strings.Index(body, "campaignSubmission:"), strings.Index(body, "onboardingComplete:"))
}

// ==========================
// Error Handling Tests
// ==========================

func TestHandler_Execute_Errors(t *testing.T) {
	failingSES := &MockSESService{
		SendEmailFunc: func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
			return nil, stderrors.New("MessageRejected")
		},
	}

	tests := []struct {
		name     string
		svc      StatsService
		ses      SESService
		input    *Input
		wantCode errors.ErrorCode
	}{
		{
			name:     "email failure",
			svc:      &MockStatsService{},
			ses:      failingSES,
			input:    createTestInput(),
			wantCode: errors.ErrCodeDigestSendFailed,
		},
		{
			name:     "unknown hub",
			svc:      &MockStatsService{err: errors.NewInvalidScopeError("atlantis", nil)},
			ses:      okSES(t),
			input:    &Input{Hub: "atlantis", Recipients: []string{"ops@backoffice.example"}},
			wantCode: errors.ErrCodeInvalidScope,
		},
		{
			name:     "no recipients",
			svc:      &MockStatsService{},
			ses:      okSES(t),
			input:    &Input{},
			wantCode: errors.ErrCodeInputValidationFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := createTestHandler(t, tt.svc, tt.ses, okSNS())

			_, err := h.Execute(context.Background(), tt.input)
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, tt.wantCode), "got %v", err)
		})
	}
}

func TestDigestInputSchema(t *testing.T) {
	reg := registry.Default()

	assert.NoError(t, reg.ValidateInput(TaskType, []byte(`{"recipients":["ops@backoffice.example"],"phones":["+15550001111"]}`)))
	assert.Error(t, reg.ValidateInput(TaskType, []byte(`{"recipients":[]}`)))
	assert.Error(t, reg.ValidateInput(TaskType, []byte(`{"recipients":["ops@backoffice.example"],"phones":["555-0001"]}`)))
}
