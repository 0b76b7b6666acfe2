package camunda

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"hub-backoffice/internal/common/config"
	"hub-backoffice/internal/common/errors"
	"hub-backoffice/internal/common/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestClient() *Client {
	return &Client{config: &ClientConfig{RetryConfig: &RetryConfig{
		MaxRetries: 2,
		BaseDelay:  time.Millisecond,
		MaxDelay:   2 * time.Millisecond,
	}}}
}

func TestConfigFrom(t *testing.T) {
	cfg := ConfigFrom(config.CamundaConfig{
		BrokerAddress:  "zeebe:26500",
		Timeout:        5000,
		RequestTimeout: 2000,
	})
	assert.Equal(t, "zeebe:26500", cfg.GatewayAddress)
	assert.Equal(t, 5*time.Second, cfg.ConnectionTimeout)
	assert.Equal(t, 2*time.Second, cfg.RequestTimeout)
	assert.Same(t, DefaultRetryConfig, cfg.RetryConfig)
}

func TestBackoff(t *testing.T) {
	rc := &RetryConfig{BaseDelay: time.Second, MaxDelay: 5 * time.Second}
	assert.Equal(t, time.Second, backoff(rc, 0))
	assert.Equal(t, 4*time.Second, backoff(rc, 2))
	assert.Equal(t, 5*time.Second, backoff(rc, 3))
}

func TestExecuteWithRetry(t *testing.T) {
	tests := []struct {
		name      string
		errs      []error
		wantCalls int
		wantCode  errors.ErrorCode
	}{
		{
			name:      "succeeds after a transient failure",
			errs:      []error{stderrors.New("rpc error: code = Unavailable"), nil},
			wantCalls: 2,
		},
		{
			name:      "permanent error is not retried",
			errs:      []error{stderrors.New("invalid argument")},
			wantCalls: 1,
			wantCode:  errors.ErrCodeExternalService,
		},
		{
			name:      "not found maps to NOT_FOUND",
			errs:      []error{stderrors.New("job not found")},
			wantCalls: 1,
			wantCode:  errors.ErrCodeNotFound,
		},
		{
			name: "retries exhausted on timeouts",
			errs: []error{
				stderrors.New("deadline exceeded"),
				stderrors.New("deadline exceeded"),
				stderrors.New("deadline exceeded"),
			},
			wantCalls: 3,
			wantCode:  errors.ErrCodeTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := createTestClient()
			calls := 0
			result, err := c.ExecuteWithRetry(context.Background(), func(ctx context.Context) (interface{}, error) {
				err := tt.errs[calls]
				calls++
				if err != nil {
					return nil, err
				}
				return "ok", nil
			}, "complete job")

			assert.Equal(t, tt.wantCalls, calls)
			if tt.wantCode == "" {
				require.NoError(t, err)
				assert.Equal(t, "ok", result)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, tt.wantCode), "got %v", err)
		})
	}
}

func TestExecuteWithRetry_Cancelled(t *testing.T) {
	c := createTestClient()
	c.config.RetryConfig.BaseDelay = time.Hour
	c.config.RetryConfig.MaxDelay = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	_, err := c.ExecuteWithRetry(ctx, func(ctx context.Context) (interface{}, error) {
		cancel()
		return nil, stderrors.New("connection refused")
	}, "activate jobs")

	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeRequestCancelled))
}

func TestStartWorker_Disabled(t *testing.T) {
	w := StartWorker(nil, "onboarding-stats", config.WorkerConfig{Enabled: false}, nil, logger.NewTestLogger(t))
	assert.Nil(t, w)
	// stopping a disabled worker is a no-op
	w.Stop()
}
