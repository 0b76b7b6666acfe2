package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

const minimalConfig = `
database:
  postgres:
    host: localhost
    database: backoffice
    user: ${TEST_BACKOFFICE_DB_USER}
hubs:
  - id: 1
    name: northstar
  - id: 2
    name: westside
`

func TestLoadFromFile_AppliesDefaults(t *testing.T) {
	t.Setenv("TEST_BACKOFFICE_DB_USER", "reader")

	cfg, err := LoadFromFile(writeConfigFile(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, "reader", cfg.Database.Postgres.User)
	assert.Equal(t, 5432, cfg.Database.Postgres.Port)
	assert.Equal(t, "disable", cfg.Database.Postgres.SSLMode)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, BackendPostgres, cfg.Evidence.VerificationBackend)
	assert.Equal(t, BackendPostgres, cfg.Evidence.LeadBackend)
	assert.Equal(t, 5000, cfg.Evidence.QueryTimeout)
	assert.Equal(t, 50, cfg.Dashboard.PageSize)
	assert.Equal(t, 500, cfg.Dashboard.MaxPageSize)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Len(t, cfg.Hubs, 2)
}

func TestLoadFromFile_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{
			name: "missing postgres host",
			body: `
database:
  postgres:
    database: backoffice
    user: reader
hubs:
  - id: 1
    name: northstar
`,
		},
		{
			name: "redis backend without address",
			body: `
database:
  postgres: {host: localhost, database: backoffice, user: reader}
evidence:
  verification_backend: redis
hubs:
  - id: 1
    name: northstar
`,
		},
		{
			name: "unknown lead backend",
			body: `
database:
  postgres: {host: localhost, database: backoffice, user: reader}
evidence:
  lead_backend: mongo
hubs:
  - id: 1
    name: northstar
`,
		},
		{
			name: "no hubs",
			body: `
database:
  postgres: {host: localhost, database: backoffice, user: reader}
`,
		},
		{
			name: "page size above max",
			body: `
database:
  postgres: {host: localhost, database: backoffice, user: reader}
dashboard:
  page_size: 900
  max_page_size: 100
hubs:
  - id: 1
    name: northstar
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromFile(writeConfigFile(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestGetDuration(t *testing.T) {
	assert.Equal(t, 1500*time.Millisecond, GetDuration(1500))
	assert.Equal(t, time.Duration(0), GetDuration(0))
}

func TestGetWorkerConfig_Fallback(t *testing.T) {
	cfg := &Config{Workers: map[string]WorkerConfig{
		"onboarding-stats": {Enabled: false, MaxJobsActive: 2, Timeout: 1000, MaxRetries: 1},
	}}

	assert.False(t, IsWorkerEnabled(cfg, "onboarding-stats"))
	assert.True(t, IsWorkerEnabled(cfg, "onboarding-digest"))
	assert.Equal(t, 2, GetWorkerConfig(cfg, "onboarding-stats").MaxJobsActive)
	assert.Equal(t, 5, GetWorkerConfig(cfg, "onboarding-digest").MaxJobsActive)
}
