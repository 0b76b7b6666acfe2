package registry

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	reg := Default()
	require.NoError(t, reg.Validate())

	a, err := reg.FindByTaskType("onboarding-digest")
	require.NoError(t, err)
	assert.Equal(t, 3, a.Retries)

	_, err = reg.FindByTaskType("send-fax")
	assert.True(t, errors.Is(err, ErrActivityNotFound))
}

func TestValidateInput(t *testing.T) {
	reg := Default()

	tests := []struct {
		name      string
		taskType  string
		variables string
		wantErr   bool
	}{
		{name: "stats without hub", taskType: "onboarding-stats", variables: `{}`},
		{name: "stats with hub", taskType: "onboarding-stats", variables: `{"hub":"north","includeTenants":true}`},
		{name: "stats hub wrong type", taskType: "onboarding-stats", variables: `{"hub":7}`, wantErr: true},
		{name: "digest ok", taskType: "onboarding-digest", variables: `{"recipients":["ops@example.com"],"phones":["+15551234567"]}`},
		{name: "digest without recipients", taskType: "onboarding-digest", variables: `{"hub":"north"}`, wantErr: true},
		{name: "digest empty recipients", taskType: "onboarding-digest", variables: `{"recipients":[]}`, wantErr: true},
		{name: "digest bad phone", taskType: "onboarding-digest", variables: `{"recipients":["ops@example.com"],"phones":["5551234"]}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := reg.ValidateInput(tt.taskType, []byte(tt.variables))
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var vErr *ValidationError
			require.True(t, errors.As(err, &vErr), "got %v", err)
			assert.NotEmpty(t, vErr.Problems)
		})
	}
}

func TestValidate_Problems(t *testing.T) {
	tests := []struct {
		name string
		reg  ActivityRegistry
		want string
	}{
		{name: "empty", reg: ActivityRegistry{}, want: "no activities"},
		{
			name: "duplicate id",
			reg: ActivityRegistry{Activities: []Activity{
				{ID: "a", DisplayName: "A", TaskType: "a", Category: "c"},
				{ID: "a", DisplayName: "A", TaskType: "b", Category: "c"},
			}},
			want: "duplicate activity ID",
		},
		{
			name: "bad timeout",
			reg:  ActivityRegistry{Activities: []Activity{{ID: "a", DisplayName: "A", TaskType: "a", Category: "c", Timeout: "soon"}}},
			want: "invalid timeout",
		},
		{
			name: "bad schema",
			reg: ActivityRegistry{Activities: []Activity{{ID: "a", DisplayName: "A", TaskType: "a", Category: "c",
				InputSchema: map[string]interface{}{"type": 12}}}},
			want: "invalid input schema",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.reg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadRegistry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "activities.json")
	require.NoError(t, os.WriteFile(path, embeddedActivities, 0o644))

	reg, err := LoadRegistry(path)
	require.NoError(t, err)
	assert.Len(t, reg.Activities, 2)

	_, err = LoadRegistry(filepath.Join(t.TempDir(), "missing.json"))
	assert.True(t, os.IsNotExist(err))
}
