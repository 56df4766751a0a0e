package registry

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog_IsValid(t *testing.T) {
	reg := Build(time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC))
	require.NoError(t, Validate(reg))
	assert.Len(t, reg.Activities, 3)
	assert.Equal(t, "2024-05-03T00:00:00Z", reg.LastUpdated)

	for _, a := range reg.Activities {
		assert.NotEmpty(t, a.ErrorCodes, a.ID)
		for _, code := range a.ErrorCodes {
			assert.NotEmpty(t, code, a.ID)
		}
	}
}

func TestSaveAndLoad_NoDrift(t *testing.T) {
	path := filepath.Join(t.TempDir(), "configs", "activity-registry.json")
	require.NoError(t, SaveRegistry(Build(time.Now()), path))

	loaded, err := LoadRegistry(path)
	require.NoError(t, err)
	require.NoError(t, Validate(loaded))
	assert.Empty(t, Drift(loaded))
}

func TestDrift(t *testing.T) {
	reg := Build(time.Now())
	reg.Activities[1].Timeout = "1s"
	reg.Activities = append(reg.Activities[:2], Activity{ID: "legacy-task"})

	assert.Equal(t, []string{"compose-order-document", "deliver-order-document", "legacy-task"}, Drift(reg))
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ActivityRegistry)
	}{
		{"empty", func(r *ActivityRegistry) { r.Activities = nil }},
		{"duplicate", func(r *ActivityRegistry) { r.Activities[1].ID = r.Activities[0].ID }},
		{"missing task type", func(r *ActivityRegistry) { r.Activities[0].TaskType = "" }},
		{"bad timeout", func(r *ActivityRegistry) { r.Activities[0].Timeout = "soon" }},
		{"bad schema", func(r *ActivityRegistry) { r.Activities[0].InputSchema.Type = "banana" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := Build(time.Now())
			tt.mutate(reg)
			assert.Error(t, Validate(reg))
		})
	}
}
