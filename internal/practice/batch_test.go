package practice

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadBatch_Valid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
observations:
  - user_id: u1
    skill_id: fractions
    correct: true
    confidence: 0.75
    latency_ms: 4200
    source: flashcards
  - user_id: u1
    skill_id: decimals
    correct: false
    occurred_at: 2026-01-02T10:00:00Z
    hint_level: 1
`), 0o644))

	obs, err := LoadBatch(path)
	require.NoError(t, err)
	require.Len(t, obs, 2)

	assert.Equal(t, "fractions", obs[0].SkillID)
	assert.True(t, obs[0].Correct)
	require.NotNil(t, obs[0].Confidence)
	assert.Equal(t, 0.75, *obs[0].Confidence)
	require.NotNil(t, obs[0].LatencyMS)
	assert.Equal(t, int64(4200), *obs[0].LatencyMS)
	assert.Equal(t, "flashcards", obs[0].Source)

	assert.False(t, obs[1].Correct)
	require.NotNil(t, obs[1].OccurredAt)
	assert.Equal(t, 2026, obs[1].OccurredAt.Year())
	assert.Equal(t, 1, obs[1].HintLevel)
}

func TestParseBatch_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"empty document", "", "observations list is required"},
		{"empty list", "observations: []\n", "observations list is required"},
		{"unknown field", "observations:\n  - user_id: u1\n    skill: a\n", "field skill not found"},
		{"invalid observation", "observations:\n  - user_id: u1\n    skill_id: A\n", `observations[0]: studygate: invalid practice observation: skill_id "A" must match`},
		{"malformed", "observations: [", "failed to parse YAML"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseBatch([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadBatch_MissingFile(t *testing.T) {
	_, err := LoadBatch(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read batch file")
}
