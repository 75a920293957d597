package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/studygate/internal/practice"
)

func TestPractice_RecordsAttempt(t *testing.T) {
	db := loadedDB(t)

	var res practice.Result
	env, err := executeJSON(t, &res, "--db", db, "practice", "alice", "arithmetic", "--correct")
	require.NoError(t, err)

	assert.Equal(t, "ok", env.Status)
	assert.NotEmpty(t, res.EventID)
	assert.Equal(t, int64(1), res.Seq)
	assert.InDelta(t, 0.4667, res.PMasteryLatent, 1e-4)
	assert.False(t, res.Decision.OutOfSequence)
	assert.Equal(t, "available", string(res.Decision.Status))
}

func TestPractice_OutOfSequenceText(t *testing.T) {
	db := loadedDB(t)

	out, err := execute(t, "--db", db, "practice", "alice", "ratios", "--incorrect", "--hint-level", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "alice/ratios incorrect, latent mastery 0.2110")
	assert.Contains(t, out, "! out of sequence (ratios was locked)")
}

func TestPractice_UnlocksDependent(t *testing.T) {
	db := loadedDB(t)

	for i := 0; i < 3; i++ {
		_, err := execute(t, "--db", db, "practice", "alice", "arithmetic", "--correct", "--source", "quiz")
		require.NoError(t, err)
	}

	var status StatusResult
	_, err := executeJSON(t, &status, "--db", db, "status", "alice", "fractions")
	require.NoError(t, err)
	assert.Equal(t, "available", string(status.Status))
}

func TestPractice_InvalidInput(t *testing.T) {
	db := tempDB(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"bad skill id", []string{"practice", "alice", "Bad Skill", "--correct"}, "skill_id"},
		{"confidence out of range", []string{"practice", "alice", "fractions", "--correct", "--confidence", "1.5"}, "confidence"},
		{"negative latency", []string{"practice", "alice", "fractions", "--correct", "--latency-ms", "-3"}, "latency_ms"},
		{"bad timestamp", []string{"practice", "alice", "fractions", "--correct", "--at", "yesterday"}, "invalid --at"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, err := executeJSON(t, nil, append([]string{"--db", db}, tt.args...)...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			require.NotNil(t, env.Error)
			assert.Equal(t, ErrCodeInvalidInput, env.Error.Code)
			assert.Contains(t, env.Error.Message, tt.want)
		})
	}
}

func TestPractice_AtTimestamp(t *testing.T) {
	db := loadedDB(t)

	_, err := execute(t, "--db", db, "practice", "alice", "arithmetic", "--correct", "--at", "2026-03-01T10:00:00Z")
	require.NoError(t, err)
}

func TestIngest_Batch(t *testing.T) {
	db := loadedDB(t)
	batch := writeFile(t, t.TempDir(), "events.yaml", `
observations:
  - { user_id: bea, skill_id: arithmetic, correct: true }
  - { user_id: bea, skill_id: arithmetic, correct: true, confidence: 0.7 }
  - { user_id: bea, skill_id: ratios, correct: false, latency_ms: 5200, source: import }
`)

	var result IngestResult
	_, err := executeJSON(t, &result, "--db", db, "ingest", batch)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Recorded)
	assert.Equal(t, 1, result.OutOfSequence)
	require.Len(t, result.Results, 3)
	assert.Equal(t, int64(3), result.Results[2].Seq)

	out, err := execute(t, "--db", db, "ingest", batch)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Recorded 3 attempt(s), 1 out of sequence")
}

func TestIngest_Errors(t *testing.T) {
	db := tempDB(t)
	dir := t.TempDir()

	_, err := execute(t, "--db", db, "ingest", dir+"/missing.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrCodeNotFound)

	bad := writeFile(t, dir, "bad.yaml", "observations:\n  - { user_id: bea, skill: arithmetic }\n")
	_, err = execute(t, "--db", db, "ingest", bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrCodeInvalidInput)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	empty := writeFile(t, dir, "empty.yaml", "")
	_, err = execute(t, "--db", db, "ingest", empty)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "observations list is required")
}
