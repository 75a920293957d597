package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scenarioWorkspace copies the harness scenarios into a temp directory.
func scenarioWorkspace(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for _, name := range []string{"chain_unlock.yaml", "decay_relock.yaml", "cycle_rejection.yaml"} {
		copyFile(t, filepath.Join(scenariosDir, name), filepath.Join(dir, name))
	}
	return dir
}

func TestTest_RunsScenarios(t *testing.T) {
	out, err := execute(t, "test", scenariosDir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ chain_unlock")
	assert.Contains(t, out, "Test Summary: 3 passed, 0 failed, 3 total")
	assert.Contains(t, out, "✓ All scenarios passed")
}

func TestTest_GoldenUpdateThenMatch(t *testing.T) {
	dir := scenarioWorkspace(t)

	out, err := execute(t, "test", dir, "--update")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ decay_relock (golden updated)")
	_, err = os.Stat(filepath.Join(dir, "golden", "decay_relock.golden"))
	require.NoError(t, err)

	// The harness package keeps its own copy of the goldens; both must agree.
	want, err := os.ReadFile(filepath.Join("..", "harness", "testdata", "golden", "decay_relock.golden"))
	require.NoError(t, err)
	got, err := os.ReadFile(filepath.Join(dir, "golden", "decay_relock.golden"))
	require.NoError(t, err)
	assert.Equal(t, string(want), string(got))

	var result TestResult
	_, err = executeJSON(t, &result, "test", dir)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Passed)
	for _, s := range result.Scenarios {
		assert.Equal(t, "match", s.Golden, s.Name)
	}
}

func TestTest_GoldenMismatchFails(t *testing.T) {
	dir := scenarioWorkspace(t)
	_, err := execute(t, "test", dir, "--update")
	require.NoError(t, err)

	writeFile(t, dir, filepath.Join("golden", "cycle_rejection.golden"), "{}\n")

	out, err := execute(t, "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ cycle_rejection")
	assert.Contains(t, out, "does not match golden file")
	assert.Contains(t, out, "Test Summary: 2 passed, 1 failed, 3 total")
}

func TestTest_FailingScenario(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "wrong.yaml", `
name: wrong
description: expects the wrong status
nodes:
  - { id: fractions, name: Fractions }
steps:
  - practice: { user: alice, skill: fractions, correct: true }
assertions:
  - { type: status, user: alice, skill: fractions, status: mastered }
`)
	writeFile(t, dir, "broken.yaml", "name: broken\n")

	var result TestResult
	env, err := executeJSON(t, &result, "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	require.NotNil(t, env.Error)
	assert.Equal(t, ErrCodeTestFailed, env.Error.Code)
	assert.Contains(t, env.Error.Message, "2 scenario(s) failed")
}

func TestTest_Filter(t *testing.T) {
	var result TestResult
	_, err := executeJSON(t, &result, "test", scenariosDir, "--filter", "chain_*")
	require.NoError(t, err)
	require.Len(t, result.Scenarios, 1)
	assert.Equal(t, "chain_unlock", result.Scenarios[0].Name)
	assert.Equal(t, "missing", result.Scenarios[0].Golden)
}

func TestTest_EmptyAndMissingDirectory(t *testing.T) {
	out, err := execute(t, "test", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found.")

	_, err = execute(t, "test", "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrCodeNotFound)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
