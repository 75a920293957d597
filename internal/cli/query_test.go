package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus_UnknownNodeIsLocked(t *testing.T) {
	db := loadedDB(t)

	out, err := execute(t, "--db", db, "status", "alice", "calculus")
	require.NoError(t, err)
	assert.Contains(t, out, "calculus: locked (not in the curriculum)")

	var status StatusResult
	_, err = executeJSON(t, &status, "--db", db, "status", "alice", "calculus")
	require.NoError(t, err)
	assert.False(t, status.Known)
	assert.Equal(t, "locked", string(status.Status))

	// The read left no mastery record behind.
	var mastery MasteryResult
	_, err = executeJSON(t, &mastery, "--db", db, "mastery", "alice")
	require.NoError(t, err)
	assert.Empty(t, mastery.Skills)
}

func TestStatus_NoPrereqsIsAvailable(t *testing.T) {
	db := loadedDB(t)

	var status StatusResult
	_, err := executeJSON(t, &status, "--db", db, "status", "alice", "arithmetic")
	require.NoError(t, err)
	assert.Equal(t, "alice", status.UserID)
	assert.Equal(t, "available", string(status.Status))
	assert.InDelta(t, 0.1, status.Effective, 1e-6)
}

func TestStatus_AfterPractice(t *testing.T) {
	db := loadedDB(t)
	for i := 0; i < 4; i++ {
		_, err := execute(t, "--db", db, "practice", "alice", "arithmetic", "--correct")
		require.NoError(t, err)
	}

	var status StatusResult
	_, err := executeJSON(t, &status, "--db", db, "status", "alice", "arithmetic")
	require.NoError(t, err)
	assert.True(t, status.Known)
	assert.Equal(t, "mastered", string(status.Status))
	assert.Greater(t, status.Effective, 0.98)

	var fractions StatusResult
	_, err = executeJSON(t, &fractions, "--db", db, "status", "alice", "fractions")
	require.NoError(t, err)
	assert.Equal(t, "available", string(fractions.Status))
}

func TestQueryCommands_HaveNoTimeOffsetFlag(t *testing.T) {
	db := loadedDB(t)

	for _, args := range [][]string{
		{"status", "alice", "arithmetic"},
		{"organizer", "alice"},
		{"mastery", "alice"},
	} {
		_, err := execute(t, append(append([]string{"--db", db}, args...), "--in", "72h")...)
		require.Error(t, err, args[0])
		assert.Contains(t, err.Error(), "unknown flag: --in", args[0])
		assert.Equal(t, ExitCommandError, GetExitCode(err), args[0])
	}
}

func TestOrganizer_Anchors(t *testing.T) {
	db := loadedDB(t)

	var view OrganizerResult
	_, err := executeJSON(t, &view, "--db", db, "organizer", "alice", "--anchor", "ratios", "--anchor", "fractions")
	require.NoError(t, err)

	ids := make([]string, 0, len(view.Entries))
	for _, e := range view.Entries {
		ids = append(ids, e.SkillID)
	}
	assert.Equal(t, []string{"arithmetic", "fractions", "ratios"}, ids)
	assert.Equal(t, "Ratios", view.Entries[2].Name)
	assert.Equal(t, "locked", string(view.Entries[2].Status))

	out, err := execute(t, "--db", db, "organizer", "alice")
	require.NoError(t, err)
	assert.Contains(t, out, "arithmetic")
	assert.Contains(t, out, "available")
	assert.NotContains(t, out, "ratios")
}

func TestOrganizer_Empty(t *testing.T) {
	out, err := execute(t, "--db", tempDB(t), "organizer", "alice")
	require.NoError(t, err)
	assert.Contains(t, out, "No visible nodes.")
}

func TestMastery_Listing(t *testing.T) {
	db := loadedDB(t)

	out, err := execute(t, "--db", db, "mastery", "carol")
	require.NoError(t, err)
	assert.Contains(t, out, "No mastery records for carol.")

	_, err = execute(t, "--db", db, "practice", "carol", "arithmetic", "--correct")
	require.NoError(t, err)
	_, err = execute(t, "--db", db, "practice", "carol", "fractions", "--incorrect")
	require.NoError(t, err)

	var all MasteryResult
	_, err = executeJSON(t, &all, "--db", db, "mastery", "carol")
	require.NoError(t, err)
	require.Len(t, all.Skills, 2)
	assert.Equal(t, "arithmetic", all.Skills[0].SkillID)
	assert.Equal(t, "fractions", all.Skills[1].SkillID)
	assert.InDelta(t, 0.4667, all.Skills[0].Latent, 1e-4)
	require.NotNil(t, all.Skills[0].LastPracticedAt)

	var one MasteryResult
	_, err = executeJSON(t, &one, "--db", db, "mastery", "carol", "arithmetic")
	require.NoError(t, err)
	require.Len(t, one.Skills, 1)
	assert.Equal(t, all.Skills[0].Latent, one.Skills[0].Latent)
	assert.LessOrEqual(t, one.Skills[0].Effective, one.Skills[0].Latent)

	out, err = execute(t, "--db", db, "mastery", "carol")
	require.NoError(t, err)
	assert.Contains(t, out, "SKILL")
	assert.Contains(t, out, "0.4667")
}

func TestMastery_SingleSkillInitializesPrior(t *testing.T) {
	db := loadedDB(t)

	var res MasteryResult
	_, err := executeJSON(t, &res, "--db", db, "mastery", "dan", "ratios")
	require.NoError(t, err)
	require.Len(t, res.Skills, 1)
	assert.InDelta(t, 0.1, res.Skills[0].Latent, 1e-12)
}
