package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func createTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

var testEpoch = time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)

func seedRecord(user, skill string) MasteryRecord {
	at := testEpoch
	return MasteryRecord{
		UserID:          user,
		SkillID:         skill,
		PMasteryLatent:  0.1,
		PLearn:          0.2,
		PGuess:          0.2,
		PSlip:           0.1,
		LastPracticedAt: &at,
	}
}
