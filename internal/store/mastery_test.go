package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOrInitMastery_InsertsSeed(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	rec, err := s.GetOrInitMastery(ctx, seedRecord("u1", "fractions"))
	require.NoError(t, err)

	assert.Equal(t, "u1", rec.UserID)
	assert.Equal(t, "fractions", rec.SkillID)
	assert.Equal(t, 0.1, rec.PMasteryLatent)
	assert.Equal(t, 0.2, rec.PLearn)
	assert.Equal(t, 0.2, rec.PGuess)
	assert.Equal(t, 0.1, rec.PSlip)
	require.NotNil(t, rec.LastPracticedAt)
	assert.True(t, rec.LastPracticedAt.Equal(testEpoch))
}

func TestGetOrInitMastery_DoesNotOverwrite(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	_, err := s.GetOrInitMastery(ctx, seedRecord("u1", "fractions"))
	require.NoError(t, err)

	other := seedRecord("u1", "fractions")
	other.PMasteryLatent = 0.7
	other.PLearn = 0.5

	rec, err := s.GetOrInitMastery(ctx, other)
	require.NoError(t, err)
	assert.Equal(t, 0.1, rec.PMasteryLatent)
	assert.Equal(t, 0.2, rec.PLearn)
}

func TestGetOrInitMastery_ConcurrentConvergesOnOneRow(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	const workers = 16
	var wg sync.WaitGroup
	results := make([]MasteryRecord, workers)
	errs := make([]error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			seed := seedRecord("u1", "fractions")
			seed.PMasteryLatent = float64(i+1) / 100
			results[i], errs[i] = s.GetOrInitMastery(ctx, seed)
		}(i)
	}
	wg.Wait()

	for i := range errs {
		require.NoError(t, errs[i])
	}
	for i := 1; i < workers; i++ {
		assert.Equal(t, results[0].PMasteryLatent, results[i].PMasteryLatent,
			"every caller must observe the winning seed")
	}

	var count int
	require.NoError(t, s.db.QueryRow(
		"SELECT COUNT(*) FROM skill_mastery WHERE user_id = 'u1' AND skill_id = 'fractions'",
	).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestUpdateMastery_WritesLatentAndTimestamp(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	later := testEpoch.Add(3 * time.Hour)
	rec, err := s.UpdateMastery(ctx, seedRecord("u1", "fractions"), func(cur MasteryRecord) (MasteryRecord, error) {
		cur.PMasteryLatent = 0.42
		cur.LastPracticedAt = &later
		return cur, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 0.42, rec.PMasteryLatent)

	stored, err := s.ReadMastery(ctx, "u1", "fractions")
	require.NoError(t, err)
	assert.Equal(t, 0.42, stored.PMasteryLatent)
	require.NotNil(t, stored.LastPracticedAt)
	assert.True(t, stored.LastPracticedAt.Equal(later))
}

func TestUpdateMastery_OnlyLatentAndTimestampPersist(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	_, err := s.UpdateMastery(ctx, seedRecord("u1", "fractions"), func(cur MasteryRecord) (MasteryRecord, error) {
		cur.PLearn = 0.9
		cur.PGuess = 0.9
		cur.PSlip = 0.9
		cur.UserID = "someone_else"
		return cur, nil
	})
	require.NoError(t, err)

	stored, err := s.ReadMastery(ctx, "u1", "fractions")
	require.NoError(t, err)
	assert.Equal(t, 0.2, stored.PLearn)
	assert.Equal(t, 0.2, stored.PGuess)
	assert.Equal(t, 0.1, stored.PSlip)

	_, err = s.ReadMastery(ctx, "someone_else", "fractions")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateMastery_CallbackErrorRollsBack(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	boom := errors.New("boom")
	_, err := s.UpdateMastery(ctx, seedRecord("u1", "fractions"), func(cur MasteryRecord) (MasteryRecord, error) {
		return MasteryRecord{}, boom
	})
	require.ErrorIs(t, err, boom)

	// The seed insert shares the transaction, so nothing persists.
	_, err = s.ReadMastery(ctx, "u1", "fractions")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateMastery_ConcurrentUpdatesSerialize(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	const workers = 20
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.UpdateMastery(ctx, seedRecord("u1", "counter"), func(cur MasteryRecord) (MasteryRecord, error) {
				cur.PMasteryLatent += 0.01
				return cur, nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	stored, err := s.ReadMastery(ctx, "u1", "counter")
	require.NoError(t, err)
	assert.InDelta(t, 0.1+workers*0.01, stored.PMasteryLatent, 1e-9)
}

func TestReadMastery_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.ReadMastery(context.Background(), "nobody", "nothing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReadMastery_NullLastPracticedAt(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	seed := seedRecord("u1", "imported")
	seed.LastPracticedAt = nil
	_, err := s.GetOrInitMastery(ctx, seed)
	require.NoError(t, err)

	rec, err := s.ReadMastery(ctx, "u1", "imported")
	require.NoError(t, err)
	assert.Nil(t, rec.LastPracticedAt)
}

func TestListMastery_OrderedBySkill(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for _, skill := range []string{"vectors", "algebra", "fractions"} {
		_, err := s.GetOrInitMastery(ctx, seedRecord("u1", skill))
		require.NoError(t, err)
	}
	_, err := s.GetOrInitMastery(ctx, seedRecord("u2", "calculus"))
	require.NoError(t, err)

	records, err := s.ListMastery(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "algebra", records[0].SkillID)
	assert.Equal(t, "fractions", records[1].SkillID)
	assert.Equal(t, "vectors", records[2].SkillID)

	empty, err := s.ListMastery(ctx, "u3")
	require.NoError(t, err)
	assert.Empty(t, empty)
	assert.NotNil(t, empty)
}

func TestUpdateMastery_ReturnsPersistedTimestamp(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	at := testEpoch.Add(1500 * time.Microsecond)
	rec, err := s.UpdateMastery(ctx, seedRecord("u1", "fractions"), func(cur MasteryRecord) (MasteryRecord, error) {
		cur.LastPracticedAt = &at
		return cur, nil
	})
	require.NoError(t, err)

	stored, err := s.ReadMastery(ctx, "u1", "fractions")
	require.NoError(t, err)
	require.NotNil(t, rec.LastPracticedAt)
	require.NotNil(t, stored.LastPracticedAt)
	assert.Equal(t, *stored.LastPracticedAt, *rec.LastPracticedAt)
	assert.True(t, rec.LastPracticedAt.Equal(testEpoch.Add(time.Millisecond)))
}
