package curriculum

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/studygate/internal/schema"
	"github.com/roach88/studygate/internal/store"
	"github.com/roach88/studygate/internal/tracing"
)

// fixedMastery is a MasteryReader backed by a map; unknown skills read as
// the configured prior.
type fixedMastery struct {
	mu    sync.Mutex
	value map[string]float64
	reads []string
}

func newFixedMastery(values map[string]float64) *fixedMastery {
	if values == nil {
		values = map[string]float64{}
	}
	return &fixedMastery{value: values}
}

func (f *fixedMastery) set(skill string, v float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.value[skill] = v
}

func (f *fixedMastery) EffectiveMastery(_ context.Context, _, skillID string, cfg schema.MasteryConfig, _ ...tracing.ReadOption) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads = append(f.reads, skillID)
	if v, ok := f.value[skillID]; ok {
		return v, nil
	}
	return cfg.PriorMastery, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func createTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func newTestGate(t *testing.T, mastery MasteryReader) (*Gate, *store.Store) {
	t.Helper()
	s := createTestStore(t)
	return NewGate(s, mastery, WithLogger(discardLogger())), s
}

func upsertAll(t *testing.T, g *Gate, nodes ...store.CurriculumNode) {
	t.Helper()
	for _, n := range nodes {
		require.NoError(t, g.UpsertNode(context.Background(), n))
	}
}

func node(id string, prereqs ...string) store.CurriculumNode {
	return store.CurriculumNode{SkillID: id, Name: id, Prereqs: prereqs}
}
