package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpsertNode_InsertAndRead(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	err := s.UpsertNode(ctx, CurriculumNode{
		SkillID: "fractions",
		Name:    "Fractions",
		Prereqs: []string{"division", "multiplication"},
	}, nil)
	require.NoError(t, err)

	node, err := s.ReadNode(ctx, "fractions")
	require.NoError(t, err)
	assert.Equal(t, "Fractions", node.Name)
	assert.Equal(t, []string{"division", "multiplication"}, node.Prereqs)
}

func TestUpsertNode_ReplacesExisting(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertNode(ctx, CurriculumNode{SkillID: "a", Name: "A", Prereqs: []string{"b"}}, nil))
	require.NoError(t, s.UpsertNode(ctx, CurriculumNode{SkillID: "a", Name: "A prime"}, nil))

	node, err := s.ReadNode(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "A prime", node.Name)
	assert.Equal(t, []string{}, node.Prereqs)

	nodes, err := s.ListNodes(ctx)
	require.NoError(t, err)
	assert.Len(t, nodes, 1)
}

func TestUpsertNode_GuardSeesExistingAndCanAbort(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertNode(ctx, CurriculumNode{SkillID: "a", Name: "A"}, nil))
	require.NoError(t, s.UpsertNode(ctx, CurriculumNode{SkillID: "b", Name: "B"}, nil))

	var seen []string
	reject := errors.New("rejected")
	err := s.UpsertNode(ctx, CurriculumNode{SkillID: "c", Name: "C"}, func(existing []CurriculumNode) error {
		for _, n := range existing {
			seen = append(seen, n.SkillID)
		}
		return reject
	})
	assert.Same(t, reject, err)
	assert.Equal(t, []string{"a", "b"}, seen)

	_, err = s.ReadNode(ctx, "c")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReadNode_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.ReadNode(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListNodes_OrderedBySkillID(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"zeta", "alpha", "mu"} {
		require.NoError(t, s.UpsertNode(ctx, CurriculumNode{SkillID: id, Name: id}, nil))
	}

	nodes, err := s.ListNodes(ctx)
	require.NoError(t, err)
	require.Len(t, nodes, 3)
	assert.Equal(t, "alpha", nodes[0].SkillID)
	assert.Equal(t, "mu", nodes[1].SkillID)
	assert.Equal(t, "zeta", nodes[2].SkillID)
}

func TestListNodes_Empty(t *testing.T) {
	s := createTestStore(t)

	nodes, err := s.ListNodes(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, nodes)
	assert.Empty(t, nodes)
}
