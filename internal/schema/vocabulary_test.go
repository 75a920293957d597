package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRelationDirection(t *testing.T) {
	assert.Len(t, Relations(), 8)

	for _, rel := range Relations() {
		d, ok := rel.Direction()
		assert.True(t, ok, rel)
		if rel == RelationComparesTo {
			assert.Equal(t, Undirected, d)
		} else {
			assert.Equal(t, Directed, d, rel)
		}
	}

	_, ok := Relation("likes").Direction()
	assert.False(t, ok)
}

func TestParseRelation(t *testing.T) {
	r, ok := ParseRelation("part_of")
	assert.True(t, ok)
	assert.Equal(t, RelationPartOf, r)

	_, ok = ParseRelation("PART_OF")
	assert.False(t, ok, "vocabulary is case-sensitive")
}

func TestRelations_ReturnsCopy(t *testing.T) {
	rs := Relations()
	rs[0] = "mutated"
	assert.Equal(t, RelationRequires, Relations()[0])
}

func TestAllowedMoves(t *testing.T) {
	assert.Nil(t, AllowedMoves(Phase("nope")))
	assert.NotContains(t, AllowedMoves(PhasePrime), MoveTeachBack)
	assert.Contains(t, AllowedMoves(PhaseOverlearn), MoveSynthesis)

	moves := AllowedMoves(PhaseEncode)
	moves[0] = MoveSynthesis
	assert.False(t, PhaseEncode.Allows(MoveSynthesis), "AllowedMoves must not expose the table")
}

func TestDirectionString(t *testing.T) {
	assert.Equal(t, "directed", Directed.String())
	assert.Equal(t, "undirected", Undirected.String())
	assert.Equal(t, "Direction(9)", Direction(9).String())
}

func TestSkillNormalized(t *testing.T) {
	// "e" + combining acute accent normalizes to the precomposed form.
	s := Skill{SkillID: " cafe ", Name: "  Cafe\u0301 basics ", Prereqs: []string{" a "}}
	n := s.Normalized()
	assert.Equal(t, "cafe", n.SkillID)
	assert.Equal(t, "Caf\u00e9 basics", n.Name)
	assert.Equal(t, []string{"a"}, n.Prereqs)
	assert.Equal(t, " cafe ", s.SkillID, "original untouched")
}
