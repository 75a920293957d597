package schema

import "fmt"

// Relation is the type of a directed or undirected edge between two concepts.
type Relation string

const (
	RelationRequires   Relation = "requires"
	RelationPartOf     Relation = "part_of"
	RelationCauses     Relation = "causes"
	RelationInhibits   Relation = "inhibits"
	RelationIncreases  Relation = "increases"
	RelationDecreases  Relation = "decreases"
	RelationComparesTo Relation = "compares_to"
	RelationDefines    Relation = "defines"
)

// Direction says whether an edge of a given relation has an orientation.
type Direction int

const (
	Directed Direction = iota + 1
	Undirected
)

func (d Direction) String() string {
	switch d {
	case Directed:
		return "directed"
	case Undirected:
		return "undirected"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// relations lists the vocabulary in declaration order.
var relations = [...]Relation{
	RelationRequires,
	RelationPartOf,
	RelationCauses,
	RelationInhibits,
	RelationIncreases,
	RelationDecreases,
	RelationComparesTo,
	RelationDefines,
}

// edgeDirection is the fixed direction table for every known relation.
var edgeDirection = map[Relation]Direction{
	RelationRequires:   Directed,
	RelationPartOf:     Directed,
	RelationCauses:     Directed,
	RelationInhibits:   Directed,
	RelationIncreases:  Directed,
	RelationDecreases:  Directed,
	RelationComparesTo: Undirected,
	RelationDefines:    Directed,
}

// Relations returns the full relation vocabulary in declaration order.
func Relations() []Relation {
	out := make([]Relation, len(relations))
	copy(out, relations[:])
	return out
}

// IsKnown reports whether r belongs to the relation vocabulary.
func (r Relation) IsKnown() bool {
	_, ok := edgeDirection[r]
	return ok
}

// Direction returns the fixed direction of r. ok is false for unknown relations.
func (r Relation) Direction() (d Direction, ok bool) {
	d, ok = edgeDirection[r]
	return d, ok
}

// ParseRelation returns the Relation named s, or false if s is not in the vocabulary.
func ParseRelation(s string) (Relation, bool) {
	r := Relation(s)
	if !r.IsKnown() {
		return "", false
	}
	return r, true
}

// MoveType is a tutor behavior.
type MoveType string

const (
	MoveHint                MoveType = "hint"
	MoveAnalogy             MoveType = "analogy"
	MoveMetacognitivePrompt MoveType = "metacognitive_prompt"
	MoveEvaluateWork        MoveType = "evaluate_work"
	MoveTeachBack           MoveType = "teach_back"
	MoveSynthesis           MoveType = "synthesis"
)

var moveTypes = map[MoveType]bool{
	MoveHint:                true,
	MoveAnalogy:             true,
	MoveMetacognitivePrompt: true,
	MoveEvaluateWork:        true,
	MoveTeachBack:           true,
	MoveSynthesis:           true,
}

// IsKnown reports whether m belongs to the move vocabulary.
func (m MoveType) IsKnown() bool {
	return moveTypes[m]
}

// Phase is a learning phase of a study session.
type Phase string

const (
	PhasePrime     Phase = "prime"
	PhaseEncode    Phase = "encode"
	PhaseRetrieve  Phase = "retrieve"
	PhaseOverlearn Phase = "overlearn"
)

// phaseAllowedMoves is the fixed phase -> allowed-moves table.
// teach_back and synthesis need encoded material, so prime and encode exclude them.
var phaseAllowedMoves = map[Phase][]MoveType{
	PhasePrime:     {MoveHint, MoveAnalogy, MoveMetacognitivePrompt, MoveEvaluateWork},
	PhaseEncode:    {MoveHint, MoveAnalogy, MoveMetacognitivePrompt, MoveEvaluateWork},
	PhaseRetrieve:  {MoveHint, MoveAnalogy, MoveMetacognitivePrompt, MoveEvaluateWork, MoveTeachBack, MoveSynthesis},
	PhaseOverlearn: {MoveHint, MoveAnalogy, MoveMetacognitivePrompt, MoveEvaluateWork, MoveTeachBack, MoveSynthesis},
}

// IsKnown reports whether p is one of the four recognized phases.
func (p Phase) IsKnown() bool {
	_, ok := phaseAllowedMoves[p]
	return ok
}

// AllowedMoves returns the moves permitted in phase p, or nil for an unknown phase.
func AllowedMoves(p Phase) []MoveType {
	moves, ok := phaseAllowedMoves[p]
	if !ok {
		return nil
	}
	out := make([]MoveType, len(moves))
	copy(out, moves)
	return out
}

// Allows reports whether move m may be used in phase p.
func (p Phase) Allows(m MoveType) bool {
	for _, allowed := range phaseAllowedMoves[p] {
		if allowed == m {
			return true
		}
	}
	return false
}
