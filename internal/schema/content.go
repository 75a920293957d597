package schema

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// DefaultEdgeConfidence is the confidence an edge carries when none is authored.
const DefaultEdgeConfidence = 1.0

// Skill is an authored curriculum skill.
type Skill struct {
	SkillID     string   `json:"skill_id" validate:"required,slug"`
	Name        string   `json:"name" validate:"required,notblank"`
	Description string   `json:"description,omitempty"`
	Prereqs     []string `json:"prereqs,omitempty" validate:"dive,slug"`
	Tags        []string `json:"tags,omitempty"`
	System      string   `json:"system,omitempty"`
	EpitomeID   string   `json:"epitome_id,omitempty" validate:"omitempty,slug"`
}

// Normalized returns a copy of s with surrounding whitespace trimmed and
// display text in Unicode NFC, so visually identical names compare equal.
func (s Skill) Normalized() Skill {
	out := s
	out.SkillID = strings.TrimSpace(s.SkillID)
	out.Name = NormalizeText(s.Name)
	out.Description = NormalizeText(s.Description)
	out.System = NormalizeText(s.System)
	out.EpitomeID = strings.TrimSpace(s.EpitomeID)
	out.Prereqs = trimAll(s.Prereqs)
	out.Tags = trimAll(s.Tags)
	return out
}

// Edge is a typed relation between two concepts.
type Edge struct {
	Source     string   `json:"source" validate:"required,notblank"`
	Relation   Relation `json:"relation" validate:"required,relation"`
	Target     string   `json:"target" validate:"required,notblank"`
	Confidence float64  `json:"confidence" validate:"gte=0,lte=1"`
	Provenance string   `json:"provenance,omitempty"`
}

// NewEdge returns an edge with the default confidence.
func NewEdge(source string, rel Relation, target string) Edge {
	return Edge{Source: source, Relation: rel, Target: target, Confidence: DefaultEdgeConfidence}
}

// Epitome is the summary artifact for a topic: the core mechanism, a worked
// example, and the handful of nodes everything else elaborates on.
type Epitome struct {
	EpitomeID   string   `json:"epitome_id,omitempty" validate:"omitempty,slug"`
	Topic       string   `json:"topic,omitempty"`
	Mechanism   string   `json:"mechanism" validate:"required,notblank"`
	Example     string   `json:"example" validate:"required,notblank"`
	CoreNodeIDs []string `json:"core_node_ids" validate:"min=3,max=7"`
}

// AdvanceOrganizer is the authored anchor set and edge sketch shown before a topic.
type AdvanceOrganizer struct {
	OrganizerID    string   `json:"organizer_id,omitempty" validate:"omitempty,slug"`
	Topic          string   `json:"topic,omitempty"`
	AnchorConcepts []string `json:"anchor_concepts" validate:"min=5"`
	Edges          []Edge   `json:"edges" validate:"min=1,dive"`
}

// NormalizeText trims s and converts it to Unicode NFC.
func NormalizeText(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

func trimAll(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(v)
	}
	return out
}
