package content

import (
	"github.com/roach88/studygate/internal/schema"
	"github.com/roach88/studygate/internal/store"
)

// Bundle is the validated content of one package. Skills, epitomes and
// organizers are ordered by id; edges keep their authored order.
type Bundle struct {
	Skills     []schema.Skill
	Edges      []schema.Edge
	Epitomes   []schema.Epitome
	Organizers []schema.AdvanceOrganizer
	FileCount  int
}

// Nodes converts the skills into curriculum nodes, in skill_id order.
func (b *Bundle) Nodes() []store.CurriculumNode {
	nodes := make([]store.CurriculumNode, 0, len(b.Skills))
	for _, s := range b.Skills {
		prereqs := make([]string, len(s.Prereqs))
		copy(prereqs, s.Prereqs)
		nodes = append(nodes, store.CurriculumNode{
			SkillID: s.SkillID,
			Name:    s.Name,
			Prereqs: prereqs,
		})
	}
	return nodes
}

// Skill looks up a skill by id.
func (b *Bundle) Skill(id string) (schema.Skill, bool) {
	for _, s := range b.Skills {
		if s.SkillID == id {
			return s, true
		}
	}
	return schema.Skill{}, false
}

// Organizer looks up an organizer by id.
func (b *Bundle) Organizer(id string) (schema.AdvanceOrganizer, bool) {
	for _, o := range b.Organizers {
		if o.OrganizerID == id {
			return o, true
		}
	}
	return schema.AdvanceOrganizer{}, false
}
