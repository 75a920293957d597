package content

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/load"

	"github.com/roach88/studygate/internal/curriculum"
	"github.com/roach88/studygate/internal/schema"
)

var (
	// ErrNoContent is returned when a directory holds no .cue files.
	ErrNoContent = errors.New("studygate: no CUE files found")
	// ErrBuild is returned when CUE cannot load or evaluate the package.
	ErrBuild = errors.New("studygate: CUE build failed")
)

// LoadDir loads the CUE package in dir. The returned error covers problems
// that prevent reading the content at all; content problems come back as
// Problems alongside a (possibly partial) Bundle.
func LoadDir(dir string) (*Bundle, []Problem, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("content directory: %w", err)
	}
	if !info.IsDir() {
		return nil, nil, fmt.Errorf("not a directory: %s", dir)
	}

	files, err := FindCUEFiles(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("scan %s: %w", dir, err)
	}
	if len(files) == 0 {
		return nil, nil, fmt.Errorf("%w in %s", ErrNoContent, dir)
	}

	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, nil, fmt.Errorf("%w: no CUE instances loaded", ErrBuild)
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrBuild, details(inst.Err))
	}

	value := cuecontext.New().BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrBuild, details(err))
	}
	if err := value.Validate(); err != nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrBuild, details(err))
	}

	bundle, problems := LoadValue(value)
	bundle.FileCount = len(files)
	return bundle, problems, nil
}

// FindCUEFiles walks dir and returns every .cue file path.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

func details(err error) string {
	return strings.TrimSpace(cueerrors.Details(err, nil))
}

// LoadValue extracts and validates content from an evaluated CUE value.
func LoadValue(v cue.Value) (*Bundle, []Problem) {
	c := &collector{}
	b := &Bundle{
		Skills:     []schema.Skill{},
		Edges:      []schema.Edge{},
		Epitomes:   []schema.Epitome{},
		Organizers: []schema.AdvanceOrganizer{},
	}

	eachField(c, v, "skill", func(label string, fv cue.Value) {
		path := "skill." + label
		var s schema.Skill
		if err := fv.Decode(&s); err != nil {
			c.errorf(fv.Pos(), path, "decode: %s", details(err))
			return
		}
		if s.SkillID == "" {
			s.SkillID = label
		} else if s.SkillID != label {
			c.errorf(fv.Pos(), path, "skill_id %q does not match its label", s.SkillID)
			return
		}
		s = s.Normalized()
		if !report(c, fv, path, schema.ValidateSkill(s)) {
			return
		}
		b.Skills = append(b.Skills, s)
	})

	if ev := v.LookupPath(cue.ParsePath("edge")); ev.Exists() {
		iter, err := ev.List()
		if err != nil {
			c.errorf(ev.Pos(), "edge", "must be a list: %s", details(err))
		} else {
			for i := 0; iter.Next(); i++ {
				path := fmt.Sprintf("edge[%d]", i)
				e, ok := decodeEdge(c, iter.Value(), path)
				if !ok || !report(c, iter.Value(), path, schema.ValidateEdge(e)) {
					continue
				}
				b.Edges = append(b.Edges, e)
			}
		}
	}

	eachField(c, v, "epitome", func(label string, fv cue.Value) {
		path := "epitome." + label
		var e schema.Epitome
		if err := fv.Decode(&e); err != nil {
			c.errorf(fv.Pos(), path, "decode: %s", details(err))
			return
		}
		if e.EpitomeID == "" {
			e.EpitomeID = label
		}
		e.Mechanism = schema.NormalizeText(e.Mechanism)
		e.Example = schema.NormalizeText(e.Example)
		e.Topic = schema.NormalizeText(e.Topic)
		if !report(c, fv, path, schema.ValidateEpitome(e)) {
			return
		}
		b.Epitomes = append(b.Epitomes, e)
	})

	eachField(c, v, "organizer", func(label string, fv cue.Value) {
		path := "organizer." + label
		var o schema.AdvanceOrganizer
		if err := fv.Decode(&o); err != nil {
			c.errorf(fv.Pos(), path, "decode: %s", details(err))
			return
		}
		if o.OrganizerID == "" {
			o.OrganizerID = label
		}
		o.Topic = schema.NormalizeText(o.Topic)
		applyEdgeDefaults(fv.LookupPath(cue.ParsePath("edges")), o.Edges)
		if !report(c, fv, path, schema.ValidateAdvanceOrganizer(o)) {
			return
		}
		b.Organizers = append(b.Organizers, o)
	})

	sort.Slice(b.Skills, func(i, j int) bool { return b.Skills[i].SkillID < b.Skills[j].SkillID })
	sort.Slice(b.Epitomes, func(i, j int) bool { return b.Epitomes[i].EpitomeID < b.Epitomes[j].EpitomeID })
	sort.Slice(b.Organizers, func(i, j int) bool { return b.Organizers[i].OrganizerID < b.Organizers[j].OrganizerID })

	crossCheck(c, v, b)
	return b, c.problems
}

func eachField(c *collector, root cue.Value, field string, fn func(label string, v cue.Value)) {
	fv := root.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return
	}
	iter, err := fv.Fields()
	if err != nil {
		c.errorf(fv.Pos(), field, "must be a struct: %s", details(err))
		return
	}
	for iter.Next() {
		fn(iter.Selector().Unquoted(), iter.Value())
	}
}

func decodeEdge(c *collector, v cue.Value, path string) (schema.Edge, bool) {
	var e schema.Edge
	if err := v.Decode(&e); err != nil {
		c.errorf(v.Pos(), path, "decode: %s", details(err))
		return e, false
	}
	if !v.LookupPath(cue.ParsePath("confidence")).Exists() {
		e.Confidence = schema.DefaultEdgeConfidence
	}
	return e, true
}

// applyEdgeDefaults fills the default confidence into decoded edges whose
// CUE source omits it.
func applyEdgeDefaults(list cue.Value, edges []schema.Edge) {
	if !list.Exists() {
		return
	}
	iter, err := list.List()
	if err != nil {
		return
	}
	for i := 0; iter.Next() && i < len(edges); i++ {
		if !iter.Value().LookupPath(cue.ParsePath("confidence")).Exists() {
			edges[i].Confidence = schema.DefaultEdgeConfidence
		}
	}
}

// report records every validation error and returns res.Valid.
func report(c *collector, v cue.Value, path string, res schema.ValidationResult) bool {
	for _, msg := range res.Errors {
		c.errorf(v.Pos(), path, "%s", msg)
	}
	return res.Valid
}

// crossCheck warns about references to undeclared skills and epitomes, and
// reports prerequisite cycles as errors.
func crossCheck(c *collector, root cue.Value, b *Bundle) {
	skills := make(map[string]bool, len(b.Skills))
	for _, s := range b.Skills {
		skills[s.SkillID] = true
	}
	epitomes := make(map[string]bool, len(b.Epitomes))
	for _, e := range b.Epitomes {
		epitomes[e.EpitomeID] = true
	}

	pos := func(path string) cue.Value {
		return root.LookupPath(cue.ParsePath(path))
	}

	for _, s := range b.Skills {
		path := "skill." + s.SkillID
		for _, p := range s.Prereqs {
			if !skills[p] {
				c.warnf(pos(path).Pos(), path, "prerequisite %q is not a declared skill", p)
			}
		}
		if s.EpitomeID != "" && !epitomes[s.EpitomeID] {
			c.warnf(pos(path).Pos(), path, "epitome %q is not declared", s.EpitomeID)
		}
	}

	for i, e := range b.Edges {
		path := fmt.Sprintf("edge[%d]", i)
		for _, end := range []string{e.Source, e.Target} {
			if !skills[end] {
				c.warnf(pos("edge").Pos(), path, "endpoint %q is not a declared skill", end)
			}
		}
	}

	for _, e := range b.Epitomes {
		path := "epitome." + e.EpitomeID
		for _, id := range e.CoreNodeIDs {
			if !skills[id] {
				c.warnf(pos(path).Pos(), path, "core node %q is not a declared skill", id)
			}
		}
	}

	for _, o := range b.Organizers {
		path := "organizer." + o.OrganizerID
		for _, id := range o.AnchorConcepts {
			if !skills[id] {
				c.warnf(pos(path).Pos(), path, "anchor %q is not a declared skill", id)
			}
		}
	}

	for _, cycle := range curriculum.FindCycles(b.Nodes()) {
		path := "skill." + cycle[0]
		c.errorf(pos(path).Pos(), path, "prerequisite cycle: %s", strings.Join(cycle, " -> "))
	}
}
