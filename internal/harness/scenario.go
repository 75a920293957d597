package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/studygate/internal/curriculum"
	"github.com/roach88/studygate/internal/schema"
	"github.com/roach88/studygate/internal/store"
)

// Scenario defines a conformance test scenario.
// A scenario seeds a curriculum, drives practice and clock movement through
// the real engines, and asserts on the derived gating state.
type Scenario struct {
	// Name uniquely identifies this scenario. It names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Start is the initial clock reading. Zero means testutil.DefaultEpoch.
	Start time.Time `yaml:"start,omitempty"`

	// Config is the mastery configuration. Keys left out of the YAML keep
	// their schema.DefaultMasteryConfig values.
	Config schema.MasteryConfig `yaml:"config,omitempty"`

	// Nodes are upserted in order before the first step. Setup nodes must
	// be accepted; use an upsert step to exercise rejection.
	Nodes []NodeSpec `yaml:"nodes"`

	// Steps run in order. Each step sets exactly one of its fields.
	Steps []Step `yaml:"steps"`

	// Assertions are evaluated after the last step.
	Assertions []Assertion `yaml:"assertions"`
}

// NodeSpec is a curriculum node as written in a scenario.
type NodeSpec struct {
	ID      string   `yaml:"id"`
	Name    string   `yaml:"name"`
	Prereqs []string `yaml:"prereqs,omitempty"`
}

// Node converts the declaration to its stored form.
func (n NodeSpec) Node() store.CurriculumNode {
	return store.CurriculumNode{SkillID: n.ID, Name: n.Name, Prereqs: n.Prereqs}
}

// Step is one scenario action.
type Step struct {
	// Practice records a graded attempt, Repeat times (default 1).
	Practice *PracticeStep `yaml:"practice,omitempty"`

	// Advance moves the clock forward by a Go duration ("36h", "90m").
	Advance string `yaml:"advance,omitempty"`

	// Upsert writes a node mid-flow. ExpectError, when set, must be a
	// substring of the rejection message.
	Upsert *UpsertStep `yaml:"upsert,omitempty"`

	// Expect evaluates assertions at this point of the flow.
	Expect []Assertion `yaml:"expect,omitempty"`
}

// PracticeStep is a graded attempt.
type PracticeStep struct {
	User    string `yaml:"user"`
	Skill   string `yaml:"skill"`
	Correct bool   `yaml:"correct"`
	Repeat  int    `yaml:"repeat,omitempty"`
}

// UpsertStep writes a node and optionally expects it to be rejected.
type UpsertStep struct {
	Node        NodeSpec `yaml:"node"`
	ExpectError string   `yaml:"expect_error,omitempty"`
}

// Kind names the field a step sets.
func (s Step) Kind() string {
	switch {
	case s.Practice != nil:
		return StepPractice
	case s.Advance != "":
		return StepAdvance
	case s.Upsert != nil:
		return StepUpsert
	case len(s.Expect) > 0:
		return StepExpect
	default:
		return ""
	}
}

// Step kinds, as they appear in traces.
const (
	StepPractice = "practice"
	StepAdvance  = "advance"
	StepUpsert   = "upsert"
	StepExpect   = "expect"
)

// Assertion checks derived state for one user.
type Assertion struct {
	// Type is one of status, organizer, mastery, out_of_sequence.
	Type string `yaml:"type"`

	User  string `yaml:"user"`
	Skill string `yaml:"skill,omitempty"`

	// Status is the expected gating status (status).
	Status string `yaml:"status,omitempty"`

	// Anchors are always shown; Skills is the exact expected list (organizer).
	Anchors []string `yaml:"anchors,omitempty"`
	Skills  []string `yaml:"skills,omitempty"`

	// Min and Max bound mastery inclusively; Latent selects latent instead
	// of effective mastery (mastery).
	Min    *float64 `yaml:"min,omitempty"`
	Max    *float64 `yaml:"max,omitempty"`
	Latent bool     `yaml:"latent,omitempty"`

	// Count is the expected number of out-of-sequence events (out_of_sequence).
	Count *int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertStatus        = "status"
	AssertOrganizer     = "organizer"
	AssertMastery       = "mastery"
	AssertOutOfSequence = "out_of_sequence"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	scenario := Scenario{Config: schema.DefaultMasteryConfig()}

	// Strict decoding catches typos like "assertion:" vs "assertions:"
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// FindScenarios returns the .yaml and .yml files directly under dir,
// sorted by name. A non-empty filter is matched against the file name
// without its extension.
func FindScenarios(dir, filter string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read scenarios dir: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		if filter != "" {
			matched, err := filepath.Match(filter, strings.TrimSuffix(entry.Name(), ext))
			if err != nil {
				return nil, fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				continue
			}
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	if err := s.Config.Check(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	for i, node := range s.Nodes {
		if node.ID == "" {
			return fmt.Errorf("nodes[%d]: id is required", i)
		}
	}

	for i, step := range s.Steps {
		if err := validateStep(i, step); err != nil {
			return err
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(fmt.Sprintf("assertions[%d]", i), a); err != nil {
			return err
		}
	}

	return nil
}

func validateStep(index int, step Step) error {
	set := 0
	if step.Practice != nil {
		set++
	}
	if step.Advance != "" {
		set++
	}
	if step.Upsert != nil {
		set++
	}
	if len(step.Expect) > 0 {
		set++
	}
	if set != 1 {
		return fmt.Errorf("steps[%d]: exactly one of practice, advance, upsert, expect is required", index)
	}

	switch step.Kind() {
	case StepPractice:
		p := step.Practice
		if p.User == "" || p.Skill == "" {
			return fmt.Errorf("steps[%d].practice: user and skill are required", index)
		}
		if p.Repeat < 0 {
			return fmt.Errorf("steps[%d].practice: repeat must be non-negative", index)
		}
	case StepAdvance:
		d, err := time.ParseDuration(step.Advance)
		if err != nil {
			return fmt.Errorf("steps[%d].advance: %w", index, err)
		}
		if d < 0 {
			return fmt.Errorf("steps[%d].advance: duration must be non-negative", index)
		}
	case StepUpsert:
		if step.Upsert.Node.ID == "" {
			return fmt.Errorf("steps[%d].upsert: node id is required", index)
		}
	case StepExpect:
		for j, a := range step.Expect {
			if err := validateAssertion(fmt.Sprintf("steps[%d].expect[%d]", index, j), a); err != nil {
				return err
			}
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(where string, a Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("%s: type is required", where)
	}
	if a.User == "" {
		return fmt.Errorf("%s: user is required", where)
	}

	switch a.Type {
	case AssertStatus:
		if a.Skill == "" {
			return fmt.Errorf("%s: skill is required for status", where)
		}
		switch curriculum.Status(a.Status) {
		case curriculum.StatusLocked, curriculum.StatusAvailable, curriculum.StatusMastered:
		default:
			return fmt.Errorf("%s: status %q must be locked, available or mastered", where, a.Status)
		}
	case AssertOrganizer:
		if a.Skills == nil {
			return fmt.Errorf("%s: skills list is required for organizer (use [] for none)", where)
		}
	case AssertMastery:
		if a.Skill == "" {
			return fmt.Errorf("%s: skill is required for mastery", where)
		}
		if a.Min == nil && a.Max == nil {
			return fmt.Errorf("%s: min or max is required for mastery", where)
		}
		if a.Min != nil && a.Max != nil && *a.Min > *a.Max {
			return fmt.Errorf("%s: min must not exceed max", where)
		}
	case AssertOutOfSequence:
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("%s: non-negative count is required for out_of_sequence", where)
		}
	default:
		return fmt.Errorf("%s: unknown assertion type %q", where, a.Type)
	}

	return nil
}
