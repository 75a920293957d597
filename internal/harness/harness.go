package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/roach88/studygate/internal/curriculum"
	"github.com/roach88/studygate/internal/practice"
	"github.com/roach88/studygate/internal/store"
	"github.com/roach88/studygate/internal/testutil"
	"github.com/roach88/studygate/internal/tracing"
)

// Harness holds the engines a scenario runs against.
type Harness struct {
	store    *store.Store
	clock    *testutil.ManualClock
	tracer   *tracing.Tracer
	gate     *curriculum.Gate
	recorder *practice.Recorder
	scenario *Scenario
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database with a manual clock and
// sequential event ids, so the same scenario always produces the same trace.
//
// Execution flow:
// 1. Create fresh in-memory database and engines
// 2. Upsert the scenario's nodes
// 3. Execute steps, evaluating inline expectations
// 4. Evaluate final assertions and capture final state
//
// An error is returned only when the scenario could not be executed.
// Failed expectations are reported in Result.Errors.
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := newHarness(st, scenario)
	ctx := context.Background()

	for i, node := range scenario.Nodes {
		if err := h.gate.UpsertNode(ctx, node.Node()); err != nil {
			return nil, fmt.Errorf("failed to upsert nodes[%d]: %w", i, err)
		}
	}

	result := NewResult()
	for i, step := range scenario.Steps {
		if err := h.executeStep(ctx, i, step, result); err != nil {
			return nil, fmt.Errorf("failed to execute steps[%d]: %w", i, err)
		}
	}

	for _, msg := range h.evaluate(ctx, "assertions", scenario.Assertions) {
		result.AddError(msg)
	}

	final, err := h.finalState(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to capture final state: %w", err)
	}
	result.Final = final

	return result, nil
}

func newHarness(st *store.Store, scenario *Scenario) *Harness {
	// Suppress logs in scenarios
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	clock := testutil.NewManualClock(scenario.Start)

	tracer := tracing.New(st, tracing.WithClock(clock), tracing.WithLogger(logger))
	gate := curriculum.NewGate(st, tracer, curriculum.WithLogger(logger))
	recorder := practice.NewRecorder(gate, tracer, st,
		practice.WithClock(clock),
		practice.WithIDGenerator(testutil.NewSequentialIDs("evt")),
		practice.WithLogger(logger),
	)

	return &Harness{
		store:    st,
		clock:    clock,
		tracer:   tracer,
		gate:     gate,
		recorder: recorder,
		scenario: scenario,
	}
}

func (h *Harness) executeStep(ctx context.Context, index int, step Step, result *Result) error {
	switch step.Kind() {
	case StepPractice:
		return h.practice(ctx, index, *step.Practice, result)

	case StepAdvance:
		d, err := time.ParseDuration(step.Advance)
		if err != nil {
			return err
		}
		now := h.clock.Advance(d)
		result.Trace = append(result.Trace, TraceEvent{
			Step: index,
			Type: StepAdvance,
			At:   formatTime(now),
		})
		return nil

	case StepUpsert:
		return h.upsert(ctx, index, *step.Upsert, result)

	case StepExpect:
		for _, msg := range h.evaluate(ctx, fmt.Sprintf("steps[%d]", index), step.Expect) {
			result.AddError(msg)
		}
		return nil
	}
	return fmt.Errorf("step sets no action")
}

func (h *Harness) practice(ctx context.Context, index int, p PracticeStep, result *Result) error {
	repeat := p.Repeat
	if repeat == 0 {
		repeat = 1
	}

	outcome := "incorrect"
	if p.Correct {
		outcome = "correct"
	}

	for i := 0; i < repeat; i++ {
		res, err := h.recorder.Record(ctx, practice.Observation{
			UserID:  p.User,
			SkillID: p.Skill,
			Correct: p.Correct,
			Source:  "scenario",
		}, h.scenario.Config)
		if err != nil {
			return err
		}

		result.Trace = append(result.Trace, TraceEvent{
			Step:          index,
			Type:          StepPractice,
			At:            formatTime(h.clock.Now()),
			UserID:        p.User,
			SkillID:       p.Skill,
			Outcome:       outcome,
			EventID:       res.EventID,
			Status:        string(res.Decision.Status),
			OutOfSequence: res.Decision.OutOfSequence,
			Latent:        formatProbability(res.PMasteryLatent),
		})
	}
	return nil
}

func (h *Harness) upsert(ctx context.Context, index int, u UpsertStep, result *Result) error {
	event := TraceEvent{
		Step:    index,
		Type:    StepUpsert,
		At:      formatTime(h.clock.Now()),
		SkillID: u.Node.ID,
	}

	err := h.gate.UpsertNode(ctx, u.Node.Node())
	switch {
	case err == nil && u.ExpectError != "":
		result.AddError(fmt.Sprintf("steps[%d]: upsert %s succeeded, expected error containing %q",
			index, u.Node.ID, u.ExpectError))
	case err != nil && u.ExpectError == "":
		return err
	case err != nil:
		event.Rejected = err.Error()
		if !containsFold(err.Error(), u.ExpectError) {
			result.AddError(fmt.Sprintf("steps[%d]: upsert %s rejected with %q, expected error containing %q",
				index, u.Node.ID, err.Error(), u.ExpectError))
		}
	}

	result.Trace = append(result.Trace, event)
	return nil
}

// finalState reports every node for every user that practiced.
func (h *Harness) finalState(ctx context.Context) ([]UserState, error) {
	nodes, err := h.store.ListNodes(ctx)
	if err != nil {
		return nil, err
	}

	cfg := h.scenario.Config
	states := []UserState{}
	for _, user := range h.practicedUsers() {
		us := UserState{UserID: user, Nodes: make([]NodeState, 0, len(nodes))}
		for _, node := range nodes {
			status, err := h.gate.ComputeStatus(ctx, user, node.SkillID, cfg)
			if err != nil {
				return nil, err
			}
			eff, err := h.tracer.EffectiveMastery(ctx, user, node.SkillID, cfg)
			if err != nil {
				return nil, err
			}
			us.Nodes = append(us.Nodes, NodeState{
				SkillID:   node.SkillID,
				Status:    string(status),
				Effective: formatProbability(eff),
			})
		}
		states = append(states, us)
	}
	return states, nil
}

func (h *Harness) practicedUsers() []string {
	seen := make(map[string]bool)
	var users []string
	for _, step := range h.scenario.Steps {
		if step.Practice == nil || seen[step.Practice.User] {
			continue
		}
		seen[step.Practice.User] = true
		users = append(users, step.Practice.User)
	}
	sort.Strings(users)
	return users
}
