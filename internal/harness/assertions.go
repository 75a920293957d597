package harness

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/studygate/internal/curriculum"
)

// AssertionError is returned when an assertion fails.
// It includes enough context to debug the failure without the trace.
type AssertionError struct {
	Where    string // position in the scenario, e.g. "steps[3]"
	Type     string // assertion type for categorization
	Subject  string // user/skill the assertion is about
	Expected string // human-readable expected outcome
	Actual   string // human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	return fmt.Sprintf("%s: %s %s: expected %s, got %s", e.Where, e.Type, e.Subject, e.Expected, e.Actual)
}

// evaluate checks each assertion and returns one message per failure.
// Assertions that cannot be evaluated are reported as failures too.
func (h *Harness) evaluate(ctx context.Context, where string, assertions []Assertion) []string {
	var failures []string
	for i, a := range assertions {
		pos := fmt.Sprintf("%s[%d]", where, i)
		if where != "assertions" {
			pos = fmt.Sprintf("%s.expect[%d]", where, i)
		}
		if err := h.check(ctx, pos, a); err != nil {
			failures = append(failures, err.Error())
		}
	}
	return failures
}

func (h *Harness) check(ctx context.Context, where string, a Assertion) error {
	switch a.Type {
	case AssertStatus:
		return h.checkStatus(ctx, where, a)
	case AssertOrganizer:
		return h.checkOrganizer(ctx, where, a)
	case AssertMastery:
		return h.checkMastery(ctx, where, a)
	case AssertOutOfSequence:
		return h.checkOutOfSequence(ctx, where, a)
	}
	return fmt.Errorf("%s: unknown assertion type %q", where, a.Type)
}

func (h *Harness) checkStatus(ctx context.Context, where string, a Assertion) error {
	status, err := h.gate.ComputeStatus(ctx, a.User, a.Skill, h.scenario.Config)
	if err != nil {
		return fmt.Errorf("%s: %w", where, err)
	}
	if status != curriculum.Status(a.Status) {
		return &AssertionError{
			Where:    where,
			Type:     AssertStatus,
			Subject:  a.User + "/" + a.Skill,
			Expected: a.Status,
			Actual:   string(status),
		}
	}
	return nil
}

func (h *Harness) checkOrganizer(ctx context.Context, where string, a Assertion) error {
	entries, err := h.gate.OrganizerView(ctx, a.User, h.scenario.Config, a.Anchors)
	if err != nil {
		return fmt.Errorf("%s: %w", where, err)
	}
	got := make([]string, 0, len(entries))
	for _, e := range entries {
		got = append(got, e.SkillID)
	}
	if !slices.Equal(got, a.Skills) {
		return &AssertionError{
			Where:    where,
			Type:     AssertOrganizer,
			Subject:  a.User,
			Expected: fmt.Sprintf("%v", a.Skills),
			Actual:   fmt.Sprintf("%v", got),
		}
	}
	return nil
}

func (h *Harness) checkMastery(ctx context.Context, where string, a Assertion) error {
	var (
		p    float64
		kind = "effective"
	)
	if a.Latent {
		kind = "latent"
		rec, err := h.tracer.GetOrInit(ctx, a.User, a.Skill, h.scenario.Config)
		if err != nil {
			return fmt.Errorf("%s: %w", where, err)
		}
		p = rec.PMasteryLatent
	} else {
		eff, err := h.tracer.EffectiveMastery(ctx, a.User, a.Skill, h.scenario.Config)
		if err != nil {
			return fmt.Errorf("%s: %w", where, err)
		}
		p = eff
	}

	if (a.Min != nil && p < *a.Min) || (a.Max != nil && p > *a.Max) {
		return &AssertionError{
			Where:    where,
			Type:     AssertMastery,
			Subject:  a.User + "/" + a.Skill,
			Expected: fmt.Sprintf("%s mastery in %s", kind, bounds(a.Min, a.Max)),
			Actual:   formatProbability(p),
		}
	}
	return nil
}

func (h *Harness) checkOutOfSequence(ctx context.Context, where string, a Assertion) error {
	events, err := h.store.ReadPracticeEvents(ctx, a.User)
	if err != nil {
		return fmt.Errorf("%s: %w", where, err)
	}
	count := 0
	for _, ev := range events {
		if ev.OutOfSequence && (a.Skill == "" || ev.SkillID == a.Skill) {
			count++
		}
	}
	if count != *a.Count {
		subject := a.User
		if a.Skill != "" {
			subject += "/" + a.Skill
		}
		return &AssertionError{
			Where:    where,
			Type:     AssertOutOfSequence,
			Subject:  subject,
			Expected: fmt.Sprintf("%d events", *a.Count),
			Actual:   fmt.Sprintf("%d events", count),
		}
	}
	return nil
}

func bounds(lo, hi *float64) string {
	l, r := "-inf", "+inf"
	if lo != nil {
		l = formatProbability(*lo)
	}
	if hi != nil {
		r = formatProbability(*hi)
	}
	return "[" + l + ", " + r + "]"
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
