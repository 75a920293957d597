package curriculum

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/roach88/studygate/internal/metrics"
	"github.com/roach88/studygate/internal/schema"
	"github.com/roach88/studygate/internal/store"
	"github.com/roach88/studygate/internal/tracing"
)

// ErrInvalidNode is wrapped when a node fails structural checks on upsert.
var ErrInvalidNode = errors.New("studygate: invalid curriculum node")

// NodeStore persists curriculum nodes. *store.Store implements it.
type NodeStore interface {
	UpsertNode(ctx context.Context, node store.CurriculumNode, guard func([]store.CurriculumNode) error) error
	ReadNode(ctx context.Context, skillID string) (store.CurriculumNode, error)
	ListNodes(ctx context.Context) ([]store.CurriculumNode, error)
}

// MasteryReader provides effective mastery. *tracing.Tracer implements it.
type MasteryReader interface {
	EffectiveMastery(ctx context.Context, userID, skillID string, cfg schema.MasteryConfig, opts ...tracing.ReadOption) (float64, error)
}

// Gate derives node statuses from effective mastery.
type Gate struct {
	nodes   NodeStore
	mastery MasteryReader
	logger  *slog.Logger
}

// Option configures a Gate.
type Option func(*Gate)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(g *Gate) {
		g.logger = l
	}
}

// NewGate creates a Gate.
func NewGate(nodes NodeStore, mastery MasteryReader, opts ...Option) *Gate {
	g := &Gate{
		nodes:   nodes,
		mastery: mastery,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// UpsertNode validates node, de-duplicates its prerequisites and writes it.
// A write that would close a prerequisite cycle returns a *CycleError and
// leaves the graph unchanged.
func (g *Gate) UpsertNode(ctx context.Context, node store.CurriculumNode) error {
	node.SkillID = strings.TrimSpace(node.SkillID)
	node.Name = schema.NormalizeText(node.Name)
	node.Prereqs = dedupe(node.Prereqs)

	if problems := checkNode(node); len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidNode, strings.Join(problems, "; "))
	}

	err := g.nodes.UpsertNode(ctx, node, func(existing []store.CurriculumNode) error {
		return checkUpsert(existing, node)
	})

	var cycle *CycleError
	if errors.As(err, &cycle) {
		metrics.CycleRejections.Inc()
		g.logger.Warn("rejected curriculum node",
			"skill_id", node.SkillID,
			"cycle", strings.Join(cycle.Path, " -> "),
		)
		return err
	}
	if err != nil {
		return fmt.Errorf("upsert node %s: %w", node.SkillID, err)
	}

	g.logger.Debug("curriculum node upserted",
		"skill_id", node.SkillID,
		"prereqs", len(node.Prereqs),
	)
	return nil
}

func checkNode(node store.CurriculumNode) []string {
	var problems []string
	if !schema.IsSlug(node.SkillID) {
		problems = append(problems, fmt.Sprintf("skill_id %q must match %s", node.SkillID, schema.SlugPattern))
	}
	if node.Name == "" {
		problems = append(problems, "name must not be blank")
	}
	for i, p := range node.Prereqs {
		if !schema.IsSlug(p) {
			problems = append(problems, fmt.Sprintf("prereqs[%d] %q must match %s", i, p, schema.SlugPattern))
		}
		if p == node.SkillID {
			problems = append(problems, fmt.Sprintf("prereqs[%d] %q is the node itself", i, p))
		}
	}
	return problems
}

// dedupe trims ids and drops repeats, keeping first occurrence order.
func dedupe(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// ComputeStatus returns the status of skillID for userID. An unknown node is
// locked; only storage errors and an invalid cfg are returned as errors.
func (g *Gate) ComputeStatus(ctx context.Context, userID, skillID string, cfg schema.MasteryConfig, opts ...tracing.ReadOption) (Status, error) {
	if err := cfg.Check(); err != nil {
		return StatusLocked, err
	}

	node, err := g.nodes.ReadNode(ctx, skillID)
	if errors.Is(err, store.ErrNotFound) {
		metrics.GateDecisions.WithLabelValues(string(StatusLocked)).Inc()
		return StatusLocked, nil
	}
	if err != nil {
		return StatusLocked, fmt.Errorf("compute status %s: %w", skillID, err)
	}

	return g.statusOf(ctx, userID, node, cfg, opts)
}

func (g *Gate) statusOf(ctx context.Context, userID string, node store.CurriculumNode, cfg schema.MasteryConfig, opts []tracing.ReadOption) (Status, error) {
	status, err := g.derive(ctx, userID, node, cfg, opts)
	if err != nil {
		return StatusLocked, fmt.Errorf("compute status %s: %w", node.SkillID, err)
	}
	metrics.GateDecisions.WithLabelValues(string(status)).Inc()
	return status, nil
}

func (g *Gate) derive(ctx context.Context, userID string, node store.CurriculumNode, cfg schema.MasteryConfig, opts []tracing.ReadOption) (Status, error) {
	own, err := g.mastery.EffectiveMastery(ctx, userID, node.SkillID, cfg, opts...)
	if err != nil {
		return StatusLocked, err
	}
	if own >= cfg.MasteredThreshold {
		return StatusMastered, nil
	}

	for _, prereq := range node.Prereqs {
		eff, err := g.mastery.EffectiveMastery(ctx, userID, prereq, cfg, opts...)
		if err != nil {
			return StatusLocked, err
		}
		if eff < cfg.UnlockThreshold {
			return StatusLocked, nil
		}
	}
	return StatusAvailable, nil
}

// AttemptPractice reports whether practicing skillID now is in sequence.
// Practice is always allowed; OutOfSequence is true iff the node is locked.
func (g *Gate) AttemptPractice(ctx context.Context, userID, skillID string, cfg schema.MasteryConfig, opts ...tracing.ReadOption) (PracticeDecision, error) {
	status, err := g.ComputeStatus(ctx, userID, skillID, cfg, opts...)
	if err != nil {
		return PracticeDecision{}, err
	}

	decision := PracticeDecision{
		Allowed:       true,
		OutOfSequence: status == StatusLocked,
		Status:        status,
	}
	if decision.OutOfSequence {
		metrics.OutOfSequenceAttempts.Inc()
		g.logger.Info("out-of-sequence practice",
			"user_id", userID,
			"skill_id", skillID,
		)
	}
	return decision, nil
}

// OrganizerView lists, in skill_id order, every known node that is an
// anchor or is unlocked for userID. Anchor ids with no node are ignored.
func (g *Gate) OrganizerView(ctx context.Context, userID string, cfg schema.MasteryConfig, anchorIDs []string, opts ...tracing.ReadOption) ([]OrganizerEntry, error) {
	if err := cfg.Check(); err != nil {
		return nil, err
	}

	nodes, err := g.nodes.ListNodes(ctx)
	if err != nil {
		return nil, fmt.Errorf("organizer view: %w", err)
	}

	anchors := toSet(anchorIDs)
	entries := []OrganizerEntry{}
	for _, node := range nodes {
		status, err := g.statusOf(ctx, userID, node, cfg, opts)
		if err != nil {
			return nil, err
		}
		if !anchors[node.SkillID] && !status.IsUnlocked() {
			continue
		}
		entries = append(entries, OrganizerEntry{
			SkillID: node.SkillID,
			Name:    node.Name,
			Status:  status,
		})
	}
	return entries, nil
}

// Cycles reports prerequisite cycles among the stored nodes. Upserts through
// a Gate never create one; rows written by other tools might.
func (g *Gate) Cycles(ctx context.Context) ([][]string, error) {
	nodes, err := g.nodes.ListNodes(ctx)
	if err != nil {
		return nil, fmt.Errorf("list nodes: %w", err)
	}
	return FindCycles(nodes), nil
}
