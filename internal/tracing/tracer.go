package tracing

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/studygate/internal/decay"
	"github.com/roach88/studygate/internal/metrics"
	"github.com/roach88/studygate/internal/schema"
	"github.com/roach88/studygate/internal/store"
)

// MasteryStore is the persistence the tracer needs. *store.Store implements it.
type MasteryStore interface {
	GetOrInitMastery(ctx context.Context, seed store.MasteryRecord) (store.MasteryRecord, error)
	UpdateMastery(ctx context.Context, seed store.MasteryRecord, fn func(store.MasteryRecord) (store.MasteryRecord, error)) (store.MasteryRecord, error)
	ListMastery(ctx context.Context, userID string) ([]store.MasteryRecord, error)
}

// Tracer owns every write to latent mastery.
type Tracer struct {
	store  MasteryStore
	clock  Clock
	logger *slog.Logger
}

// Option configures a Tracer.
type Option func(*Tracer)

// WithClock replaces the system clock. Tests and scenarios use a manual clock.
func WithClock(c Clock) Option {
	return func(t *Tracer) {
		t.clock = c
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(t *Tracer) {
		t.logger = l
	}
}

// New creates a Tracer over s.
func New(s MasteryStore, opts ...Option) *Tracer {
	t := &Tracer{
		store:  s,
		clock:  SystemClock{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// ReadOption adjusts a time-aware read.
type ReadOption func(*readOptions)

type readOptions struct {
	nowOffset time.Duration
}

// WithNowOffset evaluates the read as if d had elapsed past the clock's now.
func WithNowOffset(d time.Duration) ReadOption {
	return func(o *readOptions) {
		o.nowOffset = d
	}
}

func collectReadOptions(opts []ReadOption) readOptions {
	var o readOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// now is the clock's time at storage precision, so a read at the instant
// of a write sees no elapsed time.
func (t *Tracer) now() time.Time {
	return t.clock.Now().Truncate(time.Millisecond)
}

// seed is the record created on first access: the configured prior and
// rates, stamped with the current time. The prior is stored unclamped.
func (t *Tracer) seed(userID, skillID string, cfg schema.MasteryConfig) store.MasteryRecord {
	now := t.now()
	return store.MasteryRecord{
		UserID:          userID,
		SkillID:         skillID,
		PMasteryLatent:  cfg.PriorMastery,
		PLearn:          cfg.PLearn,
		PGuess:          cfg.PGuess,
		PSlip:           cfg.PSlip,
		LastPracticedAt: &now,
	}
}

// GetOrInit returns the record for (userID, skillID), creating it from cfg
// on first access. Once created, a record keeps its rates even if cfg
// changes later.
func (t *Tracer) GetOrInit(ctx context.Context, userID, skillID string, cfg schema.MasteryConfig) (store.MasteryRecord, error) {
	if err := cfg.Check(); err != nil {
		return store.MasteryRecord{}, err
	}
	rec, err := t.store.GetOrInitMastery(ctx, t.seed(userID, skillID, cfg))
	if err != nil {
		return store.MasteryRecord{}, fmt.Errorf("get or init mastery %s/%s: %w", userID, skillID, err)
	}
	return rec, nil
}

// Update applies one practice observation and returns the new latent
// mastery. The stored rates of the record are used, not cfg's; cfg only
// seeds a record that does not exist yet. The latent value and the
// last-practiced time are written together or not at all.
func (t *Tracer) Update(ctx context.Context, userID, skillID string, correct bool, cfg schema.MasteryConfig) (float64, error) {
	if err := cfg.Check(); err != nil {
		return 0, err
	}

	start := time.Now()
	var prior float64
	var degenerate bool
	rec, err := t.store.UpdateMastery(ctx, t.seed(userID, skillID, cfg), func(cur store.MasteryRecord) (store.MasteryRecord, error) {
		prior = cur.PMasteryLatent
		post, ok := Posterior(cur.PMasteryLatent, correct, cur.PGuess, cur.PSlip)
		degenerate = !ok

		now := t.now()
		cur.PMasteryLatent = Clamp(Learn(post, cur.PLearn))
		cur.LastPracticedAt = &now
		return cur, nil
	})
	if err != nil {
		return 0, fmt.Errorf("update mastery %s/%s: %w", userID, skillID, err)
	}
	metrics.MasteryUpdateDuration.Observe(time.Since(start).Seconds())
	metrics.MasteryUpdates.WithLabelValues(metrics.Outcome(correct)).Inc()

	if degenerate {
		metrics.DegeneratePosteriors.Inc()
		t.logger.Debug("posterior denominator was zero, kept prior",
			"user_id", userID,
			"skill_id", skillID,
			"p_guess", rec.PGuess,
			"p_slip", rec.PSlip,
		)
	}

	t.logger.Debug("mastery updated",
		"user_id", userID,
		"skill_id", skillID,
		"correct", correct,
		"prior", prior,
		"latent", rec.PMasteryLatent,
	)
	return rec.PMasteryLatent, nil
}

// EffectiveMastery returns latent mastery decayed by the time since the
// record was last practiced. A record is created on first access, so an
// unseen skill reads as the configured prior. A record without a
// last-practiced time is treated as practiced just now.
func (t *Tracer) EffectiveMastery(ctx context.Context, userID, skillID string, cfg schema.MasteryConfig, opts ...ReadOption) (float64, error) {
	rec, err := t.GetOrInit(ctx, userID, skillID, cfg)
	if err != nil {
		return 0, err
	}
	o := collectReadOptions(opts)
	return effective(rec, t.now().Add(o.nowOffset), cfg), nil
}

func effective(rec store.MasteryRecord, now time.Time, cfg schema.MasteryConfig) float64 {
	var elapsed time.Duration
	if rec.LastPracticedAt != nil {
		elapsed = now.Sub(*rec.LastPracticedAt)
	}
	return decay.EffectiveMastery(rec.PMasteryLatent, elapsed, cfg)
}

// SkillState is a read-only view of one record.
type SkillState struct {
	SkillID         string     `json:"skill_id"`
	Latent          float64    `json:"p_mastery_latent"`
	Effective       float64    `json:"p_mastery_effective"`
	LastPracticedAt *time.Time `json:"last_practiced_at,omitempty"`
}

// Snapshot returns every existing record of userID with its effective
// mastery, ordered by skill_id. It creates nothing.
func (t *Tracer) Snapshot(ctx context.Context, userID string, cfg schema.MasteryConfig, opts ...ReadOption) ([]SkillState, error) {
	if err := cfg.Check(); err != nil {
		return nil, err
	}
	records, err := t.store.ListMastery(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", userID, err)
	}

	now := t.now().Add(collectReadOptions(opts).nowOffset)
	states := make([]SkillState, 0, len(records))
	for _, rec := range records {
		states = append(states, SkillState{
			SkillID:         rec.SkillID,
			Latent:          rec.PMasteryLatent,
			Effective:       effective(rec, now, cfg),
			LastPracticedAt: rec.LastPracticedAt,
		})
	}
	return states, nil
}
