package practice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/studygate/internal/curriculum"
	"github.com/roach88/studygate/internal/metrics"
	"github.com/roach88/studygate/internal/schema"
	"github.com/roach88/studygate/internal/store"
	"github.com/roach88/studygate/internal/tracing"
)

// ErrInvalidObservation is wrapped when an observation fails validation.
var ErrInvalidObservation = errors.New("studygate: invalid practice observation")

// Observation is one graded practice attempt.
type Observation struct {
	UserID     string     `json:"user_id" yaml:"user_id" validate:"required,notblank"`
	SkillID    string     `json:"skill_id" yaml:"skill_id" validate:"required,slug"`
	Correct    bool       `json:"correct" yaml:"correct"`
	OccurredAt *time.Time `json:"occurred_at,omitempty" yaml:"occurred_at,omitempty"`
	Confidence *float64   `json:"confidence,omitempty" yaml:"confidence,omitempty" validate:"omitempty,gte=0,lte=1"`
	LatencyMS  *int64     `json:"latency_ms,omitempty" yaml:"latency_ms,omitempty" validate:"omitempty,gte=0"`
	HintLevel  int        `json:"hint_level,omitempty" yaml:"hint_level,omitempty" validate:"gte=0"`
	Source     string     `json:"source,omitempty" yaml:"source,omitempty"`
}

// Validate checks the observation's structure.
func (o Observation) Validate() error {
	res := schema.ValidateStruct(o)
	if res.Valid {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInvalidObservation, strings.Join(res.Errors, "; "))
}

// Gatekeeper is the advisory sequencing check. *curriculum.Gate implements it.
type Gatekeeper interface {
	AttemptPractice(ctx context.Context, userID, skillID string, cfg schema.MasteryConfig, opts ...tracing.ReadOption) (curriculum.PracticeDecision, error)
}

// Updater applies a BKT observation. *tracing.Tracer implements it.
type Updater interface {
	Update(ctx context.Context, userID, skillID string, correct bool, cfg schema.MasteryConfig) (float64, error)
}

// EventLog is the append-only practice log. *store.Store implements it.
type EventLog interface {
	AppendPracticeEvent(ctx context.Context, ev store.PracticeEvent) (seq int64, inserted bool, err error)
}

// IDGenerator mints practice event IDs.
type IDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 event IDs.
//
// Thread-safety: stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate returns a new hyphenated UUIDv7.
// Panics if UUID generation fails (should never happen in practice).
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Recorder records observations.
type Recorder struct {
	gate   Gatekeeper
	tracer Updater
	events EventLog
	ids    IDGenerator
	clock  tracing.Clock
	logger *slog.Logger
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithIDGenerator replaces UUIDv7 event IDs, e.g. with sequential IDs in tests.
func WithIDGenerator(g IDGenerator) Option {
	return func(r *Recorder) {
		r.ids = g
	}
}

// WithClock sets the clock used when an observation has no timestamp.
func WithClock(c tracing.Clock) Option {
	return func(r *Recorder) {
		r.clock = c
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(r *Recorder) {
		r.logger = l
	}
}

// NewRecorder creates a Recorder.
func NewRecorder(gate Gatekeeper, tracer Updater, events EventLog, opts ...Option) *Recorder {
	r := &Recorder{
		gate:   gate,
		tracer: tracer,
		events: events,
		ids:    UUIDv7Generator{},
		clock:  tracing.SystemClock{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Result describes a recorded observation.
type Result struct {
	EventID        string                      `json:"event_id"`
	Seq            int64                       `json:"seq"`
	PMasteryLatent float64                     `json:"p_mastery_latent"`
	Decision       curriculum.PracticeDecision `json:"decision"`
}

// Record gates, applies and logs one observation. The gate decision is
// informational: a locked node is still practiced and the event is flagged
// out of sequence.
func (r *Recorder) Record(ctx context.Context, obs Observation, cfg schema.MasteryConfig) (Result, error) {
	if err := obs.Validate(); err != nil {
		return Result{}, err
	}

	decision, err := r.gate.AttemptPractice(ctx, obs.UserID, obs.SkillID, cfg)
	if err != nil {
		return Result{}, fmt.Errorf("attempt practice: %w", err)
	}

	latent, err := r.tracer.Update(ctx, obs.UserID, obs.SkillID, obs.Correct, cfg)
	if err != nil {
		return Result{}, err
	}

	occurred := r.clock.Now()
	if obs.OccurredAt != nil {
		occurred = *obs.OccurredAt
	}

	ev := store.PracticeEvent{
		ID:            r.ids.Generate(),
		UserID:        obs.UserID,
		SkillID:       obs.SkillID,
		Correct:       obs.Correct,
		OccurredAt:    occurred,
		Confidence:    obs.Confidence,
		LatencyMS:     obs.LatencyMS,
		HintLevel:     obs.HintLevel,
		Source:        obs.Source,
		OutOfSequence: decision.OutOfSequence,
		PMasteryAfter: latent,
	}
	seq, _, err := r.events.AppendPracticeEvent(ctx, ev)
	if err != nil {
		return Result{}, fmt.Errorf("log practice event: %w", err)
	}
	metrics.PracticeEvents.WithLabelValues(sourceLabel(obs.Source)).Inc()

	r.logger.Info("practice recorded",
		"event_id", ev.ID,
		"user_id", obs.UserID,
		"skill_id", obs.SkillID,
		"correct", obs.Correct,
		"out_of_sequence", decision.OutOfSequence,
		"p_mastery_latent", latent,
	)

	return Result{
		EventID:        ev.ID,
		Seq:            seq,
		PMasteryLatent: latent,
		Decision:       decision,
	}, nil
}

// RecordAll records observations in order and stops at the first error,
// returning the results recorded so far.
func (r *Recorder) RecordAll(ctx context.Context, batch []Observation, cfg schema.MasteryConfig) ([]Result, error) {
	results := make([]Result, 0, len(batch))
	for i, obs := range batch {
		res, err := r.Record(ctx, obs, cfg)
		if err != nil {
			return results, fmt.Errorf("observation %d: %w", i, err)
		}
		results = append(results, res)
	}
	return results, nil
}

func sourceLabel(source string) string {
	if source == "" {
		return "unspecified"
	}
	return source
}
