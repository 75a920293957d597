package schema

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidConfig is wrapped by MasteryConfig.Check when validation fails.
var ErrInvalidConfig = errors.New("studygate: invalid mastery config")

// MasteryConfig parameterizes knowledge tracing, forgetting and gating.
//
// It is an immutable value: engines receive it on every call and never keep
// a global copy. Zero is a legal value for every field, so there is no
// zero-means-default behavior; use DefaultMasteryConfig as a starting point.
type MasteryConfig struct {
	UnlockThreshold   float64 `json:"unlock_threshold" yaml:"unlock_threshold" env:"UNLOCK_THRESHOLD" validate:"gte=0,lte=1"`
	MasteredThreshold float64 `json:"mastered_threshold" yaml:"mastered_threshold" env:"MASTERED_THRESHOLD" validate:"gte=0,lte=1"`
	PriorMastery      float64 `json:"prior_mastery" yaml:"prior_mastery" env:"PRIOR_MASTERY" validate:"gte=0,lte=1"`
	PLearn            float64 `json:"p_learn" yaml:"p_learn" env:"P_LEARN" validate:"gte=0,lte=1"`
	PGuess            float64 `json:"p_guess" yaml:"p_guess" env:"P_GUESS" validate:"gte=0,lte=1"`
	PSlip             float64 `json:"p_slip" yaml:"p_slip" env:"P_SLIP" validate:"gte=0,lte=1"`
	// DecayLambda is the forgetting rate per hour.
	DecayLambda float64 `json:"decay_lambda" yaml:"decay_lambda" env:"DECAY_LAMBDA" validate:"gte=0,finite"`
}

// DefaultMasteryConfig returns the stock tracing and gating parameters.
func DefaultMasteryConfig() MasteryConfig {
	return MasteryConfig{
		UnlockThreshold:   0.95,
		MasteredThreshold: 0.98,
		PriorMastery:      0.1,
		PLearn:            0.2,
		PGuess:            0.2,
		PSlip:             0.1,
		DecayLambda:       0.005,
	}
}

// Check returns nil if c is valid, or an error wrapping ErrInvalidConfig that
// lists every violation.
func (c MasteryConfig) Check() error {
	res := ValidateMasteryConfig(c)
	if res.Valid {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(res.Errors, "; "))
}
