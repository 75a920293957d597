// Package decay implements the forgetting curve that turns latent mastery
// into effective mastery.
//
// The curve is exponential in elapsed hours:
//
//	effective = latent * e^(-lambda * hours)
//
// It is a pure calculation. Callers combine it with a record lookup and the
// time since last practice; nothing here reads or writes stored state.
package decay

import (
	"math"
	"time"

	"github.com/roach88/studygate/internal/schema"
)

// EffectiveMastery applies the forgetting curve to pLatent after elapsed time.
// A non-positive elapsed duration returns pLatent exactly.
func EffectiveMastery(pLatent float64, elapsed time.Duration, cfg schema.MasteryConfig) float64 {
	return EffectiveMasterySeconds(pLatent, elapsed.Seconds(), cfg)
}

// EffectiveMasterySeconds is EffectiveMastery with elapsed time in seconds.
func EffectiveMasterySeconds(pLatent, deltaSeconds float64, cfg schema.MasteryConfig) float64 {
	if deltaSeconds <= 0 {
		return pLatent
	}
	hours := deltaSeconds / 3600
	return pLatent * math.Exp(-cfg.DecayLambda*hours)
}
