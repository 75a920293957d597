package tracing

// Clamp bounds. Latent mastery is never allowed to reach certainty in
// either direction, so later evidence can always move it.
const (
	MinMastery = 0.001
	MaxMastery = 0.999
)

// Params are the per-record BKT rates.
type Params struct {
	Learn float64
	Guess float64
	Slip  float64
}

// Posterior returns P(known | observation) given the prior pL.
//
//	correct:   pL(1-slip) / (pL(1-slip) + (1-pL)guess)
//	incorrect: pL*slip    / (pL*slip    + (1-pL)(1-guess))
//
// When the denominator is exactly zero the prior is returned unchanged and
// ok is false.
func Posterior(pL float64, correct bool, guess, slip float64) (post float64, ok bool) {
	var known, unknown float64
	if correct {
		known = pL * (1 - slip)
		unknown = (1 - pL) * guess
	} else {
		known = pL * slip
		unknown = (1 - pL) * (1 - guess)
	}
	denom := known + unknown
	if denom == 0 {
		return pL, false
	}
	return known / denom, true
}

// Learn applies the learning transition to a posterior.
func Learn(post, pLearn float64) float64 {
	return post + (1-post)*pLearn
}

// Clamp bounds p to [MinMastery, MaxMastery].
func Clamp(p float64) float64 {
	switch {
	case p < MinMastery:
		return MinMastery
	case p > MaxMastery:
		return MaxMastery
	default:
		return p
	}
}

// Step runs one full BKT update: posterior, learning transition, clamp.
func Step(pL float64, correct bool, p Params) float64 {
	post, _ := Posterior(pL, correct, p.Guess, p.Slip)
	return Clamp(Learn(post, p.Learn))
}
