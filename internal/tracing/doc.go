// Package tracing implements Bayesian Knowledge Tracing over the persisted
// mastery records.
//
// Each (user, skill) pair carries a latent probability that the skill is
// known. An observation updates it in three steps:
//
//  1. Posterior: condition the latent value on the observation using the
//     record's guess and slip rates.
//  2. Learning transition: post + (1 - post) * p_learn.
//  3. Clamp to [MinMastery, MaxMastery].
//
// The latent value never decays in storage. EffectiveMastery is the only
// time-aware read: it applies the forgetting curve from package decay to
// the time elapsed since the last practice.
//
// # Concurrency
//
// Tracer holds no mutable state. Per-key serialization comes from the store,
// which performs each update as a single read-modify-write transaction.
package tracing
