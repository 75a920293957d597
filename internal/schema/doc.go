// Package schema defines the curriculum vocabulary and the value objects used
// to author curriculum content and configure mastery tracking.
//
// # Vocabulary
//
// Relation, MoveType and Phase are closed enumerations. Membership is a set
// lookup against the known values; each carries a fixed lookup table:
//   - Relation -> Direction (directed or undirected)
//   - Phase -> allowed MoveTypes
//
// # Validation
//
// Every validator returns a ValidationResult and never an error. Checks are
// purely structural (required fields, slug pattern, vocabulary membership,
// numeric ranges, collection sizes) and never touch storage. Errors are
// reported in struct field order so results are stable across runs.
//
// MasteryConfig.Check converts a failed validation into an error wrapping
// ErrInvalidConfig. Engines call it before a config is allowed to drive a
// gating decision; out-of-range values are rejected, never clamped.
package schema
