// Package harness runs conformance scenarios against the mastery engines.
//
// A scenario seeds a curriculum, drives practice attempts and clock
// movement through the real tracer, gate and recorder, and asserts on the
// derived state.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: chain_unlock
//	description: "Mastering a prerequisite unlocks its dependent"
//	start: 2026-01-05T09:00:00Z      # optional clock start
//	config:                          # optional, overlays the defaults
//	  unlock_threshold: 0.95
//	nodes:
//	  - id: fractions
//	    name: Fractions
//	  - id: ratios
//	    name: Ratios
//	    prereqs: [fractions]
//	steps:
//	  - practice: { user: alice, skill: fractions, correct: true, repeat: 6 }
//	  - advance: 48h
//	  - upsert:
//	      node: { id: fractions, name: Fractions, prereqs: [ratios] }
//	      expect_error: prerequisite cycle
//	  - expect:
//	      - { type: status, user: alice, skill: ratios, status: available }
//	assertions:
//	  - { type: organizer, user: alice, skills: [fractions, ratios] }
//	  - { type: mastery, user: alice, skill: fractions, latent: true, min: 0.95 }
//	  - { type: out_of_sequence, user: alice, count: 0 }
//
// # Assertion Types
//
//   - status: the gating status of one node
//   - organizer: the exact, ordered skill ids of an organizer view
//   - mastery: effective (or latent) mastery within inclusive bounds
//   - out_of_sequence: the number of logged attempts flagged out of sequence
//
// # Deterministic Testing
//
// Each scenario runs with:
//   - In-memory SQLite database (isolated per run)
//   - testutil.ManualClock, moved only by advance steps
//   - testutil.SequentialIDs for practice event ids
//
// Snapshots contain only strings, booleans and integers, with
// probabilities rendered to four decimals, so golden files compare
// byte for byte.
package harness
