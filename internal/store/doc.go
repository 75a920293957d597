// Package store provides SQLite-backed durable storage for mastery tracking
// and the curriculum graph.
//
// Tables:
//   - skill_mastery: one latent-mastery record per (user_id, skill_id)
//   - curriculum_nodes: one node per skill_id with its prerequisite list
//   - practice_events: append-only log of practice observations
//
// Rows are scanned into MasteryRecord, CurriculumNode and PracticeEvent at
// this boundary; raw rows never leave the package.
//
// # Concurrency
//
// The pool holds a single connection and transactions begin IMMEDIATE, so
// every read-modify-write in this package is serialized:
//   - GetOrInitMastery: INSERT ... ON CONFLICT DO NOTHING, then read, in one
//     transaction. Concurrent first access converges on one row.
//   - UpdateMastery: read, apply, write in one transaction. No stale read can
//     interleave with a write for the same key.
//   - UpsertNode: the optional guard sees every existing node inside the same
//     transaction as the write.
//
// Callbacks passed to these methods run while the transaction holds the only
// connection and must not call back into the Store.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON
//
// Timestamps are stored as UTC unix milliseconds.
package store
