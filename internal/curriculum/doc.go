// Package curriculum decides which skills a learner may work on.
//
// The curriculum is a directed graph: each node lists the skills it
// requires. A node's status for a user is derived on every read from
// effective mastery, never stored:
//
//   - unknown node: locked
//   - own effective mastery >= mastered threshold: mastered
//   - no prerequisites: available
//   - every prerequisite at or above the unlock threshold: available
//   - otherwise: locked
//
// Gating is advisory. AttemptPractice always allows practice and only
// flags attempts on locked nodes as out of sequence.
//
// The prerequisite graph is kept acyclic: UpsertNode refuses a write that
// would close a cycle.
package curriculum
