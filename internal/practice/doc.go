// Package practice turns practice observations into mastery updates and
// practice-log entries.
//
// Recording an observation runs, in order: the advisory gate check, the BKT
// update (only the correctness bit feeds it), and an append to the practice
// log carrying the resulting latent mastery. Confidence, latency, hint level
// and source are kept for analysis and never influence tracing.
package practice
