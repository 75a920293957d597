package harness

import (
	"strconv"
	"time"
)

// TraceEvent records one executed step. A repeated practice step produces
// one event per attempt.
type TraceEvent struct {
	Step int    `json:"step"`
	Type string `json:"type"`
	At   string `json:"at"`

	UserID  string `json:"user_id,omitempty"`
	SkillID string `json:"skill_id,omitempty"`
	Outcome string `json:"outcome,omitempty"`
	EventID string `json:"event_id,omitempty"`

	// Status is the gating status seen when the attempt was made.
	Status        string `json:"status,omitempty"`
	OutOfSequence bool   `json:"out_of_sequence,omitempty"`
	Latent        string `json:"p_mastery_latent,omitempty"`

	// Rejected holds the rejection message of an upsert step.
	Rejected string `json:"rejected,omitempty"`
}

// NodeState is the final gating state of one node for one user.
type NodeState struct {
	SkillID   string `json:"skill_id"`
	Status    string `json:"status"`
	Effective string `json:"p_mastery_effective"`
}

// UserState is the final state of every node for one user.
type UserState struct {
	UserID string      `json:"user_id"`
	Nodes  []NodeState `json:"nodes"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if every inline and final assertion held.
	Pass bool `json:"pass"`

	// Trace contains every executed step in order.
	Trace []TraceEvent `json:"trace"`

	// Final holds the state after the last step for every user that
	// practiced, ordered by user id.
	Final []UserState `json:"final"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Final:  []UserState{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// formatProbability renders p with four decimals so snapshots stay stable
// across platforms.
func formatProbability(p float64) string {
	return strconv.FormatFloat(p, 'f', 4, 64)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
