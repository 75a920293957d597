package curriculum

// Status is the derived gating state of a node for one user.
type Status string

const (
	StatusLocked    Status = "locked"
	StatusAvailable Status = "available"
	StatusMastered  Status = "mastered"
)

// IsUnlocked reports whether the node may be practiced in sequence.
func (s Status) IsUnlocked() bool {
	return s == StatusAvailable || s == StatusMastered
}

// PracticeDecision is the advisory result of AttemptPractice.
// Allowed is always true.
type PracticeDecision struct {
	Allowed       bool   `json:"allowed"`
	OutOfSequence bool   `json:"out_of_sequence"`
	Status        Status `json:"status"`
}

// OrganizerEntry is one node in an organizer view.
type OrganizerEntry struct {
	SkillID string `json:"skill_id"`
	Name    string `json:"name"`
	Status  Status `json:"status"`
}
