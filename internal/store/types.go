package store

import (
	"errors"
	"time"
)

// ErrNotFound is returned by point reads when no row matches.
var ErrNotFound = errors.New("store: not found")

// MasteryRecord is the persisted latent mastery for one (user, skill) pair.
// LastPracticedAt is nil only for rows written by an external tool; rows
// created through this package always carry a timestamp.
type MasteryRecord struct {
	UserID          string
	SkillID         string
	PMasteryLatent  float64
	PLearn          float64
	PGuess          float64
	PSlip           float64
	LastPracticedAt *time.Time
}

// CurriculumNode is a skill in the prerequisite graph.
type CurriculumNode struct {
	SkillID string
	Name    string
	Prereqs []string
}

// PracticeEvent is one entry of the append-only practice log.
type PracticeEvent struct {
	Seq           int64
	ID            string
	UserID        string
	SkillID       string
	Correct       bool
	OccurredAt    time.Time
	Confidence    *float64
	LatencyMS     *int64
	HintLevel     int
	Source        string
	OutOfSequence bool
	PMasteryAfter float64
}
