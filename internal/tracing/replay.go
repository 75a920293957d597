package tracing

import (
	"math"
	"sort"

	"github.com/roach88/studygate/internal/schema"
	"github.com/roach88/studygate/internal/store"
)

// Key identifies a mastery record.
type Key struct {
	UserID  string
	SkillID string
}

// Mismatch is a logged event whose recorded result differs from the replayed one.
type Mismatch struct {
	Seq      int64   `json:"seq"`
	EventID  string  `json:"event_id"`
	SkillID  string  `json:"skill_id"`
	Recorded float64 `json:"recorded"`
	Replayed float64 `json:"replayed"`
}

// ReplayResult is the outcome of recomputing mastery from the practice log.
type ReplayResult struct {
	Latent     map[Key]float64
	Events     int
	Mismatches []Mismatch
}

// ReplayTolerance bounds float drift accepted between a recorded and a
// replayed latent value.
const ReplayTolerance = 1e-9

// Replay recomputes latent mastery from events in log order, starting each
// key at cfg's prior with cfg's rates. Only Correct feeds the update. The
// result matches stored state as long as every update went through the log
// and the rates have not changed since the records were created.
func Replay(events []store.PracticeEvent, cfg schema.MasteryConfig) (ReplayResult, error) {
	if err := cfg.Check(); err != nil {
		return ReplayResult{}, err
	}

	params := Params{Learn: cfg.PLearn, Guess: cfg.PGuess, Slip: cfg.PSlip}
	res := ReplayResult{Latent: make(map[Key]float64)}

	ordered := make([]store.PracticeEvent, len(events))
	copy(ordered, events)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Seq < ordered[j].Seq })

	for _, ev := range ordered {
		k := Key{UserID: ev.UserID, SkillID: ev.SkillID}
		pL, ok := res.Latent[k]
		if !ok {
			pL = cfg.PriorMastery
		}
		next := Step(pL, ev.Correct, params)
		res.Latent[k] = next
		res.Events++

		if math.Abs(next-ev.PMasteryAfter) > ReplayTolerance {
			res.Mismatches = append(res.Mismatches, Mismatch{
				Seq:      ev.Seq,
				EventID:  ev.ID,
				SkillID:  ev.SkillID,
				Recorded: ev.PMasteryAfter,
				Replayed: next,
			})
		}
	}
	return res, nil
}

// Drift is a stored record whose latent value disagrees with replay.
type Drift struct {
	SkillID  string  `json:"skill_id"`
	Stored   float64 `json:"stored"`
	Replayed float64 `json:"replayed"`
}

// CompareRecords reports records whose latent value differs from the
// replayed one. Records with no logged events are skipped.
func CompareRecords(res ReplayResult, records []store.MasteryRecord) []Drift {
	var drift []Drift
	for _, rec := range records {
		replayed, ok := res.Latent[Key{UserID: rec.UserID, SkillID: rec.SkillID}]
		if !ok {
			continue
		}
		if math.Abs(replayed-rec.PMasteryLatent) > ReplayTolerance {
			drift = append(drift, Drift{
				SkillID:  rec.SkillID,
				Stored:   rec.PMasteryLatent,
				Replayed: replayed,
			})
		}
	}
	return drift
}
