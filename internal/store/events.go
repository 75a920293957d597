package store

import (
	"context"
	"database/sql"
	"fmt"
)

const eventColumns = `seq, id, user_id, skill_id, correct, occurred_at, confidence,
	latency_ms, hint_level, source, out_of_sequence, p_mastery_after`

// AppendPracticeEvent appends ev to the practice log and returns its seq.
//
// Idempotent by event ID: appending an ID that already exists leaves the log
// unchanged and returns the existing seq with inserted=false.
func (s *Store) AppendPracticeEvent(ctx context.Context, ev PracticeEvent) (seq int64, inserted bool, err error) {
	if ev.ID == "" {
		return 0, false, fmt.Errorf("append practice event: empty id")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, false, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	confidence := sql.NullFloat64{}
	if ev.Confidence != nil {
		confidence = sql.NullFloat64{Float64: *ev.Confidence, Valid: true}
	}
	latency := sql.NullInt64{}
	if ev.LatencyMS != nil {
		latency = sql.NullInt64{Int64: *ev.LatencyMS, Valid: true}
	}

	result, err := tx.ExecContext(ctx, `
		INSERT INTO practice_events (
			id, user_id, skill_id, correct, occurred_at, confidence,
			latency_ms, hint_level, source, out_of_sequence, p_mastery_after
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		ev.ID,
		ev.UserID,
		ev.SkillID,
		boolToInt(ev.Correct),
		toMillis(ev.OccurredAt),
		confidence,
		latency,
		ev.HintLevel,
		ev.Source,
		boolToInt(ev.OutOfSequence),
		ev.PMasteryAfter,
	)
	if err != nil {
		return 0, false, fmt.Errorf("insert practice event: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, false, fmt.Errorf("rows affected: %w", err)
	}

	if err := tx.QueryRowContext(ctx,
		`SELECT seq FROM practice_events WHERE id = ?`, ev.ID,
	).Scan(&seq); err != nil {
		return 0, false, fmt.Errorf("read practice event seq: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, false, fmt.Errorf("commit transaction: %w", err)
	}
	return seq, rows > 0, nil
}

// ReadPracticeEvents returns userID's practice log in append order.
// An empty userID returns the log of every user.
func (s *Store) ReadPracticeEvents(ctx context.Context, userID string) ([]PracticeEvent, error) {
	query := `SELECT ` + eventColumns + ` FROM practice_events`
	var args []any
	if userID != "" {
		query += ` WHERE user_id = ?`
		args = append(args, userID)
	}
	query += ` ORDER BY seq ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query practice events: %w", err)
	}
	defer rows.Close()

	events := []PracticeEvent{}
	for rows.Next() {
		var ev PracticeEvent
		var correct, outOfSequence int
		var occurredAt int64
		var confidence sql.NullFloat64
		var latency sql.NullInt64
		if err := rows.Scan(
			&ev.Seq,
			&ev.ID,
			&ev.UserID,
			&ev.SkillID,
			&correct,
			&occurredAt,
			&confidence,
			&latency,
			&ev.HintLevel,
			&ev.Source,
			&outOfSequence,
			&ev.PMasteryAfter,
		); err != nil {
			return nil, fmt.Errorf("scan practice event: %w", err)
		}
		ev.Correct = correct == 1
		ev.OutOfSequence = outOfSequence == 1
		ev.OccurredAt = fromMillis(occurredAt)
		if confidence.Valid {
			v := confidence.Float64
			ev.Confidence = &v
		}
		if latency.Valid {
			v := latency.Int64
			ev.LatencyMS = &v
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate practice events: %w", err)
	}
	return events, nil
}
