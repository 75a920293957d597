package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const masteryColumns = `user_id, skill_id, p_mastery_latent, p_learn, p_guess, p_slip, last_practiced_at`

// GetOrInitMastery returns the record for (seed.UserID, seed.SkillID),
// inserting seed first when no row exists. An existing row is never
// overwritten, so concurrent first access converges on a single row.
func (s *Store) GetOrInitMastery(ctx context.Context, seed MasteryRecord) (MasteryRecord, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return MasteryRecord{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := insertMasteryIfAbsent(ctx, tx, seed); err != nil {
		return MasteryRecord{}, err
	}

	rec, err := readMastery(ctx, tx, seed.UserID, seed.SkillID)
	if err != nil {
		return MasteryRecord{}, err
	}

	if err := tx.Commit(); err != nil {
		return MasteryRecord{}, fmt.Errorf("commit transaction: %w", err)
	}
	return rec, nil
}

// UpdateMastery loads (or seeds) the record for (seed.UserID, seed.SkillID),
// passes it to fn, and writes the returned latent mastery and
// last-practiced time in a single statement. The read and the write share
// one transaction. If fn returns an error nothing is written.
//
// Only PMasteryLatent and LastPracticedAt of fn's result are persisted.
func (s *Store) UpdateMastery(ctx context.Context, seed MasteryRecord, fn func(MasteryRecord) (MasteryRecord, error)) (MasteryRecord, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return MasteryRecord{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := insertMasteryIfAbsent(ctx, tx, seed); err != nil {
		return MasteryRecord{}, err
	}

	current, err := readMastery(ctx, tx, seed.UserID, seed.SkillID)
	if err != nil {
		return MasteryRecord{}, err
	}

	next, err := fn(current)
	if err != nil {
		return MasteryRecord{}, err
	}
	next.UserID = current.UserID
	next.SkillID = current.SkillID

	_, err = tx.ExecContext(ctx, `
		UPDATE skill_mastery
		SET p_mastery_latent = ?, last_practiced_at = ?
		WHERE user_id = ? AND skill_id = ?
	`, next.PMasteryLatent, nullMillis(next.LastPracticedAt), next.UserID, next.SkillID)
	if err != nil {
		return MasteryRecord{}, fmt.Errorf("update mastery: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return MasteryRecord{}, fmt.Errorf("commit transaction: %w", err)
	}

	current.PMasteryLatent = next.PMasteryLatent
	current.LastPracticedAt = timePtr(nullMillis(next.LastPracticedAt))
	return current, nil
}

// ReadMastery returns the stored record or ErrNotFound. It never creates a row.
func (s *Store) ReadMastery(ctx context.Context, userID, skillID string) (MasteryRecord, error) {
	return readMastery(ctx, s.db, userID, skillID)
}

// ListMastery returns every record of userID ordered by skill_id.
func (s *Store) ListMastery(ctx context.Context, userID string) ([]MasteryRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+masteryColumns+`
		FROM skill_mastery
		WHERE user_id = ?
		ORDER BY skill_id ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("query mastery: %w", err)
	}
	defer rows.Close()

	records := []MasteryRecord{}
	for rows.Next() {
		rec, err := scanMastery(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate mastery: %w", err)
	}
	return records, nil
}

func insertMasteryIfAbsent(ctx context.Context, tx *sql.Tx, seed MasteryRecord) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO skill_mastery (`+masteryColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, skill_id) DO NOTHING
	`,
		seed.UserID,
		seed.SkillID,
		seed.PMasteryLatent,
		seed.PLearn,
		seed.PGuess,
		seed.PSlip,
		nullMillis(seed.LastPracticedAt),
	)
	if err != nil {
		return fmt.Errorf("insert mastery: %w", err)
	}
	return nil
}

func readMastery(ctx context.Context, q queryer, userID, skillID string) (MasteryRecord, error) {
	row := q.QueryRowContext(ctx, `
		SELECT `+masteryColumns+`
		FROM skill_mastery
		WHERE user_id = ? AND skill_id = ?
	`, userID, skillID)

	rec, err := scanMastery(row)
	if errors.Is(err, sql.ErrNoRows) {
		return MasteryRecord{}, ErrNotFound
	}
	return rec, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMastery(r rowScanner) (MasteryRecord, error) {
	var rec MasteryRecord
	var last sql.NullInt64
	err := r.Scan(
		&rec.UserID,
		&rec.SkillID,
		&rec.PMasteryLatent,
		&rec.PLearn,
		&rec.PGuess,
		&rec.PSlip,
		&last,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return MasteryRecord{}, err
	}
	if err != nil {
		return MasteryRecord{}, fmt.Errorf("scan mastery: %w", err)
	}
	rec.LastPracticedAt = timePtr(last)
	return rec, nil
}
