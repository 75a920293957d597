package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// UpsertNode inserts or replaces the curriculum node keyed by node.SkillID.
//
// When guard is non-nil it is called with every currently stored node
// inside the write transaction; a non-nil result aborts the upsert and is
// returned unwrapped.
func (s *Store) UpsertNode(ctx context.Context, node CurriculumNode, guard func(existing []CurriculumNode) error) error {
	prereqs, err := marshalPrereqs(node.Prereqs)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if guard != nil {
		existing, err := listNodes(ctx, tx)
		if err != nil {
			return err
		}
		if err := guard(existing); err != nil {
			return err
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO curriculum_nodes (skill_id, name, prereqs)
		VALUES (?, ?, ?)
		ON CONFLICT(skill_id) DO UPDATE SET
			name = excluded.name,
			prereqs = excluded.prereqs
	`, node.SkillID, node.Name, prereqs)
	if err != nil {
		return fmt.Errorf("upsert node: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// ReadNode returns the node or ErrNotFound.
func (s *Store) ReadNode(ctx context.Context, skillID string) (CurriculumNode, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT skill_id, name, prereqs
		FROM curriculum_nodes
		WHERE skill_id = ?
	`, skillID)

	node, err := scanNode(row)
	if errors.Is(err, sql.ErrNoRows) {
		return CurriculumNode{}, ErrNotFound
	}
	return node, err
}

// ListNodes returns all nodes ordered by skill_id.
func (s *Store) ListNodes(ctx context.Context) ([]CurriculumNode, error) {
	return listNodes(ctx, s.db)
}

func listNodes(ctx context.Context, q queryer) ([]CurriculumNode, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT skill_id, name, prereqs
		FROM curriculum_nodes
		ORDER BY skill_id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query nodes: %w", err)
	}
	defer rows.Close()

	nodes := []CurriculumNode{}
	for rows.Next() {
		node, err := scanNode(rows)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate nodes: %w", err)
	}
	return nodes, nil
}

func scanNode(r rowScanner) (CurriculumNode, error) {
	var node CurriculumNode
	var prereqs string
	err := r.Scan(&node.SkillID, &node.Name, &prereqs)
	if errors.Is(err, sql.ErrNoRows) {
		return CurriculumNode{}, err
	}
	if err != nil {
		return CurriculumNode{}, fmt.Errorf("scan node: %w", err)
	}
	node.Prereqs, err = unmarshalPrereqs(prereqs)
	if err != nil {
		return CurriculumNode{}, fmt.Errorf("node %s: %w", node.SkillID, err)
	}
	return node, nil
}
