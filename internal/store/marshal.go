package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// marshalPrereqs encodes a prerequisite list as a JSON array.
// A nil slice is stored as "[]" so the column never holds "null".
func marshalPrereqs(prereqs []string) (string, error) {
	if prereqs == nil {
		prereqs = []string{}
	}
	b, err := json.Marshal(prereqs)
	if err != nil {
		return "", fmt.Errorf("marshal prereqs: %w", err)
	}
	return string(b), nil
}

func unmarshalPrereqs(s string) ([]string, error) {
	prereqs := []string{}
	if s == "" {
		return prereqs, nil
	}
	if err := json.Unmarshal([]byte(s), &prereqs); err != nil {
		return nil, fmt.Errorf("unmarshal prereqs: %w", err)
	}
	return prereqs, nil
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func nullMillis(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: toMillis(*t), Valid: true}
}

func timePtr(n sql.NullInt64) *time.Time {
	if !n.Valid {
		return nil
	}
	t := fromMillis(n.Int64)
	return &t
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
