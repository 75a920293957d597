package practice

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Batch is the YAML file format accepted by LoadBatch:
//
//	observations:
//	  - user_id: u1
//	    skill_id: fractions
//	    correct: true
//	    confidence: 0.8
type Batch struct {
	Observations []Observation `yaml:"observations"`
}

// LoadBatch reads a batch file. Unknown fields are rejected, and every
// observation is validated before any is returned.
func LoadBatch(path string) ([]Observation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch file: %w", err)
	}
	return ParseBatch(data)
}

// ParseBatch decodes and validates a batch document.
func ParseBatch(data []byte) ([]Observation, error) {
	var batch Batch
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&batch); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("invalid batch: observations list is required and must be non-empty")
		}
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if len(batch.Observations) == 0 {
		return nil, fmt.Errorf("invalid batch: observations list is required and must be non-empty")
	}
	for i, obs := range batch.Observations {
		if err := obs.Validate(); err != nil {
			return nil, fmt.Errorf("invalid batch: observations[%d]: %w", i, err)
		}
	}
	return batch.Observations, nil
}
