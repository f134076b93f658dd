package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/matsen/hardneg/internal/mining"
	"github.com/matsen/hardneg/internal/trainset"
)

// Manifest describes one emitted dataset: what went in, what came out,
// and the parameters that shaped it. It is written next to the dataset
// files so a training run can be traced back to its inputs.
type Manifest struct {
	RunID         string        `json:"run_id"`
	CreatedAt     time.Time     `json:"created_at"`
	Model         string        `json:"model"`
	CorpusHash    string        `json:"corpus_hash"`
	Pairs         int           `json:"pairs"`
	TrainExamples int           `json:"train_examples"`
	EvalExamples  int           `json:"eval_examples"`
	Mining        mining.Config `json:"mining"`
	Caps          trainset.Caps `json:"caps"`

	// DurationSeconds is how long the mining pass took.
	DurationSeconds float64 `json:"duration_seconds"`
}

// NewManifest creates a manifest with a fresh run id and timestamp.
func NewManifest() Manifest {
	return Manifest{
		RunID:     uuid.NewString(),
		CreatedAt: time.Now().UTC(),
	}
}

// WriteManifest writes the manifest as indented JSON, atomically.
func WriteManifest(path string, m Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}
	data = append(data, '\n')

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("writing temp manifest: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replacing manifest: %w", err)
	}
	return nil
}

// ReadManifest loads a manifest, returning nil when none exists.
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading manifest: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	return &m, nil
}
