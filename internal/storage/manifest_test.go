package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matsen/hardneg/internal/mining"
	"github.com/matsen/hardneg/internal/trainset"
)

func TestNewManifest(t *testing.T) {
	before := time.Now().UTC()
	m := NewManifest()
	after := time.Now().UTC()

	if m.RunID == "" {
		t.Error("NewManifest() produced empty run id")
	}
	if other := NewManifest(); other.RunID == m.RunID {
		t.Error("two manifests share a run id")
	}
	if m.CreatedAt.Before(before) || m.CreatedAt.After(after) {
		t.Errorf("CreatedAt = %v, want between %v and %v", m.CreatedAt, before, after)
	}
}

func TestWriteManifest_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.json")

	m := NewManifest()
	m.Model = "nomic-embed-text"
	m.CorpusHash = "abc123"
	m.Pairs = 120
	m.TrainExamples = 120
	m.EvalExamples = 120
	m.Mining = mining.Config{Threshold: 0.99, SampleSize: 15, Seed: 42, Workers: 4}
	m.Caps = trainset.Caps{MaxNegatives: 30, MaxHardNegatives: 20}
	m.DurationSeconds = 12.5

	if err := WriteManifest(path, m); err != nil {
		t.Fatalf("WriteManifest() error = %v", err)
	}

	got, err := ReadManifest(path)
	if err != nil {
		t.Fatalf("ReadManifest() error = %v", err)
	}
	if got == nil {
		t.Fatal("ReadManifest() = nil for existing manifest")
	}

	if got.RunID != m.RunID {
		t.Errorf("RunID = %q, want %q", got.RunID, m.RunID)
	}
	if !got.CreatedAt.Equal(m.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, m.CreatedAt)
	}
	if got.Model != m.Model || got.CorpusHash != m.CorpusHash {
		t.Errorf("provenance fields = %q/%q, want %q/%q", got.Model, got.CorpusHash, m.Model, m.CorpusHash)
	}
	if got.Pairs != m.Pairs || got.TrainExamples != m.TrainExamples || got.EvalExamples != m.EvalExamples {
		t.Errorf("counts = %d/%d/%d, want %d/%d/%d",
			got.Pairs, got.TrainExamples, got.EvalExamples, m.Pairs, m.TrainExamples, m.EvalExamples)
	}
	if got.Mining != m.Mining {
		t.Errorf("Mining = %+v, want %+v", got.Mining, m.Mining)
	}
	if got.Caps != m.Caps {
		t.Errorf("Caps = %+v, want %+v", got.Caps, m.Caps)
	}
	if got.DurationSeconds != m.DurationSeconds {
		t.Errorf("DurationSeconds = %v, want %v", got.DurationSeconds, m.DurationSeconds)
	}
}

func TestWriteManifest_Overwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.json")

	first := NewManifest()
	first.Pairs = 10
	if err := WriteManifest(path, first); err != nil {
		t.Fatalf("WriteManifest() error = %v", err)
	}

	second := NewManifest()
	second.Pairs = 20
	if err := WriteManifest(path, second); err != nil {
		t.Fatalf("WriteManifest() error = %v", err)
	}

	got, err := ReadManifest(path)
	if err != nil {
		t.Fatalf("ReadManifest() error = %v", err)
	}
	if got.RunID != second.RunID || got.Pairs != 20 {
		t.Errorf("manifest = %+v, want second write", got)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file left behind after write")
	}
}

func TestReadManifest_NotFound(t *testing.T) {
	got, err := ReadManifest(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("ReadManifest() error = %v", err)
	}
	if got != nil {
		t.Errorf("ReadManifest() = %+v for missing file, want nil", got)
	}
}

func TestReadManifest_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := ReadManifest(path)
	if err == nil {
		t.Fatal("ReadManifest() succeeded on malformed JSON")
	}
	if !strings.Contains(err.Error(), "parsing manifest") {
		t.Errorf("error = %v, want parsing context", err)
	}
}
