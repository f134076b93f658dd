// Package storage handles data persistence in JSONL and SQLite formats.
package storage

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/matsen/hardneg/internal/corpus"
)

// MaxJSONLLineCapacity is the maximum buffer size for reading JSONL lines (1MB per line).
// This constant is shared across all JSONL file readers.
const MaxJSONLLineCapacity = 1024 * 1024

// ReadPairs reads all pairs from a JSONL file. Every record must carry
// both text fields; a record that does not aborts the whole read.
func ReadPairs(path string) ([]corpus.Pair, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil // Empty file returns empty slice
		}
		return nil, fmt.Errorf("opening pairs file: %w", err)
	}
	defer f.Close()

	var pairs []corpus.Pair
	scanner := bufio.NewScanner(f)

	// Increase buffer size for long lines
	buf := make([]byte, MaxJSONLLineCapacity)
	scanner.Buffer(buf, MaxJSONLLineCapacity)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue // Skip empty lines
		}

		var p corpus.Pair
		if err := json.Unmarshal(line, &p); err != nil {
			return nil, fmt.Errorf("parsing line %d: %w", lineNum, err)
		}
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("parsing line %d: %w", lineNum, err)
		}
		pairs = append(pairs, p)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading pairs file: %w", err)
	}

	return pairs, nil
}

// WritePairs writes all pairs to a JSONL file, replacing existing content.
// The file is swapped in atomically so a failed write never truncates the
// corpus.
func WritePairs(path string, pairs []corpus.Pair) error {
	return writeJSONLAtomic(path, pairs)
}

// ContainsPair reports whether an identical query/answer pair exists.
func ContainsPair(pairs []corpus.Pair, p corpus.Pair) bool {
	for _, existing := range pairs {
		if existing.Query == p.Query && existing.Answer == p.Answer {
			return true
		}
	}
	return false
}

// writeJSONLAtomic writes one JSON document per item to a temp file and
// renames it over the target only after the whole write succeeds.
func writeJSONLAtomic[T any](path string, items []T) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for i, item := range items {
		if err := enc.Encode(item); err != nil {
			return fmt.Errorf("encoding item %d: %w", i, err)
		}
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replacing %s: %w", filepath.Base(path), err)
	}
	return nil
}
