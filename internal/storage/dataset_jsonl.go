package storage

import (
	"github.com/matsen/hardneg/internal/trainset"
)

// CorpusEntry maps an answer id to its text in the emitted dataset. The
// trainer resolves the id lists in training examples against this file.
type CorpusEntry struct {
	ID     int    `json:"id"`
	Answer string `json:"answer"`
}

// WriteTrainingExamples writes train examples to a JSONL file, one per line.
func WriteTrainingExamples(path string, examples []trainset.Example) error {
	return writeJSONLAtomic(path, examples)
}

// WriteEvalExamples writes evaluation examples to a JSONL file, one per line.
func WriteEvalExamples(path string, examples []trainset.EvalExample) error {
	return writeJSONLAtomic(path, examples)
}

// WriteCorpusEntries writes the id-to-answer mapping, one entry per line.
// The line position matches the id, but consumers must use the id field.
func WriteCorpusEntries(path string, answers []string) error {
	entries := make([]CorpusEntry, len(answers))
	for i, a := range answers {
		entries[i] = CorpusEntry{ID: i, Answer: a}
	}
	return writeJSONLAtomic(path, entries)
}
