// Package trainset converts mined records into bounded training and
// evaluation examples.
package trainset

import (
	"fmt"

	"github.com/matsen/hardneg/internal/mining"
)

// Caps bounds the negative lists retained per training example.
type Caps struct {
	// MaxNegatives caps the random negatives kept per example.
	MaxNegatives int `json:"max_negatives"`

	// MaxHardNegatives caps the hard negatives kept per example.
	MaxHardNegatives int `json:"max_hard_negatives"`
}

// Example is one training example: a query with its positive answer ids
// and a bounded negative list.
type Example struct {
	QueryID   int    `json:"qid"`
	Query     string `json:"query"`
	Positives []int  `json:"pos"`
	Negatives []int  `json:"neg"`
}

// EvalExample pairs a query with its known-good answer ids only.
type EvalExample struct {
	QueryID   int    `json:"qid"`
	Query     string `json:"query"`
	Positives []int  `json:"pos"`
}

// Assemble converts one mined record into a training example and, when
// the record has positives, an evaluation example. The negative list is
// the record's random negatives followed by its hard negatives, each
// truncated to its own cap before concatenation. Pure function: no state,
// same inputs give same outputs, and the returned slices never alias the
// record's.
func Assemble(rec mining.Record, query string, caps Caps) (Example, *EvalExample) {
	neg := truncate(rec.Negatives, caps.MaxNegatives)
	neg = append(neg, truncate(rec.HardNegatives, caps.MaxHardNegatives)...)

	ex := Example{
		QueryID:   rec.QueryID,
		Query:     query,
		Positives: truncate(rec.Positives, len(rec.Positives)),
		Negatives: neg,
	}

	if len(rec.Positives) == 0 {
		return ex, nil
	}
	return ex, &EvalExample{
		QueryID:   rec.QueryID,
		Query:     query,
		Positives: truncate(rec.Positives, len(rec.Positives)),
	}
}

// AssembleAll converts every record, preserving record order. Evaluation
// examples are collected only for records that produce one.
func AssembleAll(records []mining.Record, queries []string, caps Caps) ([]Example, []EvalExample, error) {
	examples := make([]Example, 0, len(records))
	evals := make([]EvalExample, 0, len(records))

	for _, rec := range records {
		if rec.QueryID < 0 || rec.QueryID >= len(queries) {
			return nil, nil, fmt.Errorf("record query id %d out of range [0, %d)", rec.QueryID, len(queries))
		}
		ex, eval := Assemble(rec, queries[rec.QueryID], caps)
		examples = append(examples, ex)
		if eval != nil {
			evals = append(evals, *eval)
		}
	}

	return examples, evals, nil
}

// truncate copies at most n leading elements. Negative caps keep nothing.
func truncate(ids []int, n int) []int {
	if n < 0 {
		n = 0
	}
	if n > len(ids) {
		n = len(ids)
	}
	out := make([]int, n)
	copy(out, ids[:n])
	return out
}
