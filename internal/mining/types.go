// Package mining selects training negatives for query/answer pairs by
// scoring every query against the full answer set.
package mining

import (
	"errors"
	"time"
)

// Errors returned by the builder.
var (
	// ErrNilOracle indicates a builder was created without a scoring oracle.
	ErrNilOracle = errors.New("oracle is nil")

	// ErrEmptyCorpus indicates mining was attempted on a corpus with no pairs.
	ErrEmptyCorpus = errors.New("corpus is empty")

	// ErrInvalidThreshold indicates a non-positive near-duplicate cutoff.
	ErrInvalidThreshold = errors.New("threshold must be positive")

	// ErrNegativeSampleSize indicates a negative random-sample size.
	ErrNegativeSampleSize = errors.New("sample size must not be negative")
)

// Config holds the mining parameters. A Config is immutable once handed
// to a builder.
type Config struct {
	// Threshold is the near-duplicate cutoff: candidates scoring at or
	// above it are treated as paraphrases of the true answer and never
	// selected as hard negatives.
	Threshold float32 `json:"threshold"`

	// SampleSize is the number of random negatives drawn per query.
	SampleSize int `json:"sample_size"`

	// Seed initializes the sampling PRNG. Zero derives a seed from the
	// clock; the effective seed is reported in Stats either way.
	Seed int64 `json:"seed"`

	// Workers is the number of queries mined concurrently. Zero or less
	// uses one worker per CPU.
	Workers int `json:"workers"`
}

// Validate checks the configuration for values that cannot be mined with.
func (c Config) Validate() error {
	if c.Threshold <= 0 {
		return ErrInvalidThreshold
	}
	if c.SampleSize < 0 {
		return ErrNegativeSampleSize
	}
	return nil
}

// Record holds the mining result for one query.
//
// The three index sets are pairwise disjoint and never contain the query's
// own id except in Positives, which is always exactly {QueryID}: self is
// the only guaranteed positive. HardNegatives are the candidates scoring
// in [TippingPoint, threshold), in ascending id order. Negatives are a
// uniform sample of the remaining candidates.
type Record struct {
	QueryID       int     `json:"query_id"`
	TippingPoint  float32 `json:"tipping_point"`
	Positives     []int   `json:"positives"`
	Negatives     []int   `json:"negatives"`
	HardNegatives []int   `json:"hard_negatives"`
}

// Stats contains statistics from a mining run.
type Stats struct {
	Queries       int           `json:"queries"`
	Negatives     int           `json:"negatives"`
	HardNegatives int           `json:"hard_negatives"`
	EmptyBand     int           `json:"empty_band"` // Queries with no hard negatives
	Seed          int64         `json:"seed"`       // Effective PRNG seed
	Workers       int           `json:"workers"`
	Duration      time.Duration `json:"duration"`
}
