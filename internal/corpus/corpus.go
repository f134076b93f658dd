// Package corpus defines the query/answer pair collection that training
// sets are built from.
package corpus

import (
	"errors"
	"fmt"
)

// Errors returned by corpus validation.
var (
	ErrEmptyQuery  = errors.New("pair has empty query")
	ErrEmptyAnswer = errors.New("pair has empty answer")
)

// Pair couples a short query with its one ground-truth answer passage.
type Pair struct {
	Query  string `json:"query"`
	Answer string `json:"answer"`

	// Provenance
	Source string `json:"source,omitempty"` // Input file, or augmentation tag for variants
	Origin *int   `json:"origin,omitempty"` // Query id of the pair a variant was derived from
}

// IsVariant reports whether the pair was generated by augmentation.
func (p Pair) IsVariant() bool {
	return p.Origin != nil
}

// Validate checks that both text fields are present.
func (p Pair) Validate() error {
	if p.Query == "" {
		return ErrEmptyQuery
	}
	if p.Answer == "" {
		return ErrEmptyAnswer
	}
	return nil
}

// Corpus is an ordered collection of pairs. The position of a pair is its
// query id: the query at index i has its ground-truth answer at index i.
// Ids are stable for the lifetime of a run; augmentation only appends.
type Corpus struct {
	pairs []Pair
}

// New creates an empty corpus.
func New() *Corpus {
	return &Corpus{}
}

// FromPairs creates a corpus from pairs, validating each one.
// The pair index in the input becomes its query id.
func FromPairs(pairs []Pair) (*Corpus, error) {
	c := New()
	for i, p := range pairs {
		if err := c.Add(p); err != nil {
			return nil, fmt.Errorf("pair %d: %w", i, err)
		}
	}
	return c, nil
}

// Add appends a pair, assigning it the next query id.
func (c *Corpus) Add(p Pair) error {
	if err := p.Validate(); err != nil {
		return err
	}
	c.pairs = append(c.pairs, p)
	return nil
}

// Len returns the number of pairs.
func (c *Corpus) Len() int {
	return len(c.pairs)
}

// Pair returns the pair with query id i.
func (c *Corpus) Pair(i int) Pair {
	return c.pairs[i]
}

// Pairs returns all pairs in id order.
func (c *Corpus) Pairs() []Pair {
	return c.pairs
}

// Queries returns all query texts in id order.
func (c *Corpus) Queries() []string {
	qs := make([]string, len(c.pairs))
	for i, p := range c.pairs {
		qs[i] = p.Query
	}
	return qs
}

// Answers returns all answer texts in id order.
func (c *Corpus) Answers() []string {
	as := make([]string, len(c.pairs))
	for i, p := range c.pairs {
		as[i] = p.Answer
	}
	return as
}

// Transform is a pure query rewrite applied during augmentation.
// Apply must be total and safe to re-apply to already-transformed text.
type Transform struct {
	Tag   string // Recorded as the variant's source, e.g. "augment:strip"
	Apply func(string) string
}

// Augment appends one variant pair per transform whose output is non-empty
// and not already a query in the corpus. Variants keep their source pair's
// answer and are appended after all existing pairs, so established query
// ids never move. Pairs that are themselves variants are not augmented
// again, and existing queries suppress colliding variants, which makes
// repeated augmentation a no-op for unchanged input. Returns the number
// of pairs added.
func (c *Corpus) Augment(transforms []Transform) int {
	n := len(c.pairs)
	seen := make(map[string]bool, n)
	for _, p := range c.pairs {
		seen[p.Query] = true
	}

	added := 0
	for i := 0; i < n; i++ {
		src := c.pairs[i]
		if src.IsVariant() {
			continue
		}
		for _, tr := range transforms {
			variant := tr.Apply(src.Query)
			if variant == "" || seen[variant] {
				continue
			}
			seen[variant] = true
			origin := i
			c.pairs = append(c.pairs, Pair{
				Query:  variant,
				Answer: src.Answer,
				Source: tr.Tag,
				Origin: &origin,
			})
			added++
		}
	}
	return added
}

// Validate checks every pair and the variant linkage: a variant's origin
// must be an earlier, non-variant pair with the same answer.
func (c *Corpus) Validate() error {
	for i, p := range c.pairs {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("pair %d: %w", i, err)
		}
		if !p.IsVariant() {
			continue
		}
		o := *p.Origin
		if o < 0 || o >= i {
			return fmt.Errorf("pair %d: origin %d out of range", i, o)
		}
		if c.pairs[o].IsVariant() {
			return fmt.Errorf("pair %d: origin %d is itself a variant", i, o)
		}
		if c.pairs[o].Answer != p.Answer {
			return fmt.Errorf("pair %d: answer differs from origin %d", i, o)
		}
	}
	return nil
}
