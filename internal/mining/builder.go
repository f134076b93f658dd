package mining

import (
	"context"
	"fmt"
	"math/rand/v2"
	"runtime"
	"sync"
	"time"

	"github.com/matsen/hardneg/internal/corpus"
	"github.com/matsen/hardneg/internal/similarity"
)

// ProgressReporter receives progress updates during mining.
type ProgressReporter interface {
	// OnProgress is called with the current progress.
	OnProgress(current, total int)
}

// ProgressFunc is a function adapter for ProgressReporter.
type ProgressFunc func(current, total int)

// OnProgress implements ProgressReporter.
func (f ProgressFunc) OnProgress(current, total int) {
	f(current, total)
}

// Builder mines one Record per corpus query.
type Builder struct {
	oracle   similarity.Oracle
	cfg      Config
	progress ProgressReporter
}

// NewBuilder creates a mining builder with the given oracle and config.
func NewBuilder(oracle similarity.Oracle, cfg Config) (*Builder, error) {
	if oracle == nil {
		return nil, ErrNilOracle
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Builder{oracle: oracle, cfg: cfg}, nil
}

// SetProgressReporter sets the progress reporter for the builder.
func (b *Builder) SetProgressReporter(reporter ProgressReporter) {
	b.progress = reporter
}

// Build mines every query in the corpus and returns one Record per query,
// in query id order. Queries are sharded across workers; each worker owns
// disjoint record slots, and each query draws from its own PRNG stream
// derived from the run seed, so output is identical for any worker count.
//
// An oracle failure aborts the whole run: no partial record set is
// returned.
func (b *Builder) Build(ctx context.Context, c *corpus.Corpus) ([]Record, *Stats, error) {
	startTime := time.Now()

	n := c.Len()
	if n == 0 {
		return nil, nil, ErrEmptyCorpus
	}

	queries := c.Queries()
	answers := c.Answers()

	seed := b.cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	workers := b.cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > n {
		workers = n
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	records := make([]Record, n)
	jobs := make(chan int)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		firstErr  error
		completed int
	)

	fail := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
		cancel()
	}

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				rec, err := b.mineQuery(ctx, i, queries, answers, seed)
				if err != nil {
					fail(fmt.Errorf("mining query %d: %w", i, err))
					return
				}
				records[i] = rec

				mu.Lock()
				completed++
				if b.progress != nil {
					b.progress.OnProgress(completed, n)
				}
				mu.Unlock()
			}
		}()
	}

feed:
	for i := 0; i < n; i++ {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return nil, nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	stats := &Stats{
		Queries: n,
		Seed:    seed,
		Workers: workers,
	}
	for _, rec := range records {
		stats.Negatives += len(rec.Negatives)
		stats.HardNegatives += len(rec.HardNegatives)
		if len(rec.HardNegatives) == 0 {
			stats.EmptyBand++
		}
	}
	stats.Duration = time.Since(startTime)

	return records, stats, nil
}

// mineQuery scores query i against all answers and classifies every other
// answer id. The tipping point is the score of the query's own answer:
// candidates at or above it but below the threshold are hard negatives,
// and random negatives are drawn from everything left over.
func (b *Builder) mineQuery(ctx context.Context, i int, queries, answers []string, seed int64) (Record, error) {
	select {
	case <-ctx.Done():
		return Record{}, ctx.Err()
	default:
	}

	row, err := b.oracle.Similarity(ctx, queries[i], answers)
	if err != nil {
		return Record{}, err
	}
	if len(row) != len(answers) {
		return Record{}, fmt.Errorf("oracle returned %d scores, want %d", len(row), len(answers))
	}

	tippingPoint := row[i]

	hard := []int{}
	for j, score := range row {
		if j == i {
			continue
		}
		if score >= tippingPoint && score < b.cfg.Threshold {
			hard = append(hard, j)
		}
	}

	// Everything outside the query's own id and the hard-negative band
	// is a candidate for random sampling. hard is in ascending id order,
	// so one pass with a cursor separates the two.
	candidates := make([]int, 0, len(row)-1-len(hard))
	k := 0
	for j := range row {
		if j == i {
			continue
		}
		if k < len(hard) && hard[k] == j {
			k++
			continue
		}
		candidates = append(candidates, j)
	}

	rng := rand.New(rand.NewPCG(uint64(seed), uint64(i)))
	negatives := sampleWithoutReplacement(rng, candidates, b.cfg.SampleSize)

	return Record{
		QueryID:       i,
		TippingPoint:  tippingPoint,
		Positives:     []int{i},
		Negatives:     negatives,
		HardNegatives: hard,
	}, nil
}

// sampleWithoutReplacement draws k elements uniformly from candidates.
// When fewer than k candidates exist, all of them are returned in random
// order.
func sampleWithoutReplacement(rng *rand.Rand, candidates []int, k int) []int {
	if k > len(candidates) {
		k = len(candidates)
	}
	out := make([]int, 0, k)
	if k <= 0 {
		return out
	}
	perm := rng.Perm(len(candidates))
	for _, p := range perm[:k] {
		out = append(out, candidates[p])
	}
	return out
}
