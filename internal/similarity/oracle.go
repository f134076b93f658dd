package similarity

import (
	"context"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/matsen/hardneg/internal/embedding"
)

// DefaultCacheSize is the number of candidate vectors kept in memory.
// Sized to hold an augmented corpus of a few thousand pairs without
// eviction during a mining run.
const DefaultCacheSize = 16384

// Oracle scores candidate answers against a query.
type Oracle interface {
	// Similarity returns one score per candidate, in candidate order.
	Similarity(ctx context.Context, query string, candidates []string) ([]float32, error)

	// Name identifies the scoring model, for manifests and cache keys.
	Name() string
}

// EmbeddingOracle scores candidates by cosine similarity of embeddings.
// Candidate vectors are cached, so scoring many queries against the same
// answer set embeds each answer once.
type EmbeddingOracle struct {
	provider  embedding.Provider
	cacheSize int

	mu    sync.Mutex
	cache *lru.Cache[string, []float32]
}

// OracleOption configures an EmbeddingOracle.
type OracleOption func(*EmbeddingOracle)

// WithCacheSize sets the candidate vector cache capacity.
func WithCacheSize(n int) OracleOption {
	return func(o *EmbeddingOracle) {
		if n > 0 {
			o.cacheSize = n
		}
	}
}

// NewEmbeddingOracle creates an oracle backed by the given embedding provider.
func NewEmbeddingOracle(provider embedding.Provider, opts ...OracleOption) (*EmbeddingOracle, error) {
	o := &EmbeddingOracle{
		provider:  provider,
		cacheSize: DefaultCacheSize,
	}
	for _, opt := range opts {
		opt(o)
	}

	cache, err := lru.New[string, []float32](o.cacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating candidate cache: %w", err)
	}
	o.cache = cache
	return o, nil
}

// Similarity embeds the query and returns its cosine similarity against
// every candidate, in candidate order.
func (o *EmbeddingOracle) Similarity(ctx context.Context, query string, candidates []string) ([]float32, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	queryEmb, err := o.provider.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	vecs, err := o.candidateVectors(ctx, candidates)
	if err != nil {
		return nil, err
	}

	scores := make([]float32, len(candidates))
	for j, v := range vecs {
		scores[j] = CosineSimilarity(queryEmb.Vector, v)
	}
	return scores, nil
}

// Name returns the scoring model's name.
func (o *EmbeddingOracle) Name() string {
	return o.provider.ModelName()
}

// candidateVectors returns embeddings for all candidates, generating only
// the ones not already cached. Duplicate candidate texts are embedded once.
// The fill is serialized so concurrent callers never embed the same
// candidate twice.
func (o *EmbeddingOracle) candidateVectors(ctx context.Context, candidates []string) ([][]float32, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	vecs := make([][]float32, len(candidates))
	missingPos := make(map[string][]int)
	var missing []string
	for j, c := range candidates {
		if v, ok := o.cache.Get(c); ok {
			vecs[j] = v
			continue
		}
		if _, seen := missingPos[c]; !seen {
			missing = append(missing, c)
		}
		missingPos[c] = append(missingPos[c], j)
	}
	if len(missing) == 0 {
		return vecs, nil
	}

	embs, err := o.provider.EmbedBatch(ctx, missing)
	if err != nil {
		return nil, fmt.Errorf("embedding candidates: %w", err)
	}
	for k, emb := range embs {
		for _, j := range missingPos[missing[k]] {
			vecs[j] = emb.Vector
		}
		o.cache.Add(missing[k], emb.Vector)
	}
	return vecs, nil
}
