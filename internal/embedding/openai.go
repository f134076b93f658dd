package embedding

import (
	"context"
	"errors"
	"fmt"
	"os"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"
)

const (
	// DefaultOpenAIModel is the default OpenAI embedding model.
	DefaultOpenAIModel = "text-embedding-3-small"

	// DefaultOpenAIDimensions is the output dimensions for text-embedding-3-small.
	DefaultOpenAIDimensions = 1536

	// openAIRateLimit is the request rate (per second) for the embeddings endpoint.
	openAIRateLimit = 5

	// openAIMaxBatch is the maximum inputs sent in one embeddings request.
	openAIMaxBatch = 128
)

// ErrMissingAPIKey is returned when no OpenAI API key is configured.
var ErrMissingAPIKey = errors.New("OpenAI API key not configured (set OPENAI_API_KEY or openai_api_key in the global config)")

// openAIModelDims maps known OpenAI embedding models to their output dimensions.
var openAIModelDims = map[string]int{
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"text-embedding-ada-002": 1536,
}

// OpenAIProvider generates embeddings using the OpenAI API.
type OpenAIProvider struct {
	client  *openai.Client
	apiKey  string
	model   string
	dims    int
	limiter *rate.Limiter
}

// OpenAIOption configures an OpenAIProvider.
type OpenAIOption func(*OpenAIProvider)

// WithOpenAIModel sets the embedding model. Dimensions are adjusted
// automatically for known models.
func WithOpenAIModel(model string) OpenAIOption {
	return func(p *OpenAIProvider) {
		p.model = model
		if d, ok := openAIModelDims[model]; ok {
			p.dims = d
		}
	}
}

// WithOpenAIDimensions sets the expected vector dimensions.
func WithOpenAIDimensions(dims int) OpenAIOption {
	return func(p *OpenAIProvider) {
		p.dims = dims
	}
}

// WithOpenAIAPIKey sets the API key, overriding the environment.
func WithOpenAIAPIKey(key string) OpenAIOption {
	return func(p *OpenAIProvider) {
		p.apiKey = key
	}
}

// NewOpenAIProvider creates an OpenAI embedding provider. The API key
// defaults to the OPENAI_API_KEY environment variable.
func NewOpenAIProvider(opts ...OpenAIOption) (*OpenAIProvider, error) {
	p := &OpenAIProvider{
		apiKey:  os.Getenv("OPENAI_API_KEY"),
		model:   DefaultOpenAIModel,
		dims:    DefaultOpenAIDimensions,
		limiter: rate.NewLimiter(rate.Limit(openAIRateLimit), 1),
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	p.client = openai.NewClient(p.apiKey)
	return p, nil
}

// Embed generates an embedding for the given text.
func (p *OpenAIProvider) Embed(ctx context.Context, text string) (Embedding, error) {
	embs, err := p.EmbedBatch(ctx, []string{text})
	if err != nil {
		return Embedding{}, err
	}
	return embs[0], nil
}

// EmbedBatch generates embeddings for all texts, preserving input order.
// Inputs are sent in chunks, each chunk as a single rate-limited request.
func (p *OpenAIProvider) EmbedBatch(ctx context.Context, texts []string) ([]Embedding, error) {
	out := make([]Embedding, 0, len(texts))

	for start := 0; start < len(texts); start += openAIMaxBatch {
		end := start + openAIMaxBatch
		if end > len(texts) {
			end = len(texts)
		}
		chunk := texts[start:end]

		if err := p.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		resp, err := p.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Model: openai.EmbeddingModel(p.model),
			Input: chunk,
		})
		if err != nil {
			return nil, fmt.Errorf("requesting embeddings: %w", err)
		}
		if len(resp.Data) != len(chunk) {
			return nil, fmt.Errorf("unexpected embedding count: got %d, want %d", len(resp.Data), len(chunk))
		}

		for _, d := range resp.Data {
			if len(d.Embedding) != p.dims {
				return nil, fmt.Errorf("unexpected embedding dimensions: got %d, want %d", len(d.Embedding), p.dims)
			}
			vec := make([]float32, len(d.Embedding))
			copy(vec, d.Embedding)
			out = append(out, Embedding{Vector: vec})
		}
	}

	return out, nil
}

// ModelName returns the name of the embedding model.
func (p *OpenAIProvider) ModelName() string {
	return p.model
}

// Dimensions returns the expected vector dimensions.
func (p *OpenAIProvider) Dimensions() int {
	return p.dims
}
