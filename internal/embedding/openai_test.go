package embedding

import (
	"errors"
	"testing"
)

func TestNewOpenAIProvider_MissingKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	_, err := NewOpenAIProvider()
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("NewOpenAIProvider() error = %v, want ErrMissingAPIKey", err)
	}
}

func TestNewOpenAIProvider_Defaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "test-key")

	provider, err := NewOpenAIProvider()
	if err != nil {
		t.Fatalf("NewOpenAIProvider() error = %v", err)
	}
	if provider.ModelName() != DefaultOpenAIModel {
		t.Errorf("ModelName() = %s, want %s", provider.ModelName(), DefaultOpenAIModel)
	}
	if provider.Dimensions() != DefaultOpenAIDimensions {
		t.Errorf("Dimensions() = %d, want %d", provider.Dimensions(), DefaultOpenAIDimensions)
	}
}

func TestWithOpenAIModel_AdjustsDimensions(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "test-key")

	tests := []struct {
		model    string
		wantDims int
	}{
		{"text-embedding-3-small", 1536},
		{"text-embedding-3-large", 3072},
		{"text-embedding-ada-002", 1536},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			provider, err := NewOpenAIProvider(WithOpenAIModel(tt.model))
			if err != nil {
				t.Fatalf("NewOpenAIProvider() error = %v", err)
			}
			if provider.Dimensions() != tt.wantDims {
				t.Errorf("Dimensions() = %d, want %d", provider.Dimensions(), tt.wantDims)
			}
		})
	}
}

func TestWithOpenAIAPIKey_OverridesEnvironment(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	provider, err := NewOpenAIProvider(WithOpenAIAPIKey("config-key"))
	if err != nil {
		t.Fatalf("NewOpenAIProvider() error = %v", err)
	}
	if provider.apiKey != "config-key" {
		t.Errorf("apiKey = %q, want config-key", provider.apiKey)
	}
}

func TestWithOpenAIDimensions_Overrides(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "test-key")

	provider, err := NewOpenAIProvider(
		WithOpenAIModel("text-embedding-3-small"),
		WithOpenAIDimensions(512),
	)
	if err != nil {
		t.Fatalf("NewOpenAIProvider() error = %v", err)
	}
	if provider.Dimensions() != 512 {
		t.Errorf("Dimensions() = %d, want 512", provider.Dimensions())
	}
}

func TestOpenAIProvider_ImplementsProvider(t *testing.T) {
	// Compile-time check that OpenAIProvider implements Provider interface
	var _ Provider = (*OpenAIProvider)(nil)
}
