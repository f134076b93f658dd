// Package main provides the hardneg CLI entry point.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/matsen/hardneg/internal/config"
	"github.com/matsen/hardneg/internal/corpus"
	"github.com/matsen/hardneg/internal/embedding"
	"github.com/matsen/hardneg/internal/storage"
)

// Version is set at build time via ldflags
var Version = "dev"

// humanOutput controls whether to use human-readable output
var humanOutput bool

func main() {
	// Optional .env for provider credentials; absence is not an error.
	godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		// Print the error since we have SilenceErrors: true
		// This ensures Cobra errors (like missing required flags) are visible
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "hardneg",
	Short: "Training-set builder for bi-encoder retrieval models",
	Long: `hardneg prepares fine-tuning data for asymmetric question/answer
retrieval models.

It maintains a corpus of query/answer pairs, scores every query against
the full answer set with an embedding model, and mines hard negatives:
wrong answers the current model ranks at or above the true one. The
emitted JSONL dataset pairs each query with its positives, a capped
list of hard negatives, and a random negative sample.

Data is stored in git-versionable JSONL with ephemeral SQLite for queries.
All commands output JSON by default for pipeline integration.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.Version = Version
}

// mustFindWorkspace finds and validates the workspace, exits on error.
// Returns the workspace root path.
func mustFindWorkspace() string {
	cwd, err := os.Getwd()
	if err != nil {
		os.Exit(outputError(ExitError, "getting current directory: %v", err))
	}

	root, err := config.FindWorkspace(cwd)
	if err != nil {
		exitWithError(ExitConfigError, "%v\n\nRun 'hardneg init' to create one.", err)
	}
	return root
}

// mustLoadConfig loads workspace configuration, exits on error.
func mustLoadConfig(root string) config.Config {
	cfg, err := config.Load(root)
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		exitWithError(ExitConfigError, "invalid config: %v", err)
	}
	return cfg
}

// mustOpenDatabase opens the SQLite cache, exits on error.
// The caller is responsible for calling Close() on the returned DB.
func mustOpenDatabase(root string) *storage.DB {
	if err := os.MkdirAll(config.CachePath(root), 0755); err != nil {
		exitWithError(ExitError, "creating cache directory: %v", err)
	}

	db, err := storage.OpenDB(config.DBPath(root))
	if err != nil {
		exitWithError(ExitError, "opening database: %v", err)
	}
	return db
}

// mustLoadCorpus reads pairs.jsonl and builds the in-memory corpus,
// exits on error. A malformed line aborts the load.
func mustLoadCorpus(root string) *corpus.Corpus {
	pairs, err := storage.ReadPairs(config.PairsPath(root))
	if err != nil {
		exitWithError(ExitDataError, "reading pairs: %v", err)
	}

	c, err := corpus.FromPairs(pairs)
	if err != nil {
		exitWithError(ExitDataError, "loading corpus: %v", err)
	}
	return c
}

// newProvider builds the embedding provider selected by the workspace
// config, with credentials and endpoints resolved against the global
// config and the environment.
func newProvider(cfg config.Config) (embedding.Provider, error) {
	global, err := config.LoadGlobalConfig()
	if err != nil {
		return nil, err
	}

	switch cfg.Oracle.Provider {
	case "", "ollama":
		var opts []embedding.OllamaOption
		if url := global.ResolveOllamaURL(cfg.Oracle.BaseURL); url != "" {
			opts = append(opts, embedding.WithBaseURL(url))
		}
		if cfg.Oracle.Model != "" {
			opts = append(opts, embedding.WithModel(cfg.Oracle.Model))
		}
		if cfg.Oracle.Dimensions > 0 {
			opts = append(opts, embedding.WithDimensions(cfg.Oracle.Dimensions))
		}
		return embedding.NewOllamaProvider(opts...), nil

	case "openai":
		var opts []embedding.OpenAIOption
		if cfg.Oracle.Model != "" {
			opts = append(opts, embedding.WithOpenAIModel(cfg.Oracle.Model))
		}
		if cfg.Oracle.Dimensions > 0 {
			opts = append(opts, embedding.WithOpenAIDimensions(cfg.Oracle.Dimensions))
		}
		if key := global.ResolveOpenAIKey(); key != "" {
			opts = append(opts, embedding.WithOpenAIAPIKey(key))
		}
		return embedding.NewOpenAIProvider(opts...)

	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Oracle.Provider)
	}
}

// mustNewProvider builds the embedding provider, exits on error.
func mustNewProvider(cfg config.Config) embedding.Provider {
	provider, err := newProvider(cfg)
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	return provider
}

// mustValidateOracle checks that a local Ollama provider is running and
// has the configured model. Remote providers are validated on first
// request instead.
func mustValidateOracle(ctx context.Context, provider embedding.Provider) {
	op, ok := provider.(*embedding.OllamaProvider)
	if !ok {
		return
	}

	if err := op.IsAvailable(ctx); err != nil {
		exitWithError(ExitOracleUnavailable, "Ollama is not running\n\nStart Ollama with 'ollama serve' or install from https://ollama.ai")
	}

	hasModel, err := op.HasModel(ctx)
	if err != nil {
		exitWithError(ExitError, "checking model availability: %v", err)
	}
	if !hasModel {
		exitWithError(ExitModelNotFound, "embedding model %q not found\n\nRun 'ollama pull %s' to download it.", op.ModelName(), op.ModelName())
	}
}
