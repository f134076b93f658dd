package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matsen/hardneg/internal/storage"
	"github.com/matsen/hardneg/internal/trainset"
)

// Dataset file names written to the output directory.
const (
	TrainFile    = "train.jsonl"
	EvalFile     = "eval.jsonl"
	CorpusFile   = "corpus.jsonl"
	ManifestFile = "manifest.json"
)

var (
	buildOutput     string
	buildMaxNeg     int
	buildMaxHardNeg int
)

func init() {
	rootCmd.AddCommand(buildCmd)
	addMiningFlags(buildCmd)

	buildCmd.Flags().StringVar(&buildOutput, "output", "", "Override the configured output directory")
	buildCmd.Flags().IntVar(&buildMaxNeg, "max-negatives", 0, "Override the configured random negative cap")
	buildCmd.Flags().IntVar(&buildMaxHardNeg, "max-hard-negatives", 0, "Override the configured hard negative cap")
}

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Mine and emit the training dataset",
	Long: `Mine hard negatives and emit the training dataset.

Runs the full pipeline: mines every query, assembles capped per-query
examples, and writes train.jsonl, eval.jsonl, corpus.jsonl, and
manifest.json to the output directory. Mining always runs fresh; stored
records from a previous run are replaced, since the embedding model's
similarity space may have changed.`,
	RunE: runBuild,
}

// BuildResult is the response for the build command.
type BuildResult struct {
	Status          string  `json:"status"`
	RunID           string  `json:"run_id"`
	Model           string  `json:"model"`
	OutputDir       string  `json:"output_dir"`
	Pairs           int     `json:"pairs"`
	TrainExamples   int     `json:"train_examples"`
	EvalExamples    int     `json:"eval_examples"`
	HardNegatives   int     `json:"hard_negatives"`
	EmptyBand       int     `json:"empty_band"`
	Seed            int64   `json:"seed"`
	DurationSeconds float64 `json:"duration_seconds"`
}

func runBuild(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	root := mustFindWorkspace()

	cfg := applyMiningFlags(cmd, mustLoadConfig(root))
	if cmd.Flags().Changed("max-negatives") {
		cfg.Caps.MaxNegatives = buildMaxNeg
	}
	if cmd.Flags().Changed("max-hard-negatives") {
		cfg.Caps.MaxHardNegatives = buildMaxHardNeg
	}
	if cmd.Flags().Changed("output") {
		cfg.OutputDir = buildOutput
	}

	c, records, stats, run := mineCorpus(ctx, root, cfg)

	examples, evals, err := trainset.AssembleAll(records, c.Queries(), cfg.Caps)
	if err != nil {
		exitWithError(ExitError, "assembling examples: %v", err)
	}

	outDir := cfg.DatasetPath(root)
	if err := os.MkdirAll(outDir, 0755); err != nil {
		exitWithError(ExitError, "creating output directory: %v", err)
	}

	if err := storage.WriteTrainingExamples(filepath.Join(outDir, TrainFile), examples); err != nil {
		exitWithError(ExitError, "writing training examples: %v", err)
	}
	if err := storage.WriteEvalExamples(filepath.Join(outDir, EvalFile), evals); err != nil {
		exitWithError(ExitError, "writing eval examples: %v", err)
	}
	if err := storage.WriteCorpusEntries(filepath.Join(outDir, CorpusFile), c.Answers()); err != nil {
		exitWithError(ExitError, "writing corpus entries: %v", err)
	}

	manifest := storage.NewManifest()
	manifest.RunID = run.ID // Same id as the cached run, so inspect and stats line up
	manifest.Model = run.ModelName
	manifest.CorpusHash = run.CorpusHash
	manifest.Pairs = c.Len()
	manifest.TrainExamples = len(examples)
	manifest.EvalExamples = len(evals)
	manifest.Mining = cfg.Mining
	manifest.Mining.Seed = stats.Seed // Effective seed, reproducible even when 0 was configured
	manifest.Caps = cfg.Caps
	manifest.DurationSeconds = stats.Duration.Seconds()

	if err := storage.WriteManifest(filepath.Join(outDir, ManifestFile), manifest); err != nil {
		exitWithError(ExitError, "writing manifest: %v", err)
	}

	result := BuildResult{
		Status:          "built",
		RunID:           run.ID,
		Model:           run.ModelName,
		OutputDir:       outDir,
		Pairs:           c.Len(),
		TrainExamples:   len(examples),
		EvalExamples:    len(evals),
		HardNegatives:   stats.HardNegatives,
		EmptyBand:       stats.EmptyBand,
		Seed:            stats.Seed,
		DurationSeconds: stats.Duration.Seconds(),
	}

	if humanOutput {
		fmt.Printf("Build complete:\n")
		fmt.Printf("  Output: %s\n", result.OutputDir)
		fmt.Printf("  Training examples: %d\n", result.TrainExamples)
		fmt.Printf("  Eval examples: %d\n", result.EvalExamples)
		fmt.Printf("  Hard negatives: %d\n", result.HardNegatives)
		fmt.Printf("  Queries with empty band: %d\n", result.EmptyBand)
		fmt.Printf("  Seed: %d\n", result.Seed)
		fmt.Printf("  Time elapsed: %s\n", formatDuration(stats.Duration))
		fmt.Printf("  Model: %s\n", result.Model)
	} else {
		outputJSON(result)
	}

	return nil
}
