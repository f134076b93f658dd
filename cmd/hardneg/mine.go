package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/matsen/hardneg/internal/config"
	"github.com/matsen/hardneg/internal/corpus"
	"github.com/matsen/hardneg/internal/mining"
	"github.com/matsen/hardneg/internal/similarity"
	"github.com/matsen/hardneg/internal/storage"
)

var (
	mineThreshold  float32
	mineSampleSize int
	mineSeed       int64
	mineWorkers    int
	mineNoProgress bool
)

func init() {
	rootCmd.AddCommand(mineCmd)
	addMiningFlags(mineCmd)
}

// addMiningFlags registers the mining overrides shared by mine and build.
func addMiningFlags(cmd *cobra.Command) {
	cmd.Flags().Float32Var(&mineThreshold, "threshold", 0, "Override the configured near-duplicate cutoff")
	cmd.Flags().IntVar(&mineSampleSize, "sample-size", 0, "Override the configured random negatives per query")
	cmd.Flags().Int64Var(&mineSeed, "seed", 0, "Override the configured sampling seed (0 derives one)")
	cmd.Flags().IntVar(&mineWorkers, "workers", 0, "Override the configured worker count (0 uses all CPUs)")
	cmd.Flags().BoolVar(&mineNoProgress, "no-progress", false, "Suppress progress output")
}

// applyMiningFlags returns a copy of the config with explicitly set
// flags applied. Unset flags leave the configured values alone.
func applyMiningFlags(cmd *cobra.Command, cfg config.Config) config.Config {
	if cmd.Flags().Changed("threshold") {
		cfg.Mining.Threshold = mineThreshold
	}
	if cmd.Flags().Changed("sample-size") {
		cfg.Mining.SampleSize = mineSampleSize
	}
	if cmd.Flags().Changed("seed") {
		cfg.Mining.Seed = mineSeed
	}
	if cmd.Flags().Changed("workers") {
		cfg.Mining.Workers = mineWorkers
	}
	return cfg
}

var mineCmd = &cobra.Command{
	Use:   "mine",
	Short: "Mine hard negatives for every query",
	Long: `Mine hard negatives for every query in the corpus.

Scores each query against all answers with the configured embedding
model. Answers ranked at or above the query's own answer, but below the
near-duplicate cutoff, become hard negatives; a random sample of the
remaining answers becomes plain negatives. Results are persisted to the
cache for inspect, stats, and build.

Requires the embedding provider to be reachable. Any scoring failure
aborts the run with nothing saved.`,
	RunE: runMine,
}

// MineResult is the response for the mine command.
type MineResult struct {
	Status          string  `json:"status"`
	RunID           string  `json:"run_id"`
	Model           string  `json:"model"`
	Queries         int     `json:"queries"`
	HardNegatives   int     `json:"hard_negatives"`
	Negatives       int     `json:"negatives"`
	EmptyBand       int     `json:"empty_band"`
	Seed            int64   `json:"seed"`
	Workers         int     `json:"workers"`
	DurationSeconds float64 `json:"duration_seconds"`
}

// mineCorpus runs the miner over the whole corpus and persists records
// and run metadata to the cache. Exits on any failure; a single oracle
// error aborts the run with nothing saved.
func mineCorpus(ctx context.Context, root string, cfg config.Config) (*corpus.Corpus, []mining.Record, *mining.Stats, storage.MiningRun) {
	c := mustLoadCorpus(root)
	if c.Len() == 0 {
		exitWithError(ExitDataError, "corpus is empty\n\nAdd pairs with 'hardneg corpus add' first.")
	}

	provider := mustNewProvider(cfg)
	mustValidateOracle(ctx, provider)

	oracle, err := similarity.NewEmbeddingOracle(provider)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}

	builder, err := mining.NewBuilder(oracle, cfg.Mining)
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}

	showProgress := humanOutput && !mineNoProgress
	if showProgress {
		builder.SetProgressReporter(mining.ProgressFunc(printProgress))
		fmt.Fprintf(os.Stderr, "Mining hard negatives...\n")
	}

	records, stats, err := builder.Build(ctx, c)
	if err != nil {
		if showProgress {
			fmt.Fprintln(os.Stderr)
		}
		exitWithError(ExitError, "mining: %v", err)
	}

	// Clear progress line if we were showing progress
	if showProgress {
		fmt.Fprintf(os.Stderr, "\r%*s\r", progressLineClearWidth, "")
	}

	run := storage.MiningRun{
		ID:         uuid.NewString(),
		ModelName:  provider.ModelName(),
		Threshold:  cfg.Mining.Threshold,
		SampleSize: cfg.Mining.SampleSize,
		Seed:       stats.Seed,
		CorpusHash: storage.CorpusFingerprint(c.Pairs()),
		PairCount:  c.Len(),
		MinedAt:    time.Now().Unix(),
	}

	db := mustOpenDatabase(root)
	defer db.Close()

	if _, err := db.RebuildFromJSONL(config.PairsPath(root)); err != nil {
		exitWithError(ExitDataError, "refreshing pair cache: %v", err)
	}
	if err := db.SaveRecords(records); err != nil {
		exitWithError(ExitError, "saving records: %v", err)
	}
	if err := db.SaveRun(run); err != nil {
		exitWithError(ExitError, "saving run: %v", err)
	}

	return c, records, stats, run
}

// outputMineResults outputs the mining statistics in the appropriate format.
func outputMineResults(stats *mining.Stats, run storage.MiningRun) {
	if humanOutput {
		fmt.Printf("Mining complete:\n")
		fmt.Printf("  Queries mined: %d\n", stats.Queries)
		fmt.Printf("  Hard negatives: %d\n", stats.HardNegatives)
		fmt.Printf("  Random negatives: %d\n", stats.Negatives)
		fmt.Printf("  Queries with empty band: %d\n", stats.EmptyBand)
		fmt.Printf("  Seed: %d\n", stats.Seed)
		fmt.Printf("  Time elapsed: %s\n", formatDuration(stats.Duration))
		fmt.Printf("  Model: %s\n", run.ModelName)
	} else {
		outputJSON(MineResult{
			Status:          "mined",
			RunID:           run.ID,
			Model:           run.ModelName,
			Queries:         stats.Queries,
			HardNegatives:   stats.HardNegatives,
			Negatives:       stats.Negatives,
			EmptyBand:       stats.EmptyBand,
			Seed:            stats.Seed,
			Workers:         stats.Workers,
			DurationSeconds: stats.Duration.Seconds(),
		})
	}
}

func runMine(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	root := mustFindWorkspace()
	cfg := applyMiningFlags(cmd, mustLoadConfig(root))

	_, _, stats, run := mineCorpus(ctx, root, cfg)

	outputMineResults(stats, run)
	return nil
}

const (
	// progressBarWidth is the width in characters for terminal progress display.
	progressBarWidth = 30
	// progressLineClearWidth is the width needed to clear the entire progress line.
	// Should be wider than progressBarWidth + surrounding text (numbers, percentage, brackets).
	progressLineClearWidth = 50
)

// buildProgressBar creates a progress bar string of the given width.
// Returns a string like "[=====>    ]" showing progress.
func buildProgressBar(current, total, width int) string {
	if total == 0 {
		return strings.Repeat(" ", width)
	}
	filled := (width * current) / total
	if filled >= width {
		return strings.Repeat("=", width)
	}
	return strings.Repeat("=", filled) + ">" + strings.Repeat(" ", width-filled-1)
}

// printProgress prints a progress bar to stderr.
func printProgress(current, total int) {
	if total == 0 {
		return
	}
	pct := float64(current) / float64(total) * 100
	bar := buildProgressBar(current, total, progressBarWidth)
	fmt.Fprintf(os.Stderr, "\r[%s] %d/%d (%.0f%%)", bar, current, total, pct)
}
