package main

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/matsen/hardneg/internal/config"
	"github.com/matsen/hardneg/internal/storage"
)

var statsRunsLimit int

func init() {
	rootCmd.AddCommand(statsCmd)

	statsCmd.Flags().IntVar(&statsRunsLimit, "runs", 0, "List the last N mining runs instead of record statistics")
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show mining statistics",
	Long: `Show statistics for the stored mining results: totals, the
hard-negative count distribution, and the run they came from.

With --runs N, list the last N mining runs instead.`,
	RunE: runStats,
}

// RunView describes a mining run in stats output.
type RunView struct {
	ID         string  `json:"id"`
	Model      string  `json:"model"`
	Threshold  float32 `json:"threshold"`
	SampleSize int     `json:"sample_size"`
	Seed       int64   `json:"seed"`
	Pairs      int     `json:"pairs"`
	MinedAt    string  `json:"mined_at"`
}

// StatsResult is the response for the stats command.
type StatsResult struct {
	Run           RunView     `json:"run"`
	Records       int         `json:"records"`
	HardNegatives int         `json:"hard_negatives"`
	Negatives     int         `json:"negatives"`
	EmptyBand     int         `json:"empty_band"`
	Histogram     map[int]int `json:"hard_negative_histogram"`
	Stale         bool        `json:"stale"`
}

// runView converts a stored run into its output form.
func runView(run storage.MiningRun) RunView {
	return RunView{
		ID:         run.ID,
		Model:      run.ModelName,
		Threshold:  run.Threshold,
		SampleSize: run.SampleSize,
		Seed:       run.Seed,
		Pairs:      run.PairCount,
		MinedAt:    time.Unix(run.MinedAt, 0).UTC().Format(time.RFC3339),
	}
}

// runStatsHistory lists past mining runs, newest first.
func runStatsHistory(db *storage.DB) error {
	runs, err := db.ListRuns(statsRunsLimit)
	if err != nil {
		exitWithError(ExitError, "listing runs: %v", err)
	}

	views := make([]RunView, len(runs))
	for i, run := range runs {
		views[i] = runView(run)
	}

	if humanOutput {
		if len(views) == 0 {
			fmt.Println("No mining runs recorded")
			return nil
		}
		for _, v := range views {
			fmt.Printf("%s  %s  threshold %.4f  seed %d  %d pairs  %s\n",
				v.MinedAt, v.Model, v.Threshold, v.Seed, v.Pairs, v.ID)
		}
	} else {
		outputJSON(views)
	}
	return nil
}

func runStats(cmd *cobra.Command, args []string) error {
	root := mustFindWorkspace()
	db := mustOpenDatabase(root)
	defer db.Close()

	if statsRunsLimit > 0 {
		return runStatsHistory(db)
	}

	run, err := db.LatestRun()
	if err != nil {
		exitWithError(ExitError, "reading runs: %v", err)
	}
	if run == nil {
		exitWithError(ExitError, "no mining run recorded\n\nRun 'hardneg mine' first.")
	}

	agg, err := db.AggregateRecords()
	if err != nil {
		exitWithError(ExitError, "aggregating records: %v", err)
	}

	hist, err := db.HardNegativeHistogram()
	if err != nil {
		exitWithError(ExitError, "computing histogram: %v", err)
	}

	// Stale when the corpus changed after the run, making stored
	// records refer to a different id space.
	pairs, err := storage.ReadPairs(config.PairsPath(root))
	if err != nil {
		exitWithError(ExitDataError, "reading pairs: %v", err)
	}
	stale := storage.CorpusFingerprint(pairs) != run.CorpusHash

	result := StatsResult{
		Run:           runView(*run),
		Records:       agg.Records,
		HardNegatives: agg.HardNegatives,
		Negatives:     agg.Negatives,
		EmptyBand:     agg.EmptyBand,
		Histogram:     hist,
		Stale:         stale,
	}

	if humanOutput {
		fmt.Printf("Mining run %s\n", result.Run.ID)
		fmt.Printf("  Model: %s\n", result.Run.Model)
		fmt.Printf("  Threshold: %.4f, sample size: %d, seed: %d\n",
			result.Run.Threshold, result.Run.SampleSize, result.Run.Seed)
		fmt.Printf("  Mined: %s over %d pairs\n", result.Run.MinedAt, result.Run.Pairs)
		if result.Stale {
			fmt.Printf("  WARNING: corpus changed since this run; run 'hardneg mine' to refresh\n")
		}
		fmt.Printf("\nRecords: %d\n", result.Records)
		fmt.Printf("  Hard negatives: %d\n", result.HardNegatives)
		fmt.Printf("  Random negatives: %d\n", result.Negatives)
		fmt.Printf("  Queries with empty band: %d\n", result.EmptyBand)

		fmt.Printf("\nHard negatives per query:\n")
		counts := make([]int, 0, len(result.Histogram))
		for count := range result.Histogram {
			counts = append(counts, count)
		}
		sort.Ints(counts)
		for _, count := range counts {
			fmt.Printf("  %3d: %d queries\n", count, result.Histogram[count])
		}
	} else {
		outputJSON(result)
	}

	return nil
}
