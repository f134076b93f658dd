package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matsen/hardneg/internal/config"
	"github.com/matsen/hardneg/internal/storage"
)

var (
	corpusListLimit  int
	corpusListSearch string
)

func init() {
	rootCmd.AddCommand(corpusCmd)
	corpusCmd.AddCommand(corpusAddCmd)
	corpusCmd.AddCommand(corpusListCmd)
	corpusCmd.AddCommand(corpusStatsCmd)

	corpusListCmd.Flags().IntVar(&corpusListLimit, "limit", DefaultListLimit, "Maximum pairs to list (0 for all)")
	corpusListCmd.Flags().StringVar(&corpusListSearch, "search", "", "Full-text search over queries and answers")
}

var corpusCmd = &cobra.Command{
	Use:   "corpus",
	Short: "Manage the query/answer corpus",
	Long:  `Commands for adding, listing, and summarizing query/answer pairs.`,
}

var corpusAddCmd = &cobra.Command{
	Use:   "add <file.jsonl>...",
	Short: "Add query/answer pairs from JSONL files",
	Long: `Add query/answer pairs from JSONL files to the corpus.

Each line must be an object with non-empty "query" and "answer" fields.
A malformed line aborts the whole load; nothing is appended. Pairs whose
query and answer both already exist in the corpus are skipped.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCorpusAdd,
}

// CorpusAddResult is the response for the corpus add command.
type CorpusAddResult struct {
	Status  string `json:"status"`
	Added   int    `json:"added"`
	Skipped int    `json:"skipped"`
	Total   int    `json:"total"`
}

func runCorpusAdd(cmd *cobra.Command, args []string) error {
	root := mustFindWorkspace()
	pairsPath := config.PairsPath(root)

	existing, err := storage.ReadPairs(pairsPath)
	if err != nil {
		exitWithError(ExitDataError, "reading pairs: %v", err)
	}

	// Load and validate every input file before appending anything, so
	// a bad file cannot leave a partial load behind.
	added, skipped := 0, 0
	for _, path := range args {
		if _, err := os.Stat(path); err != nil {
			exitWithError(ExitDataError, "reading %s: %v", path, err)
		}

		incoming, err := storage.ReadPairs(path)
		if err != nil {
			exitWithError(ExitDataError, "reading %s: %v", path, err)
		}

		for _, p := range incoming {
			if p.IsVariant() {
				exitWithError(ExitDataError, "reading %s: variant pairs cannot be added directly (run 'hardneg augment')", path)
			}
			if storage.ContainsPair(existing, p) {
				skipped++
				continue
			}
			existing = append(existing, p)
			added++
		}
	}

	if added > 0 {
		if err := storage.WritePairs(pairsPath, existing); err != nil {
			exitWithError(ExitError, "writing pairs: %v", err)
		}
		rebuildCache(root)
	}

	result := CorpusAddResult{
		Status:  "added",
		Added:   added,
		Skipped: skipped,
		Total:   len(existing),
	}

	if humanOutput {
		fmt.Printf("Added %d pairs (%d duplicates skipped), corpus now has %d\n", added, skipped, result.Total)
	} else {
		outputJSON(result)
	}

	return nil
}

var corpusListCmd = &cobra.Command{
	Use:   "list",
	Short: "List corpus pairs",
	Long:  `List corpus pairs from the query cache, optionally filtered by full-text search.`,
	RunE:  runCorpusList,
}

// CorpusPairView is one pair in corpus list output.
type CorpusPairView struct {
	ID     int    `json:"id"`
	Query  string `json:"query"`
	Answer string `json:"answer"`
	Source string `json:"source,omitempty"`
	Origin *int   `json:"origin,omitempty"`
}

func runCorpusList(cmd *cobra.Command, args []string) error {
	root := mustFindWorkspace()
	db := mustOpenDatabase(root)
	defer db.Close()

	var (
		pairs []storage.IndexedPair
		err   error
	)
	if corpusListSearch != "" {
		limit := corpusListLimit
		if limit == 0 {
			limit = DefaultListLimit
		}
		pairs, err = db.SearchPairs(corpusListSearch, limit)
	} else {
		pairs, err = db.ListPairs(corpusListLimit)
	}
	if err != nil {
		exitWithError(ExitError, "listing pairs: %v", err)
	}

	views := make([]CorpusPairView, len(pairs))
	for i, ip := range pairs {
		views[i] = CorpusPairView{
			ID:     ip.ID,
			Query:  ip.Pair.Query,
			Answer: ip.Pair.Answer,
			Source: ip.Pair.Source,
			Origin: ip.Pair.Origin,
		}
	}

	if humanOutput {
		for _, v := range views {
			marker := ""
			if v.Origin != nil {
				marker = fmt.Sprintf(" (variant of %d, %s)", *v.Origin, v.Source)
			}
			fmt.Printf("%d%s\n", v.ID, marker)
			fmt.Printf("  Q: %s\n", truncateString(v.Query, ListTextMaxLen))
			fmt.Printf("  A: %s\n", truncateString(v.Answer, ListTextMaxLen))
		}
		fmt.Printf("\n%d pairs\n", len(views))
	} else {
		outputJSON(views)
	}

	return nil
}

var corpusStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize the corpus",
	Long:  `Show corpus counts: totals, variants, and pairs per source file.`,
	RunE:  runCorpusStats,
}

// CorpusStatsResult is the response for the corpus stats command.
type CorpusStatsResult struct {
	Pairs     int            `json:"pairs"`
	Originals int            `json:"originals"`
	Variants  int            `json:"variants"`
	BySource  map[string]int `json:"by_source"`
}

func runCorpusStats(cmd *cobra.Command, args []string) error {
	root := mustFindWorkspace()
	db := mustOpenDatabase(root)
	defer db.Close()

	pairs, err := db.ListPairs(0)
	if err != nil {
		exitWithError(ExitError, "listing pairs: %v", err)
	}

	bySource, err := db.CountPairsBySource()
	if err != nil {
		exitWithError(ExitError, "counting sources: %v", err)
	}

	variants := 0
	for _, ip := range pairs {
		if ip.Pair.IsVariant() {
			variants++
		}
	}

	result := CorpusStatsResult{
		Pairs:     len(pairs),
		Originals: len(pairs) - variants,
		Variants:  variants,
		BySource:  bySource,
	}

	if humanOutput {
		fmt.Printf("Pairs:    %d\n", result.Pairs)
		fmt.Printf("Original: %d\n", result.Originals)
		fmt.Printf("Variants: %d\n", result.Variants)
		if len(result.BySource) > 0 {
			fmt.Printf("\nBy source:\n")
			for source, count := range result.BySource {
				label := source
				if label == "" {
					label = "(none)"
				}
				fmt.Printf("  %-30s %d\n", label, count)
			}
		}
	} else {
		outputJSON(result)
	}

	return nil
}
