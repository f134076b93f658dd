package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matsen/hardneg/internal/storage"
)

func init() {
	rootCmd.AddCommand(inspectCmd)
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <query-id>",
	Short: "Show one mined record with resolved texts",
	Long: `Show the mined record for one query, with answer texts resolved
from the corpus.

Texts reflect the current corpus; if pairs were added or changed since
mining, run 'hardneg check' to see whether the records are stale.`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

// InspectEntry is one referenced answer in inspect output.
type InspectEntry struct {
	ID     int    `json:"id"`
	Answer string `json:"answer,omitempty"`
}

// InspectResult is the response for the inspect command.
type InspectResult struct {
	QueryID       int            `json:"query_id"`
	Query         string         `json:"query"`
	TippingPoint  float32        `json:"tipping_point"`
	Positives     []InspectEntry `json:"positives"`
	HardNegatives []InspectEntry `json:"hard_negatives"`
	Negatives     []InspectEntry `json:"negatives"`
}

// resolveEntries looks up answer texts for the given pair ids. Ids no
// longer present in the corpus keep their id with no text.
func resolveEntries(db *storage.DB, ids []int) ([]InspectEntry, error) {
	entries := make([]InspectEntry, 0, len(ids))
	for _, id := range ids {
		entry := InspectEntry{ID: id}
		ip, err := db.GetPair(id)
		if err != nil {
			return nil, err
		}
		if ip != nil {
			entry.Answer = ip.Pair.Answer
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// printEntriesHuman prints a labeled entry list for the human view.
func printEntriesHuman(label string, entries []InspectEntry) {
	fmt.Printf("%s (%d):\n", label, len(entries))
	for _, e := range entries {
		text := e.Answer
		if text == "" {
			text = "(not in corpus)"
		}
		fmt.Printf("  %4d  %s\n", e.ID, truncateString(text, InspectTextMaxLen))
	}
}

func runInspect(cmd *cobra.Command, args []string) error {
	queryID, err := strconv.Atoi(args[0])
	if err != nil {
		exitWithError(ExitError, "invalid query id %q", args[0])
	}

	root := mustFindWorkspace()
	db := mustOpenDatabase(root)
	defer db.Close()

	rec, err := db.GetRecord(queryID)
	if err != nil {
		exitWithError(ExitError, "reading record: %v", err)
	}
	if rec == nil {
		exitWithError(ExitError, "no mined record for query %d\n\nRun 'hardneg mine' first.", queryID)
	}

	query := ""
	if ip, err := db.GetPair(queryID); err != nil {
		exitWithError(ExitError, "reading pair: %v", err)
	} else if ip != nil {
		query = ip.Pair.Query
	}

	positives, err := resolveEntries(db, rec.Positives)
	if err != nil {
		exitWithError(ExitError, "resolving positives: %v", err)
	}
	hard, err := resolveEntries(db, rec.HardNegatives)
	if err != nil {
		exitWithError(ExitError, "resolving hard negatives: %v", err)
	}
	negatives, err := resolveEntries(db, rec.Negatives)
	if err != nil {
		exitWithError(ExitError, "resolving negatives: %v", err)
	}

	result := InspectResult{
		QueryID:       rec.QueryID,
		Query:         query,
		TippingPoint:  rec.TippingPoint,
		Positives:     positives,
		HardNegatives: hard,
		Negatives:     negatives,
	}

	if humanOutput {
		fmt.Printf("Query %d: %s\n", result.QueryID, truncateString(result.Query, InspectTextMaxLen))
		fmt.Printf("Tipping point: %.4f\n\n", result.TippingPoint)
		printEntriesHuman("Positives", result.Positives)
		printEntriesHuman("Hard negatives", result.HardNegatives)
		printEntriesHuman("Random negatives", result.Negatives)
	} else {
		outputJSON(result)
	}

	return nil
}
