package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matsen/hardneg/internal/config"
)

func init() {
	rootCmd.AddCommand(rebuildCmd)
}

var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rebuild the query cache from source data",
	Long: `Rebuild the SQLite query cache from the pairs.jsonl source file.

Use this after pulling changes from git or if the cache becomes corrupted.
Mined records are preserved; run 'hardneg mine' to refresh them.`,
	RunE: runRebuild,
}

// RebuildResult is the response for the rebuild command.
type RebuildResult struct {
	Status string `json:"status"`
	Pairs  int    `json:"pairs"`
}

// rebuildCache reloads the pair cache from pairs.jsonl, exits on error.
// Returns the number of pairs loaded.
func rebuildCache(root string) int {
	db := mustOpenDatabase(root)
	defer db.Close()

	count, err := db.RebuildFromJSONL(config.PairsPath(root))
	if err != nil {
		exitWithError(ExitDataError, "rebuilding pair cache: %v", err)
	}
	return count
}

func runRebuild(cmd *cobra.Command, args []string) error {
	root := mustFindWorkspace()

	count := rebuildCache(root)

	if humanOutput {
		fmt.Printf("Rebuilt query cache with %d pairs\n", count)
	} else {
		outputJSON(RebuildResult{Status: "rebuilt", Pairs: count})
	}

	return nil
}
