package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matsen/hardneg/internal/config"
	"github.com/matsen/hardneg/internal/corpus"
	"github.com/matsen/hardneg/internal/storage"
)

func init() {
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a hardneg workspace",
	Long: `Initialize a hardneg workspace in the current directory.

Creates the .hardneg/ directory with a default config.json, an empty
pairs.jsonl corpus, and the cache directory.`,
	RunE: runInit,
}

// InitResult is the response for the init command.
type InitResult struct {
	Status     string `json:"status"`
	Path       string `json:"path"`
	ConfigPath string `json:"config_path"`
	PairsPath  string `json:"pairs_path"`
}

func runInit(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		exitWithError(ExitError, "getting current directory: %v", err)
	}

	if config.IsWorkspace(cwd) {
		exitWithError(ExitError, "already a hardneg workspace: %s", config.WorkspacePath(cwd))
	}

	if err := os.MkdirAll(config.CachePath(cwd), 0755); err != nil {
		exitWithError(ExitError, "creating workspace: %v", err)
	}

	cfg := config.Default()
	if err := cfg.Save(cwd); err != nil {
		exitWithError(ExitError, "writing config: %v", err)
	}

	if err := storage.WritePairs(config.PairsPath(cwd), []corpus.Pair{}); err != nil {
		exitWithError(ExitError, "creating pairs file: %v", err)
	}

	result := InitResult{
		Status:     "initialized",
		Path:       config.WorkspacePath(cwd),
		ConfigPath: config.ConfigPath(cwd),
		PairsPath:  config.PairsPath(cwd),
	}

	if humanOutput {
		fmt.Printf("Initialized hardneg workspace in %s\n", result.Path)
		fmt.Printf("  Config: %s\n", result.ConfigPath)
		fmt.Printf("  Corpus: %s\n", result.PairsPath)
	} else {
		outputJSON(result)
	}

	return nil
}
