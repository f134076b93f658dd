package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matsen/hardneg/internal/config"
)

func init() {
	rootCmd.AddCommand(configCmd)
}

// configKeys lists the settable keys in display order.
var configKeys = []string{
	"threshold",
	"sample-size",
	"seed",
	"workers",
	"max-negatives",
	"max-hard-negatives",
	"provider",
	"model",
	"base-url",
	"dimensions",
	"output-dir",
}

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Get or set configuration values",
	Long: `Get or set workspace configuration values.

Usage:
  hardneg config                      # Show all config
  hardneg config threshold            # Get specific value
  hardneg config threshold 0.98       # Set value
  hardneg config provider openai      # Switch embedding provider

Keys:
  threshold           Near-duplicate cutoff for hard negatives
  sample-size         Random negatives drawn per query
  seed                Sampling PRNG seed (0 derives one per run)
  workers             Concurrent mining workers (0 uses all CPUs)
  max-negatives       Random negatives kept per training example
  max-hard-negatives  Hard negatives kept per training example
  provider            Embedding provider (ollama, openai)
  model               Embedding model name
  base-url            Ollama endpoint override
  dimensions          Expected embedding dimensions override
  output-dir          Dataset output directory`,
	Args: cobra.MaximumNArgs(2),
	RunE: runConfig,
}

// configValue returns the display value for a configuration key.
func configValue(cfg config.Config, key string) (string, bool) {
	switch key {
	case "threshold":
		return strconv.FormatFloat(float64(cfg.Mining.Threshold), 'g', -1, 32), true
	case "sample-size":
		return strconv.Itoa(cfg.Mining.SampleSize), true
	case "seed":
		return strconv.FormatInt(cfg.Mining.Seed, 10), true
	case "workers":
		return strconv.Itoa(cfg.Mining.Workers), true
	case "max-negatives":
		return strconv.Itoa(cfg.Caps.MaxNegatives), true
	case "max-hard-negatives":
		return strconv.Itoa(cfg.Caps.MaxHardNegatives), true
	case "provider":
		return cfg.Oracle.Provider, true
	case "model":
		return cfg.Oracle.Model, true
	case "base-url":
		return cfg.Oracle.BaseURL, true
	case "dimensions":
		return strconv.Itoa(cfg.Oracle.Dimensions), true
	case "output-dir":
		return cfg.OutputDir, true
	}
	return "", false
}

// setConfigValue returns a copy of the config with the key set to the
// parsed value.
func setConfigValue(cfg config.Config, key, value string) (config.Config, error) {
	parseInt := func() (int, error) {
		n, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %q is not an integer", key, value)
		}
		return n, nil
	}

	switch key {
	case "threshold":
		f, err := strconv.ParseFloat(value, 32)
		if err != nil {
			return cfg, fmt.Errorf("invalid threshold: %q is not a number", value)
		}
		cfg.Mining.Threshold = float32(f)
	case "sample-size":
		n, err := parseInt()
		if err != nil {
			return cfg, err
		}
		cfg.Mining.SampleSize = n
	case "seed":
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return cfg, fmt.Errorf("invalid seed: %q is not an integer", value)
		}
		cfg.Mining.Seed = n
	case "workers":
		n, err := parseInt()
		if err != nil {
			return cfg, err
		}
		cfg.Mining.Workers = n
	case "max-negatives":
		n, err := parseInt()
		if err != nil {
			return cfg, err
		}
		cfg.Caps.MaxNegatives = n
	case "max-hard-negatives":
		n, err := parseInt()
		if err != nil {
			return cfg, err
		}
		cfg.Caps.MaxHardNegatives = n
	case "provider":
		if err := config.ValidateProvider(value); err != nil {
			return cfg, err
		}
		cfg.Oracle.Provider = value
	case "model":
		cfg.Oracle.Model = value
	case "base-url":
		cfg.Oracle.BaseURL = value
	case "dimensions":
		n, err := parseInt()
		if err != nil {
			return cfg, err
		}
		cfg.Oracle.Dimensions = n
	case "output-dir":
		cfg.OutputDir = value
	default:
		return cfg, fmt.Errorf("unknown configuration key: %s", key)
	}

	return cfg, nil
}

// normalizeKey converts key formats (sample_size, sample-size) to consistent format
func normalizeKey(key string) string {
	key = strings.ToLower(key)
	key = strings.ReplaceAll(key, "_", "-")
	return key
}

func runConfig(cmd *cobra.Command, args []string) error {
	root := mustFindWorkspace()
	cfg := mustLoadConfig(root)

	// No args: show all config
	if len(args) == 0 {
		if humanOutput {
			for _, key := range configKeys {
				value, _ := configValue(cfg, key)
				fmt.Printf("%-20s %s\n", key, value)
			}
		} else {
			outputJSON(cfg)
		}
		return nil
	}

	key := normalizeKey(args[0])

	// One arg: get specific value
	if len(args) == 1 {
		value, ok := configValue(cfg, key)
		if !ok {
			exitWithError(ExitError, "unknown configuration key: %s", args[0])
		}
		if humanOutput {
			fmt.Println(value)
		} else {
			jsonKey := strings.ReplaceAll(key, "-", "_")
			outputJSON(map[string]string{jsonKey: value})
		}
		return nil
	}

	// Two args: set value
	value := args[1]

	updated, err := setConfigValue(cfg, key, value)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}
	if err := updated.Validate(); err != nil {
		exitWithError(ExitConfigError, "invalid config: %v", err)
	}
	if err := updated.Save(root); err != nil {
		exitWithError(ExitError, "saving config: %v", err)
	}

	if humanOutput {
		fmt.Printf("Updated %s to %s\n", key, value)
	} else {
		outputJSON(UpdateResponse{
			Status: "updated",
			Key:    key,
			Value:  value,
		})
	}

	return nil
}
