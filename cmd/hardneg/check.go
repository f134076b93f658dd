package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matsen/hardneg/internal/config"
	"github.com/matsen/hardneg/internal/corpus"
	"github.com/matsen/hardneg/internal/embedding"
	"github.com/matsen/hardneg/internal/storage"
)

var checkSkipOracle bool

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().BoolVar(&checkSkipOracle, "skip-oracle", false, "Skip embedding provider checks")
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify workspace integrity",
	Long: `Verify workspace integrity: corpus validity, cache freshness, and
embedding provider availability.

Exit codes distinguish failure classes so scripts can react: 3 for a
malformed corpus, 4 when the provider is unreachable, 5 when the
embedding model is missing.`,
	RunE: runCheck,
}

// CheckResult is the response for the check command.
type CheckResult struct {
	Status   string       `json:"status"`
	Pairs    int          `json:"pairs"`
	Variants int          `json:"variants"`
	Records  int          `json:"records"`
	Issues   []CheckIssue `json:"issues"`
}

// CheckIssue represents a single issue found during check.
type CheckIssue struct {
	Type   string `json:"type"`
	ID     int    `json:"id,omitempty"`
	Detail string `json:"detail,omitempty"`
}

// checkOracle verifies the embedding provider can be constructed and, for
// a local Ollama, that it is running with the model present. Returns the
// issues found and the exit code they warrant.
func checkOracle(ctx context.Context, cfg config.Config) ([]CheckIssue, int) {
	provider, err := newProvider(cfg)
	if err != nil {
		return []CheckIssue{{Type: "oracle_config", Detail: err.Error()}}, ExitOracleUnavailable
	}

	op, ok := provider.(*embedding.OllamaProvider)
	if !ok {
		return nil, ExitSuccess
	}

	if err := op.IsAvailable(ctx); err != nil {
		return []CheckIssue{{Type: "oracle_unavailable", Detail: "Ollama is not running"}}, ExitOracleUnavailable
	}

	hasModel, err := op.HasModel(ctx)
	if err != nil {
		return []CheckIssue{{Type: "oracle_error", Detail: err.Error()}}, ExitError
	}
	if !hasModel {
		detail := fmt.Sprintf("embedding model %q not found", op.ModelName())
		return []CheckIssue{{Type: "model_not_found", Detail: detail}}, ExitModelNotFound
	}

	return nil, ExitSuccess
}

func runCheck(cmd *cobra.Command, args []string) error {
	root := mustFindWorkspace()
	cfg := mustLoadConfig(root)

	// Read pairs from JSONL (source of truth); malformed input is fatal
	pairs, err := storage.ReadPairs(config.PairsPath(root))
	if err != nil {
		exitWithError(ExitDataError, "reading pairs: %v", err)
	}

	var issues []CheckIssue

	c, err := corpus.FromPairs(pairs)
	if err != nil {
		exitWithError(ExitDataError, "loading corpus: %v", err)
	}
	if err := c.Validate(); err != nil {
		issues = append(issues, CheckIssue{Type: "invalid_linkage", Detail: err.Error()})
	}

	// Duplicate pairs train the model on contradictory negatives
	seen := make(map[string]int)
	variants := 0
	for i, p := range pairs {
		if p.IsVariant() {
			variants++
		}
		key := p.Query + "\x00" + p.Answer
		if first, ok := seen[key]; ok {
			issues = append(issues, CheckIssue{
				Type:   "duplicate_pair",
				ID:     i,
				Detail: fmt.Sprintf("same query and answer as pair %d", first),
			})
			continue
		}
		seen[key] = i
	}

	// The cache serves list and stats queries; a hand-edited pairs.jsonl
	// leaves it answering for a corpus that no longer exists
	db := mustOpenDatabase(root)
	defer db.Close()

	cachePairs, err := db.CountPairs()
	if err != nil {
		exitWithError(ExitError, "counting cached pairs: %v", err)
	}
	if cachePairs != len(pairs) {
		issues = append(issues, CheckIssue{
			Type:   "cache_out_of_date",
			Detail: fmt.Sprintf("cache has %d pairs, pairs.jsonl has %d (run 'hardneg rebuild')", cachePairs, len(pairs)),
		})
	}

	// Stored mining results, if any, must match the current corpus
	records, err := db.ListRecords()
	if err != nil {
		exitWithError(ExitError, "reading records: %v", err)
	}
	recordCount := len(records)
	for _, rec := range records {
		if rec.QueryID >= len(pairs) {
			issues = append(issues, CheckIssue{
				Type:   "orphan_record",
				ID:     rec.QueryID,
				Detail: "mined record references a query id beyond the corpus",
			})
		}
	}
	fingerprint := storage.CorpusFingerprint(pairs)
	if recordCount > 0 {
		run, err := db.LatestRun()
		if err != nil {
			exitWithError(ExitError, "reading runs: %v", err)
		}
		if run == nil {
			issues = append(issues, CheckIssue{Type: "missing_run", Detail: "mined records have no run metadata"})
		} else if run.CorpusHash != fingerprint {
			issues = append(issues, CheckIssue{Type: "stale_records", Detail: "corpus changed since the last mining run"})
		}
	}

	// An emitted dataset goes stale the moment the corpus it was built
	// from changes
	manifest, err := storage.ReadManifest(filepath.Join(cfg.DatasetPath(root), ManifestFile))
	if err != nil {
		issues = append(issues, CheckIssue{Type: "manifest_error", Detail: err.Error()})
	} else if manifest != nil && manifest.CorpusHash != fingerprint {
		issues = append(issues, CheckIssue{Type: "dataset_stale", Detail: "dataset was built from a different corpus (run 'hardneg build')"})
	}

	exitCode := ExitSuccess
	if !checkSkipOracle {
		oracleIssues, code := checkOracle(context.Background(), cfg)
		issues = append(issues, oracleIssues...)
		if code != ExitSuccess {
			exitCode = code
		}
	}

	status := "ok"
	if len(issues) > 0 {
		status = "issues"
	}

	// Ensure issues is an empty array, not null
	if issues == nil {
		issues = []CheckIssue{}
	}

	result := CheckResult{
		Status:   status,
		Pairs:    len(pairs),
		Variants: variants,
		Records:  recordCount,
		Issues:   issues,
	}

	if humanOutput {
		if len(issues) == 0 {
			fmt.Printf("Workspace check: OK\n\n%d pairs (%d variants), %d mined records\n",
				result.Pairs, result.Variants, result.Records)
		} else {
			fmt.Printf("Workspace check: %d issues found\n\n", len(issues))
			for _, issue := range issues {
				switch issue.Type {
				case "duplicate_pair":
					fmt.Printf("  [WARN] Duplicate pair %d: %s\n", issue.ID, issue.Detail)
				case "stale_records":
					fmt.Printf("  [WARN] Stale records: %s\n", issue.Detail)
				case "oracle_unavailable", "oracle_config", "oracle_error":
					fmt.Printf("  [FAIL] Oracle: %s\n", issue.Detail)
				case "model_not_found":
					fmt.Printf("  [FAIL] Model: %s\n", issue.Detail)
				default:
					fmt.Printf("  [WARN] %s: %s\n", issue.Type, issue.Detail)
				}
			}
			fmt.Printf("\n%d pairs (%d variants), %d mined records\n",
				result.Pairs, result.Variants, result.Records)
		}
	} else {
		outputJSON(result)
	}

	if exitCode != ExitSuccess {
		os.Exit(exitCode)
	}
	return nil
}
