// Package config handles workspace configuration.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/matsen/hardneg/internal/embedding"
	"github.com/matsen/hardneg/internal/mining"
	"github.com/matsen/hardneg/internal/trainset"
)

// Config represents workspace configuration stored in .hardneg/config.json.
// Commands load it once at startup and pass it by value; nothing mutates
// a loaded Config in place.
type Config struct {
	Mining    mining.Config `json:"mining"`
	Caps      trainset.Caps `json:"caps"`
	Oracle    OracleConfig  `json:"oracle"`
	OutputDir string        `json:"output_dir"`
}

// OracleConfig selects and parameterizes the embedding model that scores
// query/answer similarity.
type OracleConfig struct {
	Provider   string `json:"provider"`             // ollama or openai
	Model      string `json:"model"`                // Embedding model name
	BaseURL    string `json:"base_url,omitempty"`   // Ollama endpoint override
	Dimensions int    `json:"dimensions,omitempty"` // Expected vector size override
}

const (
	WorkspaceDir = ".hardneg"
	ConfigFile   = "config.json"
	PairsFile    = "pairs.jsonl"
	CacheDir     = "cache"
	DBFile       = "hardneg.db"

	// DefaultOutputDir is where build writes the dataset, relative to
	// the workspace root.
	DefaultOutputDir = "dataset"
)

// ValidProviders lists the supported oracle provider values.
var ValidProviders = []string{"ollama", "openai"}

// ErrNegativeCaps indicates a negative example cap in the configuration.
var ErrNegativeCaps = errors.New("negative caps must not be negative")

// Default returns the configuration written by init.
func Default() Config {
	return Config{
		Mining: mining.Config{
			Threshold:  0.99,
			SampleSize: 15,
		},
		Caps: trainset.Caps{
			MaxNegatives:     30,
			MaxHardNegatives: 20,
		},
		Oracle: OracleConfig{
			Provider: "ollama",
			Model:    embedding.DefaultModel,
		},
		OutputDir: DefaultOutputDir,
	}
}

// WorkspacePath returns the path to the .hardneg directory from a root path.
func WorkspacePath(root string) string {
	return filepath.Join(root, WorkspaceDir)
}

// ConfigPath returns the path to config.json from a root path.
func ConfigPath(root string) string {
	return filepath.Join(root, WorkspaceDir, ConfigFile)
}

// PairsPath returns the path to pairs.jsonl from a root path.
func PairsPath(root string) string {
	return filepath.Join(root, WorkspaceDir, PairsFile)
}

// CachePath returns the path to the cache directory from a root path.
func CachePath(root string) string {
	return filepath.Join(root, WorkspaceDir, CacheDir)
}

// DBPath returns the path to hardneg.db from a root path.
func DBPath(root string) string {
	return filepath.Join(root, WorkspaceDir, CacheDir, DBFile)
}

// DatasetPath resolves the configured output directory against the
// workspace root. Absolute paths are used as given.
func (c Config) DatasetPath(root string) string {
	dir := c.OutputDir
	if dir == "" {
		dir = DefaultOutputDir
	}
	dir = ExpandPath(dir)
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(root, dir)
}

// IsWorkspace checks if the given path contains a hardneg workspace.
func IsWorkspace(root string) bool {
	info, err := os.Stat(WorkspacePath(root))
	return err == nil && info.IsDir()
}

// FindWorkspace walks up from the given path to find a hardneg workspace.
// Returns the workspace root path or an error if not found.
func FindWorkspace(start string) (string, error) {
	abs, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	for {
		if IsWorkspace(abs) {
			return abs, nil
		}

		parent := filepath.Dir(abs)
		if parent == abs {
			return "", fmt.Errorf("not in a hardneg workspace (no .hardneg directory found)")
		}
		abs = parent
	}
}

// Load reads configuration from the workspace at the given root.
func Load(root string) (Config, error) {
	data, err := os.ReadFile(ConfigPath(root))
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// Save writes configuration to the workspace at the given root.
func (c Config) Save(root string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(ConfigPath(root), data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// Validate checks the configuration for values no command could run with.
func (c Config) Validate() error {
	if err := c.Mining.Validate(); err != nil {
		return err
	}
	if c.Caps.MaxNegatives < 0 || c.Caps.MaxHardNegatives < 0 {
		return ErrNegativeCaps
	}
	return ValidateProvider(c.Oracle.Provider)
}

// ValidateProvider checks that the provider value is valid.
func ValidateProvider(provider string) error {
	if provider == "" {
		return nil // Empty defaults to "ollama"
	}

	for _, valid := range ValidProviders {
		if provider == valid {
			return nil
		}
	}

	return fmt.Errorf("invalid provider: %s (valid: %v)", provider, ValidProviders)
}

// ExpandPath expands ~ to the user's home directory.
// Returns the original path unchanged if it doesn't start with ~.
func ExpandPath(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path // Return original if we can't get home directory
	}

	return filepath.Join(home, path[1:])
}
