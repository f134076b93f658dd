package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/matsen/hardneg/internal/mining"
)

func TestPathFunctions(t *testing.T) {
	root := "/test/ws"

	tests := []struct {
		name string
		fn   func(string) string
		want string
	}{
		{"WorkspacePath", WorkspacePath, "/test/ws/.hardneg"},
		{"ConfigPath", ConfigPath, "/test/ws/.hardneg/config.json"},
		{"PairsPath", PairsPath, "/test/ws/.hardneg/pairs.jsonl"},
		{"CachePath", CachePath, "/test/ws/.hardneg/cache"},
		{"DBPath", DBPath, "/test/ws/.hardneg/cache/hardneg.db"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.fn(root)
			if got != tt.want {
				t.Errorf("%s(%q) = %q, want %q", tt.name, root, got, tt.want)
			}
		})
	}
}

func TestDatasetPath(t *testing.T) {
	tests := []struct {
		name      string
		outputDir string
		want      string
	}{
		{"default", "", "/test/ws/dataset"},
		{"relative", "out", "/test/ws/out"},
		{"absolute", "/data/out", "/data/out"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{OutputDir: tt.outputDir}
			got := cfg.DatasetPath("/test/ws")
			if got != tt.want {
				t.Errorf("DatasetPath() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsWorkspace(t *testing.T) {
	tmpDir := t.TempDir()

	// Not a workspace initially
	if IsWorkspace(tmpDir) {
		t.Error("IsWorkspace() = true for plain directory")
	}

	// Create .hardneg directory
	hnDir := filepath.Join(tmpDir, WorkspaceDir)
	if err := os.Mkdir(hnDir, 0755); err != nil {
		t.Fatalf("Failed to create .hardneg: %v", err)
	}

	// Now it should be a workspace
	if !IsWorkspace(tmpDir) {
		t.Error("IsWorkspace() = false for workspace directory")
	}
}

func TestIsWorkspace_FileNotDir(t *testing.T) {
	tmpDir := t.TempDir()

	// Create .hardneg as a file, not directory
	hnPath := filepath.Join(tmpDir, WorkspaceDir)
	if err := os.WriteFile(hnPath, []byte("not a dir"), 0644); err != nil {
		t.Fatalf("Failed to create .hardneg file: %v", err)
	}

	// Should not be considered a workspace
	if IsWorkspace(tmpDir) {
		t.Error("IsWorkspace() = true when .hardneg is a file")
	}
}

func TestFindWorkspace(t *testing.T) {
	// Create nested structure: /tmp/xxx/ws/.hardneg
	tmpDir := t.TempDir()
	wsDir := filepath.Join(tmpDir, "ws")
	nestedDir := filepath.Join(wsDir, "data", "raw")

	if err := os.MkdirAll(nestedDir, 0755); err != nil {
		t.Fatalf("Failed to create nested dirs: %v", err)
	}
	if err := os.Mkdir(filepath.Join(wsDir, WorkspaceDir), 0755); err != nil {
		t.Fatalf("Failed to create .hardneg: %v", err)
	}

	// Find from nested dir should return workspace root
	found, err := FindWorkspace(nestedDir)
	if err != nil {
		t.Fatalf("FindWorkspace() error = %v", err)
	}
	if found != wsDir {
		t.Errorf("FindWorkspace() = %q, want %q", found, wsDir)
	}

	// Find from workspace root
	found, err = FindWorkspace(wsDir)
	if err != nil {
		t.Fatalf("FindWorkspace() error = %v", err)
	}
	if found != wsDir {
		t.Errorf("FindWorkspace() = %q, want %q", found, wsDir)
	}
}

func TestFindWorkspace_NotFound(t *testing.T) {
	tmpDir := t.TempDir()

	_, err := FindWorkspace(tmpDir)
	if err == nil {
		t.Error("FindWorkspace() should return error when no workspace found")
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Mining.Threshold != 0.99 {
		t.Errorf("Threshold = %v, want 0.99", cfg.Mining.Threshold)
	}
	if cfg.Mining.SampleSize != 15 {
		t.Errorf("SampleSize = %d, want 15", cfg.Mining.SampleSize)
	}
	if cfg.Caps.MaxNegatives != 30 {
		t.Errorf("MaxNegatives = %d, want 30", cfg.Caps.MaxNegatives)
	}
	if cfg.Caps.MaxHardNegatives != 20 {
		t.Errorf("MaxHardNegatives = %d, want 20", cfg.Caps.MaxHardNegatives)
	}
	if cfg.Oracle.Provider != "ollama" {
		t.Errorf("Provider = %q, want ollama", cfg.Oracle.Provider)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default().Validate() error = %v", err)
	}
}

func TestConfig_SaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()

	// Create .hardneg directory
	hnDir := filepath.Join(tmpDir, WorkspaceDir)
	if err := os.Mkdir(hnDir, 0755); err != nil {
		t.Fatalf("Failed to create .hardneg: %v", err)
	}

	// Save config
	cfg := Default()
	cfg.Mining.Threshold = 0.95
	cfg.Mining.Seed = 42
	cfg.Oracle.Provider = "openai"
	cfg.Oracle.Model = "text-embedding-3-small"
	if err := cfg.Save(tmpDir); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	// Load config
	loaded, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if loaded != cfg {
		t.Errorf("Load() = %+v, want %+v", loaded, cfg)
	}
}

func TestLoad_NotFound(t *testing.T) {
	tmpDir := t.TempDir()

	// Create .hardneg directory but no config
	hnDir := filepath.Join(tmpDir, WorkspaceDir)
	if err := os.Mkdir(hnDir, 0755); err != nil {
		t.Fatalf("Failed to create .hardneg: %v", err)
	}

	_, err := Load(tmpDir)
	if err == nil {
		t.Error("Load() should return error when config not found")
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	tmpDir := t.TempDir()

	// Create .hardneg directory
	hnDir := filepath.Join(tmpDir, WorkspaceDir)
	if err := os.Mkdir(hnDir, 0755); err != nil {
		t.Fatalf("Failed to create .hardneg: %v", err)
	}

	// Write invalid JSON
	if err := os.WriteFile(ConfigPath(tmpDir), []byte("not json"), 0644); err != nil {
		t.Fatalf("Failed to write invalid config: %v", err)
	}

	_, err := Load(tmpDir)
	if err == nil {
		t.Error("Load() should return error for invalid JSON")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"zero threshold", func(c *Config) { c.Mining.Threshold = 0 }, true},
		{"negative sample size", func(c *Config) { c.Mining.SampleSize = -1 }, true},
		{"negative cap", func(c *Config) { c.Caps.MaxNegatives = -1 }, true},
		{"negative hard cap", func(c *Config) { c.Caps.MaxHardNegatives = -1 }, true},
		{"unknown provider", func(c *Config) { c.Oracle.Provider = "cohere" }, true},
		{"empty provider", func(c *Config) { c.Oracle.Provider = "" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr = %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_ValidatePropagatesMiningError(t *testing.T) {
	cfg := Default()
	cfg.Mining.Threshold = -0.5

	if err := cfg.Validate(); err != mining.ErrInvalidThreshold {
		t.Errorf("Validate() error = %v, want ErrInvalidThreshold", err)
	}
}

func TestValidateProvider(t *testing.T) {
	tests := []struct {
		provider string
		wantErr  bool
	}{
		{"", false}, // Empty defaults to ollama
		{"ollama", false},
		{"openai", false},
		{"invalid", true},
		{"cohere", true},
	}

	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			err := ValidateProvider(tt.provider)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateProvider(%q) error = %v, wantErr = %v", tt.provider, err, tt.wantErr)
			}
		})
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("Cannot get home directory")
	}

	tests := []struct {
		path string
		want string
	}{
		{"", ""},
		{"/absolute/path", "/absolute/path"},
		{"relative/path", "relative/path"},
		{"~", home},
		{"~/datasets", filepath.Join(home, "datasets")},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got := ExpandPath(tt.path)
			if got != tt.want {
				t.Errorf("ExpandPath(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestConstants(t *testing.T) {
	// Verify constants have expected values
	if WorkspaceDir != ".hardneg" {
		t.Errorf("WorkspaceDir = %q, want .hardneg", WorkspaceDir)
	}
	if ConfigFile != "config.json" {
		t.Errorf("ConfigFile = %q, want config.json", ConfigFile)
	}
	if PairsFile != "pairs.jsonl" {
		t.Errorf("PairsFile = %q, want pairs.jsonl", PairsFile)
	}
	if CacheDir != "cache" {
		t.Errorf("CacheDir = %q, want cache", CacheDir)
	}
	if DBFile != "hardneg.db" {
		t.Errorf("DBFile = %q, want hardneg.db", DBFile)
	}
}
