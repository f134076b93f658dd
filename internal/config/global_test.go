package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeGlobalConfig(t *testing.T, configHome, content string) {
	t.Helper()

	configDir := filepath.Join(configHome, GlobalConfigDir)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(configDir, GlobalConfigFile), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestGlobalConfigPath(t *testing.T) {
	// Test with custom XDG_CONFIG_HOME
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	path := GlobalConfigPath()
	want := "/custom/config/hardneg/config.yml"
	if path != want {
		t.Errorf("GlobalConfigPath() = %q, want %q", path, want)
	}

	// Test with empty XDG_CONFIG_HOME (should use ~/.config)
	t.Setenv("XDG_CONFIG_HOME", "")
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("Cannot get home directory")
	}
	path = GlobalConfigPath()
	want = filepath.Join(home, ".config", "hardneg", "config.yml")
	if path != want {
		t.Errorf("GlobalConfigPath() = %q, want %q", path, want)
	}
}

func TestLoadGlobalConfig_NotFound(t *testing.T) {
	// Point to a directory with no config file
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := LoadGlobalConfig()
	if err != nil {
		t.Fatalf("LoadGlobalConfig() error = %v", err)
	}

	// Should return empty config
	if cfg.OpenAIAPIKey != "" || cfg.OllamaURL != "" {
		t.Errorf("LoadGlobalConfig() = %+v, want empty", cfg)
	}
}

func TestLoadGlobalConfig_Valid(t *testing.T) {
	tmpDir := t.TempDir()
	writeGlobalConfig(t, tmpDir, "openai_api_key: sk-test\nollama_url: http://gpu-box:11434\n")
	t.Setenv("XDG_CONFIG_HOME", tmpDir)

	cfg, err := LoadGlobalConfig()
	if err != nil {
		t.Fatalf("LoadGlobalConfig() error = %v", err)
	}

	if cfg.OpenAIAPIKey != "sk-test" {
		t.Errorf("OpenAIAPIKey = %q, want sk-test", cfg.OpenAIAPIKey)
	}
	if cfg.OllamaURL != "http://gpu-box:11434" {
		t.Errorf("OllamaURL = %q, want http://gpu-box:11434", cfg.OllamaURL)
	}
}

func TestLoadGlobalConfig_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	writeGlobalConfig(t, tmpDir, "openai_api_key: [unclosed\n")
	t.Setenv("XDG_CONFIG_HOME", tmpDir)

	_, err := LoadGlobalConfig()
	if err == nil {
		t.Error("LoadGlobalConfig() should return error for invalid YAML")
	}
}

func TestLoadGlobalConfig_RereadsFile(t *testing.T) {
	tmpDir := t.TempDir()
	writeGlobalConfig(t, tmpDir, "openai_api_key: first\n")
	t.Setenv("XDG_CONFIG_HOME", tmpDir)

	cfg, err := LoadGlobalConfig()
	if err != nil {
		t.Fatalf("LoadGlobalConfig() error = %v", err)
	}
	if cfg.OpenAIAPIKey != "first" {
		t.Errorf("OpenAIAPIKey = %q, want first", cfg.OpenAIAPIKey)
	}

	// No caching: a subsequent load sees the updated file
	writeGlobalConfig(t, tmpDir, "openai_api_key: second\n")
	cfg, err = LoadGlobalConfig()
	if err != nil {
		t.Fatalf("LoadGlobalConfig() error = %v", err)
	}
	if cfg.OpenAIAPIKey != "second" {
		t.Errorf("OpenAIAPIKey = %q, want second", cfg.OpenAIAPIKey)
	}
}

func TestResolveOpenAIKey(t *testing.T) {
	cfg := GlobalConfig{OpenAIAPIKey: "config-key"}

	// Env var takes priority
	t.Setenv("OPENAI_API_KEY", "env-key")
	if got := cfg.ResolveOpenAIKey(); got != "env-key" {
		t.Errorf("ResolveOpenAIKey() = %q, want env-key", got)
	}

	// Fall back to config value
	t.Setenv("OPENAI_API_KEY", "")
	if got := cfg.ResolveOpenAIKey(); got != "config-key" {
		t.Errorf("ResolveOpenAIKey() = %q, want config-key", got)
	}
}

func TestResolveOllamaURL(t *testing.T) {
	tests := []struct {
		name         string
		globalURL    string
		workspaceURL string
		want         string
	}{
		{"workspace wins", "http://global:11434", "http://ws:11434", "http://ws:11434"},
		{"global fallback", "http://global:11434", "", "http://global:11434"},
		{"both empty", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := GlobalConfig{OllamaURL: tt.globalURL}
			got := cfg.ResolveOllamaURL(tt.workspaceURL)
			if got != tt.want {
				t.Errorf("ResolveOllamaURL(%q) = %q, want %q", tt.workspaceURL, got, tt.want)
			}
		})
	}
}
