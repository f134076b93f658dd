package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// GlobalConfig represents configuration stored in ~/.config/hardneg/config.yml.
// It holds machine-level settings that apply across workspaces, mainly
// provider credentials and endpoints. The file is optional.
type GlobalConfig struct {
	OpenAIAPIKey string `yaml:"openai_api_key,omitempty"`
	OllamaURL    string `yaml:"ollama_url,omitempty"`
}

const (
	// GlobalConfigDir is the directory name under XDG_CONFIG_HOME.
	GlobalConfigDir = "hardneg"
	// GlobalConfigFile is the config file name.
	GlobalConfigFile = "config.yml"
)

// GlobalConfigPath returns the path to the global config file.
// Respects XDG_CONFIG_HOME, defaults to ~/.config/hardneg/config.yml.
func GlobalConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, GlobalConfigDir, GlobalConfigFile)
}

// LoadGlobalConfig loads the global configuration file.
// Returns an empty config (not an error) if the file doesn't exist.
func LoadGlobalConfig() (GlobalConfig, error) {
	path := GlobalConfigPath()
	if path == "" {
		return GlobalConfig{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return GlobalConfig{}, nil
		}
		return GlobalConfig{}, fmt.Errorf("reading global config: %w", err)
	}

	var cfg GlobalConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return GlobalConfig{}, fmt.Errorf("parsing global config: %w", err)
	}

	return cfg, nil
}

// ResolveOpenAIKey returns the OpenAI API key, preferring the environment
// over the global config file.
func (g GlobalConfig) ResolveOpenAIKey() string {
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		return key
	}
	return g.OpenAIAPIKey
}

// ResolveOllamaURL returns the Ollama endpoint: the workspace override
// when set, then the global config, then empty for the built-in default.
func (g GlobalConfig) ResolveOllamaURL(workspaceURL string) string {
	if workspaceURL != "" {
		return workspaceURL
	}
	return g.OllamaURL
}
