// Package cli holds configuration, output and file formats for pricectl.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Environment variables overriding the selected profile.
const (
	EnvBaseURL = "PRICECTL_BASE_URL"
	EnvAPIKey  = "PRICECTL_API_KEY"
)

// Config represents the CLI configuration
type Config struct {
	DefaultProfile string             `yaml:"default_profile"`
	Profiles       map[string]Profile `yaml:"profiles"`
}

// Profile is one pricing API deployment.
type Profile struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
}

// configPath is swapped by tests.
var configPath = defaultConfigPath

func defaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".pricectl", "config.yaml"), nil
}

// GetConfigPath returns the path to the config file
func GetConfigPath() (string, error) {
	return configPath()
}

// LoadConfig loads the configuration from file. A missing file yields an
// empty config.
func LoadConfig() (*Config, error) {
	path, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{
				DefaultProfile: "local",
				Profiles:       make(map[string]Profile),
			}, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if cfg.Profiles == nil {
		cfg.Profiles = make(map[string]Profile)
	}
	return &cfg, nil
}

// SaveConfig saves the configuration to file
func SaveConfig(cfg *Config) error {
	path, err := GetConfigPath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// ResolveProfile returns the connection settings to use.
// Priority: command flags > environment variables > config file.
// requireKey rejects a profile without an API key.
func ResolveProfile(name, baseURLFlag, apiKeyFlag string, requireKey bool) (*Profile, error) {
	p := Profile{}

	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = cfg.DefaultProfile
	}
	if fromFile, ok := cfg.Profiles[name]; ok {
		p = fromFile
	}

	if v := os.Getenv(EnvBaseURL); v != "" {
		p.BaseURL = v
	}
	if v := os.Getenv(EnvAPIKey); v != "" {
		p.APIKey = v
	}
	if baseURLFlag != "" {
		p.BaseURL = baseURLFlag
	}
	if apiKeyFlag != "" {
		p.APIKey = apiKeyFlag
	}

	if p.BaseURL == "" {
		return nil, fmt.Errorf("no base_url for profile '%s': set it in the config file, %s or --base-url", name, EnvBaseURL)
	}
	if requireKey && p.APIKey == "" {
		return nil, fmt.Errorf("no api_key for profile '%s': set it in the config file, %s or --api-key", name, EnvAPIKey)
	}
	return &p, nil
}

// InitConfig creates a default config file
func InitConfig() error {
	cfg := &Config{
		DefaultProfile: "local",
		Profiles: map[string]Profile{
			"local": {
				BaseURL: "http://localhost:8080",
				APIKey:  "admin-123",
			},
			"prod": {
				BaseURL: "https://pricing.example.com",
				APIKey:  "",
			},
		},
	}
	return SaveConfig(cfg)
}

// MaskKey hides all but the first four characters of a key.
func MaskKey(key string) string {
	if len(key) > 4 {
		return key[:4] + "***"
	}
	return "***"
}
