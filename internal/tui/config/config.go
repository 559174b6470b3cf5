package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all TUI configuration
type Config struct {
	Server ServerConfig `yaml:"server"`
	UI     UIConfig     `yaml:"ui"`
}

// ServerConfig contains server connection settings
type ServerConfig struct {
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
	BaseURL string `yaml:"base_url"`
}

// UIConfig for UI preferences
type UIConfig struct {
	ShopPageSize   int `yaml:"shop_page_size"`
	ReviewPageSize int `yaml:"review_page_size"`
	MapDebounceMs  int `yaml:"map_debounce_ms"`
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:    "localhost",
			Port:    8080,
			BaseURL: "http://localhost:8080/api",
		},
		UI: UIConfig{
			ShopPageSize:   12,
			ReviewPageSize: 5,
			MapDebounceMs:  400,
		},
	}
}

// Load loads configuration from file, falling back to defaults
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = findConfigFile()
	}
	if configPath == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return Default(), nil
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Fill in computed fields. A public host gets HTTPS, localhost plain HTTP.
	scheme := "http"
	if cfg.Server.Host != "localhost" && cfg.Server.Host != "127.0.0.1" {
		scheme = "https"
	}
	cfg.Server.BaseURL = fmt.Sprintf("%s://%s:%d/api", scheme, cfg.Server.Host, cfg.Server.Port)

	if cfg.UI.ShopPageSize <= 0 {
		cfg.UI.ShopPageSize = 12
	}
	if cfg.UI.ReviewPageSize <= 0 {
		cfg.UI.ReviewPageSize = 5
	}
	if cfg.UI.MapDebounceMs <= 0 {
		cfg.UI.MapDebounceMs = 400
	}

	return &cfg, nil
}

// Save saves configuration to file
func (c *Config) Save(configPath string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// findConfigFile searches for config in standard locations
func findConfigFile() string {
	locations := []string{
		"./noodlemap-tui.yaml",
		"./config/tui.yaml",
		filepath.Join(os.Getenv("HOME"), ".config", "noodlemap", "tui.yaml"),
		filepath.Join(os.Getenv("HOME"), ".noodlemap-tui.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// GetBaseURL returns the computed HTTP base URL
func (c *Config) GetBaseURL() string {
	if c.Server.BaseURL != "" {
		return c.Server.BaseURL
	}
	return fmt.Sprintf("http://%s:%d/api", c.Server.Host, c.Server.Port)
}
