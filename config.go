package nimbus

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the process configuration, loaded from YAML with environment
// overrides for secrets.
type Config struct {
	Listen   string `yaml:"listen"`
	LogLevel string `yaml:"log_level"`

	Model struct {
		Name      string  `yaml:"name"`
		APIKey    string  `yaml:"api_key"`
		BaseURL   string  `yaml:"base_url"`
		RateLimit float64 `yaml:"rate_limit"`
		Burst     int     `yaml:"burst"`
	} `yaml:"model"`

	Store struct {
		Backend string `yaml:"backend"` // "memory" or "sqlite"
		DSN     string `yaml:"dsn"`
	} `yaml:"store"`

	// MCPConfig optionally points at an mcp servers file whose tools are
	// registered next to the built-in notebook tools.
	MCPConfig string `yaml:"mcp_config"`
}

func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.Listen = ":8080"
	cfg.LogLevel = "info"
	cfg.Model.Name = "gpt-4o-mini"
	cfg.Model.RateLimit = 2
	cfg.Model.Burst = 4
	cfg.Store.Backend = "memory"
	cfg.Store.DSN = "nimbus.db"
	return cfg
}

// LoadConfig reads the YAML file at path. A missing path returns defaults.
// OPENAI_API_KEY overrides the configured model key.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		cfg.Model.APIKey = key
	}
	return cfg, nil
}
