// Package config loads the daemon configuration file.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the daemon's static configuration. Flags and environment
// variables override file values at the CLI layer.
type Config struct {
	DataDir     string `yaml:"data_dir"`
	LogLevel    string `yaml:"log_level"`
	Listen      string `yaml:"listen"`
	DevtoolsURL string `yaml:"devtools_url"`

	ChatBaseURL      string `yaml:"chat_base_url"`
	MicroblogBaseURL string `yaml:"microblog_base_url"`
	AIBaseURL        string `yaml:"ai_base_url"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		DataDir:     "./data",
		LogLevel:    "info",
		Listen:      ":8710",
		DevtoolsURL: "ws://127.0.0.1:9222",
	}
}

// Load reads a YAML config file over the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		return cfg, nil
	}

	body, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(body, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	return cfg, nil
}
