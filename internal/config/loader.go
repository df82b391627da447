package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Loader handles loading configuration from multiple sources
type Loader struct {
	config *Config
}

// NewLoader creates a new configuration loader
func NewLoader() *Loader {
	return &Loader{
		config: NewConfig(),
	}
}

// Load loads configuration using the cascading strategy:
// 1. Start with defaults
// 2. Override with the YAML config file, if one exists
// 3. Override with environment variables
func (l *Loader) Load(configPath string) (*Config, error) {
	if err := l.loadFile(configPath); err != nil {
		return nil, err
	}

	if err := l.config.LoadFromEnvironment(); err != nil {
		return nil, err
	}

	if err := l.config.Validate(); err != nil {
		return nil, err
	}

	return l.config, nil
}

// loadFile merges a YAML config file into the configuration. An empty path
// falls back to SK_CONFIG and then the default location; a missing file at
// either fallback is not an error, but an explicitly named file must exist.
func (l *Loader) loadFile(configPath string) error {
	explicit := configPath != ""
	if configPath == "" {
		configPath = os.Getenv("SK_CONFIG")
	}
	if configPath == "" {
		configPath = defaultConfigPath()
	}
	if configPath == "" {
		return nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return nil
		}
		return fmt.Errorf("read config file %s: %w", configPath, err)
	}

	if err := yaml.Unmarshal(data, l.config); err != nil {
		return fmt.Errorf("parse config file %s: %w", configPath, err)
	}
	return nil
}

func defaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return homeDir + "/.sk/config.yaml"
}
