// Package config reads the optional TOML config file with user-level
// defaults for the curius commands.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config represents the top-level configuration
type Config struct {
	ApiUrl      string `toml:"api_url"`
	User        string `toml:"user"`
	Limit       int    `toml:"limit"`
	Attribution bool   `toml:"attribution"`
	LogLevel    string `toml:"log_level"`
}

// Default returns the configuration used when no file overrides it.
func Default() Config {
	return Config{
		Limit:       20,
		Attribution: true,
		LogLevel:    "info",
	}
}

// DefaultPath returns the conventional config location,
// ~/.config/curius/config.toml. Empty when no home directory is known.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "curius", "config.toml")
}

// LoadConfig reads a TOML config file on top of the defaults. A missing
// file is fine: the defaults come back unchanged.
func LoadConfig(path string) (Config, error) {
	config := Default()
	if path == "" {
		return config, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return config, fmt.Errorf("error reading config file: %w", err)
	}

	if err := toml.Unmarshal(data, &config); err != nil {
		return config, fmt.Errorf("error parsing config file: %w", err)
	}

	return config, nil
}
