// Package config provides configuration management for the paramstore CLI.
package config

import (
	"os"
	"path/filepath"
)

// CacheDir returns the paramstore cache directory.
// Uses XDG_CACHE_HOME/paramstore, defaulting to ~/.cache/paramstore.
func CacheDir() (string, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".cache")
	}
	return filepath.Join(base, "paramstore"), nil
}

// Dir returns the paramstore config directory.
// Uses XDG_CONFIG_HOME/paramstore, defaulting to ~/.config/paramstore.
func Dir() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "paramstore"), nil
}
