package config

import (
	"os"
	"path/filepath"
)

const (
	appDir     = "adccmp"
	configFile = "config.toml"
)

// ConfigDir returns $XDG_CONFIG_HOME/adccmp, falling back to
// ~/.config/adccmp and then to ./adccmp when no home directory is known.
func ConfigDir() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		base = "."
		if home, err := os.UserHomeDir(); err == nil && home != "" {
			base = filepath.Join(home, ".config")
		}
	}
	return filepath.Join(base, appDir)
}

// DefaultConfigPath returns the default TOML config path.
func DefaultConfigPath() string {
	return filepath.Join(ConfigDir(), configFile)
}
