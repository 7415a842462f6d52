// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Paths        PathsConfig        `toml:"paths"`
	Render       RenderConfig       `toml:"render"`
	Reader       ReaderConfig       `toml:"reader"`
	Thermocouple ThermocoupleConfig `toml:"thermocouple"`
}

// PathsConfig maps input and output directories.
type PathsConfig struct {
	LogsDir *string `toml:"logs-dir"`
	OutDir  *string `toml:"out-dir"`
}

// RenderConfig maps comparison and chart settings.
type RenderConfig struct {
	IPrimary        *float64 `toml:"i-primary"`
	CTFullScaleV    *float64 `toml:"ct-full-scale-v"`
	PeakPercentile  *float64 `toml:"peak-percentile"`
	RemoveDC        *bool    `toml:"remove-dc"`
	Align           *string  `toml:"align"`
	ReferencePoints *int     `toml:"reference-points"`
	Snapshot        *bool    `toml:"snapshot"`
}

// ReaderConfig maps log parsing settings.
type ReaderConfig struct {
	Strict *bool `toml:"strict"`
}

// ThermocoupleConfig maps the linear thermocouple conversion.
type ThermocoupleConfig struct {
	Sensitivity *float64 `toml:"sensitivity"`
	Offset      *float64 `toml:"offset"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}
