package config

import (
	"github.com/verte-zerg/adccmp/internal/generator"
	"github.com/verte-zerg/adccmp/internal/metrics"
	"github.com/verte-zerg/adccmp/internal/model"
)

// Defaults used when neither a flag nor the config file sets a value.
const (
	DefaultLogsDir        = "logs"
	DefaultOutDir         = "output"
	DefaultIPrimary       = 100.0
	DefaultPeakPercentile = 99.5
)

// Defaults returns the render settings before any config or flag is applied.
func Defaults() model.RenderConfig {
	return model.RenderConfig{
		LogsDir:         DefaultLogsDir,
		OutDir:          DefaultOutDir,
		IPrimary:        DefaultIPrimary,
		CTFullScaleV:    metrics.DefaultCTFullScaleV,
		PeakPercentile:  DefaultPeakPercentile,
		RemoveDC:        true,
		Align:           model.AlignOverlap,
		ReferencePoints: generator.DefaultPoints,
	}
}
