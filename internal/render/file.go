package render

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/verte-zerg/adccmp/internal/logfile"
	"github.com/verte-zerg/adccmp/internal/model"
	"github.com/verte-zerg/adccmp/internal/stats"
)

// Signal builds the report for name and writes its chart into cfg.OutDir.
// It returns the path of the HTML file.
func Signal(name string, cfg model.RenderConfig) (string, error) {
	rep, err := stats.BuildReport(name, cfg)
	if err != nil {
		return "", err
	}
	return File(rep, cfg)
}

// File writes <OutDir>/<name>.html, replacing any previous render, and
// <name>.svg when cfg.Snapshot is set. Nothing is written if rendering fails.
func File(rep stats.Report, cfg model.RenderConfig) (string, error) {
	logger := logrus.WithField("tag", "Render").WithField("signal", rep.Name)

	if err := logfile.CheckName(rep.Name); err != nil {
		return "", err
	}
	var page bytes.Buffer
	if err := HTML(&page, rep); err != nil {
		return "", err
	}
	var svg bytes.Buffer
	if cfg.Snapshot {
		if err := Snapshot(&svg, rep); err != nil {
			return "", err
		}
	}

	if err := os.MkdirAll(cfg.OutDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output dir: %w", err)
	}
	path := filepath.Join(cfg.OutDir, rep.Name+".html")
	if err := os.WriteFile(path, page.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("failed to write chart: %w", err)
	}
	logger.WithField("path", path).Debug("chart written")

	if cfg.Snapshot {
		svgPath := filepath.Join(cfg.OutDir, rep.Name+".svg")
		if err := os.WriteFile(svgPath, svg.Bytes(), 0o644); err != nil {
			return "", fmt.Errorf("failed to write snapshot: %w", err)
		}
		logger.WithField("path", svgPath).Debug("snapshot written")
	}
	return path, nil
}
