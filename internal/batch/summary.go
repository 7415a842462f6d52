package batch

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// WriteSummary stores the result as YAML at path.
func (r Result) WriteSummary(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create summary dir: %w", err)
		}
	}
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}
	return nil
}

// readSummary loads a summary written by WriteSummary.
func readSummary(path string) (Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("failed to read summary: %w", err)
	}
	var r Result
	if err := yaml.Unmarshal(data, &r); err != nil {
		return Result{}, fmt.Errorf("failed to decode summary: %w", err)
	}
	return r, nil
}
