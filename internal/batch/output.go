package batch

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/abhinavpachauri/igcse-estimator/internal/model"
)

// Output file names.
const (
	ThresholdsFile = "thresholds.json"
	ComponentsFile = "components.json"
)

// WriteOutput writes thresholds.json and components.json into dir. Each file is replaced atomically.
func WriteOutput(dir string, out Output) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}
	thresholds := out.Thresholds
	if thresholds == nil {
		thresholds = []model.ParsedThreshold{}
	}
	components := out.Components
	if components == nil {
		components = []model.ParsedComponent{}
	}
	if err := writeJSONAtomic(filepath.Join(dir, ThresholdsFile), thresholds); err != nil {
		return err
	}
	return writeJSONAtomic(filepath.Join(dir, ComponentsFile), components)
}

// ReadThresholds loads a thresholds.json written by WriteOutput.
func ReadThresholds(dir string) ([]model.ParsedThreshold, error) {
	var out []model.ParsedThreshold
	if err := readJSON(filepath.Join(dir, ThresholdsFile), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ReadComponents loads a components.json written by WriteOutput. A missing file yields no components.
func ReadComponents(dir string) ([]model.ParsedComponent, error) {
	var out []model.ParsedComponent
	err := readJSON(filepath.Join(dir, ComponentsFile), &out)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return nil
}

func writeJSONAtomic(path string, v any) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	writer := bufio.NewWriter(tmpFile)
	enc := json.NewEncoder(writer)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode %s: %w", filepath.Base(path), err)
	}
	if err := writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush %s: %w", filepath.Base(path), err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	return nil
}
