// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package batch

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"
)

// Manifest is the on-disk description of a batch: the input files and the
// output artifact path. A researcher can keep a manifest next to a paper
// collection and rerun the same batch without retyping paths.
type Manifest struct {
	// Files lists the PDF paths making up the batch.
	Files []string `yaml:"files"`

	// Output is the CSV artifact path. Empty means the default.
	Output string `yaml:"output,omitempty"`
}

// ReadManifest loads a batch manifest from a YAML file.
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}
	return &m, nil
}

// WriteManifest saves a batch manifest to a YAML file.
func WriteManifest(path string, m *Manifest) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshaling manifest: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
