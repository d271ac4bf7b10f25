// Package manifest loads the small on-disk build manifest (SPEC_FULL.md
// §2): the entry module's name, the runtime library path, and an optional
// max_tuple override. It is the file-based counterpart of the CLI's
// positional program argument and MAX_TUPLE env var — module discovery
// itself stays an external collaborator's concern (spec.md §1); this
// package only supplies the name the driver hands it.
//
// Grounded structurally on the teacher's internal/manifest (Load/Save via a
// package-level file format, a Validate pass run right after unmarshaling)
// but adapted from that package's JSON example-tracking schema to a small
// YAML build manifest, per SPEC_FULL.md §2's yaml.v3 wiring.
package manifest

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultFileName is the manifest file the driver looks for in a project
// root when no path is given explicitly.
const DefaultFileName = "zion.yaml"

// Manifest is the parsed contents of a zion.yaml file.
type Manifest struct {
	Entry      string `yaml:"entry"`
	RuntimeLib string `yaml:"runtime_lib"`
	MaxTuple   int    `yaml:"max_tuple,omitempty"`
}

// Load reads and validates a manifest from path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("manifest: read %s: %w", path, err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("manifest: parse %s: %w", path, err)
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("manifest: %s: %w", path, err)
	}
	return &m, nil
}

// Save writes m to path as YAML.
func (m *Manifest) Save(path string) error {
	if err := m.Validate(); err != nil {
		return err
	}
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("manifest: marshal: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks the manifest's required fields.
func (m *Manifest) Validate() error {
	if m.Entry == "" {
		return fmt.Errorf("missing entry module name")
	}
	if m.RuntimeLib == "" {
		return fmt.Errorf("missing runtime_lib path")
	}
	if m.MaxTuple < 0 {
		return fmt.Errorf("max_tuple must be non-negative, got %d", m.MaxTuple)
	}
	return nil
}

// EffectiveMaxTuple returns m.MaxTuple if set, otherwise fallback (normally
// config.DefaultMaxTuple or the MAX_TUPLE env var's value) — the manifest
// overrides the environment when both are present.
func (m *Manifest) EffectiveMaxTuple(fallback int) int {
	if m.MaxTuple > 0 {
		return m.MaxTuple
	}
	return fallback
}
