// Package config loads the YAML build manifest.
//
//	out: assets/data
//	parallel: 2
//	sources:
//	  - path: bsb_concordance.xlsx
//	  - path: bsb_topical_index.xlsx
//	    skip_rows: 2
//	    sheet: Topics
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/FocuswithJustin/selah-index/core/errors"
)

// DefaultParallel is the number of jobs run at once when the manifest does
// not say.
const DefaultParallel = 2

// Source is one input of a build.
type Source struct {
	Path      string `yaml:"path"`
	SkipRows  int    `yaml:"skip_rows,omitempty"`
	Sheet     string `yaml:"sheet,omitempty"`
	Table     string `yaml:"table,omitempty"`
	Delimiter string `yaml:"delimiter,omitempty"`
}

// Manifest describes a build.
type Manifest struct {
	Out      string   `yaml:"out"`
	Parallel int      `yaml:"parallel,omitempty"`
	Sources  []Source `yaml:"sources"`
}

// LoadFile reads and validates a manifest. Relative paths are resolved
// against the manifest's directory.
func LoadFile(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFound("manifest", path)
		}
		return nil, errors.NewIO("read", path, err)
	}

	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}
	m.resolve(filepath.Dir(path))
	return m, nil
}

// Parse parses and validates manifest YAML.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrap(err, "failed to parse manifest YAML")
	}
	applyDefaults(&m)
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

func applyDefaults(m *Manifest) {
	if m.Parallel == 0 {
		m.Parallel = DefaultParallel
	}
}

// Validate checks the manifest for missing or out-of-range values.
func (m *Manifest) Validate() error {
	if m.Out == "" {
		return errors.NewValidation("out", "output directory is required")
	}
	if m.Parallel < 0 {
		return errors.NewValidation("parallel", "must not be negative")
	}
	if len(m.Sources) == 0 {
		return errors.NewValidation("sources", "at least one source is required")
	}
	for i, s := range m.Sources {
		if s.Path == "" {
			return errors.NewValidation(fmt.Sprintf("sources[%d].path", i), "path is required")
		}
		if s.SkipRows < 0 {
			return errors.NewValidation(fmt.Sprintf("sources[%d].skip_rows", i), "must not be negative")
		}
		if len([]rune(s.Delimiter)) > 1 {
			return errors.NewValidation(fmt.Sprintf("sources[%d].delimiter", i), "must be a single character")
		}
	}
	return nil
}

func (m *Manifest) resolve(dir string) {
	if !filepath.IsAbs(m.Out) {
		m.Out = filepath.Join(dir, m.Out)
	}
	for i := range m.Sources {
		if !filepath.IsAbs(m.Sources[i].Path) {
			m.Sources[i].Path = filepath.Join(dir, m.Sources[i].Path)
		}
	}
}

// Paths returns the source paths in manifest order.
func (m *Manifest) Paths() []string {
	out := make([]string, len(m.Sources))
	for i, s := range m.Sources {
		out[i] = s.Path
	}
	return out
}
