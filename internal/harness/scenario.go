// Package harness provides a conformance testing framework for the weft
// render engine.
//
// A scenario is a YAML file pairing an input template with the context
// variables it renders under. The harness runs the full pipeline (source
// adapter, engine with the standard directive set, serializer) and
// compares the output against a golden file, so a scenario exercises the
// same path the CLI does.
package harness

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// Scenario defines one conformance render.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description,omitempty"`

	// Template is the input markup, inline.
	Template string `yaml:"template"`

	// Context holds the root-scope variables the template renders under.
	Context map[string]any `yaml:"context,omitempty"`

	// Prefix overrides the directive attribute prefix. Empty means the
	// standard default.
	Prefix string `yaml:"prefix,omitempty"`

	// Mode selects the markup mode: "html" (default) or "xml".
	Mode string `yaml:"mode,omitempty"`

	// WantError, when non-empty, asserts the render fails and the error
	// contains this substring. Error scenarios have no golden file.
	WantError string `yaml:"want_error,omitempty"`
}

// LoadScenario reads and validates a single scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}

	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	if s.Name == "" {
		return nil, fmt.Errorf("scenario %s: missing name", path)
	}
	if s.Template == "" && s.WantError == "" {
		return nil, fmt.Errorf("scenario %s: missing template", path)
	}
	switch s.Mode {
	case "", "html", "xml":
	default:
		return nil, fmt.Errorf("scenario %s: unknown mode %q", path, s.Mode)
	}
	return &s, nil
}

// LoadScenarios reads every *.yaml scenario under dir, sorted by filename
// so test order is stable.
func LoadScenarios(dir string) ([]*Scenario, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)

	scenarios := make([]*Scenario, 0, len(matches))
	for _, path := range matches {
		s, err := LoadScenario(path)
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}
