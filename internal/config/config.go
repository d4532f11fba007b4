// Package config loads the bundler configuration file.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file used when the CLI gets no positional
// argument.
const DefaultPath = "bundler.config.yml"

// File is the recognized configuration surface. Unknown keys are ignored.
type File struct {
	// Entry is required: the path to the entry source file, resolved
	// relative to the working directory.
	Entry string `yaml:"entry"`

	// Output is the bundle path; the bundler defaults it when empty.
	Output string `yaml:"output,omitempty"`

	// Plugins are applied in listed order.
	Plugins []PluginSpec `yaml:"plugins,omitempty"`
}

// PluginSpec names a registered plugin and its options.
type PluginSpec struct {
	Name    string         `yaml:"name"`
	Options map[string]any `yaml:"options,omitempty"`
}

// Load reads and validates the config file at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{Path: path, Err: err}
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, &Error{Path: path, Err: err}
	}
	if f.Entry == "" {
		return nil, &Error{Path: path, Err: fmt.Errorf("missing required key %q", "entry")}
	}
	return &f, nil
}

// Error reports a missing, unreadable, or invalid config file.
type Error struct {
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("config: %s: %v", e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
