package plugin

import (
	"context"
	"fmt"
)

// Constructor builds a plugin from its config-file options.
type Constructor func(options map[string]any) (Plugin, error)

// Registry maps config-file plugin names to constructors so the CLI surface
// can compose plugins without Go code.
type Registry struct {
	constructors map[string]Constructor
}

// NewRegistry returns a registry with the built-in plugins registered.
func NewRegistry() *Registry {
	r := &Registry{constructors: make(map[string]Constructor)}
	r.Register("banner", newBanner)
	return r
}

// Register adds a constructor under name, replacing any previous entry.
func (r *Registry) Register(name string, c Constructor) {
	r.constructors[name] = c
}

// Build constructs the plugin named in the config with the given options.
func (r *Registry) Build(name string, options map[string]any) (Plugin, error) {
	c, ok := r.constructors[name]
	if !ok {
		return Plugin{}, fmt.Errorf("plugin: unknown plugin %q", name)
	}
	return c(options)
}

// newBanner builds the banner plugin, which prepends a comment line to the
// bundle. Option "text" is the banner text, prepended as given followed by a
// newline; no comment wrapper is added.
func newBanner(options map[string]any) (Plugin, error) {
	text, _ := options["text"].(string)
	if text == "" {
		return Plugin{}, fmt.Errorf("plugin: banner requires a \"text\" option")
	}
	return Plugin{
		Name: "banner",
		Bundle: func(_ context.Context, bundle string) (string, error) {
			return text + "\n" + bundle, nil
		},
	}, nil
}
