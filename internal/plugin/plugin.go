// Package plugin implements the hook host of the bundler. Plugins transform
// text at three phases: preTransform and postTransform around each module's
// rewrite, and bundle over the assembled output. Hooks run strictly
// sequentially in configured order; each hook's output feeds the next.
package plugin

import (
	"context"
	"fmt"

	"github.com/dusk-indust/jsbundle/internal/graph"
)

// Phase names a hook point.
type Phase string

const (
	PhasePreTransform  Phase = "preTransform"
	PhasePostTransform Phase = "postTransform"
	PhaseBundle        Phase = "bundle"
)

// ModuleInfo is the read-only view of a module exposed to module-level
// hooks.
type ModuleInfo struct {
	Key     string
	ID      int
	Exports graph.Exports
}

// Hook transforms text at a module-level phase. ctx is the suspension point:
// hooks may block on I/O and must honor cancellation.
type Hook func(ctx context.Context, text string, info ModuleInfo) (string, error)

// BundleHook transforms the assembled bundle text.
type BundleHook func(ctx context.Context, text string) (string, error)

// Plugin is a named record of optional hooks. A nil hook means the plugin
// does not participate in that phase.
type Plugin struct {
	Name          string
	PreTransform  Hook
	PostTransform Hook
	Bundle        BundleHook
}

// Host applies an ordered, fixed plugin list. The list does not change for
// the duration of a bundle call.
type Host struct {
	plugins []Plugin
}

// NewHost creates a Host over plugins in configured order.
func NewHost(plugins []Plugin) *Host {
	return &Host{plugins: plugins}
}

// Len returns the number of configured plugins.
func (h *Host) Len() int { return len(h.plugins) }

// RunPre applies every preTransform hook to text in order.
func (h *Host) RunPre(ctx context.Context, text string, info ModuleInfo) (string, error) {
	return h.runModulePhase(ctx, PhasePreTransform, text, info)
}

// RunPost applies every postTransform hook to text in order.
func (h *Host) RunPost(ctx context.Context, text string, info ModuleInfo) (string, error) {
	return h.runModulePhase(ctx, PhasePostTransform, text, info)
}

// RunBundle applies every bundle hook to the assembled output in order.
func (h *Host) RunBundle(ctx context.Context, text string) (string, error) {
	for _, p := range h.plugins {
		if p.Bundle == nil {
			continue
		}
		out, err := p.Bundle(ctx, text)
		if err != nil {
			return "", &HookError{Plugin: p.Name, Phase: PhaseBundle, Err: err}
		}
		text = out
	}
	return text, nil
}

func (h *Host) runModulePhase(ctx context.Context, phase Phase, text string, info ModuleInfo) (string, error) {
	for _, p := range h.plugins {
		var hook Hook
		switch phase {
		case PhasePreTransform:
			hook = p.PreTransform
		case PhasePostTransform:
			hook = p.PostTransform
		}
		if hook == nil {
			continue
		}
		out, err := hook(ctx, text, info)
		if err != nil {
			return "", &HookError{Plugin: p.Name, Phase: phase, Err: err}
		}
		text = out
	}
	return text, nil
}

// HookError wraps a failure from a plugin hook with the plugin name and
// phase. Hook errors are fatal to the bundle call.
type HookError struct {
	Plugin string
	Phase  Phase
	Err    error
}

func (e *HookError) Error() string {
	return fmt.Sprintf("plugin: %s hook %s: %v", e.Plugin, e.Phase, e.Err)
}

func (e *HookError) Unwrap() error { return e.Err }
