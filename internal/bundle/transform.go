package bundle

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/dusk-indust/jsbundle/internal/graph"
	"github.com/dusk-indust/jsbundle/internal/plugin"
)

// Transform rewrites one module record into its emitted body: preTransform
// hooks over the original text, the analyzer's edits applied in descending
// start order, the scheduled trailing export assignments plus one assignment
// for every export name not yet satisfied, then postTransform hooks. The
// transformer never re-parses; edit offsets refer to the original text, so a
// preTransform hook that changes byte offsets inside an edit span yields
// undefined output (part of the public plugin contract).
func Transform(ctx context.Context, mod *graph.Module, host *plugin.Host) (string, error) {
	info := plugin.ModuleInfo{Key: mod.Key, ID: mod.ID, Exports: mod.Exports}

	text, err := host.RunPre(ctx, string(mod.Source), info)
	if err != nil {
		return "", err
	}

	text, err = applyEdits(text, mod.Edits)
	if err != nil {
		return "", err
	}

	if appends := trailingAssignments(mod); len(appends) > 0 {
		if !strings.HasSuffix(text, "\n") {
			text += "\n"
		}
		text += strings.Join(appends, "\n") + "\n"
	}

	text, err = host.RunPost(ctx, text, info)
	if err != nil {
		return "", err
	}

	mod.SetState(graph.StateTransformed)
	return text, nil
}

// applyEdits substitutes every edit into text, working from the highest
// start offset down so earlier offsets stay valid.
func applyEdits(text string, edits []graph.Edit) (string, error) {
	ordered := make([]graph.Edit, len(edits))
	copy(ordered, edits)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Start > ordered[j].Start })

	for _, e := range ordered {
		if e.Start > e.End || int(e.End) > len(text) {
			return "", fmt.Errorf("bundle: edit span [%d,%d) out of range (len %d)", e.Start, e.End, len(text))
		}
		text = text[:e.Start] + e.Replacement + text[e.End:]
	}
	return text, nil
}

// trailingAssignments returns the scheduled appends followed by one
// "exports.n = n;" for each named export not already satisfied.
func trailingAssignments(mod *graph.Module) []string {
	out := make([]string, 0, len(mod.Appends))
	out = append(out, mod.Appends...)
	for _, name := range mod.Exports.Names {
		if !mod.Satisfied(name) {
			out = append(out, fmt.Sprintf("exports.%s = %s;", name, name))
		}
	}
	return out
}
