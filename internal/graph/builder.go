package graph

import (
	"context"
	"os"

	"github.com/charmbracelet/log"
)

// Builder constructs the dependency graph by depth-first recursion from the
// entry module. Discovery is strictly sequential; module ids are assigned in
// first-seen order. A second encounter of a canonical key is a no-op, which
// makes the recursion cycle and sharing safe.
type Builder struct {
	resolver *Resolver
	parser   Parser
	logger   *log.Logger
}

// NewBuilder wires a Builder. logger may be nil, in which case the package
// default logger is used.
func NewBuilder(resolver *Resolver, parser Parser, logger *log.Logger) *Builder {
	if logger == nil {
		logger = log.Default()
	}
	return &Builder{
		resolver: resolver,
		parser:   parser,
		logger:   logger,
	}
}

// Build resolves entry against the working directory and returns the graph
// of its transitive local imports. Read and parse failures anywhere in the
// closure are fatal; unresolvable local specifiers are logged and skipped so
// the rewritten import fails at runtime instead.
func (b *Builder) Build(ctx context.Context, entry string) (*Graph, error) {
	key, err := b.resolver.EntryKey(entry)
	if err != nil {
		return nil, err
	}

	g := NewGraph()
	if err := b.visit(ctx, g, key); err != nil {
		return nil, err
	}
	return g, nil
}

func (b *Builder) visit(ctx context.Context, g *Graph, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if g.Lookup(key) != nil {
		return nil
	}

	source, err := os.ReadFile(key)
	if err != nil {
		return &ReadError{Key: key, Err: err}
	}

	mod := &Module{Key: key, Source: source}

	analysis, err := b.parser.Parse(ctx, key, source)
	if err != nil {
		return err
	}
	mod.SetState(StateParsed)

	mod.Edits = analysis.Edits
	mod.Imports = analysis.Imports
	mod.Exports = analysis.Exports
	mod.Appends = analysis.Appends
	for _, name := range analysis.Satisfied {
		mod.markSatisfied(name)
	}
	mod.SetState(StateAnalyzed)

	for _, w := range analysis.Warnings {
		b.logger.Warn("unsupported construct left unchanged",
			"construct", w.Construct, "module", key, "offset", w.Start)
	}

	g.insert(mod)

	for _, im := range mod.Imports {
		if im.External {
			continue
		}
		if im.Resolved == "" {
			b.logger.Warn("skipping unresolvable import specifier",
				"specifier", im.Specifier, "module", key)
			continue
		}
		if err := b.visit(ctx, g, im.Resolved); err != nil {
			return err
		}
	}
	return nil
}
