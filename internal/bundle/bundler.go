// Package bundle runs one bundle call: graph construction, per-module
// transformation, and bundle assembly around the caching runtime. A Bundler
// encapsulates the call's graph, plugin list, and working directory; no
// process-wide state survives across calls.
package bundle

import (
	"context"
	"os"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/dusk-indust/jsbundle/internal/graph"
	"github.com/dusk-indust/jsbundle/internal/plugin"
)

// DefaultOutput is the bundle path used when none is configured.
const DefaultOutput = "dist/bundle.js"

// Options configure one bundle call. Entry is required; everything else has
// a usable zero value.
type Options struct {
	// Entry is the path to the entry source file, resolved relative to Cwd.
	Entry string

	// Output is the bundle path. Defaults to DefaultOutput.
	Output string

	// Cwd anchors relative module keys. Defaults to the process working
	// directory.
	Cwd string

	// Plugins are applied in order at each hook phase.
	Plugins []plugin.Plugin

	// Logger receives warnings and bundle stats. Defaults to log.Default().
	Logger *log.Logger
}

// Result summarizes a successful bundle call.
type Result struct {
	Path    string
	Modules int
	Bytes   int
}

// Bundler performs a single bundle call.
type Bundler struct {
	opts     Options
	resolver *graph.Resolver
	builder  *graph.Builder
	parser   graph.Parser
	host     *plugin.Host
	logger   *log.Logger
}

// New wires a Bundler from options.
func New(opts Options) (*Bundler, error) {
	if opts.Cwd == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		opts.Cwd = cwd
	}
	if opts.Output == "" {
		opts.Output = DefaultOutput
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	resolver := graph.NewResolver(opts.Cwd)
	parser := graph.NewTreeSitterParser(resolver)

	return &Bundler{
		opts:     opts,
		resolver: resolver,
		builder:  graph.NewBuilder(resolver, parser, opts.Logger),
		parser:   parser,
		host:     plugin.NewHost(opts.Plugins),
		logger:   opts.Logger,
	}, nil
}

// Close releases parser resources.
func (b *Bundler) Close() error {
	return b.parser.Close()
}

// Generate builds the graph, transforms every module, and assembles the
// bundle text without writing it. Transformation fans out across modules;
// records are immutable after analysis so the fan-out is race-free, and the
// emitted table follows discovery order regardless of completion order.
func (b *Bundler) Generate(ctx context.Context) (string, *graph.Graph, error) {
	g, err := b.builder.Build(ctx, b.opts.Entry)
	if err != nil {
		return "", nil, err
	}

	mods := g.Modules()
	bodies := make([]string, len(mods))
	relKeys := make([]string, len(mods))

	eg, egctx := errgroup.WithContext(ctx)
	for _, mod := range mods {
		relKeys[mod.ID] = b.resolver.RelKey(mod.Key)
		eg.Go(func() error {
			body, err := Transform(egctx, mod, b.host)
			if err != nil {
				return err
			}
			bodies[mod.ID] = body
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return "", nil, err
	}

	text := assemble(relKeys, bodies, relKeys[0])

	text, err = b.host.RunBundle(ctx, text)
	if err != nil {
		return "", nil, err
	}

	for _, mod := range mods {
		mod.SetState(graph.StateEmitted)
	}
	return text, g, nil
}

// Bundle runs the full pipeline and writes the output file. The write is the
// single filesystem mutation of a bundle call and happens only after every
// stage has succeeded; a failed call produces no partial output.
func (b *Bundler) Bundle(ctx context.Context) (*Result, error) {
	text, g, err := b.Generate(ctx)
	if err != nil {
		return nil, err
	}

	if err := os.WriteFile(b.opts.Output, []byte(text), 0o644); err != nil {
		return nil, &EmitError{Path: b.opts.Output, Err: err}
	}

	b.logger.Info("bundle written",
		"output", b.opts.Output, "modules", g.Len(), "bytes", len(text))

	return &Result{
		Path:    b.opts.Output,
		Modules: g.Len(),
		Bytes:   len(text),
	}, nil
}
