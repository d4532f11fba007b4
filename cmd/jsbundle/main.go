package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/dusk-indust/jsbundle/internal/bundle"
	"github.com/dusk-indust/jsbundle/internal/config"
	"github.com/dusk-indust/jsbundle/internal/plugin"
)

// version is set by goreleaser at build time.
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "jsbundle [config]",
		Short: "Bundle a JavaScript module graph into a single script",
		Long: "jsbundle reads a config file (default " + config.DefaultPath + "), builds the\n" +
			"dependency graph from the configured entry module, and writes a single\n" +
			"self-contained bundle.",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.DefaultPath
			if len(args) == 1 {
				path = args[0]
			}
			return run(cmd, path)
		},
	}
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the jsbundle version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	})
	return root
}

func run(cmd *cobra.Command, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	registry := plugin.NewRegistry()
	plugins := make([]plugin.Plugin, 0, len(cfg.Plugins))
	for _, spec := range cfg.Plugins {
		p, err := registry.Build(spec.Name, spec.Options)
		if err != nil {
			return err
		}
		plugins = append(plugins, p)
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: false})

	b, err := bundle.New(bundle.Options{
		Entry:   cfg.Entry,
		Output:  cfg.Output,
		Plugins: plugins,
		Logger:  logger,
	})
	if err != nil {
		return err
	}
	defer b.Close()

	// Output directory creation sits outside the core; the bundler performs
	// the single output write.
	output := cfg.Output
	if output == "" {
		output = bundle.DefaultOutput
	}
	if dir := filepath.Dir(output); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory %s: %w", dir, err)
		}
	}

	_, err = b.Bundle(cmd.Context())
	return err
}
