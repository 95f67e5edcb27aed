// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/kongjun0320/zf-webpack/internal/compiler"
	"github.com/kongjun0320/zf-webpack/internal/config"

	"github.com/spf13/cobra"
)

type buildFlags struct {
	entries    []string
	outputPath string
	contextDir string
	watch      bool
	minify     bool
	json       bool
}

func newBuildCommand(app *App, root *rootFlags) *cobra.Command {
	flags := &buildFlags{}

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Bundle the configured entries",
		Long: `Bundle the configured entries into the output directory.

Flags override the configuration file and ZFPACK_* environment variables.
Exit status is 1 when the build fails and 2 when the configuration is
invalid.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBuild(cmd.Context(), app, root, flags)
		},
	}

	cmd.Flags().StringArrayVarP(&flags.entries, "entry", "e", nil, "entry as name=path; repeatable, replaces configured entries")
	cmd.Flags().StringVarP(&flags.outputPath, "output-path", "o", "", "output directory")
	cmd.Flags().StringVar(&flags.contextDir, "context", "", "project directory (default: working directory)")
	cmd.Flags().BoolVarP(&flags.watch, "watch", "w", false, "rebuild when a bundled file changes")
	cmd.Flags().BoolVar(&flags.minify, "minify", false, "minify the emitted assets")
	cmd.Flags().BoolVar(&flags.json, "json", false, "print stats as JSON instead of a table")

	return cmd
}

func runBuild(ctx context.Context, app *App, root *rootFlags, flags *buildFlags) error {
	cfg, err := app.loadConfig(ctx, root, flags.contextDir)
	if err != nil {
		return &ExitError{Code: ExitUsage, Err: err}
	}
	if err := applyBuildFlags(cfg, root, flags); err != nil {
		return &ExitError{Code: ExitUsage, Err: err}
	}

	logger := config.NewLogger(app.stderr, cfg.Log)
	opts, err := cfg.CompilerOptions(app.Fs, logger)
	if err != nil {
		return &ExitError{Code: ExitUsage, Err: err}
	}
	plugins, err := cfg.BuildPlugins()
	if err != nil {
		return &ExitError{Code: ExitUsage, Err: err}
	}
	c, err := compiler.New(opts, plugins...)
	if err != nil {
		return &ExitError{Code: ExitUsage, Err: err}
	}
	defer c.Close()

	failed := false
	runErr := c.Run(ctx, func(err error, stats *compiler.Stats) {
		if err != nil {
			failed = true
			renderFailure(app.stderr, err, root.verbose)
			return
		}
		failed = false
		if flags.json {
			if jsonErr := renderStatsJSON(app.stdout, stats); jsonErr != nil {
				logger.Error("write stats", "err", jsonErr)
			}
			return
		}
		renderAssets(app.stdout, stats)
	})
	if runErr != nil {
		renderFailure(app.stderr, runErr, root.verbose)
		return &ExitError{Code: ExitCompileFailed}
	}
	if failed && !cfg.Watch.Enabled {
		return &ExitError{Code: ExitCompileFailed}
	}
	return nil
}

// applyBuildFlags layers command-line overrides on top of cfg and checks
// the result again.
func applyBuildFlags(cfg *config.Config, root *rootFlags, flags *buildFlags) error {
	if len(flags.entries) > 0 {
		entries := make(map[string]string, len(flags.entries))
		for _, raw := range flags.entries {
			name, path, ok := strings.Cut(raw, "=")
			if !ok {
				name, path = config.DefaultEntryName, raw
			}
			if _, dup := entries[name]; dup {
				return fmt.Errorf("--entry %q given twice", name)
			}
			entries[name] = path
		}
		cfg.Entry = entries
	}
	if flags.contextDir != "" {
		abs, err := filepath.Abs(flags.contextDir)
		if err != nil {
			return fmt.Errorf("--context: %w", err)
		}
		cfg.Context = abs
	}
	if flags.outputPath != "" {
		cfg.Output.Path = flags.outputPath
	}
	if flags.minify {
		cfg.Output.Minify = true
	}
	if flags.watch {
		cfg.Watch.Enabled = true
	}
	switch {
	case root.logLevel != "":
		cfg.Log.Level = config.LogLevel(root.logLevel)
	case root.verbose:
		cfg.Log.Level = config.LogLevelDebug
	}
	return cfg.Validate()
}
