// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/kongjun0320/zf-webpack/internal/config"

	"github.com/spf13/cobra"
)

// newConfigCommand creates the `zfpack config` command tree.
func newConfigCommand(app *App, root *rootFlags) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect zfpack configuration",
		Long: `Inspect zfpack configuration.

Configuration is read from zfpack.cue, or zfpack.toml when no CUE file
exists, in the working directory. ZFPACK_* environment variables override
file values; for example ZFPACK_OUTPUT_PATH sets output.path.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the loaded configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadForDisplay(cmd.Context(), app, root)
			if err != nil {
				return err
			}
			showConfig(app.stdout, cfg)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Print the loaded configuration as CUE",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadForDisplay(cmd.Context(), app, root)
			if err != nil {
				return err
			}
			out, err := config.Dump(cfg)
			if err != nil {
				return &ExitError{Code: ExitCompileFailed, Err: err}
			}
			_, err = app.stdout.Write(out)
			return err
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "schema",
		Short: "Print the configuration schema",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			_, err := app.stdout.Write(config.Schema())
			return err
		},
	})

	return cfgCmd
}

func loadForDisplay(ctx context.Context, app *App, root *rootFlags) (*config.Config, error) {
	cfg, err := app.loadConfig(ctx, root, "")
	if err != nil {
		return nil, &ExitError{Code: ExitUsage, Err: err}
	}
	return cfg, nil
}

func showConfig(w io.Writer, cfg *config.Config) {
	kv := func(key, value string) {
		fmt.Fprintf(w, "%s: %s\n", KeyStyle.Render(key), value)
	}
	list := func(values []string) string {
		if len(values) == 0 {
			return SubtitleStyle.Render("(none)")
		}
		return strings.Join(values, ", ")
	}

	fmt.Fprintln(w, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(w)

	if cfg.Source != "" {
		kv("Config file", cfg.Source)
	} else {
		kv("Config file", SubtitleStyle.Render("(using defaults)"))
	}
	fmt.Fprintln(w)

	kv("context", cfg.Context)
	names := make([]string, 0, len(cfg.Entry))
	for name := range cfg.Entry {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		kv("entry."+name, cfg.Entry[name])
	}
	kv("output.path", cfg.Output.Path)
	kv("output.filename", cfg.Output.Filename)
	kv("output.minify", fmt.Sprint(cfg.Output.Minify))
	kv("resolve.extensions", list(cfg.Resolve.Extensions))
	for i, r := range cfg.Module.Rules {
		line := r.Test + " -> " + list(r.Use)
		if len(r.Exclude) > 0 {
			line += " (exclude " + strings.Join(r.Exclude, ", ") + ")"
		}
		kv(fmt.Sprintf("module.rules[%d]", i), line)
	}
	transformers := make([]string, 0, len(cfg.Transformers))
	for name := range cfg.Transformers {
		transformers = append(transformers, name)
	}
	slices.Sort(transformers)
	for _, name := range transformers {
		kv("transformers."+name, cfg.Transformers[name].Command)
	}
	kv("plugins", list(cfg.Plugins))
	kv("stats.file", cfg.Stats.File)
	kv("hooks.policy", cfg.Hooks.Policy.String())
	kv("watch.enabled", fmt.Sprint(cfg.Watch.Enabled))
	kv("watch.debounce", cfg.Watch.Debounce)
	kv("watch.ignore", list(cfg.Watch.Ignore))
	kv("log.level", cfg.Log.Level.String())
	kv("log.format", cfg.Log.Format.String())
}
