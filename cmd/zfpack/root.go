// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the zfpack command-line interface.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/kongjun0320/zf-webpack/internal/issue"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

const (
	// ExitCompileFailed is returned when a build pass fails.
	ExitCompileFailed = 1
	// ExitUsage is returned for bad flags and invalid configuration.
	ExitUsage = 2
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

type rootFlags struct {
	configFile string
	verbose    bool
	logLevel   string
}

// NewRootCommand builds the command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:   "zfpack",
		Short: "Bundle CommonJS modules into browser scripts",
		Long: TitleStyle.Render("zfpack") + SubtitleStyle.Render(" - a small CommonJS bundler") + `

zfpack follows require() calls from each entry module, runs every file
through the configured transformers and writes one self-contained script
per entry.

` + SubtitleStyle.Render("Configuration:") + `
  zfpack.cue or zfpack.toml in the working directory, then ZFPACK_*
  environment variables, then command-line flags.

` + SubtitleStyle.Render("Examples:") + `
  zfpack build                          Build with zfpack.cue
  zfpack build --entry app=./src/app.js Build a single entry
  zfpack build --watch                  Rebuild on change
  zfpack config show                    Show the loaded configuration`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVarP(&flags.configFile, "config", "c", "", "config file (default: zfpack.cue or zfpack.toml in the working directory)")
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "show error chains and debug logs")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level: debug, info, warn or error")

	root.AddCommand(newBuildCommand(app, flags))
	root.AddCommand(newConfigCommand(app, flags))

	return root
}

func versionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Main runs the CLI with os.Args and returns the process exit code.
func Main() int {
	app, err := NewApp(Dependencies{})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return ExitCompileFailed
	}
	root := NewRootCommand(app)

	err = fang.Execute(
		context.Background(),
		root,
		fang.WithVersion(versionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(errorHandler(root)),
	)
	return exitCode(err)
}

// Execute runs the CLI and exits. It is called by main.main().
func Execute() {
	os.Exit(Main())
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	// Anything else comes from cobra's flag and argument parsing.
	return ExitUsage
}

// errorHandler prints errors that were not already reported by the command.
func errorHandler(root *cobra.Command) func(io.Writer, fang.Styles, error) {
	return func(w io.Writer, _ fang.Styles, err error) {
		var exitErr *ExitError
		if errors.As(err, &exitErr) && exitErr.Err == nil {
			return
		}
		verbose, _ := root.PersistentFlags().GetBool("verbose")
		fmt.Fprintln(w, ErrorStyle.Render("Error: ")+formatErrorForDisplay(err, verbose))
	}
}

// formatErrorForDisplay formats an error for user display. Known error
// kinds carry suggestions; verbose mode adds the error chain.
func formatErrorForDisplay(err error, verbose bool) string {
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Err != nil {
		err = exitErr.Err
	}
	if explained := issue.Explain(err); explained != nil {
		return explained.Format(verbose)
	}
	return err.Error()
}
