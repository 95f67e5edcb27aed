// SPDX-License-Identifier: MPL-2.0

package compiler

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/kongjun0320/zf-webpack/internal/emit"
	"github.com/kongjun0320/zf-webpack/internal/fsys"
	"github.com/kongjun0320/zf-webpack/internal/hook"
	"github.com/kongjun0320/zf-webpack/internal/transform"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"
)

// ErrInvalidOptions is returned by New for options it cannot compile with.
var ErrInvalidOptions = errors.New("invalid compiler options")

type (
	// Options is the merged configuration of a Compiler.
	Options struct {
		// Context is the absolute directory module ids are relative to.
		Context string
		// Entries maps entry names to source paths relative to Context.
		Entries map[string]string

		// OutputPath is the directory assets are written to.
		OutputPath string
		// Filename is the asset name pattern; see emit.AssetFilename.
		Filename string
		Minify   bool

		// Extensions are tried in order when a specifier has no match.
		Extensions []string
		Rules      []transform.Rule
		// Registry supplies transformers for Rules. Nil means the built-ins.
		Registry *transform.Registry

		// HookPolicy applies to both lifecycle hooks.
		HookPolicy hook.Policy

		Watch WatchOptions

		// Fs is used for every read and write. Nil means the OS filesystem.
		Fs     afero.Fs
		Logger *log.Logger
	}

	// WatchOptions controls rebuilds after the first pass.
	WatchOptions struct {
		Enabled  bool
		Debounce time.Duration
		Ignore   []string
	}
)

func (o *Options) normalize() error {
	var problems []string

	if o.Context == "" || !filepath.IsAbs(o.Context) {
		problems = append(problems, fmt.Sprintf("context %q must be an absolute path", o.Context))
	}
	if len(o.Entries) == 0 {
		problems = append(problems, "at least one entry is required")
	}
	for name, path := range o.Entries {
		if strings.TrimSpace(name) == "" {
			problems = append(problems, "entry names must not be empty")
		}
		if strings.TrimSpace(path) == "" {
			problems = append(problems, fmt.Sprintf("entry %q has an empty path", name))
		}
	}
	if o.Filename == "" {
		o.Filename = emit.NameToken + ".js"
	}
	if len(o.Entries) > 1 && !strings.Contains(o.Filename, emit.NameToken) {
		problems = append(problems, fmt.Sprintf("filename %q must contain %s when there are several entries", o.Filename, emit.NameToken))
	}
	if o.OutputPath == "" {
		o.OutputPath = filepath.Join(o.Context, "dist")
	} else if !filepath.IsAbs(o.OutputPath) {
		o.OutputPath = filepath.Join(o.Context, o.OutputPath)
	}
	if o.Watch.Debounce < 0 {
		problems = append(problems, "watch debounce must not be negative")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidOptions, strings.Join(problems, "; "))
	}

	if len(o.Rules) == 0 {
		o.Rules = transform.DefaultRules()
	}
	if o.Registry == nil {
		o.Registry = transform.Builtins()
	}
	if o.Fs == nil {
		o.Fs = fsys.OS()
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
	return nil
}
