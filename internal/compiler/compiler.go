// SPDX-License-Identifier: MPL-2.0

// Package compiler drives compile passes: it fires the lifecycle hooks,
// builds the module graph, emits one asset per entry, writes the assets and,
// in watch mode, rebuilds when a discovered source file changes.
package compiler

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/kongjun0320/zf-webpack/internal/chunk"
	"github.com/kongjun0320/zf-webpack/internal/emit"
	"github.com/kongjun0320/zf-webpack/internal/fsys"
	"github.com/kongjun0320/zf-webpack/internal/graph"
	"github.com/kongjun0320/zf-webpack/internal/hook"
	"github.com/kongjun0320/zf-webpack/internal/resolve"
	"github.com/kongjun0320/zf-webpack/internal/syntax"
	"github.com/kongjun0320/zf-webpack/internal/transform"
	"github.com/kongjun0320/zf-webpack/internal/watch"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"
)

const (
	// HookRun fires before each pass builds anything.
	HookRun = "run"
	// HookDone fires once per Run, after the first pass's callback.
	HookDone = "done"
)

type (
	// Callback receives the outcome of every completed pass. Passes cancelled
	// because a newer change superseded them are not reported.
	Callback func(err error, stats *Stats)

	// Plugin extends a Compiler, typically by tapping its hooks.
	Plugin interface {
		Apply(c *Compiler)
	}

	// PluginFunc adapts a function to Plugin.
	PluginFunc func(c *Compiler)

	// Hooks are the lifecycle extension points.
	Hooks struct {
		Run  *hook.SyncHook[*Compiler]
		Done *hook.SyncHook[*Stats]
	}

	// Compiler compiles the configured entries. Run may be called more than
	// once but not concurrently.
	Compiler struct {
		Hooks Hooks

		opts     Options
		resolver *resolve.Resolver
		pipeline *transform.Pipeline
		rewriter *syntax.Rewriter
		emitter  *emit.Emitter

		// serializes passes so asset writes never interleave
		passMu sync.Mutex
	}
)

// Apply calls f(c).
func (f PluginFunc) Apply(c *Compiler) { f(c) }

// New validates opts, binds the transform rules and applies the plugins in
// order.
func New(opts Options, plugins ...Plugin) (*Compiler, error) {
	if err := opts.normalize(); err != nil {
		return nil, err
	}

	pipeline, err := transform.NewPipeline(opts.Rules, opts.Registry)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidOptions, err)
	}
	resolver := resolve.New(opts.Fs, opts.Extensions)

	c := &Compiler{
		Hooks: Hooks{
			Run:  hook.New[*Compiler](HookRun, opts.HookPolicy),
			Done: hook.New[*Stats](HookDone, opts.HookPolicy),
		},
		opts:     opts,
		resolver: resolver,
		pipeline: pipeline,
		rewriter: syntax.NewRewriter(resolver, opts.Context),
		emitter:  emit.New(emit.Options{Filename: opts.Filename, Minify: opts.Minify}),
	}
	for _, p := range plugins {
		p.Apply(c)
	}
	return c, nil
}

// Options returns the normalized options.
func (c *Compiler) Options() Options { return c.opts }

// Logger returns the compiler's logger.
func (c *Compiler) Logger() *log.Logger { return c.opts.Logger }

// Fs returns the filesystem the compiler reads and writes through.
func (c *Compiler) Fs() afero.Fs { return c.opts.Fs }

// Close clears every hook.
func (c *Compiler) Close() {
	c.Hooks.Run.Clear()
	c.Hooks.Done.Clear()
}

// Run compiles once, reports the result to cb, then fires the done hook and
// returns its error. Pass errors go to cb and Stats.Err only. With watching
// enabled, Run then blocks rebuilding on change until ctx is cancelled; this
// happens after a failed first pass too, so fixing the file rebuilds.
func (c *Compiler) Run(ctx context.Context, cb Callback) error {
	if cb == nil {
		cb = func(error, *Stats) {}
	}

	stats, err := c.Compile(ctx)
	if ctx.Err() != nil {
		return nil
	}
	cb(err, stats)

	if err := c.Hooks.Done.Call(stats); err != nil {
		return err
	}
	if !c.opts.Watch.Enabled {
		return nil
	}
	return c.watch(ctx, cb, stats.Files())
}

// Compile runs one pass: the run hook, the graph build, chunk assembly,
// emission and, only when all of that succeeded, the asset writes. The
// returned Stats is never nil and carries the returned error in Err.
func (c *Compiler) Compile(ctx context.Context) (*Stats, error) {
	c.passMu.Lock()
	defer c.passMu.Unlock()

	start := time.Now()
	stats := &Stats{Context: c.opts.Context, OutputPath: c.opts.OutputPath}
	err := c.compile(ctx, stats)
	stats.Duration = time.Since(start)
	stats.Err = err
	return stats, err
}

func (c *Compiler) compile(ctx context.Context, stats *Stats) error {
	if err := c.Hooks.Run.Call(c); err != nil {
		return err
	}

	session := graph.NewSession(graph.Options{
		Fs:       c.opts.Fs,
		Context:  c.opts.Context,
		Resolver: c.resolver,
		Pipeline: c.pipeline,
		Rewriter: c.rewriter,
		Logger:   c.opts.Logger,
	})
	entries, err := session.Build(ctx, c.opts.Entries)
	stats.Entries = entries
	stats.Modules = session.Table().Modules()
	stats.files = session.Files()
	if err != nil {
		return err
	}

	stats.Chunks = chunk.Assemble(entries, session.Table())
	assets, err := c.emitter.Assets(stats.Chunks, session.Table())
	if err != nil {
		return err
	}
	stats.Assets = assets

	if err := ctx.Err(); err != nil {
		return err
	}
	return c.writeAssets(assets)
}

func (c *Compiler) writeAssets(assets []emit.Asset) error {
	for _, a := range assets {
		target := filepath.Join(c.opts.OutputPath, filepath.FromSlash(a.Filename))
		if err := fsys.WriteFile(c.opts.Fs, target, []byte(a.Content)); err != nil {
			return err
		}
		c.opts.Logger.Debug("asset written", "path", target, "chunk", a.Chunk, "bytes", len(a.Content))
	}
	return nil
}

// watch rebuilds on change until ctx is done. The tracked set is the union
// of files seen so far, so a file that broke a pass is still watched.
func (c *Compiler) watch(ctx context.Context, cb Callback, files []string) error {
	var (
		mu      sync.Mutex
		tracked = make(map[string]struct{})
	)
	for _, f := range files {
		tracked[f] = struct{}{}
	}

	var coord *coordinator
	w, err := watch.New(watch.Config{
		BaseDir:  c.opts.Context,
		Files:    files,
		Ignore:   c.opts.Watch.Ignore,
		Debounce: c.opts.Watch.Debounce,
		Logger:   c.opts.Logger,
		OnChange: func(changed []string) {
			c.opts.Logger.Info("change detected", "files", changed)
			coord.trigger()
		},
	})
	if err != nil {
		return err
	}

	pass := func(passCtx context.Context) {
		stats, err := c.Compile(passCtx)
		if passCtx.Err() != nil {
			c.opts.Logger.Debug("pass superseded")
			return
		}

		mu.Lock()
		if err == nil {
			clear(tracked)
		}
		for _, f := range stats.Files() {
			tracked[f] = struct{}{}
		}
		next := slices.Sorted(maps.Keys(tracked))
		mu.Unlock()
		if werr := w.SetFiles(next); werr != nil {
			c.opts.Logger.Warn("watch: update tracked files", "err", werr)
		}

		cb(err, stats)
	}
	coord = newCoordinator(ctx, pass)

	c.opts.Logger.Info("watching for changes", "files", len(files))
	runErr := w.Run(ctx)
	coord.wait()
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	return nil
}
