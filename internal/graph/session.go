// SPDX-License-Identifier: MPL-2.0

// Package graph builds the module table of one compile pass: every file
// reachable from the configured entries, transformed and rewritten exactly
// once.
package graph

import (
	"context"
	"io"
	"slices"
	"sort"

	"github.com/kongjun0320/zf-webpack/internal/fsys"
	"github.com/kongjun0320/zf-webpack/internal/resolve"
	"github.com/kongjun0320/zf-webpack/internal/syntax"
	"github.com/kongjun0320/zf-webpack/internal/transform"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"
)

type (
	// Options holds the collaborators of a Session.
	Options struct {
		Fs       afero.Fs
		Context  string
		Resolver *resolve.Resolver
		Pipeline *transform.Pipeline
		Rewriter *syntax.Rewriter
		Logger   *log.Logger
	}

	// Session owns the module table of a single pass. It is not safe for
	// concurrent use and must not be reused after Build returns.
	Session struct {
		opts  Options
		table *Table
		files map[string]struct{}
	}
)

// NewSession creates a Session with an empty table.
func NewSession(opts Options) *Session {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	return &Session{
		opts:  opts,
		table: NewTable(),
		files: make(map[string]struct{}),
	}
}

// Table returns the session's module table.
func (s *Session) Table() *Table { return s.table }

// Files returns the sorted absolute paths of every file the session read.
func (s *Session) Files() []string {
	out := make([]string, 0, len(s.files))
	for f := range s.files {
		out = append(out, f)
	}
	slices.Sort(out)
	return out
}

// Build builds every entry in name order and returns the entry points in
// the same order. entries maps entry names to paths, resolved against the
// context directory.
func (s *Session) Build(ctx context.Context, entries map[string]string) ([]EntryPoint, error) {
	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)

	points := make([]EntryPoint, 0, len(names))
	for _, name := range names {
		abs, err := s.opts.Resolver.Resolve(entries[name], s.opts.Context)
		if err != nil {
			return points, &BuildError{Chain: []string{name}, Cause: err}
		}
		m, err := s.BuildModule(ctx, name, abs)
		if err != nil {
			return points, err
		}
		points = append(points, EntryPoint{Name: name, ID: m.ID, Path: m.Path})
	}
	return points, nil
}

// BuildModule returns the module for abs, building it and its dependencies
// on first sight. A module that already exists only gains the entry name,
// which is also carried along its recorded dependency edges.
func (s *Session) BuildModule(ctx context.Context, entry, abs string) (*Module, error) {
	return s.build(ctx, entry, abs, nil)
}

func (s *Session) build(ctx context.Context, entry, abs string, chain []string) (*Module, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	id := resolve.ModuleID(s.opts.Context, abs)
	if existing, ok := s.table.Get(id); ok {
		s.propagate(existing, entry)
		return existing, nil
	}

	chain = append(slices.Clip(chain), id)
	fail := func(err error) (*Module, error) {
		return nil, &BuildError{Chain: chain, Cause: err}
	}

	s.files[abs] = struct{}{}
	raw, err := fsys.ReadFile(s.opts.Fs, abs)
	if err != nil {
		return fail(err)
	}
	text, err := s.opts.Pipeline.Apply(ctx, raw, abs)
	if err != nil {
		return fail(err)
	}
	res, err := s.opts.Rewriter.Rewrite(ctx, text, abs)
	if err != nil {
		return fail(err)
	}

	m := &Module{ID: id, Path: abs, Entries: []string{entry}, Source: res.Text}
	s.table.insert(m)
	s.opts.Logger.Debug("module built", "id", id, "entry", entry, "deps", len(res.Dependencies))

	for _, dep := range res.Dependencies {
		child, err := s.build(ctx, entry, dep.Path, chain)
		if err != nil {
			return nil, err
		}
		m.addDependency(Dependency{ID: child.ID, Path: child.Path})
	}
	return m, nil
}

// propagate adds entry to m and to everything reachable from m through
// already-recorded edges, stopping at modules that carry it.
func (s *Session) propagate(m *Module, entry string) {
	stack := []*Module{m}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !cur.addEntry(entry) {
			continue
		}
		for _, d := range cur.Dependencies {
			if next, ok := s.table.Get(d.ID); ok {
				stack = append(stack, next)
			}
		}
	}
}
