// SPDX-License-Identifier: MPL-2.0

// Package plugins holds the built-in compiler plugins, selectable by name
// from configuration.
package plugins

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/kongjun0320/zf-webpack/internal/compiler"
	"github.com/kongjun0320/zf-webpack/internal/dag"
	"github.com/kongjun0320/zf-webpack/internal/fsys"
)

const (
	RunLoggerName     = "run-logger"
	DoneLoggerName    = "done-logger"
	StatsFileName     = "stats-file"
	CircularCheckName = "circular-check"

	// DefaultStatsFile is written under the output directory.
	DefaultStatsFile = "stats.json"
)

// ErrUnknownPlugin is returned for a name no built-in plugin has.
var ErrUnknownPlugin = errors.New("unknown plugin")

type (
	// Settings carries the configuration plugins read.
	Settings struct {
		// StatsFile is the stats-file target, relative to the output directory.
		StatsFile string
	}

	// RunLogger logs the start of every pass.
	RunLogger struct{}

	// DoneLogger logs a summary when a run finishes, or the pass error.
	DoneLogger struct{}

	// StatsFile writes the full stats JSON after a successful run.
	StatsFile struct {
		File string
	}

	// CircularCheck warns about require cycles. Cycles are legal; the loader
	// hands out partially filled exports, which is easy to trip over.
	CircularCheck struct{}
)

// Names returns every built-in plugin name.
func Names() []string {
	return []string{RunLoggerName, DoneLoggerName, StatsFileName, CircularCheckName}
}

// FromNames builds plugins in the given order.
func FromNames(names []string, s Settings) ([]compiler.Plugin, error) {
	out := make([]compiler.Plugin, 0, len(names))
	for _, name := range names {
		switch name {
		case RunLoggerName:
			out = append(out, RunLogger{})
		case DoneLoggerName:
			out = append(out, DoneLogger{})
		case StatsFileName:
			file := s.StatsFile
			if file == "" {
				file = DefaultStatsFile
			}
			out = append(out, StatsFile{File: file})
		case CircularCheckName:
			out = append(out, CircularCheck{})
		default:
			return nil, fmt.Errorf("%w %q (available: %s)", ErrUnknownPlugin, name, strings.Join(Names(), ", "))
		}
	}
	return out, nil
}

// Apply implements compiler.Plugin.
func (RunLogger) Apply(c *compiler.Compiler) {
	c.Hooks.Run.Tap(RunLoggerName, func(c *compiler.Compiler) error {
		c.Logger().Info("compile started", "entries", len(c.Options().Entries))
		return nil
	})
}

// Apply implements compiler.Plugin.
func (DoneLogger) Apply(c *compiler.Compiler) {
	logger := c.Logger()
	c.Hooks.Done.Tap(DoneLoggerName, func(s *compiler.Stats) error {
		if s.Err != nil {
			logger.Error("compile failed",
				"err", s.Err,
				"modules", len(s.Modules),
				"duration", s.Duration.Round(time.Millisecond),
			)
			return nil
		}
		logger.Info("compile finished",
			"modules", len(s.Modules),
			"chunks", len(s.Chunks),
			"assets", len(s.Assets),
			"duration", s.Duration.Round(time.Millisecond),
		)
		return nil
	})
}

// Apply implements compiler.Plugin.
func (p StatsFile) Apply(c *compiler.Compiler) {
	c.Hooks.Done.Tap(StatsFileName, func(s *compiler.Stats) error {
		// A failed pass writes nothing, so the last good stats stay in place.
		if s.Err != nil {
			return nil
		}
		data, err := json.MarshalIndent(s.ToJSON(compiler.AllStats), "", "  ")
		if err != nil {
			return fmt.Errorf("encode stats: %w", err)
		}
		target := p.File
		if !filepath.IsAbs(target) {
			target = filepath.Join(c.Options().OutputPath, target)
		}
		if err := fsys.WriteFile(c.Fs(), target, append(data, '\n')); err != nil {
			return err
		}
		c.Logger().Debug("stats written", "path", target)
		return nil
	})
}

// Apply implements compiler.Plugin.
func (CircularCheck) Apply(c *compiler.Compiler) {
	logger := c.Logger()
	c.Hooks.Done.Tap(CircularCheckName, func(s *compiler.Stats) error {
		for _, cycle := range FindCycles(s) {
			logger.Warn("circular dependency", "modules", strings.Join(cycle, " -> "))
		}
		return nil
	})
}

// FindCycles returns the require cycles among the modules of s.
func FindCycles(s *compiler.Stats) [][]string {
	g := dag.New()
	for _, m := range s.Modules {
		g.AddNode(m.ID)
		for _, d := range m.Dependencies {
			g.AddEdge(m.ID, d.ID)
		}
	}
	return g.Cycles()
}
