// SPDX-License-Identifier: MPL-2.0

package config

import (
	"fmt"
	"io"
	"regexp"
	"time"

	"github.com/kongjun0320/zf-webpack/internal/compiler"
	"github.com/kongjun0320/zf-webpack/internal/hook"
	"github.com/kongjun0320/zf-webpack/internal/plugins"
	"github.com/kongjun0320/zf-webpack/internal/transform"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"
)

// CompilerOptions converts a validated Config into compiler options.
func (c *Config) CompilerOptions(fs afero.Fs, logger *log.Logger) (compiler.Options, error) {
	rules, err := c.TransformRules()
	if err != nil {
		return compiler.Options{}, err
	}
	registry, err := c.Registry()
	if err != nil {
		return compiler.Options{}, err
	}
	debounce, err := time.ParseDuration(c.Watch.Debounce)
	if err != nil {
		return compiler.Options{}, fmt.Errorf("watch.debounce: %w", err)
	}

	entries := make(map[string]string, len(c.Entry))
	for name, path := range c.Entry {
		entries[name] = path
	}

	return compiler.Options{
		Context:    c.Context,
		Entries:    entries,
		OutputPath: c.Output.Path,
		Filename:   c.Output.Filename,
		Minify:     c.Output.Minify,
		Extensions: append([]string(nil), c.Resolve.Extensions...),
		Rules:      rules,
		Registry:   registry,
		HookPolicy: c.Hooks.Policy.hookPolicy(),
		Watch: compiler.WatchOptions{
			Enabled:  c.Watch.Enabled,
			Debounce: debounce,
			Ignore:   append([]string(nil), c.Watch.Ignore...),
		},
		Fs:     fs,
		Logger: logger,
	}, nil
}

// TransformRules compiles the rule regexps.
func (c *Config) TransformRules() ([]transform.Rule, error) {
	rules := make([]transform.Rule, 0, len(c.Module.Rules))
	for i, r := range c.Module.Rules {
		re, err := regexp.Compile(r.Test)
		if err != nil {
			return nil, fmt.Errorf("module.rules[%d].test: %w", i, err)
		}
		rules = append(rules, transform.Rule{
			Test:    re,
			Exclude: append([]string(nil), r.Exclude...),
			Use:     append([]string(nil), r.Use...),
		})
	}
	return rules, nil
}

// Registry returns the built-in transformers plus one shell transformer per
// entry of Transformers.
func (c *Config) Registry() (*transform.Registry, error) {
	registry := transform.Builtins()
	for _, name := range sortedKeys(c.Transformers) {
		t, err := transform.Shell(c.Transformers[name].Command)
		if err != nil {
			return nil, fmt.Errorf("transformers.%s: %w", name, err)
		}
		if err := registry.Register(name, t); err != nil {
			return nil, fmt.Errorf("transformers.%s: %w", name, err)
		}
	}
	return registry, nil
}

// BuildPlugins instantiates the configured plugins in order.
func (c *Config) BuildPlugins() ([]compiler.Plugin, error) {
	return plugins.FromNames(c.Plugins, plugins.Settings{StatsFile: c.Stats.File})
}

func (p HookPolicy) hookPolicy() hook.Policy {
	if p == HookPolicyCollectErrors {
		return hook.CollectErrors
	}
	return hook.FailFast
}

// NewLogger builds a logger writing to w with the configured level and
// format.
func NewLogger(w io.Writer, c LogConfig) *log.Logger {
	level, err := log.ParseLevel(string(c.Level))
	if err != nil {
		level = log.InfoLevel
	}
	formatter := log.TextFormatter
	switch c.Format {
	case LogFormatJSON:
		formatter = log.JSONFormatter
	case LogFormatLogfmt:
		formatter = log.LogfmtFormatter
	}
	return log.NewWithOptions(w, log.Options{
		Level:           level,
		Formatter:       formatter,
		ReportTimestamp: c.Format != LogFormatText,
		Prefix:          AppName,
	})
}
