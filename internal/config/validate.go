// SPDX-License-Identifier: MPL-2.0

package config

import (
	"fmt"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/kongjun0320/zf-webpack/internal/emit"
	"github.com/kongjun0320/zf-webpack/internal/plugins"
	"github.com/kongjun0320/zf-webpack/internal/transform"

	"github.com/bmatcuk/doublestar/v4"
)

// Validate returns an *InvalidConfigError listing every invalid field, or
// nil.
func (c *Config) Validate() error {
	if ok, errs := c.IsValid(); !ok {
		return errs[0]
	}
	return nil
}

// IsValid checks the constraints the schema cannot express. On failure the
// single returned error is an *InvalidConfigError.
func (c *Config) IsValid() (bool, []error) {
	var errs []error
	add := func(field, value, reason string) {
		errs = append(errs, &FieldError{Field: field, Value: value, Reason: reason})
	}

	if c.Context == "" || !filepath.IsAbs(c.Context) {
		add("context", c.Context, "must be an absolute path")
	}

	if len(c.Entry) == 0 {
		add("entry", "", "at least one entry is required")
	}
	for _, name := range sortedKeys(c.Entry) {
		if strings.TrimSpace(name) == "" {
			add("entry", name, "entry names must not be empty")
		}
		if strings.TrimSpace(c.Entry[name]) == "" {
			add("entry."+name, c.Entry[name], "must not be empty")
		}
	}

	switch {
	case c.Output.Filename == "":
		add("output.filename", "", "must not be empty")
	case len(c.Entry) > 1 && !strings.Contains(c.Output.Filename, emit.NameToken):
		add("output.filename", c.Output.Filename, "must contain "+emit.NameToken+" when there are several entries")
	}

	for i, ext := range c.Resolve.Extensions {
		if len(ext) < 2 || ext[0] != '.' {
			add(fmt.Sprintf("resolve.extensions[%d]", i), ext, "must start with a dot")
		}
	}

	handles := transform.Builtins().Names()
	for _, name := range sortedKeys(c.Transformers) {
		tr := c.Transformers[name]
		if slices.Contains(handles, name) {
			add("transformers."+name, name, "shadows a built-in transformer")
		}
		if strings.TrimSpace(tr.Command) == "" {
			add("transformers."+name+".command", tr.Command, "must not be empty")
		}
	}
	for i, rule := range c.Module.Rules {
		field := fmt.Sprintf("module.rules[%d]", i)
		if _, err := regexp.Compile(rule.Test); err != nil {
			add(field+".test", rule.Test, "is not a valid regular expression")
		}
		for j, pat := range rule.Exclude {
			if !doublestar.ValidatePattern(pat) {
				add(fmt.Sprintf("%s.exclude[%d]", field, j), pat, "is not a valid glob")
			}
		}
		for j, handle := range rule.Use {
			if _, ok := c.Transformers[handle]; !ok && !slices.Contains(handles, handle) {
				add(fmt.Sprintf("%s.use[%d]", field, j), handle, "names no built-in or configured transformer")
			}
		}
	}

	known := plugins.Names()
	for i, name := range c.Plugins {
		if !slices.Contains(known, name) {
			add(fmt.Sprintf("plugins[%d]", i), name, "is not a built-in plugin")
		}
	}
	if slices.Contains(c.Plugins, plugins.StatsFileName) && strings.TrimSpace(c.Stats.File) == "" {
		add("stats.file", c.Stats.File, "must be set when the stats-file plugin is enabled")
	}

	if _, fieldErrs := c.Hooks.Policy.IsValid(); fieldErrs != nil {
		errs = append(errs, fieldErrs...)
	}

	if d, err := time.ParseDuration(c.Watch.Debounce); err != nil {
		add("watch.debounce", c.Watch.Debounce, "is not a duration")
	} else if d < 0 {
		add("watch.debounce", c.Watch.Debounce, "must not be negative")
	}
	for i, pat := range c.Watch.Ignore {
		if !doublestar.ValidatePattern(pat) {
			add(fmt.Sprintf("watch.ignore[%d]", i), pat, "is not a valid glob")
		}
	}

	if _, fieldErrs := c.Log.Level.IsValid(); fieldErrs != nil {
		errs = append(errs, fieldErrs...)
	}
	if _, fieldErrs := c.Log.Format.IsValid(); fieldErrs != nil {
		errs = append(errs, fieldErrs...)
	}

	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
