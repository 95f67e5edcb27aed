// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// LogLevelDebug logs every module, chunk and asset.
	LogLevelDebug LogLevel = "debug"
	// LogLevelInfo logs lifecycle messages.
	LogLevelInfo LogLevel = "info"
	// LogLevelWarn logs warnings and errors only.
	LogLevelWarn LogLevel = "warn"
	// LogLevelError logs errors only.
	LogLevelError LogLevel = "error"

	// LogFormatText is the human-readable format.
	LogFormatText LogFormat = "text"
	// LogFormatJSON emits one JSON object per line.
	LogFormatJSON LogFormat = "json"
	// LogFormatLogfmt emits logfmt key=value lines.
	LogFormatLogfmt LogFormat = "logfmt"

	// HookPolicyFailFast stops a hook at the first failing tap.
	HookPolicyFailFast HookPolicy = "fail-fast"
	// HookPolicyCollectErrors runs every tap and joins the failures.
	HookPolicyCollectErrors HookPolicy = "collect-errors"

	// DefaultEntryName names the entry of a string-valued entry.
	DefaultEntryName = "main"
)

var (
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrInvalidField is the sentinel error wrapped by FieldError.
	ErrInvalidField = errors.New("invalid config field")
	// ErrConfigNotFound is returned when an explicit config file is missing.
	ErrConfigNotFound = errors.New("config file not found")
)

type (
	// LogLevel is the minimum level written by the logger.
	LogLevel string

	// LogFormat selects the log formatter.
	LogFormat string

	// HookPolicy decides how lifecycle hooks treat failing taps.
	HookPolicy string

	// Config is a fully loaded project configuration.
	Config struct {
		// Context is the absolute project root module ids are relative to.
		Context string `json:"context" mapstructure:"context"`
		// Entry maps entry names to paths relative to Context.
		Entry        map[string]string            `json:"entry" mapstructure:"-"`
		Output       OutputConfig                 `json:"output" mapstructure:"output"`
		Resolve      ResolveConfig                `json:"resolve" mapstructure:"resolve"`
		Module       ModuleConfig                 `json:"module" mapstructure:"module"`
		Transformers map[string]TransformerConfig `json:"transformers,omitempty" mapstructure:"-"`
		Plugins      []string                     `json:"plugins" mapstructure:"plugins"`
		Stats        StatsConfig                  `json:"stats" mapstructure:"stats"`
		Hooks        HooksConfig                  `json:"hooks" mapstructure:"hooks"`
		Watch        WatchConfig                  `json:"watch" mapstructure:"watch"`
		Log          LogConfig                    `json:"log" mapstructure:"log"`

		// Source is the file the configuration was read from, empty when
		// only defaults apply.
		Source string `json:"-" mapstructure:"-"`
	}

	// OutputConfig controls where and how assets are written.
	OutputConfig struct {
		// Path is the output directory, relative to Context unless absolute.
		Path     string `json:"path" mapstructure:"path"`
		Filename string `json:"filename" mapstructure:"filename"`
		Minify   bool   `json:"minify" mapstructure:"minify"`
	}

	// ResolveConfig controls specifier resolution.
	ResolveConfig struct {
		Extensions []string `json:"extensions" mapstructure:"extensions"`
	}

	// ModuleConfig holds the transform rules.
	ModuleConfig struct {
		Rules []RuleConfig `json:"rules" mapstructure:"rules"`
	}

	// RuleConfig is the textual form of a transform rule.
	RuleConfig struct {
		Test    string   `json:"test" mapstructure:"test"`
		Exclude []string `json:"exclude,omitempty" mapstructure:"exclude"`
		Use     []string `json:"use,omitempty" mapstructure:"use"`
	}

	// TransformerConfig declares a shell transformer.
	TransformerConfig struct {
		Command string `json:"command" mapstructure:"command"`
	}

	// StatsConfig configures the stats-file plugin.
	StatsConfig struct {
		File string `json:"file" mapstructure:"file"`
	}

	// HooksConfig configures the lifecycle hooks.
	HooksConfig struct {
		Policy HookPolicy `json:"policy" mapstructure:"policy"`
	}

	// WatchConfig configures watch mode.
	WatchConfig struct {
		Enabled bool `json:"enabled" mapstructure:"enabled"`
		// Debounce is a Go duration string; "0s" rebuilds on every event.
		Debounce string   `json:"debounce" mapstructure:"debounce"`
		Ignore   []string `json:"ignore" mapstructure:"ignore"`
	}

	// LogConfig configures the logger.
	LogConfig struct {
		Level  LogLevel  `json:"level" mapstructure:"level"`
		Format LogFormat `json:"format" mapstructure:"format"`
	}

	// FieldError reports one invalid configuration value.
	FieldError struct {
		// Field is the dotted path of the value, such as "module.rules[0].test".
		Field  string
		Value  string
		Reason string
	}

	// InvalidConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidConfig and collects every field error found.
	InvalidConfigError struct {
		FieldErrors []error
	}
)

// DefaultConfig returns the configuration used when no file sets a value.
// Context is left empty; the loader fills it in.
func DefaultConfig() *Config {
	return &Config{
		Entry: map[string]string{DefaultEntryName: "./src/index.js"},
		Output: OutputConfig{
			Path:     "dist",
			Filename: "[name].js",
		},
		Resolve: ResolveConfig{Extensions: []string{".js", ".json"}},
		Module:  ModuleConfig{Rules: DefaultRules()},
		Plugins: []string{},
		Stats:   StatsConfig{File: "stats.json"},
		Hooks:   HooksConfig{Policy: HookPolicyFailFast},
		Watch:   WatchConfig{Debounce: "0s", Ignore: []string{}},
		Log:     LogConfig{Level: LogLevelInfo, Format: LogFormatText},
	}
}

// DefaultRules returns the rules applied when module.rules is empty.
func DefaultRules() []RuleConfig {
	return []RuleConfig{
		{Test: `\.(js|cjs|mjs)$`},
		{Test: `\.json$`, Use: []string{"json"}},
	}
}

// String returns the level name.
func (l LogLevel) String() string { return string(l) }

// IsValid reports whether l is a known level.
func (l LogLevel) IsValid() (bool, []error) {
	switch l {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		return true, nil
	default:
		return false, []error{&FieldError{Field: "log.level", Value: string(l), Reason: "must be one of debug, info, warn, error"}}
	}
}

// String returns the format name.
func (f LogFormat) String() string { return string(f) }

// IsValid reports whether f is a known format.
func (f LogFormat) IsValid() (bool, []error) {
	switch f {
	case LogFormatText, LogFormatJSON, LogFormatLogfmt:
		return true, nil
	default:
		return false, []error{&FieldError{Field: "log.format", Value: string(f), Reason: "must be one of text, json, logfmt"}}
	}
}

// String returns the policy name.
func (p HookPolicy) String() string { return string(p) }

// IsValid reports whether p is a known policy.
func (p HookPolicy) IsValid() (bool, []error) {
	switch p {
	case HookPolicyFailFast, HookPolicyCollectErrors:
		return true, nil
	default:
		return false, []error{&FieldError{Field: "hooks.policy", Value: string(p), Reason: "must be fail-fast or collect-errors"}}
	}
}

// Error implements the error interface.
func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %q %s", e.Field, e.Value, e.Reason)
}

// Unwrap returns ErrInvalidField for errors.Is() compatibility.
func (e *FieldError) Unwrap() error { return ErrInvalidField }

// Error implements the error interface.
func (e *InvalidConfigError) Error() string {
	msgs := make([]string, len(e.FieldErrors))
	for i, err := range e.FieldErrors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("invalid config: %d field error(s): %s", len(e.FieldErrors), strings.Join(msgs, "; "))
}

// Unwrap returns ErrInvalidConfig for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }
