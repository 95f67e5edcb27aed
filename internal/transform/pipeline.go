// SPDX-License-Identifier: MPL-2.0

// Package transform applies the configured, path-matched chain of text
// transformers ("loaders") to a file before its dependencies are analysed.
package transform

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"

	"github.com/bmatcuk/doublestar/v4"
)

type (
	// Rule selects files by path and names the transformers to run on them.
	// Use is listed outer-to-inner: Use = [T1, T2] produces T1(T2(source)).
	Rule struct {
		// Test must match the forward-slash absolute path of the file.
		Test *regexp.Regexp
		// Exclude holds doublestar globs; a file matching any of them is
		// skipped by this rule even when Test matches.
		Exclude []string
		// Use holds registry handles, outermost first.
		Use []string
	}

	// Pipeline is an immutable, validated list of rules bound to their
	// transformers. It is safe for concurrent use.
	Pipeline struct {
		rules []boundRule
	}

	boundRule struct {
		Rule
		chain []Transformer
	}
)

// Matches reports whether the rule applies to file.
func (r Rule) Matches(file string) bool {
	slashed := filepath.ToSlash(file)
	if r.Test == nil || !r.Test.MatchString(slashed) {
		return false
	}
	for _, pat := range r.Exclude {
		if matched, err := doublestar.Match(pat, slashed); err == nil && matched {
			return false
		}
	}
	return true
}

// NewPipeline binds every handle in rules to its transformer. An unknown
// handle or a malformed exclude glob fails here, before any file is read.
func NewPipeline(rules []Rule, registry *Registry) (*Pipeline, error) {
	bound := make([]boundRule, 0, len(rules))
	for i, rule := range rules {
		if rule.Test == nil {
			return nil, fmt.Errorf("rule %d: missing test pattern", i)
		}
		for _, pat := range rule.Exclude {
			if !doublestar.ValidatePattern(pat) {
				return nil, fmt.Errorf("rule %d: invalid exclude pattern %q", i, pat)
			}
		}
		chain := make([]Transformer, len(rule.Use))
		for j, name := range rule.Use {
			t, err := registry.Lookup(name)
			if err != nil {
				return nil, fmt.Errorf("rule %d: %w", i, err)
			}
			chain[j] = t
		}
		bound = append(bound, boundRule{Rule: rule, chain: chain})
	}
	return &Pipeline{rules: bound}, nil
}

// Rule returns the first rule matching file.
func (p *Pipeline) Rule(file string) (Rule, bool) {
	if br, ok := p.match(file); ok {
		return br.Rule, true
	}
	return Rule{}, false
}

// Apply runs the first matching rule's transformers over raw, innermost
// (last listed) first. A rule with an empty Use list passes raw through.
func (p *Pipeline) Apply(ctx context.Context, raw, file string) (string, error) {
	br, ok := p.match(file)
	if !ok {
		return "", &NoLoaderMatchedError{File: file}
	}

	out := raw
	for i := len(br.chain) - 1; i >= 0; i-- {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		next, err := br.chain[i].Transform(ctx, out, file)
		if err != nil {
			return "", &TransformError{Transformer: br.Use[i], File: file, Cause: err}
		}
		out = next
	}
	return out, nil
}

func (p *Pipeline) match(file string) (boundRule, bool) {
	for _, br := range p.rules {
		if br.Matches(file) {
			return br, true
		}
	}
	return boundRule{}, false
}

// DefaultRules returns the rules used when none are configured: script
// files pass through unchanged and JSON files become modules.
func DefaultRules() []Rule {
	return []Rule{
		{Test: regexp.MustCompile(`\.(js|cjs|mjs)$`)},
		{Test: regexp.MustCompile(`\.json$`), Use: []string{HandleJSON}},
	}
}
