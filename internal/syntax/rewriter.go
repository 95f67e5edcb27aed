// SPDX-License-Identifier: MPL-2.0

// Package syntax finds static require() calls in transformed module text and
// rewrites their specifiers to canonical module ids.
//
// The parse tree is read-only: rewriting is done by collecting byte-range
// edits during the walk and splicing them into the original text afterwards.
package syntax

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"unicode"

	"github.com/kongjun0320/zf-webpack/internal/resolve"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
)

const (
	requireIdent = "require"

	nodeCallExpression = "call_expression"
	nodeIdentifier     = "identifier"
	nodeString         = "string"
	nodeTemplateString = "template_string"
	nodeSubstitution   = "template_substitution"
	nodeComment        = "comment"
	nodeError          = "ERROR"
)

type (
	// Dependency is one static require() call, in source order.
	Dependency struct {
		// Specifier is the literal value as written.
		Specifier string
		// Path is the resolved absolute file path.
		Path string
		// ID is the module id the specifier was rewritten to.
		ID string
	}

	// Result is the rewritten text plus the dependencies found in it.
	// Dependencies may contain the same ID more than once.
	Result struct {
		Text         string
		Dependencies []Dependency
	}

	// Rewriter resolves and rewrites require() specifiers.
	Rewriter struct {
		resolver    *resolve.Resolver
		contextRoot string
	}

	edit struct {
		start, end uint32
		text       string
	}
)

// NewRewriter creates a Rewriter that resolves through resolver and assigns
// ids relative to contextRoot.
func NewRewriter(resolver *resolve.Resolver, contextRoot string) *Rewriter {
	return &Rewriter{resolver: resolver, contextRoot: contextRoot}
}

// Rewrite parses text, resolves every require() specifier against the
// directory of file, and returns text with each specifier literal replaced by
// the quoted module id. Nothing outside those literals changes.
func (r *Rewriter) Rewrite(ctx context.Context, text, file string) (*Result, error) {
	src := []byte(text)

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(javascript.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", file, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, syntaxErrorAt(root, file)
	}

	w := &walker{rewriter: r, src: src, file: file, dir: filepath.Dir(file)}
	if err := w.visit(root); err != nil {
		return nil, err
	}

	return &Result{Text: splice(text, w.edits), Dependencies: w.deps}, nil
}

type walker struct {
	rewriter *Rewriter
	src      []byte
	file     string
	dir      string
	edits    []edit
	deps     []Dependency
}

func (w *walker) visit(n *sitter.Node) error {
	if n.Type() == nodeCallExpression {
		if err := w.call(n); err != nil {
			return err
		}
	}
	for i := range int(n.ChildCount()) {
		if err := w.visit(n.Child(i)); err != nil {
			return err
		}
	}
	return nil
}

func (w *walker) call(n *sitter.Node) error {
	callee := n.ChildByFieldName("function")
	if callee == nil || callee.Type() != nodeIdentifier || callee.Content(w.src) != requireIdent {
		return nil
	}

	args := argumentsOf(n.ChildByFieldName("arguments"))
	if len(args) != 1 {
		return w.unsupported(n)
	}
	lit := args[0]
	specifier, ok := literalValue(lit, w.src)
	if !ok {
		return w.unsupported(n)
	}

	abs, err := w.rewriter.resolver.Resolve(specifier, w.dir)
	if err != nil {
		return err
	}
	id := resolve.ModuleID(w.rewriter.contextRoot, abs)

	w.edits = append(w.edits, edit{start: lit.StartByte(), end: lit.EndByte(), text: Quote(id)})
	w.deps = append(w.deps, Dependency{Specifier: specifier, Path: abs, ID: id})
	return nil
}

func (w *walker) unsupported(n *sitter.Node) error {
	pt := n.StartPoint()
	return &UnsupportedDependencyExpressionError{
		File:     w.file,
		Line:     int(pt.Row) + 1,
		Column:   int(pt.Column) + 1,
		CallSite: n.Content(w.src),
	}
}

// argumentsOf returns the argument expressions of an arguments node, skipping
// punctuation and comments.
func argumentsOf(args *sitter.Node) []*sitter.Node {
	if args == nil {
		return nil
	}
	var out []*sitter.Node
	for i := range int(args.NamedChildCount()) {
		child := args.NamedChild(i)
		if child.Type() == nodeComment {
			continue
		}
		out = append(out, child)
	}
	return out
}

// literalValue returns the decoded value of a string literal or of a
// template literal without substitutions.
func literalValue(n *sitter.Node, src []byte) (string, bool) {
	switch n.Type() {
	case nodeString:
	case nodeTemplateString:
		for i := range int(n.NamedChildCount()) {
			if n.NamedChild(i).Type() == nodeSubstitution {
				return "", false
			}
		}
	default:
		return "", false
	}

	raw := n.Content(src)
	if len(raw) < 2 {
		return "", false
	}
	return unescape(raw[1 : len(raw)-1]), true
}

// unescape decodes JavaScript escape sequences. Sequences Go cannot decode
// keep the escaped character.
func unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	for len(s) > 0 {
		if s[0] != '\\' || len(s) == 1 {
			b.WriteByte(s[0])
			s = s[1:]
			continue
		}
		switch c := s[1]; c {
		case '\'', '"', '`', '\\':
			b.WriteByte(c)
			s = s[2:]
			continue
		case '\n':
			s = s[2:]
			continue
		case 'u':
			if r, n, ok := codePointEscape(s); ok {
				b.WriteRune(r)
				s = s[n:]
				continue
			}
		}
		r, _, tail, err := strconv.UnquoteChar(s, 0)
		if err != nil {
			b.WriteByte(s[1])
			s = s[2:]
			continue
		}
		b.WriteRune(r)
		s = tail
	}
	return b.String()
}

// codePointEscape decodes a leading \u{X...} escape and reports its length.
func codePointEscape(s string) (rune, int, bool) {
	if !strings.HasPrefix(s, `\u{`) {
		return 0, 0, false
	}
	end := strings.IndexByte(s, '}')
	if end < 4 {
		return 0, 0, false
	}
	v, err := strconv.ParseUint(s[3:end], 16, 32)
	if err != nil || v > unicode.MaxRune {
		return 0, 0, false
	}
	return rune(v), end + 1, true
}

// splice applies non-overlapping edits back to front so earlier offsets stay
// valid.
func splice(text string, edits []edit) string {
	if len(edits) == 0 {
		return text
	}
	sorted := slices.Clone(edits)
	slices.SortFunc(sorted, func(a, b edit) int { return int(a.start) - int(b.start) })

	out := text
	for i := len(sorted) - 1; i >= 0; i-- {
		e := sorted[i]
		out = out[:e.start] + e.text + out[e.end:]
	}
	return out
}

func syntaxErrorAt(root *sitter.Node, file string) *SyntaxError {
	n := firstErrorNode(root)
	if n == nil {
		n = root
	}
	pt := n.StartPoint()
	return &SyntaxError{File: file, Line: int(pt.Row) + 1, Column: int(pt.Column) + 1}
}

func firstErrorNode(n *sitter.Node) *sitter.Node {
	if n.Type() == nodeError || n.IsMissing() {
		return n
	}
	for i := range int(n.ChildCount()) {
		child := n.Child(i)
		if !child.HasError() && !child.IsMissing() {
			continue
		}
		if found := firstErrorNode(child); found != nil {
			return found
		}
	}
	return nil
}
