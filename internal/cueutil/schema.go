// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/ast"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/format"
)

type (
	// Schema is a compiled schema definition. Documents checked against it
	// must be closed over the definition but need not be concrete, so every
	// field can stay optional.
	Schema struct {
		ctx *cue.Context
		def cue.Value
	}

	options struct {
		filename    string
		maxFileSize int64
	}

	// Option configures a decode.
	Option func(*options)
)

// WithFilename sets the name used in error messages.
func WithFilename(name string) Option {
	return func(o *options) {
		o.filename = name
	}
}

// WithMaxFileSize overrides DefaultMaxFileSize.
func WithMaxFileSize(size int64) Option {
	return func(o *options) {
		o.maxFileSize = size
	}
}

func applyOptions(opts []Option) options {
	o := options{filename: "<input>", maxFileSize: DefaultMaxFileSize}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// CompileSchema compiles src and looks up the definition at path, such as
// "#Config".
func CompileSchema(src []byte, path string) (*Schema, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(src)
	if v.Err() != nil {
		return nil, fmt.Errorf("internal error: failed to compile schema: %w", v.Err())
	}
	def := v.LookupPath(cue.ParsePath(path))
	if !def.Exists() || def.Err() != nil {
		return nil, fmt.Errorf("internal error: schema definition %s not found: %w", path, def.Err())
	}
	return &Schema{ctx: ctx, def: def}, nil
}

// DecodeSource compiles CUE source, validates it and returns its fields.
func (s *Schema) DecodeSource(data []byte, opts ...Option) (map[string]any, error) {
	o := applyOptions(opts)
	if err := CheckFileSize(data, o.maxFileSize, o.filename); err != nil {
		return nil, err
	}
	v := s.ctx.CompileBytes(data, cue.Filename(o.filename))
	if v.Err() != nil {
		return nil, FormatError(v.Err(), o.filename)
	}
	return s.decode(v, o.filename)
}

// DecodeValue validates a Go value, such as a decoded TOML document.
func (s *Schema) DecodeValue(x any, opts ...Option) (map[string]any, error) {
	o := applyOptions(opts)
	v := s.ctx.Encode(x)
	if v.Err() != nil {
		return nil, FormatError(v.Err(), o.filename)
	}
	return s.decode(v, o.filename)
}

func (s *Schema) decode(v cue.Value, filename string) (map[string]any, error) {
	unified := s.def.Unify(v)
	if err := unified.Validate(cue.Concrete(false)); err != nil {
		return nil, FormatError(err, filename)
	}
	var out map[string]any
	if err := unified.Decode(&out); err != nil {
		return nil, FormatError(err, filename)
	}
	return out, nil
}

// Format renders x as a CUE document. Struct fields are named after their
// json tags.
func Format(x any) ([]byte, error) {
	v := cuecontext.New().Encode(x)
	if v.Err() != nil {
		return nil, fmt.Errorf("encode: %w", v.Err())
	}
	node := v.Syntax(cue.Final(), cue.Concrete(true))
	if lit, ok := node.(*ast.StructLit); ok {
		node = &ast.File{Decls: lit.Elts}
	}
	out, err := format.Node(node, format.Simplify())
	if err != nil {
		return nil, fmt.Errorf("format: %w", err)
	}
	return out, nil
}
