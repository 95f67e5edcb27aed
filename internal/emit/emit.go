// SPDX-License-Identifier: MPL-2.0

// Package emit renders chunks into self-contained bundle text and names the
// resulting assets.
package emit

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"github.com/kongjun0320/zf-webpack/internal/chunk"
	"github.com/kongjun0320/zf-webpack/internal/graph"
	"github.com/kongjun0320/zf-webpack/internal/syntax"

	"github.com/cespare/xxhash/v2"
	"github.com/evanw/esbuild/pkg/api"
)

const (
	// NameToken is replaced by the chunk name in output filenames.
	NameToken = "[name]"
	// HashToken is replaced by a content hash in output filenames.
	HashToken = "[hash]"

	hashLength = 8
)

//go:embed runtime.js.tmpl
var runtimeSource string

var runtimeTemplate = template.Must(template.New("runtime").
	Funcs(template.FuncMap{"quote": syntax.Quote}).
	Parse(runtimeSource))

// ErrMissingModule is returned when a chunk names a module the table lacks.
var ErrMissingModule = errors.New("chunk member not in module table")

type (
	// Asset is one emitted output file.
	Asset struct {
		Filename string
		Content  string
		// Chunk is the name of the chunk the asset was rendered from.
		Chunk string
		// Hash is the short content hash, also used for the [hash] token.
		Hash string
	}

	// Options configures an Emitter.
	Options struct {
		// Filename is the output pattern; it must contain [name] when there is
		// more than one chunk.
		Filename string
		Minify   bool
	}

	// Emitter renders chunks.
	Emitter struct {
		opts Options
	}

	renderData struct {
		Modules []*graph.Module
		Entry   *graph.Module
	}
)

// New creates an Emitter.
func New(opts Options) *Emitter {
	if opts.Filename == "" {
		opts.Filename = NameToken + ".js"
	}
	return &Emitter{opts: opts}
}

// Emit renders one chunk. Non-entry members become factories in the module
// map, in chunk order; the entry module runs inline at the end.
func (e *Emitter) Emit(c *chunk.Chunk, table *graph.Table) (string, error) {
	entry, ok := table.Get(c.EntryModuleID)
	if !ok {
		return "", fmt.Errorf("chunk %s: %w: %s", c.Name, ErrMissingModule, c.EntryModuleID)
	}

	data := renderData{Entry: entry}
	for _, id := range c.Dependencies() {
		m, ok := table.Get(id)
		if !ok {
			return "", fmt.Errorf("chunk %s: %w: %s", c.Name, ErrMissingModule, id)
		}
		data.Modules = append(data.Modules, m)
	}

	var b strings.Builder
	if err := runtimeTemplate.Execute(&b, data); err != nil {
		return "", fmt.Errorf("render chunk %s: %w", c.Name, err)
	}
	if !e.opts.Minify {
		return b.String(), nil
	}
	return minify(c.Name, b.String())
}

// Assets renders every chunk and names the results.
func (e *Emitter) Assets(chunks []*chunk.Chunk, table *graph.Table) ([]Asset, error) {
	assets := make([]Asset, 0, len(chunks))
	for _, c := range chunks {
		content, err := e.Emit(c, table)
		if err != nil {
			return nil, err
		}
		assets = append(assets, Asset{
			Filename: AssetFilename(e.opts.Filename, c.Name, content),
			Content:  content,
			Chunk:    c.Name,
			Hash:     ContentHash(content),
		})
	}
	return assets, nil
}

// AssetFilename substitutes [name] and [hash] in pattern.
func AssetFilename(pattern, chunkName, content string) string {
	out := strings.ReplaceAll(pattern, NameToken, chunkName)
	if strings.Contains(out, HashToken) {
		out = strings.ReplaceAll(out, HashToken, ContentHash(content))
	}
	return out
}

// ContentHash returns the first eight hex digits of the xxhash64 of content.
func ContentHash(content string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(content))[:hashLength]
}

func minify(name, code string) (string, error) {
	res := api.Transform(code, api.TransformOptions{
		Loader:            api.LoaderJS,
		MinifyWhitespace:  true,
		MinifySyntax:      true,
		MinifyIdentifiers: true,
		Sourcefile:        name + ".js",
		LogLevel:          api.LogLevelSilent,
	})
	if len(res.Errors) > 0 {
		msgs := make([]string, 0, len(res.Errors))
		for _, m := range res.Errors {
			msgs = append(msgs, m.Text)
		}
		return "", fmt.Errorf("minify chunk %s: %s", name, strings.Join(msgs, "; "))
	}
	return string(res.Code), nil
}
