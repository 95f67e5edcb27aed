// SPDX-License-Identifier: MPL-2.0

package transform

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/kongjun0320/zf-webpack/internal/syntax"

	"github.com/evanw/esbuild/pkg/api"
)

// Built-in transformer handles.
const (
	HandleEsbuild = "esbuild"
	HandleJSON    = "json"
	HandleRaw     = "raw"
)

// esbuildTransform transpiles TypeScript, JSX and ES module syntax to
// CommonJS, so ES imports reach the rewriter as literal require calls.
func esbuildTransform(_ context.Context, source, file string) (string, error) {
	result := api.Transform(source, api.TransformOptions{
		Loader:     esbuildLoader(file),
		Format:     api.FormatCommonJS,
		Sourcefile: file,
		LogLevel:   api.LogLevelSilent,
	})
	if len(result.Errors) > 0 {
		return "", esbuildErrors(result.Errors)
	}
	return string(result.Code), nil
}

func esbuildLoader(file string) api.Loader {
	switch strings.ToLower(filepath.Ext(file)) {
	case ".ts", ".mts", ".cts":
		return api.LoaderTS
	case ".tsx":
		return api.LoaderTSX
	case ".jsx":
		return api.LoaderJSX
	default:
		return api.LoaderJS
	}
}

// esbuildErrors flattens esbuild diagnostics into one error, each message
// prefixed with its location when known.
func esbuildErrors(msgs []api.Message) error {
	errs := make([]error, 0, len(msgs))
	for _, m := range msgs {
		if m.Location != nil {
			errs = append(errs, fmt.Errorf("%s:%d:%d: %s", m.Location.File, m.Location.Line, m.Location.Column, m.Text))
			continue
		}
		errs = append(errs, errors.New(m.Text))
	}
	return errors.Join(errs...)
}

// jsonTransform turns a JSON document into a module exporting its value.
func jsonTransform(_ context.Context, source, _ string) (string, error) {
	trimmed := strings.TrimSpace(source)
	if !json.Valid([]byte(trimmed)) {
		return "", errors.New("invalid JSON document")
	}
	return "module.exports = " + trimmed + ";\n", nil
}

// rawTransform exports the file's text as a string.
func rawTransform(_ context.Context, source, _ string) (string, error) {
	return "module.exports = " + syntax.Quote(source) + ";\n", nil
}
