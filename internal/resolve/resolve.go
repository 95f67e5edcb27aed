// SPDX-License-Identifier: MPL-2.0

// Package resolve turns dependency specifiers into absolute file paths and
// absolute paths into canonical module ids.
package resolve

import (
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/kongjun0320/zf-webpack/internal/fsys"

	"github.com/spf13/afero"
)

// ErrModuleNotFound is the sentinel wrapped by ModuleNotFoundError.
var ErrModuleNotFound = errors.New("module not found")

type (
	// ModuleNotFoundError is returned when neither the joined path nor any of
	// its extension candidates exists.
	ModuleNotFoundError struct {
		Specifier string
		FromDir   string
		// Tried lists every candidate path checked, in order.
		Tried []string
	}

	// Resolver resolves specifiers against a directory, trying the
	// configured extensions in order when the literal path does not exist.
	Resolver struct {
		fs         afero.Fs
		extensions []string
	}
)

// Error implements the error interface.
func (e *ModuleNotFoundError) Error() string {
	return fmt.Sprintf("module not found: can't resolve %q in %s", e.Specifier, e.FromDir)
}

// Unwrap returns ErrModuleNotFound for errors.Is() compatibility.
func (e *ModuleNotFoundError) Unwrap() error { return ErrModuleNotFound }

// New creates a Resolver. The extensions slice is copied.
func New(fs afero.Fs, extensions []string) *Resolver {
	return &Resolver{
		fs:         fs,
		extensions: append([]string(nil), extensions...),
	}
}

// Extensions returns the extension candidates in the order they are tried.
func (r *Resolver) Extensions() []string {
	return append([]string(nil), r.extensions...)
}

// Resolve returns the absolute path of specifier relative to fromDir. The
// literal joined path wins when it is a file; otherwise each extension is
// appended in order and the first existing file is returned. Directories
// never resolve.
func (r *Resolver) Resolve(specifier, fromDir string) (string, error) {
	joined := specifier
	if !filepath.IsAbs(filepath.FromSlash(specifier)) {
		joined = filepath.Join(fromDir, filepath.FromSlash(specifier))
	}
	joined = filepath.Clean(joined)

	tried := make([]string, 0, len(r.extensions)+1)
	tried = append(tried, joined)
	if fsys.IsFile(r.fs, joined) {
		return joined, nil
	}

	for _, ext := range r.extensions {
		candidate := joined + ext
		tried = append(tried, candidate)
		if fsys.IsFile(r.fs, candidate) {
			return candidate, nil
		}
	}

	return "", &ModuleNotFoundError{Specifier: specifier, FromDir: fromDir, Tried: tried}
}

// ModuleID returns the canonical id of absPath: the forward-slash path
// relative to contextRoot, prefixed with "./" unless it already climbs out
// of the root with "../". The result depends only on the two arguments.
func ModuleID(contextRoot, absPath string) string {
	rel, err := filepath.Rel(contextRoot, absPath)
	if err != nil {
		// Different volumes on Windows; fall back to the absolute path.
		return filepath.ToSlash(absPath)
	}
	rel = path.Clean(filepath.ToSlash(rel))
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return rel
	}
	return "./" + rel
}
