// SPDX-License-Identifier: MPL-2.0

package transform

import (
	"errors"
	"fmt"
)

var (
	// ErrNoLoaderMatched is the sentinel wrapped by NoLoaderMatchedError.
	ErrNoLoaderMatched = errors.New("no loader matched")
	// ErrTransform is the sentinel wrapped by TransformError.
	ErrTransform = errors.New("transform failed")
	// ErrUnknownTransformer is the sentinel wrapped by UnknownTransformerError.
	ErrUnknownTransformer = errors.New("unknown transformer")
	// ErrDuplicateTransformer is returned when a handle is registered twice.
	ErrDuplicateTransformer = errors.New("duplicate transformer")
)

type (
	// NoLoaderMatchedError is returned when no rule matches a file. Unmatched
	// files are never passed through silently.
	NoLoaderMatchedError struct {
		File string
	}

	// TransformError wraps a failure raised by a single transformer.
	TransformError struct {
		// Transformer is the registry handle of the failing transformer.
		Transformer string
		File        string
		Cause       error
	}

	// UnknownTransformerError is returned when a rule references a handle
	// that was never registered.
	UnknownTransformerError struct {
		Name string
	}
)

// Error implements the error interface.
func (e *NoLoaderMatchedError) Error() string {
	return fmt.Sprintf("no loader rule matches %s", e.File)
}

// Unwrap returns ErrNoLoaderMatched for errors.Is() compatibility.
func (e *NoLoaderMatchedError) Unwrap() error { return ErrNoLoaderMatched }

// Error implements the error interface.
func (e *TransformError) Error() string {
	return fmt.Sprintf("transformer %q failed on %s: %v", e.Transformer, e.File, e.Cause)
}

// Unwrap exposes the sentinel and the transformer's own error.
func (e *TransformError) Unwrap() []error { return []error{ErrTransform, e.Cause} }

// Error implements the error interface.
func (e *UnknownTransformerError) Error() string {
	return fmt.Sprintf("unknown transformer %q", e.Name)
}

// Unwrap returns ErrUnknownTransformer for errors.Is() compatibility.
func (e *UnknownTransformerError) Unwrap() error { return ErrUnknownTransformer }
