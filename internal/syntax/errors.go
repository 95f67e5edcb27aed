// SPDX-License-Identifier: MPL-2.0

package syntax

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedDependencyExpression is the sentinel wrapped by
	// UnsupportedDependencyExpressionError.
	ErrUnsupportedDependencyExpression = errors.New("unsupported dependency expression")

	// ErrSyntax is the sentinel wrapped by SyntaxError.
	ErrSyntax = errors.New("syntax error")
)

type (
	// UnsupportedDependencyExpressionError is returned for a require call whose
	// argument is not a single static string.
	UnsupportedDependencyExpressionError struct {
		File   string
		Line   int
		Column int
		// CallSite is the source text of the offending call.
		CallSite string
	}

	// SyntaxError reports the first location the parser could not make sense of.
	SyntaxError struct {
		File   string
		Line   int
		Column int
	}
)

// Error implements the error interface.
func (e *UnsupportedDependencyExpressionError) Error() string {
	return fmt.Sprintf("%s:%d:%d: require() argument must be a string literal: %s", e.File, e.Line, e.Column, e.CallSite)
}

// Unwrap returns ErrUnsupportedDependencyExpression for errors.Is() compatibility.
func (e *UnsupportedDependencyExpressionError) Unwrap() error {
	return ErrUnsupportedDependencyExpression
}

// Error implements the error interface.
func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s:%d:%d: syntax error", e.File, e.Line, e.Column)
}

// Unwrap returns ErrSyntax for errors.Is() compatibility.
func (e *SyntaxError) Unwrap() error { return ErrSyntax }
