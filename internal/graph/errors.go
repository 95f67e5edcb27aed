// SPDX-License-Identifier: MPL-2.0

package graph

import "strings"

// BuildError records which module was being built when a pass failed, along
// with the chain of requiring modules leading to it. Unwrap exposes the
// underlying typed error.
type BuildError struct {
	// Chain lists module ids from the entry module to the failing one.
	Chain []string
	Cause error
}

// Error implements the error interface.
func (e *BuildError) Error() string {
	return strings.Join(e.Chain, " -> ") + ": " + e.Cause.Error()
}

// Unwrap returns the underlying cause.
func (e *BuildError) Unwrap() error { return e.Cause }

// Module returns the id of the module that failed.
func (e *BuildError) Module() string {
	if len(e.Chain) == 0 {
		return ""
	}
	return e.Chain[len(e.Chain)-1]
}
