// SPDX-License-Identifier: MPL-2.0

// Package issue turns errors into user-facing messages.
//
// Explain maps the typed errors of the build pipeline to an ActionableError
// naming the failed operation, the resource involved and what to try next.
// Each kind links to a catalog Issue with longer Markdown guidance that the
// CLI renders with glamour in verbose mode.
package issue
