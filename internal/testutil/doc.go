// SPDX-License-Identifier: MPL-2.0

// Package testutil provides fixtures shared by zfpack tests: in-memory
// project trees and helpers that fail the test instead of returning errors.
package testutil
