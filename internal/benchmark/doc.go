// SPDX-License-Identifier: MPL-2.0

// Package benchmark provides benchmarks for the zfpack hot paths, suitable
// for PGO profile generation:
//   - configuration loading and CUE schema validation
//   - require() collection with tree-sitter
//   - asset rendering and minification
//   - an end-to-end compile pass
//
// To generate a profile, run:
//
//	go test -run '^$' -bench . -cpuprofile default.pgo ./internal/benchmark
package benchmark
