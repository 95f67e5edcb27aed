// SPDX-License-Identifier: MPL-2.0

// Package config loads zfpack project configuration.
//
// A project is configured by zfpack.cue or zfpack.toml next to the sources.
// Both formats are validated against the embedded CUE schema
// (config_schema.cue), merged into Viper over the defaults, and may be
// overridden by ZFPACK_* environment variables such as ZFPACK_OUTPUT_PATH.
// Checks the schema cannot express, such as rule regexps and globs, are
// done by Config.IsValid.
package config
