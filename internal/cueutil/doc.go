// SPDX-License-Identifier: MPL-2.0

// Package cueutil validates configuration against embedded CUE schemas.
//
// Documents are unified with a schema definition and decoded into plain
// maps so callers can merge them into viper:
//
//	schema, err := cueutil.CompileSchema(schemaBytes, "#Config")
//	if err != nil {
//	    return err
//	}
//	values, err := schema.DecodeSource(data, cueutil.WithFilename("zfpack.cue"))
//
// Errors carry the file name and a JSON-style path to the offending field.
package cueutil
