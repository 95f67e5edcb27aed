// SPDX-License-Identifier: MPL-2.0

package transform

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	shsyntax "mvdan.cc/sh/v3/syntax"
)

// FileEnvVar names the environment variable holding the path of the file
// being transformed by a shell transformer.
const FileEnvVar = "ZFPACK_FILE"

// Shell returns a transformer that pipes the source through command. The
// command is parsed once and interpreted in-process, so it behaves the same
// on every platform; external programs it names are still executed.
func Shell(command string) (Transformer, error) {
	prog, err := shsyntax.NewParser().Parse(strings.NewReader(command), "")
	if err != nil {
		return nil, fmt.Errorf("parse shell command: %w", err)
	}

	return Func(func(ctx context.Context, source, file string) (string, error) {
		var stdout, stderr bytes.Buffer
		opts := []interp.RunnerOption{
			interp.StdIO(strings.NewReader(source), &stdout, &stderr),
			interp.Env(expand.ListEnviron(append(os.Environ(), FileEnvVar+"="+file)...)),
		}
		// The file may live on a virtual filesystem; only chdir when the
		// directory is real.
		if dir := filepath.Dir(file); isDir(dir) {
			opts = append(opts, interp.Dir(dir))
		}

		runner, err := interp.New(opts...)
		if err != nil {
			return "", fmt.Errorf("create shell runner: %w", err)
		}
		if err := runner.Run(ctx, prog); err != nil {
			var status interp.ExitStatus
			if errors.As(err, &status) {
				if msg := strings.TrimSpace(stderr.String()); msg != "" {
					return "", fmt.Errorf("command exited with status %d: %s", uint8(status), msg)
				}
				return "", fmt.Errorf("command exited with status %d", uint8(status))
			}
			return "", err
		}
		return stdout.String(), nil
	}), nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
