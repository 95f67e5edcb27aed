// SPDX-License-Identifier: MPL-2.0

// Package fsys is the filesystem boundary of the compiler. Every read, write
// and existence check goes through an afero.Fs so production code runs on the
// OS filesystem while tests run on an in-memory tree, and every failure is
// reported as a FileSystemError.
package fsys

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// ErrFileSystem is the sentinel wrapped by FileSystemError.
var ErrFileSystem = errors.New("file system error")

// FileSystemError reports a failed filesystem operation on a single path.
type FileSystemError struct {
	// Op is the operation that failed ("read", "write", "mkdir", ...).
	Op string
	// Path is the absolute path involved.
	Path string
	// Cause is the underlying error from the filesystem.
	Cause error
}

// Error implements the error interface.
func (e *FileSystemError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Cause)
}

// Unwrap exposes both the sentinel and the underlying cause, so
// errors.Is(err, ErrFileSystem) and errors.Is(err, fs.ErrNotExist) both work.
func (e *FileSystemError) Unwrap() []error {
	return []error{ErrFileSystem, e.Cause}
}

// OS returns the filesystem backed by the host operating system.
func OS() afero.Fs {
	return afero.NewOsFs()
}

// IsFile reports whether path exists and is not a directory.
func IsFile(fsys afero.Fs, path string) bool {
	info, err := fsys.Stat(path)
	return err == nil && !info.IsDir()
}

// ReadFile reads the whole file as text.
func ReadFile(fsys afero.Fs, path string) (string, error) {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return "", &FileSystemError{Op: "read", Path: path, Cause: err}
	}
	return string(data), nil
}

// WriteFile writes data to path, creating parent directories as needed. The
// content is written to a temporary sibling first and renamed into place, so
// readers never observe a truncated file.
func WriteFile(fsys afero.Fs, path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return &FileSystemError{Op: "mkdir", Path: dir, Cause: err}
	}

	tmp, err := afero.TempFile(fsys, dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return &FileSystemError{Op: "write", Path: path, Cause: err}
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()           // best-effort cleanup
		_ = fsys.Remove(tmpName) // best-effort cleanup
		return &FileSystemError{Op: "write", Path: path, Cause: err}
	}
	if err := tmp.Close(); err != nil {
		_ = fsys.Remove(tmpName) // best-effort cleanup
		return &FileSystemError{Op: "write", Path: path, Cause: err}
	}
	if err := fsys.Chmod(tmpName, 0o644); err != nil && !errors.Is(err, os.ErrNotExist) {
		_ = fsys.Remove(tmpName) // best-effort cleanup
		return &FileSystemError{Op: "chmod", Path: path, Cause: err}
	}
	if err := fsys.Rename(tmpName, path); err != nil {
		_ = fsys.Remove(tmpName) // best-effort cleanup
		return &FileSystemError{Op: "rename", Path: path, Cause: err}
	}
	return nil
}
