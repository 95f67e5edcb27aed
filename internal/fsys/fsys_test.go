// SPDX-License-Identifier: MPL-2.0

package fsys

import (
	"errors"
	"io/fs"
	"testing"

	"github.com/spf13/afero"
)

func TestIsFile(t *testing.T) {
	t.Parallel()

	mem := afero.NewMemMapFs()
	if err := afero.WriteFile(mem, "/proj/src/a.js", []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		path string
		want bool
	}{
		{name: "regular file", path: "/proj/src/a.js", want: true},
		{name: "directory", path: "/proj/src", want: false},
		{name: "missing", path: "/proj/src/b.js", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := IsFile(mem, tt.path); got != tt.want {
				t.Errorf("IsFile(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestReadFile_Missing(t *testing.T) {
	t.Parallel()

	_, err := ReadFile(afero.NewMemMapFs(), "/nope.js")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !errors.Is(err, ErrFileSystem) {
		t.Errorf("error should wrap ErrFileSystem, got: %v", err)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("error should wrap fs.ErrNotExist, got: %v", err)
	}

	var fsErr *FileSystemError
	if !errors.As(err, &fsErr) {
		t.Fatalf("error should be *FileSystemError, got %T", err)
	}
	if fsErr.Op != "read" || fsErr.Path != "/nope.js" {
		t.Errorf("unexpected error fields: %+v", fsErr)
	}
}

func TestWriteFile_CreatesParents(t *testing.T) {
	t.Parallel()

	mem := afero.NewMemMapFs()
	if err := WriteFile(mem, "/out/dist/main.js", []byte("bundle")); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}

	got, err := ReadFile(mem, "/out/dist/main.js")
	if err != nil {
		t.Fatalf("ReadFile() error: %v", err)
	}
	if got != "bundle" {
		t.Errorf("content = %q, want %q", got, "bundle")
	}

	entries, err := afero.ReadDir(mem, "/out/dist")
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("expected only the asset in the output dir, got %d entries", len(entries))
	}
}

func TestWriteFile_ReadOnly(t *testing.T) {
	t.Parallel()

	ro := afero.NewReadOnlyFs(afero.NewMemMapFs())
	err := WriteFile(ro, "/out/main.js", []byte("bundle"))
	if !errors.Is(err, ErrFileSystem) {
		t.Fatalf("expected ErrFileSystem, got: %v", err)
	}
}
