// SPDX-License-Identifier: MPL-2.0

package resolve

import (
	"errors"
	"slices"
	"testing"

	"github.com/spf13/afero"
)

func newFixture(t *testing.T, files ...string) afero.Fs {
	t.Helper()
	mem := afero.NewMemMapFs()
	for _, f := range files {
		if err := afero.WriteFile(mem, f, []byte("// "+f), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return mem
}

func TestResolve(t *testing.T) {
	t.Parallel()

	mem := newFixture(t,
		"/proj/src/title.js",
		"/proj/src/data.json",
		"/proj/src/both",
		"/proj/src/both.js",
		"/proj/src/lib/index.js",
		"/proj/shared/util.js",
	)
	r := New(mem, []string{".js", ".json"})

	tests := []struct {
		name      string
		specifier string
		fromDir   string
		want      string
	}{
		{name: "exact path", specifier: "./title.js", fromDir: "/proj/src", want: "/proj/src/title.js"},
		{name: "first extension", specifier: "./title", fromDir: "/proj/src", want: "/proj/src/title.js"},
		{name: "second extension", specifier: "./data", fromDir: "/proj/src", want: "/proj/src/data.json"},
		{name: "literal wins over extension", specifier: "./both", fromDir: "/proj/src", want: "/proj/src/both"},
		{name: "parent directory", specifier: "../shared/util", fromDir: "/proj/src", want: "/proj/shared/util.js"},
		{name: "nested directory", specifier: "./lib/index", fromDir: "/proj/src", want: "/proj/src/lib/index.js"},
		{name: "absolute specifier", specifier: "/proj/src/title", fromDir: "/elsewhere", want: "/proj/src/title.js"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := r.Resolve(tt.specifier, tt.fromDir)
			if err != nil {
				t.Fatalf("Resolve(%q, %q) error: %v", tt.specifier, tt.fromDir, err)
			}
			if got != tt.want {
				t.Errorf("Resolve(%q, %q) = %q, want %q", tt.specifier, tt.fromDir, got, tt.want)
			}
		})
	}
}

func TestResolve_ExtensionOrder(t *testing.T) {
	t.Parallel()

	mem := newFixture(t, "/proj/a.js", "/proj/a.json")

	got, err := New(mem, []string{".json", ".js"}).Resolve("./a", "/proj")
	if err != nil {
		t.Fatal(err)
	}
	if got != "/proj/a.json" {
		t.Errorf("expected configured order to prefer .json, got %q", got)
	}
}

func TestResolve_Missing(t *testing.T) {
	t.Parallel()

	mem := newFixture(t, "/proj/src/title.js")
	r := New(mem, []string{".js"})

	_, err := r.Resolve("./missing", "/proj/src")
	if err == nil {
		t.Fatal("expected error for missing module")
	}
	if !errors.Is(err, ErrModuleNotFound) {
		t.Errorf("error should wrap ErrModuleNotFound, got: %v", err)
	}

	var nf *ModuleNotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("error should be *ModuleNotFoundError, got %T", err)
	}
	if nf.Specifier != "./missing" || nf.FromDir != "/proj/src" {
		t.Errorf("unexpected error fields: %+v", nf)
	}
	wantTried := []string{"/proj/src/missing", "/proj/src/missing.js"}
	if !slices.Equal(nf.Tried, wantTried) {
		t.Errorf("Tried = %v, want %v", nf.Tried, wantTried)
	}
}

func TestResolve_DirectoryIsNotAModule(t *testing.T) {
	t.Parallel()

	mem := newFixture(t, "/proj/src/lib/index.js", "/proj/src/lib.js")

	got, err := New(mem, []string{".js"}).Resolve("./lib", "/proj/src")
	if err != nil {
		t.Fatal(err)
	}
	if got != "/proj/src/lib.js" {
		t.Errorf("expected directory to be skipped in favour of lib.js, got %q", got)
	}
}

func TestModuleID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		context string
		abs     string
		want    string
	}{
		{context: "/proj", abs: "/proj/src/title.js", want: "./src/title.js"},
		{context: "/proj/src", abs: "/proj/src/title.js", want: "./title.js"},
		{context: "/proj/src", abs: "/proj/shared/util.js", want: "../shared/util.js"},
		{context: "/proj/", abs: "/proj/a.js", want: "./a.js"},
	}

	for _, tt := range tests {
		if got := ModuleID(tt.context, tt.abs); got != tt.want {
			t.Errorf("ModuleID(%q, %q) = %q, want %q", tt.context, tt.abs, got, tt.want)
		}
	}
}
