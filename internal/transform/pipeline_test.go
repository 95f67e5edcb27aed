// SPDX-License-Identifier: MPL-2.0

package transform

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
)

// tag returns a transformer that wraps its input in name(...).
func tag(name string) Transformer {
	return Func(func(_ context.Context, source, _ string) (string, error) {
		return name + "(" + source + ")", nil
	})
}

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r := NewRegistry()
	for _, name := range []string{"T1", "T2", "T3"} {
		if err := r.Register(name, tag(name)); err != nil {
			t.Fatal(err)
		}
	}
	failing := Func(func(context.Context, string, string) (string, error) {
		return "", errors.New("boom")
	})
	if err := r.Register("fail", failing); err != nil {
		t.Fatal(err)
	}
	return r
}

func TestApply_InnerToOuter(t *testing.T) {
	t.Parallel()

	p, err := NewPipeline([]Rule{
		{Test: regexp.MustCompile(`\.js$`), Use: []string{"T1", "T2"}},
	}, newTestRegistry(t))
	if err != nil {
		t.Fatal(err)
	}

	got, err := p.Apply(context.Background(), "S", "/proj/a.js")
	if err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	if want := "T1(T2(S))"; got != want {
		t.Errorf("Apply() = %q, want %q", got, want)
	}
}

func TestApply_FirstMatchingRuleWins(t *testing.T) {
	t.Parallel()

	p, err := NewPipeline([]Rule{
		{Test: regexp.MustCompile(`\.js$`), Use: []string{"T1"}},
		{Test: regexp.MustCompile(`.*`), Use: []string{"T3"}},
	}, newTestRegistry(t))
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		file string
		want string
	}{
		{file: "/proj/a.js", want: "T1(S)"},
		{file: "/proj/a.css", want: "T3(S)"},
	}
	for _, tt := range tests {
		got, err := p.Apply(context.Background(), "S", tt.file)
		if err != nil {
			t.Fatalf("Apply(%q) error: %v", tt.file, err)
		}
		if got != tt.want {
			t.Errorf("Apply(%q) = %q, want %q", tt.file, got, tt.want)
		}
	}
}

func TestApply_EmptyUsePassesThrough(t *testing.T) {
	t.Parallel()

	p, err := NewPipeline([]Rule{{Test: regexp.MustCompile(`\.js$`)}}, NewRegistry())
	if err != nil {
		t.Fatal(err)
	}
	got, err := p.Apply(context.Background(), "exports = 1;", "/a.js")
	if err != nil {
		t.Fatal(err)
	}
	if got != "exports = 1;" {
		t.Errorf("Apply() = %q, want source unchanged", got)
	}
}

func TestApply_NoLoaderMatched(t *testing.T) {
	t.Parallel()

	p, err := NewPipeline([]Rule{
		{Test: regexp.MustCompile(`\.js$`), Use: []string{"T1"}},
	}, newTestRegistry(t))
	if err != nil {
		t.Fatal(err)
	}

	_, err = p.Apply(context.Background(), "S", "/proj/style.css")
	if !errors.Is(err, ErrNoLoaderMatched) {
		t.Fatalf("expected ErrNoLoaderMatched, got: %v", err)
	}
	var nm *NoLoaderMatchedError
	if !errors.As(err, &nm) || nm.File != "/proj/style.css" {
		t.Errorf("expected *NoLoaderMatchedError for /proj/style.css, got %#v", err)
	}
}

func TestApply_Exclude(t *testing.T) {
	t.Parallel()

	p, err := NewPipeline([]Rule{
		{Test: regexp.MustCompile(`\.js$`), Exclude: []string{"**/vendor/**"}, Use: []string{"T1"}},
		{Test: regexp.MustCompile(`\.js$`)},
	}, newTestRegistry(t))
	if err != nil {
		t.Fatal(err)
	}

	got, err := p.Apply(context.Background(), "S", "/proj/vendor/lib.js")
	if err != nil {
		t.Fatal(err)
	}
	if got != "S" {
		t.Errorf("excluded file should fall through to the second rule, got %q", got)
	}
}

func TestApply_TransformError(t *testing.T) {
	t.Parallel()

	p, err := NewPipeline([]Rule{
		{Test: regexp.MustCompile(`\.js$`), Use: []string{"T1", "fail", "T2"}},
	}, newTestRegistry(t))
	if err != nil {
		t.Fatal(err)
	}

	_, err = p.Apply(context.Background(), "S", "/proj/a.js")
	if !errors.Is(err, ErrTransform) {
		t.Fatalf("expected ErrTransform, got: %v", err)
	}
	var te *TransformError
	if !errors.As(err, &te) {
		t.Fatalf("expected *TransformError, got %T", err)
	}
	if te.Transformer != "fail" || te.File != "/proj/a.js" {
		t.Errorf("unexpected error fields: %+v", te)
	}
	if te.Cause == nil || te.Cause.Error() != "boom" {
		t.Errorf("Cause = %v, want boom", te.Cause)
	}
}

func TestApply_Canceled(t *testing.T) {
	t.Parallel()

	p, err := NewPipeline([]Rule{
		{Test: regexp.MustCompile(`\.js$`), Use: []string{"T1"}},
	}, newTestRegistry(t))
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.Apply(ctx, "S", "/a.js"); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got: %v", err)
	}
}

func TestNewPipeline_UnknownHandle(t *testing.T) {
	t.Parallel()

	_, err := NewPipeline([]Rule{
		{Test: regexp.MustCompile(`\.js$`), Use: []string{"T1", "missing-loader"}},
	}, newTestRegistry(t))
	if !errors.Is(err, ErrUnknownTransformer) {
		t.Fatalf("expected ErrUnknownTransformer, got: %v", err)
	}
	if !strings.Contains(err.Error(), "missing-loader") {
		t.Errorf("error should name the handle, got: %v", err)
	}
}

func TestNewPipeline_InvalidExclude(t *testing.T) {
	t.Parallel()

	_, err := NewPipeline([]Rule{
		{Test: regexp.MustCompile(`\.js$`), Exclude: []string{"[unclosed"}},
	}, NewRegistry())
	if err == nil {
		t.Fatal("expected error for malformed glob")
	}
}

func TestRegistry_Duplicate(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	if err := r.Register("x", tag("x")); err != nil {
		t.Fatal(err)
	}
	if err := r.Register("x", tag("x")); !errors.Is(err, ErrDuplicateTransformer) {
		t.Errorf("expected ErrDuplicateTransformer, got: %v", err)
	}
	if err := r.Register(" ", tag("x")); err == nil {
		t.Error("expected error for blank handle")
	}
}

func TestBuiltins_Names(t *testing.T) {
	t.Parallel()

	got := Builtins().Names()
	want := []string{HandleEsbuild, HandleJSON, HandleRaw}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("Names() = %v, want %v", got, want)
	}
}

func TestDefaultRules(t *testing.T) {
	t.Parallel()

	p, err := NewPipeline(DefaultRules(), Builtins())
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		file    string
		want    string
		wantErr error
	}{
		{file: "/p/a.js", want: "1"},
		{file: "/p/a.mjs", want: "1"},
		{file: "/p/a.json", want: "module.exports = 1;\n"},
		{file: "/p/a.ts", wantErr: ErrNoLoaderMatched},
	}
	for _, tt := range tests {
		got, err := p.Apply(context.Background(), "1", tt.file)
		if tt.wantErr != nil {
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Apply(%q) error = %v, want %v", tt.file, err, tt.wantErr)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("Apply(%q) = %q, %v; want %q", tt.file, got, err, tt.want)
		}
	}
}
