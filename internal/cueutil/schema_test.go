// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"errors"
	"strings"
	"testing"
)

const testSchema = `
#Doc: close({
	name?:  string
	count?: int & >=0
	tags?: [...string]
})
`

func mustSchema(t *testing.T) *Schema {
	t.Helper()
	s, err := CompileSchema([]byte(testSchema), "#Doc")
	if err != nil {
		t.Fatalf("CompileSchema: %v", err)
	}
	return s
}

func TestCompileSchema_MissingDefinition(t *testing.T) {
	t.Parallel()

	if _, err := CompileSchema([]byte(testSchema), "#Nope"); err == nil {
		t.Fatal("expected error for a missing definition")
	}
	if _, err := CompileSchema([]byte("#Doc: {"), "#Doc"); err == nil {
		t.Fatal("expected error for a broken schema")
	}
}

func TestDecodeSource(t *testing.T) {
	t.Parallel()

	s := mustSchema(t)

	tests := []struct {
		name    string
		src     string
		want    map[string]any
		wantErr string
	}{
		{name: "empty", src: "", want: map[string]any{}},
		{name: "partial", src: `name: "x"`, want: map[string]any{"name": "x"}},
		{name: "wrong type", src: `count: "3"`, wantErr: "count:"},
		{name: "constraint", src: `count: -1`, wantErr: "count"},
		{name: "unknown field", src: `other: 1`, wantErr: "other"},
		{name: "syntax", src: `name: `, wantErr: "cfg.cue"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := s.DecodeSource([]byte(tt.src), WithFilename("cfg.cue"))
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("err = %v, want containing %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeSource: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("%s = %v, want %v", k, got[k], v)
				}
			}
		})
	}
}

func TestDecodeSource_SizeLimit(t *testing.T) {
	t.Parallel()

	s := mustSchema(t)
	_, err := s.DecodeSource([]byte(`name: "0123456789"`), WithFilename("big.cue"), WithMaxFileSize(4))
	if err == nil || !strings.Contains(err.Error(), "exceeds maximum 4 bytes") {
		t.Fatalf("err = %v", err)
	}
}

func TestDecodeValue(t *testing.T) {
	t.Parallel()

	s := mustSchema(t)

	got, err := s.DecodeValue(map[string]any{"name": "x", "tags": []any{"a", "b"}}, WithFilename("cfg.toml"))
	if err != nil {
		t.Fatalf("DecodeValue: %v", err)
	}
	tags, ok := got["tags"].([]any)
	if !ok || len(tags) != 2 || tags[0] != "a" {
		t.Errorf("tags = %#v", got["tags"])
	}

	_, err = s.DecodeValue(map[string]any{"count": "many"}, WithFilename("cfg.toml"))
	if err == nil || !strings.HasPrefix(err.Error(), "cfg.toml: ") || !strings.Contains(err.Error(), "count") {
		t.Fatalf("err = %v", err)
	}
}

func TestFormat(t *testing.T) {
	t.Parallel()

	type doc struct {
		Name  string   `json:"name"`
		Count int      `json:"count"`
		Tags  []string `json:"tags"`
	}

	out, err := Format(doc{Name: "x", Count: 2, Tags: []string{"a"}})
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	text := strings.Join(strings.Fields(string(out)), " ")
	for _, want := range []string{`name: "x"`, `count: 2`, `tags: ["a"]`} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q:\n%s", want, text)
		}
	}
	if strings.HasPrefix(text, "{") {
		t.Errorf("output should be a file, not a struct literal:\n%s", text)
	}

	// The rendered document must validate against a matching schema.
	s := mustSchema(t)
	if _, err := s.DecodeSource(out); err != nil {
		t.Errorf("formatted output does not round-trip: %v", err)
	}
}

func TestFormatError(t *testing.T) {
	t.Parallel()

	if FormatError(nil, "x.cue") != nil {
		t.Error("nil error should stay nil")
	}

	plain := errors.New("boom")
	err := FormatError(plain, "x.cue")
	if err.Error() != "x.cue: boom" || !errors.Is(err, plain) {
		t.Errorf("err = %v", err)
	}
}

func TestFormatPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path []string
		want string
	}{
		{nil, ""},
		{[]string{"output"}, "output"},
		{[]string{"module", "rules", "0", "test"}, "module.rules[0].test"},
		{[]string{"0"}, "0"},
		{[]string{"a", "1", "2"}, "a[1][2]"},
	}
	for _, tt := range tests {
		if got := formatPath(tt.path); got != tt.want {
			t.Errorf("formatPath(%v) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestCheckFileSize(t *testing.T) {
	t.Parallel()

	if err := CheckFileSize(make([]byte, 10), 10, "f"); err != nil {
		t.Errorf("at limit: %v", err)
	}
	if err := CheckFileSize(make([]byte, 11), 10, "f"); err == nil {
		t.Error("over limit: expected error")
	}
}
