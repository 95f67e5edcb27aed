// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/kongjun0320/zf-webpack/internal/compiler"
	"github.com/kongjun0320/zf-webpack/internal/fsys"
	"github.com/kongjun0320/zf-webpack/internal/graph"
	"github.com/kongjun0320/zf-webpack/internal/hook"
	"github.com/kongjun0320/zf-webpack/internal/resolve"
	"github.com/kongjun0320/zf-webpack/internal/syntax"
	"github.com/kongjun0320/zf-webpack/internal/transform"
)

func TestExplain(t *testing.T) {
	t.Parallel()

	chained := func(err error) error {
		return &graph.BuildError{Chain: []string{"./src/index.js", "./src/a.js"}, Cause: err}
	}

	tests := []struct {
		name          string
		err           error
		wantOperation string
		wantResource  string
		wantIssue     Id
		wantSuggest   string
	}{
		{
			name:          "module not found",
			err:           chained(&resolve.ModuleNotFoundError{Specifier: "./missing", FromDir: "/proj/src", Tried: []string{"/proj/src/missing", "/proj/src/missing.js"}}),
			wantOperation: "resolve module",
			wantResource:  "./missing",
			wantIssue:     ModuleNotFoundId,
			wantSuggest:   "Tried: /proj/src/missing, /proj/src/missing.js",
		},
		{
			name:          "no loader",
			err:           &transform.NoLoaderMatchedError{File: "/proj/a.ts"},
			wantOperation: "transform module",
			wantResource:  "/proj/a.ts",
			wantIssue:     NoLoaderMatchedId,
		},
		{
			name:          "transform",
			err:           &transform.TransformError{Transformer: "esbuild", File: "/proj/a.ts", Cause: errors.New("bad")},
			wantOperation: "transform module",
			wantResource:  "/proj/a.ts",
			wantIssue:     TransformFailedId,
			wantSuggest:   `"esbuild"`,
		},
		{
			name:          "unknown transformer",
			err:           fmt.Errorf("bind: %w", &transform.UnknownTransformerError{Name: "sass"}),
			wantOperation: "configure transformers",
			wantResource:  "sass",
			wantIssue:     TransformFailedId,
			wantSuggest:   "esbuild, json, raw",
		},
		{
			name:          "unsupported require",
			err:           chained(&syntax.UnsupportedDependencyExpressionError{File: "/proj/a.js", Line: 3, Column: 9, CallSite: "require(x)"}),
			wantOperation: "collect dependencies",
			wantResource:  "/proj/a.js:3:9",
			wantIssue:     UnsupportedRequireId,
			wantSuggest:   "Required via ./src/index.js -> ./src/a.js",
		},
		{
			name:          "syntax",
			err:           &syntax.SyntaxError{File: "/proj/a.js", Line: 1, Column: 2},
			wantOperation: "parse module",
			wantResource:  "/proj/a.js:1:2",
			wantIssue:     ModuleSyntaxId,
		},
		{
			name:          "filesystem",
			err:           &fsys.FileSystemError{Op: "write", Path: "/proj/dist/main.js", Cause: errors.New("denied")},
			wantOperation: "write file",
			wantResource:  "/proj/dist/main.js",
			wantIssue:     FileSystemId,
		},
		{
			name:          "hook",
			err:           &hook.HookError{Hook: "done", Label: "stats-file", Cause: errors.New("boom")},
			wantOperation: "run done hook",
			wantResource:  "stats-file",
			wantIssue:     HookFailedId,
		},
		{
			name:          "invalid options",
			err:           fmt.Errorf("%w: no entries", compiler.ErrInvalidOptions),
			wantOperation: "configure compiler",
			wantIssue:     ConfigInvalidId,
		},
		{
			name:          "canceled",
			err:           context.Canceled,
			wantOperation: "finish build",
		},
		{
			name:          "unknown error",
			err:           errors.New("mystery"),
			wantOperation: "build bundle",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := Explain(tt.err)
			if got == nil {
				t.Fatal("Explain returned nil")
			}
			if got.Operation != tt.wantOperation || got.Resource != tt.wantResource || got.Issue != tt.wantIssue {
				t.Errorf("got op=%q resource=%q issue=%d, want %q %q %d",
					got.Operation, got.Resource, got.Issue, tt.wantOperation, tt.wantResource, tt.wantIssue)
			}
			if !errors.Is(got, tt.err) {
				t.Error("explained error must wrap the original")
			}
			if tt.wantSuggest != "" && !strings.Contains(strings.Join(got.Suggestions, "\n"), tt.wantSuggest) {
				t.Errorf("suggestions %q missing %q", got.Suggestions, tt.wantSuggest)
			}
		})
	}
}

func TestExplain_PassThrough(t *testing.T) {
	t.Parallel()

	if Explain(nil) != nil {
		t.Error("Explain(nil) should be nil")
	}

	original := NewErrorContext().WithOperation("load configuration").Build()
	if Explain(fmt.Errorf("wrapped: %w", original)) != original {
		t.Error("an ActionableError in the chain should be returned as is")
	}
}
