// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kongjun0320/zf-webpack/internal/compiler"
	"github.com/kongjun0320/zf-webpack/internal/fsys"
	"github.com/kongjun0320/zf-webpack/internal/graph"
	"github.com/kongjun0320/zf-webpack/internal/hook"
	"github.com/kongjun0320/zf-webpack/internal/resolve"
	"github.com/kongjun0320/zf-webpack/internal/syntax"
	"github.com/kongjun0320/zf-webpack/internal/transform"
)

// Explain maps err to an ActionableError for display. An ActionableError
// already in the chain is returned as is. Explain(nil) is nil.
func Explain(err error) *ActionableError {
	if err == nil {
		return nil
	}

	var actionable *ActionableError
	if errors.As(err, &actionable) {
		return actionable
	}

	c := NewErrorContext().WithOperation("build bundle").Wrap(err)

	var (
		notFound    *resolve.ModuleNotFoundError
		noLoader    *transform.NoLoaderMatchedError
		transformEr *transform.TransformError
		unknown     *transform.UnknownTransformerError
		unsupported *syntax.UnsupportedDependencyExpressionError
		syntaxErr   *syntax.SyntaxError
		fsErr       *fsys.FileSystemError
		hookErr     *hook.HookError
	)
	switch {
	case errors.As(err, &notFound):
		c.WithOperation("resolve module").
			WithResource(notFound.Specifier).
			WithIssue(ModuleNotFoundId).
			WithSuggestion(fmt.Sprintf("Check that %q exists relative to %s", notFound.Specifier, notFound.FromDir))
		if len(notFound.Tried) > 0 {
			c.WithSuggestion("Tried: " + strings.Join(notFound.Tried, ", "))
		}
	case errors.As(err, &noLoader):
		c.WithOperation("transform module").
			WithResource(noLoader.File).
			WithIssue(NoLoaderMatchedId).
			WithSuggestion("Add a module.rules entry whose test matches this file")
	case errors.As(err, &transformEr):
		c.WithOperation("transform module").
			WithResource(transformEr.File).
			WithIssue(TransformFailedId).
			WithSuggestion(fmt.Sprintf("The %q transformer failed; check its output for this file", transformEr.Transformer))
	case errors.As(err, &unknown):
		c.WithOperation("configure transformers").
			WithResource(unknown.Name).
			WithIssue(TransformFailedId).
			WithSuggestion("Declare it under transformers or use one of: " + strings.Join(transform.Builtins().Names(), ", "))
	case errors.As(err, &unsupported):
		c.WithOperation("collect dependencies").
			WithResource(fmt.Sprintf("%s:%d:%d", unsupported.File, unsupported.Line, unsupported.Column)).
			WithIssue(UnsupportedRequireId).
			WithSuggestion("Pass require a single string literal")
	case errors.As(err, &syntaxErr):
		c.WithOperation("parse module").
			WithResource(fmt.Sprintf("%s:%d:%d", syntaxErr.File, syntaxErr.Line, syntaxErr.Column)).
			WithIssue(ModuleSyntaxId)
	case errors.As(err, &fsErr):
		c.WithOperation(fsErr.Op + " file").
			WithResource(fsErr.Path).
			WithIssue(FileSystemId)
	case errors.As(err, &hookErr):
		c.WithOperation("run " + hookErr.Hook + " hook").
			WithResource(hookErr.Label).
			WithIssue(HookFailedId)
	case errors.Is(err, compiler.ErrInvalidOptions):
		c.WithOperation("configure compiler").
			WithIssue(ConfigInvalidId)
	case errors.Is(err, context.Canceled):
		c.WithOperation("finish build").
			WithSuggestion("The build was interrupted")
	}

	var build *graph.BuildError
	if errors.As(err, &build) && len(build.Chain) > 1 {
		c.WithSuggestion("Required via " + strings.Join(build.Chain, " -> "))
	}

	return c.Build()
}
