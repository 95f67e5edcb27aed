// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"maps"
	"slices"

	"github.com/charmbracelet/glamour"
)

const (
	ModuleNotFoundId Id = iota + 1
	NoLoaderMatchedId
	TransformFailedId
	UnsupportedRequireId
	ModuleSyntaxId
	FileSystemId
	HookFailedId
	ConfigNotFoundId
	ConfigInvalidId
)

type (
	// Id identifies a catalog entry.
	Id int

	// MarkdownMsg is the Markdown body of a catalog entry.
	MarkdownMsg string

	// HttpLink is an external reference.
	HttpLink string

	// Issue is longer guidance for one kind of failure, rendered to the
	// terminal with glamour.
	Issue struct {
		id       Id
		mdMsg    MarkdownMsg
		extLinks []HttpLink
	}
)

// Id returns the catalog id.
func (i *Issue) Id() Id {
	return i.id
}

// MarkdownMsg returns the raw Markdown body.
func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

// ExtLinks returns a copy of the external links.
func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

// Render renders the entry with the named glamour style ("dark", "light",
// "notty", ...) or a style file path.
func (i *Issue) Render(stylePath string) (string, error) {
	md := string(i.mdMsg)
	if len(i.extLinks) > 0 {
		md += "\n\n## See also\n"
		for _, link := range i.extLinks {
			md += "- <" + string(link) + ">\n"
		}
	}
	return render(md, stylePath)
}

var (
	render = glamour.Render

	moduleNotFoundIssue = &Issue{
		id: ModuleNotFoundId,
		mdMsg: `
# A required module could not be found

A ` + "`require`" + ` call names a file that does not exist. Specifiers are
resolved relative to the directory of the module that requires them.

## Things you can try
- Check the spelling and the leading ` + "`./`" + ` or ` + "`../`" + `.
- Add the missing extension to ` + "`resolve.extensions`" + `:
~~~cue
resolve: extensions: [".js", ".json", ".ts"]
~~~
- Bare package names such as ` + "`require(\"lodash\")`" + ` are not looked up in
  ` + "`node_modules`" + `; use a relative path.`,
	}

	noLoaderMatchedIssue = &Issue{
		id: NoLoaderMatchedId,
		mdMsg: `
# No rule handles this file

Every module must match a ` + "`module.rules`" + ` entry, even when it needs no
transformation. Configured rules replace the defaults.

## Things you can try
- Add a rule for the file type:
~~~cue
module: rules: [
	{test: "\\.(js|cjs|mjs)$"},
	{test: "\\.ts$", use: ["esbuild"]},
]
~~~
- Check that the file is not excluded by an ` + "`exclude`" + ` glob.`,
	}

	transformFailedIssue = &Issue{
		id: TransformFailedId,
		mdMsg: `
# A transformer failed

A transformer named in ` + "`use`" + ` returned an error. Transformers run
right to left, so the last one sees the file first.

## Things you can try
- Run shell transformers by hand: they read the source on stdin and the file
  path is in ` + "`$ZFPACK_FILE`" + `.
- Remove transformers from ` + "`use`" + ` one at a time to find the failing one.`,
	}

	unsupportedRequireIssue = &Issue{
		id: UnsupportedRequireId,
		mdMsg: `
# Dynamic require is not supported

Dependencies are found at build time, so every ` + "`require`" + ` must take a
single string literal.

~~~js
require("./title");          // ok
require("./" + name);        // not supported
~~~

## Things you can try
- Require each candidate explicitly and pick one at runtime.`,
	}

	moduleSyntaxIssue = &Issue{
		id: ModuleSyntaxId,
		mdMsg: `
# The module is not valid JavaScript

The output of the transform rules could not be parsed.

## Things you can try
- Check the location printed above.
- If the file is TypeScript or JSX, add the ` + "`esbuild`" + ` transformer to its rule.`,
	}

	fileSystemIssue = &Issue{
		id: FileSystemId,
		mdMsg: `
# A file could not be read or written

## Things you can try
- Check that the output directory is writable.
- Check that no other process holds the file.`,
	}

	hookFailedIssue = &Issue{
		id: HookFailedId,
		mdMsg: `
# A plugin failed

A plugin tapped into the ` + "`run`" + ` or ` + "`done`" + ` hook returned an error.

## Things you can try
- Remove plugins from ` + "`plugins`" + ` to find the failing one.
- Set ` + "`hooks: policy: \"collect-errors\"`" + ` to see every failure at once.`,
	}

	configNotFoundIssue = &Issue{
		id: ConfigNotFoundId,
		mdMsg: `
# Configuration file not found

The file passed with ` + "`--config`" + ` does not exist. Without the flag,
` + "`zfpack.cue`" + ` and then ` + "`zfpack.toml`" + ` are looked up in the working
directory, and defaults apply when neither exists.`,
	}

	configInvalidIssue = &Issue{
		id: ConfigInvalidId,
		mdMsg: `
# The configuration is invalid

## Things you can try
- Print the schema:
~~~
$ zfpack config schema
~~~
- Print the configuration as loaded, with defaults and environment overrides:
~~~
$ zfpack config show
~~~`,
		extLinks: []HttpLink{"https://cuelang.org/docs/tour/"},
	}

	issues = map[Id]*Issue{
		moduleNotFoundIssue.Id():     moduleNotFoundIssue,
		noLoaderMatchedIssue.Id():    noLoaderMatchedIssue,
		transformFailedIssue.Id():    transformFailedIssue,
		unsupportedRequireIssue.Id(): unsupportedRequireIssue,
		moduleSyntaxIssue.Id():       moduleSyntaxIssue,
		fileSystemIssue.Id():         fileSystemIssue,
		hookFailedIssue.Id():         hookFailedIssue,
		configNotFoundIssue.Id():     configNotFoundIssue,
		configInvalidIssue.Id():      configInvalidIssue,
	}
)

// Values returns every catalog entry ordered by id.
func Values() []*Issue {
	out := slices.Collect(maps.Values(issues))
	slices.SortFunc(out, func(a, b *Issue) int { return int(a.id) - int(b.id) })
	return out
}

// Get returns the entry for id, or nil.
func Get(id Id) *Issue {
	return issues[id]
}
