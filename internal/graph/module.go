// SPDX-License-Identifier: MPL-2.0

package graph

import (
	"slices"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

type (
	// Dependency is a resolved edge from one module to another.
	Dependency struct {
		ID   string
		Path string
	}

	// Module is one source file of the graph.
	Module struct {
		// ID is the context-relative id, e.g. "./src/title.js".
		ID string
		// Path is the absolute file path.
		Path string
		// Entries lists, in discovery order, the entries that reach this module.
		Entries []string
		// Dependencies are deduplicated by id and kept in first-seen order.
		Dependencies []Dependency
		// Source is the transformed and rewritten text.
		Source string
		// Seq is the position at which the module was created in its table.
		Seq int
	}

	// Table maps module ids to modules in insertion order. A Table belongs to
	// exactly one Session.
	Table struct {
		modules *orderedmap.OrderedMap[string, *Module]
	}

	// EntryPoint names the root module of one chunk.
	EntryPoint struct {
		Name string
		ID   string
		Path string
	}
)

// HasEntry reports whether name is one of the module's entries.
func (m *Module) HasEntry(name string) bool {
	return slices.Contains(m.Entries, name)
}

// addEntry records name and reports whether it was new.
func (m *Module) addEntry(name string) bool {
	if m.HasEntry(name) {
		return false
	}
	m.Entries = append(m.Entries, name)
	return true
}

func (m *Module) addDependency(dep Dependency) {
	for _, d := range m.Dependencies {
		if d.ID == dep.ID {
			return
		}
	}
	m.Dependencies = append(m.Dependencies, dep)
}

// NewTable creates an empty Table.
func NewTable() *Table {
	return &Table{modules: orderedmap.New[string, *Module]()}
}

// Get returns the module with the given id.
func (t *Table) Get(id string) (*Module, bool) {
	return t.modules.Get(id)
}

// Len returns the number of modules.
func (t *Table) Len() int {
	return t.modules.Len()
}

// Modules returns every module in insertion order.
func (t *Table) Modules() []*Module {
	out := make([]*Module, 0, t.modules.Len())
	for pair := t.modules.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Value)
	}
	return out
}

// insert adds m, assigning its sequence number. It reports false when the id
// is already taken.
func (t *Table) insert(m *Module) bool {
	if _, ok := t.modules.Get(m.ID); ok {
		return false
	}
	m.Seq = t.modules.Len()
	t.modules.Set(m.ID, m)
	return true
}
