// SPDX-License-Identifier: MPL-2.0

// Package chunk groups the modules of a built table into one chunk per entry.
package chunk

import "github.com/kongjun0320/zf-webpack/internal/graph"

// Chunk is the set of modules emitted as one asset.
type Chunk struct {
	// Name is the entry name.
	Name string
	// EntryModuleID is the id of the module that runs inline.
	EntryModuleID string
	// ModuleIDs lists every member, entry included, in table order.
	ModuleIDs []string
}

// Assemble returns one chunk per entry point, in the order given. A module
// reached by several entries is a member of each of their chunks.
func Assemble(entries []graph.EntryPoint, table *graph.Table) []*Chunk {
	modules := table.Modules()
	chunks := make([]*Chunk, 0, len(entries))
	for _, ep := range entries {
		c := &Chunk{Name: ep.Name, EntryModuleID: ep.ID}
		for _, m := range modules {
			if m.HasEntry(ep.Name) {
				c.ModuleIDs = append(c.ModuleIDs, m.ID)
			}
		}
		chunks = append(chunks, c)
	}
	return chunks
}

// Dependencies returns the member ids other than the entry module.
func (c *Chunk) Dependencies() []string {
	out := make([]string, 0, len(c.ModuleIDs))
	for _, id := range c.ModuleIDs {
		if id != c.EntryModuleID {
			out = append(out, id)
		}
	}
	return out
}
