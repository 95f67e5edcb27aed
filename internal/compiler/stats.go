// SPDX-License-Identifier: MPL-2.0

package compiler

import (
	"slices"
	"time"

	"github.com/kongjun0320/zf-webpack/internal/chunk"
	"github.com/kongjun0320/zf-webpack/internal/emit"
	"github.com/kongjun0320/zf-webpack/internal/graph"
)

type (
	// Stats describes one compile pass. After a failed pass it holds what was
	// built before the failure.
	Stats struct {
		Context    string
		OutputPath string
		Entries    []graph.EntryPoint
		Modules    []*graph.Module
		Chunks     []*chunk.Chunk
		Assets     []emit.Asset
		Duration   time.Duration
		// Err is the pass error, nil when the assets were written.
		Err error

		files []string
	}

	// StatsOptions selects the parts of ToJSON's result.
	StatsOptions struct {
		Modules bool
		Chunks  bool
		Assets  bool
		// Source includes module text in the modules section.
		Source bool
	}

	// StatsJSON is the structured snapshot returned by ToJSON.
	StatsJSON struct {
		Modules []ModuleJSON `json:"modules,omitempty"`
		Chunks  []ChunkJSON  `json:"chunks,omitempty"`
		Assets  []AssetJSON  `json:"assets,omitempty"`
	}

	ModuleJSON struct {
		ID           string   `json:"id"`
		Path         string   `json:"path"`
		Chunks       []string `json:"chunks"`
		Dependencies []string `json:"dependencies"`
		Size         int      `json:"size"`
		Source       string   `json:"source,omitempty"`
	}

	ChunkJSON struct {
		Name    string   `json:"name"`
		Entry   string   `json:"entry"`
		Modules []string `json:"modules"`
		Files   []string `json:"files"`
	}

	AssetJSON struct {
		Name  string `json:"name"`
		Chunk string `json:"chunk"`
		Size  int    `json:"size"`
		Hash  string `json:"hash"`
	}
)

// AllStats selects every section, module source included.
var AllStats = StatsOptions{Modules: true, Chunks: true, Assets: true, Source: true}

// Files returns the source files read during the pass, sorted.
func (s *Stats) Files() []string {
	if s == nil {
		return nil
	}
	return slices.Clone(s.files)
}

// ToJSON returns the selected sections.
func (s *Stats) ToJSON(opts StatsOptions) StatsJSON {
	var out StatsJSON
	if s == nil {
		return out
	}

	if opts.Modules {
		out.Modules = make([]ModuleJSON, 0, len(s.Modules))
		for _, m := range s.Modules {
			deps := make([]string, 0, len(m.Dependencies))
			for _, d := range m.Dependencies {
				deps = append(deps, d.ID)
			}
			mj := ModuleJSON{
				ID:           m.ID,
				Path:         m.Path,
				Chunks:       slices.Clone(m.Entries),
				Dependencies: deps,
				Size:         len(m.Source),
			}
			if opts.Source {
				mj.Source = m.Source
			}
			out.Modules = append(out.Modules, mj)
		}
	}

	if opts.Chunks {
		out.Chunks = make([]ChunkJSON, 0, len(s.Chunks))
		for _, c := range s.Chunks {
			cj := ChunkJSON{Name: c.Name, Entry: c.EntryModuleID, Modules: slices.Clone(c.ModuleIDs), Files: []string{}}
			for _, a := range s.Assets {
				if a.Chunk == c.Name {
					cj.Files = append(cj.Files, a.Filename)
				}
			}
			out.Chunks = append(out.Chunks, cj)
		}
	}

	if opts.Assets {
		out.Assets = make([]AssetJSON, 0, len(s.Assets))
		for _, a := range s.Assets {
			out.Assets = append(out.Assets, AssetJSON{Name: a.Filename, Chunk: a.Chunk, Size: len(a.Content), Hash: a.Hash})
		}
	}
	return out
}
