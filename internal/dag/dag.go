// SPDX-License-Identifier: MPL-2.0

// Package dag provides topological ordering and cycle reporting over a
// directed graph of module ids. Output order is deterministic: ties follow
// the order in which nodes were first added.
package dag

import (
	"errors"
	"fmt"
	"strings"
)

// ErrCycle is the sentinel wrapped by CycleError.
var ErrCycle = errors.New("dependency cycle")

type (
	// CycleError lists the nodes Kahn's algorithm could not order: the cycle
	// members plus everything that depends on them.
	CycleError struct {
		Cycle []string
	}

	// Graph is a directed graph keyed by string. An edge from A to B means A
	// requires B.
	Graph struct {
		adjacency map[string][]string
		nodes     []string
		nodeSet   map[string]bool
	}
)

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle detected: %s", strings.Join(e.Cycle, " -> "))
}

// Unwrap returns ErrCycle for errors.Is() compatibility.
func (e *CycleError) Unwrap() error { return ErrCycle }

// New creates an empty Graph.
func New() *Graph {
	return &Graph{
		adjacency: make(map[string][]string),
		nodeSet:   make(map[string]bool),
	}
}

// AddNode adds a node; existing nodes are left alone.
func (g *Graph) AddNode(name string) {
	if g.nodeSet[name] {
		return
	}
	g.nodeSet[name] = true
	g.nodes = append(g.nodes, name)
}

// AddEdge records that from requires to, adding both nodes as needed.
// Self-edges are kept and count as cycles.
func (g *Graph) AddEdge(from, to string) {
	g.AddNode(from)
	g.AddNode(to)
	g.adjacency[from] = append(g.adjacency[from], to)
}

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.nodes) }

// TopologicalSort orders nodes so that every node comes before the nodes it
// requires (Kahn's algorithm). It returns CycleError when no order exists.
func (g *Graph) TopologicalSort() ([]string, error) {
	if len(g.nodes) == 0 {
		return nil, nil
	}

	inDegree := make(map[string]int, len(g.nodes))
	for _, neighbors := range g.adjacency {
		for _, n := range neighbors {
			inDegree[n]++
		}
	}

	queue := make([]string, 0, len(g.nodes))
	for _, node := range g.nodes {
		if inDegree[node] == 0 {
			queue = append(queue, node)
		}
	}

	result := make([]string, 0, len(g.nodes))
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		result = append(result, node)
		for _, n := range g.adjacency[node] {
			inDegree[n]--
			if inDegree[n] == 0 {
				queue = append(queue, n)
			}
		}
	}

	if len(result) != len(g.nodes) {
		var stuck []string
		for _, node := range g.nodes {
			if inDegree[node] > 0 {
				stuck = append(stuck, node)
			}
		}
		return nil, &CycleError{Cycle: stuck}
	}
	return result, nil
}

// Cycles returns the strongly connected components that contain a cycle,
// each listed in node insertion order. Components are ordered by their
// first member.
func (g *Graph) Cycles() [][]string {
	t := tarjan{
		g:       g,
		index:   make(map[string]int, len(g.nodes)),
		low:     make(map[string]int, len(g.nodes)),
		onStack: make(map[string]bool, len(g.nodes)),
	}
	for _, node := range g.nodes {
		if _, seen := t.index[node]; !seen {
			t.connect(node)
		}
	}

	order := make(map[string]int, len(g.nodes))
	for i, node := range g.nodes {
		order[node] = i
	}

	var cycles [][]string
	for _, comp := range t.components {
		if len(comp) == 1 && !g.hasSelfEdge(comp[0]) {
			continue
		}
		sortByOrder(comp, order)
		cycles = append(cycles, comp)
	}
	sortComponents(cycles, order)
	return cycles
}

func (g *Graph) hasSelfEdge(node string) bool {
	for _, n := range g.adjacency[node] {
		if n == node {
			return true
		}
	}
	return false
}

type tarjan struct {
	g          *Graph
	next       int
	index      map[string]int
	low        map[string]int
	stack      []string
	onStack    map[string]bool
	components [][]string
}

func (t *tarjan) connect(v string) {
	t.index[v] = t.next
	t.low[v] = t.next
	t.next++
	t.stack = append(t.stack, v)
	t.onStack[v] = true

	for _, w := range t.g.adjacency[v] {
		if _, seen := t.index[w]; !seen {
			t.connect(w)
			t.low[v] = min(t.low[v], t.low[w])
		} else if t.onStack[w] {
			t.low[v] = min(t.low[v], t.index[w])
		}
	}

	if t.low[v] != t.index[v] {
		return
	}
	var comp []string
	for {
		w := t.stack[len(t.stack)-1]
		t.stack = t.stack[:len(t.stack)-1]
		t.onStack[w] = false
		comp = append(comp, w)
		if w == v {
			break
		}
	}
	t.components = append(t.components, comp)
}

func sortByOrder(nodes []string, order map[string]int) {
	for i := 1; i < len(nodes); i++ {
		for j := i; j > 0 && order[nodes[j]] < order[nodes[j-1]]; j-- {
			nodes[j], nodes[j-1] = nodes[j-1], nodes[j]
		}
	}
}

func sortComponents(comps [][]string, order map[string]int) {
	for i := 1; i < len(comps); i++ {
		for j := i; j > 0 && order[comps[j][0]] < order[comps[j-1][0]]; j-- {
			comps[j], comps[j-1] = comps[j-1], comps[j]
		}
	}
}
