// Copyright 2025 KrakLabs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

package graph

import "path/filepath"

// ArrayGraph is a contiguous-slice backed Graph with a secondary name
// index, grounded on the accumulate-then-index working sets the teacher's
// LocalPipeline builds per stage (slices of entities, indexed afterward for
// cross-referencing). Best suited for one-shot batch builds where nodes are
// appended in assembler order and rarely removed.
type ArrayGraph struct {
	nodes   []Node
	keyIdx  map[string]int // canonical key -> index into nodes (-1 = tombstoned)
	nameIdx map[nameIdxKey][]int
	edges   []Edge
	edgeSet map[edgeIdentity]bool
}

type nameIdxKey struct {
	kind NodeKind
	name string
}

// NewArrayGraph constructs an empty array-backed graph.
func NewArrayGraph() *ArrayGraph {
	return &ArrayGraph{
		keyIdx:  make(map[string]int),
		nameIdx: make(map[nameIdxKey][]int),
		edgeSet: make(map[edgeIdentity]bool),
	}
}

func (g *ArrayGraph) AddNode(n Node) string {
	key := n.Key()
	if idx, exists := g.keyIdx[key]; exists && idx >= 0 {
		existing := g.nodes[idx]
		if existing.Data.Meta == nil {
			existing.Data.Meta = NewMeta()
		}
		existing.Data.Meta.Merge(n.Data.Meta)
		if n.Data.Body != "" {
			existing.Data.Body = n.Data.Body
		}
		g.nodes[idx] = existing
		return key
	}
	idx := len(g.nodes)
	g.nodes = append(g.nodes, n)
	g.keyIdx[key] = idx
	nk := nameIdxKey{kind: n.Kind, name: n.Data.Name}
	g.nameIdx[nk] = append(g.nameIdx[nk], idx)
	return key
}

func (g *ArrayGraph) AddNodeWithParent(n Node, parentKey string) string {
	key := g.AddNode(n)
	g.AddEdge(Edge{Kind: Contains, Source: parentKey, Target: key})
	return key
}

func (g *ArrayGraph) AddEdge(e Edge) bool {
	if _, ok := g.FindByKey(e.Source); !ok {
		return false
	}
	if _, ok := g.FindByKey(e.Target); !ok {
		return false
	}
	id := e.identity()
	if g.edgeSet[id] {
		return true
	}
	g.edgeSet[id] = true
	g.edges = append(g.edges, e)
	return true
}

func (g *ArrayGraph) RemoveNode(key string) {
	idx, ok := g.keyIdx[key]
	if !ok || idx < 0 {
		return
	}
	delete(g.keyIdx, key)
	g.nodes[idx] = Node{} // tombstone; index slot kept to preserve other indices
	filtered := g.edges[:0]
	newSet := make(map[edgeIdentity]bool, len(g.edgeSet))
	for _, e := range g.edges {
		if e.Source == key || e.Target == key {
			continue
		}
		filtered = append(filtered, e)
		newSet[e.identity()] = true
	}
	g.edges = filtered
	g.edgeSet = newSet
}

func (g *ArrayGraph) FindByKey(key string) (Node, bool) {
	idx, ok := g.keyIdx[key]
	if !ok || idx < 0 {
		return Node{}, false
	}
	return g.nodes[idx], true
}

func (g *ArrayGraph) FindByName(kind NodeKind, name string) []Node {
	var out []Node
	for _, idx := range g.nameIdx[nameIdxKey{kind: kind, name: name}] {
		if n := g.nodes[idx]; n.Kind != "" {
			out = append(out, n)
		}
	}
	return out
}

func (g *ArrayGraph) FindByNameInFile(kind NodeKind, name, file string) []Node {
	var out []Node
	for _, n := range g.FindByName(kind, name) {
		if n.Data.File == file {
			out = append(out, n)
		}
	}
	return out
}

func (g *ArrayGraph) FindInRange(kind NodeKind, file string, start, end int) []Node {
	var out []Node
	for _, n := range g.nodes {
		if n.Kind != kind || n.Data.File != file {
			continue
		}
		if n.Data.Start <= end && n.Data.End >= start {
			out = append(out, n)
		}
	}
	return out
}

func (g *ArrayGraph) FindAtLine(kind NodeKind, file string, line int) []Node {
	return g.FindInRange(kind, file, line, line)
}

func (g *ArrayGraph) FindByType(kind NodeKind) []Node {
	var out []Node
	for _, n := range g.nodes {
		if n.Kind == kind {
			out = append(out, n)
		}
	}
	return out
}

func (g *ArrayGraph) FindByDir(kind NodeKind, name, dir string) []Node {
	var out []Node
	for _, n := range g.FindByName(kind, name) {
		if filepath.Dir(n.Data.File) == dir {
			out = append(out, n)
		}
	}
	return out
}

func (g *ArrayGraph) CountEdgesOfType(kind EdgeKind) int {
	count := 0
	for _, e := range g.edges {
		if e.Kind == kind {
			count++
		}
	}
	return count
}

func (g *ArrayGraph) EdgesFrom(key string) []Edge {
	var out []Edge
	for _, e := range g.edges {
		if e.Source == key {
			out = append(out, e)
		}
	}
	return out
}

func (g *ArrayGraph) EdgesTo(key string) []Edge {
	var out []Edge
	for _, e := range g.edges {
		if e.Target == key {
			out = append(out, e)
		}
	}
	return out
}

func (g *ArrayGraph) EdgesOfKind(kind EdgeKind) []Edge {
	var out []Edge
	for _, e := range g.edges {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

func (g *ArrayGraph) Nodes() []Node {
	var out []Node
	for _, n := range g.nodes {
		if n.Kind != "" {
			out = append(out, n)
		}
	}
	return out
}

func (g *ArrayGraph) Edges() []Edge {
	out := make([]Edge, len(g.edges))
	copy(out, g.edges)
	return out
}

func (g *ArrayGraph) NodeCount() int { return len(g.keyIdx) }
func (g *ArrayGraph) EdgeCount() int { return len(g.edges) }

func (g *ArrayGraph) Extend(other Graph) {
	for _, n := range other.Nodes() {
		g.AddNode(n)
	}
	for _, e := range other.Edges() {
		g.AddEdge(e)
	}
}

func (g *ArrayGraph) CreateFiltered(keep func(Node) bool) Graph {
	out := NewArrayGraph()
	kept := make(map[string]bool)
	for _, n := range g.Nodes() {
		if keep(n) {
			out.AddNode(n)
			kept[n.Key()] = true
		}
	}
	for _, e := range g.Edges() {
		if kept[e.Source] && kept[e.Target] {
			out.AddEdge(e)
		}
	}
	return out
}
