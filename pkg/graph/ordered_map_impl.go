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

// MapGraph is an ordered-map-backed Graph keyed directly by canonical
// identity, grounded on the checkpoint/entity-count bookkeeping style in
// pkg/ingestion/checkpoint.go (string-keyed maps as the primary store).
// Unlike ArrayGraph it builds no secondary name index eagerly — lookups by
// name or directory scan the map in insertion order — which makes it the
// right choice for the Incremental Updater, where nodes are added and
// removed repeatedly and an eagerly-maintained secondary index would need
// constant upkeep for queries that are comparatively rare outside the
// Resolver's one pass.
type MapGraph struct {
	order []string
	nodes map[string]Node
	edges []Edge
	edgeSet map[edgeIdentity]bool
}

// NewMapGraph constructs an empty ordered-map-backed graph.
func NewMapGraph() *MapGraph {
	return &MapGraph{
		nodes:   make(map[string]Node),
		edgeSet: make(map[edgeIdentity]bool),
	}
}

func (g *MapGraph) AddNode(n Node) string {
	key := n.Key()
	if existing, ok := g.nodes[key]; ok {
		if existing.Data.Meta == nil {
			existing.Data.Meta = NewMeta()
		}
		existing.Data.Meta.Merge(n.Data.Meta)
		if n.Data.Body != "" {
			existing.Data.Body = n.Data.Body
		}
		g.nodes[key] = existing
		return key
	}
	g.nodes[key] = n
	g.order = append(g.order, key)
	return key
}

func (g *MapGraph) AddNodeWithParent(n Node, parentKey string) string {
	key := g.AddNode(n)
	g.AddEdge(Edge{Kind: Contains, Source: parentKey, Target: key})
	return key
}

func (g *MapGraph) AddEdge(e Edge) bool {
	if _, ok := g.nodes[e.Source]; !ok {
		return false
	}
	if _, ok := g.nodes[e.Target]; !ok {
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

func (g *MapGraph) RemoveNode(key string) {
	if _, ok := g.nodes[key]; !ok {
		return
	}
	delete(g.nodes, key)
	for i, k := range g.order {
		if k == key {
			g.order = append(g.order[:i], g.order[i+1:]...)
			break
		}
	}
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

func (g *MapGraph) FindByKey(key string) (Node, bool) {
	n, ok := g.nodes[key]
	return n, ok
}

func (g *MapGraph) FindByName(kind NodeKind, name string) []Node {
	var out []Node
	for _, k := range g.order {
		n := g.nodes[k]
		if n.Kind == kind && n.Data.Name == name {
			out = append(out, n)
		}
	}
	return out
}

func (g *MapGraph) FindByNameInFile(kind NodeKind, name, file string) []Node {
	var out []Node
	for _, n := range g.FindByName(kind, name) {
		if n.Data.File == file {
			out = append(out, n)
		}
	}
	return out
}

func (g *MapGraph) FindInRange(kind NodeKind, file string, start, end int) []Node {
	var out []Node
	for _, k := range g.order {
		n := g.nodes[k]
		if n.Kind != kind || n.Data.File != file {
			continue
		}
		if n.Data.Start <= end && n.Data.End >= start {
			out = append(out, n)
		}
	}
	return out
}

func (g *MapGraph) FindAtLine(kind NodeKind, file string, line int) []Node {
	return g.FindInRange(kind, file, line, line)
}

func (g *MapGraph) FindByType(kind NodeKind) []Node {
	var out []Node
	for _, k := range g.order {
		if n := g.nodes[k]; n.Kind == kind {
			out = append(out, n)
		}
	}
	return out
}

func (g *MapGraph) FindByDir(kind NodeKind, name, dir string) []Node {
	var out []Node
	for _, n := range g.FindByName(kind, name) {
		if filepath.Dir(n.Data.File) == dir {
			out = append(out, n)
		}
	}
	return out
}

func (g *MapGraph) CountEdgesOfType(kind EdgeKind) int {
	count := 0
	for _, e := range g.edges {
		if e.Kind == kind {
			count++
		}
	}
	return count
}

func (g *MapGraph) EdgesFrom(key string) []Edge {
	var out []Edge
	for _, e := range g.edges {
		if e.Source == key {
			out = append(out, e)
		}
	}
	return out
}

func (g *MapGraph) EdgesTo(key string) []Edge {
	var out []Edge
	for _, e := range g.edges {
		if e.Target == key {
			out = append(out, e)
		}
	}
	return out
}

func (g *MapGraph) EdgesOfKind(kind EdgeKind) []Edge {
	var out []Edge
	for _, e := range g.edges {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

func (g *MapGraph) Nodes() []Node {
	out := make([]Node, 0, len(g.order))
	for _, k := range g.order {
		out = append(out, g.nodes[k])
	}
	return out
}

func (g *MapGraph) Edges() []Edge {
	out := make([]Edge, len(g.edges))
	copy(out, g.edges)
	return out
}

func (g *MapGraph) NodeCount() int { return len(g.nodes) }
func (g *MapGraph) EdgeCount() int { return len(g.edges) }

func (g *MapGraph) Extend(other Graph) {
	for _, n := range other.Nodes() {
		g.AddNode(n)
	}
	for _, e := range other.Edges() {
		g.AddEdge(e)
	}
}

func (g *MapGraph) CreateFiltered(keep func(Node) bool) Graph {
	out := NewMapGraph()
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
