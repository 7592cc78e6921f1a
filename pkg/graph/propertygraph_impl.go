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

// PropertyStore is the minimal contract a real property-graph database
// driver (Neo4j, CozoDB, etc.) must satisfy to back a PropertyGraph. It is
// intentionally narrow — upsert-by-key and full scans — because every
// richer query the spec's components need (by-name, by-range, by-dir, ...)
// is implemented once in PropertyGraph on top of these five methods, the
// same way pkg/storage.Backend kept its surface to Query/Execute/Close and
// let callers build richer behavior with CozoScript on top.
//
// No concrete network-backed implementation ships in this module (see
// SPEC_FULL.md §2.2): persistence drivers are out of scope per spec §2.
// InMemoryPropertyStore below exists only so PropertyGraph is exercised by
// tests without a live database.
type PropertyStore interface {
	UpsertNode(n Node)
	UpsertEdge(e Edge) bool // false if an endpoint is missing
	DeleteNode(key string)
	Nodes() []Node
	Edges() []Edge
}

// PropertyGraph adapts any PropertyStore to the Graph contract. Labels
// nodes by kind and types edges in UPPER_SNAKE_CASE when asked to project
// to the property-graph emission format (see pkg/emit).
type PropertyGraph struct {
	store PropertyStore
}

// NewPropertyGraph wraps store as a Graph.
func NewPropertyGraph(store PropertyStore) *PropertyGraph {
	return &PropertyGraph{store: store}
}

func (g *PropertyGraph) AddNode(n Node) string {
	key := n.Key()
	if existing, ok := g.FindByKey(key); ok {
		if existing.Data.Meta == nil {
			existing.Data.Meta = NewMeta()
		}
		existing.Data.Meta.Merge(n.Data.Meta)
		if n.Data.Body != "" {
			existing.Data.Body = n.Data.Body
		}
		g.store.UpsertNode(existing)
		return key
	}
	g.store.UpsertNode(n)
	return key
}

func (g *PropertyGraph) AddNodeWithParent(n Node, parentKey string) string {
	key := g.AddNode(n)
	g.AddEdge(Edge{Kind: Contains, Source: parentKey, Target: key})
	return key
}

func (g *PropertyGraph) AddEdge(e Edge) bool {
	if _, ok := g.FindByKey(e.Source); !ok {
		return false
	}
	if _, ok := g.FindByKey(e.Target); !ok {
		return false
	}
	return g.store.UpsertEdge(e)
}

func (g *PropertyGraph) RemoveNode(key string) { g.store.DeleteNode(key) }

func (g *PropertyGraph) FindByKey(key string) (Node, bool) {
	for _, n := range g.store.Nodes() {
		if n.Key() == key {
			return n, true
		}
	}
	return Node{}, false
}

func (g *PropertyGraph) FindByName(kind NodeKind, name string) []Node {
	var out []Node
	for _, n := range g.store.Nodes() {
		if n.Kind == kind && n.Data.Name == name {
			out = append(out, n)
		}
	}
	return out
}

func (g *PropertyGraph) FindByNameInFile(kind NodeKind, name, file string) []Node {
	var out []Node
	for _, n := range g.FindByName(kind, name) {
		if n.Data.File == file {
			out = append(out, n)
		}
	}
	return out
}

func (g *PropertyGraph) FindInRange(kind NodeKind, file string, start, end int) []Node {
	var out []Node
	for _, n := range g.store.Nodes() {
		if n.Kind == kind && n.Data.File == file && n.Data.Start <= end && n.Data.End >= start {
			out = append(out, n)
		}
	}
	return out
}

func (g *PropertyGraph) FindAtLine(kind NodeKind, file string, line int) []Node {
	return g.FindInRange(kind, file, line, line)
}

func (g *PropertyGraph) FindByType(kind NodeKind) []Node {
	var out []Node
	for _, n := range g.store.Nodes() {
		if n.Kind == kind {
			out = append(out, n)
		}
	}
	return out
}

func (g *PropertyGraph) FindByDir(kind NodeKind, name, dir string) []Node {
	var out []Node
	for _, n := range g.FindByName(kind, name) {
		if dirOf(n.Data.File) == dir {
			out = append(out, n)
		}
	}
	return out
}

func (g *PropertyGraph) CountEdgesOfType(kind EdgeKind) int {
	count := 0
	for _, e := range g.store.Edges() {
		if e.Kind == kind {
			count++
		}
	}
	return count
}

func (g *PropertyGraph) EdgesFrom(key string) []Edge {
	var out []Edge
	for _, e := range g.store.Edges() {
		if e.Source == key {
			out = append(out, e)
		}
	}
	return out
}

func (g *PropertyGraph) EdgesTo(key string) []Edge {
	var out []Edge
	for _, e := range g.store.Edges() {
		if e.Target == key {
			out = append(out, e)
		}
	}
	return out
}

func (g *PropertyGraph) EdgesOfKind(kind EdgeKind) []Edge {
	var out []Edge
	for _, e := range g.store.Edges() {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

func (g *PropertyGraph) Nodes() []Node { return g.store.Nodes() }
func (g *PropertyGraph) Edges() []Edge { return g.store.Edges() }

func (g *PropertyGraph) NodeCount() int { return len(g.store.Nodes()) }
func (g *PropertyGraph) EdgeCount() int { return len(g.store.Edges()) }

func (g *PropertyGraph) Extend(other Graph) {
	for _, n := range other.Nodes() {
		g.AddNode(n)
	}
	for _, e := range other.Edges() {
		g.AddEdge(e)
	}
}

func (g *PropertyGraph) CreateFiltered(keep func(Node) bool) Graph {
	out := NewPropertyGraph(NewInMemoryPropertyStore())
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

func dirOf(file string) string {
	i := len(file) - 1
	for i >= 0 && file[i] != '/' {
		i--
	}
	if i < 0 {
		return "."
	}
	return file[:i]
}

// InMemoryPropertyStore is a PropertyStore suitable for tests and for
// deployments that want the PropertyGraph projection semantics without a
// live external database.
type InMemoryPropertyStore struct {
	nodes map[string]Node
	order []string
	edges []Edge
}

// NewInMemoryPropertyStore constructs an empty store.
func NewInMemoryPropertyStore() *InMemoryPropertyStore {
	return &InMemoryPropertyStore{nodes: make(map[string]Node)}
}

func (s *InMemoryPropertyStore) UpsertNode(n Node) {
	key := n.Key()
	if _, exists := s.nodes[key]; !exists {
		s.order = append(s.order, key)
	}
	s.nodes[key] = n
}

func (s *InMemoryPropertyStore) UpsertEdge(e Edge) bool {
	if _, ok := s.nodes[e.Source]; !ok {
		return false
	}
	if _, ok := s.nodes[e.Target]; !ok {
		return false
	}
	for _, existing := range s.edges {
		if existing == e {
			return true
		}
	}
	s.edges = append(s.edges, e)
	return true
}

func (s *InMemoryPropertyStore) DeleteNode(key string) {
	if _, ok := s.nodes[key]; !ok {
		return
	}
	delete(s.nodes, key)
	for i, k := range s.order {
		if k == key {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	filtered := s.edges[:0]
	for _, e := range s.edges {
		if e.Source != key && e.Target != key {
			filtered = append(filtered, e)
		}
	}
	s.edges = filtered
}

func (s *InMemoryPropertyStore) Nodes() []Node {
	out := make([]Node, 0, len(s.order))
	for _, k := range s.order {
		out = append(out, s.nodes[k])
	}
	return out
}

func (s *InMemoryPropertyStore) Edges() []Edge {
	out := make([]Edge, len(s.edges))
	copy(out, s.edges)
	return out
}
