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

package assembler

import (
	"context"
	"strings"

	"github.com/kraklabs/cgraph/pkg/graph"
	"github.com/kraklabs/cgraph/pkg/resolver"
)

// ClassInherits creates a ParentOf edge (parent -> child) for every Class
// or DataModel node carrying a "parent" meta value that names another
// node of the same kind in the graph. Ambiguous parent names (more than
// one node sharing it, graph-wide) are skipped rather than guessed.
func ClassInherits(g graph.Graph) {
	for _, kind := range []graph.NodeKind{graph.Class, graph.DataModel} {
		for _, n := range g.FindByType(kind) {
			parentName, ok := n.Data.Meta.Get("parent")
			if !ok || parentName == "" {
				continue
			}
			candidates := g.FindByName(kind, parentName)
			if len(candidates) != 1 {
				continue
			}
			g.AddEdge(graph.Edge{Kind: graph.ParentOf, Source: candidates[0].Key(), Target: n.Key()})
		}
	}
}

// ClassIncludes creates an Implements edge for every Class node carrying
// a comma-separated "includes" meta value (Ruby module mixins, Rust trait
// impls surfaced as a class-level annotation).
func ClassIncludes(g graph.Graph) {
	for _, n := range g.FindByType(graph.Class) {
		includes, ok := n.Data.Meta.Get("includes")
		if !ok || includes == "" {
			continue
		}
		for _, name := range strings.Split(includes, ",") {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			if traits := g.FindByName(graph.Trait, name); len(traits) == 1 {
				g.AddEdge(graph.Edge{Kind: graph.Implements, Source: n.Key(), Target: traits[0].Key()})
			}
		}
	}
}

// FilterOutNodesWithoutChildren deletes nodes of parentKind that have no
// incoming edge of edgeKind from a node of childKind — the cleanup for
// assumed-class heuristics (e.g. a Ruby module treated as a Class until
// it turns out to declare no methods).
func FilterOutNodesWithoutChildren(g graph.Graph, parentKind, childKind graph.NodeKind, edgeKind graph.EdgeKind) {
	for _, n := range g.FindByType(parentKind) {
		hasChild := false
		for _, e := range g.EdgesTo(n.Key()) {
			if e.Kind != edgeKind {
				continue
			}
			src, ok := g.FindByKey(e.Source)
			if ok && src.Kind == childKind {
				hasChild = true
				break
			}
		}
		if !hasChild {
			g.RemoveNode(n.Key())
		}
	}
}

// ApplyCalls runs the Resolver over every pending call-site collected by
// AssembleFile across the whole build (spec §4.7's add_calls splice).
// Callers must gather every file's call-sites first — the Resolver
// requires a fully populated definition index (spec §5). ResolveAll never
// fails outright (an unresolved call-site is simply dropped, per spec
// §4.6), so this always returns nil; the error return exists so callers
// in pkg/engine/pkg/incremental can treat every post-pass uniformly.
func ApplyCalls(ctx context.Context, g graph.Graph, oracle resolver.Oracle, sites []resolver.CallSite) error {
	resolver.New(g, oracle).ResolveAll(ctx, sites)
	return nil
}

// MergeAssembled splices one or more per-repository graphs into dest,
// honoring identity-based dedup (spec §4.7's add_pages/add_endpoints
// splice semantics generalize to every node kind once assembly happens
// per repository and results are combined for a multi-repo build).
func MergeAssembled(dest graph.Graph, sources ...graph.Graph) {
	for _, src := range sources {
		dest.Extend(src)
	}
}
