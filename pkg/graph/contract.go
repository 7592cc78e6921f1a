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

import "fmt"

// Graph is the storage-agnostic contract every backend implements
// identically: a contiguous array with a secondary name index, an ordered
// map keyed by canonical identity, or a remote property-graph driver. The
// Graph Assembler, Resolver, Cross-Repo Linker and Incremental Updater are
// written entirely against this interface and never assume a concrete
// representation.
//
// Grounded on pkg/storage/backend.go's Backend interface (Query/Execute/
// Close), generalized from "run arbitrary Datalog" to the fixed set of
// typed operations the spec's components actually need.
type Graph interface {
	// AddNode inserts n, or merges its meta/body into an existing node
	// with the same canonical identity (spec §3 "later writes merge").
	// Returns the canonical key.
	AddNode(n Node) string

	// AddNodeWithParent inserts n and immediately emits a Contains edge
	// from parentKey to n (spec §4.7 step 1's Contains chain).
	AddNodeWithParent(n Node, parentKey string) string

	// AddEdge inserts an edge if both endpoints exist; returns false and
	// does not mutate the graph if either endpoint is missing (spec
	// invariant 7: unresolved calls are dropped, not left dangling).
	AddEdge(e Edge) bool

	// RemoveNode deletes a node and every edge incident to it. Used by the
	// Incremental Updater (§4.9 step 2).
	RemoveNode(key string)

	// FindByKey returns the node for an exact canonical key.
	FindByKey(key string) (Node, bool)

	// FindByName returns every node with the given kind and name,
	// graph-wide.
	FindByName(kind NodeKind, name string) []Node

	// FindByNameInFile returns every node with the given kind and name
	// restricted to one file (Resolver tier 3: same-file).
	FindByNameInFile(kind NodeKind, name, file string) []Node

	// FindInRange returns nodes of kind whose [Start,End] span overlaps
	// [start,end] within file.
	FindInRange(kind NodeKind, file string, start, end int) []Node

	// FindAtLine returns nodes of kind in file whose span contains line.
	FindAtLine(kind NodeKind, file string, line int) []Node

	// FindByType returns every node of the given kind, graph-wide.
	FindByType(kind NodeKind) []Node

	// FindByDir returns every Function-like node with the given name
	// whose file's parent directory equals dir (Resolver tier 4).
	FindByDir(kind NodeKind, name, dir string) []Node

	// CountEdgesOfType reports how many edges of kind exist, graph-wide.
	CountEdgesOfType(kind EdgeKind) int

	// EdgesFrom / EdgesTo return edges incident to a node, by key.
	EdgesFrom(key string) []Edge
	EdgesTo(key string) []Edge

	// EdgesOfKind returns every edge of the given kind.
	EdgesOfKind(kind EdgeKind) []Edge

	// Nodes returns every node, in a stable (insertion) order.
	Nodes() []Node

	// Edges returns every edge, deduplicated, in a stable order.
	Edges() []Edge

	// NodeCount / EdgeCount report totals.
	NodeCount() int
	EdgeCount() int

	// Extend merges another graph's nodes and edges into this one,
	// honoring identity-based dedup (used when splicing a per-file
	// subgraph into the assembled whole, or a per-repo graph into a
	// multi-repo union).
	Extend(other Graph)

	// CreateFiltered returns a new graph of the same implementation
	// containing only nodes for which keep returns true, plus edges whose
	// both endpoints survived the filter.
	CreateFiltered(keep func(Node) bool) Graph
}

// ErrUnknownEndpoint is returned (or logged) when an edge names a node key
// that has never been added.
type ErrUnknownEndpoint struct {
	Key string
}

func (e ErrUnknownEndpoint) Error() string {
	return fmt.Sprintf("graph: unknown node endpoint %q", e.Key)
}
