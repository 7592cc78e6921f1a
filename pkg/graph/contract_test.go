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

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// implementations exercises every Graph implementation against the same
// behavior suite, since spec §9 requires them to be interchangeable.
func implementations() map[string]func() Graph {
	return map[string]func() Graph{
		"array": func() Graph { return NewArrayGraph() },
		"map":   func() Graph { return NewMapGraph() },
		"property": func() Graph {
			return NewPropertyGraph(NewInMemoryPropertyStore())
		},
	}
}

func TestGraphContractAcrossImplementations(t *testing.T) {
	for name, factory := range implementations() {
		t.Run(name, func(t *testing.T) {
			g := factory()

			repoKey := g.AddNode(Node{Kind: Repository, Data: NodeData{Name: "demo"}})
			fileKey := g.AddNodeWithParent(Node{Kind: File, Data: NodeData{Name: "main.go", File: "main.go"}}, repoKey)
			fnKey := g.AddNodeWithParent(Node{Kind: Function, Data: NodeData{Name: "main", File: "main.go", Start: 3, End: 5}}, fileKey)

			require.True(t, g.AddEdge(Edge{Kind: Operand, Source: fileKey, Target: fnKey}))
			assert.False(t, g.AddEdge(Edge{Kind: Calls, Source: fnKey, Target: "does-not-exist"}),
				"edge with a dangling endpoint must be rejected")

			assert.Equal(t, 3, g.NodeCount())
			assert.Equal(t, 3, g.EdgeCount(), "Contains from AddNodeWithParent x2 + Operand")

			found := g.FindByName(Function, "main")
			require.Len(t, found, 1)
			assert.Equal(t, "main.go", found[0].Data.File)

			inRange := g.FindInRange(Function, "main.go", 4, 4)
			require.Len(t, inRange, 1)

			atDir := g.FindByDir(Function, "main", ".")
			require.Len(t, atDir, 1)

			assert.Equal(t, 1, g.CountEdgesOfType(Operand))
			assert.Len(t, g.EdgesFrom(fileKey), 2) // Contains to fnKey + Operand
			assert.Len(t, g.EdgesTo(fnKey), 2)

			g.RemoveNode(fnKey)
			_, ok := g.FindByKey(fnKey)
			assert.False(t, ok)
			assert.Equal(t, 2, g.NodeCount())
			assert.Equal(t, 1, g.EdgeCount(), "edges incident to the removed node are gone")
		})
	}
}

func TestGraphMergesMetaOnDuplicateIdentity(t *testing.T) {
	for name, factory := range implementations() {
		t.Run(name, func(t *testing.T) {
			g := factory()
			m1 := NewMeta()
			m1.Set("verb", "GET")
			k1 := g.AddNode(Node{Kind: Endpoint, Data: NodeData{Name: "/people", File: "routes.go", Start: 1, Meta: m1}})

			m2 := NewMeta()
			m2.Set("handler", "GetPeople")
			k2 := g.AddNode(Node{Kind: Endpoint, Data: NodeData{Name: "/people", File: "routes.go", Start: 1, Meta: m2}})

			require.Equal(t, k1, k2)
			n, ok := g.FindByKey(k1)
			require.True(t, ok)
			verb, _ := n.Data.Meta.Get("verb")
			handler, _ := n.Data.Meta.Get("handler")
			assert.Equal(t, "GET", verb)
			assert.Equal(t, "GetPeople", handler)
		})
	}
}

func TestGraphExtendDedupsByIdentity(t *testing.T) {
	for name, factory := range implementations() {
		t.Run(name, func(t *testing.T) {
			a := factory()
			repoA := a.AddNode(Node{Kind: Repository, Data: NodeData{Name: "r"}})
			a.AddNodeWithParent(Node{Kind: File, Data: NodeData{Name: "x.go", File: "x.go"}}, repoA)

			b := factory()
			repoB := b.AddNode(Node{Kind: Repository, Data: NodeData{Name: "r"}})
			b.AddNodeWithParent(Node{Kind: File, Data: NodeData{Name: "x.go", File: "x.go"}}, repoB)

			a.Extend(b)
			assert.Equal(t, 2, a.NodeCount(), "extending with an identical graph must not duplicate nodes")
		})
	}
}

func TestGraphCreateFilteredDropsDanglingEdges(t *testing.T) {
	for name, factory := range implementations() {
		t.Run(name, func(t *testing.T) {
			g := factory()
			repo := g.AddNode(Node{Kind: Repository, Data: NodeData{Name: "r"}})
			f1 := g.AddNodeWithParent(Node{Kind: File, Data: NodeData{Name: "keep.go", File: "keep.go"}}, repo)
			f2 := g.AddNodeWithParent(Node{Kind: File, Data: NodeData{Name: "drop.go", File: "drop.go"}}, repo)
			g.AddEdge(Edge{Kind: Imports, Source: f1, Target: f2})

			filtered := g.CreateFiltered(func(n Node) bool { return n.Data.Name != "drop.go" })
			assert.Equal(t, 2, filtered.NodeCount()) // repo + keep.go
			assert.Equal(t, 1, filtered.EdgeCount(), "only the Contains(repo->keep.go) edge should survive")
		})
	}
}
