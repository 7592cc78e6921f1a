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

package linker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/cgraph/pkg/graph"
)

func withVerb(verb string) *graph.Meta {
	m := graph.NewMeta()
	m.Set("verb", verb)
	return m
}

func TestNormalizePathRewritesPlaceholders(t *testing.T) {
	assert.Equal(t, "/users/:param", NormalizePath("/users/:id"))
	assert.Equal(t, "/users/:param", NormalizePath("/users/{id}"))
	assert.Equal(t, "/users/:param", NormalizePath("/users/${id}"))
	assert.Equal(t, "/users", NormalizePath("//users//"))
	assert.Equal(t, "/", NormalizePath(""))
}

func TestLinkAllMatchesExactNormalizedPair(t *testing.T) {
	g := graph.NewArrayGraph()
	reqKey := g.AddNode(graph.Node{Kind: graph.Request, Data: graph.NodeData{Name: "/users/42", File: "frontend/api.ts", Meta: withVerb("GET")}})
	epKey := g.AddNode(graph.Node{Kind: graph.Endpoint, Data: graph.NodeData{Name: "/users/:id", File: "backend/routes.go", Meta: withVerb("GET")}})

	added := New(g, nil).LinkAll()
	assert.Equal(t, 1, added)

	edges := g.EdgesOfKind(graph.Calls)
	require.Len(t, edges, 1)
	assert.Equal(t, reqKey, edges[0].Source)
	assert.Equal(t, epKey, edges[0].Target)
}

func TestLinkAllIgnoresVerbMismatch(t *testing.T) {
	g := graph.NewArrayGraph()
	g.AddNode(graph.Node{Kind: graph.Request, Data: graph.NodeData{Name: "/users", File: "frontend/api.ts", Meta: withVerb("POST")}})
	g.AddNode(graph.Node{Kind: graph.Endpoint, Data: graph.NodeData{Name: "/users", File: "backend/routes.go", Meta: withVerb("GET")}})

	added := New(g, nil).LinkAll()
	assert.Equal(t, 0, added)
	assert.Empty(t, g.EdgesOfKind(graph.Calls))
}

func TestLinkAllFallsBackToLongestLiteralPrefixOnAmbiguity(t *testing.T) {
	g := graph.NewArrayGraph()
	reqKey := g.AddNode(graph.Node{Kind: graph.Request, Data: graph.NodeData{Name: "/users/:id/posts", File: "frontend/api.ts", Meta: withVerb("GET")}})
	// Both candidates normalize to /users/:param/posts but differ in raw spelling.
	farKey := g.AddNode(graph.Node{Kind: graph.Endpoint, Data: graph.NodeData{Name: "/users/{userId}/posts", File: "svc-a/routes.go", Start: 1, Meta: withVerb("GET")}})
	closeKey := g.AddNode(graph.Node{Kind: graph.Endpoint, Data: graph.NodeData{Name: "/users/:id/posts", File: "svc-b/routes.go", Start: 1, Meta: withVerb("GET")}})

	added := New(g, nil).LinkAll()
	assert.Equal(t, 1, added)

	edges := g.EdgesOfKind(graph.Calls)
	require.Len(t, edges, 1)
	assert.Equal(t, reqKey, edges[0].Source)
	assert.Equal(t, closeKey, edges[0].Target)
	assert.NotEqual(t, farKey, edges[0].Target)
}

func TestLinkAllLeavesTrueTieUnlinked(t *testing.T) {
	g := graph.NewArrayGraph()
	g.AddNode(graph.Node{Kind: graph.Request, Data: graph.NodeData{Name: "/users/:id", File: "frontend/api.ts", Meta: withVerb("GET")}})
	g.AddNode(graph.Node{Kind: graph.Endpoint, Data: graph.NodeData{Name: "/users/{a}", File: "svc-a/routes.go", Start: 1, Meta: withVerb("GET")}})
	g.AddNode(graph.Node{Kind: graph.Endpoint, Data: graph.NodeData{Name: "/users/{b}", File: "svc-b/routes.go", Start: 1, Meta: withVerb("GET")}})

	added := New(g, nil).LinkAll()
	assert.Equal(t, 0, added)
}
