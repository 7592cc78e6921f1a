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

package resolver_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/cgraph/pkg/graph"
	"github.com/kraklabs/cgraph/pkg/lsporacle"
	"github.com/kraklabs/cgraph/pkg/resolver"
)

func fn(name, file string, start, end int) graph.Node {
	return graph.Node{Kind: graph.Function, Data: graph.NodeData{Name: name, File: file, Body: "body", Start: start, End: end}}
}

func TestResolverUniqueGlobalBindsWhenOnlyOneCandidate(t *testing.T) {
	g := graph.NewArrayGraph()
	callerKey := g.AddNode(fn("main", "cmd/main.go", 1, 5))
	calleeKey := g.AddNode(fn("Greet", "pkg/greet.go", 1, 3))

	r := resolver.New(g, nil)
	r.ResolveAll(context.Background(), []resolver.CallSite{
		{CallerKey: callerKey, CallerFile: "cmd/main.go", CallSiteName: "Greet"},
	})

	edges := g.EdgesFrom(callerKey)
	require.Len(t, edges, 1)
	assert.Equal(t, graph.Calls, edges[0].Kind)
	assert.Equal(t, calleeKey, edges[0].Target)
}

func TestResolverUniqueGlobalFiltersMockFiles(t *testing.T) {
	g := graph.NewArrayGraph()
	callerKey := g.AddNode(fn("main", "cmd/main.go", 1, 5))
	realKey := g.AddNode(fn("Store", "pkg/store/store.go", 1, 3))
	g.AddNode(fn("Store", "pkg/store/store_mock.go", 1, 3))

	r := resolver.New(g, nil)
	r.ResolveAll(context.Background(), []resolver.CallSite{
		{CallerKey: callerKey, CallerFile: "cmd/main.go", CallSiteName: "Store"},
	})

	edges := g.EdgesFrom(callerKey)
	require.Len(t, edges, 1)
	assert.Equal(t, realKey, edges[0].Target)
}

func TestResolverAmbiguousGlobalDropsCall(t *testing.T) {
	g := graph.NewArrayGraph()
	callerKey := g.AddNode(fn("main", "cmd/main.go", 1, 5))
	g.AddNode(fn("Run", "pkg/a/a.go", 1, 3))
	g.AddNode(fn("Run", "pkg/b/b.go", 1, 3))

	r := resolver.New(g, nil)
	r.ResolveAll(context.Background(), []resolver.CallSite{
		{CallerKey: callerKey, CallerFile: "cmd/main.go", CallSiteName: "Run"},
	})

	assert.Empty(t, g.EdgesFrom(callerKey))
}

func TestResolverSameFileTierBindsOverAmbiguousGlobal(t *testing.T) {
	g := graph.NewArrayGraph()
	callerKey := g.AddNode(fn("main", "cmd/main.go", 10, 15))
	localKey := g.AddNode(fn("Run", "cmd/main.go", 1, 5))
	g.AddNode(fn("Run", "pkg/b/b.go", 1, 3))

	r := resolver.New(g, nil)
	r.ResolveAll(context.Background(), []resolver.CallSite{
		{CallerKey: callerKey, CallerFile: "cmd/main.go", CallSiteName: "Run"},
	})

	edges := g.EdgesFrom(callerKey)
	require.Len(t, edges, 1)
	assert.Equal(t, localKey, edges[0].Target)
}

func TestResolverSameDirectoryTierBindsWhenUnique(t *testing.T) {
	g := graph.NewArrayGraph()
	callerKey := g.AddNode(fn("main", "pkg/app/main.go", 1, 5))
	siblingKey := g.AddNode(fn("Helper", "pkg/app/helper.go", 1, 3))
	g.AddNode(fn("Helper", "pkg/other/helper.go", 1, 3))

	r := resolver.New(g, nil)
	r.ResolveAll(context.Background(), []resolver.CallSite{
		{CallerKey: callerKey, CallerFile: "pkg/app/main.go", CallSiteName: "Helper"},
	})

	edges := g.EdgesFrom(callerKey)
	require.Len(t, edges, 1)
	assert.Equal(t, siblingKey, edges[0].Target)
}

func TestResolverCasingCollisionDisqualifiesSameFileTier(t *testing.T) {
	g := graph.NewArrayGraph()
	callerKey := g.AddNode(fn("main", "cmd/main.go", 10, 15))
	g.AddNode(fn("Label", "cmd/main.go", 1, 5))

	r := resolver.New(g, nil)
	r.ResolveAll(context.Background(), []resolver.CallSite{
		{CallerKey: callerKey, CallerFile: "cmd/main.go", CallSiteName: "label"},
	})

	assert.Empty(t, g.EdgesFrom(callerKey))
}

type fakeOracle struct {
	loc   lsporacle.Location
	found bool
}

func (f fakeOracle) GotoDefinition(ctx context.Context, file string, line, column int) (lsporacle.Location, bool) {
	return f.loc, f.found
}

func TestResolverLSPTiebreakerTakesPriority(t *testing.T) {
	g := graph.NewArrayGraph()
	callerKey := g.AddNode(fn("main", "cmd/main.go", 10, 15))
	ambiguousA := fn("Run", "pkg/a/a.go", 4, 4)
	ambiguousB := fn("Run", "pkg/b/b.go", 9, 9)
	keyA := g.AddNode(ambiguousA)
	g.AddNode(ambiguousB)

	oracle := fakeOracle{loc: lsporacle.Location{File: "pkg/a/a.go", Line: 4}, found: true}
	r := resolver.New(g, oracle)
	r.ResolveAll(context.Background(), []resolver.CallSite{
		{CallerKey: callerKey, CallerFile: "cmd/main.go", CallSiteName: "Run", CallSiteLine: 20, CallSiteColumn: 3},
	})

	edges := g.EdgesFrom(callerKey)
	require.Len(t, edges, 1)
	assert.Equal(t, keyA, edges[0].Target)
}

func TestInferCallerKindFromFilePath(t *testing.T) {
	assert.Equal(t, graph.E2eTest, resolver.InferCallerKind("tests/e2e/login_test.go"))
	assert.Equal(t, graph.IntegrationTest, resolver.InferCallerKind("tests/integration/db_test.go"))
	assert.Equal(t, graph.UnitTest, resolver.InferCallerKind("pkg/app/handler_test.go"))
}
