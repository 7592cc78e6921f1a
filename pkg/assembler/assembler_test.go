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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/cgraph/pkg/graph"
	"github.com/kraklabs/cgraph/pkg/lang"
	"github.com/kraklabs/cgraph/pkg/parsercore"
	"github.com/kraklabs/cgraph/pkg/querypack"
)

const goSource = `package greeter

import "fmt"

type Greeter struct {
	Name string
}

func (g *Greeter) Hello() string {
	return fmt.Sprintf("hello %s", g.Name)
}

func main() {
	g := &Greeter{Name: "world"}
	fmt.Println(g.Hello())
}
`

func newGoCore(t *testing.T) *parsercore.Core {
	t.Helper()
	pack := querypack.Get("go")
	require.NotNil(t, pack, "go query pack must be registered")
	return parsercore.New(pack, nil)
}

func TestAssembleFileEmitsAncestryImportClassAndFunctions(t *testing.T) {
	ctx := context.Background()
	g := graph.NewArrayGraph()
	core := newGoCore(t)

	pf, err := core.Parse(ctx, "greeter/greeter.go", []byte(goSource))
	require.NoError(t, err)
	defer pf.Close()

	a := New(g, nil)
	sites, err := a.AssembleFile(ctx, FileInput{
		RepoRoot: "github.com/example/greeter",
		Lang:     lang.Go,
		RelPath:  "greeter/greeter.go",
		Source:   []byte(goSource),
	}, core, pf)
	require.NoError(t, err)

	repos := g.FindByType(graph.Repository)
	require.Len(t, repos, 1)
	assert.Equal(t, "github.com/example/greeter", repos[0].Data.Name)

	files := g.FindByType(graph.File)
	require.Len(t, files, 1)
	assert.Equal(t, "greeter.go", files[0].Data.Name)

	imports := g.FindByType(graph.Import)
	require.Len(t, imports, 1)
	assert.Contains(t, imports[0].Data.Body, "fmt")

	classes := g.FindByNameInFile(graph.Class, "Greeter", "greeter/greeter.go")
	require.Len(t, classes, 1)

	funcs := g.FindByNameInFile(graph.Function, "Hello", "greeter/greeter.go")
	require.Len(t, funcs, 1)

	operandEdges := g.EdgesOfKind(graph.Operand)
	require.Len(t, operandEdges, 1)
	assert.Equal(t, funcs[0].Key(), operandEdges[0].Source)
	assert.Equal(t, classes[0].Key(), operandEdges[0].Target)

	mainFuncs := g.FindByNameInFile(graph.Function, "main", "greeter/greeter.go")
	require.Len(t, mainFuncs, 1)

	require.NotEmpty(t, sites)
	var sawHello bool
	for _, s := range sites {
		if s.CallSiteName == "Hello" {
			sawHello = true
			assert.Equal(t, mainFuncs[0].Key(), s.CallerKey)
		}
	}
	assert.True(t, sawHello, "expected a call-site for g.Hello() inside main")
}

func TestAssembleFileEmitsVarNodesForPackageAndShortDeclarations(t *testing.T) {
	ctx := context.Background()
	g := graph.NewArrayGraph()
	core := newGoCore(t)

	pf, err := core.Parse(ctx, "greeter/greeter.go", []byte(goSource))
	require.NoError(t, err)
	defer pf.Close()

	a := New(g, nil)
	_, err = a.AssembleFile(ctx, FileInput{
		RepoRoot: "github.com/example/greeter",
		Lang:     lang.Go,
		RelPath:  "greeter/greeter.go",
		Source:   []byte(goSource),
	}, core, pf)
	require.NoError(t, err)

	vars := g.FindByNameInFile(graph.Var, "g", "greeter/greeter.go")
	require.Len(t, vars, 1, "short var declaration `g := ...` must emit a Var node")
}

func TestAssembleFileIsIdempotentAcrossRepeatCalls(t *testing.T) {
	ctx := context.Background()
	g := graph.NewArrayGraph()
	core := newGoCore(t)
	in := FileInput{
		RepoRoot: "github.com/example/greeter",
		Lang:     lang.Go,
		RelPath:  "greeter/greeter.go",
		Source:   []byte(goSource),
	}

	pf1, err := core.Parse(ctx, in.RelPath, in.Source)
	require.NoError(t, err)
	defer pf1.Close()
	a := New(g, nil)
	_, err = a.AssembleFile(ctx, in, core, pf1)
	require.NoError(t, err)
	firstNodeCount := g.NodeCount()
	firstEdgeCount := g.EdgeCount()

	pf2, err := core.Parse(ctx, in.RelPath, in.Source)
	require.NoError(t, err)
	defer pf2.Close()
	_, err = a.AssembleFile(ctx, in, core, pf2)
	require.NoError(t, err)

	assert.Equal(t, firstNodeCount, g.NodeCount(), "re-assembling the same file must not duplicate nodes")
	assert.Equal(t, firstEdgeCount, g.EdgeCount(), "re-assembling the same file must not duplicate edges")
}

func TestAssembleManifestEmitsLibraryNodes(t *testing.T) {
	g := graph.NewArrayGraph()
	a := New(g, nil)

	manifest := []byte("module example.com/app\n\ngo 1.24\n\nrequire (\n\tgithub.com/gin-gonic/gin v1.9.1\n\tgithub.com/stretchr/testify v1.9.0\n)\n")
	err := a.AssembleManifest(FileInput{
		RepoRoot:   "example.com/app",
		Lang:       lang.Go,
		RelPath:    "go.mod",
		Source:     manifest,
		IsManifest: true,
	})
	require.NoError(t, err)

	libs := g.FindByType(graph.Library)
	require.Len(t, libs, 2)
	names := []string{libs[0].Data.Name, libs[1].Data.Name}
	assert.Contains(t, names, "github.com/gin-gonic/gin")
	assert.Contains(t, names, "github.com/stretchr/testify")
}

func TestCanonicalEndpointPathCollapsesAndJoins(t *testing.T) {
	assert.Equal(t, "/api/users/:id", canonicalEndpointPath("/api", "/users/:id"))
	assert.Equal(t, "/users", canonicalEndpointPath("", "//users//"))
	assert.Equal(t, "/", canonicalEndpointPath("", ""))
}
