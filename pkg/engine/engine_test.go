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

package engine

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/cgraph/pkg/graph"
	"github.com/kraklabs/cgraph/pkg/lang"
)

type memTracker struct{ commits map[string]string }

func newMemTracker() *memTracker { return &memTracker{commits: map[string]string{}} }

func (m *memTracker) CommitFor(repoURL string) (string, bool) {
	c, ok := m.commits[repoURL]
	return c, ok
}

func (m *memTracker) SetCommit(repoURL, commit string) { m.commits[repoURL] = commit }

const goBackendSource = `package api

import "net/http"

func GetPeople(w http.ResponseWriter, r *http.Request) {}

func setupRoutes(router *Router) {
	router.GET("/people", GetPeople)
}
`

const goModSource = "module example.com/backend\n\ngo 1.24\n\nrequire github.com/gin-gonic/gin v1.9.1\n"

func writeFile(t *testing.T, dir, relPath, content string) {
	t.Helper()
	full := filepath.Join(dir, relPath)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func TestBuildGraphEmitsAncestryLibrariesFunctionsAndEndpoint(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "go.mod", goModSource)
	writeFile(t, dir, "api/routes.go", goBackendSource)

	tracker := newMemTracker()
	e := New(graph.NewArrayGraph(), tracker, Config{}, nil)
	g, err := e.BuildGraph(context.Background(), RepoSpec{
		RepoRoot: dir,
		RepoURL:  "example.com/backend",
		Language: lang.Go,
		Commit:   "c1",
	}, nil)
	require.NoError(t, err)

	commit, ok := tracker.CommitFor("example.com/backend")
	require.True(t, ok)
	assert.Equal(t, "c1", commit)

	repos := g.FindByType(graph.Repository)
	require.Len(t, repos, 1)
	assert.Equal(t, "example.com/backend", repos[0].Data.Name)

	libs := g.FindByType(graph.Library)
	require.Len(t, libs, 1)
	assert.Equal(t, "github.com/gin-gonic/gin", libs[0].Data.Name)

	funcs := g.FindByNameInFile(graph.Function, "GetPeople", "api/routes.go")
	require.Len(t, funcs, 1)

	endpoints := g.FindByType(graph.Endpoint)
	require.Len(t, endpoints, 1)
	assert.Equal(t, "/people", endpoints[0].Data.Name)
	assert.Equal(t, "GET", endpoints[0].Verb())

	handlerEdges := g.EdgesOfKind(graph.Handler)
	require.Len(t, handlerEdges, 1)
	assert.Equal(t, endpoints[0].Key(), handlerEdges[0].Source)
	assert.Equal(t, funcs[0].Key(), handlerEdges[0].Target)

	// The engine's own graph and the returned subgraph both contain it.
	assert.Equal(t, g.NodeCount(), e.Graph().NodeCount())
}

func TestBuildGraphsLinksCrossRepoRequestToEndpoint(t *testing.T) {
	backendDir := t.TempDir()
	writeFile(t, backendDir, "go.mod", goModSource)
	writeFile(t, backendDir, "api/routes.go", goBackendSource)

	frontendDir := t.TempDir()
	writeFile(t, frontendDir, "package.json", `{"name":"frontend","dependencies":{"axios":"1.0.0"}}`)
	writeFile(t, frontendDir, "src/people.ts", "axios.get(\"/people\");\n")

	e := New(graph.NewArrayGraph(), newMemTracker(), Config{}, nil)
	ctx := context.Background()

	g, err := e.BuildGraphs(ctx, []RepoSpec{
		{RepoRoot: backendDir, RepoURL: "example.com/backend", Language: lang.Go},
		{RepoRoot: frontendDir, RepoURL: "example.com/frontend", Language: lang.TypeScript},
	}, nil)
	require.NoError(t, err)

	requests := g.FindByType(graph.Request)
	require.Len(t, requests, 1)

	calls := g.EdgesOfKind(graph.Calls)
	var linked bool
	for _, c := range calls {
		if c.Source == requests[0].Key() {
			target, ok := g.FindByKey(c.Target)
			require.True(t, ok)
			assert.Equal(t, graph.Endpoint, target.Kind)
			assert.Equal(t, "/people", target.Data.Name)
			linked = true
		}
	}
	assert.True(t, linked, "expected the frontend Request to link to the backend Endpoint")
}

func TestClearRemovesAllNodesForRepo(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "go.mod", goModSource)
	writeFile(t, dir, "api/routes.go", goBackendSource)

	e := New(graph.NewArrayGraph(), newMemTracker(), Config{}, nil)
	_, err := e.BuildGraph(context.Background(), RepoSpec{
		RepoRoot: dir, RepoURL: "example.com/backend", Language: lang.Go,
	}, nil)
	require.NoError(t, err)
	require.NotZero(t, e.Graph().NodeCount())

	removed := e.Clear("example.com/backend")
	assert.Greater(t, removed, 0)
	assert.Equal(t, 0, e.Graph().NodeCount())
	assert.Equal(t, 0, e.Graph().EdgeCount())
}

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
}

func runGit(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", append([]string{"-C", dir}, args...)...)
	cmd.Env = append(os.Environ(), "GIT_AUTHOR_NAME=t", "GIT_AUTHOR_EMAIL=t@t.com", "GIT_COMMITTER_NAME=t", "GIT_COMMITTER_EMAIL=t@t.com")
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, string(out))
}

func TestUpdateIncrementalAdvancesCommitThroughEngine(t *testing.T) {
	requireGit(t)
	dir := t.TempDir()
	writeFile(t, dir, "go.mod", goModSource)
	writeFile(t, dir, "api/routes.go", goBackendSource)
	runGit(t, dir, "init")
	runGit(t, dir, "add", ".")
	runGit(t, dir, "commit", "-m", "initial")

	tracker := newMemTracker()
	e := New(graph.NewArrayGraph(), tracker, Config{}, nil)
	ctx := context.Background()
	_, err := e.BuildGraph(ctx, RepoSpec{RepoRoot: dir, RepoURL: "example.com/backend", Language: lang.Go, Commit: "HEAD"}, nil)
	require.NoError(t, err)

	// No further commits: the diff is empty, so UpdateIncremental only
	// advances the tracked commit pointer without touching the graph.
	before := e.Graph().NodeCount()
	nodes, edges, err := e.UpdateIncremental(ctx, dir, "example.com/backend", "HEAD", lang.Go, nil)
	require.NoError(t, err)
	assert.Equal(t, before, nodes)
	assert.Equal(t, e.Graph().EdgeCount(), edges)
}
