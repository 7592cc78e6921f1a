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

package incremental

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/cgraph/pkg/assembler"
	"github.com/kraklabs/cgraph/pkg/graph"
	"github.com/kraklabs/cgraph/pkg/lang"
	"github.com/kraklabs/cgraph/pkg/parsercore"
	"github.com/kraklabs/cgraph/pkg/querypack"
)

type memTracker struct {
	commits map[string]string
}

func newMemTracker() *memTracker { return &memTracker{commits: map[string]string{}} }

func (m *memTracker) CommitFor(repoURL string) (string, bool) {
	c, ok := m.commits[repoURL]
	return c, ok
}

func (m *memTracker) SetCommit(repoURL, commit string) { m.commits[repoURL] = commit }

func runGit(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", append([]string{"-C", dir}, args...)...)
	cmd.Env = append(os.Environ(),
		"GIT_AUTHOR_NAME=test", "GIT_AUTHOR_EMAIL=test@example.com",
		"GIT_COMMITTER_NAME=test", "GIT_COMMITTER_EMAIL=test@example.com")
	out, err := cmd.CombinedOutput()
	require.NoErrorf(t, err, "git %v: %s", args, out)
}

func commitHash(t *testing.T, dir string) string {
	t.Helper()
	cmd := exec.Command("git", "-C", dir, "rev-parse", "HEAD")
	out, err := cmd.Output()
	require.NoError(t, err)
	return strings.TrimSpace(string(out))
}

const greeterV1 = `package greeter

func Hello() string {
	return "hello"
}

func main() {
	_ = Hello()
}
`

const greeterV2 = `package greeter

func HelloWorld() string {
	return "hello world"
}

func main() {
	_ = HelloWorld()
}
`

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
}

func TestUpdaterReassemblesChangedFileAndRemovesStaleNodes(t *testing.T) {
	requireGit(t)
	dir := t.TempDir()
	runGit(t, dir, "init")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "greeter.go"), []byte(greeterV1), 0o644))
	runGit(t, dir, "add", ".")
	runGit(t, dir, "commit", "-m", "v1")
	v1 := commitHash(t, dir)

	g := graph.NewArrayGraph()
	ctx := context.Background()
	pack := querypack.Get("go")
	require.NotNil(t, pack)
	core := parsercore.New(pack, nil)
	pf, err := core.Parse(ctx, "greeter.go", []byte(greeterV1))
	require.NoError(t, err)
	a := assembler.New(g, nil)
	_, err = a.AssembleFile(ctx, assembler.FileInput{RepoRoot: dir, Lang: lang.Go, RelPath: "greeter.go", Source: []byte(greeterV1)}, core, pf)
	require.NoError(t, err)
	require.Len(t, g.FindByNameInFile(graph.Function, "Hello", "greeter.go"), 1)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "greeter.go"), []byte(greeterV2), 0o644))
	runGit(t, dir, "commit", "-am", "v2")
	v2 := commitHash(t, dir)

	tracker := newMemTracker()
	tracker.SetCommit("local/greeter", v1)
	u := New(g, tracker, nil, nil)
	require.NoError(t, u.Update(ctx, dir, "local/greeter", v2))

	assert.Empty(t, g.FindByNameInFile(graph.Function, "Hello", "greeter.go"))
	assert.Len(t, g.FindByNameInFile(graph.Function, "HelloWorld", "greeter.go"), 1)
	got, ok := tracker.CommitFor("local/greeter")
	require.True(t, ok)
	assert.Equal(t, v2, got)
}

func TestUpdateWithNoChangesAdvancesCommitOnly(t *testing.T) {
	requireGit(t)
	dir := t.TempDir()
	runGit(t, dir, "init")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "greeter.go"), []byte(greeterV1), 0o644))
	runGit(t, dir, "add", ".")
	runGit(t, dir, "commit", "-m", "v1")
	v1 := commitHash(t, dir)
	runGit(t, dir, "commit", "--allow-empty", "-m", "v1-empty")
	v2 := commitHash(t, dir)

	g := graph.NewArrayGraph()
	tracker := newMemTracker()
	tracker.SetCommit("local/greeter", v1)
	u := New(g, tracker, nil, nil)
	require.NoError(t, u.Update(context.Background(), dir, "local/greeter", v2))

	got, ok := tracker.CommitFor("local/greeter")
	require.True(t, ok)
	assert.Equal(t, v2, got)
}

func TestUpdateWithoutTrackedCommitErrors(t *testing.T) {
	g := graph.NewArrayGraph()
	tracker := newMemTracker()
	u := New(g, tracker, nil, nil)
	err := u.Update(context.Background(), t.TempDir(), "local/unknown", "deadbeef")
	assert.Error(t, err)
}
