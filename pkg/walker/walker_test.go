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

package walker

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/cgraph/pkg/lang"
)

func writeFile(t *testing.T, dir, rel, content string) {
	t.Helper()
	path := filepath.Join(dir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestWalkDiscoversSourceAndManifestFirst(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "main.go", "package main\n")
	writeFile(t, root, "go.mod", "module demo\n")
	writeFile(t, root, "vendor/ignored.go", "package vendor\n")
	writeFile(t, root, ".git/HEAD", "ref: refs/heads/main\n")

	spec, _ := lang.Lookup(lang.Go)
	w := New(nil)
	files, err := w.Walk(root, spec, Options{})
	require.NoError(t, err)

	require.Len(t, files, 2)
	assert.True(t, files[0].IsPackageManifest, "manifest must sort first")
	assert.Equal(t, "go.mod", files[0].RelPath)
	assert.Equal(t, "main.go", files[1].RelPath)
}

func TestWalkRejectsOversizeFile(t *testing.T) {
	root := t.TempDir()
	big := strings.Repeat("x", MaxFileSize+1)
	writeFile(t, root, "big.go", big)

	spec, _ := lang.Lookup(lang.Go)
	files, err := New(nil).Walk(root, spec, Options{})
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestWalkHonorsExtraFilter(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a/one.go", "package a\n")
	writeFile(t, root, "b/two.go", "package b\n")

	spec, _ := lang.Lookup(lang.Go)
	files, err := New(nil).Walk(root, spec, Options{ExtraFilters: []string{"a/"}})
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "a/one.go", files[0].RelPath)
}

func TestWalkHonorsExcludeGlobs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a/one.go", "package a\n")
	writeFile(t, root, "a/fixtures/two.go", "package fixtures\n")

	spec, _ := lang.Lookup(lang.Go)
	files, err := New(nil).Walk(root, spec, Options{ExcludeGlobs: []string{"fixtures"}})
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "a/one.go", files[0].RelPath)
}

func TestWalkSkipsMinifiedJS(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "app.js", "console.log(1)\n")
	writeFile(t, root, "app.min.js", "console.log(1)\n")

	spec, _ := lang.Lookup(lang.TypeScript)
	spec.Extensions = append(spec.Extensions, ".js")
	files, err := New(nil).Walk(root, spec, Options{})
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "app.js", files[0].RelPath)
}
