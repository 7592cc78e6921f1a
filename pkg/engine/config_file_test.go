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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigFromFileMissingIsZeroValue(t *testing.T) {
	cfg, err := LoadConfigFromFile(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Config{}, cfg)
}

func TestLoadConfigFromFileParsesFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "project.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
output_format: pretty
use_lsp: true
skip_post_clone: true
exclude_globs:
  - "**/testdata/*"
  - vendor
`), 0o644))

	cfg, err := LoadConfigFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "pretty", cfg.OutputFormat)
	require.NotNil(t, cfg.ForceLSP)
	assert.True(t, *cfg.ForceLSP)
	assert.True(t, cfg.SkipPostClone)
	assert.Equal(t, []string{"**/testdata/*", "vendor"}, cfg.ExcludeGlobs)
}

func TestLoadConfigFromFileRejectsMalformedYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "project.yaml")
	require.NoError(t, os.WriteFile(path, []byte("not: [valid"), 0o644))

	_, err := LoadConfigFromFile(path)
	assert.Error(t, err)
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "project.yaml")
	require.NoError(t, os.WriteFile(path, []byte("output_format: pretty\n"), 0o644))

	t.Setenv("OUTPUT_FORMAT", "jsonl")
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "jsonl", cfg.OutputFormat)
}
