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
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// fileConfig is the on-disk shape of .cgraph/project.yaml: language
// overrides, LSP toggles, exclude globs and the default output format, so
// a project can commit its graph-build defaults instead of exporting the
// same environment variables in every shell.
type fileConfig struct {
	OutputFormat  string   `yaml:"output_format"`
	UseLSP        *bool    `yaml:"use_lsp"`
	SkipPostClone bool     `yaml:"skip_post_clone"`
	ExcludeGlobs  []string `yaml:"exclude_globs"`
}

// LoadConfigFromFile parses a .cgraph/project.yaml at path into a Config.
// A missing file is not an error; it yields the zero Config (LoadConfig
// then applies the environment overrides and the "jsonl" OutputFormat
// default on top).
func LoadConfigFromFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, nil
		}
		return Config{}, fmt.Errorf("engine: read %s: %w", path, err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return Config{}, fmt.Errorf("engine: parse %s: %w", path, err)
	}
	return Config{
		OutputFormat:  fc.OutputFormat,
		ForceLSP:      fc.UseLSP,
		SkipPostClone: fc.SkipPostClone,
		ExcludeGlobs:  fc.ExcludeGlobs,
	}, nil
}

// LoadConfig reads .cgraph/project.yaml at path (if present) and then
// layers the spec §6 environment variables on top, so those env vars
// (LSP_SKIP_POST_CLONE, USE_LSP, OUTPUT_FORMAT, ...) always override
// whatever the committed project file says.
func LoadConfig(path string) (Config, error) {
	file, err := LoadConfigFromFile(path)
	if err != nil {
		return Config{}, err
	}
	return applyEnvOverrides(file), nil
}
