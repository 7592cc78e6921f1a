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
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kraklabs/cgraph/pkg/lang"
)

func TestParseCargoTomlHandlesShortAndTableForms(t *testing.T) {
	content := []byte(`
[package]
name = "widgets"
version = "0.1.0"

[dependencies]
serde = "1.0"
tokio = { version = "1.38", features = ["full"] }

[dev-dependencies]
proptest = "1.4"
`)
	refs := ParseManifest(lang.Rust, content)
	byName := make(map[string]string, len(refs))
	for _, r := range refs {
		byName[r.Name] = r.Version
	}
	assert.Equal(t, "1.0", byName["serde"])
	assert.Equal(t, "1.38", byName["tokio"])
	assert.Equal(t, "1.4", byName["proptest"])
	assert.Len(t, refs, 3)
}

func TestParseCargoTomlIgnoresMalformedInput(t *testing.T) {
	refs := ParseManifest(lang.Rust, []byte("not = [valid toml"))
	assert.Empty(t, refs)
}
