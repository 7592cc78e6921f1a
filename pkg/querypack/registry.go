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

package querypack

// packs is keyed by the lang.Tag string value rather than the lang.Tag
// type itself, so this package has no import-time dependency on pkg/lang —
// a language with no registered Pack is valid (spec §9: "partial query
// packs... treat missing queries as no entities, not errors").
var packs = map[string]*Pack{}

// Register adds a Pack under a language tag string. Called from each
// per-language file's init().
func Register(tag string, p *Pack) { packs[tag] = p }

// Get returns the Pack for tag, or nil if the language has no query pack
// at all (e.g. Svelte/Angular/Bash/Toml in this module — first-class
// targets each get a Pack, but these four are either frontend frameworks
// layered on the TypeScript/TSX pack or the helper grammars spec §4.2
// calls out as not first-class).
func Get(tag string) *Pack { return packs[tag] }

// Registered reports whether any Pack has been registered for tag.
func Registered(tag string) bool { return packs[tag] != nil }
