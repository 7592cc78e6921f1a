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
	"encoding/json"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/kraklabs/cgraph/pkg/lang"
)

// LibraryRef is one dependency parsed out of a package manifest.
type LibraryRef struct {
	Name    string
	Version string
}

var (
	goRequireLine   = regexp.MustCompile(`^\s*([^\s]+)\s+([^\s]+)`)
	gemfileLine     = regexp.MustCompile(`gem\s+["']([^"']+)["'](?:\s*,\s*["']([^"']+)["'])?`)
	pipRequirement  = regexp.MustCompile(`^([A-Za-z0-9_.-]+)\s*[=<>!~]*\s*([A-Za-z0-9.*_-]*)`)
	mavenDependency = regexp.MustCompile(`<artifactId>([^<]+)</artifactId>\s*(?:<version>([^<]+)</version>)?`)
)

// ParseManifest extracts library references from a package manifest's raw
// bytes, per the manifest format named in the language's registry entry
// (spec §4.7 step 3: "parse the package manifest once"). Go/npm/pip/Gemfile/
// Maven manifests each get a small purpose-built line parser, since those
// formats need only name+version pairs and the teacher pack carries no
// grammar for them; Cargo.toml is real TOML, so it goes through
// github.com/BurntSushi/toml instead of another regexp.
func ParseManifest(tag lang.Tag, content []byte) []LibraryRef {
	switch tag {
	case lang.Go:
		return parseGoMod(content)
	case lang.TypeScript, lang.TSX, lang.Angular, lang.Svelte:
		return parsePackageJSON(content)
	case lang.Python:
		return parseRequirementsTxt(content)
	case lang.Ruby:
		return parseGemfile(content)
	case lang.Rust:
		return parseCargoToml(content)
	case lang.Java:
		return parsePomXML(content)
	default:
		return nil
	}
}

func parseGoMod(content []byte) []LibraryRef {
	var refs []LibraryRef
	inBlock := false
	for _, line := range strings.Split(string(content), "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "require ("):
			inBlock = true
			continue
		case inBlock && trimmed == ")":
			inBlock = false
			continue
		case strings.HasPrefix(trimmed, "require ") && !inBlock:
			trimmed = strings.TrimPrefix(trimmed, "require ")
		case !inBlock:
			continue
		}
		if trimmed == "" || strings.HasPrefix(trimmed, "//") {
			continue
		}
		if m := goRequireLine.FindStringSubmatch(trimmed); len(m) == 3 {
			refs = append(refs, LibraryRef{Name: m[1], Version: m[2]})
		}
	}
	return refs
}

func parsePackageJSON(content []byte) []LibraryRef {
	var doc struct {
		Dependencies    map[string]string `json:"dependencies"`
		DevDependencies map[string]string `json:"devDependencies"`
	}
	if err := json.Unmarshal(content, &doc); err != nil {
		return nil
	}
	var refs []LibraryRef
	for name, version := range doc.Dependencies {
		refs = append(refs, LibraryRef{Name: name, Version: version})
	}
	for name, version := range doc.DevDependencies {
		refs = append(refs, LibraryRef{Name: name, Version: version})
	}
	return refs
}

func parseRequirementsTxt(content []byte) []LibraryRef {
	var refs []LibraryRef
	for _, line := range strings.Split(string(content), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "-") {
			continue
		}
		if m := pipRequirement.FindStringSubmatch(trimmed); len(m) == 3 {
			refs = append(refs, LibraryRef{Name: m[1], Version: m[2]})
		}
	}
	return refs
}

func parseGemfile(content []byte) []LibraryRef {
	var refs []LibraryRef
	for _, m := range gemfileLine.FindAllStringSubmatch(string(content), -1) {
		refs = append(refs, LibraryRef{Name: m[1], Version: m[2]})
	}
	return refs
}

// cargoManifest mirrors just the dependency tables of a Cargo.toml; the
// rest of the document (package metadata, features, profiles) is of no
// interest to library extraction and toml.Unmarshal ignores it.
type cargoManifest struct {
	Dependencies    map[string]cargoDep `toml:"dependencies"`
	DevDependencies map[string]cargoDep `toml:"dev-dependencies"`
}

// cargoDep accepts both the short form (`serde = "1.0"`) and the table
// form (`serde = { version = "1.0", features = [...] }`) by implementing
// UnmarshalTOML directly; BurntSushi/toml's struct decoding can't express
// "string or table" as a single field type.
type cargoDep struct {
	Version string
}

func (d *cargoDep) UnmarshalTOML(data any) error {
	switch v := data.(type) {
	case string:
		d.Version = v
	case map[string]any:
		if ver, ok := v["version"].(string); ok {
			d.Version = ver
		}
	}
	return nil
}

func parseCargoToml(content []byte) []LibraryRef {
	var manifest cargoManifest
	if err := toml.Unmarshal(content, &manifest); err != nil {
		return nil
	}
	var refs []LibraryRef
	for name, dep := range manifest.Dependencies {
		refs = append(refs, LibraryRef{Name: name, Version: dep.Version})
	}
	for name, dep := range manifest.DevDependencies {
		refs = append(refs, LibraryRef{Name: name, Version: dep.Version})
	}
	return refs
}

func parsePomXML(content []byte) []LibraryRef {
	var refs []LibraryRef
	for _, m := range mavenDependency.FindAllStringSubmatch(string(content), -1) {
		refs = append(refs, LibraryRef{Name: m[1], Version: m[2]})
	}
	return refs
}
