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

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// BaseHooks is the conservative default SemanticHooks implementation.
// Per-language packs embed it and override only what their grammar needs,
// the same way viant-linager's per-language inspector packages share
// little behavior beyond "walk the tree, project nodes".
type BaseHooks struct{}

func (BaseHooks) IsLibFile(path string) bool {
	return strings.Contains(path, "vendor/") ||
		strings.Contains(path, "node_modules/") ||
		strings.Contains(path, "/.venv/") ||
		strings.Contains(path, "site-packages/")
}

func (BaseHooks) IsComponent(name string) bool {
	return len(name) > 0 && name[0] >= 'A' && name[0] <= 'Z'
}

func (BaseHooks) IsTest(name, file string) bool {
	lowerName := strings.ToLower(name)
	lowerFile := strings.ToLower(file)
	return strings.HasPrefix(lowerName, "test_") ||
		strings.HasSuffix(lowerName, "_test") ||
		strings.HasPrefix(lowerName, "test") ||
		strings.Contains(lowerFile, "spec") ||
		strings.Contains(lowerFile, "_test.") ||
		strings.Contains(lowerFile, "/test/") ||
		strings.Contains(lowerFile, "/tests/")
}

func (BaseHooks) IsTestFile(name string) bool {
	lower := strings.ToLower(name)
	return strings.Contains(lower, "test") || strings.Contains(lower, "spec")
}

func (BaseHooks) IsRouterFile(path string, code []byte) bool {
	return false
}

func (BaseHooks) FindFunctionParent(node *sitter.Node, code []byte) (string, bool) {
	return "", false
}

func (BaseHooks) FindTraitOperand(node *sitter.Node, code []byte) (string, bool) {
	return "", false
}

func (BaseHooks) AddEndpointVerb(annotationOrCallMethod string) string {
	v := strings.ToUpper(annotationOrCallMethod)
	switch {
	case strings.Contains(v, "POST"):
		return "POST"
	case strings.Contains(v, "PUT"):
		return "PUT"
	case strings.Contains(v, "PATCH"):
		return "PATCH"
	case strings.Contains(v, "DELETE"):
		return "DELETE"
	case strings.Contains(v, "HEAD"):
		return "HEAD"
	case strings.Contains(v, "OPTIONS"):
		return "OPTIONS"
	default:
		return "GET"
	}
}

func (BaseHooks) UpdateEndpointVerb(existing, candidate string) string {
	if candidate == "" {
		return existing
	}
	return candidate
}

func (BaseHooks) HandlerFinder(node *sitter.Node, code []byte, endpointPath string, params []string) (string, bool) {
	if len(params) > 0 {
		return params[len(params)-1], true
	}
	return "", false
}

func (BaseHooks) EndpointPathFilter(path string) bool { return true }

func (BaseHooks) ResolveImportName(raw string) string { return raw }
func (BaseHooks) ResolveImportPath(raw string) string { return raw }

func (BaseHooks) E2ETestIDFinderString() string { return "" }

// NodeText extracts the source text spanned by node. Shared by every
// language pack's hooks, grounded on the teacher's repeated
// content[node.StartByte():node.EndByte()] idiom across parser_go.go /
// parser_typescript.go.
func NodeText(node *sitter.Node, code []byte) string {
	if node == nil {
		return ""
	}
	return string(code[node.StartByte():node.EndByte()])
}

// StripLiteral removes surrounding quote or leading ":" symbol markers
// from a captured string literal, per spec §4.4.
func StripLiteral(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, ":") {
		s = s[1:]
	}
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		quotes := "\"'`"
		if strings.IndexByte(quotes, first) >= 0 && first == last {
			return s[1 : len(s)-1]
		}
	}
	return s
}
