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
	"github.com/smacker/go-tree-sitter/java"
)

type javaHooks struct{ BaseHooks }

func (javaHooks) IsRouterFile(path string, code []byte) bool {
	s := string(code)
	return strings.Contains(s, "@RestController") || strings.Contains(s, "@Controller")
}

func (javaHooks) FindFunctionParent(node *sitter.Node, code []byte) (string, bool) {
	cur := node
	for cur != nil {
		cur = cur.Parent()
		if cur == nil {
			return "", false
		}
		if cur.Type() == "class_declaration" || cur.Type() == "interface_declaration" {
			nameNode := cur.ChildByFieldName("name")
			if nameNode != nil {
				return NodeText(nameNode, code), true
			}
		}
	}
	return "", false
}

func (h javaHooks) AddEndpointVerb(annotation string) string {
	switch {
	case strings.Contains(annotation, "GetMapping"):
		return "GET"
	case strings.Contains(annotation, "PostMapping"):
		return "POST"
	case strings.Contains(annotation, "PutMapping"):
		return "PUT"
	case strings.Contains(annotation, "PatchMapping"):
		return "PATCH"
	case strings.Contains(annotation, "DeleteMapping"):
		return "DELETE"
	case strings.Contains(annotation, "RequestMapping"):
		return "" // class-level prefix only; method stays unresolved until narrowed
	default:
		return h.BaseHooks.AddEndpointVerb(annotation)
	}
}

func (javaHooks) UpdateEndpointVerb(existing, candidate string) string {
	if candidate == "" {
		return existing
	}
	return candidate
}

// javaPack implements Java's slice of the Query Pack, covering Spring's
// class-level @RequestMapping prefix composing into each @GetMapping/
// @PostMapping endpoint (spec seed scenario 2) and @Entity-annotated
// classes becoming DataModel nodes.
var javaPack = &Pack{
	Language: java.GetLanguage(),
	Hooks:    javaHooks{},
	Queries: map[string]string{
		QueryImports: `
			(import_declaration
			  (scoped_identifier) @imports-from) @imports`,

		QueryClasses: `
			(class_declaration
			  (modifiers (marker_annotation name: (identifier) @_entity (#eq? @_entity "Entity")))?
			  name: (identifier) @class-name
			  superclass: (superclass (type_identifier) @parent-type)?
			  body: (class_body) @struct)`,

		QueryFunctions: `
			(method_declaration
			  name: (identifier) @function-name
			  parameters: (formal_parameters) @arguments
			  type: (_)? @return-types) @function`,

		QueryFunctionCalls: `
			(method_invocation
			  object: (identifier) @operand
			  name: (identifier) @function-name
			  arguments: (argument_list) @arguments)
			(method_invocation
			  name: (identifier) @function-name
			  arguments: (argument_list) @arguments)`,

		QueryEndpointGroups: `
			(class_declaration
			  (modifiers
			    (annotation
			      name: (identifier) @_req (#eq? @_req "RequestMapping")
			      arguments: (annotation_argument_list (string_literal) @group)))
			  name: (identifier) @operand) @endpoint-group`,

		QueryEndpoints: `
			(method_declaration
			  (modifiers
			    (marker_annotation name: (identifier) @endpoint-verb))
			  name: (identifier) @handler) @endpoint-call
			(method_declaration
			  (modifiers
			    (annotation
			      name: (identifier) @endpoint-verb
			      arguments: (annotation_argument_list (string_literal) @endpoint)))
			  name: (identifier) @handler) @endpoint-call`,

		QueryVariables: `
			(local_variable_declaration
			  declarator: (variable_declarator name: (identifier) @variable-name)
			  type: (_) @variable-type) @variable-declaration`,

		QueryIdentifiers: `
			(identifier) @function-name`,
	},
}

func init() { Register("java", javaPack) }
