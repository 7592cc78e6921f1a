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
	"github.com/smacker/go-tree-sitter/kotlin"
)

type kotlinHooks struct{ BaseHooks }

func (kotlinHooks) FindFunctionParent(node *sitter.Node, code []byte) (string, bool) {
	cur := node
	for cur != nil {
		cur = cur.Parent()
		if cur == nil {
			return "", false
		}
		if cur.Type() == "class_declaration" {
			name := cur.ChildByFieldName("name")
			if name == nil {
				name = cur.ChildByFieldName("type_identifier")
			}
			if name != nil {
				return NodeText(name, code), true
			}
		}
	}
	return "", false
}

func (kotlinHooks) IsTest(name, file string) bool {
	return strings.HasPrefix(name, "test") || BaseHooks{}.IsTest(name, file)
}

func (h kotlinHooks) AddEndpointVerb(call string) string {
	switch strings.ToLower(call) {
	case "get", "post", "put", "delete":
		return strings.ToUpper(call)
	default:
		return "GET"
	}
}

func (kotlinHooks) ResolveImportName(raw string) string {
	parts := strings.Split(raw, ".")
	return parts[len(parts)-1]
}

func (kotlinHooks) ResolveImportPath(raw string) string {
	parts := strings.Split(raw, ".")
	if len(parts) > 2 {
		return strings.Join(parts[:len(parts)-2], "/")
	}
	return raw
}

// kotlinPack implements Kotlin's slice of the Query Pack, grounded on
// original_source/ast/src/lang/queries/kotlin.rs: a call_expression library
// query, package_header/import_header imports, property_declaration
// variables, class_declaration classes, the Request.Builder call-chain
// request finder (rewritten here as a simple createRequest-shaped match
// since the chain tree-sitter/kotlin exposes differs from the tree-sitter-kotlin-sg
// grammar the original used), and dotted-name import resolution.
var kotlinPack = &Pack{
	Language: kotlin.GetLanguage(),
	Hooks:    kotlinHooks{},
	Queries: map[string]string{
		QueryLibraries: `
			(call_expression
			  (simple_identifier) @library) @library`,

		QueryImports: `
			(import_header
			  (identifier) @imports-name @imports-from) @imports`,

		QueryVariables: `
			(property_declaration
			  (variable_declaration
			    (simple_identifier) @variable-name
			    (user_type)? @variable-type)) @variable-declaration`,

		QueryClasses: `
			(class_declaration
			  (type_identifier) @class-name) @struct`,

		QueryFunctions: `
			(function_declaration
			  (simple_identifier) @function-name
			  (function_value_parameters) @arguments) @function`,

		QueryFunctionCalls: `
			(call_expression
			  (simple_identifier) @function-name)
			(call_expression
			  (navigation_expression
			    (simple_identifier) @operand
			    (navigation_suffix
			      (simple_identifier) @function-name)))`,

		QueryDataModels: `
			(class_declaration
			  (type_identifier) @class-name) @struct`,

		QueryDataModelUse: `
			(variable_declaration (simple_identifier) @variable-type)
			(call_expression (simple_identifier) @variable-type)`,

		QueryRequests: `
			(call_expression
			  (simple_identifier) @request-call (#match? @request-call "^(get|post|put|delete)$")) @route`,

		QueryIdentifiers: `
			(simple_identifier) @function-name`,
	},
}

func init() { Register("kotlin", kotlinPack) }
