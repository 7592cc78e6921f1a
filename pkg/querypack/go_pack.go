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
	"github.com/smacker/go-tree-sitter/golang"
)

type goHooks struct{ BaseHooks }

func (goHooks) IsRouterFile(path string, code []byte) bool {
	return strings.Contains(string(code), "http.HandleFunc") ||
		strings.Contains(string(code), "gin.Engine") ||
		strings.Contains(string(code), "mux.Router") ||
		strings.Contains(string(code), "echo.New")
}

func (goHooks) FindFunctionParent(node *sitter.Node, code []byte) (string, bool) {
	// method_declaration has a receiver field; walk it to the base type name.
	if node == nil || node.Type() != "method_declaration" {
		return "", false
	}
	recv := node.ChildByFieldName("receiver")
	if recv == nil {
		return "", false
	}
	for i := 0; i < int(recv.ChildCount()); i++ {
		c := recv.Child(i)
		if c.Type() == "parameter_declaration" {
			t := c.ChildByFieldName("type")
			if t == nil {
				continue
			}
			name := NodeText(t, code)
			name = strings.TrimPrefix(name, "*")
			return name, true
		}
	}
	return "", false
}

func (h goHooks) AddEndpointVerb(callMethod string) string {
	switch strings.ToUpper(callMethod) {
	case "GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS":
		return strings.ToUpper(callMethod)
	default:
		return h.BaseHooks.AddEndpointVerb(callMethod)
	}
}

// goPack implements Go's slice of the Query Pack. Grounded on
// viant-linager's inspector_tree_sitter.go query style
// ("(package_clause (package_identifier) @package)") and on
// pkg/ingestion/parser_go.go's two-pass function/call extraction, which is
// re-expressed here as declarative queries rather than a hand-rolled
// node.Type() switch, per SPEC_FULL.md's Query Pack contract.
var goPack = &Pack{
	Language: golang.GetLanguage(),
	Hooks:    goHooks{},
	Queries: map[string]string{
		QueryImports: `
			(import_declaration
			  (import_spec_list
			    (import_spec
			      name: (package_identifier)? @imports-name
			      path: (interpreted_string_literal) @imports-from)))
			(import_declaration
			  (import_spec
			    name: (package_identifier)? @imports-name
			    path: (interpreted_string_literal) @imports-from))`,

		QueryClasses: `
			(type_declaration
			  (type_spec
			    name: (type_identifier) @class-name
			    type: (struct_type))) @struct`,

		QueryFunctions: `
			(function_declaration
			  name: (identifier) @function-name
			  parameters: (parameter_list) @arguments
			  result: (_)? @return-types) @function
			(method_declaration
			  name: (field_identifier) @function-name
			  parameters: (parameter_list) @arguments
			  result: (_)? @return-types) @function`,

		QueryFunctionCalls: `
			(call_expression
			  function: (identifier) @function-name
			  arguments: (argument_list) @arguments)
			(call_expression
			  function: (selector_expression
			    operand: (identifier) @operand
			    field: (field_identifier) @function-name)
			  arguments: (argument_list) @arguments)`,

		QueryVariables: `
			(var_declaration
			  (var_spec
			    name: (identifier) @variable-name
			    type: (_)? @variable-type)) @variable-declaration
			(short_var_declaration
			  left: (expression_list (identifier) @variable-name)) @variable-declaration`,

		QueryEndpoints: `
			(call_expression
			  function: (selector_expression
			    operand: (identifier) @operand
			    field: (field_identifier) @endpoint-verb)
			  arguments: (argument_list
			    . (interpreted_string_literal) @endpoint
			    . (_) @handler)) @endpoint-call`,

		QueryDataModelUse: `
			(type_identifier) @variable-type`,

		QueryIdentifiers: `
			(identifier) @function-name`,
	},
}

func init() { Register("go", goPack) }
