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
	"github.com/smacker/go-tree-sitter/rust"
)

type rustHooks struct{ BaseHooks }

func (rustHooks) IsRouterFile(path string, code []byte) bool {
	s := string(code)
	return strings.Contains(s, "actix_web") || strings.Contains(s, "axum::Router") ||
		strings.Contains(s, "#[get(") || strings.Contains(s, "#[post(")
}

// FindFunctionParent walks up to the enclosing impl_item and resolves its
// Self type, covering both `impl Foo` and `impl Trait for Foo` shapes — the
// latter is also surfaced separately via FindTraitOperand.
func (rustHooks) FindFunctionParent(node *sitter.Node, code []byte) (string, bool) {
	cur := node
	for cur != nil {
		cur = cur.Parent()
		if cur == nil {
			return "", false
		}
		if cur.Type() == "impl_item" {
			t := cur.ChildByFieldName("type")
			if t != nil {
				return NodeText(t, code), true
			}
		}
	}
	return "", false
}

func (rustHooks) FindTraitOperand(node *sitter.Node, code []byte) (string, bool) {
	cur := node
	for cur != nil {
		cur = cur.Parent()
		if cur == nil {
			return "", false
		}
		if cur.Type() == "impl_item" {
			tr := cur.ChildByFieldName("trait")
			if tr != nil {
				return NodeText(tr, code), true
			}
			return "", false
		}
	}
	return "", false
}

func (h rustHooks) AddEndpointVerb(attribute string) string {
	a := strings.ToLower(attribute)
	switch {
	case strings.Contains(a, "get"):
		return "GET"
	case strings.Contains(a, "post"):
		return "POST"
	case strings.Contains(a, "put"):
		return "PUT"
	case strings.Contains(a, "patch"):
		return "PATCH"
	case strings.Contains(a, "delete"):
		return "DELETE"
	default:
		return h.BaseHooks.AddEndpointVerb(attribute)
	}
}

// rustPack implements Rust's slice of the Query Pack, covering actix-web
// / axum-style #[get("/path")] attribute macros above handler fns and
// impl/trait resolution for method-parent walking (spec seed scenario 5).
var rustPack = &Pack{
	Language: rust.GetLanguage(),
	Hooks:    rustHooks{},
	Queries: map[string]string{
		QueryImports: `
			(use_declaration
			  argument: (_) @imports-from) @imports`,

		QueryClasses: `
			(struct_item
			  name: (type_identifier) @class-name
			  body: (field_declaration_list)? @struct)`,

		QueryFunctions: `
			(function_item
			  name: (identifier) @function-name
			  parameters: (parameters) @arguments
			  return_type: (_)? @return-types) @function`,

		QueryFunctionCalls: `
			(call_expression
			  function: (identifier) @function-name
			  arguments: (arguments) @arguments)
			(call_expression
			  function: (field_expression
			    value: (identifier) @operand
			    field: (field_identifier) @function-name)
			  arguments: (arguments) @arguments)`,

		QueryEndpoints: `
			(attribute_item
			  (attribute
			    (identifier) @endpoint-verb
			    arguments: (token_tree (string_literal) @endpoint))) @endpoint-decorator`,

		QueryVariables: `
			(let_declaration
			  pattern: (identifier) @variable-name
			  type: (_)? @variable-type) @variable-declaration`,

		QueryIdentifiers: `
			(identifier) @function-name`,
	},
}

func init() { Register("rust", rustPack) }
