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
	"github.com/smacker/go-tree-sitter/swift"
)

type swiftHooks struct{ BaseHooks }

// FindFunctionParent walks up to the nearest enclosing class_declaration,
// mirroring original_source/ast/src/lang/queries/swift.rs's parent-walk
// loop (that version re-runs a class-name query against the ancestor; here
// the ancestor's own type_identifier child is read directly).
func (swiftHooks) FindFunctionParent(node *sitter.Node, code []byte) (string, bool) {
	cur := node
	for cur != nil {
		cur = cur.Parent()
		if cur == nil {
			return "", false
		}
		if cur.Type() == "class_declaration" {
			name := cur.ChildByFieldName("name")
			if name != nil {
				return NodeText(name, code), true
			}
		}
	}
	return "", false
}

func (swiftHooks) IsTest(name, file string) bool {
	return strings.HasPrefix(name, "test") || BaseHooks{}.IsTest(name, file)
}

// AddEndpointVerb inspects the surrounding request body text for the
// method:/bodyParams: keyword shapes the original's add_endpoint_verb
// keys off, since Swift's createRequest call carries the verb as a
// keyword argument rather than a distinct call-chain method name.
func (swiftHooks) AddEndpointVerb(body string) string {
	switch {
	case strings.Contains(body, `method: "POST"`):
		return "POST"
	case strings.Contains(body, `method: "PUT"`):
		return "PUT"
	case strings.Contains(body, `method: "DELETE"`):
		return "DELETE"
	default:
		return "GET"
	}
}

// swiftPack implements Swift's slice of the Query Pack, grounded on
// original_source/ast/src/lang/queries/swift.rs: import_declaration
// imports, class_declaration classes/data models, a createRequest-named
// call as the request finder, and the same class-declaration parent walk
// used for function-to-class Operand edges.
var swiftPack = &Pack{
	Language: swift.GetLanguage(),
	Hooks:    swiftHooks{},
	Queries: map[string]string{
		QueryImports: `
			(import_declaration
			  (identifier) @imports-from @imports-name) @imports`,

		QueryClasses: `
			(class_declaration
			  name: (type_identifier) @class-name) @struct`,

		QueryFunctions: `
			(function_declaration
			  name: (simple_identifier) @function-name
			  parameters: (parameter) @arguments) @function`,

		QueryFunctionCalls: `
			(call_expression
			  (simple_identifier) @function-name)`,

		QueryDataModels: `
			(class_declaration
			  name: (type_identifier) @class-name) @struct`,

		QueryDataModelUse: `
			(simple_identifier) @variable-type`,

		QueryRequests: `
			(call_expression
			  (simple_identifier) @request-call (#match? @request-call "^createRequest$")) @route`,

		QueryIdentifiers: `
			(simple_identifier) @function-name`,
	},
}

func init() { Register("swift", swiftPack) }
