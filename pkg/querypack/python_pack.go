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
	"github.com/smacker/go-tree-sitter/python"
)

type pythonHooks struct{ BaseHooks }

func (pythonHooks) IsRouterFile(path string, code []byte) bool {
	s := string(code)
	return strings.Contains(s, "Flask(") || strings.Contains(s, "FastAPI(") ||
		strings.Contains(s, "APIRouter(") || strings.Contains(s, "Blueprint(")
}

func (pythonHooks) IsTest(name, file string) bool {
	lower := strings.ToLower(name)
	return strings.HasPrefix(lower, "test_") || strings.Contains(strings.ToLower(file), "test_")
}

func (pythonHooks) FindFunctionParent(node *sitter.Node, code []byte) (string, bool) {
	cur := node
	for cur != nil {
		cur = cur.Parent()
		if cur == nil {
			return "", false
		}
		if cur.Type() == "class_definition" {
			nameNode := cur.ChildByFieldName("name")
			if nameNode != nil {
				return NodeText(nameNode, code), true
			}
		}
	}
	return "", false
}

func (h pythonHooks) AddEndpointVerb(decorator string) string {
	d := strings.ToLower(decorator)
	switch {
	case strings.Contains(d, "post"):
		return "POST"
	case strings.Contains(d, "put"):
		return "PUT"
	case strings.Contains(d, "patch"):
		return "PATCH"
	case strings.Contains(d, "delete"):
		return "DELETE"
	case strings.Contains(d, "route") && strings.Contains(d, "methods"):
		return "" // caller inspects the methods=[...] argument itself
	default:
		return "GET"
	}
}

// pythonPack implements Python's slice of the Query Pack, covering Flask
// and FastAPI decorator-style routing (spec seed scenario 1).
var pythonPack = &Pack{
	Language: python.GetLanguage(),
	Hooks:    pythonHooks{},
	Queries: map[string]string{
		QueryImports: `
			(import_statement
			  name: (dotted_name) @imports-from) @imports
			(import_from_statement
			  module_name: (dotted_name) @imports-from
			  name: (dotted_name) @imports-name) @imports`,

		QueryClasses: `
			(class_definition
			  name: (identifier) @class-name
			  superclasses: (argument_list)? @parent-type
			  body: (block) @struct)`,

		QueryFunctions: `
			(function_definition
			  name: (identifier) @function-name
			  parameters: (parameters) @arguments
			  return_type: (_)? @return-types) @function`,

		QueryFunctionCalls: `
			(call
			  function: (identifier) @function-name
			  arguments: (argument_list) @arguments)
			(call
			  function: (attribute
			    object: (identifier) @operand
			    attribute: (identifier) @function-name)
			  arguments: (argument_list) @arguments)`,

		QueryEndpoints: `
			(decorated_definition
			  (decorator
			    (call
			      function: (attribute
			        object: (identifier) @operand
			        attribute: (identifier) @endpoint-verb)
			      arguments: (argument_list
			        . (string) @endpoint))) @decorator
			  definition: (function_definition
			    name: (identifier) @handler)) @endpoint-call`,

		QueryDataModels: `
			(class_definition
			  name: (identifier) @class-name
			  superclasses: (argument_list
			    (identifier) @parent-type)) @struct`,

		QueryVariables: `
			(assignment
			  left: (identifier) @variable-name
			  type: (type)? @variable-type) @variable-declaration`,

		QueryIdentifiers: `
			(identifier) @function-name`,
	},
}

func init() { Register("python", pythonPack) }
