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
	"regexp"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

type tsHooks struct{ BaseHooks }

func (tsHooks) IsRouterFile(path string, code []byte) bool {
	s := string(code)
	return strings.Contains(s, "express()") || strings.Contains(s, "Router()") ||
		strings.Contains(s, "@Controller")
}

func (tsHooks) FindFunctionParent(node *sitter.Node, code []byte) (string, bool) {
	cur := node
	for cur != nil {
		cur = cur.Parent()
		if cur == nil {
			return "", false
		}
		if cur.Type() == "class_declaration" {
			nameNode := cur.ChildByFieldName("name")
			if nameNode != nil {
				return NodeText(nameNode, code), true
			}
		}
	}
	return "", false
}

func (h tsHooks) AddEndpointVerb(callMethod string) string {
	switch strings.ToLower(callMethod) {
	case "get", "post", "put", "patch", "delete", "head", "options":
		return strings.ToUpper(callMethod)
	default:
		return h.BaseHooks.AddEndpointVerb(callMethod)
	}
}

func (tsHooks) E2ETestIDFinderString() string {
	return `data-testid=["']([^"']+)["']`
}

var requestBodyVerbHint = regexp.MustCompile(`(?i)method\s*:\s*["'](get|post|put|patch|delete)["']`)

// InferRequestVerbFromBody inspects a generic fetch(...) call body for a
// method: "POST" style hint, per spec §4.7 step 9 ("or inferred from body
// keywords when the call is generic fetch").
func InferRequestVerbFromBody(body string) string {
	if m := requestBodyVerbHint.FindStringSubmatch(body); len(m) == 2 {
		return strings.ToUpper(m[1])
	}
	return "GET"
}

// tsPack implements TypeScript/TSX's slice of the Query Pack. TSX shares
// the same query set as plain TypeScript (the grammars are compatible for
// the constructs queried here) but is parsed with the tsx grammar so JSX
// syntax doesn't error the tree, per lang.TSX being distinguished from
// lang.TypeScript in the Language Registry.
var tsPack = &Pack{
	Language: typescript.GetLanguage(),
	Hooks:    tsHooks{},
	Queries: map[string]string{
		QueryImports: `
			(import_statement
			  source: (string) @imports-from
			  (import_clause
			    (identifier)? @imports-name
			    (named_imports (import_specifier name: (identifier) @imports-name))?))`,

		QueryClasses: `
			(class_declaration
			  name: (type_identifier) @class-name
			  (class_heritage
			    (extends_clause value: (identifier) @parent-type))?) @struct`,

		QueryFunctions: `
			(function_declaration
			  name: (identifier) @function-name
			  parameters: (formal_parameters) @arguments
			  return_type: (_)? @return-types) @function
			(method_definition
			  name: (property_identifier) @function-name
			  parameters: (formal_parameters) @arguments) @function
			(arrow_function
			  parameters: (_) @arguments) @function`,

		QueryFunctionCalls: `
			(call_expression
			  function: (identifier) @function-name
			  arguments: (arguments) @arguments)
			(call_expression
			  function: (member_expression
			    object: (identifier) @operand
			    property: (property_identifier) @function-name)
			  arguments: (arguments) @arguments)`,

		QueryEndpoints: `
			(call_expression
			  function: (member_expression
			    object: (identifier) @operand
			    property: (property_identifier) @endpoint-verb)
			  arguments: (arguments
			    . (string) @endpoint
			    . (_) @handler)) @endpoint-call`,

		QueryRequests: `
			(call_expression
			  function: (identifier) @request-call
			  arguments: (arguments . (string) @endpoint)) @request
			(call_expression
			  function: (member_expression
			    object: (identifier) @operand
			    property: (property_identifier) @request-call)
			  arguments: (arguments . (string) @endpoint)) @request`,

		QueryPages: `
			(jsx_element
			  open_tag: (jsx_opening_element
			    name: (identifier) @page-component
			    attribute: (jsx_attribute
			      (property_identifier) @_attr
			      (string) @page-paths)))`,

		QueryVariables: `
			(variable_declarator
			  name: (identifier) @variable-name
			  type: (type_annotation)? @variable-type) @variable-declaration`,

		QueryIdentifiers: `
			(identifier) @function-name`,
	},
}

// tsxPack is tsPack's queries parsed with the TSX grammar instead.
var tsxPack = &Pack{
	Language: tsx.GetLanguage(),
	Hooks:    tsHooks{},
	Queries:  tsPack.Queries,
}

func init() {
	Register("typescript", tsPack)
	Register("tsx", tsxPack)
}
