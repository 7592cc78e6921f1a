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
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/cpp"
)

type cppHooks struct{ BaseHooks }

// FindFunctionParent walks up to the enclosing class/struct for
// qualified_identifier method definitions (Foo::bar style) as well as
// in-class field_declaration method bodies.
func (cppHooks) FindFunctionParent(node *sitter.Node, code []byte) (string, bool) {
	cur := node
	for cur != nil {
		cur = cur.Parent()
		if cur == nil {
			return "", false
		}
		if cur.Type() == "class_specifier" || cur.Type() == "struct_specifier" {
			nameNode := cur.ChildByFieldName("name")
			if nameNode != nil {
				return NodeText(nameNode, code), true
			}
		}
	}
	return "", false
}

// cppPack implements C++'s slice of the Query Pack. C++ has no routing or
// ORM conventions in this ecosystem, so endpoint/data-model queries are
// intentionally absent here — per spec §9, a language without those
// queries simply contributes no Endpoint/Request/DataModel nodes, which is
// the expected shape for a systems-language source tree.
var cppPack = &Pack{
	Language: cpp.GetLanguage(),
	Hooks:    cppHooks{},
	Queries: map[string]string{
		QueryImports: `
			(preproc_include
			  path: (_) @imports-from) @imports`,

		QueryClasses: `
			(class_specifier
			  name: (type_identifier) @class-name
			  (base_class_clause (type_identifier) @parent-type)?
			  body: (field_declaration_list)? @struct)
			(struct_specifier
			  name: (type_identifier) @class-name
			  body: (field_declaration_list)? @struct)`,

		QueryFunctions: `
			(function_definition
			  declarator: (function_declarator
			    declarator: (_) @function-name
			    parameters: (parameter_list) @arguments)) @function`,

		QueryFunctionCalls: `
			(call_expression
			  function: (identifier) @function-name
			  arguments: (argument_list) @arguments)
			(call_expression
			  function: (field_expression
			    argument: (identifier) @operand
			    field: (field_identifier) @function-name)
			  arguments: (argument_list) @arguments)`,

		QueryVariables: `
			(declaration
			  declarator: (identifier) @variable-name
			  type: (_)? @variable-type) @variable-declaration`,

		QueryIdentifiers: `
			(identifier) @function-name`,
	},
}

func init() { Register("cpp", cppPack) }
