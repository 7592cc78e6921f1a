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
	"github.com/smacker/go-tree-sitter/ruby"
)

type rubyHooks struct{ BaseHooks }

func (rubyHooks) IsRouterFile(path string, code []byte) bool {
	s := string(code)
	return strings.Contains(s, "Rails.application.routes") || strings.Contains(s, "< ApplicationController") ||
		strings.Contains(s, "Sinatra::Base")
}

func (rubyHooks) IsTest(name, file string) bool {
	lower := strings.ToLower(file)
	return strings.HasSuffix(lower, "_spec.rb") || strings.HasSuffix(lower, "_test.rb")
}

func (rubyHooks) FindFunctionParent(node *sitter.Node, code []byte) (string, bool) {
	cur := node
	for cur != nil {
		cur = cur.Parent()
		if cur == nil {
			return "", false
		}
		if cur.Type() == "class" || cur.Type() == "module" {
			nameNode := cur.ChildByFieldName("name")
			if nameNode != nil {
				return NodeText(nameNode, code), true
			}
		}
	}
	return "", false
}

func (h rubyHooks) AddEndpointVerb(callMethod string) string {
	switch strings.ToLower(callMethod) {
	case "get", "post", "put", "patch", "delete":
		return strings.ToUpper(callMethod)
	default:
		return h.BaseHooks.AddEndpointVerb(callMethod)
	}
}

// rubyPack implements Ruby's slice of the Query Pack, covering Rails
// routes.rb verb DSL calls (get/post/put/patch/delete "path", to: "...")
// and ActiveRecord model classes (< ApplicationRecord) as data models.
var rubyPack = &Pack{
	Language: ruby.GetLanguage(),
	Hooks:    rubyHooks{},
	Queries: map[string]string{
		QueryImports: `
			(call
			  method: (identifier) @_require (#match? @_require "^require")
			  arguments: (argument_list (string (string_content) @imports-from)))`,

		QueryClasses: `
			(class
			  name: (constant) @class-name
			  superclass: (superclass (scope_resolution)? @parent-type (constant)? @parent-type)?
			  body: (body_statement)? @struct)`,

		QueryFunctions: `
			(method
			  name: (identifier) @function-name
			  parameters: (method_parameters)? @arguments) @function`,

		QueryFunctionCalls: `
			(call
			  method: (identifier) @function-name
			  arguments: (argument_list) @arguments)
			(call
			  receiver: (identifier) @operand
			  method: (identifier) @function-name
			  arguments: (argument_list) @arguments)`,

		QueryEndpoints: `
			(call
			  method: (identifier) @endpoint-verb
			  arguments: (argument_list
			    . (string (string_content) @endpoint)
			    . (pair value: (string (string_content) @handler))?)) @endpoint-call`,

		QueryVariables: `
			(assignment
			  left: (identifier) @variable-name) @variable-declaration`,

		QueryIdentifiers: `
			(identifier) @function-name`,
	},
}

func init() { Register("ruby", rubyPack) }
