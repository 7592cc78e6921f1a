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

// Package querypack holds, per language, the tree-sitter S-expression
// queries and semantic hooks the Parser Core drives (spec §4.3).
//
// Grounded on viant-linager's inspector/golang/inspector_tree_sitter.go use
// of sitter.NewQuery + sitter.NewQueryCursor + named captures, which is the
// idiom generalized here into a per-language table of query strings plus a
// SemanticHooks implementation for everything a query alone can't express
// (endpoint verb inference, handler resolution, router-file detection).
package querypack

import sitter "github.com/smacker/go-tree-sitter"

// Well-known capture names a query may bind. Not every language query uses
// every capture; the Parser Core iterates whichever captures a given query
// actually produced.
const (
	CaptureFunctionName         = "function-name"
	CaptureArguments            = "arguments"
	CaptureClassName            = "class-name"
	CaptureOperand              = "operand"
	CaptureEndpoint             = "endpoint"
	CaptureEndpointVerb         = "endpoint-verb"
	CaptureHandler              = "handler"
	CaptureRequestCall          = "request-call"
	CaptureRoute                = "route"
	CaptureStruct               = "struct"
	CaptureStructName           = "struct-name"
	CaptureLibrary              = "library"
	CaptureImports              = "imports"
	CaptureImportsFrom          = "imports-from"
	CaptureImportsName          = "imports-name"
	CapturePage                 = "page"
	CapturePagePaths            = "page-paths"
	CapturePageComponent        = "page-component"
	CaptureVariableDeclaration  = "variable-declaration"
	CaptureVariableName         = "variable-name"
	CaptureVariableType         = "variable-type"
	CaptureParentType           = "parent-type"
	CaptureReturnTypes          = "return-types"
)

// QueryNames are well-known query slots a Pack may fill in. A language that
// has no construct for a slot simply omits it — the Parser Core treats a
// missing query as "no entities of that kind" (spec §9), never an error.
const (
	QueryLibraries      = "libraries"
	QueryImports        = "imports"
	QueryClasses        = "classes"
	QueryTraits         = "traits"
	QueryInstances      = "instances"
	QueryFunctions      = "functions"
	QueryFunctionCalls  = "function-calls"
	QueryTests          = "tests"
	QueryEndpoints      = "endpoints"
	QueryEndpointGroups = "endpoint-groups"
	QueryRequests       = "requests"
	QueryDataModels     = "data-models"
	QueryPages          = "pages"
	QueryVariables      = "variables"
	QueryIdentifiers    = "identifiers"
	QueryDataModelUse   = "data-model-use" // data_model_within_query
)

// Pack bundles one language's queries and semantic hooks.
type Pack struct {
	Language *sitter.Language
	Queries  map[string]string
	Hooks    SemanticHooks
}

// Query returns the source for a named query slot, or "" if the language
// has no such construct.
func (p *Pack) Query(name string) string {
	return p.Queries[name]
}

// PageCandidate is one route-table entry discovered by a Pack's
// ExtraPageFinder hook (spec §4.3 page_query + extra_page_finder).
type PageCandidate struct {
	RoutePath      string
	ComponentName  string
	ComponentStart int
	ComponentEnd   int
}

// SemanticHooks is the non-query-expressible part of a Query Pack (spec
// §4.3). BaseHooks supplies conservative defaults; per-language packs
// embed it and override only what their language needs.
type SemanticHooks interface {
	IsLibFile(path string) bool
	IsComponent(name string) bool
	IsTest(name, file string) bool
	IsTestFile(name string) bool
	IsRouterFile(path string, code []byte) bool

	// FindFunctionParent walks up the syntax tree from a function node to
	// find its enclosing class/trait, returning the owner's name.
	FindFunctionParent(node *sitter.Node, code []byte) (operand string, ok bool)
	FindTraitOperand(node *sitter.Node, code []byte) (operand string, ok bool)

	// AddEndpointVerb derives an HTTP method from an annotation name or a
	// router call-chain method (e.g. ".post(...)" -> POST), defaulting to
	// GET when neither is present.
	AddEndpointVerb(annotationOrCallMethod string) string
	// UpdateEndpointVerb overrides a previously-set verb when a more
	// specific signal is found later in the same pass (e.g. a class-level
	// @RequestMapping with no method is later narrowed by a method-level
	// @GetMapping).
	UpdateEndpointVerb(existing, candidate string) string

	// HandlerFinder resolves the function name implementing an endpoint,
	// given the endpoint's own capture node and any nearby callback
	// parameter names already captured by the endpoint query (e.g. Rails
	// resources/member/collection expansion, Spring class-prefix joins).
	HandlerFinder(node *sitter.Node, code []byte, endpointPath string, params []string) (handler string, ok bool)

	// EndpointPathFilter restricts endpoint extraction to files under a
	// known route directory. Returning true means "eligible"; languages
	// with no such restriction always return true.
	EndpointPathFilter(path string) bool

	ResolveImportName(raw string) string
	ResolveImportPath(raw string) string

	// E2ETestIDFinderString returns the regex used to pull data-testid
	// style identifiers out of frontend test code, or "" if unsupported.
	E2ETestIDFinderString() string
}
