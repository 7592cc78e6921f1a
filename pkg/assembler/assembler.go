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

// Package assembler runs the strict per-file pipeline that turns one
// parsed file's query captures into graph nodes and edges (spec §4.7),
// plus the global post-passes that run once every file has been
// assembled.
//
// Grounded on pkg/ingestion/local_pipeline.go's LocalPipeline.Run staged
// orchestration (discovery -> parse -> extract -> embed -> store, with an
// IngestionResult accumulator), re-staged here to the spec's eleven
// per-file passes plus four global rewrites, operating against the
// storage-agnostic graph.Graph contract instead of the teacher's CozoDB
// EmbeddedBackend.
package assembler

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/kraklabs/cgraph/pkg/graph"
	"github.com/kraklabs/cgraph/pkg/lang"
	"github.com/kraklabs/cgraph/pkg/parsercore"
	"github.com/kraklabs/cgraph/pkg/querypack"
	"github.com/kraklabs/cgraph/pkg/resolver"
)

const (
	captureFunctionNode      = "function"
	captureStructNode        = "struct"
	captureEndpointCall      = "endpoint-call"
	captureEndpointDecorator = "endpoint-decorator"
)

// FileInput is everything the assembler needs to run the per-file
// pipeline over one file.
type FileInput struct {
	RepoRoot   string // Repository node's display name (URL or local path)
	Lang       lang.Tag
	RelPath    string
	Source     []byte
	IsManifest bool
}

// Assembler runs the per-file pipeline against one Graph.
type Assembler struct {
	g      graph.Graph
	logger *slog.Logger
}

// New builds an Assembler writing into g.
func New(g graph.Graph, logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{g: g, logger: logger}
}

// fileContext threads the keys every per-file step needs.
type fileContext struct {
	repoKey string
	fileKey string
	relPath string
	langTag lang.Tag
}

// ensureAncestry emits the Repository/Directory/File/Language nodes and
// their Contains chain (spec §4.7 step 1). Identity-based dedup means
// calling this once per file in a repo is safe: the Repository and any
// shared Directory ancestors collapse to the same nodes.
func (a *Assembler) ensureAncestry(in FileInput) fileContext {
	repoKey := a.g.AddNode(graph.Node{Kind: graph.Repository, Data: graph.NodeData{Name: in.RepoRoot, File: in.RepoRoot}})

	dir := path.Dir(in.RelPath)
	parentKey := repoKey
	if dir != "." && dir != "/" {
		parts := strings.Split(dir, "/")
		acc := ""
		for _, p := range parts {
			if p == "" {
				continue
			}
			acc = path.Join(acc, p)
			dirKey := a.g.AddNodeWithParent(graph.Node{Kind: graph.Directory, Data: graph.NodeData{Name: p, File: acc}}, parentKey)
			parentKey = dirKey
		}
	}

	fileKey := a.g.AddNodeWithParent(graph.Node{Kind: graph.File, Data: graph.NodeData{Name: path.Base(in.RelPath), File: in.RelPath}}, parentKey)

	langKey := a.g.AddNode(graph.Node{Kind: graph.Language, Data: graph.NodeData{Name: string(in.langTagOrDefault()), File: in.RepoRoot}})
	a.g.AddEdge(graph.Edge{Kind: graph.Contains, Source: fileKey, Target: langKey})

	return fileContext{repoKey: repoKey, fileKey: fileKey, relPath: in.RelPath, langTag: in.Lang}
}

func (in FileInput) langTagOrDefault() lang.Tag {
	if in.Lang == "" {
		return "unknown"
	}
	return in.Lang
}

// AssembleManifest implements spec §4.7 step 3 for a package-manifest
// file: parse it once, emit one Library node per dependency.
func (a *Assembler) AssembleManifest(in FileInput) error {
	fc := a.ensureAncestry(in)
	for _, ref := range ParseManifest(in.Lang, in.Source) {
		meta := graph.NewMeta()
		if ref.Version != "" {
			meta.Set("version", ref.Version)
		}
		a.g.AddNodeWithParent(graph.Node{Kind: graph.Library, Data: graph.NodeData{Name: ref.Name, File: fc.relPath, Meta: meta}}, fc.fileKey)
	}
	return nil
}

// AssembleFile runs steps 1-10 (everything except function-call
// resolution, which requires a join barrier over the whole graph per
// spec §5) and returns the pending call-sites for step 11.
func (a *Assembler) AssembleFile(ctx context.Context, in FileInput, core *parsercore.Core, pf *parsercore.ParsedFile) ([]resolver.CallSite, error) {
	if in.IsManifest {
		return nil, a.AssembleManifest(in)
	}

	fc := a.ensureAncestry(in)
	pack := core.Pack()
	hooks := pack.Hooks

	a.assembleImports(ctx, core, pf, fc)
	a.assembleVariables(ctx, core, pf, fc)
	a.assembleClasses(ctx, core, pf, fc)
	a.assembleInstances(ctx, core, pf, fc)
	a.assembleDataModels(ctx, core, pf, fc)
	groupPrefixes := a.assembleEndpointGroups(ctx, core, pf, hooks)
	funcMatches, err := core.Run(ctx, pf, querypack.QueryFunctions, parsercore.FirstNodePerCapture)
	if err != nil {
		return nil, fmt.Errorf("assembler: functions query: %w", err)
	}
	funcKeys := a.assembleFunctions(ctx, core, pf, fc, hooks, funcMatches)
	a.assembleEndpoints(ctx, core, pf, fc, hooks, groupPrefixes)
	a.assembleRequests(ctx, core, pf, fc, hooks)
	a.assemblePages(ctx, core, pf, fc)

	return a.collectCallSites(ctx, core, pf, fc, funcKeys)
}

func (a *Assembler) assembleImports(ctx context.Context, core *parsercore.Core, pf *parsercore.ParsedFile, fc fileContext) {
	matches, err := core.Run(ctx, pf, querypack.QueryImports, parsercore.AllNodesPerCapture)
	if err != nil || len(matches) == 0 {
		return
	}
	var spans []string
	minLine, maxLine := -1, -1
	for _, m := range matches {
		for _, c := range m.Captures[querypack.CaptureImportsFrom] {
			spans = append(spans, parsercore.StripLiteral(c.Text))
			if minLine == -1 || c.StartLine < minLine {
				minLine = c.StartLine
			}
			if c.EndLine > maxLine {
				maxLine = c.EndLine
			}
		}
	}
	if len(spans) == 0 {
		return
	}
	if minLine < 0 {
		minLine = 0
	}
	a.g.AddNodeWithParent(graph.Node{Kind: graph.Import, Data: graph.NodeData{
		Name:  "imports",
		File:  fc.relPath,
		Body:  strings.Join(spans, "\n\n"),
		Start: minLine,
		End:   maxLine,
	}}, fc.fileKey)
}

// assembleVariables emits one Var node per declaration captured by the
// query pack's variable-declaration/variable-name/variable-type query
// (spec §4.3), rounding out the closed node-kind set (spec §3) alongside
// Import: file-scoped, no attempt to attach to an enclosing Function,
// since a declaration's lexical scope isn't something the query alone
// can resolve across every target language.
func (a *Assembler) assembleVariables(ctx context.Context, core *parsercore.Core, pf *parsercore.ParsedFile, fc fileContext) {
	matches, err := core.Run(ctx, pf, querypack.QueryVariables, parsercore.FirstNodePerCapture)
	if err != nil || len(matches) == 0 {
		return
	}
	for _, m := range matches {
		name := m.Text(querypack.CaptureVariableName)
		if name == "" {
			continue
		}
		dataType := m.Text(querypack.CaptureVariableType)
		start := 0
		if decl, ok := m.First(querypack.CaptureVariableDeclaration); ok {
			start = decl.StartLine
		}
		a.g.AddNodeWithParent(graph.Node{Kind: graph.Var, Data: graph.NodeData{
			Name:     name,
			File:     fc.relPath,
			DataType: dataType,
			Start:    start,
		}}, fc.fileKey)
	}
}

func (a *Assembler) assembleClasses(ctx context.Context, core *parsercore.Core, pf *parsercore.ParsedFile, fc fileContext) {
	matches, err := core.Run(ctx, pf, querypack.QueryClasses, parsercore.FirstNodePerCapture)
	if err != nil {
		return
	}
	for _, m := range matches {
		name := m.Text(querypack.CaptureClassName)
		if name == "" {
			continue
		}
		node, _ := m.First(captureStructNode)
		meta := graph.NewMeta()
		if parent := m.Text(querypack.CaptureParentType); parent != "" {
			meta.Set("parent", parent)
		}
		start := node.StartLine
		a.g.AddNodeWithParent(graph.Node{Kind: graph.Class, Data: graph.NodeData{Name: name, File: fc.relPath, Start: start, Meta: meta}}, fc.fileKey)
	}
}

func (a *Assembler) assembleInstances(ctx context.Context, core *parsercore.Core, pf *parsercore.ParsedFile, fc fileContext) {
	matches, err := core.Run(ctx, pf, querypack.QueryInstances, parsercore.FirstNodePerCapture)
	if err != nil || len(matches) == 0 {
		return
	}
	for _, m := range matches {
		name := m.Text(querypack.CaptureVariableName)
		dataType := m.Text(querypack.CaptureVariableType)
		if name == "" {
			continue
		}
		node := graph.Node{Kind: graph.Instance, Data: graph.NodeData{Name: name, File: fc.relPath, DataType: dataType}}
		key := a.g.AddNodeWithParent(node, fc.fileKey)
		if dataType != "" {
			if classes := a.g.FindByNameInFile(graph.Class, dataType, fc.relPath); len(classes) == 1 {
				a.g.AddEdge(graph.Edge{Kind: graph.Of, Source: key, Target: classes[0].Key()})
			}
		}
	}
}

func (a *Assembler) assembleDataModels(ctx context.Context, core *parsercore.Core, pf *parsercore.ParsedFile, fc fileContext) {
	matches, err := core.Run(ctx, pf, querypack.QueryDataModels, parsercore.FirstNodePerCapture)
	if err != nil {
		return
	}
	for _, m := range matches {
		name := m.Text(querypack.CaptureClassName)
		if name == "" {
			continue
		}
		meta := graph.NewMeta()
		if parent := m.Text(querypack.CaptureParentType); parent != "" {
			meta.Set("parent", parent)
		}
		a.g.AddNodeWithParent(graph.Node{Kind: graph.DataModel, Data: graph.NodeData{Name: name, File: fc.relPath, Meta: meta}}, fc.fileKey)
	}
}

// assembleEndpointGroups runs before the endpoints pass so a class-level
// route prefix can compose into each method's final endpoint name (spec
// §4.7 step 8: "endpoint_group_find first").
func (a *Assembler) assembleEndpointGroups(ctx context.Context, core *parsercore.Core, pf *parsercore.ParsedFile, hooks querypack.SemanticHooks) map[string]string {
	matches, err := core.Run(ctx, pf, querypack.QueryEndpointGroups, parsercore.FirstNodePerCapture)
	if err != nil || len(matches) == 0 {
		return nil
	}
	groups := make(map[string]string)
	for _, m := range matches {
		operand := m.Text(querypack.CaptureOperand)
		group := parsercore.StripLiteral(m.Text(querypack.CaptureRoute))
		if group == "" {
			group = parsercore.StripLiteral(m.Text("group"))
		}
		if operand == "" {
			continue
		}
		groups[operand] = group
	}
	return groups
}

func (a *Assembler) assembleFunctions(ctx context.Context, core *parsercore.Core, pf *parsercore.ParsedFile, fc fileContext, hooks querypack.SemanticHooks, matches []parsercore.Match) map[string]*sitter.Node {
	funcNodes := make(map[string]*sitter.Node)
	for _, m := range matches {
		name := m.Text(querypack.CaptureFunctionName)
		if name == "" {
			continue
		}
		whole, hasWhole := m.First(captureFunctionNode)
		start := 0
		if hasWhole {
			start = whole.StartLine
		}

		kind := graph.Function
		if hooks.IsTest(name, fc.relPath) {
			kind = resolver.InferCallerKind(fc.relPath)
		}

		node := graph.Node{Kind: kind, Data: graph.NodeData{Name: name, File: fc.relPath, Start: start, Body: name}}
		key := a.g.AddNodeWithParent(node, fc.fileKey)

		if hasWhole {
			funcNodes[key] = whole.Node
			if operand, ok := hooks.FindFunctionParent(whole.Node, pf.Source); ok {
				if classes := a.g.FindByNameInFile(graph.Class, operand, fc.relPath); len(classes) == 1 {
					a.g.AddEdge(graph.Edge{Kind: graph.Operand, Source: key, Target: classes[0].Key()})
				}
			} else if trait, ok := hooks.FindTraitOperand(whole.Node, pf.Source); ok {
				if traits := a.g.FindByNameInFile(graph.Trait, trait, fc.relPath); len(traits) == 1 {
					a.g.AddEdge(graph.Edge{Kind: graph.Operand, Source: key, Target: traits[0].Key()})
				}
			}

			a.assembleDataModelUsage(ctx, core, pf, fc, key, whole.Node)
		}
	}
	return funcNodes
}

// assembleDataModelUsage implements the data_model_within_query half of
// spec §4.7 step 7: scan a function body's type references and emit
// Contains to each DataModel node they name.
func (a *Assembler) assembleDataModelUsage(ctx context.Context, core *parsercore.Core, pf *parsercore.ParsedFile, fc fileContext, functionKey string, body *sitter.Node) {
	matches, err := core.RunWithin(ctx, pf, querypack.QueryDataModelUse, body, parsercore.AllNodesPerCapture)
	if err != nil {
		return
	}
	seen := make(map[string]bool)
	for _, m := range matches {
		for _, c := range m.Captures[querypack.CaptureVariableType] {
			name := c.Text
			if name == "" || seen[name] {
				continue
			}
			seen[name] = true
			if models := a.g.FindByNameInFile(graph.DataModel, name, fc.relPath); len(models) == 1 {
				a.g.AddEdge(graph.Edge{Kind: graph.Contains, Source: functionKey, Target: models[0].Key()})
			}
		}
	}
}

func (a *Assembler) assembleEndpoints(ctx context.Context, core *parsercore.Core, pf *parsercore.ParsedFile, fc fileContext, hooks querypack.SemanticHooks, groups map[string]string) {
	if !hooks.EndpointPathFilter(fc.relPath) {
		return
	}
	matches, err := core.Run(ctx, pf, querypack.QueryEndpoints, parsercore.FirstNodePerCapture)
	if err != nil {
		return
	}
	existingVerb := make(map[string]string)
	for _, m := range matches {
		rawVerb := m.Text(querypack.CaptureEndpointVerb)
		verb := hooks.AddEndpointVerb(rawVerb)
		rawPath := parsercore.StripLiteral(m.Text(querypack.CaptureEndpoint))
		handler := m.Text(querypack.CaptureHandler)

		group := ""
		if whole, ok := m.First(captureEndpointCall); ok {
			if operand, ok := hooks.FindFunctionParent(whole.Node, pf.Source); ok {
				group = groups[operand]
			}
		} else if whole, ok := m.First(captureEndpointDecorator); ok {
			if operand, ok := hooks.FindFunctionParent(whole.Node, pf.Source); ok {
				group = groups[operand]
			}
		}

		fullPath := canonicalEndpointPath(group, rawPath)
		existingVerb[fullPath] = hooks.UpdateEndpointVerb(existingVerb[fullPath], verb)

		meta := graph.NewMeta()
		meta.Set("verb", existingVerb[fullPath])
		if group != "" {
			meta.Set("group", group)
		}
		if handler != "" {
			meta.Set("handler", handler)
		}

		endpointKey := a.g.AddNodeWithParent(graph.Node{Kind: graph.Endpoint, Data: graph.NodeData{Name: fullPath, File: fc.relPath, Meta: meta}}, fc.fileKey)

		if handler != "" {
			if fns := a.g.FindByNameInFile(graph.Function, handler, fc.relPath); len(fns) == 1 {
				a.g.AddEdge(graph.Edge{Kind: graph.Handler, Source: endpointKey, Target: fns[0].Key()})
			}
		}
	}
}

func (a *Assembler) assembleRequests(ctx context.Context, core *parsercore.Core, pf *parsercore.ParsedFile, fc fileContext, hooks querypack.SemanticHooks) {
	matches, err := core.Run(ctx, pf, querypack.QueryRequests, parsercore.FirstNodePerCapture)
	if err != nil {
		return
	}
	for _, m := range matches {
		rawCall := m.Text(querypack.CaptureRequestCall)
		verb := hooks.AddEndpointVerb(rawCall)
		rawPath := parsercore.StripLiteral(m.Text(querypack.CaptureEndpoint))
		if rawPath == "" {
			continue
		}
		meta := graph.NewMeta()
		meta.Set("verb", verb)
		a.g.AddNodeWithParent(graph.Node{Kind: graph.Request, Data: graph.NodeData{Name: canonicalEndpointPath("", rawPath), File: fc.relPath, Meta: meta}}, fc.fileKey)
	}
}

func (a *Assembler) assemblePages(ctx context.Context, core *parsercore.Core, pf *parsercore.ParsedFile, fc fileContext) {
	matches, err := core.Run(ctx, pf, querypack.QueryPages, parsercore.FirstNodePerCapture)
	if err != nil {
		return
	}
	for _, m := range matches {
		component := m.Text(querypack.CapturePageComponent)
		routePath := parsercore.StripLiteral(m.Text(querypack.CapturePagePaths))
		if routePath == "" {
			continue
		}
		pageKey := a.g.AddNodeWithParent(graph.Node{Kind: graph.Page, Data: graph.NodeData{Name: routePath, File: fc.relPath}}, fc.fileKey)
		if component == "" {
			continue
		}
		if fns := a.g.FindByNameInFile(graph.Function, component, fc.relPath); len(fns) == 1 {
			a.g.AddEdge(graph.Edge{Kind: graph.Renders, Source: pageKey, Target: fns[0].Key()})
		} else if classes := a.g.FindByNameInFile(graph.Class, component, fc.relPath); len(classes) == 1 {
			a.g.AddEdge(graph.Edge{Kind: graph.Renders, Source: pageKey, Target: classes[0].Key()})
		}
	}
}

// collectCallSites implements spec §4.7 step 11's first half: running the
// call query per function body. The Resolver binds each one once every
// file in the graph has been assembled (the join barrier from spec §5).
func (a *Assembler) collectCallSites(ctx context.Context, core *parsercore.Core, pf *parsercore.ParsedFile, fc fileContext, funcNodes map[string]*sitter.Node) ([]resolver.CallSite, error) {
	var sites []resolver.CallSite
	for callerKey, body := range funcNodes {
		matches, err := core.RunWithin(ctx, pf, querypack.QueryFunctionCalls, body, parsercore.AllNodesPerCapture)
		if err != nil {
			return nil, fmt.Errorf("assembler: function-calls query: %w", err)
		}
		for _, m := range matches {
			name := m.Text(querypack.CaptureFunctionName)
			if name == "" {
				continue
			}
			line := 0
			if c, ok := m.First(querypack.CaptureFunctionName); ok {
				line = c.StartLine + 1
			}
			sites = append(sites, resolver.CallSite{
				CallerKey:    callerKey,
				CallerFile:   fc.relPath,
				CallSiteName: name,
				CallSiteLine: line,
			})
		}
	}
	return sites, nil
}
