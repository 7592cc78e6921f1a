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

// Package parsercore runs a Query Pack's queries against a file's syntax
// tree and projects the captures into typed Match records (spec §4.4).
//
// Grounded on pkg/ingestion/parser_go.go's two-pass walk (collect
// definitions, then extract calls from each body) and its HasError/
// countErrors tolerant-parse handling, re-expressed as a query-driven
// visitor per the Query Pack contract rather than a per-language
// node.Type() switch.
package parsercore

import (
	"context"
	"fmt"
	"log/slog"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/kraklabs/cgraph/pkg/querypack"
)

// LoopMode selects how a query's matches are projected into captures.
type LoopMode int

const (
	// FirstNodePerCapture keeps only the first node bound to each capture
	// name in a match — simple one-shot extraction (a function's name,
	// its single return type).
	FirstNodePerCapture LoopMode = iota
	// AllNodesPerCapture keeps every node bound to a capture name across
	// the match — patterns whose captures naturally repeat, such as an
	// endpoint group's nested resource list.
	AllNodesPerCapture
)

// Capture is one named, positioned syntax-tree node bound by a query.
type Capture struct {
	Name      string
	Node      *sitter.Node
	Text      string
	StartByte uint32
	EndByte   uint32
	StartLine int
	EndLine   int
}

// Match is one query match, with its captures keyed by capture name.
// Under FirstNodePerCapture each slice has at most one element; under
// AllNodesPerCapture a repeated capture accumulates every occurrence.
type Match struct {
	Captures map[string][]Capture
}

// First returns the first capture bound to name, or zero value + false.
func (m Match) First(name string) (Capture, bool) {
	cs := m.Captures[name]
	if len(cs) == 0 {
		return Capture{}, false
	}
	return cs[0], true
}

// Text returns the first capture's text for name, or "".
func (m Match) Text(name string) string {
	c, ok := m.First(name)
	if !ok {
		return ""
	}
	return c.Text
}

// ParsedFile is a file's syntax tree plus the source bytes it spans,
// produced once per language grammar and reused across every query in
// that language's Pack.
type ParsedFile struct {
	Path    string
	Source  []byte
	Tree    *sitter.Tree
	Root    *sitter.Node
	Errors  int
	HasLang bool
}

// Close releases the underlying tree-sitter tree.
func (pf *ParsedFile) Close() {
	if pf.Tree != nil {
		pf.Tree.Close()
	}
}

// Core drives one language's Pack against parsed files. Each goroutine
// dispatched by the caller's worker pool should own its own Core (and
// thus its own sitter.Parser instance) to avoid contention, per spec §5
// ("each thread owns its own parser").
type Core struct {
	pack   *querypack.Pack
	parser *sitter.Parser
	logger *slog.Logger
}

// New builds a Core bound to pack, allocating a dedicated sitter.Parser.
func New(pack *querypack.Pack, logger *slog.Logger) *Core {
	if logger == nil {
		logger = slog.Default()
	}
	p := sitter.NewParser()
	p.SetLanguage(pack.Language)
	return &Core{pack: pack, parser: p, logger: logger}
}

// Pack returns the Query Pack this Core drives.
func (c *Core) Pack() *querypack.Pack { return c.pack }

// Parse produces a ParsedFile for source at path, tolerating syntax
// errors the way tree-sitter's incremental parser is designed to:
// parsing continues past ERROR nodes and downstream queries simply see
// fewer or malformed captures in the damaged region (spec §4.4).
func (c *Core) Parse(ctx context.Context, path string, source []byte) (*ParsedFile, error) {
	tree, err := c.parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("parsercore: parse %s: %w", path, err)
	}
	root := tree.RootNode()
	errCount := 0
	if root.HasError() {
		errCount = countErrors(root)
		c.logger.Warn("parsercore.syntax_errors", "path", path, "error_count", errCount)
	}
	return &ParsedFile{Path: path, Source: source, Tree: tree, Root: root, Errors: errCount}, nil
}

// countErrors walks the tree counting ERROR nodes (MISSING nodes are not
// counted), grounded on the
// teacher's parser_go.go call site (`countErrors(rootNode)`) though the
// teacher's own implementation wasn't present in the retrieved pack; this
// is the conventional tree-sitter idiom for the same diagnostic.
func countErrors(n *sitter.Node) int {
	if n == nil {
		return 0
	}
	count := 0
	if n.Type() == "ERROR" {
		count++
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		count += countErrors(n.Child(i))
	}
	return count
}

// Run executes the named query from the Core's Pack against pf, in mode,
// and returns one Match per query match. A missing query name yields a
// nil slice rather than an error (spec §9: "missing queries = no
// entities of that kind").
func (c *Core) Run(ctx context.Context, pf *ParsedFile, queryName string, mode LoopMode) ([]Match, error) {
	return c.RunWithin(ctx, pf, queryName, pf.Root, mode)
}

func captureFrom(name string, node *sitter.Node, source []byte) Capture {
	text := querypack.NodeText(node, source)
	return Capture{
		Name:      name,
		Node:      node,
		Text:      text,
		StartByte: node.StartByte(),
		EndByte:   node.EndByte(),
		StartLine: int(node.StartPoint().Row),
		EndLine:   int(node.EndPoint().Row),
	}
}

// RunIdentifiers executes the secondary single-capture identifier query
// (QueryIdentifiers) against only the subtree rooted at node, rather than
// the whole file — used to pull identifiers out of a single top-level
// match's span (spec §4.4 "secondary single-capture query against the
// top match's subtree").
func (c *Core) RunIdentifiers(ctx context.Context, pf *ParsedFile, node *sitter.Node) ([]Capture, error) {
	matches, err := c.RunWithin(ctx, pf, querypack.QueryIdentifiers, node, AllNodesPerCapture)
	if err != nil {
		return nil, err
	}
	var out []Capture
	for _, m := range matches {
		for _, cs := range m.Captures {
			out = append(out, cs...)
		}
	}
	return out, nil
}

// RunWithin executes the named query rooted at node rather than the whole
// file's root node — used both by RunIdentifiers and by the Graph
// Assembler's per-function call extraction (spec §4.7 step 11: "run the
// call query per function body").
func (c *Core) RunWithin(ctx context.Context, pf *ParsedFile, queryName string, node *sitter.Node, mode LoopMode) ([]Match, error) {
	src := c.pack.Query(queryName)
	if src == "" || node == nil {
		return nil, nil
	}
	q, err := sitter.NewQuery([]byte(src), c.pack.Language)
	if err != nil {
		return nil, fmt.Errorf("parsercore: compile query: %w", err)
	}
	defer q.Close()

	cursor := sitter.NewQueryCursor()
	defer cursor.Close()
	cursor.Exec(q, node)

	var matches []Match
	for {
		m, ok := cursor.NextMatch()
		if !ok {
			break
		}
		match := Match{Captures: make(map[string][]Capture)}
		for _, qc := range m.Captures {
			name := q.CaptureNameForId(qc.Index)
			cap := captureFrom(name, qc.Node, pf.Source)
			if mode == FirstNodePerCapture {
				if _, exists := match.Captures[name]; exists {
					continue
				}
			}
			match.Captures[name] = append(match.Captures[name], cap)
		}
		matches = append(matches, match)
	}
	return matches, nil
}

// StripLiteral is re-exported for assembler convenience; captured string
// literals must be stripped of surrounding quote/colon markers before
// becoming a node's Name/path (spec §4.4).
func StripLiteral(s string) string { return querypack.StripLiteral(s) }
