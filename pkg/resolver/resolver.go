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

// Package resolver binds call-site references discovered by the Graph
// Assembler to the Function (or test) node they actually call (spec
// §4.6), using a three-tier heuristic stack (unique global, same-file,
// same-directory) with an optional LSP tiebreaker ahead of it.
//
// Grounded on pkg/ingestion/resolver.go's CallResolver: its sequential/
// parallel split on call-set size, its dedup-by-edge-key "seen" map, and
// its worker-pool idiom are preserved; its Go-import-path bookkeeping is
// dropped because this resolver works over the already-typed Graph
// contract instead of raw Go import strings, and must generalize across
// every supported language rather than just Go.
package resolver

import (
	"context"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/kraklabs/cgraph/pkg/graph"
	"github.com/kraklabs/cgraph/pkg/lsporacle"
)

// parallelThreshold matches the teacher's resolveCallsSequential/Parallel
// split: below it, goroutine overhead isn't worth paying.
const parallelThreshold = 1000

// Oracle is the subset of *lsporacle.Oracle the resolver needs, so tests
// can substitute a fake without starting a real worker goroutine.
type Oracle interface {
	GotoDefinition(ctx context.Context, file string, line, column int) (lsporacle.Location, bool)
}

// CallSite is one unresolved call-site produced by the function-call query
// inside a function body (spec §4.6).
type CallSite struct {
	CallerKey      string // canonical key of the enclosing Function/Test node
	CallerName     string
	CallerFile     string
	CallSiteName   string
	CallSiteLine   int
	CallSiteColumn int
}

// Resolver binds CallSites to Calls edges against a Graph.
type Resolver struct {
	g      graph.Graph
	oracle Oracle
}

// New builds a Resolver over g. oracle may be nil, in which case tier 1
// (LSP tiebreaker) is always skipped and the resolver relies purely on
// the heuristic stack (spec §4.5 "it is optional").
func New(g graph.Graph, oracle Oracle) *Resolver {
	return &Resolver{g: g, oracle: oracle}
}

// InferCallerKind decides which of the three test partitions a test
// function living in file belongs to, from its file path (spec
// §4.6: "inferred from the caller's file path"). Used by the Graph
// Assembler at node-creation time, not by the resolver's own binding
// logic, but lives here since it is part of the same binding contract.
func InferCallerKind(file string) graph.NodeKind {
	lower := strings.ToLower(file)
	switch {
	case strings.Contains(lower, "e2e"):
		return graph.E2eTest
	case strings.Contains(lower, "integration"):
		return graph.IntegrationTest
	default:
		return graph.UnitTest
	}
}

// ResolveAll resolves every site and emits Calls edges into the graph,
// deduplicated by (caller,callee) pair. Mirrors the teacher's
// sequential/parallel split on input size.
func (r *Resolver) ResolveAll(ctx context.Context, sites []CallSite) {
	if len(sites) < parallelThreshold {
		r.resolveSequential(ctx, sites)
		return
	}
	r.resolveParallel(ctx, sites)
}

func (r *Resolver) resolveSequential(ctx context.Context, sites []CallSite) {
	seen := make(map[string]bool)
	for _, site := range sites {
		r.resolveOne(ctx, site, seen)
	}
}

func (r *Resolver) resolveParallel(ctx context.Context, sites []CallSite) {
	workers := runtime.NumCPU()
	if workers > 8 {
		workers = 8
	}

	type resolved struct{ caller, callee string }
	jobs := make(chan CallSite, len(sites))
	results := make(chan resolved, len(sites))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for site := range jobs {
				if callee, ok := r.resolveCallee(ctx, site); ok {
					results <- resolved{caller: site.CallerKey, callee: callee}
				}
			}
		}()
	}
	for _, s := range sites {
		jobs <- s
	}
	close(jobs)
	go func() {
		wg.Wait()
		close(results)
	}()

	seen := make(map[string]bool)
	for res := range results {
		key := res.caller + "->" + res.callee
		if seen[key] {
			continue
		}
		seen[key] = true
		r.g.AddEdge(graph.Edge{Kind: graph.Calls, Source: res.caller, Target: res.callee})
	}
}

func (r *Resolver) resolveOne(ctx context.Context, site CallSite, seen map[string]bool) {
	callee, ok := r.resolveCallee(ctx, site)
	if !ok {
		return
	}
	key := site.CallerKey + "->" + callee
	if seen[key] {
		return
	}
	seen[key] = true
	r.g.AddEdge(graph.Edge{Kind: graph.Calls, Source: site.CallerKey, Target: callee})
}

// resolveCallee runs the three-tier heuristic stack (plus the LSP
// tiebreaker ahead of it) and returns the callee's canonical key.
func (r *Resolver) resolveCallee(ctx context.Context, site CallSite) (string, bool) {
	if key, ok := r.tierLSP(ctx, site); ok {
		return key, true
	}
	if key, ok := r.tierUniqueGlobal(site); ok {
		return key, true
	}
	if key, ok := r.tierSameFile(site); ok {
		return key, true
	}
	if key, ok := r.tierSameDirectory(site); ok {
		return key, true
	}
	return "", false
}

func (r *Resolver) tierLSP(ctx context.Context, site CallSite) (string, bool) {
	if r.oracle == nil || site.CallSiteLine == 0 {
		return "", false
	}
	loc, found := r.oracle.GotoDefinition(ctx, site.CallerFile, site.CallSiteLine, site.CallSiteColumn)
	if !found {
		return "", false
	}
	candidates := r.g.FindAtLine(graph.Function, loc.File, loc.Line)
	if len(candidates) != 1 {
		return "", false
	}
	return candidates[0].Key(), true
}

func (r *Resolver) tierUniqueGlobal(site CallSite) (string, bool) {
	candidates := excludeKey(nonEmptyBody(r.g.FindByName(graph.Function, site.CallSiteName)), site.CallerKey)
	if len(candidates) == 1 {
		return candidates[0].Key(), true
	}
	if len(candidates) > 1 {
		filtered := excludeMock(candidates)
		if len(filtered) == 1 {
			return filtered[0].Key(), true
		}
	}
	return "", false
}

func (r *Resolver) tierSameFile(site CallSite) (string, bool) {
	exact := excludeKey(nonEmptyBody(r.g.FindByNameInFile(graph.Function, site.CallSiteName, site.CallerFile)), site.CallerKey)
	if len(exact) == 1 {
		return exact[0].Key(), true
	}
	if len(exact) > 1 {
		return "", false
	}
	// No exact-case match: check for a casing collision, which disqualifies
	// the tier entirely rather than guessing (spec §4.6 tier 3).
	allInFile := r.g.FindByType(graph.Function)
	for _, n := range allInFile {
		if n.Data.File != site.CallerFile {
			continue
		}
		if strings.EqualFold(n.Data.Name, site.CallSiteName) && n.Data.Name != site.CallSiteName {
			return "", false
		}
	}
	return "", false
}

func (r *Resolver) tierSameDirectory(site CallSite) (string, bool) {
	dir := filepath.Dir(site.CallerFile)
	candidates := excludeKey(excludeMock(r.g.FindByDir(graph.Function, site.CallSiteName, dir)), site.CallerKey)
	if len(candidates) == 1 {
		return candidates[0].Key(), true
	}
	return "", false
}

func nonEmptyBody(nodes []graph.Node) []graph.Node {
	out := make([]graph.Node, 0, len(nodes))
	for _, n := range nodes {
		if n.Data.Body != "" {
			out = append(out, n)
		}
	}
	return out
}

// excludeMock drops nodes whose file path contains a case-sensitive
// "mock" substring, per spec §4.6's mock-suppression rule.
func excludeMock(nodes []graph.Node) []graph.Node {
	out := make([]graph.Node, 0, len(nodes))
	for _, n := range nodes {
		if strings.Contains(n.Data.File, "mock") {
			continue
		}
		out = append(out, n)
	}
	return out
}

func excludeKey(nodes []graph.Node, key string) []graph.Node {
	out := make([]graph.Node, 0, len(nodes))
	for _, n := range nodes {
		if n.Key() == key {
			continue
		}
		out = append(out, n)
	}
	return out
}
