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

// Package engine is the façade gluing every other package into the four
// operations the enclosing service calls (spec §6): build_graph,
// build_graphs, update_incremental, clear. It owns the per-engine-instance
// state (the live Graph, the commit tracker, the progress channel) rather
// than relying on any process-wide singleton, per spec §9's "Global
// registries" re-architecture note.
//
// Grounded on pkg/ingestion/local_pipeline.go's LocalPipeline — the
// teacher's own single orchestration type wiring loader, parser, embedder
// and backend together behind a handful of entry points — generalized here
// from one CozoDB-backed pipeline to the graph-agnostic walker ->
// parsercore -> assembler -> resolver -> linker chain, and from
// LocalPipeline's single-repo Run to BuildGraph/BuildGraphs/
// UpdateIncremental/Clear. The join barrier BuildGraph performs between
// "collect every file's call-sites" and "resolve them once" is the
// concrete implementation of spec §5's "join barrier between collect
// definitions and resolve calls", which pkg/assembler's AssembleFile
// deliberately leaves undone so it can live here instead.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/kraklabs/cgraph/pkg/assembler"
	"github.com/kraklabs/cgraph/pkg/graph"
	"github.com/kraklabs/cgraph/pkg/incremental"
	"github.com/kraklabs/cgraph/pkg/lang"
	"github.com/kraklabs/cgraph/pkg/linker"
	"github.com/kraklabs/cgraph/pkg/lsporacle"
	"github.com/kraklabs/cgraph/pkg/parsercore"
	"github.com/kraklabs/cgraph/pkg/progress"
	"github.com/kraklabs/cgraph/pkg/querypack"
	"github.com/kraklabs/cgraph/pkg/resolver"
	"github.com/kraklabs/cgraph/pkg/walker"
)

// Config mirrors the spec §6 environment-variable table. Load it once per
// process with LoadConfigFromEnv; an Engine's behavior is otherwise pure
// with respect to its explicit call arguments.
type Config struct {
	// SkipPostClone disables a language's post-clone preparation before
	// its LSP Oracle starts (LSP_SKIP_POST_CLONE).
	SkipPostClone bool
	// SkipCalls skips step 11 and the resolve join barrier entirely, for
	// fast debugging builds (DEV_SKIP_CALLS).
	SkipCalls bool
	// SkipFileContent elides NodeData.Body after assembly to shrink the
	// graph (DEV_SKIP_FILE_CONTENT).
	SkipFileContent bool
	// ForceLSP overrides every language's LSP.OnByDefault when non-nil
	// (USE_LSP).
	ForceLSP *bool
	// OutputFormat is "jsonl" or "pretty" (OUTPUT_FORMAT); the engine
	// itself never emits, this is only carried for callers in pkg/emit.
	OutputFormat string
	// StreamUpload requests flushing to an external store at stage
	// boundaries (STREAM_UPLOAD); the engine has no store of its own, so
	// this is only surfaced on Config for a caller wiring one in.
	StreamUpload bool
	// ExcludeGlobs restricts every build against this Config from a
	// project's .cgraph/project.yaml; BuildGraph passes them to the Walker
	// as walker.Options.ExcludeGlobs.
	ExcludeGlobs []string
}

// LoadConfigFromEnv reads the spec §6 environment table, the way
// internal/contract/validation.go reads CIE_SOFT_LIMIT_BYTES: os.Getenv
// directly. Environment variables always win over whatever a config file
// already set, so this is also how LoadConfig layers env on top of
// .cgraph/project.yaml.
func LoadConfigFromEnv() Config {
	return applyEnvOverrides(Config{})
}

func applyEnvOverrides(base Config) Config {
	cfg := base
	if os.Getenv("LSP_SKIP_POST_CLONE") != "" {
		cfg.SkipPostClone = true
	}
	if os.Getenv("DEV_SKIP_CALLS") != "" {
		cfg.SkipCalls = true
	}
	if os.Getenv("DEV_SKIP_FILE_CONTENT") != "" {
		cfg.SkipFileContent = true
	}
	if v := os.Getenv("OUTPUT_FORMAT"); v != "" {
		cfg.OutputFormat = v
	}
	if os.Getenv("STREAM_UPLOAD") != "" {
		cfg.StreamUpload = true
	}
	if v := strings.TrimSpace(os.Getenv("USE_LSP")); v != "" {
		b := v == "1" || strings.EqualFold(v, "true")
		cfg.ForceLSP = &b
	}
	if cfg.OutputFormat == "" {
		cfg.OutputFormat = "jsonl"
	}
	return cfg
}

// RepoSpec names one repository to fold into a graph.
type RepoSpec struct {
	// RepoRoot is the local filesystem path the Walker reads from.
	RepoRoot string
	// RepoURL is the Repository node's identity and the CommitTracker key.
	// Defaults to RepoRoot when empty.
	RepoURL string
	// Language restricts this build to one language, per the spec's
	// single-language build_graph contract. Library/manifest nodes for
	// that language's package file are included automatically.
	Language lang.Tag
	// UseLSP overrides the language's LSP.OnByDefault for this build when
	// non-nil; Config.ForceLSP, if set, overrides this in turn.
	UseLSP *bool
	// FileFilter restricts extraction to files matching any of these
	// substrings/globs (spec §4.1 extra_filter).
	FileFilter []string
	// Revs restricts extraction to files changed between two commits
	// (spec §4.1 revision filter). Mutually usable alongside a full build.
	Revs *walker.RevRange
	// Commit, if set, is recorded against RepoURL in the CommitTracker on
	// success so a later UpdateIncremental call has a base to diff from.
	Commit string
}

func (r RepoSpec) repoKey() string {
	if r.RepoURL != "" {
		return r.RepoURL
	}
	return r.RepoRoot
}

// Engine owns one live Graph plus the collaborators every operation
// shares. Create with New; safe for concurrent BuildGraph/BuildGraphs
// calls against independent repos, serialized by the underlying Graph
// implementation's own single-writer contract (spec §5).
type Engine struct {
	mu      sync.Mutex
	g       graph.Graph
	tracker incremental.CommitTracker
	config  Config
	logger  *slog.Logger
}

// New builds an Engine writing into g (e.g. graph.NewArrayGraph()) and
// persisting commit pointers via tracker. A nil logger falls back to
// slog.Default().
func New(g graph.Graph, tracker incremental.CommitTracker, config Config, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{g: g, tracker: tracker, config: config, logger: logger}
}

// Graph returns the engine's live graph, e.g. for emission.
func (e *Engine) Graph() graph.Graph { return e.g }

func (e *Engine) resolveUseLSP(spec lang.Spec, requested *bool) bool {
	if e.config.ForceLSP != nil {
		return *e.config.ForceLSP
	}
	if requested != nil {
		return *requested
	}
	return spec.LSP.OnByDefault
}

func (e *Engine) newOracle(ctx context.Context, spec lang.Spec, useLSP bool) resolver.Oracle {
	if !useLSP || spec.LSP.Executable == "" {
		return nil
	}
	cmd := append([]string{spec.LSP.Executable}, spec.LSP.Args...)
	backend := lsporacle.NewProcessBackend(lsporacle.Config{Command: cmd, SkipPostClone: e.config.SkipPostClone}, e.logger)
	oracle := lsporacle.New(backend, lsporacle.Config{Command: cmd, SkipPostClone: e.config.SkipPostClone}, e.logger)
	if err := oracle.Initialize(ctx); err != nil {
		e.logger.Warn("engine.lsp_oracle.unavailable", "language", spec.Tag, "error", err)
		oracle.Shutdown(ctx)
		return nil
	}
	return oracle
}

// BuildGraph implements spec §6's build_graph: walk repo, parse every
// discovered file with the matching Query Pack, run the Graph Assembler's
// per-file steps 1-10, apply the global class and filter post-passes
// (§4.7 closing paragraph), and finally cross the join barrier (§5) to
// resolve every collected call-site in one pass. The built subgraph is merged into
// the engine's live graph by node identity and also returned directly.
func (e *Engine) BuildGraph(ctx context.Context, spec RepoSpec, ch *progress.Channel) (graph.Graph, error) {
	runID := uuid.NewString()
	logger := e.logger.With("run_id", runID, "repo", spec.repoKey())
	logger.Info("engine.build_graph.start", "language", spec.Language)

	langSpec, ok := lang.Lookup(spec.Language)
	if !ok {
		return nil, fmt.Errorf("engine: unknown language %q", spec.Language)
	}
	pack := querypack.Get(string(spec.Language))
	if pack == nil {
		return nil, fmt.Errorf("engine: no query pack registered for %q", spec.Language)
	}

	if ch != nil {
		ch.StatusUpdate(progress.Walk, "walking "+spec.RepoRoot)
	}
	files, err := walker.New(logger).Walk(spec.RepoRoot, langSpec, walker.Options{
		ExtraFilters: spec.FileFilter,
		ExcludeGlobs: e.config.ExcludeGlobs,
		Revs:         spec.Revs,
	})
	if err != nil {
		return nil, fmt.Errorf("engine: walk: %w", err)
	}

	useLSP := e.resolveUseLSP(langSpec, spec.UseLSP)
	oracle := e.newOracle(ctx, langSpec, useLSP)
	if oracle != nil {
		defer shutdownOracle(ctx, oracle)
	}

	var scratch graph.Graph = graph.NewArrayGraph()
	a := assembler.New(scratch, logger)
	core := parsercore.New(pack, logger)

	var manifests, sources []walker.File
	for _, f := range files {
		if f.IsPackageManifest {
			manifests = append(manifests, f)
		} else {
			sources = append(sources, f)
		}
	}
	for _, f := range manifests {
		if ch != nil {
			ch.StatusUpdate(progress.Libraries, f.RelPath)
		}
		in := assembler.FileInput{RepoRoot: spec.repoKey(), Lang: spec.Language, RelPath: f.RelPath, Source: f.Bytes, IsManifest: true}
		if err := a.AssembleManifest(in); err != nil {
			logger.Warn("engine.assemble_manifest.error", "file", f.RelPath, "error", err)
		}
	}

	parsed := parseFilesConcurrently(ctx, pack, logger, sources)

	var sites []resolver.CallSite
	total := len(sources)
	for i, f := range sources {
		in := assembler.FileInput{RepoRoot: spec.repoKey(), Lang: spec.Language, RelPath: f.RelPath, Source: f.Bytes}
		if parsed[i].err != nil {
			logger.Warn("engine.parse.error", "file", f.RelPath, "error", parsed[i].err)
			continue
		}
		pf := parsed[i].pf
		s, err := a.AssembleFile(ctx, in, core, pf)
		pf.Close()
		if err != nil {
			logger.Warn("engine.assemble.error", "file", f.RelPath, "error", err)
			continue
		}
		sites = append(sites, s...)

		if ch != nil && total > 0 {
			ch.Percent((i + 1) * 100 / total)
		}
	}

	assembler.ClassInherits(scratch)
	assembler.ClassIncludes(scratch)
	assembler.FilterOutNodesWithoutChildren(scratch, graph.Class, graph.Function, graph.Operand)

	if !e.config.SkipCalls {
		if ch != nil {
			ch.StatusUpdate(progress.Calls, "resolving call sites")
			ch.StatusUpdate(progress.Resolve, fmt.Sprintf("%d call sites", len(sites)))
		}
		if err := assembler.ApplyCalls(ctx, scratch, oracle, sites); err != nil {
			return nil, fmt.Errorf("engine: resolve calls: %w", err)
		}
	}

	if e.config.SkipFileContent {
		scratch = stripBodies(scratch)
	}

	e.mu.Lock()
	e.g.Extend(scratch)
	e.mu.Unlock()

	if spec.Commit != "" && e.tracker != nil {
		e.tracker.SetCommit(spec.repoKey(), spec.Commit)
	}

	if ch != nil {
		ch.StatusUpdate(progress.Finalize, "build complete")
	}
	logger.Info("engine.build_graph.done", "nodes", scratch.NodeCount(), "edges", scratch.EdgeCount())
	return scratch, nil
}

// parseWorkers bounds how many files are parsed concurrently per build.
const parseWorkers = 4

type parseOutcome struct {
	pf  *parsercore.ParsedFile
	err error
}

// parseFilesConcurrently turns source bytes into syntax trees across a
// bounded worker pool, one dedicated parsercore.Core (and so one
// dedicated tree-sitter parser) per in-flight file, since a single
// *sitter.Parser cannot serve two Parse calls at once. Query execution
// against the resulting trees (parsercore.Core.Run) touches only the
// immutable Pack and tree, not the parser, so AssembleFile still runs
// every tree through the caller's single long-lived Core sequentially
// afterward. Grounded on SPEC_FULL.md's domain-stack note pairing
// golang.org/x/sync/errgroup with this worker-pool shape; results are
// returned in input order so the caller's existing percent-complete
// bookkeeping is untouched.
func parseFilesConcurrently(ctx context.Context, pack *querypack.Pack, logger *slog.Logger, files []walker.File) []parseOutcome {
	out := make([]parseOutcome, len(files))
	if len(files) == 0 {
		return out
	}

	limit := parseWorkers
	if limit > len(files) {
		limit = len(files)
	}
	cores := make(chan *parsercore.Core, limit)
	for i := 0; i < limit; i++ {
		cores <- parsercore.New(pack, logger)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			c := <-cores
			defer func() { cores <- c }()
			pf, err := c.Parse(gctx, f.RelPath, f.Bytes)
			out[i] = parseOutcome{pf: pf, err: err}
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// BuildGraphs implements spec §6's build_graphs: build every repo's
// subgraph independently (each gets its own join barrier), merge them all
// into the engine's live graph, then run the Cross-Repo Linker once across
// the union so frontend Request nodes in one repo can bind to Endpoint
// nodes defined in another (spec §4.8).
func (e *Engine) BuildGraphs(ctx context.Context, specs []RepoSpec, ch *progress.Channel) (graph.Graph, error) {
	for _, spec := range specs {
		if _, err := e.BuildGraph(ctx, spec, ch); err != nil {
			return nil, fmt.Errorf("engine: build %s: %w", spec.repoKey(), err)
		}
	}

	if ch != nil {
		ch.StatusUpdate(progress.Link, "linking cross-repo requests")
	}
	e.mu.Lock()
	n := linker.New(e.g, e.logger).LinkAll()
	e.mu.Unlock()
	e.logger.Info("engine.build_graphs.linked", "edges", n)

	if ch != nil {
		ch.StatusUpdate(progress.Finalize, "multi-repo build complete")
	}
	return e.g, nil
}

// UpdateIncremental implements spec §6's update_incremental, delegating to
// pkg/incremental.Updater for the full §4.9 five-step contract, then
// re-running the Cross-Repo Linker since the changed files may have
// introduced or removed Request/Endpoint pairs spanning repos.
//
// primaryLanguage picks which language's LSP server backs the single
// Oracle passed to the Updater: incremental.Updater re-detects each
// changed file's own language from its extension for parsing and
// assembly, but it accepts one Oracle for the whole update (mirroring
// pkg/resolver.Resolver's single-Oracle-per-build shape), so a
// multi-language commit range gets LSP tiebreaking for its dominant
// language only.
func (e *Engine) UpdateIncremental(ctx context.Context, repoRoot, repoURL, newCommit string, primaryLanguage lang.Tag, useLSP *bool) (nodeCount, edgeCount int, err error) {
	runID := uuid.NewString()
	logger := e.logger.With("run_id", runID, "repo", repoURL)
	logger.Info("engine.update_incremental.start", "commit", newCommit)

	langSpec, ok := lang.Lookup(primaryLanguage)
	if !ok {
		return 0, 0, fmt.Errorf("engine: unknown language %q", primaryLanguage)
	}
	var oracle resolver.Oracle
	if e.resolveUseLSP(langSpec, useLSP) {
		oracle = e.newOracle(ctx, langSpec, true)
		if oracle != nil {
			defer shutdownOracle(ctx, oracle)
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	u := incremental.New(e.g, e.tracker, oracle, logger)
	if err := u.Update(ctx, repoRoot, repoURL, newCommit); err != nil {
		return 0, 0, err
	}
	linker.New(e.g, logger).LinkAll()
	nodeCount, edgeCount = e.g.NodeCount(), e.g.EdgeCount()
	logger.Info("engine.update_incremental.done", "nodes", nodeCount, "edges", edgeCount)
	return nodeCount, edgeCount, nil
}

// Clear implements spec §6's clear: remove every node whose Repository
// ancestor matches repoURL, cascading to all incident edges via
// graph.Graph.RemoveNode.
func (e *Engine) Clear(repoURL string) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	var toRemove []string
	for _, n := range e.g.Nodes() {
		if n.Kind == graph.Repository && n.Data.Name == repoURL {
			toRemove = append(toRemove, descendantKeys(e.g, n.Key())...)
			toRemove = append(toRemove, n.Key())
		}
	}
	for _, key := range toRemove {
		e.g.RemoveNode(key)
	}
	return len(toRemove)
}

// descendantKeys walks Contains edges breadth-first from root, collecting
// every reachable node's key. Collected before any RemoveNode call since
// removing a node also removes the very Contains edges this walk follows.
func descendantKeys(g graph.Graph, root string) []string {
	var out []string
	queue := []string{root}
	seen := map[string]bool{root: true}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, e := range g.EdgesFrom(cur) {
			if e.Kind != graph.Contains || seen[e.Target] {
				continue
			}
			seen[e.Target] = true
			out = append(out, e.Target)
			queue = append(queue, e.Target)
		}
	}
	return out
}

// stripBodies implements DEV_SKIP_FILE_CONTENT by rebuilding g into a
// fresh graph with every node's Body cleared. It cannot mutate bodies
// in place through the Graph contract: AddNode's merge semantics only
// ever overwrite a body with a non-empty one (spec §3 "later writes
// merge... body"), so an empty Body passed to AddNode is a no-op rather
// than a clear. Node keys are a function of (kind, name, file, start,
// verb), none of which Body affects, so every edge still binds to the
// same keys in the rebuilt graph.
func stripBodies(g graph.Graph) graph.Graph {
	out := graph.NewArrayGraph()
	for _, n := range g.Nodes() {
		n.Data.Body = ""
		out.AddNode(n)
	}
	for _, e := range g.Edges() {
		out.AddEdge(e)
	}
	return out
}

func shutdownOracle(ctx context.Context, oracle resolver.Oracle) {
	if o, ok := oracle.(*lsporacle.Oracle); ok {
		o.Shutdown(ctx)
	}
}
