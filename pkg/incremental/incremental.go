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

// Package incremental re-runs the Graph Assembler, Resolver and Linker
// over only the files a commit range actually touched, rather than
// rebuilding a repository's whole graph from scratch (spec §4.9).
//
// Grounded on pkg/ingestion/delta.go's commit-range diffing (the same
// `git diff --name-only` idiom pkg/walker/walker.go already wraps for its
// revision filter) and pkg/ingestion/local_pipeline.go's stage ordering,
// re-targeted at the subset of files named by the diff.
package incremental

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/kraklabs/cgraph/pkg/assembler"
	"github.com/kraklabs/cgraph/pkg/graph"
	"github.com/kraklabs/cgraph/pkg/lang"
	"github.com/kraklabs/cgraph/pkg/parsercore"
	"github.com/kraklabs/cgraph/pkg/querypack"
	"github.com/kraklabs/cgraph/pkg/resolver"
	"github.com/kraklabs/cgraph/pkg/walker"
)

// CommitTracker persists the commit hash a repository's graph was last
// built at, so Update knows the base of the diff and can record the new
// pointer once the update commits (spec §4.9 step 5).
type CommitTracker interface {
	CommitFor(repoURL string) (string, bool)
	SetCommit(repoURL, commit string)
}

// Updater drives an incremental rebuild against one persistent Graph.
type Updater struct {
	g       graph.Graph
	tracker CommitTracker
	oracle  resolver.Oracle
	walker  *walker.Walker
	logger  *slog.Logger
}

// New builds an Updater writing into g. oracle may be nil, in which case
// the Resolver's LSP tiebreaker tier is simply never available.
func New(g graph.Graph, tracker CommitTracker, oracle resolver.Oracle, logger *slog.Logger) *Updater {
	if logger == nil {
		logger = slog.Default()
	}
	return &Updater{g: g, tracker: tracker, oracle: oracle, walker: walker.New(logger), logger: logger}
}

// Update implements spec §4.9 for one repository: compute the changed-file
// set between the tracker's recorded commit and newCommit, remove the
// nodes those files previously produced, reassemble the changed files (plus
// any unaffected file whose function lost a callee to a deletion), resolve
// the reassembled call-sites, and advance the tracked commit. Update does
// not run the Cross-Repo Linker; engine.UpdateIncremental runs it
// afterward.
//
// File discovery, parsing and assembly all run before any node is removed
// from g, so a failure up to that point aborts with g untouched. Once
// removal begins the remaining steps are expected to succeed — an
// in-memory Graph has no transaction log to roll back into, the same
// limitation any of this module's backends not wrapping step 3 onward in
// a real transaction would have.
func (u *Updater) Update(ctx context.Context, repoRoot, repoURL, newCommit string) error {
	oldCommit, ok := u.tracker.CommitFor(repoURL)
	if !ok {
		return fmt.Errorf("incremental: no tracked commit for %s; use a full build instead", repoURL)
	}

	changed, err := gitChangedFiles(repoRoot, oldCommit, newCommit)
	if err != nil {
		return fmt.Errorf("incremental: diff %s..%s: %w", oldCommit, newCommit, err)
	}
	if len(changed) == 0 {
		u.tracker.SetCommit(repoURL, newCommit)
		return nil
	}

	plan, err := u.plan(ctx, repoRoot, changed)
	if err != nil {
		return fmt.Errorf("incremental: plan: %w", err)
	}
	if len(plan.orphanedCallerFiles) > 0 {
		u.logger.Info("incremental.orphaned_callers", "files", len(plan.orphanedCallerFiles))
	}

	scratch := graph.NewArrayGraph()
	scratchAssembler := assembler.New(scratch, u.logger)
	var sites []resolver.CallSite
	for _, in := range plan.inputs {
		s, err := scratchAssembler.AssembleFile(ctx, in.FileInput, in.core, in.pf)
		if err != nil {
			return fmt.Errorf("incremental: assemble %s: %w", in.FileInput.RelPath, err)
		}
		sites = append(sites, s...)
	}

	// Orphaned-caller files are unmodified: only their stale call-sites get
	// re-derived via plan.inputs above, their existing nodes are kept.
	for relPath := range changed {
		u.removeFile(relPath)
	}
	u.g.Extend(scratch)

	if err := assembler.ApplyCalls(ctx, u.g, u.oracle, sites); err != nil {
		return fmt.Errorf("incremental: resolve calls: %w", err)
	}

	u.tracker.SetCommit(repoURL, newCommit)
	return nil
}

// removeFile deletes every node this build previously attributed to
// relPath. RemoveNode cascades to incident edges, so a deleted Function's
// outgoing Calls and incoming Handler edges disappear with it.
func (u *Updater) removeFile(relPath string) {
	for _, n := range u.g.Nodes() {
		if n.Data.File == relPath {
			u.g.RemoveNode(n.Key())
		}
	}
}

type plannedInput struct {
	assembler.FileInput
	core *parsercore.Core
	pf   *parsercore.ParsedFile
}

type updatePlan struct {
	inputs              []plannedInput
	orphanedCallerFiles map[string]bool
}

// plan walks every changed-and-still-present file, parses it with the
// matching language's Query Pack, and also pulls in any file that holds a
// function whose call target is about to be deleted — that function's
// call-sites must be re-extracted so the Resolver gets a chance to rebind
// them to whatever replaces the deleted definition.
func (u *Updater) plan(ctx context.Context, repoRoot string, changed map[string]bool) (*updatePlan, error) {
	orphaned := make(map[string]bool)
	for relPath := range changed {
		for _, n := range u.g.Nodes() {
			if n.Data.File != relPath {
				continue
			}
			for _, e := range u.g.EdgesTo(n.Key()) {
				if e.Kind != graph.Calls {
					continue
				}
				if caller, ok := u.g.FindByKey(e.Source); ok && caller.Data.File != relPath {
					orphaned[caller.Data.File] = true
				}
			}
		}
	}

	toAssemble := make(map[string]bool, len(changed)+len(orphaned))
	for f := range changed {
		toAssemble[f] = true
	}
	for f := range orphaned {
		toAssemble[f] = true
	}

	plan := &updatePlan{orphanedCallerFiles: orphaned}
	cores := make(map[lang.Tag]*parsercore.Core)

	for _, spec := range lang.All() {
		pack := querypack.Get(string(spec.Tag))
		if pack == nil {
			continue
		}
		files, err := u.walker.Walk(repoRoot, spec, walker.Options{})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", spec.Tag, err)
		}
		for _, f := range files {
			if !toAssemble[f.RelPath] {
				continue
			}
			core, ok := cores[spec.Tag]
			if !ok {
				core = parsercore.New(pack, u.logger)
				cores[spec.Tag] = core
			}
			pf, err := core.Parse(ctx, f.RelPath, f.Bytes)
			if err != nil {
				return nil, err
			}
			plan.inputs = append(plan.inputs, plannedInput{
				FileInput: assembler.FileInput{
					RepoRoot:   repoRoot,
					Lang:       spec.Tag,
					RelPath:    f.RelPath,
					Source:     f.Bytes,
					IsManifest: f.IsPackageManifest,
				},
				core: core,
				pf:   pf,
			})
		}
	}
	return plan, nil
}

// gitChangedFiles mirrors pkg/walker/walker.go's unexported changedFiles
// helper; duplicated rather than exported across a package boundary for a
// single `git diff` invocation used by exactly these two callers.
func gitChangedFiles(repoPath, base, head string) (map[string]bool, error) {
	cmd := exec.Command("git", "-C", repoPath, "diff", "--name-only", base+".."+head)
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("git diff %s..%s: %w", base, head, err)
	}
	result := make(map[string]bool)
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			result[line] = true
		}
	}
	return result, nil
}
