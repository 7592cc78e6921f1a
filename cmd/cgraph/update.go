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

package main

import (
	"context"
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/cgraph/internal/errors"
	"github.com/kraklabs/cgraph/internal/output"
	"github.com/kraklabs/cgraph/internal/ui"
	"github.com/kraklabs/cgraph/pkg/engine"
	"github.com/kraklabs/cgraph/pkg/lang"
)

// runUpdate executes 'cgraph update <repo-root> <repo-url> <new-commit>',
// delegating the whole five-step contract to engine.UpdateIncremental.
// Grounded on cmd/cie/index.go's incremental-mode branch, which re-parses a
// commit range rather than the whole tree.
func runUpdate(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("update", flag.ExitOnError)
	langFlag := fs.String("lang", "", "Primary language for LSP tiebreaking during this update (required)")
	watch := fs.Bool("watch", false, "After this update, keep watching repo-root and re-update on every file change")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: cgraph update <repo-root> <repo-url> <new-commit> --lang <tag>

Diffs new-commit against the commit recorded for repo-url, re-parses and
re-resolves only the changed files, then re-links cross-repo requests.

With --watch, stays running afterward and repeats the update against the
repo's current HEAD every time a file under repo-root changes.

Options:
`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() != 3 {
		errors.FatalError(errors.NewInputError(
			"Wrong number of arguments",
			"update takes repo-root, repo-url and new-commit",
			"Run: cgraph update <repo-root> <repo-url> <new-commit> --lang go",
		), globals.JSON)
	}
	repoRoot, repoURL, newCommit := fs.Arg(0), fs.Arg(1), fs.Arg(2)

	if *langFlag == "" {
		errors.FatalError(errors.NewInputError(
			"Missing --lang",
			"update needs a primary language to pick an LSP Oracle",
			"Run: cgraph update "+repoRoot+" "+repoURL+" "+newCommit+" --lang go",
		), globals.JSON)
	}
	tag := lang.Tag(*langFlag)
	if _, ok := lang.Lookup(tag); !ok {
		errors.FatalError(errors.NewInputError(
			fmt.Sprintf("Unknown language %q", *langFlag),
			"the language registry is a closed set (spec §4.2)",
			"Check pkg/lang/registry.go for supported tags",
		), globals.JSON)
	}

	logger := newLogger(globals)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	notifyInterrupt(ctx, cancel, logger)

	g, tracker, err := loadState(globals.State)
	if err != nil {
		errors.FatalError(errors.NewConfigError(
			"Cannot load existing graph state",
			err.Error(),
			"Pass --state to point at a fresh file, or remove the corrupted one",
			err,
		), globals.JSON)
	}
	if _, ok := tracker.CommitFor(repoURL); !ok {
		errors.FatalError(errors.NewNotFoundError(
			fmt.Sprintf("No prior build recorded for %s", repoURL),
			"update needs a commit pointer from an earlier build or update",
			"Run: cgraph build "+repoRoot+" --url "+repoURL+" --commit <commit> --lang "+*langFlag,
		), globals.JSON)
	}

	cfg, err := engine.LoadConfig(projectConfigPath(repoRoot))
	if err != nil {
		errors.FatalError(errors.NewConfigError(
			"Cannot load .cgraph/project.yaml",
			err.Error(),
			"Fix the YAML syntax, or remove the file to fall back to defaults",
			err,
		), globals.JSON)
	}
	e := engine.New(g, tracker, cfg, logger)

	nodeCount, edgeCount, err := e.UpdateIncremental(ctx, repoRoot, repoURL, newCommit, tag, globals.UseLSP)
	if err != nil {
		errors.FatalError(errors.NewInternalError(
			"Update failed",
			err.Error(),
			"Check that repo-root is a git checkout at or ahead of new-commit",
			err,
		), globals.JSON)
	}

	if err := saveState(globals.State, e.Graph(), tracker); err != nil {
		errors.FatalError(errors.NewPermissionError(
			"Cannot write graph state",
			err.Error(),
			"Check permissions on the --state path's directory",
			err,
		), globals.JSON)
	}

	if globals.JSON {
		_ = output.JSON(map[string]any{
			"repo_url": repoURL,
			"commit":   newCommit,
			"nodes":    nodeCount,
			"edges":    edgeCount,
		})
	} else if !globals.Quiet {
		ui.Successf("updated %s to %s: %d nodes, %d edges", repoURL, newCommit, nodeCount, edgeCount)
	}

	if *watch {
		if err := watchAndUpdate(ctx, repoRoot, repoURL, tag, globals, e, tracker, logger); err != nil {
			errors.FatalError(errors.NewInternalError(
				"Watch mode failed",
				err.Error(),
				"Check that repo-root exists and its directories are readable",
				err,
			), globals.JSON)
		}
	}
}
