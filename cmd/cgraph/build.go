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
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/cgraph/internal/errors"
	"github.com/kraklabs/cgraph/internal/output"
	"github.com/kraklabs/cgraph/internal/ui"
	"github.com/kraklabs/cgraph/pkg/emit"
	"github.com/kraklabs/cgraph/pkg/engine"
	"github.com/kraklabs/cgraph/pkg/graph"
	"github.com/kraklabs/cgraph/pkg/lang"
	"github.com/kraklabs/cgraph/pkg/progress"
)

// runBuild executes 'cgraph build <repo-root>', grounded on cmd/cie/index.go's
// runIndex: a FlagSet for the subcommand's own options, a slog logger,
// signal-driven cancellation, and a result summary printed at the end. It
// generalizes from one CozoDB-backed indexing pipeline to engine.BuildGraph
// against one of the three Graph implementations.
func runBuild(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	langFlag := fs.String("lang", "", "Language tag to build (required): go, typescript, python, ...")
	repoURL := fs.String("url", "", "Repository URL / identity (defaults to the repo root path)")
	commitFlag := fs.String("commit", "", "Commit hash to record as the build's base for later updates")
	filters := fs.StringSlice("filter", nil, "Restrict extraction to files matching any of these substrings")
	outFormat := fs.String("format", "", "Emission format: jsonl or pretty (defaults to OUTPUT_FORMAT or jsonl)")
	outPrefix := fs.String("out", "", "Output file prefix (jsonl: <prefix>-nodes.jsonl/<prefix>-edges.jsonl; pretty: <prefix>.json). Empty prints to stdout.")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: cgraph build <repo-root> [options]

Walks repo-root, parses every matching file, assembles and resolves one
repository's graph, then merges it into the state snapshot.

Options:
`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() != 1 {
		errors.FatalError(errors.NewInputError(
			"Missing repo root",
			"build takes exactly one positional argument",
			"Run: cgraph build <repo-root> --lang go",
		), globals.JSON)
	}
	repoRoot := fs.Arg(0)
	if *langFlag == "" {
		errors.FatalError(errors.NewInputError(
			"Missing --lang",
			"build needs a language tag to pick a query pack",
			"Run: cgraph build "+repoRoot+" --lang go",
		), globals.JSON)
	}
	tag := lang.Tag(*langFlag)
	if _, ok := lang.Lookup(tag); !ok {
		errors.FatalError(errors.NewInputError(
			fmt.Sprintf("Unknown language %q", *langFlag),
			"the language registry is a closed set (spec §4.2)",
			"Run: cgraph query --kind Language to see supported tags, or check pkg/lang/registry.go",
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

	cfg, err := engine.LoadConfig(projectConfigPath(repoRoot))
	if err != nil {
		errors.FatalError(errors.NewConfigError(
			"Cannot load .cgraph/project.yaml",
			err.Error(),
			"Fix the YAML syntax, or remove the file to fall back to defaults",
			err,
		), globals.JSON)
	}
	if *outFormat != "" {
		cfg.OutputFormat = *outFormat
	}
	e := engine.New(g, tracker, cfg, logger)

	ch := progress.New(64)
	bar := progress.NewBarConfig(globals.Quiet, globals.NoColor)
	go progress.Pipe(ch, bar)

	url := *repoURL
	if url == "" {
		url = repoRoot
	}
	_, err = e.BuildGraph(ctx, engine.RepoSpec{
		RepoRoot:   repoRoot,
		RepoURL:    url,
		Language:   tag,
		UseLSP:     globals.UseLSP,
		FileFilter: *filters,
		Commit:     *commitFlag,
	}, ch)
	ch.Close()
	if err != nil {
		errors.FatalError(errors.NewInternalError(
			"Build failed",
			err.Error(),
			"Check the repo path and language tag, then retry",
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

	if err := writeEmission(e.Graph(), cfg, *outPrefix); err != nil {
		errors.FatalError(errors.NewPermissionError(
			"Cannot write emission output",
			err.Error(),
			"Check permissions on --out's directory, or drop --out to print to stdout",
			err,
		), globals.JSON)
	}
	if globals.JSON {
		_ = output.JSON(map[string]any{
			"repo_url": url,
			"nodes":    e.Graph().NodeCount(),
			"edges":    e.Graph().EdgeCount(),
		})
	} else if !globals.Quiet {
		ui.Successf("built %s: %d nodes, %d edges", url, e.Graph().NodeCount(), e.Graph().EdgeCount())
	}
}

// projectConfigPath is where a repository's committed build defaults
// live, per SPEC_FULL.md's engine-configuration section.
func projectConfigPath(repoRoot string) string {
	return filepath.Join(repoRoot, ".cgraph", "project.yaml")
}

func newLogger(globals GlobalFlags) *slog.Logger {
	level := slog.LevelInfo
	if globals.Quiet {
		level = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// notifyInterrupt cancels ctx on SIGINT/SIGTERM, the way cmd/cie/index.go's
// runIndex wires its own signal channel around a long-running pipeline run.
func notifyInterrupt(ctx context.Context, cancel context.CancelFunc, logger *slog.Logger) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("shutdown.signal", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()
}

// writeEmission dispatches to pkg/emit per --format/OUTPUT_FORMAT, either to
// stdout (no --out) or to <prefix>-nodes.jsonl/<prefix>-edges.jsonl /
// <prefix>.json, covering the JSONL-pair and pretty-JSON emission shapes of
// spec §6 (the property-graph projection is not written here).
func writeEmission(g graph.Graph, cfg engine.Config, prefix string) error {
	format := emit.JSONL
	if strings.EqualFold(cfg.OutputFormat, "pretty") {
		format = emit.Pretty
	}

	if prefix == "" {
		if format == emit.Pretty {
			return emit.WritePretty(g, os.Stdout)
		}
		return emit.WriteJSONLPair(g, os.Stdout, os.Stdout)
	}

	if format == emit.Pretty {
		f, err := os.Create(prefix + ".json")
		if err != nil {
			return err
		}
		defer f.Close()
		return emit.WritePretty(g, f)
	}

	nodesF, err := os.Create(prefix + "-nodes.jsonl")
	if err != nil {
		return err
	}
	defer nodesF.Close()
	edgesF, err := os.Create(prefix + "-edges.jsonl")
	if err != nil {
		return err
	}
	defer edgesF.Close()
	return emit.WriteJSONLPair(g, nodesF, edgesF)
}
