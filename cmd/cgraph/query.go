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
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/cgraph/internal/errors"
	"github.com/kraklabs/cgraph/internal/output"
	"github.com/kraklabs/cgraph/internal/ui"
	"github.com/kraklabs/cgraph/pkg/graph"
)

// runQuery executes 'cgraph query', a read-only lookup by kind and
// optionally by name against the current state snapshot. It is not a
// general graph query language, per §4.12's "demonstration CLI" scope:
// just enough to inspect the result of a build without a second tool.
// Grounded on cmd/cie/query.go's runQuery, generalized from one MCP-style
// free-text search over CozoDB to a FindByName/Nodes scan over a
// graph.Graph already resident in memory.
func runQuery(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("query", flag.ExitOnError)
	kindFlag := fs.String("kind", "", "Node kind to list (required): Function, Class, Endpoint, ...")
	nameFlag := fs.String("name", "", "Restrict to nodes with this exact name")
	fileFlag := fs.String("file", "", "Restrict to nodes in this file")
	limit := fs.Int("limit", 50, "Maximum number of results to print")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: cgraph query --kind <kind> [--name <name>] [--file <path>]

Lists nodes of the given kind currently held in the graph state.

Options:
`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if *kindFlag == "" {
		errors.FatalError(errors.NewInputError(
			"Missing --kind",
			"query needs a node kind to list",
			"Run: cgraph query --kind Function",
		), globals.JSON)
	}
	kind := graph.NodeKind(*kindFlag)
	if !kind.Valid() {
		errors.FatalError(errors.NewInputError(
			fmt.Sprintf("Unknown kind %q", *kindFlag),
			"the node kind registry is a closed set (spec §3)",
			"Check pkg/graph/kinds.go for valid kinds",
		), globals.JSON)
	}

	g, _, err := loadState(globals.State)
	if err != nil {
		errors.FatalError(errors.NewConfigError(
			"Cannot load existing graph state",
			err.Error(),
			"Pass --state to point at a fresh file, or run 'cgraph build' first",
			err,
		), globals.JSON)
	}

	var matches []graph.Node
	if *nameFlag != "" {
		matches = g.FindByName(kind, *nameFlag)
	} else {
		for _, n := range g.Nodes() {
			if n.Kind == kind {
				matches = append(matches, n)
			}
		}
	}
	if *fileFlag != "" {
		filtered := matches[:0]
		for _, n := range matches {
			if n.Data.File == *fileFlag {
				filtered = append(filtered, n)
			}
		}
		matches = filtered
	}

	truncated := false
	if len(matches) > *limit {
		matches = matches[:*limit]
		truncated = true
	}

	if globals.JSON {
		if err := output.JSON(map[string]any{
			"kind":      kind,
			"count":     len(matches),
			"truncated": truncated,
			"nodes":     matches,
		}); err != nil {
			errors.FatalError(errors.NewInternalError(
				"Cannot encode query result",
				err.Error(),
				"Re-run without --json to see the result as text",
				err,
			), false)
		}
		return
	}

	if len(matches) == 0 {
		ui.Info("no matching nodes")
		return
	}
	ui.Header(fmt.Sprintf("%s (%d)", kind, len(matches)))
	for _, n := range matches {
		fmt.Printf("  %s  %s  %s:%d-%d\n", ui.DimText(n.Key()), n.Data.Name, n.Data.File, n.Data.Start, n.Data.End)
	}
	if truncated {
		ui.Warningf("results truncated to %d, pass --limit to see more", *limit)
	}
}
