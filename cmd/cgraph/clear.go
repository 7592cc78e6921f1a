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
	"github.com/kraklabs/cgraph/pkg/engine"
)

// runClear executes 'cgraph clear <repo-url>', removing every node whose
// Repository ancestor matches repo-url and persisting the shrunk
// snapshot. Grounded on cmd/cie's "cie reset" flow, generalized from
// wiping the whole CozoDB relation set to engine.Clear's one-repository
// cascade.
func runClear(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("clear", flag.ExitOnError)
	yes := fs.Bool("yes", false, "Skip the confirmation prompt")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: cgraph clear <repo-url> [--yes]

Removes every node descending from the named Repository node, and its
commit pointer, from the graph state.
`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() != 1 {
		errors.FatalError(errors.NewInputError(
			"Missing repo URL",
			"clear takes exactly one positional argument",
			"Run: cgraph clear <repo-url>",
		), globals.JSON)
	}
	repoURL := fs.Arg(0)

	if !*yes && !globals.Quiet {
		ui.Warningf("about to remove all graph state for %s", repoURL)
		fmt.Fprint(os.Stderr, "Continue? [y/N] ")
		var resp string
		fmt.Fscanln(os.Stdin, &resp)
		if resp != "y" && resp != "Y" {
			ui.Info("aborted")
			os.Exit(0)
		}
	}

	g, tracker, err := loadState(globals.State)
	if err != nil {
		errors.FatalError(errors.NewConfigError(
			"Cannot load existing graph state",
			err.Error(),
			"Pass --state to point at a fresh file, or remove the corrupted one",
			err,
		), globals.JSON)
	}

	logger := newLogger(globals)
	e := engine.New(g, tracker, engine.LoadConfigFromEnv(), logger)
	removed := e.Clear(repoURL)
	delete(tracker.commits, repoURL)

	if err := saveState(globals.State, e.Graph(), tracker); err != nil {
		errors.FatalError(errors.NewPermissionError(
			"Cannot write graph state",
			err.Error(),
			"Check permissions on the --state path's directory",
			err,
		), globals.JSON)
	}

	if globals.JSON {
		_ = output.JSON(map[string]any{"repo_url": repoURL, "removed": removed})
	} else if !globals.Quiet {
		ui.Successf("cleared %s: %d nodes removed", repoURL, removed)
	}
}
