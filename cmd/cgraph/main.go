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

// Package main implements cgraph, a thin demonstration CLI exercising the
// Engine end to end. It is not the HTTP API the enclosing service would
// expose: no network listener, no auth, no webhook signing, per spec §2's
// OUT OF SCOPE and §4.12.
//
// Usage:
//
//	cgraph build <repo-root> --lang go [--url ...] [--commit ...]
//	cgraph update <repo-root> <repo-url> <new-commit> --lang go
//	cgraph clear <repo-url>
//	cgraph query --kind Function [--name GetPeople]
package main

import (
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/cgraph/internal/errors"
	"github.com/kraklabs/cgraph/internal/ui"
)

// version information, set via ldflags during release builds.
var (
	version = "dev"
	commit  = "unknown"
)

// GlobalFlags are recognized before the subcommand name and threaded into
// every subcommand, the way cmd/cie's start/stop commands take a
// GlobalFlags value rather than re-parsing os.Args themselves.
type GlobalFlags struct {
	JSON    bool
	Quiet   bool
	NoColor bool
	UseLSP  *bool
	State   string
}

func main() {
	fs := flag.NewFlagSet("cgraph", flag.ExitOnError)
	jsonOut := fs.Bool("json", false, "Output machine-readable JSON")
	quiet := fs.Bool("quiet", false, "Suppress progress output")
	noColor := fs.Bool("no-color", false, "Disable colored output")
	useLSPFlag := fs.String("use-lsp", "", "Force the LSP oracle on/off (true/false), overriding the language default")
	statePath := fs.String("state", defaultStatePath(), "Path to the graph state snapshot")
	showVersion := fs.Bool("version", false, "Show version and exit")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `cgraph - code knowledge graph demonstration CLI

Usage:
  cgraph <command> [options]

Commands:
  build     Build a graph from one repository
  update    Apply an incremental update to an already-built repository
  clear     Remove all graph state for a repository URL
  query     Read-only query over the current graph state

Global Options:
`)
		fs.PrintDefaults()
	}

	// Global flags precede the subcommand name, matching the teacher's
	// "cie --mcp index" convention: fs.Parse stops at the first
	// non-flag argument, which is the subcommand, and hands the rest of
	// os.Args to that subcommand's own FlagSet.
	fs.SetInterspersed(false)
	if err := fs.Parse(os.Args[1:]); err != nil {
		os.Exit(1)
	}

	if *showVersion {
		fmt.Printf("cgraph version %s (%s)\n", version, commit)
		os.Exit(0)
	}

	ui.InitColors(*noColor)

	globals := GlobalFlags{JSON: *jsonOut, Quiet: *quiet, NoColor: *noColor, State: *statePath}
	if *useLSPFlag != "" {
		b := *useLSPFlag == "true" || *useLSPFlag == "1"
		globals.UseLSP = &b
	}

	args := fs.Args()
	if len(args) == 0 {
		fs.Usage()
		os.Exit(1)
	}

	command := args[0]
	cmdArgs := args[1:]

	switch command {
	case "build":
		runBuild(cmdArgs, globals)
	case "update":
		runUpdate(cmdArgs, globals)
	case "clear":
		runClear(cmdArgs, globals)
	case "query":
		runQuery(cmdArgs, globals)
	default:
		errors.FatalError(errors.NewInputError(
			fmt.Sprintf("Unknown command: %s", command),
			"cgraph recognizes build, update, clear, query",
			"Run 'cgraph --help' for usage",
		), globals.JSON)
	}
}
