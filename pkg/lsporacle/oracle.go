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

// Package lsporacle provides an optional, single-threaded cooperative
// language-server worker the Resolver can consult as a tiebreaker (spec
// §4.5). Grounded on pkg/ingestion/embedding.go's jobs/results channel
// idiom, narrowed from a fan-out worker pool to exactly one cooperative
// worker goroutine with a command mailbox, since the spec requires
// requests to the language server to be serialized rather than
// parallelized.
package lsporacle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrShutdown is returned by any command submitted after Shutdown.
var ErrShutdown = errors.New("lsporacle: oracle is shut down")

// Location is a resolved definition site.
type Location struct {
	File string
	Line int
}

// command is the interface every mailbox message satisfies; only the
// worker goroutine ever calls execute, so implementations never need
// their own synchronization.
type command interface {
	execute(ctx context.Context, o *Oracle)
}

type gotoDefinitionCmd struct {
	id     string
	file   string
	line   int
	column int
	reply  chan<- gotoDefinitionResult
}

type gotoDefinitionResult struct {
	loc   Location
	found bool
}

func (c gotoDefinitionCmd) execute(ctx context.Context, o *Oracle) {
	loc, found := o.backend.GotoDefinition(ctx, c.file, c.line, c.column)
	o.logger.Debug("lsporacle.goto_definition", "request_id", c.id, "file", c.file, "found", found)
	c.reply <- gotoDefinitionResult{loc: loc, found: found}
}

type shutdownCmd struct {
	done chan<- struct{}
}

func (c shutdownCmd) execute(ctx context.Context, o *Oracle) {
	o.backend.Shutdown(ctx)
	close(c.done)
}

// Backend is the actual language-server process driver. A real
// implementation arbitrates stdio JSON-RPC with a child process started by
// exec.Command; tests substitute a fake.
type Backend interface {
	// Initialize runs post-clone preparation (e.g. installing type stubs)
	// and starts the language server, unless skipped.
	Initialize(ctx context.Context) error
	GotoDefinition(ctx context.Context, file string, line, column int) (Location, bool)
	Shutdown(ctx context.Context)
}

// Config controls Oracle startup.
type Config struct {
	// Command is the language server executable and arguments, per
	// lang.LSPConfig.Executable / .Args.
	Command []string
	// SkipPostClone disables post-clone preparation (LSP_SKIP_POST_CLONE).
	SkipPostClone bool
	// RequestTimeout bounds every GotoDefinition round trip; on expiry the
	// resolver falls back to heuristics (spec §5 "implicit deadline").
	RequestTimeout time.Duration
}

// Oracle is the single cooperative worker. All exported methods are safe
// to call from multiple resolver goroutines; requests are serialized onto
// one internal worker via the mailbox channel.
type Oracle struct {
	mailbox chan command
	backend Backend
	logger  *slog.Logger
	timeout time.Duration

	closeOnce sync.Once
	done      chan struct{}
}

// New starts the oracle's worker goroutine. backend is typically a
// process-backed implementation; pass a fake for tests.
func New(backend Backend, cfg Config, logger *slog.Logger) *Oracle {
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	o := &Oracle{
		mailbox: make(chan command, 64),
		backend: backend,
		logger:  logger,
		timeout: timeout,
		done:    make(chan struct{}),
	}
	go o.run()
	return o
}

func (o *Oracle) run() {
	defer close(o.done)
	for cmd := range o.mailbox {
		ctx, cancel := context.WithTimeout(context.Background(), o.timeout)
		cmd.execute(ctx, o)
		cancel()
	}
}

// Initialize runs the backend's post-clone preparation and server start.
func (o *Oracle) Initialize(ctx context.Context) error {
	return o.backend.Initialize(ctx)
}

// GotoDefinition asks the worker to resolve a definition at (file, line,
// column). On timeout it reports "no definition" and the caller (the
// Resolver) continues with its heuristic stack (spec §5). Every request
// gets a UUID correlation ID so its log lines can be tied together across
// the mailbox hop, mirroring how a real JSON-RPC client would tag request
// IDs to match them with their eventual response.
func (o *Oracle) GotoDefinition(ctx context.Context, file string, line, column int) (Location, bool) {
	id := uuid.NewString()
	reply := make(chan gotoDefinitionResult, 1)
	select {
	case o.mailbox <- gotoDefinitionCmd{id: id, file: file, line: line, column: column, reply: reply}:
	case <-ctx.Done():
		return Location{}, false
	}
	select {
	case r := <-reply:
		return r.loc, r.found
	case <-ctx.Done():
		return Location{}, false
	case <-time.After(o.timeout):
		o.logger.Warn("lsporacle.goto_definition.timeout", "request_id", id, "file", file, "line", line)
		return Location{}, false
	}
}

// Shutdown stops the worker and releases the backend's child process.
// Safe to call more than once.
func (o *Oracle) Shutdown(ctx context.Context) {
	o.closeOnce.Do(func() {
		done := make(chan struct{})
		select {
		case o.mailbox <- shutdownCmd{done: done}:
			select {
			case <-done:
			case <-ctx.Done():
			}
		case <-ctx.Done():
		}
		close(o.mailbox)
	})
	<-o.done
}

// ProcessBackend drives a language server subprocess over stdio. The
// actual JSON-RPC framing is intentionally left to a real implementation;
// this type documents the wiring point so a concrete language server
// (gopls, pyright, rust-analyzer, typescript-language-server) can be
// plugged in without touching Oracle.
type ProcessBackend struct {
	command       []string
	skipPostClone bool
	logger        *slog.Logger

	mu  sync.Mutex
	cmd *exec.Cmd
}

// NewProcessBackend builds a Backend that will exec cfg.Command on
// Initialize.
func NewProcessBackend(cfg Config, logger *slog.Logger) *ProcessBackend {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProcessBackend{command: cfg.Command, skipPostClone: cfg.SkipPostClone, logger: logger}
}

func (b *ProcessBackend) Initialize(ctx context.Context) error {
	if len(b.command) == 0 {
		return fmt.Errorf("lsporacle: no language server command configured")
	}
	if !b.skipPostClone {
		b.logger.Info("lsporacle.post_clone_prepare", "command", b.command[0])
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cmd = exec.CommandContext(ctx, b.command[0], b.command[1:]...)
	if err := b.cmd.Start(); err != nil {
		return fmt.Errorf("lsporacle: start %s: %w", b.command[0], err)
	}
	return nil
}

// GotoDefinition is unimplemented on the bare process backend pending a
// concrete JSON-RPC client; it always reports "no definition" so callers
// safely fall through to heuristics.
func (b *ProcessBackend) GotoDefinition(ctx context.Context, file string, line, column int) (Location, bool) {
	return Location{}, false
}

func (b *ProcessBackend) Shutdown(ctx context.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.cmd != nil && b.cmd.Process != nil {
		_ = b.cmd.Process.Kill()
	}
}
