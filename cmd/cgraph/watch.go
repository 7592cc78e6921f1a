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
	"io/fs"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/kraklabs/cgraph/internal/ui"
	"github.com/kraklabs/cgraph/pkg/engine"
	"github.com/kraklabs/cgraph/pkg/lang"
)

// watchDebounce coalesces a burst of file events (e.g. a git checkout or
// an editor's save-then-format) into one update.
const watchDebounce = 300 * time.Millisecond

// watchAndUpdate re-runs an incremental update every time a file changes
// under repoRoot, until ctx is canceled (SIGINT/SIGTERM via
// notifyInterrupt). Not required by any graph-construction invariant —
// included because the demonstration CLI is a real driver of
// UpdateIncremental and a file watcher is the idiomatic way to trigger
// one interactively rather than by hand.
func watchAndUpdate(ctx context.Context, repoRoot, repoURL string, tag lang.Tag, globals GlobalFlags, e *engine.Engine, tracker *fileTracker, logger *slog.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := addDirsRecursively(watcher, repoRoot); err != nil {
		return err
	}

	if !globals.Quiet {
		ui.Infof("watching %s for changes (ctrl-C to stop)", repoRoot)
	}

	var timer *time.Timer
	fire := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.AfterFunc(watchDebounce, func() {
					select {
					case fire <- struct{}{}:
					default:
					}
				})
			} else {
				timer.Reset(watchDebounce)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("cgraph.watch.error", "error", err)

		case <-fire:
			commit, err := headCommit(repoRoot)
			if err != nil {
				logger.Warn("cgraph.watch.head_commit", "error", err)
				continue
			}
			nodeCount, edgeCount, err := e.UpdateIncremental(ctx, repoRoot, repoURL, commit, tag, globals.UseLSP)
			if err != nil {
				ui.Errorf("update failed: %v", err)
				continue
			}
			if err := saveState(globals.State, e.Graph(), tracker); err != nil {
				ui.Errorf("cannot persist state: %v", err)
				continue
			}
			if !globals.Quiet {
				ui.Successf("re-indexed %s @ %s: %d nodes, %d edges", repoURL, commit, nodeCount, edgeCount)
			}
		}
	}
}

// addDirsRecursively registers every directory under root with watcher,
// skipping VCS internals fsnotify would otherwise churn on uselessly.
func addDirsRecursively(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if d.Name() == ".git" {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}

// headCommit shells out to git the way pkg/incremental already does for
// diffing (pkg/incremental/incremental.go's gitChangedFiles), rather than
// linking a full git library for one rev-parse call.
func headCommit(repoRoot string) (string, error) {
	out, err := exec.Command("git", "-C", repoRoot, "rev-parse", "HEAD").Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}
