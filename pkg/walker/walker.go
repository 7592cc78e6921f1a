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

// Package walker discovers source files under a repository root (spec
// §4.1), honoring per-language extensions, skip-directories, package
// manifests, and an optional revision filter.
//
// Grounded on pkg/ingestion/repo_loader.go's walkRepository/shouldExclude
// glob-matching walk, and pkg/ingestion/delta.go's git-diff-based changed
// file detection for the revision filter.
package walker

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kraklabs/cgraph/pkg/lang"
)

// MaxFileSize is the spec's 500 KB per-file ceiling (§4.1).
const MaxFileSize = 500 * 1024

// File is one discovered source file.
type File struct {
	RelPath          string
	Bytes            []byte
	IsPackageManifest bool
}

// Walker discovers files for a single language under a repo root.
type Walker struct {
	logger *slog.Logger
}

// New constructs a Walker. A nil logger falls back to slog.Default().
func New(logger *slog.Logger) *Walker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Walker{logger: logger}
}

// Options narrows a Walk call.
type Options struct {
	ExtraFilters []string  // only files whose path matches one of these pass, if non-empty
	ExcludeGlobs []string  // files whose relative path contains, or matches as a filepath.Match glob, any of these are skipped
	Revs         *RevRange // if set, only files changed between the two commits are kept
}

// RevRange names two commits; files changed between them pass the
// revision filter.
type RevRange struct {
	Base string
	Head string
}

// Walk implements the spec §4.1 contract: descend root recursively; skip
// directories in the language's skip-list plus ".git"; accept files whose
// extension is in the language's extension list OR whose name equals the
// language's package manifest; reject files over 500KB or matching a
// skip-suffix; apply ExtraFilters and the revision filter if given.
// Ordering is stable: manifests first, then filesystem traversal order.
func (w *Walker) Walk(root string, spec lang.Spec, opts Options) ([]File, error) {
	skipDirs := make(map[string]bool, len(spec.SkipDirs)+1)
	for _, d := range spec.SkipDirs {
		skipDirs[d] = true
	}
	skipDirs[".git"] = true

	var changed map[string]bool
	if opts.Revs != nil {
		var err error
		changed, err = changedFiles(root, opts.Revs.Base, opts.Revs.Head)
		if err != nil {
			return nil, fmt.Errorf("walker: revision filter: %w", err)
		}
	}

	var manifests, rest []File
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			w.logger.Warn("walker.fs_error", "path", path, "error", err)
			return nil // per-file errors are logged and the file is skipped (spec §7)
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		if info.IsDir() {
			if path != root && skipDirs[info.Name()] {
				return filepath.SkipDir
			}
			return nil
		}

		isManifest := spec.PackageFile != "" && info.Name() == spec.PackageFile
		if !isManifest && !hasExtension(info.Name(), spec.Extensions) {
			return nil
		}
		if hasSuffix(info.Name(), spec.SkipFileSuffixes) {
			return nil
		}
		if info.Size() > MaxFileSize {
			return nil
		}
		if len(opts.ExtraFilters) > 0 && !matchesAny(rel, opts.ExtraFilters) {
			return nil
		}
		if matchesGlob(filepath.ToSlash(rel), opts.ExcludeGlobs) {
			return nil
		}
		if changed != nil && !changed[filepath.ToSlash(rel)] {
			return nil
		}

		content, readErr := os.ReadFile(path)
		if readErr != nil {
			w.logger.Warn("walker.read_error", "path", path, "error", readErr)
			return nil
		}

		f := File{RelPath: filepath.ToSlash(rel), Bytes: content, IsPackageManifest: isManifest}
		if isManifest {
			manifests = append(manifests, f)
		} else {
			rest = append(rest, f)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walker: walk %s: %w", root, err)
	}

	sort.Slice(manifests, func(i, j int) bool { return manifests[i].RelPath < manifests[j].RelPath })
	return append(manifests, rest...), nil
}

func hasExtension(name string, exts []string) bool {
	for _, e := range exts {
		if strings.HasSuffix(name, e) {
			return true
		}
	}
	return false
}

func hasSuffix(name string, suffixes []string) bool {
	for _, s := range suffixes {
		if strings.HasSuffix(name, s) {
			return true
		}
	}
	return false
}

func matchesAny(path string, filters []string) bool {
	for _, f := range filters {
		if strings.Contains(path, f) {
			return true
		}
		if ok, _ := filepath.Match(f, path); ok {
			return true
		}
	}
	return false
}

// matchesGlob reports whether path matches any exclude pattern, as a
// substring or as a filepath.Match glob, mirroring matchesAny's two-way
// match so ".cgraph/project.yaml"'s exclude_globs accepts either a bare
// directory name or a real glob like "**/testdata/*".
func matchesGlob(path string, globs []string) bool {
	for _, g := range globs {
		if strings.Contains(path, g) {
			return true
		}
		if ok, _ := filepath.Match(g, path); ok {
			return true
		}
	}
	return false
}

// changedFiles shells out to `git diff --name-only base..head`, grounded
// on pkg/ingestion/delta.go's use of `git diff --name-status`.
func changedFiles(repoPath, base, head string) (map[string]bool, error) {
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
