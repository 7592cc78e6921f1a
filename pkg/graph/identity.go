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

package graph

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// CanonicalKey computes a node's identity per spec §3: the tuple
// (kind, name, file, start, verb?) sanitized to a lowercase alphanumeric
// string. Two nodes with the same key are the same node.
//
// Unlike the teacher's GenerateFunctionID (pkg/ingestion/ids.go), which
// hashes the tuple with SHA-256, this keeps the slug human-legible: the
// spec's round-trip law requires canonical keys to survive a JSONL
// emit/re-ingest cycle unchanged, and the seed scenarios reason about
// specific bindings (e.g. "/person/ POST bound to create_person") that are
// far easier to eyeball in a debugger as a slug than as a hex digest.
func CanonicalKey(kind NodeKind, name, file string, start int, verb string) string {
	var b strings.Builder
	b.WriteString(slug(string(kind)))
	b.WriteByte(':')
	b.WriteString(slug(name))
	b.WriteByte(':')
	b.WriteString(slug(normalizePath(file)))
	b.WriteByte(':')
	b.WriteString(strconv.Itoa(start))
	if verb != "" {
		b.WriteByte(':')
		b.WriteString(slug(verb))
	}
	return b.String()
}

// slug lowercases s, replaces every run of characters that are not a-z0-9
// with a single '-', and trims leading and trailing '-', so the resulting
// identity is stable across operating systems, quoting styles, and
// whitespace variance in the source span.
func slug(s string) string {
	s = strings.ToLower(s)
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			// collapse any run of non-alnum runes into a single separator
			if b.Len() > 0 && b.String()[b.Len()-1] != '-' {
				b.WriteByte('-')
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

// normalizePath canonicalizes a file path relative to its repo root:
// forward slashes, no leading "./", no leading "/". Grounded on
// pkg/ingestion/ids.go's normalizePath.
func normalizePath(path string) string {
	if strings.HasPrefix(path, "./") {
		path = path[2:]
	}
	path = filepath.Clean(path)
	path = filepath.ToSlash(path)
	path = strings.TrimPrefix(path, "/")
	return path
}

// NormalizePath exposes normalizePath for callers outside this package
// (the Graph Assembler canonicalizes every File node's path the same way).
func NormalizePath(path string) string { return normalizePath(path) }

// describe renders a human-readable label for error messages; not part of
// the identity itself.
func describe(kind NodeKind, name, file string) string {
	return fmt.Sprintf("%s %q in %s", kind, name, file)
}
