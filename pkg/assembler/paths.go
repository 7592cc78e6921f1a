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

package assembler

import "strings"

// canonicalEndpointPath gives an Endpoint or Request node's route a stable
// shape: exactly one leading slash, no duplicated interior slashes, and a
// composed group prefix joined in. This is deliberately lighter than the
// Cross-Repo Linker's placeholder-token rewriting (§4.8) — within a single
// repo the literal parameter spelling (":id" vs "{id}") is still useful
// for a human reading the graph; only cross-repo matching needs it erased.
func canonicalEndpointPath(group, path string) string {
	joined := strings.TrimSuffix(group, "/") + "/" + strings.TrimPrefix(path, "/")
	return collapseSlashes(joined)
}

func collapseSlashes(path string) string {
	var b strings.Builder
	lastSlash := false
	for _, r := range path {
		if r == '/' {
			if lastSlash {
				continue
			}
			lastSlash = true
		} else {
			lastSlash = false
		}
		b.WriteRune(r)
	}
	out := b.String()
	if !strings.HasPrefix(out, "/") {
		out = "/" + out
	}
	if len(out) > 1 {
		out = strings.TrimSuffix(out, "/")
	}
	return out
}
