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

// Edge connects two nodes, identified by their canonical keys rather than
// owning pointers, so cyclic references (function ↔ class ↔ file) never
// require back-pointers — lookups go through the Graph's node index at
// traversal time (see spec §9 "Cyclic references").
type Edge struct {
	Kind   EdgeKind
	Source string // source node canonical key
	Target string // target node canonical key
}

// edgeIdentity is the dedup key for an edge: a directed (kind, source,
// target) triple. Two assembler passes emitting the same edge collapse to
// one.
type edgeIdentity struct {
	kind   EdgeKind
	source string
	target string
}

func (e Edge) identity() edgeIdentity {
	return edgeIdentity{kind: e.Kind, source: e.Source, target: e.Target}
}
