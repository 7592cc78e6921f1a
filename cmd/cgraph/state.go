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
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kraklabs/cgraph/pkg/graph"
)

// snapshot is the on-disk shape of a demonstration-CLI run's state: the
// full graph plus the commit pointer for every repo folded into it. Each
// CLI invocation is a fresh process, so build/update/clear persist this
// file between runs rather than holding the Engine's Graph in memory the
// way a long-lived service would. Grounded on
// pkg/ingestion/checkpoint.go's CheckpointManager: same atomic
// temp-file-then-rename write, same plain encoding/json shape, generalized
// from one project's indexing checkpoint to a whole graph-plus-commits
// snapshot.
type snapshot struct {
	Nodes   []snapshotNode    `json:"nodes"`
	Edges   []snapshotEdge    `json:"edges"`
	Commits map[string]string `json:"commits"`
}

type snapshotNode struct {
	Kind     graph.NodeKind    `json:"kind"`
	Name     string            `json:"name"`
	File     string            `json:"file"`
	Body     string            `json:"body,omitempty"`
	Start    int               `json:"start"`
	End      int               `json:"end"`
	Docs     string            `json:"docs,omitempty"`
	Hash     string            `json:"hash,omitempty"`
	DataType string            `json:"data_type,omitempty"`
	Meta     map[string]string `json:"meta,omitempty"`
}

type snapshotEdge struct {
	Kind   graph.EdgeKind `json:"kind"`
	Source string         `json:"source"`
	Target string         `json:"target"`
}

// fileTracker is an incremental.CommitTracker backed by the snapshot's own
// Commits map, so the commit pointer updates in lockstep with the graph it
// describes and both are written out together.
type fileTracker struct {
	commits map[string]string
}

func (t *fileTracker) CommitFor(repoURL string) (string, bool) {
	c, ok := t.commits[repoURL]
	return c, ok
}

func (t *fileTracker) SetCommit(repoURL, commit string) {
	t.commits[repoURL] = commit
}

// loadState reads path into a fresh graph.ArrayGraph and fileTracker. A
// missing file is not an error: it means this is the first build.
func loadState(path string) (*graph.ArrayGraph, *fileTracker, error) {
	g := graph.NewArrayGraph()
	tracker := &fileTracker{commits: map[string]string{}}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return g, tracker, nil
		}
		return nil, nil, fmt.Errorf("read state: %w", err)
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, nil, fmt.Errorf("parse state: %w", err)
	}

	for _, n := range snap.Nodes {
		var meta *graph.Meta
		if len(n.Meta) > 0 {
			meta = graph.NewMeta()
			for k, v := range n.Meta {
				meta.Set(k, v)
			}
		}
		g.AddNode(graph.Node{Kind: n.Kind, Data: graph.NodeData{
			Name: n.Name, File: n.File, Body: n.Body, Start: n.Start, End: n.End,
			Docs: n.Docs, Hash: n.Hash, DataType: n.DataType, Meta: meta,
		}})
	}
	if snap.Commits != nil {
		tracker.commits = snap.Commits
	}

	var skipped int
	for _, e := range snap.Edges {
		if !g.AddEdge(graph.Edge{Kind: e.Kind, Source: e.Source, Target: e.Target}) {
			skipped++
		}
	}
	if skipped > 0 {
		return nil, nil, fmt.Errorf("load state: %d edges referenced unknown nodes", skipped)
	}

	return g, tracker, nil
}

// saveState writes g and tracker's commits to path atomically (write to a
// temp file in the same directory, then rename).
func saveState(path string, g graph.Graph, tracker *fileTracker) error {
	snap := snapshot{Commits: tracker.commits}
	for _, n := range g.Nodes() {
		snap.Nodes = append(snap.Nodes, snapshotNode{
			Kind: n.Kind, Name: n.Data.Name, File: n.Data.File, Body: n.Data.Body,
			Start: n.Data.Start, End: n.Data.End, Docs: n.Data.Docs, Hash: n.Data.Hash,
			DataType: n.Data.DataType, Meta: metaToMap(n.Data.Meta),
		})
	}
	for _, e := range g.Edges() {
		snap.Edges = append(snap.Edges, snapshotEdge{Kind: e.Kind, Source: e.Source, Target: e.Target})
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write state temp: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename state: %w", err)
	}
	return nil
}

func metaToMap(m *graph.Meta) map[string]string {
	if m == nil || m.Len() == 0 {
		return nil
	}
	out := make(map[string]string, m.Len())
	for _, k := range m.Keys() {
		v, _ := m.Get(k)
		out[k] = v
	}
	return out
}

// defaultStatePath is where state lives absent --state: a dotfile next to
// wherever the command runs, mirroring the teacher's ~/.cie/data/<project>
// convention but scoped to the current working directory since this
// demonstration CLI has no project registry.
func defaultStatePath() string {
	return filepath.Join(".cgraph", "state.json")
}
