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

// Package emit renders a graph.Graph into the three external formats spec
// §6 names: a line-delimited JSON pair, a single pretty-printed JSON
// document, and a property-graph projection. Grounded on
// internal/output/json.go's JSONTo/JSONCompactTo helpers, generalized from
// encoding one arbitrary CLI result value to encoding the fixed node/edge
// line shapes below.
package emit

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/kraklabs/cgraph/pkg/graph"
)

// nodeRef is the abbreviated node reference an edge line carries for its
// source and target: just enough to re-identify the node, not its full
// payload.
type nodeRef struct {
	NodeType string      `json:"node_type"`
	NodeData nodeRefData `json:"node_data"`
}

type nodeRefData struct {
	Name string `json:"name"`
	File string `json:"file"`
	Verb string `json:"verb,omitempty"`
}

func refOf(g graph.Graph, key string) nodeRef {
	n, ok := g.FindByKey(key)
	if !ok {
		return nodeRef{}
	}
	return nodeRef{
		NodeType: string(n.Kind),
		NodeData: nodeRefData{Name: n.Data.Name, File: n.Data.File, Verb: n.Verb()},
	}
}

// nodeLine is one line of <name>-nodes.jsonl.
type nodeLine struct {
	NodeType string       `json:"node_type"`
	NodeData nodeLineData `json:"node_data"`
}

type nodeLineData struct {
	Name     string            `json:"name"`
	File     string            `json:"file"`
	Body     string            `json:"body"`
	Start    int               `json:"start"`
	End      int               `json:"end"`
	Docs     string            `json:"docs,omitempty"`
	Hash     string            `json:"hash,omitempty"`
	DataType string            `json:"data_type,omitempty"`
	Meta     map[string]string `json:"meta,omitempty"`
}

// edgeLine is one line of <name>-edges.jsonl.
type edgeLine struct {
	Edge   string  `json:"edge"`
	Source nodeRef `json:"source"`
	Target nodeRef `json:"target"`
}

func toNodeLine(n graph.Node) nodeLine {
	return nodeLine{
		NodeType: string(n.Kind),
		NodeData: nodeLineData{
			Name:     n.Data.Name,
			File:     n.Data.File,
			Body:     n.Data.Body,
			Start:    n.Data.Start,
			End:      n.Data.End,
			Docs:     n.Data.Docs,
			Hash:     n.Data.Hash,
			DataType: n.Data.DataType,
			Meta:     metaMap(n.Data.Meta),
		},
	}
}

func metaMap(m *graph.Meta) map[string]string {
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

// WriteJSONLPair writes g as the two parallel line-delimited JSON streams
// spec §6 names: one node per line to nodesW, one edge per line to edgesW.
// Each line is its own compact JSON object, matching how
// internal/output.JSONCompactTo encodes one value per call.
func WriteJSONLPair(g graph.Graph, nodesW, edgesW io.Writer) error {
	nodeEnc := json.NewEncoder(nodesW)
	for _, n := range g.Nodes() {
		if err := nodeEnc.Encode(toNodeLine(n)); err != nil {
			return fmt.Errorf("emit: encode node line: %w", err)
		}
	}
	edgeEnc := json.NewEncoder(edgesW)
	for _, e := range g.Edges() {
		line := edgeLine{Edge: e.Kind.UpperSnake(), Source: refOf(g, e.Source), Target: refOf(g, e.Target)}
		if err := edgeEnc.Encode(line); err != nil {
			return fmt.Errorf("emit: encode edge line: %w", err)
		}
	}
	return nil
}

// document is the single-document shape WritePretty and WriteCompact both
// encode, differing only in indentation.
type document struct {
	Nodes []nodeLine `json:"nodes"`
	Edges []edgeLine `json:"edges"`
}

func toDocument(g graph.Graph) document {
	nodes := g.Nodes()
	edges := g.Edges()
	doc := document{Nodes: make([]nodeLine, len(nodes)), Edges: make([]edgeLine, len(edges))}
	for i, n := range nodes {
		doc.Nodes[i] = toNodeLine(n)
	}
	for i, e := range edges {
		doc.Edges[i] = edgeLine{Edge: e.Kind.UpperSnake(), Source: refOf(g, e.Source), Target: refOf(g, e.Target)}
	}
	return doc
}

// WritePretty writes g as one pretty-printed JSON document, the way
// internal/output.JSONTo indents CLI --json results: two-space indentation.
func WritePretty(g graph.Graph, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(toDocument(g)); err != nil {
		return fmt.Errorf("emit: encode pretty document: %w", err)
	}
	return nil
}

// WriteCompact writes g as one compact JSON document, for STREAM_UPLOAD
// callers that want the smallest single payload rather than the JSONL pair.
func WriteCompact(g graph.Graph, w io.Writer) error {
	enc := json.NewEncoder(w)
	if err := enc.Encode(toDocument(g)); err != nil {
		return fmt.Errorf("emit: encode compact document: %w", err)
	}
	return nil
}

// ToPropertyGraph projects g into a fresh graph.PropertyGraph backed by an
// in-memory graph.PropertyStore: nodes labeled by kind with their fields as
// properties, edges typed in UPPER_SNAKE_CASE via graph.EdgeKind.UpperSnake.
// Any real property-graph database driver satisfying graph.PropertyStore
// can be substituted for the in-memory one to make this projection durable;
// none ships in this module (SPEC_FULL.md §2 OUT OF SCOPE).
func ToPropertyGraph(g graph.Graph) *graph.PropertyGraph {
	out := graph.NewPropertyGraph(graph.NewInMemoryPropertyStore())
	for _, n := range g.Nodes() {
		out.AddNode(n)
	}
	for _, e := range g.Edges() {
		out.AddEdge(e)
	}
	return out
}

// Format selects one of the emission formats OUTPUT_FORMAT names.
type Format string

const (
	JSONL  Format = "jsonl"
	Pretty Format = "pretty"
)

// WriteByFormat dispatches to WriteJSONLPair (nodesW/edgesW both required)
// or WritePretty (edgesW ignored) based on format, the way a caller wiring
// up OUTPUT_FORMAT would. Unknown formats default to JSONL.
func WriteByFormat(format Format, g graph.Graph, nodesW, edgesW io.Writer) error {
	if format == Pretty {
		return WritePretty(g, nodesW)
	}
	return WriteJSONLPair(g, nodesW, edgesW)
}
