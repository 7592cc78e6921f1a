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

package emit

import (
	"bufio"
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/cgraph/pkg/graph"
)

func sampleGraph() graph.Graph {
	g := graph.NewArrayGraph()
	meta := graph.NewMeta()
	meta.Set("verb", "GET")
	fileKey := g.AddNode(graph.Node{Kind: graph.File, Data: graph.NodeData{Name: "routes.go", File: "api/routes.go"}})
	fnKey := g.AddNode(graph.Node{Kind: graph.Function, Data: graph.NodeData{
		Name: "GetPeople", File: "api/routes.go", Body: "func GetPeople() {}", Start: 5, End: 5, Docs: "handles GET /people",
	}})
	epKey := g.AddNode(graph.Node{Kind: graph.Endpoint, Data: graph.NodeData{Name: "/people", File: "api/routes.go", Start: 9, Meta: meta}})
	g.AddEdge(graph.Edge{Kind: graph.Contains, Source: fileKey, Target: fnKey})
	g.AddEdge(graph.Edge{Kind: graph.Handler, Source: epKey, Target: fnKey})
	return g
}

func TestWriteJSONLPairShapesNodesAndEdges(t *testing.T) {
	g := sampleGraph()
	var nodesBuf, edgesBuf bytes.Buffer
	require.NoError(t, WriteJSONLPair(g, &nodesBuf, &edgesBuf))

	nodeLines := scanLines(t, &nodesBuf)
	require.Len(t, nodeLines, 3)

	var fn nodeLine
	for _, raw := range nodeLines {
		require.NoError(t, json.Unmarshal(raw, &fn))
		if fn.NodeType == string(graph.Function) {
			break
		}
	}
	assert.Equal(t, "GetPeople", fn.NodeData.Name)
	assert.Equal(t, "func GetPeople() {}", fn.NodeData.Body)
	assert.Equal(t, "handles GET /people", fn.NodeData.Docs)

	edgeLines := scanLines(t, &edgesBuf)
	require.Len(t, edgeLines, 2)

	var handler edgeLine
	for _, raw := range edgeLines {
		require.NoError(t, json.Unmarshal(raw, &handler))
		if handler.Edge == "HANDLER" {
			break
		}
	}
	assert.Equal(t, "HANDLER", handler.Edge)
	assert.Equal(t, "/people", handler.Source.NodeData.Name)
	assert.Equal(t, "GET", handler.Source.NodeData.Verb)
	assert.Equal(t, "GetPeople", handler.Target.NodeData.Name)
}

func TestWritePrettyProducesOneIndentedDocument(t *testing.T) {
	g := sampleGraph()
	var buf bytes.Buffer
	require.NoError(t, WritePretty(g, &buf))

	var doc document
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Len(t, doc.Nodes, 3)
	assert.Len(t, doc.Edges, 2)
	assert.Contains(t, buf.String(), "\n  ")
}

func TestWriteCompactHasNoIndentation(t *testing.T) {
	g := sampleGraph()
	var buf bytes.Buffer
	require.NoError(t, WriteCompact(g, &buf))
	assert.NotContains(t, buf.String(), "\n  ")
}

func TestToPropertyGraphPreservesNodesAndUpperSnakeEdges(t *testing.T) {
	g := sampleGraph()
	pg := ToPropertyGraph(g)

	assert.Equal(t, g.NodeCount(), pg.NodeCount())
	assert.Equal(t, g.EdgeCount(), pg.EdgeCount())

	endpoints := pg.FindByType(graph.Endpoint)
	require.Len(t, endpoints, 1)
	assert.Equal(t, "/people", endpoints[0].Data.Name)

	handlerEdges := pg.EdgesOfKind(graph.Handler)
	require.Len(t, handlerEdges, 1)
	assert.Equal(t, "HANDLER", handlerEdges[0].Kind.UpperSnake())
}

func TestWriteByFormatDispatchesOnFormat(t *testing.T) {
	g := sampleGraph()

	var nodesBuf, edgesBuf bytes.Buffer
	require.NoError(t, WriteByFormat(JSONL, g, &nodesBuf, &edgesBuf))
	assert.NotEmpty(t, nodesBuf.String())
	assert.NotEmpty(t, edgesBuf.String())

	var prettyBuf bytes.Buffer
	require.NoError(t, WriteByFormat(Pretty, g, &prettyBuf, nil))
	var doc document
	require.NoError(t, json.Unmarshal(prettyBuf.Bytes(), &doc))
	assert.Len(t, doc.Nodes, 3)
}

func scanLines(t *testing.T, buf *bytes.Buffer) [][]byte {
	t.Helper()
	var out [][]byte
	scanner := bufio.NewScanner(buf)
	for scanner.Scan() {
		line := append([]byte(nil), scanner.Bytes()...)
		out = append(out, line)
	}
	require.NoError(t, scanner.Err())
	return out
}
