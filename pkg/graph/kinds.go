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

// Package graph defines the typed node/edge data model of the code
// knowledge graph and the storage-agnostic contract that every backend
// (in-memory array, ordered map, or an external property-graph store)
// implements identically.
package graph

// NodeKind is the closed set of entity types the graph can hold.
type NodeKind string

const (
	Repository      NodeKind = "Repository"
	Directory       NodeKind = "Directory"
	File            NodeKind = "File"
	Language        NodeKind = "Language"
	Library         NodeKind = "Library"
	Import          NodeKind = "Import"
	Class           NodeKind = "Class"
	Trait           NodeKind = "Trait"
	Instance        NodeKind = "Instance"
	Function        NodeKind = "Function"
	UnitTest        NodeKind = "UnitTest"
	IntegrationTest NodeKind = "IntegrationTest"
	E2eTest         NodeKind = "E2eTest"
	Arg             NodeKind = "Arg"
	Endpoint        NodeKind = "Endpoint"
	Request         NodeKind = "Request"
	DataModel       NodeKind = "DataModel"
	Feature         NodeKind = "Feature"
	Page            NodeKind = "Page"
	Var             NodeKind = "Var"
)

// allNodeKinds is used for validation; keep in sync with the const block.
var allNodeKinds = map[NodeKind]bool{
	Repository: true, Directory: true, File: true, Language: true,
	Library: true, Import: true, Class: true, Trait: true, Instance: true,
	Function: true, UnitTest: true, IntegrationTest: true, E2eTest: true,
	Arg: true, Endpoint: true, Request: true, DataModel: true, Feature: true,
	Page: true, Var: true,
}

// Valid reports whether k is a member of the closed node-kind set.
func (k NodeKind) Valid() bool { return allNodeKinds[k] }

// IsFunctionLike reports whether k is a Function or one of its disjoint
// test-node partitions (see spec invariant 6).
func (k NodeKind) IsFunctionLike() bool {
	switch k {
	case Function, UnitTest, IntegrationTest, E2eTest:
		return true
	default:
		return false
	}
}

// EdgeKind is the closed set of relationship types the graph can hold.
type EdgeKind string

const (
	Contains   EdgeKind = "Contains"
	Calls      EdgeKind = "Calls"
	Uses       EdgeKind = "Uses"
	Operand    EdgeKind = "Operand"
	ArgOf      EdgeKind = "ArgOf"
	Imports    EdgeKind = "Imports"
	Of         EdgeKind = "Of"
	Handler    EdgeKind = "Handler"
	Includes   EdgeKind = "Includes"
	Renders    EdgeKind = "Renders"
	ParentOf   EdgeKind = "ParentOf"
	Implements EdgeKind = "Implements"
)

var allEdgeKinds = map[EdgeKind]bool{
	Contains: true, Calls: true, Uses: true, Operand: true, ArgOf: true,
	Imports: true, Of: true, Handler: true, Includes: true, Renders: true,
	ParentOf: true, Implements: true,
}

// Valid reports whether k is a member of the closed edge-kind set.
func (k EdgeKind) Valid() bool { return allEdgeKinds[k] }

// UpperSnake renders the edge kind the way the property-graph emission
// format (§6) requires: UPPER_SNAKE_CASE.
func (k EdgeKind) UpperSnake() string {
	return upperSnake[k]
}

var upperSnake = map[EdgeKind]string{
	Contains: "CONTAINS", Calls: "CALLS", Uses: "USES", Operand: "OPERAND",
	ArgOf: "ARG_OF", Imports: "IMPORTS", Of: "OF", Handler: "HANDLER",
	Includes: "INCLUDES", Renders: "RENDERS", ParentOf: "PARENT_OF",
	Implements: "IMPLEMENTS",
}
