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

package parsercore_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/cgraph/pkg/parsercore"
	"github.com/kraklabs/cgraph/pkg/querypack"
)

const goSource = `package main

import "fmt"

func Greet(name string) string {
	return fmt.Sprintf("hello %s", name)
}

func main() {
	Greet("world")
}
`

func TestCoreRunFunctionsFirstNodePerCapture(t *testing.T) {
	pack := querypack.Get("go")
	require.NotNil(t, pack)

	core := parsercore.New(pack, nil)
	pf, err := core.Parse(context.Background(), "main.go", []byte(goSource))
	require.NoError(t, err)
	defer pf.Close()

	matches, err := core.Run(context.Background(), pf, querypack.QueryFunctions, parsercore.FirstNodePerCapture)
	require.NoError(t, err)
	require.Len(t, matches, 2)

	names := []string{matches[0].Text(querypack.CaptureFunctionName), matches[1].Text(querypack.CaptureFunctionName)}
	assert.ElementsMatch(t, []string{"Greet", "main"}, names)
}

func TestCoreRunMissingQueryReturnsNil(t *testing.T) {
	pack := querypack.Get("go")
	require.NotNil(t, pack)

	core := parsercore.New(pack, nil)
	pf, err := core.Parse(context.Background(), "main.go", []byte(goSource))
	require.NoError(t, err)
	defer pf.Close()

	matches, err := core.Run(context.Background(), pf, "no-such-query-slot", parsercore.FirstNodePerCapture)
	require.NoError(t, err)
	assert.Nil(t, matches)
}

func TestCoreParseToleratesSyntaxErrors(t *testing.T) {
	pack := querypack.Get("go")
	require.NotNil(t, pack)

	core := parsercore.New(pack, nil)
	broken := []byte("package main\n\nfunc Greet(name string) string {\n")
	pf, err := core.Parse(context.Background(), "broken.go", broken)
	require.NoError(t, err)
	defer pf.Close()

	assert.GreaterOrEqual(t, pf.Errors, 0)
}

func TestStripLiteralReexport(t *testing.T) {
	assert.Equal(t, "users", parsercore.StripLiteral(`"users"`))
	assert.Equal(t, "id", parsercore.StripLiteral(":id"))
}
