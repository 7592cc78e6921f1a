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

package querypack_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/cgraph/pkg/parsercore"
	"github.com/kraklabs/cgraph/pkg/querypack"
)

const kotlinSource = `package greeter

class Greeter {
    fun hello(name: String): String {
        return "hello " + name
    }
}
`

func TestKotlinPackIsRegisteredAndExtractsClassAndFunction(t *testing.T) {
	pack := querypack.Get("kotlin")
	require.NotNil(t, pack, "kotlin is a first-class target language (spec §4.2) and must have a Pack")

	core := parsercore.New(pack, nil)
	pf, err := core.Parse(context.Background(), "Greeter.kt", []byte(kotlinSource))
	require.NoError(t, err)
	defer pf.Close()

	classes, err := core.Run(context.Background(), pf, querypack.QueryClasses, parsercore.FirstNodePerCapture)
	require.NoError(t, err)
	require.Len(t, classes, 1)
	assert.Equal(t, "Greeter", classes[0].Text(querypack.CaptureClassName))

	funcs, err := core.Run(context.Background(), pf, querypack.QueryFunctions, parsercore.FirstNodePerCapture)
	require.NoError(t, err)
	require.Len(t, funcs, 1)
	assert.Equal(t, "hello", funcs[0].Text(querypack.CaptureFunctionName))
}

const swiftSource = `import Foundation

class Greeter {
    func hello(name: String) -> String {
        return "hello " + name
    }
}
`

func TestSwiftPackIsRegisteredAndExtractsClassAndFunction(t *testing.T) {
	pack := querypack.Get("swift")
	require.NotNil(t, pack, "swift is a first-class target language (spec §4.2) and must have a Pack")

	core := parsercore.New(pack, nil)
	pf, err := core.Parse(context.Background(), "Greeter.swift", []byte(swiftSource))
	require.NoError(t, err)
	defer pf.Close()

	classes, err := core.Run(context.Background(), pf, querypack.QueryClasses, parsercore.FirstNodePerCapture)
	require.NoError(t, err)
	require.Len(t, classes, 1)
	assert.Equal(t, "Greeter", classes[0].Text(querypack.CaptureClassName))

	funcs, err := core.Run(context.Background(), pf, querypack.QueryFunctions, parsercore.FirstNodePerCapture)
	require.NoError(t, err)
	require.Len(t, funcs, 1)
	assert.Equal(t, "hello", funcs[0].Text(querypack.CaptureFunctionName))
}
