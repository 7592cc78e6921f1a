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

package lsporacle_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/cgraph/pkg/lsporacle"
)

type fakeBackend struct {
	calls    int32
	location lsporacle.Location
	found    bool
	delay    time.Duration
}

func (f *fakeBackend) Initialize(ctx context.Context) error { return nil }

func (f *fakeBackend) GotoDefinition(ctx context.Context, file string, line, column int) (lsporacle.Location, bool) {
	atomic.AddInt32(&f.calls, 1)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return lsporacle.Location{}, false
		}
	}
	return f.location, f.found
}

func (f *fakeBackend) Shutdown(ctx context.Context) {}

func TestOracleGotoDefinitionResolves(t *testing.T) {
	backend := &fakeBackend{location: lsporacle.Location{File: "pkg/foo.go", Line: 12}, found: true}
	oracle := lsporacle.New(backend, lsporacle.Config{RequestTimeout: time.Second}, nil)
	defer oracle.Shutdown(context.Background())

	require.NoError(t, oracle.Initialize(context.Background()))

	loc, found := oracle.GotoDefinition(context.Background(), "pkg/bar.go", 5, 10)
	assert.True(t, found)
	assert.Equal(t, "pkg/foo.go", loc.File)
	assert.Equal(t, 12, loc.Line)
	assert.EqualValues(t, 1, atomic.LoadInt32(&backend.calls))
}

func TestOracleGotoDefinitionSerializesRequests(t *testing.T) {
	backend := &fakeBackend{found: false, delay: 10 * time.Millisecond}
	oracle := lsporacle.New(backend, lsporacle.Config{RequestTimeout: time.Second}, nil)
	defer oracle.Shutdown(context.Background())

	done := make(chan struct{})
	for i := 0; i < 5; i++ {
		go func() {
			oracle.GotoDefinition(context.Background(), "f.go", 1, 1)
			done <- struct{}{}
		}()
	}
	for i := 0; i < 5; i++ {
		<-done
	}
	assert.EqualValues(t, 5, atomic.LoadInt32(&backend.calls))
}

func TestOracleGotoDefinitionTimesOutToNoDefinition(t *testing.T) {
	backend := &fakeBackend{found: true, delay: 200 * time.Millisecond}
	oracle := lsporacle.New(backend, lsporacle.Config{RequestTimeout: 20 * time.Millisecond}, nil)
	defer oracle.Shutdown(context.Background())

	_, found := oracle.GotoDefinition(context.Background(), "f.go", 1, 1)
	assert.False(t, found)
}

func TestOracleShutdownIsIdempotent(t *testing.T) {
	backend := &fakeBackend{}
	oracle := lsporacle.New(backend, lsporacle.Config{}, nil)
	oracle.Shutdown(context.Background())
	oracle.Shutdown(context.Background())
}
