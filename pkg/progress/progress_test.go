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

package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drain(t *testing.T, ch *Channel, n int) []Event {
	t.Helper()
	var out []Event
	for i := 0; i < n; i++ {
		select {
		case ev, ok := <-ch.Events():
			if !ok {
				return out
			}
			out = append(out, ev)
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for event %d/%d", i+1, n)
		}
	}
	return out
}

func TestStatusUpdateAlwaysEmits(t *testing.T) {
	ch := New(16)
	go func() {
		ch.StatusUpdate(Walk, "walking repo")
		ch.StatusUpdate(Libraries, "parsing manifests")
		ch.Close()
	}()

	events := drain(t, ch, 2)
	require.Len(t, events, 2)
	assert.Equal(t, Walk, events[0].Step)
	assert.Equal(t, Libraries, events[1].Step)
}

func TestPercentSuppressesUnchangedValue(t *testing.T) {
	ch := New(16)
	go func() {
		ch.Percent(10)
		ch.Percent(10) // unchanged, suppressed
		ch.Percent(100)
		ch.Close()
	}()

	events := drain(t, ch, 2)
	assert.Equal(t, 10, events[0].Percent)
	assert.Equal(t, 100, events[1].Percent)

	// confirm no third event ever arrives
	select {
	case ev, ok := <-ch.Events():
		t.Fatalf("unexpected extra event: %+v (closed=%v)", ev, !ok)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestPercentAlwaysEmitsOnReachingOneHundred(t *testing.T) {
	ch := New(16)
	go func() {
		ch.Percent(50)
		ch.Percent(100)
		ch.Close()
	}()

	events := drain(t, ch, 2)
	require.Len(t, events, 2)
	assert.Equal(t, 100, events[1].Percent)
}

func TestStepsListsAllSixteenInOrder(t *testing.T) {
	require.Len(t, Steps, 16)
	assert.Equal(t, Walk, Steps[0])
	assert.Equal(t, Finalize, Steps[len(Steps)-1])
}
