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

// Package progress publishes the sixteen coarse build steps and a
// throttled completion percentage a caller can drive a terminal progress
// bar or a Prometheus gauge from (spec §4.10).
//
// Grounded on cmd/cie/progress.go's TTY-aware progressbar.ProgressBar
// wiring (generalized from one file's progress bar to a channel that a
// single subscriber, such as Pipe or Metrics.Observe, drains) and
// pkg/ingestion/metrics.go's
// sync.Once-guarded prometheus.CounterVec registration style.
package progress

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Step is one of the sixteen coarse build phases named in spec §4.10.
type Step string

const (
	Walk       Step = "Walk"
	Libraries  Step = "Libraries"
	Imports    Step = "Imports"
	Classes    Step = "Classes"
	Traits     Step = "Traits"
	Instances  Step = "Instances"
	DataModels Step = "DataModels"
	Functions  Step = "Functions"
	Tests      Step = "Tests"
	Endpoints  Step = "Endpoints"
	Requests   Step = "Requests"
	Pages      Step = "Pages"
	Calls      Step = "Calls"
	Resolve    Step = "Resolve"
	Link       Step = "Link"
	Finalize   Step = "Finalize"
)

// Steps lists the sixteen steps in their canonical order.
var Steps = []Step{
	Walk, Libraries, Imports, Classes, Traits, Instances, DataModels,
	Functions, Tests, Endpoints, Requests, Pages, Calls, Resolve, Link, Finalize,
}

// throttleInterval is the spec's "≥100ms since the last emission" window.
const throttleInterval = 100 * time.Millisecond

// Event is one message published on a Channel: either a step transition
// (Percent == -1) or a percentage update (Step == "").
type Event struct {
	Step    Step
	Message string
	Percent int // -1 when this Event carries a step transition, not a percentage
}

// Channel is a single build's progress stream. One build owns one
// Channel; StatusUpdate and Percent are safe to call concurrently from
// the goroutines driving different languages' assembly.
type Channel struct {
	mu        sync.Mutex
	events    chan Event
	lastValue int
	lastEmit  time.Time
	hasValue  bool
}

// New allocates a Channel with the given event buffer size.
func New(buffer int) *Channel {
	return &Channel{events: make(chan Event, buffer), lastValue: -1}
}

// Events returns the read side of the channel. Closed once Close is called.
func (c *Channel) Events() <-chan Event { return c.events }

// StatusUpdate publishes one of the sixteen coarse steps, unconditionally
// (spec §4.10: "a status_update event is sent per step").
func (c *Channel) StatusUpdate(step Step, message string) {
	c.events <- Event{Step: step, Message: message, Percent: -1}
}

// Percent publishes a 0-100 completion value, throttled: suppressed if
// unchanged since the last emission, otherwise emitted only once at least
// throttleInterval has elapsed or the value has reached 100 (spec §4.10).
func (c *Channel) Percent(value int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.hasValue && value == c.lastValue {
		return
	}
	now := time.Now()
	if c.hasValue && value != 100 && now.Sub(c.lastEmit) < throttleInterval {
		return
	}
	c.lastValue = value
	c.lastEmit = now
	c.hasValue = true
	c.events <- Event{Percent: value}
}

// Close signals no further events will be published.
func (c *Channel) Close() { close(c.events) }
