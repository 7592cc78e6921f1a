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
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics mirrors pkg/ingestion/metrics.go's sync.Once-guarded
// CounterVec registration style, generalized from per-concern counters
// (delta added/modified/deleted, embeddings computed/skipped) to one
// vector keyed by the sixteen build steps.
type Metrics struct {
	once sync.Once

	stepStarted *prometheus.CounterVec
	percentLast prometheus.Gauge
}

// NewMetrics registers the step counter and percent gauge against reg.
// A nil reg is valid — metrics are simply not exported (used by tests and
// any caller that only wants the progress stream, not Prometheus wiring).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{}
	m.once.Do(func() {
		m.stepStarted = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cgraph",
			Subsystem: "build",
			Name:      "step_started_total",
			Help:      "Count of build steps entered, labeled by step name.",
		}, []string{"step"})
		m.percentLast = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "cgraph",
			Subsystem: "build",
			Name:      "percent_complete",
			Help:      "Most recently published completion percentage for the active build.",
		})
		if reg != nil {
			reg.MustRegister(m.stepStarted, m.percentLast)
		}
	})
	return m
}

// Observe drains ch, recording each event into the metrics and
// forwarding nothing else — callers wanting a terminal bar too should use
// a separate subscriber via a fan-out, since a Channel has one reader.
func (m *Metrics) Observe(ch *Channel) {
	for ev := range ch.Events() {
		if ev.Percent < 0 {
			m.stepStarted.WithLabelValues(string(ev.Step)).Inc()
			continue
		}
		m.percentLast.Set(float64(ev.Percent))
	}
}
