// Copyright 2026 The NetPlumber Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package plumber

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/netplumber/netplumber/pkg/private/prom"
)

// Metrics are the prometheus metrics of a Plumber. A nil *Metrics disables
// metrics.
type Metrics struct {
	Edits        *prometheus.CounterVec
	EditDuration *prometheus.HistogramVec
	FlowsCreated prometheus.Counter
	FlowsRemoved prometheus.Counter
	LiveFlows    prometheus.Gauge
	Loops        prometheus.Counter
	ProbeEvents  *prometheus.CounterVec
}

// NewMetrics creates the metrics and registers them with reg. A nil reg selects
// the default registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := prom.Factory{Registerer: reg, Subsystem: "plumber"}
	return &Metrics{
		Edits: f.NewCounterVec("edits_total",
			"Number of structural edits.", prom.LabelOperation, prom.LabelResult),
		EditDuration: f.NewHistogramVec("edit_duration_seconds",
			"Time spent applying a structural edit, including flow repair.",
			prom.DefaultLatencyBuckets, prom.LabelOperation),
		FlowsCreated: f.NewCounter("flows_created_total", "Number of flows created."),
		FlowsRemoved: f.NewCounter("flows_removed_total", "Number of flows removed."),
		LiveFlows:    f.NewGauge("flows", "Number of live flows."),
		Loops:        f.NewCounter("loops_total", "Number of detected forwarding loops."),
		ProbeEvents: f.NewCounterVec("probe_events_total",
			"Number of probe transition events.", prom.LabelEvent),
	}
}

func (m *Metrics) edit(op EventType, start time.Time, err error) {
	if m == nil {
		return
	}
	result := prom.Success
	if err != nil {
		result = errorResult(err)
	}
	m.Edits.WithLabelValues(op.String(), result).Inc()
	m.EditDuration.WithLabelValues(op.String()).Observe(time.Since(start).Seconds())
}

func (m *Metrics) flowCreated() {
	if m == nil {
		return
	}
	m.FlowsCreated.Inc()
	m.LiveFlows.Inc()
}

func (m *Metrics) flowRemoved() {
	if m == nil {
		return
	}
	m.FlowsRemoved.Inc()
	m.LiveFlows.Dec()
}

func (m *Metrics) loop() {
	if m == nil {
		return
	}
	m.Loops.Inc()
}

func (m *Metrics) probeEvent(t Transition) {
	if m == nil {
		return
	}
	m.ProbeEvents.WithLabelValues(t.String()).Inc()
}
