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

package verify

import (
	"cmp"
	"slices"

	"github.com/netplumber/netplumber/pkg/log"
	"github.com/netplumber/netplumber/pkg/plumber"
)

type anomalyKey struct {
	kind plumber.AnomalyKind
	rule plumber.NodeID
}

// Recorder is a plumber.EventHandler that logs every event and keeps what a
// Report needs. Like the plumber it records, a Recorder is not safe for
// concurrent use.
type Recorder struct {
	logger    log.Logger
	loops     []plumber.LoopEvent
	leaks     []plumber.SliceLeakEvent
	overlaps  []plumber.SliceOverlapEvent
	anomalies map[anomalyKey]plumber.AnomalyEvent
	probes    map[plumber.NodeID]plumber.ProbeEvent
}

var _ plumber.EventHandler = (*Recorder)(nil)

// NewRecorder creates a recorder that logs to logger. A nil logger discards
// the log output.
func NewRecorder(logger log.Logger) *Recorder {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Recorder{
		logger:    logger,
		anomalies: make(map[anomalyKey]plumber.AnomalyEvent),
		probes:    make(map[plumber.NodeID]plumber.ProbeEvent),
	}
}

func (r *Recorder) OnLoop(e plumber.LoopEvent) {
	r.logger.Error("Forwarding loop", "event", e.Event, "path", e.Path)
	r.loops = append(r.loops, e)
}

func (r *Recorder) OnProbe(e plumber.ProbeEvent) {
	r.logger.Info("Probe transition", "probe", e.Probe, "policy_id", e.Data,
		"transition", e.Transition, "event", e.Event)
	r.probes[e.Probe] = e
}

func (r *Recorder) OnSliceOverlap(e plumber.SliceOverlapEvent) {
	r.logger.Info("Slice overlap", "slice", e.Slice, "overlap", e.Overlap)
	r.overlaps = append(r.overlaps, e)
}

func (r *Recorder) OnSliceLeak(e plumber.SliceLeakEvent) {
	r.logger.Error("Slice leak", "node", e.Node, "in", e.In, "out", e.Out, "event", e.Event)
	r.leaks = append(r.leaks, e)
}

func (r *Recorder) OnAnomaly(e plumber.AnomalyEvent) {
	k := anomalyKey{kind: e.Kind, rule: e.Rule}
	if _, ok := r.anomalies[k]; ok {
		return
	}
	r.logger.Info("Rule anomaly", "kind", e.Kind, "table", e.Table, "rule", e.Rule)
	r.anomalies[k] = e
}

// Loops returns the recorded loops in the order they were reported.
func (r *Recorder) Loops() []plumber.LoopEvent {
	return slices.Clone(r.loops)
}

// Leaks returns the recorded slice leaks in the order they were reported.
func (r *Recorder) Leaks() []plumber.SliceLeakEvent {
	return slices.Clone(r.leaks)
}

// Overlaps returns the recorded slice overlaps in the order they were
// reported.
func (r *Recorder) Overlaps() []plumber.SliceOverlapEvent {
	return slices.Clone(r.overlaps)
}

// Anomalies returns each recorded anomaly once, ordered by table, rule and
// kind.
func (r *Recorder) Anomalies() []plumber.AnomalyEvent {
	res := make([]plumber.AnomalyEvent, 0, len(r.anomalies))
	for _, e := range r.anomalies {
		res = append(res, e)
	}
	slices.SortFunc(res, func(a, b plumber.AnomalyEvent) int {
		if c := cmp.Compare(a.Table, b.Table); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Rule, b.Rule); c != 0 {
			return c
		}
		return cmp.Compare(a.Kind, b.Kind)
	})
	return res
}

// LastProbeEvent returns the most recent event of a probe.
func (r *Recorder) LastProbeEvent(id plumber.NodeID) (plumber.ProbeEvent, bool) {
	e, ok := r.probes[id]
	return e, ok
}
