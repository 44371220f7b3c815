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
	"fmt"

	"github.com/netplumber/netplumber/pkg/hs"
	"github.com/netplumber/netplumber/pkg/plumber/cond"
	"github.com/netplumber/netplumber/pkg/private/serrors"
)

// ProbeMode selects how a probe aggregates the test results of its flows.
type ProbeMode uint8

const (
	// Existential probes hold if at least one filtered flow passes the test.
	Existential ProbeMode = iota
	// Universal probes hold if every filtered flow passes the test.
	Universal
)

func (m ProbeMode) String() string {
	switch m {
	case Existential:
		return "existential"
	case Universal:
		return "universal"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", uint8(m))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m ProbeMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *ProbeMode) UnmarshalText(text []byte) error {
	switch string(text) {
	case "existential":
		*m = Existential
	case "universal":
		*m = Universal
	default:
		return serrors.New("unknown probe mode", "mode", string(text))
	}
	return nil
}

// Transition is a change of the state of a probe.
type Transition uint8

const (
	StartedTrue Transition = iota + 1
	StartedFalse
	TrueToFalse
	FalseToTrue
	MoreTrue
	LessTrue
	MoreFalse
	LessFalse
)

var transitionNames = map[Transition]string{
	StartedTrue:  "started_true",
	StartedFalse: "started_false",
	TrueToFalse:  "true_to_false",
	FalseToTrue:  "false_to_true",
	MoreTrue:     "more_true",
	LessTrue:     "less_true",
	MoreFalse:    "more_false",
	LessFalse:    "less_false",
}

func (t Transition) String() string {
	if s, ok := transitionNames[t]; ok {
		return s
	}
	return fmt.Sprintf("UNKNOWN(%d)", uint8(t))
}

// MarshalText implements encoding.TextMarshaler.
func (t Transition) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// ProbeEvent reports a probe transition.
type ProbeEvent struct {
	Event      Event
	Probe      NodeID
	Transition Transition
	// Path and Header describe the flow that caused the transition. Both are
	// empty for the aggregate start events.
	Path   Path
	Header hs.Set
	Data   any
}

// ProbeCallback is called on every transition of one probe.
type ProbeCallback func(ProbeEvent)

// ProbeSpec describes a source probe.
type ProbeSpec struct {
	Ports Ports
	Mode  ProbeMode
	// Match restricts the headers the probe receives. A zero Array receives
	// every header.
	Match  hs.Array
	Filter cond.Condition
	Test   cond.Condition
	// Callback is called in addition to the OnProbe method of the event
	// handler.
	Callback ProbeCallback
	Data     any
}

// ProbeState is the current state of a probe.
type ProbeState struct {
	Mode    ProbeMode `json:"mode"`
	Running bool      `json:"running"`
	// Started is false while a universal probe has not seen any filtered flow.
	Started bool `json:"started"`
	Value   bool `json:"value"`
	// Flows is the number of filtered flows, Count the number of flows that
	// decide the value: passing flows for existential probes, failing flows for
	// universal ones.
	Flows  int                `json:"flows"`
	Count  int                `json:"count"`
	Events map[Transition]int `json:"events"`
}

type probeAction uint8

const (
	probeFlowAdd probeAction = iota
	probeFlowModify
	probeFlowDelete
)

type probe struct {
	mode     ProbeMode
	filter   cond.Condition
	test     cond.Condition
	callback ProbeCallback
	data     any

	running bool
	started bool
	// results holds the test result of every filtered flow.
	results map[handle]bool
	count   int
	events  map[Transition]int
}

func newProbe(spec ProbeSpec) *probe {
	filter, test := spec.Filter, spec.Test
	if filter == nil {
		filter = cond.True{}
	}
	if test == nil {
		test = cond.True{}
	}
	return &probe{
		mode:     spec.Mode,
		filter:   filter,
		test:     test,
		callback: spec.Callback,
		data:     spec.Data,
		results:  make(map[handle]bool),
		events:   make(map[Transition]int),
	}
}

// counts reports whether a test result decides the value of the probe.
func (pr *probe) counts(result bool) bool {
	return result == (pr.mode == Existential)
}

func (pr *probe) value() bool {
	if pr.mode == Existential {
		return pr.count > 0
	}
	return pr.count == 0
}

func (pr *probe) state() ProbeState {
	events := make(map[Transition]int, len(pr.events))
	for t, n := range pr.events {
		events[t] = n
	}
	return ProbeState{
		Mode:    pr.mode,
		Running: pr.running,
		Started: pr.started,
		Value:   pr.value(),
		Flows:   len(pr.results),
		Count:   pr.count,
		Events:  events,
	}
}

// startProbe evaluates the flows present at the probe and reports the result
// as a single start event. A universal probe without filtered flows stays
// unstarted until the first filtered flow arrives.
func (p *Plumber) startProbe(n *node) {
	pr := n.probe
	for _, fh := range n.flows {
		f := p.flow(fh)
		if f.processed == nil || f.processed.IsEmpty() {
			continue
		}
		hop := p.hop(fh)
		if !pr.filter.Eval(hop) {
			continue
		}
		res := pr.test.Eval(hop)
		pr.results[fh] = res
		if pr.counts(res) {
			pr.count++
		}
	}
	pr.running = true
	if pr.mode == Universal && len(pr.results) == 0 {
		return
	}
	pr.started = true
	t := StartedFalse
	if pr.value() {
		t = StartedTrue
	}
	p.emitProbe(n, t, handle{})
}

func (p *Plumber) stopProbe(n *node) {
	pr := n.probe
	pr.running = false
	pr.started = false
	pr.count = 0
	clear(pr.results)
}

// probeUpdate feeds a flow change at a probe into its state machine.
func (p *Plumber) probeUpdate(n *node, fh handle, action probeAction) {
	pr := n.probe
	if !pr.running {
		return
	}
	f := p.flow(fh)
	prev, known := pr.results[fh]
	if action == probeFlowModify && (f.processed == nil || f.processed.IsEmpty()) {
		action = probeFlowDelete
	}
	if action == probeFlowDelete {
		if !known {
			return
		}
		delete(pr.results, fh)
		if pr.counts(prev) {
			p.probeCountChanged(n, -1, fh)
		}
		return
	}
	if f.processed == nil || f.processed.IsEmpty() {
		return
	}
	hop := p.hop(fh)
	if !pr.filter.Eval(hop) {
		if known {
			delete(pr.results, fh)
			if pr.counts(prev) {
				p.probeCountChanged(n, -1, fh)
			}
		}
		return
	}
	res := pr.test.Eval(hop)
	pr.results[fh] = res
	if !pr.started {
		if pr.counts(res) {
			pr.count++
		}
		pr.started = true
		t := StartedFalse
		if pr.value() {
			t = StartedTrue
		}
		p.emitProbe(n, t, fh)
		return
	}
	switch {
	case known && prev == res:
	case known && pr.counts(prev):
		p.probeCountChanged(n, -1, fh)
	case pr.counts(res):
		p.probeCountChanged(n, +1, fh)
	}
}

func (p *Plumber) probeCountChanged(n *node, delta int, fh handle) {
	pr := n.probe
	pr.count += delta
	var t Transition
	switch {
	case pr.mode == Existential && delta > 0 && pr.count == 1:
		t = FalseToTrue
	case pr.mode == Existential && delta > 0:
		t = MoreTrue
	case pr.mode == Existential && pr.count == 0:
		t = TrueToFalse
	case pr.mode == Existential:
		t = LessTrue
	case delta > 0 && pr.count == 1:
		t = TrueToFalse
	case delta > 0:
		t = MoreFalse
	case pr.count == 0:
		t = FalseToTrue
	default:
		t = LessFalse
	}
	p.emitProbe(n, t, fh)
}

func (p *Plumber) emitProbe(n *node, t Transition, fh handle) {
	pr := n.probe
	pr.events[t]++
	p.metrics.probeEvent(t)
	e := ProbeEvent{
		Event:      p.last,
		Probe:      n.id,
		Transition: t,
		Data:       pr.data,
	}
	if f := p.flow(fh); f != nil {
		e.Path = p.path(fh)
		e.Header = f.processed
	}
	p.ctx.Logger.Debug("Probe transition", "probe", n.id, "transition", t)
	if pr.callback != nil {
		pr.callback(e)
	}
	p.ctx.Handler.OnProbe(e)
}
