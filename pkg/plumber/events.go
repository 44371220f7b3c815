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

import "fmt"

// EventType classifies the structural edit that was applied last.
type EventType uint8

const (
	EventNone EventType = iota
	EventAddLink
	EventRemoveLink
	EventAddTable
	EventRemoveTable
	EventAddRule
	EventRemoveRule
	EventAddSource
	EventRemoveSource
	EventStartProbe
	EventStopProbe
	EventAddSlice
	EventRemoveSlice
	EventAddSliceAllow
	EventRemoveSliceAllow
	EventAddSliceMatrix
	EventRemoveSliceMatrix
	EventExpand
)

var eventNames = map[EventType]string{
	EventNone:              "none",
	EventAddLink:           "add_link",
	EventRemoveLink:        "remove_link",
	EventAddTable:          "add_table",
	EventRemoveTable:       "remove_table",
	EventAddRule:           "add_rule",
	EventRemoveRule:        "remove_rule",
	EventAddSource:         "add_source",
	EventRemoveSource:      "remove_source",
	EventStartProbe:        "add_source_probe",
	EventStopProbe:         "remove_source_probe",
	EventAddSlice:          "add_slice",
	EventRemoveSlice:       "remove_slice",
	EventAddSliceAllow:     "add_slice_allow",
	EventRemoveSliceAllow:  "remove_slice_allow",
	EventAddSliceMatrix:    "add_slice_matrix",
	EventRemoveSliceMatrix: "remove_slice_matrix",
	EventExpand:            "expand",
}

func (t EventType) String() string {
	if s, ok := eventNames[t]; ok {
		return s
	}
	return fmt.Sprintf("UNKNOWN(%d)", uint8(t))
}

// MarshalText implements encoding.TextMarshaler.
func (t EventType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// Event identifies the edit that triggered a callback. ID1 and ID2 hold the
// edit's operands, e.g. the link ports or the node id.
type Event struct {
	Type EventType `json:"type"`
	ID1  uint64    `json:"id1"`
	ID2  uint64    `json:"id2,omitempty"`
}

func (e Event) String() string {
	return fmt.Sprintf("%s(%d,%d)", e.Type, e.ID1, e.ID2)
}

// LoopEvent reports a flow that revisited a node (or table) along its path.
// The looping branch is not propagated any further.
type LoopEvent struct {
	Event Event
	// Path is the flow path from its source to the node closing the loop.
	Path Path
}

// SliceOverlapEvent reports a slice that could not be added because its
// header space overlaps an existing slice.
type SliceOverlapEvent struct {
	Event   Event
	Slice   uint64
	Overlap uint64
}

// SliceLeakEvent reports a pipe pair through a node that connects two slices
// without an allow entry.
type SliceLeakEvent struct {
	Event Event
	Node  NodeID
	// In and Out are the slices of the incoming and outgoing pipe.
	In, Out uint64
}

// AnomalyKind classifies rule anomalies.
type AnomalyKind uint8

const (
	// Shadowed rules are completely covered by higher-priority rules.
	Shadowed AnomalyKind = iota + 1
	// Unreachable rules come after rules that together match every header.
	Unreachable
	// Generalized rules are covered by the union of lower-priority rules.
	Generalized
)

func (k AnomalyKind) String() string {
	switch k {
	case Shadowed:
		return "shadowed"
	case Unreachable:
		return "unreachable"
	case Generalized:
		return "generalized"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", uint8(k))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k AnomalyKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// AnomalyEvent reports a rule anomaly within a table.
type AnomalyEvent struct {
	Event Event
	Kind  AnomalyKind
	Table TableID
	Rule  NodeID
}

// EventHandler receives the notifications of a Plumber. All methods are called
// synchronously from within the edit that caused them and must not modify the
// Plumber.
type EventHandler interface {
	OnLoop(LoopEvent)
	OnProbe(ProbeEvent)
	OnSliceOverlap(SliceOverlapEvent)
	OnSliceLeak(SliceLeakEvent)
	OnAnomaly(AnomalyEvent)
}

// Funcs is an EventHandler built from optional functions. Nil functions ignore
// the event.
type Funcs struct {
	Loop         func(LoopEvent)
	Probe        func(ProbeEvent)
	SliceOverlap func(SliceOverlapEvent)
	SliceLeak    func(SliceLeakEvent)
	Anomaly      func(AnomalyEvent)
}

func (f Funcs) OnLoop(e LoopEvent) {
	if f.Loop != nil {
		f.Loop(e)
	}
}

func (f Funcs) OnProbe(e ProbeEvent) {
	if f.Probe != nil {
		f.Probe(e)
	}
}

func (f Funcs) OnSliceOverlap(e SliceOverlapEvent) {
	if f.SliceOverlap != nil {
		f.SliceOverlap(e)
	}
}

func (f Funcs) OnSliceLeak(e SliceLeakEvent) {
	if f.SliceLeak != nil {
		f.SliceLeak(e)
	}
}

func (f Funcs) OnAnomaly(e AnomalyEvent) {
	if f.Anomaly != nil {
		f.Anomaly(e)
	}
}
