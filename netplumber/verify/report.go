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
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"gopkg.in/yaml.v2"

	"github.com/netplumber/netplumber/pkg/plumber"
	"github.com/netplumber/netplumber/private/netcfg"
)

// Report is the outcome of a network check.
type Report struct {
	Network   netcfg.Summary  `json:"network" yaml:"network"`
	Stats     plumber.Stats   `json:"stats" yaml:"stats"`
	Probes    []ProbeResult   `json:"probes" yaml:"probes"`
	Loops     []LoopResult    `json:"loops,omitempty" yaml:"loops,omitempty"`
	Leaks     []LeakResult    `json:"leaks,omitempty" yaml:"leaks,omitempty"`
	Overlaps  []OverlapResult `json:"overlaps,omitempty" yaml:"overlaps,omitempty"`
	Anomalies []AnomalyResult `json:"anomalies,omitempty" yaml:"anomalies,omitempty"`
}

// ProbeResult is the state of one policy probe.
type ProbeResult struct {
	// ID is the policy id of the probe.
	ID    uint64            `json:"id" yaml:"id"`
	Node  plumber.NodeID    `json:"node" yaml:"node"`
	Mode  plumber.ProbeMode `json:"mode" yaml:"mode"`
	Pass  bool              `json:"pass" yaml:"pass"`
	Flows int               `json:"flows" yaml:"flows"`
	Count int               `json:"count" yaml:"count"`
	// Last is the most recent transition of the probe.
	Last plumber.Transition `json:"last,omitempty" yaml:"last,omitempty"`
}

type LoopResult struct {
	Event string `json:"event" yaml:"event"`
	Path  string `json:"path" yaml:"path"`
}

type LeakResult struct {
	Node plumber.NodeID `json:"node" yaml:"node"`
	In   uint64         `json:"in" yaml:"in"`
	Out  uint64         `json:"out" yaml:"out"`
}

type OverlapResult struct {
	Slice   uint64 `json:"slice" yaml:"slice"`
	Overlap uint64 `json:"overlap" yaml:"overlap"`
}

type AnomalyResult struct {
	Kind  plumber.AnomalyKind `json:"kind" yaml:"kind"`
	Table plumber.TableID     `json:"table" yaml:"table"`
	Rule  plumber.NodeID      `json:"rule" yaml:"rule"`
}

// Failed returns true if a probe does not hold or if a loop or a slice leak
// was found. Anomalies and overlaps are only reported.
func (r Report) Failed() bool {
	if len(r.Loops) > 0 || len(r.Leaks) > 0 {
		return true
	}
	for _, p := range r.Probes {
		if !p.Pass {
			return true
		}
	}
	return false
}

// Human writes the report in a human readable form to the writer.
func (r Report) Human(w io.Writer, colored bool) {
	noColor := color.New()
	keys := noColor
	header := noColor
	statusGood := noColor
	statusBad := noColor
	if colored {
		keys = color.New(color.FgHiCyan)
		header = color.New(color.FgHiBlack)
		statusGood = color.New(color.FgGreen)
		statusBad = color.New(color.FgRed)
		for _, c := range []*color.Color{keys, header, statusGood, statusBad} {
			c.EnableColor()
		}
	} else {
		noColor.DisableColor()
	}

	s := r.Network
	header.Fprintf(w, "Network (loaded in %s):\n", s.Duration.Round(time.Microsecond))
	fmt.Fprintf(w, "  %s: %d  %s: %d  %s: %d  %s: %d  %s: %d\n",
		keys.Sprint("Tables"), s.Tables, keys.Sprint("Rules"), s.Rules,
		keys.Sprint("Links"), s.Links, keys.Sprint("Sources"), s.Sources,
		keys.Sprint("Probes"), s.Probes)
	if s.Filtered+s.Unsupported+s.Unknown > 0 {
		fmt.Fprintf(w, "  %s: %d  %s: %d  %s: %d\n",
			keys.Sprint("Filtered"), s.Filtered, keys.Sprint("Unsupported"), s.Unsupported,
			keys.Sprint("Unknown commands"), s.Unknown)
	}
	fmt.Fprintf(w, "  %s: %d  %s: %d\n",
		keys.Sprint("Flows"), r.Stats.Flows, keys.Sprint("Live flows"), r.Stats.LiveFlows)

	if len(r.Probes) > 0 {
		header.Fprintln(w, "Probes:")
	}
	for _, p := range r.Probes {
		status := statusGood.Sprint("PASS")
		if !p.Pass {
			status = statusBad.Sprint("FAIL")
		}
		fmt.Fprintf(w, "  [%d] %s %-11s %s: %d %s: %d", p.ID, status, p.Mode,
			keys.Sprint("Flows"), p.Flows, keys.Sprint("Count"), p.Count)
		if p.Last != 0 {
			fmt.Fprintf(w, " (%s)", p.Last)
		}
		fmt.Fprintln(w)
	}
	if len(r.Loops) > 0 {
		header.Fprintf(w, "Loops (%d):\n", len(r.Loops))
	}
	for _, l := range r.Loops {
		fmt.Fprintf(w, "  %s %s\n", statusBad.Sprint(l.Path), l.Event)
	}
	if len(r.Leaks) > 0 {
		header.Fprintf(w, "Slice leaks (%d):\n", len(r.Leaks))
	}
	for _, l := range r.Leaks {
		fmt.Fprintf(w, "  %s: %d %s\n", keys.Sprint("Node"), l.Node,
			statusBad.Sprintf("%d -> %d", l.In, l.Out))
	}
	if len(r.Overlaps) > 0 {
		header.Fprintf(w, "Slice overlaps (%d):\n", len(r.Overlaps))
	}
	for _, o := range r.Overlaps {
		fmt.Fprintf(w, "  %s: %d overlaps %d\n", keys.Sprint("Slice"), o.Slice, o.Overlap)
	}
	if len(r.Anomalies) > 0 {
		header.Fprintf(w, "Anomalies (%d):\n", len(r.Anomalies))
	}
	for _, a := range r.Anomalies {
		fmt.Fprintf(w, "  %s: %d %s: %d %s\n", keys.Sprint("Table"), a.Table,
			keys.Sprint("Rule"), a.Rule, a.Kind)
	}
}

// JSON writes the report as a json object to the writer.
func (r Report) JSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(r)
}

// YAML writes the report as a yaml document to the writer.
func (r Report) YAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(r)
}
