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
	"cmp"
	"slices"

	"github.com/netplumber/netplumber/pkg/hs"
	"github.com/netplumber/netplumber/pkg/plumber/cond"
)

// The dump types are snapshots for JSON and YAML encoding. Header sets are
// rendered as strings so that dumps do not depend on the backend.

type Link struct {
	From uint32 `json:"from" yaml:"from"`
	To   uint32 `json:"to" yaml:"to"`
}

type RuleDump struct {
	ID      NodeID    `json:"id" yaml:"id"`
	Index   uint32    `json:"index" yaml:"index"`
	In      Ports     `json:"in_ports" yaml:"in_ports"`
	Out     Ports     `json:"out_ports" yaml:"out_ports"`
	Match   hs.Array  `json:"match" yaml:"match"`
	Mask    *hs.Array `json:"mask,omitempty" yaml:"mask,omitempty"`
	Rewrite *hs.Array `json:"rewrite,omitempty" yaml:"rewrite,omitempty"`
	// InfluencedBy lists the higher-priority rules overlapping this one.
	InfluencedBy []NodeID  `json:"influenced_by,omitempty" yaml:"influenced_by,omitempty"`
	Stats        PipeStats `json:"stats" yaml:"stats"`
}

type TableDump struct {
	ID    TableID    `json:"id" yaml:"id"`
	Ports Ports      `json:"ports" yaml:"ports"`
	Rules []RuleDump `json:"rules" yaml:"rules"`
}

type SourceDump struct {
	ID     NodeID `json:"id" yaml:"id"`
	Ports  Ports  `json:"ports" yaml:"ports"`
	Header string `json:"header" yaml:"header"`
}

type ProbeDump struct {
	ID     NodeID     `json:"id" yaml:"id"`
	Ports  Ports      `json:"ports" yaml:"ports"`
	Mode   ProbeMode  `json:"mode" yaml:"mode"`
	Filter cond.JSON  `json:"filter" yaml:"-"`
	Test   cond.JSON  `json:"test" yaml:"-"`
	State  ProbeState `json:"state" yaml:"state"`
}

// NetworkDump is the plumbing network: links, tables with their rules,
// sources and probes.
type NetworkDump struct {
	Length  int          `json:"length" yaml:"length"`
	Backend string       `json:"backend" yaml:"backend"`
	Links   []Link       `json:"links" yaml:"links"`
	Tables  []TableDump  `json:"tables" yaml:"tables"`
	Sources []SourceDump `json:"sources" yaml:"sources"`
	Probes  []ProbeDump  `json:"probes" yaml:"probes"`
}

func sortIDs[T ~uint32 | ~uint64](ids []T) {
	slices.Sort(ids)
}

// DumpNetwork returns a snapshot of the plumbing network.
func (p *Plumber) DumpNetwork() NetworkDump {
	d := NetworkDump{
		Length:  p.length,
		Backend: p.backend.Name(),
		Links:   p.Links(),
	}
	tids := make([]TableID, 0, len(p.tables))
	for id := range p.tables {
		tids = append(tids, id)
	}
	sortIDs(tids)
	for _, tid := range tids {
		t := p.tables[tid]
		td := TableDump{ID: tid, Ports: t.ports, Rules: make([]RuleDump, 0, len(t.rules))}
		for _, id := range t.rules {
			td.Rules = append(td.Rules, p.dumpRule(p.nodes[id]))
		}
		d.Tables = append(d.Tables, td)
	}
	for _, id := range p.Nodes(KindSource) {
		n := p.nodes[id]
		d.Sources = append(d.Sources, SourceDump{ID: id, Ports: n.out, Header: n.source.String()})
	}
	for _, id := range p.Nodes(KindProbe) {
		n := p.nodes[id]
		d.Probes = append(d.Probes, ProbeDump{
			ID:     id,
			Ports:  n.in,
			Mode:   n.probe.mode,
			Filter: cond.JSON{Condition: n.probe.filter},
			Test:   cond.JSON{Condition: n.probe.test},
			State:  n.probe.state(),
		})
	}
	return d
}

func (p *Plumber) dumpRule(n *node) RuleDump {
	r := RuleDump{
		ID:    n.id,
		Index: n.rule.index,
		In:    n.in,
		Out:   n.out,
		Match: n.match,
		Stats: p.PipeStats(n.id),
	}
	if n.rule.rewrite {
		mask, rw := n.rule.mask, n.rule.rw
		r.Mask, r.Rewrite = &mask, &rw
	}
	for _, h := range n.rule.influencedBy {
		r.InfluencedBy = append(r.InfluencedBy, p.influence(h).upper)
	}
	sortIDs(r.InfluencedBy)
	return r
}

// Links returns all links ordered by their ports.
func (p *Plumber) Links() []Link {
	var links []Link
	for from, dsts := range p.topology {
		for _, to := range dsts {
			links = append(links, Link{From: from, To: to})
		}
	}
	slices.SortFunc(links, func(a, b Link) int {
		if c := cmp.Compare(a.From, b.From); c != 0 {
			return c
		}
		return cmp.Compare(a.To, b.To)
	})
	return links
}

// PipeDump is one pipe.
type PipeDump struct {
	From     NodeID `json:"from" yaml:"from"`
	To       NodeID `json:"to" yaml:"to"`
	FromPort uint32 `json:"from_port" yaml:"from_port"`
	ToPort   uint32 `json:"to_port" yaml:"to_port"`
	Space    string `json:"space" yaml:"space"`
	Slice    uint64 `json:"slice,omitempty" yaml:"slice,omitempty"`
}

// DumpPipes returns the forward pipes of all nodes, ordered by node.
func (p *Plumber) DumpPipes() []PipeDump {
	ids := make([]NodeID, 0, len(p.nodes))
	for id := range p.nodes {
		ids = append(ids, id)
	}
	sortIDs(ids)
	var res []PipeDump
	for _, id := range ids {
		for _, h := range p.nodes[id].fwd {
			pp := p.pipe(h)
			res = append(res, PipeDump{
				From:     pp.from,
				To:       pp.to,
				FromPort: pp.fromPort,
				ToPort:   pp.toPort,
				Space:    pp.space.String(),
				Slice:    pp.slice,
			})
		}
	}
	return res
}

// FlowInfo describes one flow at a node.
type FlowInfo struct {
	Source NodeID `json:"source" yaml:"source"`
	InPort uint32 `json:"in_port" yaml:"in_port"`
	Path   Path   `json:"path" yaml:"path"`
	// Processed is nil for flows that are dead or looped.
	Processed hs.Set `json:"-" yaml:"-"`
	Header    string `json:"header" yaml:"header"`
	Looped    bool   `json:"looped,omitempty" yaml:"looped,omitempty"`
}

// Flows returns the flows at a node, including dead and looped ones.
func (p *Plumber) Flows(id NodeID) []FlowInfo {
	n, ok := p.nodes[id]
	if !ok {
		return nil
	}
	res := make([]FlowInfo, 0, len(n.flows))
	for _, fh := range n.flows {
		f := p.flow(fh)
		fi := FlowInfo{
			Source:    f.source,
			InPort:    f.inPort,
			Path:      p.path(fh),
			Processed: f.processed,
			Looped:    f.looped,
		}
		if f.processed != nil {
			fi.Header = f.processed.String()
		}
		res = append(res, fi)
	}
	return res
}

// FlowTree is the flow tree below one flow.
type FlowTree struct {
	Node     NodeID     `json:"node" yaml:"node"`
	InPort   uint32     `json:"in_port,omitempty" yaml:"in_port,omitempty"`
	Header   string     `json:"header" yaml:"header"`
	Looped   bool       `json:"looped,omitempty" yaml:"looped,omitempty"`
	Children []FlowTree `json:"children,omitempty" yaml:"children,omitempty"`
}

// DumpFlowTrees returns the flow tree of every source.
func (p *Plumber) DumpFlowTrees() []FlowTree {
	var res []FlowTree
	for _, id := range p.Nodes(KindSource) {
		for _, fh := range p.nodes[id].flows {
			res = append(res, p.flowTree(fh))
		}
	}
	return res
}

func (p *Plumber) flowTree(fh handle) FlowTree {
	f := p.flow(fh)
	t := FlowTree{Node: f.node, InPort: f.inPort, Looped: f.looped}
	if f.processed != nil {
		t.Header = f.processed.String()
	}
	for _, ch := range f.children {
		t.Children = append(t.Children, p.flowTree(ch))
	}
	return t
}

// SliceDump is one slice.
type SliceDump struct {
	ID    uint64   `json:"id" yaml:"id"`
	Space string   `json:"space" yaml:"space"`
	Pipes int      `json:"pipes" yaml:"pipes"`
	Allow []uint64 `json:"allow,omitempty" yaml:"allow,omitempty"`
}

// DumpSlices returns all slices including the free space, slice 0.
func (p *Plumber) DumpSlices() []SliceDump {
	var res []SliceDump
	for _, id := range p.sliceIDs() {
		s := p.slices[id]
		d := SliceDump{ID: id, Space: s.space.String(), Pipes: len(s.pipes)}
		for out := range p.allow[id] {
			d.Allow = append(d.Allow, out)
		}
		sortIDs(d.Allow)
		res = append(res, d)
	}
	return res
}

// Dependency is an influence between two rules of a table.
type Dependency struct {
	Table TableID  `json:"table" yaml:"table"`
	Upper NodeID   `json:"upper" yaml:"upper"`
	Lower NodeID   `json:"lower" yaml:"lower"`
	Ports Ports    `json:"ports" yaml:"ports"`
	Comm  hs.Array `json:"comm" yaml:"comm"`
}

// DumpDependencies returns the influences between rules, ordered by the upper
// and then the lower rule.
func (p *Plumber) DumpDependencies() []Dependency {
	var res []Dependency
	p.influences.each(func(_ handle, inf **influence) {
		i := *inf
		res = append(res, Dependency{
			Table: p.nodes[i.upper].rule.table,
			Upper: i.upper,
			Lower: i.lower,
			Ports: i.ports,
			Comm:  i.comm,
		})
	})
	slices.SortFunc(res, func(a, b Dependency) int {
		if c := cmp.Compare(a.Upper, b.Upper); c != 0 {
			return c
		}
		return cmp.Compare(a.Lower, b.Lower)
	})
	return res
}
