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

// PipeStats counts the edges of a node.
type PipeStats struct {
	Fwd          int `json:"fwd" yaml:"fwd"`
	Bck          int `json:"bck" yaml:"bck"`
	InfluenceOn  int `json:"influence_on" yaml:"influence_on"`
	InfluencedBy int `json:"influenced_by" yaml:"influenced_by"`
}

// PipeStats returns the edge counts of a node. Unknown nodes report zeros.
func (p *Plumber) PipeStats(id NodeID) PipeStats {
	n, ok := p.nodes[id]
	if !ok {
		return PipeStats{}
	}
	s := PipeStats{Fwd: len(n.fwd), Bck: len(n.bck)}
	if n.rule != nil {
		s.InfluenceOn = len(n.rule.effectOn)
		s.InfluencedBy = len(n.rule.influencedBy)
	}
	return s
}

// FlowStats sums the representation size of the live flows at a node.
type FlowStats struct {
	// Included is the number of positive terms, Excluded the number of
	// subtracted terms.
	Included int `json:"included" yaml:"included"`
	Excluded int `json:"excluded" yaml:"excluded"`
}

// SourceFlowStats returns the flow statistics of a node. Unknown nodes report
// zeros.
func (p *Plumber) SourceFlowStats(id NodeID) FlowStats {
	n, ok := p.nodes[id]
	if !ok {
		return FlowStats{}
	}
	var s FlowStats
	for _, fh := range n.flows {
		f := p.flow(fh)
		if f.processed == nil {
			continue
		}
		s.Included += f.processed.Count()
		s.Excluded += f.processed.CountDiff()
	}
	return s
}

// Stats summarizes the size of a Plumber.
type Stats struct {
	Length     int `json:"length" yaml:"length"`
	Links      int `json:"links" yaml:"links"`
	Tables     int `json:"tables" yaml:"tables"`
	Rules      int `json:"rules" yaml:"rules"`
	Sources    int `json:"sources" yaml:"sources"`
	Probes     int `json:"probes" yaml:"probes"`
	Pipes      int `json:"pipes" yaml:"pipes"`
	Influences int `json:"influences" yaml:"influences"`
	Flows      int `json:"flows" yaml:"flows"`
	LiveFlows  int `json:"live_flows" yaml:"live_flows"`
	Slices     int `json:"slices,omitempty" yaml:"slices,omitempty"`
}

// Stats returns the current size of the Plumber.
func (p *Plumber) Stats() Stats {
	s := Stats{
		Length:     p.length,
		Tables:     len(p.tables),
		Pipes:      p.pipes.len(),
		Influences: p.influences.len(),
		Flows:      p.flows.len(),
		Slices:     len(p.slices),
	}
	for _, dsts := range p.topology {
		s.Links += len(dsts)
	}
	for _, n := range p.nodes {
		switch n.kind {
		case KindRule:
			s.Rules++
		case KindSource:
			s.Sources++
		case KindProbe:
			s.Probes++
		}
	}
	p.flows.each(func(_ handle, f **flow) {
		if (*f).processed != nil {
			s.LiveFlows++
		}
	})
	return s
}

// Nodes returns the ids of all nodes of the given kind in ascending order.
func (p *Plumber) Nodes(kind NodeKind) []NodeID {
	var ids []NodeID
	for id, n := range p.nodes {
		if n.kind == kind {
			ids = append(ids, id)
		}
	}
	sortIDs(ids)
	return ids
}

// Rules returns the rules of a table in priority order.
func (p *Plumber) Rules(id TableID) ([]NodeID, bool) {
	t, ok := p.tables[id]
	if !ok {
		return nil, false
	}
	return append([]NodeID(nil), t.rules...), true
}
