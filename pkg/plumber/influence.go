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
	"github.com/netplumber/netplumber/pkg/hs"
)

// influence records that the upper rule shadows the lower rule of the same
// table for the headers in comm arriving over ports. The record is referenced
// from both rules, upper.effectOn and lower.influencedBy, and is always added
// to and removed from both lists together.
type influence struct {
	upper, lower NodeID
	comm         hs.Array
	ports        Ports
	upperPos     int
	lowerPos     int
}

func (p *Plumber) influence(h handle) *influence {
	if v := p.influences.get(h); v != nil {
		return *v
	}
	return nil
}

// setTableDependency creates the influences between r and the other rules of
// its table.
func (p *Plumber) setTableDependency(r *node) {
	t := p.tables[r.rule.table]
	for _, id := range t.rules {
		if id == r.id {
			continue
		}
		o := p.nodes[id]
		common := r.in.Intersect(o.in)
		if len(common) == 0 {
			continue
		}
		comm, ok := r.match.Intersect(o.match)
		if !ok {
			continue
		}
		upper, lower := r, o
		if o.rule.index < r.rule.index {
			upper, lower = o, r
		}
		p.link(upper, lower, comm, common)
	}
}

func (p *Plumber) link(upper, lower *node, comm hs.Array, ports Ports) handle {
	inf := &influence{upper: upper.id, lower: lower.id, comm: comm, ports: ports}
	h := p.influences.insert(inf)
	inf.upperPos = upper.rule.effectOn.add(h)
	inf.lowerPos = lower.rule.influencedBy.add(h)
	return h
}

// unlink removes an influence from both of its rules.
func (p *Plumber) unlink(h handle) *influence {
	inf := p.influence(h)
	if inf == nil {
		return nil
	}
	if upper := p.nodes[inf.upper]; upper != nil {
		if moved, ok := upper.rule.effectOn.removeAt(inf.upperPos); ok {
			p.influence(moved).upperPos = inf.upperPos
		}
	}
	if lower := p.nodes[inf.lower]; lower != nil {
		if moved, ok := lower.rule.influencedBy.removeAt(inf.lowerPos); ok {
			p.influence(moved).lowerPos = inf.lowerPos
		}
	}
	p.influences.remove(h)
	return inf
}

// subtractInfluencesFromFlows applies the influences of a new rule to the flows
// already present at the rules it shadows.
func (p *Plumber) subtractInfluencesFromFlows(r *node) {
	for _, h := range r.rule.effectOn.snapshot() {
		inf := p.influence(h)
		if inf == nil {
			continue
		}
		lower := p.nodes[inf.lower]
		comm := inf.comm
		for _, fh := range lower.flows.snapshot() {
			f := p.flow(fh)
			if f == nil || !inf.ports.Contains(f.inPort) {
				continue
			}
			p.processAtLocation(fh, &comm)
		}
	}
}

// removeInfluences unlinks all influences of r. The flows of the rules r
// shadowed are recomputed.
func (p *Plumber) removeInfluences(r *node) {
	for _, h := range r.rule.influencedBy.snapshot() {
		p.unlink(h)
	}
	for _, h := range r.rule.effectOn.snapshot() {
		inf := p.unlink(h)
		if inf == nil {
			continue
		}
		lower := p.nodes[inf.lower]
		for _, fh := range lower.flows.snapshot() {
			f := p.flow(fh)
			if f == nil || !inf.ports.Contains(f.inPort) {
				continue
			}
			p.processAtLocation(fh, nil)
		}
	}
}
