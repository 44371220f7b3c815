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

// Package plumber implements an incremental network verification engine.
//
// A Plumber holds forwarding tables of rules, the links between table ports and
// traffic sources. It keeps, for every source, the tree of flows describing
// which headers reach which rule along which path. Every structural edit
// repairs exactly the flows it affects before it returns. Probes observe the
// flows arriving at a set of ports and report transitions of a condition over
// those flows.
//
// A Plumber is not safe for concurrent use. All callbacks run synchronously
// within the edit that triggered them and must not modify the Plumber.
package plumber

import (
	"cmp"
	"slices"
	"time"

	"github.com/netplumber/netplumber/pkg/hs"
	"github.com/netplumber/netplumber/pkg/private/serrors"
)

// Plumber is the verification engine.
type Plumber struct {
	length  int
	backend hs.Backend
	ctx     Context
	metrics *Metrics
	loops   LoopMode
	anomaly AnomalyChecks
	slicing bool

	// topology maps a port to the ports it is linked to, invTopology the
	// reverse.
	topology    map[uint32][]uint32
	invTopology map[uint32][]uint32
	tables      map[TableID]*table
	nodes       map[NodeID]*node
	inport      map[uint32][]NodeID
	outport     map[uint32][]NodeID
	nextID      NodeID

	pipes      arena[*pipe]
	influences arena[*influence]
	flows      arena[*flow]

	slices map[uint64]*slice
	allow  map[uint64]map[uint64]struct{}

	last Event
}

// capacitor is implemented by backends with a maximum header length.
type capacitor interface {
	Capacity() int
}

// New creates a Plumber for headers of length bytes.
func New(length int, opts ...Option) (*Plumber, error) {
	if length <= 0 {
		return nil, serrors.New("invalid header length", "length", length)
	}
	o := applyOptions(opts)
	if c, ok := o.backend.(capacitor); ok && length > c.Capacity() {
		return nil, serrors.New("header length exceeds backend capacity",
			"length", length, "capacity", c.Capacity())
	}
	p := &Plumber{
		length:      length,
		backend:     o.backend,
		ctx:         o.ctx,
		metrics:     o.metrics,
		loops:       o.loops,
		anomaly:     o.anomaly,
		slicing:     o.slicing,
		topology:    make(map[uint32][]uint32),
		invTopology: make(map[uint32][]uint32),
		tables:      make(map[TableID]*table),
		nodes:       make(map[NodeID]*node),
		inport:      make(map[uint32][]NodeID),
		outport:     make(map[uint32][]NodeID),
	}
	if p.slicing {
		p.initSlices()
	}
	return p, nil
}

// Length returns the header length in bytes.
func (p *Plumber) Length() int { return p.length }

// Backend returns the header set backend.
func (p *Plumber) Backend() hs.Backend { return p.backend }

// Slicing reports whether the slice overlay is enabled.
func (p *Plumber) Slicing() bool { return p.slicing }

// LastEvent returns the last structural edit.
func (p *Plumber) LastEvent() Event { return p.last }

func (p *Plumber) begin(t EventType, id1, id2 uint64) time.Time {
	p.last = Event{Type: t, ID1: id1, ID2: id2}
	return time.Now()
}

func (p *Plumber) allocID() NodeID {
	p.nextID++
	return p.nextID
}

func (p *Plumber) mustLen(n int, what string) {
	if n != p.length {
		panic(serrors.New("header length mismatch", "what", what,
			"expected", p.length, "actual", n))
	}
}

// AddLink links the port from to the port to. Flows leaving from are
// propagated across the new link. Adding an existing link has no effect.
func (p *Plumber) AddLink(from, to uint32) {
	start := p.begin(EventAddLink, uint64(from), uint64(to))
	defer p.metrics.edit(EventAddLink, start, nil)

	if slices.Contains(p.topology[from], to) {
		return
	}
	p.topology[from] = append(p.topology[from], to)
	p.invTopology[to] = append(p.invTopology[to], from)
	for _, fid := range p.outport[from] {
		for _, tid := range p.inport[to] {
			fn, tn := p.nodes[fid], p.nodes[tid]
			ph, ok := p.connect(fn, tn, from, to)
			if !ok {
				continue
			}
			if p.slicing {
				p.checkNodeForSliceLeakage(fn)
				p.checkNodeForSliceLeakage(tn)
			}
			p.propagateFlowsOnPipe(fn, ph)
		}
	}
	p.ctx.Logger.Debug("Link added", "from", from, "to", to)
}

// RemoveLink removes a link together with its pipes and the flows that crossed
// them.
func (p *Plumber) RemoveLink(from, to uint32) (err error) {
	start := p.begin(EventRemoveLink, uint64(from), uint64(to))
	defer func() { p.metrics.edit(EventRemoveLink, start, err) }()

	i := slices.Index(p.topology[from], to)
	if i < 0 {
		return serrors.JoinNoStack(ErrNoLink, nil, "from", from, "to", to)
	}
	p.removeLinkPipes(from, to)
	p.topology[from] = slices.Delete(p.topology[from], i, i+1)
	if len(p.topology[from]) == 0 {
		delete(p.topology, from)
	}
	if j := slices.Index(p.invTopology[to], from); j >= 0 {
		p.invTopology[to] = slices.Delete(p.invTopology[to], j, j+1)
		if len(p.invTopology[to]) == 0 {
			delete(p.invTopology, to)
		}
	}
	p.ctx.Logger.Debug("Link removed", "from", from, "to", to)
	return nil
}

// AddTable adds an empty table with the given ports. Adding a table that
// already exists does nothing.
func (p *Plumber) AddTable(id TableID, ports Ports) (err error) {
	start := p.begin(EventAddTable, uint64(id), 0)
	defer func() { p.metrics.edit(EventAddTable, start, err) }()

	if id == 0 {
		return serrors.JoinNoStack(ErrInvalidTable, nil, "table", id)
	}
	if _, ok := p.tables[id]; ok {
		p.ctx.Logger.Debug("Table exists", "table", id)
		return nil
	}
	p.tables[id] = &table{id: id, ports: NewPorts(ports...)}
	p.ctx.Logger.Debug("Table added", "table", id, "ports", ports)
	return nil
}

// RemoveTable removes a table and all of its rules.
func (p *Plumber) RemoveTable(id TableID) (err error) {
	start := p.begin(EventRemoveTable, uint64(id), 0)
	defer func() { p.metrics.edit(EventRemoveTable, start, err) }()

	t, ok := p.tables[id]
	if !ok {
		return serrors.JoinNoStack(ErrNoTable, nil, "table", id)
	}
	for _, rid := range slices.Clone(t.rules) {
		p.removeRule(p.nodes[rid])
	}
	delete(p.tables, id)
	p.ctx.Logger.Debug("Table removed", "table", id)
	return nil
}

// TablePorts returns the ports of a table.
func (p *Plumber) TablePorts(id TableID) (Ports, bool) {
	t, ok := p.tables[id]
	if !ok {
		return nil, false
	}
	return slices.Clone(t.ports), true
}

// AddRule adds a rule at position index of a table. Rules with a lower index
// take precedence. IndexLast appends the rule. Empty in ports default to all
// ports of the table. A rule with a zero mask and rewrite forwards headers
// unchanged. Otherwise positions where mask is 1 are set to the symbol of rw.
// Rules with empty out ports drop the headers they match.
//
// The match, mask and rewrite must have the length of the Plumber, otherwise
// AddRule panics.
func (p *Plumber) AddRule(tid TableID, index uint32, in, out Ports,
	match, mask, rw hs.Array) (_ NodeID, err error) {

	start := p.begin(EventAddRule, 0, 0)
	defer func() { p.metrics.edit(EventAddRule, start, err) }()

	t, ok := p.tables[tid]
	if !ok {
		return 0, serrors.JoinNoStack(ErrNoTable, nil, "table", tid)
	}
	in, out = NewPorts(in...), NewPorts(out...)
	if !t.ports.ContainsAll(in) || !t.ports.ContainsAll(out) {
		return 0, serrors.JoinNoStack(ErrPortNotInTable, nil, "table", tid,
			"table_ports", t.ports, "in", in, "out", out)
	}
	if len(in) == 0 {
		in = slices.Clone(t.ports)
	}
	if index == IndexLast {
		index = 0
		if l := len(t.rules); l > 0 {
			index = p.nodes[t.rules[l-1]].rule.index + 1
		}
	}
	pos, found := slices.BinarySearchFunc(t.rules, index, func(id NodeID, idx uint32) int {
		return cmp.Compare(p.nodes[id].rule.index, idx)
	})
	if found {
		return 0, serrors.JoinNoStack(ErrDuplicateIndex, nil, "table", tid, "index", index)
	}
	p.mustLen(match.Len(), "match")
	rewrite := mask.Len() != 0 && rw.Len() != 0
	invMatch := match.Copy()
	if rewrite {
		p.mustLen(mask.Len(), "mask")
		p.mustLen(rw.Len(), "rewrite")
		invMatch, _ = match.Rewrite(mask, rw)
	} else {
		mask, rw = hs.Array{}, hs.Array{}
	}

	id := p.allocID()
	p.last.ID1 = uint64(id)
	n := &node{
		id:          id,
		kind:        KindRule,
		in:          in,
		out:         out,
		match:       match.Copy(),
		invMatch:    invMatch,
		inputLayer:  in.Overlaps(t.ports),
		outputLayer: out.Overlaps(t.ports),
		rule: &rule{
			table:   tid,
			index:   index,
			mask:    mask,
			rw:      rw,
			rewrite: rewrite,
		},
	}
	p.nodes[id] = n
	t.rules = slices.Insert(t.rules, pos, id)
	p.setPortMaps(n)
	p.setTableDependency(n)
	// Shadowed flows are repaired while the rule has no pipes yet.
	p.subtractInfluencesFromFlows(n)
	p.setNodePipelines(n)
	p.processSourceFlow(n, handle{})
	p.ctx.Logger.Debug("Rule added", "table", tid, "index", index, "rule", id)

	if p.anomaly.any() {
		p.checkTableAnomalies(t, p.anomaly)
	}
	return id, nil
}

// RemoveRule removes a rule. The flows it carried are removed, the flows it
// shadowed at lower-priority rules are recomputed.
func (p *Plumber) RemoveRule(id NodeID) (err error) {
	start := p.begin(EventRemoveRule, uint64(id), 0)
	defer func() { p.metrics.edit(EventRemoveRule, start, err) }()

	n, ok := p.nodes[id]
	if !ok || n.kind != KindRule {
		return serrors.JoinNoStack(ErrNoNode, nil, "rule", id)
	}
	p.removeRule(n)
	p.ctx.Logger.Debug("Rule removed", "rule", id)
	return nil
}

func (p *Plumber) removeRule(n *node) {
	p.removeNodeFlows(n)
	p.removeNodePipes(n)
	p.removeInfluences(n)
	p.clearPortMaps(n)
	t := p.tables[n.rule.table]
	if i := t.position(n.id); i >= 0 {
		t.rules = slices.Delete(t.rules, i, i+1)
	}
	delete(p.nodes, n.id)
}

// AddSource adds a source injecting the header set into the given ports.
func (p *Plumber) AddSource(set hs.Set, ports Ports) NodeID {
	start := p.begin(EventAddSource, 0, 0)
	defer p.metrics.edit(EventAddSource, start, nil)

	p.mustLen(set.Len(), "source")
	id := p.allocID()
	p.last.ID1 = uint64(id)
	full := hs.FullArray(p.length)
	n := &node{
		id:       id,
		kind:     KindSource,
		out:      NewPorts(ports...),
		match:    full,
		invMatch: full,
		source:   set.Compact(),
	}
	p.nodes[id] = n
	p.setPortMaps(n)
	p.setNodePipelines(n)
	p.addSourceFlow(n)
	p.ctx.Logger.Debug("Source added", "source", id, "ports", n.out)
	return id
}

// RemoveSource removes a source and all of its flows.
func (p *Plumber) RemoveSource(id NodeID) (err error) {
	start := p.begin(EventRemoveSource, uint64(id), 0)
	defer func() { p.metrics.edit(EventRemoveSource, start, err) }()

	n, ok := p.nodes[id]
	if !ok || n.kind != KindSource {
		return serrors.JoinNoStack(ErrNoNode, nil, "source", id)
	}
	p.removeNode(n)
	p.ctx.Logger.Debug("Source removed", "source", id)
	return nil
}

func (p *Plumber) removeNode(n *node) {
	p.removeNodeFlows(n)
	p.removeNodePipes(n)
	p.clearPortMaps(n)
	delete(p.nodes, n.id)
}

// AddSourceProbe adds a probe on the given ports and starts it. The initial
// state is reported through a StartedTrue or StartedFalse event.
func (p *Plumber) AddSourceProbe(spec ProbeSpec) NodeID {
	start := p.begin(EventStartProbe, 0, 0)
	defer p.metrics.edit(EventStartProbe, start, nil)

	match := spec.Match
	if match.Len() == 0 {
		match = hs.FullArray(p.length)
	}
	p.mustLen(match.Len(), "probe match")
	id := p.allocID()
	p.last.ID1 = uint64(id)
	n := &node{
		id:       id,
		kind:     KindProbe,
		in:       NewPorts(spec.Ports...),
		match:    match.Copy(),
		invMatch: match.Copy(),
		probe:    newProbe(spec),
	}
	p.nodes[id] = n
	p.setPortMaps(n)
	p.setNodePipelines(n)
	p.processSourceFlow(n, handle{})
	p.startProbe(n)
	p.ctx.Logger.Debug("Probe added", "probe", id, "ports", n.in, "mode", spec.Mode)
	return id
}

// RemoveSourceProbe stops and removes a probe.
func (p *Plumber) RemoveSourceProbe(id NodeID) (err error) {
	start := p.begin(EventStopProbe, uint64(id), 0)
	defer func() { p.metrics.edit(EventStopProbe, start, err) }()

	n, ok := p.nodes[id]
	if !ok || n.kind != KindProbe {
		return serrors.JoinNoStack(ErrNoNode, nil, "probe", id)
	}
	p.stopProbe(n)
	p.removeNode(n)
	p.ctx.Logger.Debug("Probe removed", "probe", id)
	return nil
}

// ProbeState returns the state of a probe.
func (p *Plumber) ProbeState(id NodeID) (ProbeState, error) {
	n, ok := p.nodes[id]
	if !ok || n.kind != KindProbe {
		return ProbeState{}, serrors.JoinNoStack(ErrNoNode, nil, "probe", id)
	}
	return n.probe.state(), nil
}

// Expand grows the header length to length bytes. New positions are
// wildcards. Expand never shrinks; it returns the resulting length.
func (p *Plumber) Expand(length int) (_ int, err error) {
	start := p.begin(EventExpand, uint64(length), 0)
	defer func() { p.metrics.edit(EventExpand, start, err) }()

	if length <= p.length {
		return p.length, nil
	}
	if c, ok := p.backend.(capacitor); ok && length > c.Capacity() {
		return p.length, serrors.New("header length exceeds backend capacity",
			"length", length, "capacity", c.Capacity())
	}
	for _, n := range p.nodes {
		n.match = n.match.Enlarge(length)
		n.invMatch = n.invMatch.Enlarge(length)
		if n.rule != nil && n.rule.rewrite {
			n.rule.mask = n.rule.mask.Enlarge(length)
			n.rule.rw = n.rule.rw.Enlarge(length)
		}
		if n.source != nil {
			n.source = n.source.Enlarge(length)
		}
	}
	p.pipes.each(func(_ handle, pp **pipe) {
		(*pp).space = (*pp).space.Enlarge(length)
	})
	p.influences.each(func(_ handle, inf **influence) {
		(*inf).comm = (*inf).comm.Enlarge(length)
	})
	p.flows.each(func(_ handle, f **flow) {
		(*f).hsObject = (*f).hsObject.Enlarge(length)
		if (*f).processed != nil {
			(*f).processed = (*f).processed.Enlarge(length)
		}
	})
	for _, s := range p.slices {
		s.space = s.space.Enlarge(length)
	}
	p.ctx.Logger.Debug("Header length expanded", "from", p.length, "to", length)
	p.length = length
	return length, nil
}
