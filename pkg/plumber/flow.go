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
	"strconv"
	"strings"

	"github.com/netplumber/netplumber/pkg/hs"
)

// flow is the header space that one source delivers to one node along one
// path. Flows form a tree per source: a child exists for every pipe the
// parent's processed space crosses.
type flow struct {
	node   NodeID
	source NodeID
	inPort uint32
	pipe   handle // pipe crossed to reach node, zero at the source
	parent handle // zero at the source

	children handleList
	childPos int
	nodePos  int

	// hsObject is the space arriving at node. processed is what leaves it
	// after shadowing and rewriting, nil if the flow is dead or looped.
	hsObject  hs.Set
	processed hs.Set
	looped    bool
}

func (p *Plumber) flow(h handle) *flow {
	if v := p.flows.get(h); v != nil {
		return *v
	}
	return nil
}

// newFlow allocates a flow and links it into its node and its parent.
func (p *Plumber) newFlow(n *node, parent handle, pipe handle, inPort uint32,
	set hs.Set) handle {

	f := &flow{
		node:     n.id,
		inPort:   inPort,
		pipe:     pipe,
		parent:   parent,
		hsObject: set,
	}
	if pf := p.flow(parent); pf != nil {
		f.source = pf.source
	} else {
		f.source = n.id
	}
	h := p.flows.insert(f)
	f.nodePos = n.flows.add(h)
	if pf := p.flow(parent); pf != nil {
		f.childPos = pf.children.add(h)
	}
	p.metrics.flowCreated()
	return h
}

// freeFlow unlinks a flow from its node and its parent and releases it. The
// children must have been removed.
func (p *Plumber) freeFlow(h handle) {
	f := p.flow(h)
	if f == nil {
		return
	}
	if n := p.nodes[f.node]; n != nil {
		if moved, ok := n.flows.removeAt(f.nodePos); ok {
			p.flow(moved).nodePos = f.nodePos
		}
	}
	if pf := p.flow(f.parent); pf != nil {
		if moved, ok := pf.children.removeAt(f.childPos); ok {
			p.flow(moved).childPos = f.childPos
		}
	}
	p.flows.remove(h)
	p.metrics.flowRemoved()
}

// addSourceFlow creates the root flow of a source node and propagates it
// downstream.
func (p *Plumber) addSourceFlow(n *node) {
	fh := p.newFlow(n, handle{}, handle{}, 0, n.source)
	f := p.flow(fh)
	f.processed = n.source.Compact()
	if f.processed.IsEmpty() {
		f.processed = nil
		return
	}
	for _, ph := range n.fwd.snapshot() {
		p.propagateOnPipe(fh, ph)
	}
}

// processSourceFlow processes a flow that just arrived at n. With a zero
// handle, n pulls the flows of its upstream neighbours over all of its
// backward pipes instead.
func (p *Plumber) processSourceFlow(n *node, fh handle) {
	if !fh.valid() {
		for _, ph := range n.bck.snapshot() {
			pp := p.pipe(ph)
			if pp == nil {
				continue
			}
			p.propagateFlowsOnPipe(p.nodes[pp.from], ph)
		}
		return
	}
	switch n.kind {
	case KindRule:
		p.processRuleFlow(n, fh)
	case KindProbe:
		f := p.flow(fh)
		f.processed = f.hsObject.Copy()
		p.probeUpdate(n, fh, probeFlowAdd)
	}
}

func (p *Plumber) processRuleFlow(n *node, fh handle) {
	f := p.flow(fh)
	if p.isLooped(f) {
		f.looped = true
		p.metrics.loop()
		path := p.path(fh)
		p.ctx.Logger.Debug("Loop detected", "node", n.id, "source", f.source,
			"path", path)
		p.ctx.Handler.OnLoop(LoopEvent{Event: p.last, Path: path})
		return
	}
	p.computeRuleFlow(n, f)
	if f.processed == nil {
		return
	}
	for _, ph := range n.fwd.snapshot() {
		p.propagateOnPipe(fh, ph)
	}
}

// computeRuleFlow derives the processed space of f from its arriving space: the
// headers claimed by higher-priority rules on the same port are removed and the
// rewrite is applied.
func (p *Plumber) computeRuleFlow(n *node, f *flow) {
	h := f.hsObject
	for _, ih := range n.rule.influencedBy {
		inf := p.influence(ih)
		if inf.ports.Contains(f.inPort) {
			h = h.DiffArray(inf.comm)
		}
	}
	h = h.Compact()
	if !h.IsEmpty() && n.rule.rewrite {
		h = h.Rewrite(n.rule.mask, n.rule.rw).Compact()
	}
	if h.IsEmpty() {
		f.processed = nil
		return
	}
	f.processed = h
}

// propagateOnPipe sends the processed space of a flow across one forward pipe
// and creates the child flow at the downstream node. A flow has at most one
// child per pipe.
func (p *Plumber) propagateOnPipe(fh, ph handle) {
	f := p.flow(fh)
	if f == nil || f.processed == nil || p.hasChildOn(f, ph) {
		return
	}
	pp := p.pipe(ph)
	n := p.nodes[f.node]
	if n.outputLayer && p.shouldBlock(f, pp.fromPort) {
		return
	}
	h := f.processed.IntersectArray(pp.space)
	if h.IsEmpty() {
		return
	}
	to := p.nodes[pp.to]
	child := p.newFlow(to, fh, ph, pp.toPort, h.Compact())
	p.processSourceFlow(to, child)
}

func (p *Plumber) hasChildOn(f *flow, ph handle) bool {
	for _, ch := range f.children {
		if c := p.flow(ch); c != nil && c.pipe == ph {
			return true
		}
	}
	return false
}

// propagateFlowsOnPipe sends every flow of n across a new pipe.
func (p *Plumber) propagateFlowsOnPipe(n *node, ph handle) {
	for _, fh := range n.flows.snapshot() {
		p.propagateOnPipe(fh, ph)
	}
}

// shouldBlock reports whether a flow leaving its table through port would go
// back out of the port it entered the table through.
func (p *Plumber) shouldBlock(f *flow, port uint32) bool {
	for f != nil {
		n := p.nodes[f.node]
		if n != nil && n.inputLayer {
			return f.inPort == port
		}
		f = p.flow(f.parent)
	}
	return false
}

func (p *Plumber) isLooped(f *flow) bool {
	switch p.loops {
	case LoopByTable:
		n := p.nodes[f.node]
		if n.rule == nil {
			return false
		}
		for a := p.flow(f.parent); a != nil; a = p.flow(a.parent) {
			an := p.nodes[a.node]
			if an == nil || an.rule == nil {
				return false
			}
			if an.rule.table == n.rule.table {
				return true
			}
		}
		return false
	default:
		for a := p.flow(f.parent); a != nil; a = p.flow(a.parent) {
			if a.node == f.node {
				return true
			}
		}
		return false
	}
}

// processAtLocation repairs a flow after the space available to it changed.
// A non-nil change is a space that was removed from the flow; the flow and
// its subtree shrink without being recomputed. Otherwise the flow is recomputed
// from its arriving space.
func (p *Plumber) processAtLocation(fh handle, change *hs.Array) {
	f := p.flow(fh)
	if f == nil {
		return
	}
	n := p.nodes[f.node]
	switch n.kind {
	case KindSource:
		return
	case KindProbe:
		if change != nil {
			if f.processed == nil {
				return
			}
			f.processed = f.processed.DiffArray(*change).Compact()
		} else {
			f.processed = f.hsObject.Copy()
		}
		p.probeUpdate(n, fh, probeFlowModify)
		return
	}
	if f.looped {
		return
	}
	cheap := change != nil && !n.rule.rewrite
	if cheap {
		if f.processed == nil {
			return
		}
		f.processed = f.processed.DiffArray(*change).Compact()
		if f.processed.IsEmpty() {
			f.processed = nil
		}
	} else {
		p.computeRuleFlow(n, f)
	}
	if f.processed == nil {
		p.absorbChildren(f)
		return
	}
	if cheap {
		p.repropagate(fh, change)
	} else {
		p.repropagate(fh, nil)
	}
}

// repropagate pushes the new processed space of a flow to its existing
// children. Without a change, pipes that carried nothing before are tried
// again.
func (p *Plumber) repropagate(fh handle, change *hs.Array) {
	f := p.flow(fh)
	if change != nil {
		for _, ch := range f.children.snapshot() {
			c := p.flow(ch)
			if c == nil {
				continue
			}
			piped, ok := p.pipe(c.pipe).space.Intersect(*change)
			if !ok {
				continue
			}
			c.hsObject = c.hsObject.DiffArray(piped).Compact()
			p.processAtLocation(ch, &piped)
		}
		return
	}
	n := p.nodes[f.node]
	visited := make(map[handle]struct{}, len(f.children))
	for _, ch := range f.children.snapshot() {
		c := p.flow(ch)
		if c == nil {
			continue
		}
		visited[c.pipe] = struct{}{}
		h := f.processed.IntersectArray(p.pipe(c.pipe).space)
		if h.IsEmpty() {
			p.removeFlowTree(ch)
			continue
		}
		c.hsObject = h.Compact()
		p.processAtLocation(ch, nil)
	}
	for _, ph := range n.fwd.snapshot() {
		if _, ok := visited[ph]; ok {
			continue
		}
		p.propagateOnPipe(fh, ph)
	}
}

// absorbChildren removes the subtrees below a flow that became empty.
func (p *Plumber) absorbChildren(f *flow) {
	for _, ch := range f.children.snapshot() {
		p.removeFlowTree(ch)
	}
}

// removeFlowTree removes a flow with all of its descendants.
func (p *Plumber) removeFlowTree(fh handle) {
	f := p.flow(fh)
	if f == nil {
		return
	}
	for _, ch := range f.children.snapshot() {
		p.removeFlowTree(ch)
	}
	if n := p.nodes[f.node]; n != nil && n.kind == KindProbe {
		p.probeUpdate(n, fh, probeFlowDelete)
	}
	p.freeFlow(fh)
}

// removeFlowsFromPipe removes the flows that crossed a pipe.
func (p *Plumber) removeFlowsFromPipe(ph handle) {
	pp := p.pipe(ph)
	to := p.nodes[pp.to]
	for _, fh := range to.flows.snapshot() {
		if f := p.flow(fh); f != nil && f.pipe == ph {
			p.removeFlowTree(fh)
		}
	}
}

// removeNodeFlows removes every flow at n together with its descendants.
func (p *Plumber) removeNodeFlows(n *node) {
	for _, fh := range n.flows.snapshot() {
		p.removeFlowTree(fh)
	}
}

// PathHop is one step of a flow path.
type PathHop struct {
	Node   NodeID   `json:"node"`
	Kind   NodeKind `json:"kind"`
	Table  TableID  `json:"table,omitempty"`
	InPort uint32   `json:"in_port,omitempty"`
}

// Path is the list of hops of a flow, starting at its source.
type Path []PathHop

// String renders the path as node ids, rules suffixed with their table, e.g.
// "1 -> 4@t1 -> 7@t2".
func (p Path) String() string {
	parts := make([]string, 0, len(p))
	for _, h := range p {
		if h.Kind == KindRule {
			parts = append(parts, fmt.Sprintf("%d@t%d", h.Node, h.Table))
			continue
		}
		parts = append(parts, strconv.FormatUint(uint64(h.Node), 10))
	}
	return strings.Join(parts, " -> ")
}

func (p *Plumber) path(fh handle) Path {
	var path Path
	for f := p.flow(fh); f != nil; f = p.flow(f.parent) {
		n := p.nodes[f.node]
		hop := PathHop{Node: f.node, Kind: n.kind, InPort: f.inPort}
		if n.rule != nil {
			hop.Table = n.rule.table
		}
		path = append(path, hop)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}
