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

type pipe struct {
	from, to         NodeID
	fromPort, toPort uint32
	// space is the header space that can cross the pipe: the image of the
	// upstream rule intersected with the match of the downstream rule.
	space  hs.Array
	fwdPos int
	bckPos int
	// slice is the slice the pipe belongs to, slicePos its position there.
	slice    uint64
	slicePos int
}

func (p *Plumber) pipe(h handle) *pipe {
	if v := p.pipes.get(h); v != nil {
		return *v
	}
	return nil
}

// connect creates the pipe from -> to if any header can cross it.
func (p *Plumber) connect(from, to *node, fromPort, toPort uint32) (handle, bool) {
	space, ok := from.invMatch.Intersect(to.match)
	if !ok {
		return handle{}, false
	}
	pp := &pipe{from: from.id, to: to.id, fromPort: fromPort, toPort: toPort, space: space}
	h := p.pipes.insert(pp)
	pp.fwdPos = from.fwd.add(h)
	pp.bckPos = to.bck.add(h)
	if p.slicing {
		p.addPipeToSlices(h, pp)
	}
	return h, true
}

// disconnect deletes a pipe. Flows that crossed it must have been removed.
func (p *Plumber) disconnect(h handle) {
	pp := p.pipe(h)
	if pp == nil {
		return
	}
	if p.slicing {
		p.removePipeFromSlice(pp)
	}
	if from := p.nodes[pp.from]; from != nil {
		if moved, ok := from.fwd.removeAt(pp.fwdPos); ok {
			p.pipe(moved).fwdPos = pp.fwdPos
		}
	}
	if to := p.nodes[pp.to]; to != nil {
		if moved, ok := to.bck.removeAt(pp.bckPos); ok {
			p.pipe(moved).bckPos = pp.bckPos
		}
	}
	p.pipes.remove(h)
}

// setNodePipelines creates the forward and backward pipes of a new node.
func (p *Plumber) setNodePipelines(n *node) {
	for _, out := range n.out {
		for _, dst := range p.topology[out] {
			for _, id := range p.inport[dst] {
				p.connect(n, p.nodes[id], out, dst)
			}
		}
	}
	for _, in := range n.in {
		for _, src := range p.invTopology[in] {
			for _, id := range p.outport[src] {
				// Self pipes were created by the forward pass.
				if id == n.id {
					continue
				}
				p.connect(p.nodes[id], n, src, in)
			}
		}
	}
	if p.slicing {
		p.checkNodeForSliceLeakage(n)
	}
}

// removeLinkPipes deletes the pipes created for the link from -> to, together
// with the flows that crossed them.
func (p *Plumber) removeLinkPipes(from, to uint32) {
	for _, id := range p.outport[from] {
		n := p.nodes[id]
		for _, h := range n.fwd.snapshot() {
			pp := p.pipe(h)
			if pp.fromPort != from || pp.toPort != to {
				continue
			}
			p.removeFlowsFromPipe(h)
			p.disconnect(h)
		}
	}
}

// removeNodePipes deletes all pipes of n. The flows of n must have been removed.
func (p *Plumber) removeNodePipes(n *node) {
	for _, h := range n.fwd.snapshot() {
		p.disconnect(h)
	}
	for _, h := range n.bck.snapshot() {
		p.disconnect(h)
	}
}

func (p *Plumber) setPortMaps(n *node) {
	for _, port := range n.in {
		p.inport[port] = append(p.inport[port], n.id)
	}
	for _, port := range n.out {
		p.outport[port] = append(p.outport[port], n.id)
	}
}

func (p *Plumber) clearPortMaps(n *node) {
	drop := func(m map[uint32][]NodeID, port uint32) {
		ids := m[port]
		for i, id := range ids {
			if id == n.id {
				ids = append(ids[:i], ids[i+1:]...)
				break
			}
		}
		if len(ids) == 0 {
			delete(m, port)
			return
		}
		m[port] = ids
	}
	for _, port := range n.in {
		drop(p.inport, port)
	}
	for _, port := range n.out {
		drop(p.outport, port)
	}
}
