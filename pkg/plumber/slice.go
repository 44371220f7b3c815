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
	"encoding/csv"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/netplumber/netplumber/pkg/hs"
	"github.com/netplumber/netplumber/pkg/private/serrors"
)

// slice is an isolation domain. Slice 0 holds the header space and the pipes
// not claimed by any other slice.
type slice struct {
	space hs.Set
	pipes handleList
}

func (p *Plumber) initSlices() {
	p.slices = map[uint64]*slice{0: {space: p.backend.Full(p.length)}}
	p.allow = make(map[uint64]map[uint64]struct{})
}

func (p *Plumber) sliceIDs() []uint64 {
	ids := make([]uint64, 0, len(p.slices))
	for id := range p.slices {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func (p *Plumber) pipeSet(pp *pipe) hs.Set {
	return p.backend.FromArray(pp.space)
}

// addPipeToSlices assigns a new pipe to the first slice containing its space.
func (p *Plumber) addPipeToSlices(h handle, pp *pipe) {
	space := p.pipeSet(pp)
	for _, id := range p.sliceIDs() {
		if space.IsSubsetEqual(p.slices[id].space) {
			p.movePipe(h, pp, id)
			return
		}
	}
	p.movePipe(h, pp, 0)
}

func (p *Plumber) movePipe(h handle, pp *pipe, id uint64) {
	pp.slice = id
	pp.slicePos = p.slices[id].pipes.add(h)
}

func (p *Plumber) removePipeFromSlice(pp *pipe) {
	s, ok := p.slices[pp.slice]
	if !ok {
		return
	}
	if moved, ok := s.pipes.removeAt(pp.slicePos); ok {
		p.pipe(moved).slicePos = pp.slicePos
	}
}

func (p *Plumber) allowed(in, out uint64) bool {
	_, ok := p.allow[in][out]
	return ok
}

func (p *Plumber) checkPipesForSliceLeakage(n *node, in, out handle) {
	if in == out {
		return
	}
	pin, pout := p.pipe(in), p.pipe(out)
	if pin.slice == pout.slice || p.allowed(pin.slice, pout.slice) {
		return
	}
	p.ctx.Logger.Debug("Slice leak", "node", n.id, "in", pin.slice, "out", pout.slice)
	p.ctx.Handler.OnSliceLeak(SliceLeakEvent{
		Event: p.last,
		Node:  n.id,
		In:    pin.slice,
		Out:   pout.slice,
	})
}

// checkNodeForSliceLeakage checks every pair of incoming and outgoing pipes of
// n. A node without incoming pipes is checked at its downstream neighbours, a
// node without outgoing pipes at its upstream neighbours.
func (p *Plumber) checkNodeForSliceLeakage(n *node) {
	for _, in := range n.bck {
		for _, out := range n.fwd {
			p.checkPipesForSliceLeakage(n, in, out)
		}
	}
	if len(n.bck) == 0 {
		for _, in := range n.fwd {
			next := p.nodes[p.pipe(in).to]
			for _, out := range next.fwd {
				p.checkPipesForSliceLeakage(next, in, out)
			}
		}
	}
	if len(n.fwd) == 0 {
		for _, out := range n.bck {
			prev := p.nodes[p.pipe(out).from]
			for _, in := range prev.bck {
				p.checkPipesForSliceLeakage(prev, in, out)
			}
		}
	}
}

// AddSlice adds the slice id with the given header space. The space must be
// free, i.e. not overlap any other slice. Otherwise the overlap is reported to
// the event handler and ErrSliceOverlap is returned. An existing slice with
// the same id is replaced. Pipes of the free space that lie within the new
// slice are moved to it.
func (p *Plumber) AddSlice(id uint64, space hs.Set) (err error) {
	start := p.begin(EventAddSlice, id, 0)
	defer func() { p.metrics.edit(EventAddSlice, start, err) }()

	if !p.slicing {
		return ErrSlicingDisabled
	}
	if id == 0 {
		return serrors.JoinNoStack(ErrInvalidSlice, nil, "slice", id)
	}
	if space.Len() != p.length {
		panic("slice length mismatch")
	}
	if _, ok := p.slices[id]; ok {
		p.removeSlice(id)
	}
	free := p.slices[0]
	if !space.IsSubsetEqual(free.space) {
		var overlap uint64
		for _, other := range p.sliceIDs() {
			if other != 0 && !p.slices[other].space.Intersect(space).IsEmpty() {
				overlap = other
				break
			}
		}
		p.ctx.Handler.OnSliceOverlap(SliceOverlapEvent{
			Event:   p.last,
			Slice:   id,
			Overlap: overlap,
		})
		return serrors.JoinNoStack(ErrSliceOverlap, nil, "slice", id, "overlap", overlap)
	}
	free.space = free.space.Minus(space)
	s := &slice{space: space.Copy()}
	p.slices[id] = s

	var moved []handle
	for _, h := range free.pipes.snapshot() {
		pp := p.pipe(h)
		if p.pipeSet(pp).IsSubsetEqual(space) {
			p.removePipeFromSlice(pp)
			p.movePipe(h, pp, id)
			moved = append(moved, h)
		}
	}
	p.checkMovedPipes(moved)
	p.ctx.Logger.Debug("Slice added", "slice", id, "pipes", len(moved))
	return nil
}

// RemoveSlice removes a slice. Its header space and its pipes return to the
// free space.
func (p *Plumber) RemoveSlice(id uint64) (err error) {
	start := p.begin(EventRemoveSlice, id, 0)
	defer func() { p.metrics.edit(EventRemoveSlice, start, err) }()

	if !p.slicing {
		return ErrSlicingDisabled
	}
	if _, ok := p.slices[id]; !ok || id == 0 {
		return serrors.JoinNoStack(ErrInvalidSlice, nil, "slice", id)
	}
	moved := p.removeSlice(id)
	p.checkMovedPipes(moved)
	return nil
}

func (p *Plumber) removeSlice(id uint64) []handle {
	s := p.slices[id]
	moved := s.pipes.snapshot()
	for _, h := range moved {
		p.movePipe(h, p.pipe(h), 0)
	}
	free := p.slices[0]
	free.space = free.space.Union(s.space).Compact()
	delete(p.slices, id)
	return moved
}

// checkMovedPipes rechecks the nodes at both ends of pipes that changed their
// slice.
func (p *Plumber) checkMovedPipes(moved []handle) {
	seen := make(map[NodeID]struct{})
	for _, h := range moved {
		pp := p.pipe(h)
		for _, id := range []NodeID{pp.from, pp.to} {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			p.checkNodeForSliceLeakage(p.nodes[id])
		}
	}
}

// AddSliceAllow permits traffic to pass from slice in to slice out.
func (p *Plumber) AddSliceAllow(in, out uint64) error {
	p.last = Event{Type: EventAddSliceAllow, ID1: in, ID2: out}
	if !p.slicing {
		return ErrSlicingDisabled
	}
	if p.allow[in] == nil {
		p.allow[in] = make(map[uint64]struct{})
	}
	p.allow[in][out] = struct{}{}
	return nil
}

// RemoveSliceAllow revokes a permission added with AddSliceAllow.
func (p *Plumber) RemoveSliceAllow(in, out uint64) error {
	p.last = Event{Type: EventRemoveSliceAllow, ID1: in, ID2: out}
	if !p.slicing {
		return ErrSlicingDisabled
	}
	delete(p.allow[in], out)
	if len(p.allow[in]) == 0 {
		delete(p.allow, in)
	}
	return nil
}

// AddSliceMatrix replaces the allow matrix with the one read from r. The
// matrix is CSV encoded: the header row lists the slice ids after an empty
// first cell, every other row starts with a slice id and marks the permitted
// target slices with "x".
//
//	,1,2
//	1,,x
//	2,,
func (p *Plumber) AddSliceMatrix(r io.Reader) error {
	p.last = Event{Type: EventAddSliceMatrix}
	if !p.slicing {
		return ErrSlicingDisabled
	}
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err != nil {
		return serrors.Wrap("reading matrix header", err)
	}
	if len(header) < 2 || strings.TrimSpace(header[0]) != "" {
		return serrors.New("invalid matrix header", "header", header)
	}
	cols, err := parseSliceIDs(header[1:])
	if err != nil {
		return err
	}
	allow := make(map[uint64]map[uint64]struct{})
	rows := make(map[uint64]struct{})
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return serrors.Wrap("reading matrix row", err)
		}
		ids, err := parseSliceIDs(rec[:1])
		if err != nil {
			return err
		}
		row := ids[0]
		if _, ok := rows[row]; ok {
			return serrors.New("duplicate matrix row", "slice", row)
		}
		rows[row] = struct{}{}
		for i, cell := range rec[1:] {
			if strings.TrimSpace(cell) != "x" {
				continue
			}
			if allow[row] == nil {
				allow[row] = make(map[uint64]struct{})
			}
			allow[row][cols[i]] = struct{}{}
		}
	}
	if len(rows) != len(cols) {
		return serrors.New("matrix is not square", "rows", len(rows), "columns", len(cols))
	}
	for _, c := range cols {
		if _, ok := rows[c]; !ok {
			return serrors.New("matrix row missing", "slice", c)
		}
	}
	p.allow = allow
	return nil
}

// RemoveSliceMatrix clears the allow matrix.
func (p *Plumber) RemoveSliceMatrix() error {
	p.last = Event{Type: EventRemoveSliceMatrix}
	if !p.slicing {
		return ErrSlicingDisabled
	}
	p.allow = make(map[uint64]map[uint64]struct{})
	return nil
}

func parseSliceIDs(cells []string) ([]uint64, error) {
	ids := make([]uint64, 0, len(cells))
	seen := make(map[uint64]struct{}, len(cells))
	for _, c := range cells {
		id, err := strconv.ParseUint(strings.TrimSpace(c), 10, 64)
		if err != nil {
			return nil, serrors.Wrap("parsing slice id", err, "cell", c)
		}
		if _, ok := seen[id]; ok {
			return nil, serrors.New("duplicate slice id", "slice", id)
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, nil
}

// SliceOf returns the slice of the pipe from -> to crossing the given ports.
// It reports false if no such pipe exists.
func (p *Plumber) SliceOf(from, to NodeID, fromPort, toPort uint32) (uint64, bool) {
	n, ok := p.nodes[from]
	if !ok {
		return 0, false
	}
	for _, h := range n.fwd {
		pp := p.pipe(h)
		if pp.to == to && pp.fromPort == fromPort && pp.toPort == toPort {
			return pp.slice, true
		}
	}
	return 0, false
}
