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

// Package bdd implements header sets as binary decision diagrams.
//
// Every header position is one BDD variable. The variables of all positions a
// network may ever use are allocated up front, so enlarging a set only changes its
// logical length. A Backend is not safe for concurrent use.
package bdd

import (
	"fmt"
	"strings"

	"github.com/dalzilio/rudd"

	"github.com/netplumber/netplumber/pkg/hs"
	"github.com/netplumber/netplumber/pkg/private/serrors"
)

const (
	// DefaultCapacity is the default maximum header length in bytes.
	DefaultCapacity = 64
	defaultNodes    = 1 << 16
	defaultCache    = 1 << 14
)

// Backend creates BDD header sets. All sets of one backend share its node table.
type Backend struct {
	bdd      *rudd.BDD
	capacity int
}

var _ hs.Backend = (*Backend)(nil)

// New creates a backend for headers of at most capacity bytes.
func New(capacity int) (*Backend, error) {
	if capacity <= 0 {
		return nil, serrors.New("invalid BDD capacity", "capacity", capacity)
	}
	b, err := rudd.New(capacity*8, rudd.Nodesize(defaultNodes), rudd.Cachesize(defaultCache))
	if err != nil {
		return nil, serrors.Wrap("creating BDD", err, "capacity", capacity)
	}
	return &Backend{bdd: b, capacity: capacity}, nil
}

func (be *Backend) Name() string { return "bdd" }

// Capacity returns the maximum header length in bytes.
func (be *Backend) Capacity() int { return be.capacity }

func (be *Backend) Empty(n int) hs.Set {
	return be.set(n, be.bdd.False())
}

func (be *Backend) Full(n int) hs.Set {
	return be.set(n, be.bdd.True())
}

func (be *Backend) FromArray(a hs.Array) hs.Set {
	return be.set(a.Len(), be.array(a))
}

func (be *Backend) set(n int, node rudd.Node) *Set {
	if n > be.capacity {
		panic(fmt.Sprintf("header length %d exceeds BDD capacity %d", n, be.capacity))
	}
	return &Set{be: be, n: n, node: be.check(node)}
}

func (be *Backend) check(node rudd.Node) rudd.Node {
	if node == nil {
		panic(fmt.Sprintf("BDD operation failed: %s", be.bdd.Error()))
	}
	return node
}

// array returns the conjunction of the literals of a.
func (be *Backend) array(a hs.Array) rudd.Node {
	lits := []rudd.Node{be.bdd.True()}
	for i := 0; i < a.Len()*8; i++ {
		switch a.Get(i) {
		case hs.Bit0:
			lits = append(lits, be.bdd.NIthvar(i))
		case hs.Bit1:
			lits = append(lits, be.bdd.Ithvar(i))
		case hs.BitZ:
			return be.bdd.False()
		}
	}
	return be.check(be.bdd.And(lits...))
}

// Set is a header set represented by a BDD node.
type Set struct {
	be   *Backend
	n    int
	node rudd.Node
}

var _ hs.Set = (*Set)(nil)

func (s *Set) other(o hs.Set) *Set {
	x, ok := o.(*Set)
	if !ok || x.be != s.be {
		panic(fmt.Sprintf("mixing header set backends: %T and %T", s, o))
	}
	if x.n != s.n {
		panic(fmt.Sprintf("header set length mismatch: %d != %d", s.n, x.n))
	}
	return x
}

func (s *Set) arr(a hs.Array) rudd.Node {
	if a.Len() != s.n {
		panic(fmt.Sprintf("header set length mismatch: %d != %d", s.n, a.Len()))
	}
	return s.be.array(a)
}

func (s *Set) with(node rudd.Node) *Set {
	return s.be.set(s.n, node)
}

func (s *Set) Len() int { return s.n }

func (s *Set) Copy() hs.Set { return s.with(s.node) }

func (s *Set) Union(o hs.Set) hs.Set {
	return s.with(s.be.bdd.Or(s.node, s.other(o).node))
}

func (s *Set) UnionArray(a hs.Array) hs.Set {
	return s.with(s.be.bdd.Or(s.node, s.arr(a)))
}

func (s *Set) Intersect(o hs.Set) hs.Set {
	return s.with(s.be.bdd.And(s.node, s.other(o).node))
}

func (s *Set) IntersectArray(a hs.Array) hs.Set {
	return s.with(s.be.bdd.And(s.node, s.arr(a)))
}

func (s *Set) DiffArray(a hs.Array) hs.Set {
	return s.with(s.be.bdd.And(s.node, s.be.bdd.Not(s.arr(a))))
}

func (s *Set) Minus(o hs.Set) hs.Set {
	return s.with(s.be.bdd.And(s.node, s.be.bdd.Not(s.other(o).node)))
}

// Complement negates the function. Variables beyond the header length are never
// constrained, so they stay free.
func (s *Set) Complement() hs.Set {
	return s.with(s.be.bdd.Not(s.node))
}

// Rewrite quantifies away the masked variables and fixes them to the symbols of
// rw.
func (s *Set) Rewrite(mask, rw hs.Array) hs.Set {
	if mask.Len() != s.n || rw.Len() != s.n {
		panic(fmt.Sprintf("header set length mismatch: %d != %d", s.n, mask.Len()))
	}
	var vars []int
	lits := []rudd.Node{}
	for i := 0; i < s.n*8; i++ {
		if mask.Get(i) != hs.Bit1 {
			continue
		}
		vars = append(vars, i)
		switch rw.Get(i) {
		case hs.Bit0:
			lits = append(lits, s.be.bdd.NIthvar(i))
		case hs.Bit1:
			lits = append(lits, s.be.bdd.Ithvar(i))
		case hs.BitZ:
			return s.with(s.be.bdd.False())
		}
	}
	if len(vars) == 0 {
		return s.Copy()
	}
	node := s.be.check(s.be.bdd.Exist(s.node, s.be.bdd.Makeset(vars)))
	return s.with(s.be.bdd.And(append(lits, node)...))
}

// Compact is a no-op, BDDs are canonical.
func (s *Set) Compact() hs.Set { return s.Copy() }

func (s *Set) Enlarge(n int) hs.Set {
	if n <= s.n {
		return s.Copy()
	}
	return s.be.set(n, s.node)
}

func (s *Set) IsEmpty() bool {
	return s.be.bdd.Equal(s.node, s.be.bdd.False())
}

func (s *Set) IsEqual(o hs.Set) bool {
	return s.be.bdd.Equal(s.node, s.other(o).node)
}

func (s *Set) IsSubsetEqual(o hs.Set) bool {
	diff := s.be.bdd.And(s.node, s.be.bdd.Not(s.other(o).node))
	return s.be.bdd.Equal(s.be.check(diff), s.be.bdd.False())
}

// Count returns the number of cubes in a path enumeration of the BDD.
func (s *Set) Count() int {
	return len(s.cubes())
}

// CountDiff is always zero, a BDD has no subtracted part.
func (s *Set) CountDiff() int { return 0 }

func (s *Set) cubes() []hs.Array {
	var res []hs.Array
	err := s.be.bdd.Allsat(func(vals []int) error {
		a := hs.FullArray(s.n)
		for i := 0; i < s.n*8 && i < len(vals); i++ {
			switch vals[i] {
			case 0:
				a = a.With(i, hs.Bit0)
			case 1:
				a = a.With(i, hs.Bit1)
			}
		}
		res = append(res, a)
		return nil
	}, s.node)
	if err != nil {
		panic(fmt.Sprintf("enumerating BDD: %s", err))
	}
	return res
}

func (s *Set) String() string {
	cubes := s.cubes()
	if len(cubes) == 0 {
		return "(nil)"
	}
	parts := make([]string, 0, len(cubes))
	for _, c := range cubes {
		parts = append(parts, c.String())
	}
	return "(" + strings.Join(parts, " + ") + ")"
}
