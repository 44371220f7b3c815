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

package hs

import (
	"strings"

	"github.com/netplumber/netplumber/pkg/private/serrors"
)

// Set is a set of headers of a fixed length. Sets are immutable: every operation
// returns a new set. Operands of binary operations must come from the same
// Backend and have the same length, otherwise the operation panics.
type Set interface {
	// Len returns the header length in bytes.
	Len() int
	Copy() Set
	Union(o Set) Set
	UnionArray(a Array) Set
	Intersect(o Set) Set
	IntersectArray(a Array) Set
	// DiffArray removes the headers of a. The classic backend defers the work to
	// Compact.
	DiffArray(a Array) Set
	Minus(o Set) Set
	Complement() Set
	// Rewrite sets the positions where mask is 1 to the symbols of rw.
	Rewrite(mask, rw Array) Set
	Compact() Set
	// Enlarge grows the header length to n bytes. It never shrinks.
	Enlarge(n int) Set
	IsEmpty() bool
	IsEqual(o Set) bool
	IsSubsetEqual(o Set) bool
	// Count returns the size of the positive part of the representation.
	Count() int
	// CountDiff returns the size of the subtracted part of the representation.
	CountDiff() int
	String() string
}

// IsSubset reports whether a is a strict subset of b.
func IsSubset(a, b Set) bool {
	return a.IsSubsetEqual(b) && !b.IsSubsetEqual(a)
}

// Backend creates sets of one representation.
type Backend interface {
	Name() string
	Empty(n int) Set
	Full(n int) Set
	FromArray(a Array) Set
}

// Classic is the HeaderSpace backend.
var Classic Backend = classic{}

type classic struct{}

func (classic) Name() string { return "hs" }

func (classic) Empty(n int) Set { return NewHeaderSpace(n) }

func (classic) Full(n int) Set { return HeaderSpaceFrom(n, FullArray(n)) }

func (classic) FromArray(a Array) Set { return HeaderSpaceFrom(a.Len(), a) }

// Parse builds a set of length n from a union of arrays given as strings, minus a
// union of excluded arrays.
func Parse(b Backend, n int, union, minus []string) (Set, error) {
	s := b.Empty(n)
	for _, u := range union {
		a, err := ParseLen(u, n)
		if err != nil {
			return nil, err
		}
		s = s.UnionArray(a)
	}
	for _, m := range minus {
		a, err := ParseLen(m, n)
		if err != nil {
			return nil, err
		}
		s = s.DiffArray(a)
	}
	return s.Compact(), nil
}

// ParseLen parses an array and checks that it has n bytes.
func ParseLen(s string, n int) (Array, error) {
	a, err := ParseArray(s)
	if err != nil {
		return Array{}, err
	}
	if a.Len() != n {
		return Array{}, serrors.New("header length mismatch", "expected", n,
			"actual", a.Len(), "input", strings.TrimSpace(s))
	}
	return a, nil
}
