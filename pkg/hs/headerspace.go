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
	"encoding/json"
	"fmt"
	"strings"
)

// term is an array minus the union of its diffs. Every diff is a subset of elem.
type term struct {
	elem  Array
	diffs []Array
}

func (t term) copy() term {
	return term{elem: t.elem, diffs: append([]Array(nil), t.diffs...)}
}

// isEmpty decides exactly whether the diffs cover elem.
func (t term) isEmpty() bool {
	if t.elem.IsEmpty() {
		return true
	}
	return len(subtract([]Array{t.elem}, t.diffs)) == 0
}

// arrays splits t into disjoint arrays.
func (t term) arrays() []Array {
	if t.elem.IsEmpty() {
		return nil
	}
	return subtract([]Array{t.elem}, t.diffs)
}

// subtract removes every array of subs from the disjoint arrays in rest. The
// pieces are merged after each step so that rest stays small.
func subtract(rest, subs []Array) []Array {
	for _, s := range subs {
		var next []Array
		split := false
		for _, r := range rest {
			if !r.Intersects(s) {
				next = append(next, r)
				continue
			}
			split = true
			next = append(next, r.Diff(s)...)
		}
		if len(next) == 0 {
			return nil
		}
		if split {
			next = compactDiffs(next)
		}
		rest = next
	}
	return rest
}

// HeaderSpace is a union of terms, each an array with a list of subtracted arrays.
// A HeaderSpace is immutable; every operation returns a new value.
type HeaderSpace struct {
	n     int
	terms []term
}

var _ Set = (*HeaderSpace)(nil)

// NewHeaderSpace returns the empty header space of n bytes.
func NewHeaderSpace(n int) *HeaderSpace {
	return &HeaderSpace{n: n}
}

// HeaderSpaceFrom returns the header space holding exactly the given arrays.
func HeaderSpaceFrom(n int, arrays ...Array) *HeaderSpace {
	h := &HeaderSpace{n: n}
	for _, a := range arrays {
		h.mustLen(a.Len())
		if !a.IsEmpty() {
			h.terms = append(h.terms, term{elem: a})
		}
	}
	return h
}

func (h *HeaderSpace) mustLen(n int) {
	if h.n != n {
		panic(fmt.Sprintf("header space length mismatch: %d != %d", h.n, n))
	}
}

func (h *HeaderSpace) other(o Set) *HeaderSpace {
	x, ok := o.(*HeaderSpace)
	if !ok {
		panic(fmt.Sprintf("mixing header set backends: %T and %T", h, o))
	}
	h.mustLen(x.n)
	return x
}

func (h *HeaderSpace) Len() int {
	return h.n
}

func (h *HeaderSpace) Copy() Set {
	return h.copy()
}

func (h *HeaderSpace) copy() *HeaderSpace {
	c := &HeaderSpace{n: h.n, terms: make([]term, 0, len(h.terms))}
	for _, t := range h.terms {
		c.terms = append(c.terms, t.copy())
	}
	return c
}

// Count returns the number of terms.
func (h *HeaderSpace) Count() int {
	return len(h.terms)
}

// CountDiff returns the total number of subtracted arrays.
func (h *HeaderSpace) CountDiff() int {
	n := 0
	for _, t := range h.terms {
		n += len(t.diffs)
	}
	return n
}

func (h *HeaderSpace) Union(o Set) Set {
	x := h.other(o)
	r := h.copy()
	for _, t := range x.terms {
		r.terms = append(r.terms, t.copy())
	}
	return r
}

func (h *HeaderSpace) UnionArray(a Array) Set {
	h.mustLen(a.Len())
	r := h.copy()
	if !a.IsEmpty() {
		r.terms = append(r.terms, term{elem: a})
	}
	return r
}

// isectTerm intersects t with the array a.
func isectTerm(t term, a Array) (term, bool) {
	e, ok := t.elem.Intersect(a)
	if !ok {
		return term{}, false
	}
	r := term{elem: e}
	for _, d := range t.diffs {
		if x, ok := d.Intersect(e); ok {
			r.diffs = append(r.diffs, x)
		}
	}
	return r, true
}

func (h *HeaderSpace) Intersect(o Set) Set {
	x := h.other(o)
	r := &HeaderSpace{n: h.n}
	for _, t1 := range h.terms {
		for _, t2 := range x.terms {
			t, ok := isectTerm(t1, t2.elem)
			if !ok {
				continue
			}
			for _, d := range t2.diffs {
				if i, ok := d.Intersect(t.elem); ok {
					t.diffs = append(t.diffs, i)
				}
			}
			r.terms = append(r.terms, t)
		}
	}
	return r
}

func (h *HeaderSpace) IntersectArray(a Array) Set {
	h.mustLen(a.Len())
	r := &HeaderSpace{n: h.n}
	for _, t := range h.terms {
		if it, ok := isectTerm(t, a); ok {
			r.terms = append(r.terms, it)
		}
	}
	return r
}

// DiffArray subtracts a lazily: a is appended to the diffs of every overlapping
// term.
func (h *HeaderSpace) DiffArray(a Array) Set {
	h.mustLen(a.Len())
	r := h.copy()
	for i, t := range r.terms {
		if x, ok := t.elem.Intersect(a); ok {
			r.terms[i].diffs = append(r.terms[i].diffs, x)
		}
	}
	return r
}

// Minus returns h without the headers of o, compacted. o is split into disjoint
// arrays which become diffs of the terms of h, so the number of terms never
// grows.
func (h *HeaderSpace) Minus(o Set) Set {
	subs := h.other(o).Arrays()
	r := &HeaderSpace{n: h.n, terms: make([]term, 0, len(h.terms))}
	for _, t := range h.terms {
		kept := t.copy()
		for _, s := range subs {
			if cut, ok := t.elem.Intersect(s); ok {
				kept.diffs = append(kept.diffs, cut)
			}
		}
		r.terms = append(r.terms, kept)
	}
	return r.compact()
}

// Complement returns the header space of all headers not in h.
func (h *HeaderSpace) Complement() Set {
	acc := []term{{elem: FullArray(h.n)}}
	for _, t := range h.terms {
		// Headers outside t are outside elem or inside one of its diffs.
		parts := t.elem.Complement()
		parts = append(parts, t.diffs...)
		var next []term
		for _, a := range acc {
			for _, p := range parts {
				if it, ok := isectTerm(a, p); ok {
					next = append(next, it)
				}
			}
		}
		acc = pruneTerms(next)
		if len(acc) == 0 {
			break
		}
	}
	return (&HeaderSpace{n: h.n, terms: acc}).compact()
}

// Rewrite applies the rewrite to every term. A diff is kept if it spans as many
// rewritten wildcards as its term: it then covers whole preimages and its rewrite
// can be subtracted from the rewritten term. Otherwise the term is first split
// into disjoint arrays, which are rewritten one by one.
func (h *HeaderSpace) Rewrite(mask, rw Array) Set {
	h.mustLen(mask.Len())
	r := &HeaderSpace{n: h.n, terms: make([]term, 0, len(h.terms))}
	for _, t := range h.terms {
		e, n := t.elem.Rewrite(mask, rw)
		nt := term{elem: e}
		split := false
		for _, d := range t.diffs {
			rd, dn := d.Rewrite(mask, rw)
			if dn != n {
				split = true
				break
			}
			nt.diffs = append(nt.diffs, rd)
		}
		if !split {
			r.terms = append(r.terms, nt)
			continue
		}
		for _, a := range (&HeaderSpace{n: h.n, terms: []term{t}}).Arrays() {
			ra, _ := a.Rewrite(mask, rw)
			r.terms = append(r.terms, term{elem: ra})
		}
	}
	return r
}

// pruneTerms drops empty terms and terms inside a term without diffs.
func pruneTerms(terms []term) []term {
	out := make([]term, 0, len(terms))
	for _, t := range terms {
		if t.isEmpty() {
			continue
		}
		out = append(out, t)
	}
	for i := 0; i < len(out); i++ {
		if len(out[i].diffs) != 0 {
			continue
		}
		for j := 0; j < len(out); j++ {
			if j == i || !out[j].elem.IsSubset(out[i].elem) {
				continue
			}
			out = append(out[:j], out[j+1:]...)
			if j < i {
				i--
			}
			j--
		}
	}
	return out
}

func (h *HeaderSpace) Compact() Set {
	return h.compact()
}

func (h *HeaderSpace) compact() *HeaderSpace {
	r := &HeaderSpace{n: h.n, terms: make([]term, 0, len(h.terms))}
	for _, t := range h.terms {
		if t, ok := compactTerm(t); ok {
			r.terms = append(r.terms, t)
		}
	}
	return r
}

// compactTerm simplifies the diffs of t. It returns false if t is empty.
func compactTerm(t term) (term, bool) {
	t = t.copy()
	if t.elem.IsEmpty() {
		return t, false
	}
	for changed := true; changed; {
		changed = false
		t.diffs = compactDiffs(t.diffs)
		for j := 0; j < len(t.diffs); j++ {
			e, cnt := t.elem.oneBitSubtract(t.diffs[j])
			switch cnt {
			case 0:
				return t, false
			case 1:
				t.elem = e
				t.diffs = append(t.diffs[:j], t.diffs[j+1:]...)
				changed = true
			}
			if changed {
				break
			}
		}
		if changed {
			// elem shrank, keep every diff inside it.
			kept := t.diffs[:0]
			for _, d := range t.diffs {
				if x, ok := d.Intersect(t.elem); ok {
					kept = append(kept, x)
				}
			}
			t.diffs = kept
		}
	}
	if t.isEmpty() {
		return t, false
	}
	return t, true
}

// compactDiffs removes diffs covered by another diff and merges adjacent ones.
func compactDiffs(diffs []Array) []Array {
	out := make([]Array, 0, len(diffs))
	for _, d := range diffs {
		if d.IsEmpty() {
			continue
		}
		out = append(out, d)
	}
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			switch {
			case out[j].IsSubset(out[i]):
				out = append(out[:j], out[j+1:]...)
				j--
			case out[i].IsSubset(out[j]):
				out[i] = out[j]
				out = append(out[:j], out[j+1:]...)
				j = i
			default:
				if m, ok := out[i].Merge(out[j]); ok {
					out[i] = m
					out = append(out[:j], out[j+1:]...)
					j = i
				}
			}
		}
	}
	return out
}

func (h *HeaderSpace) IsEmpty() bool {
	for _, t := range h.terms {
		if !t.isEmpty() {
			return false
		}
	}
	return true
}

// IsSubsetEqual subtracts the disjoint arrays of o from every term of h and
// stops at the first term with a remainder.
func (h *HeaderSpace) IsSubsetEqual(o Set) bool {
	subs := h.other(o).Arrays()
	for _, t := range h.terms {
		if rest := t.arrays(); len(rest) != 0 && len(subtract(rest, subs)) != 0 {
			return false
		}
	}
	return true
}

func (h *HeaderSpace) IsEqual(o Set) bool {
	return h.IsSubsetEqual(o) && o.IsSubsetEqual(h)
}

// Enlarge extends every array to n bytes with wildcards.
func (h *HeaderSpace) Enlarge(n int) Set {
	if n <= h.n {
		return h.copy()
	}
	r := &HeaderSpace{n: n, terms: make([]term, 0, len(h.terms))}
	for _, t := range h.terms {
		nt := term{elem: t.elem.Enlarge(n)}
		for _, d := range t.diffs {
			nt.diffs = append(nt.diffs, d.Enlarge(n))
		}
		r.terms = append(r.terms, nt)
	}
	return r
}

// Arrays expands h into pairwise disjoint arrays within each term.
func (h *HeaderSpace) Arrays() []Array {
	var res []Array
	for _, t := range h.terms {
		res = append(res, t.arrays()...)
	}
	return res
}

func (h *HeaderSpace) String() string {
	if len(h.terms) == 0 {
		return "(nil)"
	}
	parts := make([]string, 0, len(h.terms))
	for _, t := range h.terms {
		if len(t.diffs) == 0 {
			parts = append(parts, t.elem.String())
			continue
		}
		diffs := make([]string, 0, len(t.diffs))
		for _, d := range t.diffs {
			diffs = append(diffs, d.String())
		}
		parts = append(parts, fmt.Sprintf("(%s - (%s))", t.elem, strings.Join(diffs, " + ")))
	}
	return "(" + strings.Join(parts, " + ") + ")"
}

type jsonTerm struct {
	Elem  Array   `json:"elem"`
	Diffs []Array `json:"diff,omitempty"`
}

// MarshalJSON encodes h as a list of terms.
func (h *HeaderSpace) MarshalJSON() ([]byte, error) {
	terms := make([]jsonTerm, 0, len(h.terms))
	for _, t := range h.terms {
		terms = append(terms, jsonTerm{Elem: t.elem, Diffs: t.diffs})
	}
	return json.Marshal(terms)
}
