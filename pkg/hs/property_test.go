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

package hs_test

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/netplumber/netplumber/pkg/hs"
)

// arrayFrom builds a one byte array from the low 16 bits of u. The empty symbol
// is mapped to a wildcard.
func arrayFrom(u uint64) hs.Array {
	a := hs.FullArray(1)
	for i := 0; i < 8; i++ {
		b := hs.Bit(u >> (2 * i) & 3)
		if b == hs.BitZ {
			b = hs.BitX
		}
		a = a.With(i, b)
	}
	return a
}

// setFrom builds a header space with two terms and two subtracted arrays.
func setFrom(e1, e2, d1, d2 uint64) hs.Set {
	return hs.HeaderSpaceFrom(1, arrayFrom(e1), arrayFrom(e2)).
		DiffArray(arrayFrom(d1)).
		DiffArray(arrayFrom(d2))
}

func concrete(v int) hs.Array {
	a := hs.FullArray(1)
	for i := 0; i < 8; i++ {
		a = a.With(i, hs.Bit0+hs.Bit((v>>(7-i))&1))
	}
	return a
}

func members(s hs.Set) [256]bool {
	var res [256]bool
	for v := range res {
		res[v] = !s.IntersectArray(concrete(v)).IsEmpty()
	}
	return res
}

// within runs f and fails if it does not return in time.
func within(f func() bool) bool {
	done := make(chan bool, 1)
	go func() { done <- f() }()
	select {
	case ok := <-done:
		return ok
	case <-time.After(5 * time.Second):
		return false
	}
}

func minus(a, b [256]bool) [256]bool {
	for v := range a {
		a[v] = a[v] && !b[v]
	}
	return a
}

func TestAlgebraProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("compaction is idempotent", prop.ForAll(
		func(e1, e2, d1, d2 uint64) bool {
			c := setFrom(e1, e2, d1, d2).Compact()
			cc := c.Compact()
			return cc.IsEqual(c) && cc.Count() == c.Count() && cc.CountDiff() == c.CountDiff()
		},
		gen.UInt64(), gen.UInt64(), gen.UInt64(), gen.UInt64(),
	))
	properties.Property("compaction keeps the headers", prop.ForAll(
		func(e1, e2, d1, d2 uint64) bool {
			s := setFrom(e1, e2, d1, d2)
			return members(s) == members(s.Compact())
		},
		gen.UInt64(), gen.UInt64(), gen.UInt64(), gen.UInt64(),
	))
	properties.Property("intersect with full is identity", prop.ForAll(
		func(u uint64) bool {
			a := hs.Classic.FromArray(arrayFrom(u))
			return a.Intersect(hs.Classic.Full(1)).IsEqual(a)
		},
		gen.UInt64(),
	))
	properties.Property("a minus a is empty", prop.ForAll(
		func(u uint64) bool {
			a := arrayFrom(u)
			return hs.Classic.FromArray(a).DiffArray(a).IsEmpty() && len(a.Diff(a)) == 0
		},
		gen.UInt64(),
	))
	properties.Property("double negation", prop.ForAll(
		func(u uint64) bool {
			a := arrayFrom(u)
			return a.Negate().Negate().Equal(a)
		},
		gen.UInt64(),
	))
	properties.Property("subset antisymmetry", prop.ForAll(
		func(e1, e2, d1, d2, o1, o2 uint64) bool {
			a := setFrom(e1, e2, d1, d2)
			b := setFrom(o1, o2, d2, d1)
			return within(func() bool {
				if a.IsSubsetEqual(b) && b.IsSubsetEqual(a) {
					return a.IsEqual(b)
				}
				return true
			})
		},
		gen.UInt64(), gen.UInt64(), gen.UInt64(), gen.UInt64(), gen.UInt64(), gen.UInt64(),
	))
	properties.Property("minus matches complement", prop.ForAll(
		func(e1, e2, d1, d2, o1, o2 uint64) bool {
			a := setFrom(e1, e2, d1, d2)
			b := setFrom(o1, o2, d2, d1)
			return within(func() bool {
				m := a.Minus(b)
				return m.IsEqual(a.Intersect(b.Complement())) &&
					members(m) == minus(members(a), members(b))
			})
		},
		gen.UInt64(), gen.UInt64(), gen.UInt64(), gen.UInt64(), gen.UInt64(), gen.UInt64(),
	))
	properties.Property("array diff is an exact disjoint split", prop.ForAll(
		func(u, v uint64) bool {
			a, b := arrayFrom(u), arrayFrom(v)
			parts := a.Diff(b)
			for i, p := range parts {
				if !p.IsSubset(a) || p.Intersects(b) {
					return false
				}
				for _, q := range parts[i+1:] {
					if p.Intersects(q) {
						return false
					}
				}
			}
			split := hs.HeaderSpaceFrom(1, parts...)
			return members(split) == members(hs.Classic.FromArray(a).DiffArray(b))
		},
		gen.UInt64(), gen.UInt64(),
	))
	properties.Property("rewrite is the image of every header", prop.ForAll(
		func(e1, e2, d1, d2, m, r uint64) bool {
			s := setFrom(e1, e2, d1, d2)
			mask := arrayFrom(m)
			rw := arrayFrom(r)
			var expected [256]bool
			in := members(s)
			for v, ok := range in {
				if !ok {
					continue
				}
				img, _ := concrete(v).Rewrite(mask, rw)
				for w := range expected {
					if img.Intersects(concrete(w)) {
						expected[w] = true
					}
				}
			}
			return members(s.Rewrite(mask, rw).Compact()) == expected
		},
		gen.UInt64(), gen.UInt64(), gen.UInt64(), gen.UInt64(), gen.UInt64(), gen.UInt64(),
	))

	properties.TestingRun(t)
}
