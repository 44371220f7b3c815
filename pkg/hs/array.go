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
	"fmt"
	"math/bits"
	"strings"

	"github.com/netplumber/netplumber/pkg/private/serrors"
)

// Bit is a single wildcard position.
type Bit uint8

const (
	// BitZ is the empty position. An array containing it denotes the empty set.
	BitZ Bit = 0b00
	Bit0 Bit = 0b01
	Bit1 Bit = 0b10
	BitX Bit = 0b11
)

func (b Bit) String() string {
	return string("z01x"[b&3])
}

const (
	posPerByte = 8
	posPerWord = 32
	// lo selects the low bit of every position in a word.
	lo uint64 = 0x5555555555555555
)

// Array is an immutable wildcard vector. The zero value is an array of length 0.
type Array struct {
	n int
	w []uint64
}

func words(n int) int {
	return (n*posPerByte + posPerWord - 1) / posPerWord
}

// padding returns the bits of the last word that do not belong to a position.
func padding(n int) uint64 {
	used := n * posPerByte % posPerWord
	if used == 0 {
		return 0
	}
	return ^uint64(0) << (2 * used)
}

func fill(b Bit) uint64 {
	return lo * uint64(b)
}

// NewArray returns an array of n bytes with every position set to b.
func NewArray(n int, b Bit) Array {
	if n < 0 {
		panic(fmt.Sprintf("negative array length %d", n))
	}
	a := Array{n: n, w: make([]uint64, words(n))}
	for i := range a.w {
		a.w[i] = fill(b)
	}
	if len(a.w) > 0 {
		a.w[len(a.w)-1] |= padding(n)
	}
	return a
}

// FullArray returns the all-wildcard array of n bytes.
func FullArray(n int) Array {
	return NewArray(n, BitX)
}

// ParseArray parses the textual form of an array. Commas and white space are
// ignored; the number of positions must be a multiple of eight.
func ParseArray(s string) (Array, error) {
	var syms []Bit
	for _, r := range s {
		switch r {
		case '0':
			syms = append(syms, Bit0)
		case '1':
			syms = append(syms, Bit1)
		case 'x', 'X':
			syms = append(syms, BitX)
		case 'z', 'Z':
			syms = append(syms, BitZ)
		case ',', ' ', '\t', '\n':
		default:
			return Array{}, serrors.New("invalid header symbol", "symbol", string(r), "input", s)
		}
	}
	if len(syms)%posPerByte != 0 {
		return Array{}, serrors.New("header is not a whole number of bytes",
			"positions", len(syms), "input", s)
	}
	a := NewArray(len(syms)/posPerByte, BitX)
	for i, b := range syms {
		a.set(i, b)
	}
	return a, nil
}

// MustParseArray is ParseArray that panics on error.
func MustParseArray(s string) Array {
	a, err := ParseArray(s)
	if err != nil {
		panic(err)
	}
	return a
}

// Len returns the length in bytes.
func (a Array) Len() int {
	return a.n
}

// Get returns the symbol at position i.
func (a Array) Get(i int) Bit {
	return Bit(a.w[i/posPerWord] >> (2 * (i % posPerWord)) & 3)
}

func (a Array) set(i int, b Bit) {
	shift := 2 * (i % posPerWord)
	w := &a.w[i/posPerWord]
	*w = *w&^(3<<shift) | uint64(b)<<shift
}

// With returns a copy of a with position i set to b.
func (a Array) With(i int, b Bit) Array {
	c := a.Copy()
	c.set(i, b)
	return c
}

// Copy returns a deep copy of a.
func (a Array) Copy() Array {
	return Array{n: a.n, w: append([]uint64(nil), a.w...)}
}

func (a Array) String() string {
	var b strings.Builder
	for i := 0; i < a.n*posPerByte; i++ {
		if i != 0 && i%posPerByte == 0 {
			b.WriteByte(',')
		}
		b.WriteString(a.Get(i).String())
	}
	return b.String()
}

// MarshalText implements encoding.TextMarshaler.
func (a Array) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Array) UnmarshalText(text []byte) error {
	p, err := ParseArray(string(text))
	if err != nil {
		return err
	}
	*a = p
	return nil
}

func mustSameLen(a, b Array) {
	if a.n != b.n {
		panic(fmt.Sprintf("array length mismatch: %d != %d", a.n, b.n))
	}
}

// IsEmpty reports whether a contains the empty symbol z.
func (a Array) IsEmpty() bool {
	for _, w := range a.w {
		if ^(w|w>>1)&lo != 0 {
			return true
		}
	}
	return false
}

// IsFull reports whether every position of a is x.
func (a Array) IsFull() bool {
	for _, w := range a.w {
		if w != ^uint64(0) {
			return false
		}
	}
	return true
}

// Equal reports whether a and b are identical.
func (a Array) Equal(b Array) bool {
	mustSameLen(a, b)
	for i := range a.w {
		if a.w[i] != b.w[i] {
			return false
		}
	}
	return true
}

// Intersect returns the intersection of a and b. The boolean is false if the
// intersection is empty.
func (a Array) Intersect(b Array) (Array, bool) {
	mustSameLen(a, b)
	r := Array{n: a.n, w: make([]uint64, len(a.w))}
	for i := range a.w {
		r.w[i] = a.w[i] & b.w[i]
	}
	return r, !r.IsEmpty()
}

// Intersects reports whether a and b have a common header.
func (a Array) Intersects(b Array) bool {
	mustSameLen(a, b)
	for i := range a.w {
		w := a.w[i] & b.w[i]
		if ^(w|w>>1)&lo != 0 {
			return false
		}
	}
	return true
}

// IsSubset reports whether every header of a is in b.
func (a Array) IsSubset(b Array) bool {
	mustSameLen(a, b)
	for i := range a.w {
		if a.w[i]&^b.w[i] != 0 {
			return false
		}
	}
	return true
}

// Negate swaps 0 and 1 in every position. Wildcards stay wildcards.
func (a Array) Negate() Array {
	r := Array{n: a.n, w: make([]uint64, len(a.w))}
	for i, w := range a.w {
		r.w[i] = (w&lo)<<1 | (w>>1)&lo
	}
	return r
}

// fixed returns the positions of a that hold 0 or 1.
func (a Array) fixed() []int {
	var pos []int
	for i := 0; i < a.n*posPerByte; i++ {
		if b := a.Get(i); b == Bit0 || b == Bit1 {
			pos = append(pos, i)
		}
	}
	return pos
}

// Complement returns arrays whose union is the complement of a. The complement
// of the empty array is the full array; the full array has no complement.
func (a Array) Complement() []Array {
	if a.IsEmpty() {
		return []Array{FullArray(a.n)}
	}
	var res []Array
	for _, i := range a.fixed() {
		res = append(res, FullArray(a.n).With(i, a.Get(i)^3))
	}
	return res
}

// Diff returns pairwise disjoint arrays whose union is a minus b.
func (a Array) Diff(b Array) []Array {
	if a.IsEmpty() {
		return nil
	}
	if !a.Intersects(b) {
		return []Array{a.Copy()}
	}
	var res []Array
	cur := a.Copy()
	for _, i := range b.fixed() {
		if cur.Get(i) != BitX {
			continue
		}
		res = append(res, cur.With(i, b.Get(i)^3))
		cur.set(i, b.Get(i))
	}
	return res
}

// Merge returns the union of a and b if it is a single array, which is the case if
// they have the same wildcards and differ in exactly one fixed position.
func (a Array) Merge(b Array) (Array, bool) {
	mustSameLen(a, b)
	diff := 0
	for i := range a.w {
		if isX(a.w[i]) != isX(b.w[i]) {
			return Array{}, false
		}
		x := a.w[i] ^ b.w[i]
		diff += bits.OnesCount64((x | x>>1) & lo)
		if diff > 1 {
			return Array{}, false
		}
	}
	if diff != 1 {
		return Array{}, false
	}
	r := Array{n: a.n, w: make([]uint64, len(a.w))}
	for i := range a.w {
		r.w[i] = a.w[i] | b.w[i]
	}
	return r, true
}

func isX(w uint64) uint64 {
	return w & (w >> 1) & lo
}

// isOne marks the low bit of every position holding 1.
func isOne(w uint64) uint64 {
	return (w >> 1) & lo &^ (w & lo)
}

// Rewrite overwrites the positions where mask is 1 with the symbols of rw. It
// also returns the number of wildcards of a that were overwritten.
func (a Array) Rewrite(mask, rw Array) (Array, int) {
	mustSameLen(a, mask)
	mustSameLen(a, rw)
	r := Array{n: a.n, w: make([]uint64, len(a.w))}
	n := 0
	for i := range a.w {
		one := isOne(mask.w[i])
		n += bits.OnesCount64(isX(a.w[i]) & one)
		full := one | one<<1
		r.w[i] = a.w[i]&^full | rw.w[i]&full
	}
	return r, n
}

// XCount returns the number of wildcards of a at positions where mask is 1.
func (a Array) XCount(mask Array) int {
	mustSameLen(a, mask)
	n := 0
	for i := range a.w {
		n += bits.OnesCount64(isX(a.w[i]) & isOne(mask.w[i]))
	}
	return n
}

// oneBitSubtract compares a against b, where b is subtracted from a. It returns
// the number of symbols that a admits and b does not, counting up to 2. If exactly
// one such symbol exists, a minus b is a single array, which is returned.
func (a Array) oneBitSubtract(b Array) (Array, int) {
	cnt := 0
	var w, pos int
	for i := range a.w {
		c := a.w[i] &^ b.w[i]
		k := bits.OnesCount64(c)
		if k > 0 {
			w, pos = i, bits.TrailingZeros64(c)
		}
		cnt += k
		if cnt > 1 {
			return a, cnt
		}
	}
	if cnt != 1 {
		return a, cnt
	}
	r := a.Copy()
	r.w[w] &^= 1 << (pos ^ 1)
	return r, 1
}

// Enlarge returns a copy of a extended to n bytes with wildcards. Enlarge never
// shrinks an array.
func (a Array) Enlarge(n int) Array {
	if n <= a.n {
		return a.Copy()
	}
	r := NewArray(n, BitX)
	copy(r.w, a.w)
	if len(a.w) > 0 {
		r.w[len(a.w)-1] |= padding(a.n)
	}
	return r
}
