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

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netplumber/netplumber/pkg/hs"
)

func arrays(t *testing.T, strs ...string) []hs.Array {
	t.Helper()
	res := make([]hs.Array, 0, len(strs))
	for _, s := range strs {
		a, err := hs.ParseArray(s)
		require.NoError(t, err)
		res = append(res, a)
	}
	return res
}

func arrayStrings(as []hs.Array) []string {
	res := make([]string, 0, len(as))
	for _, a := range as {
		res = append(res, a.String())
	}
	return res
}

func TestParseArray(t *testing.T) {
	tests := map[string]struct {
		input     string
		expected  string
		assertErr assert.ErrorAssertionFunc
	}{
		"single byte": {
			input:     "10xxxxxx",
			expected:  "10xxxxxx",
			assertErr: assert.NoError,
		},
		"grouped": {
			input:     "10xxxxxx,xxxxxxx1",
			expected:  "10xxxxxx,xxxxxxx1",
			assertErr: assert.NoError,
		},
		"ungrouped": {
			input:     "10xxxxxx1xxxxxxx",
			expected:  "10xxxxxx,1xxxxxxx",
			assertErr: assert.NoError,
		},
		"five bytes": {
			input:     "xxxxxxxx,xxxxxxxx,xxxxxxxx,xxxxxxxx,0000000z",
			expected:  "xxxxxxxx,xxxxxxxx,xxxxxxxx,xxxxxxxx,0000000z",
			assertErr: assert.NoError,
		},
		"partial byte": {
			input:     "10x",
			assertErr: assert.Error,
		},
		"bad symbol": {
			input:     "10xxxxxq",
			assertErr: assert.Error,
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			a, err := hs.ParseArray(tc.input)
			tc.assertErr(t, err)
			if err != nil {
				return
			}
			assert.Equal(t, tc.expected, a.String())
		})
	}
}

func TestArrayIntersect(t *testing.T) {
	tests := map[string]struct {
		a, b     string
		expected string
		ok       bool
	}{
		"overlap":  {a: "1xxxxxxx", b: "x0xxxxxx", expected: "10xxxxxx", ok: true},
		"disjoint": {a: "1xxxxxxx", b: "0xxxxxxx", ok: false},
		"equal":    {a: "10x0x1xx", b: "10x0x1xx", expected: "10x0x1xx", ok: true},
		"two bytes": {
			a: "1xxxxxxx,xxxxxxxx", b: "xxxxxxxx,xxxxxxx0",
			expected: "1xxxxxxx,xxxxxxx0", ok: true,
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			in := arrays(t, tc.a, tc.b)
			r, ok := in[0].Intersect(in[1])
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.ok, in[0].Intersects(in[1]))
			if ok {
				assert.Equal(t, tc.expected, r.String())
			}
		})
	}
}

func TestArraySubsetNegate(t *testing.T) {
	in := arrays(t, "10xxxxxx", "1xxxxxxx", "10x0x1xx")
	assert.True(t, in[0].IsSubset(in[1]))
	assert.False(t, in[1].IsSubset(in[0]))
	assert.Equal(t, "01x1x0xx", in[2].Negate().String())
	assert.True(t, hs.FullArray(1).Negate().IsFull())
}

func TestArrayComplement(t *testing.T) {
	in := arrays(t, "10xxxxxx", "xxxxxxxx", "1xxxxxxz")
	assert.Equal(t, []string{"0xxxxxxx", "x1xxxxxx"}, arrayStrings(in[0].Complement()))
	assert.Empty(t, in[1].Complement())
	assert.Equal(t, []string{"xxxxxxxx"}, arrayStrings(in[2].Complement()))
}

func TestArrayDiff(t *testing.T) {
	tests := map[string]struct {
		a, b     string
		expected []string
	}{
		"split": {
			a: "1xxxxxxx", b: "10xx0xxx",
			expected: []string{"11xxxxxx", "10xx1xxx"},
		},
		"disjoint": {
			a: "1xxxxxxx", b: "0xxxxxxx",
			expected: []string{"1xxxxxxx"},
		},
		"self": {
			a: "10xxxxxx", b: "10xxxxxx",
			expected: []string{},
		},
		"covered": {
			a: "10xxxxxx", b: "1xxxxxxx",
			expected: []string{},
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			in := arrays(t, tc.a, tc.b)
			assert.Equal(t, tc.expected, arrayStrings(in[0].Diff(in[1])))
		})
	}
}

func TestArrayMerge(t *testing.T) {
	tests := map[string]struct {
		a, b     string
		expected string
		ok       bool
	}{
		"one bit":       {a: "10xxxxxx", b: "11xxxxxx", expected: "1xxxxxxx", ok: true},
		"two bits":      {a: "10xxxxxx", b: "01xxxxxx"},
		"wildcards":     {a: "10xxxxxx", b: "1xxxxxxx"},
		"identical":     {a: "10xxxxxx", b: "10xxxxxx"},
		"last position": {a: "xxxxxxx0", b: "xxxxxxx1", expected: "xxxxxxxx", ok: true},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			in := arrays(t, tc.a, tc.b)
			m, ok := in[0].Merge(in[1])
			assert.Equal(t, tc.ok, ok)
			if ok {
				assert.Equal(t, tc.expected, m.String())
			}
		})
	}
}

func TestArrayRewrite(t *testing.T) {
	tests := map[string]struct {
		a, mask, rw string
		expected    string
		overwritten int
	}{
		"wildcard rewrite": {
			a: "1xxxxxxx", mask: "10000000", rw: "x0000000",
			expected: "xxxxxxxx",
		},
		"two bytes": {
			a: "000111xx,x01x01x0", mask: "11111111,10000000", rw: "01x01x01,x1x0x01x",
			expected:    "01x01x01,x01x01x0",
			overwritten: 3,
		},
		"first position only": {
			a: "10xxxxxx", mask: "10000000", rw: "x0000000",
			expected: "x0xxxxxx",
		},
		"no mask": {
			a: "10xxxxxx", mask: "00000000", rw: "11111111",
			expected: "10xxxxxx",
		},
		"mask wildcard is unmasked": {
			a: "10xxxxxx", mask: "xxxxxxxx", rw: "11111111",
			expected: "10xxxxxx",
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			in := arrays(t, tc.a, tc.mask, tc.rw)
			r, n := in[0].Rewrite(in[1], in[2])
			assert.Equal(t, tc.expected, r.String())
			assert.Equal(t, tc.overwritten, n)
			assert.Equal(t, tc.overwritten, in[0].XCount(in[1]))
		})
	}
}

func TestArrayEnlarge(t *testing.T) {
	a := hs.MustParseArray("10xxxxxx")
	assert.Equal(t, "10xxxxxx,xxxxxxxx", a.Enlarge(2).String())
	e := a.Enlarge(5)
	assert.Equal(t, "10xxxxxx,xxxxxxxx,xxxxxxxx,xxxxxxxx,xxxxxxxx", e.String())
	assert.False(t, e.IsEmpty())
	assert.Equal(t, "10xxxxxx", a.Enlarge(1).String())
	assert.True(t, hs.FullArray(3).Enlarge(9).IsFull())
}

func TestArrayLengthMismatch(t *testing.T) {
	a := hs.FullArray(1)
	b := hs.FullArray(2)
	assert.Panics(t, func() { a.Intersect(b) })
	assert.Panics(t, func() { a.IsSubset(b) })
	assert.Panics(t, func() { a.Rewrite(b, b) })
}

func TestArrayText(t *testing.T) {
	var a hs.Array
	require.NoError(t, a.UnmarshalText([]byte("1010xxxx")))
	text, err := a.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "1010xxxx", string(text))
	assert.Error(t, a.UnmarshalText([]byte("1010")))
}
