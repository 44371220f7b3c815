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
	"bytes"
	"encoding/json"
	"strings"

	"github.com/netplumber/netplumber/pkg/private/serrors"
)

// Spec is the declarative form of a header set: the union of List minus the
// union of Diff. It is independent of any backend and is used wherever a
// header set is read from or written to a network description.
//
// In JSON a Spec is either a single array string or an object
//
//	{"list": ["10xxxxxx"], "diff": ["1011xxxx"]}
type Spec struct {
	List []Array `json:"list"`
	Diff []Array `json:"diff,omitempty"`
}

// SpecOf returns the spec of the given arrays.
func SpecOf(arrays ...Array) Spec {
	return Spec{List: arrays}
}

// Len returns the header length of the spec, zero if it is empty.
func (s Spec) Len() int {
	for _, a := range s.List {
		return a.Len()
	}
	for _, a := range s.Diff {
		return a.Len()
	}
	return 0
}

// Set builds the set of s with backend b. Arrays shorter than n are enlarged.
func (s Spec) Set(b Backend, n int) Set {
	set := b.Empty(n)
	for _, a := range s.List {
		set = set.UnionArray(a.Enlarge(n))
	}
	for _, d := range s.Diff {
		set = set.DiffArray(d.Enlarge(n))
	}
	return set.Compact()
}

// Intersects reports whether x shares a header with s. The spec is enlarged to
// the length of x if it is shorter.
func (s Spec) Intersects(x Set) bool {
	n := x.Len()
	for _, a := range s.List {
		y := x.IntersectArray(a.Enlarge(n))
		for _, d := range s.Diff {
			y = y.DiffArray(d.Enlarge(n))
		}
		if !y.Compact().IsEmpty() {
			return true
		}
	}
	return false
}

// Enlarge returns a copy of s with every array enlarged to n bytes.
func (s Spec) Enlarge(n int) Spec {
	r := Spec{List: make([]Array, 0, len(s.List))}
	for _, a := range s.List {
		r.List = append(r.List, a.Enlarge(n))
	}
	for _, d := range s.Diff {
		r.Diff = append(r.Diff, d.Enlarge(n))
	}
	return r
}

func (s Spec) String() string {
	list := make([]string, 0, len(s.List))
	for _, a := range s.List {
		list = append(list, a.String())
	}
	res := strings.Join(list, " + ")
	if len(s.Diff) == 0 {
		return res
	}
	diff := make([]string, 0, len(s.Diff))
	for _, d := range s.Diff {
		diff = append(diff, d.String())
	}
	return "(" + res + ") - (" + strings.Join(diff, " + ") + ")"
}

type jsonSpec struct {
	List []Array `json:"list"`
	Diff []Array `json:"diff,omitempty"`
}

// MarshalJSON encodes a single array without diffs as a plain string.
func (s Spec) MarshalJSON() ([]byte, error) {
	if len(s.List) == 1 && len(s.Diff) == 0 {
		return json.Marshal(s.List[0])
	}
	return json.Marshal(jsonSpec(s))
}

func (s *Spec) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var a Array
		if err := json.Unmarshal(data, &a); err != nil {
			return err
		}
		*s = Spec{List: []Array{a}}
		return nil
	}
	var js jsonSpec
	if err := json.Unmarshal(data, &js); err != nil {
		return serrors.Wrap("decoding header spec", err)
	}
	n := -1
	for _, a := range append(append([]Array(nil), js.List...), js.Diff...) {
		if n >= 0 && a.Len() != n {
			return serrors.New("header spec length mismatch", "expected", n,
				"actual", a.Len())
		}
		n = a.Len()
	}
	*s = Spec(js)
	return nil
}
