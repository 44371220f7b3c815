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
	"slices"
	"strconv"
	"strings"
)

// Ports is a sorted set of port numbers.
type Ports []uint32

// NewPorts returns the sorted, deduplicated set of the given ports.
func NewPorts(ports ...uint32) Ports {
	p := slices.Clone(ports)
	slices.Sort(p)
	return Ports(slices.Compact(p))
}

// Contains reports whether port is in p.
func (p Ports) Contains(port uint32) bool {
	_, ok := slices.BinarySearch(p, port)
	return ok
}

// ContainsAll reports whether every port of o is in p.
func (p Ports) ContainsAll(o Ports) bool {
	for _, port := range o {
		if !p.Contains(port) {
			return false
		}
	}
	return true
}

// Intersect returns the ports present in both p and o.
func (p Ports) Intersect(o Ports) Ports {
	var res Ports
	i, j := 0, 0
	for i < len(p) && j < len(o) {
		switch {
		case p[i] < o[j]:
			i++
		case p[i] > o[j]:
			j++
		default:
			res = append(res, p[i])
			i++
			j++
		}
	}
	return res
}

// Overlaps reports whether p and o share a port.
func (p Ports) Overlaps(o Ports) bool {
	for _, port := range o {
		if p.Contains(port) {
			return true
		}
	}
	return false
}

func (p Ports) String() string {
	s := make([]string, 0, len(p))
	for _, port := range p {
		s = append(s, strconv.FormatUint(uint64(port), 10))
	}
	return "(" + strings.Join(s, ",") + ")"
}
