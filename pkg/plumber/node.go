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
	"fmt"

	"github.com/netplumber/netplumber/pkg/hs"
)

// NodeID identifies a node. Zero is never a valid id.
type NodeID uint64

// TableID identifies a table. Zero is never a valid id.
type TableID uint32

// NodeKind is the kind of a node.
type NodeKind uint8

const (
	KindRule NodeKind = iota + 1
	KindSource
	KindProbe
)

func (k NodeKind) String() string {
	switch k {
	case KindRule:
		return "rule"
	case KindSource:
		return "source"
	case KindProbe:
		return "probe"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", uint8(k))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k NodeKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// IndexLast appends a rule at the end of its table.
const IndexLast = ^uint32(0)

type node struct {
	id   NodeID
	kind NodeKind
	in   Ports
	out  Ports

	// match filters the headers entering over backward pipes. invMatch is the
	// image of match under the rewrite and filters forward pipes.
	match    hs.Array
	invMatch hs.Array

	// Input- and output-layer rules face the outside of their table. Flows are
	// never sent back out of the port they entered the table through.
	inputLayer  bool
	outputLayer bool

	fwd   handleList // pipes, this node is upstream
	bck   handleList // pipes, this node is downstream
	flows handleList

	rule   *rule
	source hs.Set
	probe  *probe
}

type rule struct {
	table TableID
	index uint32
	// mask and rw are only set for rewrite rules.
	mask, rw hs.Array
	rewrite  bool

	influencedBy handleList // influences with this rule as the lower one
	effectOn     handleList // influences with this rule as the upper one
}

type table struct {
	id    TableID
	ports Ports
	// rules in priority order, earlier rules are matched first.
	rules []NodeID
}

func (t *table) position(id NodeID) int {
	for i, r := range t.rules {
		if r == id {
			return i
		}
	}
	return -1
}
