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

package cond

import (
	"fmt"
	"slices"
	"strings"
)

// Pathlet matches a section of a flow path. Pathlets are applied from the
// probe towards the source. move consumes the matched hops and returns the hop
// the next pathlet starts at.
type Pathlet interface {
	move(h Hop) (Hop, bool)
	Typer
	fmt.Stringer
}

var (
	_ Pathlet = Port{}
	_ Pathlet = Table{}
	_ Pathlet = NextPorts{}
	_ Pathlet = NextTables{}
	_ Pathlet = LastPorts{}
	_ Pathlet = LastTables{}
	_ Pathlet = Skip{}
	_ Pathlet = SkipNext{}
	_ Pathlet = End{}
)

// Port matches the path up to and including the first input stage hop that
// entered through the port.
type Port struct {
	Port uint32 `json:"port"`
}

func (p Port) move(h Hop) (Hop, bool) {
	for ; h.Parent() != nil; h = h.Parent() {
		if h.InPort() == p.Port && h.InputStage() {
			return h.Parent(), true
		}
	}
	return h, false
}

func (Port) Type() string { return TypePort }

func (p Port) String() string { return fmt.Sprintf(".*(p = %d)", p.Port) }

// Table matches the path up to and including the first input stage hop in the
// table.
type Table struct {
	Table uint32 `json:"table"`
}

func (t Table) move(h Hop) (Hop, bool) {
	for ; h.Parent() != nil; h = h.Parent() {
		if h.IsRule() && h.Table() == t.Table && h.InputStage() {
			return h.Parent(), true
		}
	}
	return h, false
}

func (Table) Type() string { return TypeTable }

func (t Table) String() string { return fmt.Sprintf(".*(t = %d)", t.Table) }

// nextInput skips hops that are not at the input stage of their table.
func nextInput(h Hop) Hop {
	for h.Parent() != nil && !h.InputStage() {
		h = h.Parent()
	}
	return h
}

// lastHop returns the hop right after the source, nil for an empty path.
func lastHop(h Hop) Hop {
	var prev Hop
	for h.Parent() != nil {
		prev = h
		h = h.Parent()
	}
	return prev
}

// NextPorts matches the next input stage hop if it entered through one of
// the ports.
type NextPorts struct {
	Ports []uint32 `json:"ports"`
}

func (p NextPorts) move(h Hop) (Hop, bool) {
	h = nextInput(h)
	if h.Parent() != nil && slices.Contains(p.Ports, h.InPort()) {
		return h.Parent(), true
	}
	return h, false
}

func (NextPorts) Type() string { return TypeNextPorts }

func (p NextPorts) String() string { return "(p in " + list(p.Ports) + ")" }

// NextTables matches the next input stage hop if it is in one of the tables.
type NextTables struct {
	Tables []uint32 `json:"tables"`
}

func (t NextTables) move(h Hop) (Hop, bool) {
	h = nextInput(h)
	if h.Parent() != nil && h.IsRule() && slices.Contains(t.Tables, h.Table()) {
		return h.Parent(), true
	}
	return h, false
}

func (NextTables) Type() string { return TypeNextTables }

func (t NextTables) String() string { return "(t in " + list(t.Tables) + ")" }

// LastPorts matches if the first hop after the source entered through one of
// the ports.
type LastPorts struct {
	Ports []uint32 `json:"ports"`
}

func (p LastPorts) move(h Hop) (Hop, bool) {
	last := lastHop(h)
	if last == nil || !last.InputStage() || !slices.Contains(p.Ports, last.InPort()) {
		return h, false
	}
	return last.Parent(), true
}

func (LastPorts) Type() string { return TypeLastPorts }

func (p LastPorts) String() string { return ".*(p in " + list(p.Ports) + ")$" }

// LastTables matches if the first hop after the source is in one of the
// tables.
type LastTables struct {
	Tables []uint32 `json:"tables"`
}

func (t LastTables) move(h Hop) (Hop, bool) {
	last := lastHop(h)
	if last == nil || !last.IsRule() || !last.InputStage() ||
		!slices.Contains(t.Tables, last.Table()) {
		return h, false
	}
	return last.Parent(), true
}

func (LastTables) Type() string { return TypeLastTables }

func (t LastTables) String() string { return ".*(t in " + list(t.Tables) + ")$" }

// Skip matches exactly one table on the path.
type Skip struct{}

func (Skip) move(h Hop) (Hop, bool) {
	h = nextInput(h)
	if h.Parent() != nil {
		return h.Parent(), true
	}
	return h, false
}

func (Skip) Type() string { return TypeSkip }

func (Skip) String() string { return "." }

// SkipNext matches any number of hops. The path condition tries the shortest
// match first and backtracks to longer ones.
type SkipNext struct{}

func (SkipNext) move(h Hop) (Hop, bool) { return h, true }

func (SkipNext) Type() string { return TypeSkipNext }

func (SkipNext) String() string { return ".*" }

// End matches the source.
type End struct{}

func (End) move(h Hop) (Hop, bool) { return h, h.Parent() == nil }

func (End) Type() string { return TypeEnd }

func (End) String() string { return "$" }

// Path holds if the pathlets match the path in sequence.
type Path struct {
	Pathlets []Pathlet
}

func NewPath(pathlets ...Pathlet) *Path {
	return &Path{Pathlets: pathlets}
}

type decision struct {
	pos int
	hop Hop
}

func (c *Path) Eval(h Hop) bool {
	// Open SkipNext pathlets with the hop their next alternative starts at.
	var stack []decision
	for i := 0; i < len(c.Pathlets); i++ {
		if _, ok := c.Pathlets[i].(SkipNext); ok {
			if h.Parent() != nil {
				stack = append(stack, decision{pos: i, hop: h.Parent()})
			}
			continue
		}
		if next, ok := c.Pathlets[i].move(h); ok {
			h = next
			continue
		}
		if len(stack) == 0 {
			return false
		}
		d := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if d.hop.Parent() != nil {
			stack = append(stack, decision{pos: d.pos, hop: d.hop.Parent()})
		}
		i, h = d.pos, d.hop
	}
	return true
}

func (c *Path) Type() string { return TypePath }

func (c *Path) String() string {
	var b strings.Builder
	b.WriteString(`path ~ "`)
	for _, pl := range c.Pathlets {
		b.WriteString(pl.String())
	}
	b.WriteString(`"`)
	return b.String()
}

func list(vals []uint32) string {
	s := make([]string, 0, len(vals))
	for _, v := range vals {
		s = append(s, fmt.Sprint(v))
	}
	return "[" + strings.Join(s, ",") + "]"
}
