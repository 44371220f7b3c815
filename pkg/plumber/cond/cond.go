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

	"github.com/netplumber/netplumber/pkg/hs"
)

// Hop is one hop of a flow path as seen by conditions.
type Hop interface {
	// Parent returns the previous hop, nil at the source.
	Parent() Hop
	// InPort returns the port the flow entered the node through.
	InPort() uint32
	// IsRule reports whether the hop is at a rule.
	IsRule() bool
	// Table returns the table of the rule, zero if the hop is not at a rule.
	Table() uint32
	// InputStage reports whether the node is at the input stage of its table.
	InputStage() bool
	// Header returns the processed header set of the hop.
	Header() hs.Set
}

// Condition is a predicate over flow paths.
type Condition interface {
	Eval(Hop) bool
	Typer
	fmt.Stringer
}

var (
	_ Condition = True{}
	_ Condition = False{}
	_ Condition = (*And)(nil)
	_ Condition = (*Or)(nil)
	_ Condition = (*Not)(nil)
	_ Condition = (*Header)(nil)
	_ Condition = (*Path)(nil)
)

// True holds for every flow.
type True struct{}

func (True) Eval(Hop) bool { return true }
func (True) Type() string { return TypeTrue }
func (True) String() string { return "true" }

// False holds for no flow.
type False struct{}

func (False) Eval(Hop) bool { return false }
func (False) Type() string { return TypeFalse }
func (False) String() string { return "false" }

// And holds if both arguments hold.
type And struct {
	Arg1, Arg2 Condition
}

func NewAnd(a, b Condition) *And {
	return &And{Arg1: a, Arg2: b}
}

func (c *And) Eval(h Hop) bool {
	return c.Arg1.Eval(h) && c.Arg2.Eval(h)
}

func (c *And) Type() string { return TypeAnd }

func (c *And) String() string {
	return fmt.Sprintf("(%s && %s)", c.Arg1, c.Arg2)
}

// Or holds if any argument holds.
type Or struct {
	Arg1, Arg2 Condition
}

func NewOr(a, b Condition) *Or {
	return &Or{Arg1: a, Arg2: b}
}

func (c *Or) Eval(h Hop) bool {
	return c.Arg1.Eval(h) || c.Arg2.Eval(h)
}

func (c *Or) Type() string { return TypeOr }

func (c *Or) String() string {
	return fmt.Sprintf("(%s || %s)", c.Arg1, c.Arg2)
}

// Not negates its argument.
type Not struct {
	Arg Condition
}

func NewNot(c Condition) *Not {
	return &Not{Arg: c}
}

func (c *Not) Eval(h Hop) bool { return !c.Arg.Eval(h) }

func (c *Not) Type() string { return TypeNot }

func (c *Not) String() string {
	return fmt.Sprintf("!%s", c.Arg)
}

// Header holds if the processed header set of the flow intersects the given
// header space. A shorter header space is treated as wildcard-extended.
type Header struct {
	Header hs.Spec
}

func NewHeader(s hs.Spec) *Header {
	return &Header{Header: s}
}

func (c *Header) Eval(h Hop) bool {
	set := h.Header()
	if set == nil {
		return false
	}
	return c.Header.Intersects(set)
}

func (c *Header) Type() string { return TypeHeader }

func (c *Header) String() string {
	return "header ~ " + c.Header.String()
}
