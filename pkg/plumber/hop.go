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
	"github.com/netplumber/netplumber/pkg/hs"
	"github.com/netplumber/netplumber/pkg/plumber/cond"
)

// flowHop exposes a flow to probe conditions.
type flowHop struct {
	p *Plumber
	f *flow
	n *node
}

var _ cond.Hop = flowHop{}

func (p *Plumber) hop(fh handle) cond.Hop {
	f := p.flow(fh)
	if f == nil {
		return nil
	}
	return flowHop{p: p, f: f, n: p.nodes[f.node]}
}

func (h flowHop) Parent() cond.Hop {
	if !h.f.parent.valid() {
		return nil
	}
	return h.p.hop(h.f.parent)
}

func (h flowHop) InPort() uint32 { return h.f.inPort }

func (h flowHop) IsRule() bool { return h.n.kind == KindRule }

func (h flowHop) Table() uint32 {
	if h.n.rule == nil {
		return 0
	}
	return uint32(h.n.rule.table)
}

func (h flowHop) InputStage() bool { return h.n.inputLayer }

func (h flowHop) Header() hs.Set { return h.f.processed }
