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

package cond_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netplumber/netplumber/pkg/hs"
	"github.com/netplumber/netplumber/pkg/plumber/cond"
)

type hop struct {
	parent *hop
	port   uint32
	table  uint32
	rule   bool
	header hs.Set
}

func (h *hop) Parent() cond.Hop {
	if h.parent == nil {
		return nil
	}
	return h.parent
}

func (h *hop) InPort() uint32 { return h.port }
func (h *hop) IsRule() bool { return h.rule }
func (h *hop) Table() uint32 { return h.table }
func (h *hop) InputStage() bool { return h.rule }
func (h *hop) Header() hs.Set { return h.header }

// chain builds source -> rule(ports[0], tables[0]) -> ... and returns the last
// hop.
func chain(ports, tables []uint32) *hop {
	h := &hop{}
	for i := range ports {
		h = &hop{parent: h, port: ports[i], table: tables[i], rule: true}
	}
	return h
}

func TestPort(t *testing.T) {
	flow := chain([]uint32{1, 2, 3}, []uint32{100, 200, 300})
	c := cond.NewPath(cond.Port{Port: 2})
	assert.True(t, c.Eval(flow))
	c.Pathlets = append(c.Pathlets, cond.Port{Port: 1}, cond.End{})
	assert.True(t, c.Eval(flow))
}

func TestTable(t *testing.T) {
	flow := chain([]uint32{1, 2, 3}, []uint32{100, 200, 300})
	c := cond.NewPath(cond.Table{Table: 300})
	assert.True(t, c.Eval(flow))
	c.Pathlets = append(c.Pathlets, cond.Table{Table: 200}, cond.End{})
	assert.False(t, c.Eval(flow))
}

func TestPortSequence(t *testing.T) {
	flow := chain([]uint32{1, 2, 3, 4, 5}, []uint32{100, 200, 300, 400, 500})
	c := cond.NewPath(cond.Port{Port: 4}, cond.NextPorts{Ports: []uint32{3}})
	assert.True(t, c.Eval(flow))
	c.Pathlets = append(c.Pathlets, cond.NextPorts{Ports: []uint32{1}})
	assert.False(t, c.Eval(flow))
}

func TestSequence(t *testing.T) {
	flow := chain([]uint32{1, 2, 3, 4, 5}, []uint32{100, 200, 300, 400, 500})
	c := cond.NewPath(cond.Port{Port: 4}, cond.NextTables{Tables: []uint32{300}})
	assert.True(t, c.Eval(flow))
	c.Pathlets = append(c.Pathlets, cond.Skip{}, cond.NextTables{Tables: []uint32{100}})
	assert.True(t, c.Eval(flow))
}

func TestPathLength(t *testing.T) {
	long := chain([]uint32{1, 2, 3, 4}, []uint32{100, 200, 300, 400})
	short := chain([]uint32{1, 2}, []uint32{100, 200})
	c := cond.NewOr(
		cond.NewOr(
			cond.NewPath(cond.Skip{}, cond.End{}),
			cond.NewPath(cond.Skip{}, cond.Skip{}, cond.End{}),
		),
		cond.NewPath(cond.Skip{}, cond.Skip{}, cond.Skip{}, cond.End{}),
	)
	assert.False(t, c.Eval(long))
	assert.True(t, c.Eval(short))
}

func TestLasts(t *testing.T) {
	flow1 := chain([]uint32{10, 2, 3, 4}, []uint32{100, 200, 300, 400})
	flow2 := chain([]uint32{11, 2, 3, 4}, []uint32{101, 200, 300, 400})
	ports := cond.NewPath(cond.LastPorts{Ports: []uint32{10, 11}})
	tables := cond.NewPath(cond.LastTables{Tables: []uint32{100, 101}})
	for _, flow := range []*hop{flow1, flow2} {
		assert.True(t, ports.Eval(flow))
		assert.True(t, tables.Eval(flow))
	}
	assert.False(t, cond.NewPath(cond.LastPorts{Ports: []uint32{2}}).Eval(flow1))
}

func TestSkipNext(t *testing.T) {
	flow := chain([]uint32{1, 2, 3, 4}, []uint32{100, 200, 300, 400})
	tests := map[string]struct {
		pathlets []cond.Pathlet
		expected bool
	}{
		"any path": {
			pathlets: []cond.Pathlet{cond.SkipNext{}, cond.End{}},
			expected: true,
		},
		"table in the middle": {
			pathlets: []cond.Pathlet{
				cond.SkipNext{}, cond.NextTables{Tables: []uint32{200}},
				cond.SkipNext{}, cond.End{},
			},
			expected: true,
		},
		"exact tail": {
			pathlets: []cond.Pathlet{
				cond.SkipNext{}, cond.NextPorts{Ports: []uint32{2}},
				cond.NextPorts{Ports: []uint32{1}}, cond.End{},
			},
			expected: true,
		},
		"wrong order": {
			pathlets: []cond.Pathlet{
				cond.SkipNext{}, cond.NextTables{Tables: []uint32{100}},
				cond.SkipNext{}, cond.NextTables{Tables: []uint32{300}},
			},
			expected: false,
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.expected, cond.NewPath(tc.pathlets...).Eval(flow))
		})
	}
}

func TestHeader(t *testing.T) {
	flow := chain([]uint32{1, 2, 3, 4, 5}, []uint32{100, 200, 300, 400, 500})
	flow.header = hs.HeaderSpaceFrom(1, hs.MustParseArray("10xxxxxx")).
		DiffArray(hs.MustParseArray("1011xxxx"))

	hc1 := cond.NewHeader(hs.SpecOf(hs.MustParseArray("100xxxxx")))
	hc2 := cond.NewHeader(hs.SpecOf(hs.MustParseArray("10111xxx")))
	assert.True(t, hc1.Eval(flow))
	assert.False(t, hc2.Eval(flow))
	assert.True(t, cond.NewNot(hc2).Eval(flow))
	assert.True(t, cond.NewAnd(hc1, cond.True{}).Eval(flow))
	assert.False(t, cond.NewAnd(hc1, cond.False{}).Eval(flow))
}

func TestJSON(t *testing.T) {
	input := `{
		"type": "and",
		"arg1": {"type": "not", "arg": {"type": "header", "header": "10111xxx"}},
		"arg2": {"type": "path", "pathlets": [
			{"type": "port", "port": 4},
			{"type": "next_tables", "tables": [300]},
			{"type": "skip"},
			{"type": "skip_next"},
			{"type": "last_ports", "ports": [1]},
			{"type": "end"}
		]}
	}`
	c, err := cond.Unmarshal([]byte(input))
	require.NoError(t, err)
	assert.Equal(t, `(!header ~ 10111xxx && path ~ ".*(p = 4)(t in [300])..*.*(p in [1])$$")`,
		c.String())

	raw, err := cond.Marshal(c)
	require.NoError(t, err)
	assert.JSONEq(t, input, string(raw))

	var wrapped struct {
		Test cond.JSON `json:"test"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"test": {"type": "true"}}`), &wrapped))
	assert.Equal(t, cond.True{}, wrapped.Test.Condition)
}

func TestJSONErrors(t *testing.T) {
	tests := map[string]string{
		"unknown type":    `{"type": "xor"}`,
		"missing type":    `{"arg": {"type": "true"}}`,
		"missing arg":     `{"type": "and", "arg1": {"type": "true"}}`,
		"unknown pathlet": `{"type": "path", "pathlets": [{"type": "hop"}]}`,
		"missing port":    `{"type": "path", "pathlets": [{"type": "port"}]}`,
		"bad header":      `{"type": "header", "header": "10"}`,
	}
	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := cond.Unmarshal([]byte(input))
			assert.Error(t, err)
		})
	}
}
