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

package plumber_test

import (
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netplumber/netplumber/pkg/plumber"
	"github.com/netplumber/netplumber/pkg/plumber/mock_plumber"
)

func TestLoopDetection(t *testing.T) {
	ctrl := gomock.NewController(t)
	handler := mock_plumber.NewMockEventHandler(ctrl)
	p := newPlumber(t, plumber.WithHandler(handler))
	n := newTwoTables(t, p)
	// Let r2 forward everything r1 sends.
	require.NoError(t, p.RemoveRule(n.r2))
	r2 := mustRule(t, p, 2, 10, plumber.Ports{3}, plumber.Ports{4}, "xxxxxxxx")
	src := p.AddSource(set(t, "1xxxxxxx"), plumber.Ports{100})

	var loops []plumber.LoopEvent
	handler.EXPECT().OnLoop(gomock.Any()).Do(func(e plumber.LoopEvent) {
		loops = append(loops, e)
	}).Times(1)
	p.AddLink(4, 1)

	require.Len(t, loops, 1)
	assert.Equal(t, plumber.Event{Type: plumber.EventAddLink, ID1: 4, ID2: 1}, loops[0].Event)
	assert.Equal(t, plumber.Path{
		{Node: src, Kind: plumber.KindSource},
		{Node: n.r1, Kind: plumber.KindRule, Table: 1, InPort: 1},
		{Node: r2, Kind: plumber.KindRule, Table: 2, InPort: 3},
		{Node: n.r1, Kind: plumber.KindRule, Table: 1, InPort: 1},
	}, loops[0].Path)

	var looped int
	for _, f := range p.Flows(n.r1) {
		if f.Looped {
			looped++
			assert.Nil(t, f.Processed)
		}
	}
	assert.Equal(t, 1, looped)

	// Removing the link breaks the loop again.
	require.NoError(t, p.RemoveLink(4, 1))
	assert.Len(t, p.Flows(n.r1), 1)
}

func TestLoopModes(t *testing.T) {
	tests := map[string]struct {
		mode  plumber.LoopMode
		loops int
	}{
		"by node": {
			mode:  plumber.LoopByNode,
			loops: 0,
		},
		"by table": {
			mode:  plumber.LoopByTable,
			loops: 1,
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			var loops int
			p := newPlumber(t,
				plumber.WithLoopDetection(tc.mode),
				plumber.WithHandler(plumber.Funcs{
					Loop: func(plumber.LoopEvent) { loops++ },
				}),
			)
			// A flow crosses table 1 twice through two different rules.
			require.NoError(t, p.AddTable(1, plumber.NewPorts(1, 2, 5, 6)))
			p.AddLink(100, 1)
			p.AddLink(2, 5)
			mustRule(t, p, 1, 0, plumber.Ports{1}, plumber.Ports{2}, "xxxxxxxx")
			second := mustRule(t, p, 1, 1, plumber.Ports{5}, plumber.Ports{6}, "xxxxxxxx")
			p.AddSource(set(t, "xxxxxxxx"), plumber.Ports{100})

			assert.Equal(t, tc.loops, loops)
			flows := p.Flows(second)
			require.Len(t, flows, 1)
			assert.Equal(t, tc.loops == 1, flows[0].Looped)
		})
	}
}

func TestPathString(t *testing.T) {
	path := plumber.Path{
		{Node: 1, Kind: plumber.KindSource},
		{Node: 4, Kind: plumber.KindRule, Table: 1, InPort: 1},
		{Node: 9, Kind: plumber.KindProbe, InPort: 200},
	}
	assert.Equal(t, "1 -> 4@t1 -> 9", path.String())
	assert.Empty(t, plumber.Path{}.String())
}
