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
	"strings"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netplumber/netplumber/pkg/plumber"
	"github.com/netplumber/netplumber/pkg/plumber/mock_plumber"
)

// slicedNetwork is a source at port 100 feeding r1 in table 1, r2 in table 2
// and r3 in table 3, in that order.
type slicedNetwork struct {
	src, r1, r2, r3 plumber.NodeID
}

func newSlicedNetwork(t *testing.T, p *plumber.Plumber) slicedNetwork {
	t.Helper()
	n := slicedNetwork{}
	require.NoError(t, p.AddTable(1, plumber.NewPorts(1, 2)))
	require.NoError(t, p.AddTable(2, plumber.NewPorts(3, 4)))
	require.NoError(t, p.AddTable(3, plumber.NewPorts(5, 6)))
	p.AddLink(100, 1)
	p.AddLink(2, 3)
	p.AddLink(4, 5)
	n.r1 = mustRule(t, p, 1, 0, plumber.Ports{1}, plumber.Ports{2}, "1xxxxxxx")
	n.r2 = mustRule(t, p, 2, 0, plumber.Ports{3}, plumber.Ports{4}, "xxxxxxxx")
	n.r3 = mustRule(t, p, 3, 0, plumber.Ports{5}, plumber.Ports{6}, "xxxxxxxx")
	n.src = p.AddSource(set(t, "xxxxxxxx"), plumber.Ports{100})
	return n
}

func TestSlicingDisabled(t *testing.T) {
	p := newPlumber(t)
	assert.ErrorIs(t, p.AddSlice(1, set(t, "1xxxxxxx")), plumber.ErrSlicingDisabled)
	assert.ErrorIs(t, p.RemoveSlice(1), plumber.ErrSlicingDisabled)
	assert.ErrorIs(t, p.AddSliceAllow(1, 0), plumber.ErrSlicingDisabled)
	assert.ErrorIs(t, p.RemoveSliceAllow(1, 0), plumber.ErrSlicingDisabled)
	assert.ErrorIs(t, p.AddSliceMatrix(strings.NewReader(",1\n1,\n")),
		plumber.ErrSlicingDisabled)
	assert.ErrorIs(t, p.RemoveSliceMatrix(), plumber.ErrSlicingDisabled)
}

func TestAddSlice(t *testing.T) {
	ctrl := gomock.NewController(t)
	handler := mock_plumber.NewMockEventHandler(ctrl)
	p := newPlumber(t, plumber.WithSlicing(), plumber.WithHandler(handler))
	n := newSlicedNetwork(t, p)

	// The pipes carrying 1xxxxxxx move to slice 1, the pipe from r2 to r3
	// carries every header and stays in the free space.
	handler.EXPECT().OnSliceLeak(plumber.SliceLeakEvent{
		Event: plumber.Event{Type: plumber.EventAddSlice, ID1: 1},
		Node:  n.r2,
		In:    1,
		Out:   0,
	})
	require.NoError(t, p.AddSlice(1, set(t, "1xxxxxxx")))
	for _, tc := range []struct {
		from, to         plumber.NodeID
		fromPort, toPort uint32
		slice            uint64
	}{
		{from: n.src, to: n.r1, fromPort: 100, toPort: 1, slice: 1},
		{from: n.r1, to: n.r2, fromPort: 2, toPort: 3, slice: 1},
		{from: n.r2, to: n.r3, fromPort: 4, toPort: 5, slice: 0},
	} {
		s, ok := p.SliceOf(tc.from, tc.to, tc.fromPort, tc.toPort)
		require.True(t, ok)
		assert.Equal(t, tc.slice, s)
	}
	_, ok := p.SliceOf(n.r1, n.r3, 2, 5)
	assert.False(t, ok)

	handler.EXPECT().OnSliceOverlap(plumber.SliceOverlapEvent{
		Event:   plumber.Event{Type: plumber.EventAddSlice, ID1: 2},
		Slice:   2,
		Overlap: 1,
	})
	assert.ErrorIs(t, p.AddSlice(2, set(t, "11xxxxxx")), plumber.ErrSliceOverlap)
	require.NoError(t, p.AddSlice(2, set(t, "01xxxxxx")))
	assert.ErrorIs(t, p.AddSlice(0, set(t, "00xxxxxx")), plumber.ErrInvalidSlice)

	slices := p.DumpSlices()
	require.Len(t, slices, 3)
	assert.Equal(t, uint64(0), slices[0].ID)
	assert.Equal(t, 1, slices[0].Pipes)
	assert.Equal(t, 2, slices[1].Pipes)
	assert.Equal(t, 0, slices[2].Pipes)

	require.NoError(t, p.RemoveSlice(1))
	s, ok := p.SliceOf(n.src, n.r1, 100, 1)
	require.True(t, ok)
	assert.Equal(t, uint64(0), s)
	assert.ErrorIs(t, p.RemoveSlice(1), plumber.ErrInvalidSlice)
	assert.Equal(t, 2, p.Stats().Slices)
}

func TestSliceAllow(t *testing.T) {
	tests := map[string]struct {
		allow func(t *testing.T, p *plumber.Plumber)
		leaks int
	}{
		"no allow": {
			allow: func(t *testing.T, p *plumber.Plumber) {},
			leaks: 1,
		},
		"allow entry": {
			allow: func(t *testing.T, p *plumber.Plumber) {
				require.NoError(t, p.AddSliceAllow(1, 0))
			},
		},
		"allow entry removed": {
			allow: func(t *testing.T, p *plumber.Plumber) {
				require.NoError(t, p.AddSliceAllow(1, 0))
				require.NoError(t, p.RemoveSliceAllow(1, 0))
			},
			leaks: 1,
		},
		"matrix": {
			allow: func(t *testing.T, p *plumber.Plumber) {
				require.NoError(t, p.AddSliceMatrix(strings.NewReader(",0,1\n0,,\n1,x,\n")))
			},
		},
		"matrix removed": {
			allow: func(t *testing.T, p *plumber.Plumber) {
				require.NoError(t, p.AddSliceMatrix(strings.NewReader(",0,1\n0,,\n1,x,\n")))
				require.NoError(t, p.RemoveSliceMatrix())
			},
			leaks: 1,
		},
		"wrong direction": {
			allow: func(t *testing.T, p *plumber.Plumber) {
				require.NoError(t, p.AddSliceAllow(0, 1))
			},
			leaks: 1,
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			var leaks []plumber.SliceLeakEvent
			p := newPlumber(t, plumber.WithSlicing(), plumber.WithHandler(plumber.Funcs{
				SliceLeak: func(e plumber.SliceLeakEvent) { leaks = append(leaks, e) },
			}))
			n := newSlicedNetwork(t, p)
			tc.allow(t, p)
			require.NoError(t, p.AddSlice(1, set(t, "1xxxxxxx")))
			require.Len(t, leaks, tc.leaks)
			if tc.leaks > 0 {
				assert.Equal(t, n.r2, leaks[0].Node)
			}
		})
	}
}

func TestSliceLeakOnNewPipe(t *testing.T) {
	var leaks []plumber.SliceLeakEvent
	p := newPlumber(t, plumber.WithSlicing(), plumber.WithHandler(plumber.Funcs{
		SliceLeak: func(e plumber.SliceLeakEvent) { leaks = append(leaks, e) },
	}))
	require.NoError(t, p.AddSlice(1, set(t, "1xxxxxxx")))
	require.NoError(t, p.AddTable(1, plumber.NewPorts(1, 2)))
	require.NoError(t, p.AddTable(2, plumber.NewPorts(3, 4)))
	p.AddLink(2, 3)
	r1 := mustRule(t, p, 1, 0, plumber.Ports{1}, plumber.Ports{2}, "1xxxxxxx")
	assert.Empty(t, leaks)
	// The pipe from r1 to r2 carries 1xxxxxxx, the pipe from r2 onwards
	// every header.
	p.AddLink(4, 5)
	require.NoError(t, p.AddTable(3, plumber.NewPorts(5, 6)))
	mustRule(t, p, 3, 0, plumber.Ports{5}, plumber.Ports{6}, "xxxxxxxx")
	r2 := mustRule(t, p, 2, 0, plumber.Ports{3}, plumber.Ports{4}, "xxxxxxxx")
	require.NotEmpty(t, leaks)
	assert.Equal(t, plumber.SliceLeakEvent{
		Event: plumber.Event{Type: plumber.EventAddRule, ID1: uint64(r2)},
		Node:  r2,
		In:    1,
		Out:   0,
	}, leaks[0])
	s, ok := p.SliceOf(r1, r2, 2, 3)
	require.True(t, ok)
	assert.Equal(t, uint64(1), s)
}

func TestAddSliceMatrixErrors(t *testing.T) {
	tests := map[string]string{
		"empty":          "",
		"missing corner": "1,2\n1,x\n",
		"invalid id":     ",a\na,\n",
		"duplicate id":   ",1,1\n1,,\n",
		"duplicate row":  ",1,2\n1,,x\n1,,\n2,,\n",
		"not square":     ",1,2\n1,,x\n",
		"row missing":    ",1,2\n1,,x\n3,,\n",
		"field count":    ",1,2\n1,x\n2,,\n",
	}
	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			p := newPlumber(t, plumber.WithSlicing())
			assert.Error(t, p.AddSliceMatrix(strings.NewReader(input)))
		})
	}
}
