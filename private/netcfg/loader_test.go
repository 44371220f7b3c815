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

package netcfg_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netplumber/netplumber/pkg/hs"
	"github.com/netplumber/netplumber/pkg/log/testlog"
	"github.com/netplumber/netplumber/pkg/plumber"
	"github.com/netplumber/netplumber/pkg/private/xtest"
	"github.com/netplumber/netplumber/private/netcfg"
)

const (
	topology = `{"topology": [{"src": 100, "dst": 1}, {"src": 2, "dst": 3}]}`
	table1   = `{"id": 1, "ports": [1, 2], "rules": [
	  {"id": 4294967306, "action": "fwd", "in_ports": [1], "out_ports": [2],
	   "match": "1xxxxxxx", "mask": null, "rewrite": null},
	  {"id": 4294967307, "action": "multipath", "rules": []}]}`
	table2 = `{"id": 2, "ports": [3, 4], "rules": [
	  {"id": 8589934593, "action": "rw", "in_ports": [3], "out_ports": [4],
	   "match": "10xxxxxx", "mask": "10000000", "rewrite": "00000000"}]}`
	policy = `{"commands": [
	  {"method": "add_source", "params": {"id": 7, "hs": "xxxxxxxx", "ports": [100]}},
	  {"method": "add_link", "params": {"from_port": 4, "to_port": 200}},
	  {"method": "add_source_probe", "params": {"id": 9, "ports": [200],
	    "mode": "Universal", "filter": {"type": "true"},
	    "test": {"type": "header", "header": "0xxxxxxx"}}},
	  {"method": "frobnicate", "params": {}}]}`
)

func network() map[string]string {
	return map[string]string{
		netcfg.TopologyFile: topology,
		"t1.tf.json":        table1,
		"t2.rules.json":     table2,
		netcfg.PolicyFile:   policy,
		"README":            "not a table",
	}
}

func newPlumber(t *testing.T, opts ...plumber.Option) *plumber.Plumber {
	t.Helper()
	p, err := plumber.New(1, append([]plumber.Option{
		plumber.WithLogger(testlog.NewLogger(t)),
	}, opts...)...)
	require.NoError(t, err)
	return p
}

func TestLoadDir(t *testing.T) {
	dir := xtest.WriteFiles(t, network())
	p := newPlumber(t)
	var events []plumber.ProbeEvent
	l, err := netcfg.New(p, netcfg.WithProbeCallback(func(e plumber.ProbeEvent) {
		events = append(events, e)
	}))
	require.NoError(t, err)
	require.NoError(t, l.LoadDir(xtest.Context(t), dir))

	s := l.Summary()
	assert.Positive(t, s.Duration)
	s.Duration = 0
	assert.Equal(t, netcfg.Summary{
		Tables:      2,
		Rules:       2,
		Unsupported: 1,
		Links:       3,
		Sources:     1,
		Probes:      1,
		Unknown:     1,
	}, s)
	assert.ElementsMatch(t, []plumber.Link{
		{From: 100, To: 1}, {From: 2, To: 3}, {From: 4, To: 200},
	}, p.Links())

	r1, ok := l.Rule(4294967306)
	require.True(t, ok)
	rules, ok := p.Rules(1)
	require.True(t, ok)
	assert.Equal(t, []plumber.NodeID{r1}, rules)
	dump := p.DumpNetwork()
	require.Len(t, dump.Tables, 2)
	assert.Equal(t, uint32(1), dump.Tables[1].Rules[0].Index)

	src, ok := l.Source(7)
	require.True(t, ok)
	assert.Len(t, p.Flows(src), 1)

	probe, ok := l.Probe(9)
	require.True(t, ok)
	flows := p.Flows(probe)
	require.Len(t, flows, 1)
	assert.Equal(t, "(00xxxxxx)", flows[0].Header)

	state, err := p.ProbeState(probe)
	require.NoError(t, err)
	assert.Equal(t, plumber.Universal, state.Mode)
	assert.True(t, state.Started)
	assert.True(t, state.Value)
	require.Len(t, events, 1)
	assert.Equal(t, plumber.StartedTrue, events[0].Transition)
	assert.Equal(t, uint64(9), events[0].Data)

	_, ok = l.Probe(10)
	assert.False(t, ok)
}

func TestLoadDirFilter(t *testing.T) {
	dir := xtest.WriteFiles(t, network())
	p := newPlumber(t)
	l, err := netcfg.New(p, netcfg.WithFilter(hs.MustParseArray("11xxxxxx")))
	require.NoError(t, err)
	require.NoError(t, l.LoadDir(xtest.Context(t), dir))

	s := l.Summary()
	assert.Equal(t, 1, s.Rules)
	assert.Equal(t, 1, s.Filtered)
	_, ok := l.Rule(8589934593)
	assert.False(t, ok)

	src, ok := l.Source(7)
	require.True(t, ok)
	flows := p.Flows(src)
	require.Len(t, flows, 1)
	assert.Equal(t, "(11xxxxxx)", flows[0].Header)

	probe, ok := l.Probe(9)
	require.True(t, ok)
	state, err := p.ProbeState(probe)
	require.NoError(t, err)
	assert.False(t, state.Started)
}

func TestLoadDirPolicyOverride(t *testing.T) {
	files := network()
	files["other.json"] = `{"commands": [
	  {"method": "add_source", "params": {"id": 1,
	    "hs": {"list": ["xxxxxxxx"], "diff": ["11xxxxxx"]}, "ports": [100]}}]}`
	dir := xtest.WriteFiles(t, files)
	p := newPlumber(t)
	l, err := netcfg.New(p, netcfg.WithPolicy(filepath.Join(dir, "other.json")))
	require.NoError(t, err)
	require.NoError(t, l.LoadDir(xtest.Context(t), dir))

	assert.Equal(t, 0, l.Summary().Probes)
	src, ok := l.Source(1)
	require.True(t, ok)
	flows := p.Flows(src)
	require.Len(t, flows, 1)
	assert.Equal(t, "((xxxxxxxx - (11xxxxxx)))", flows[0].Header)
}

func TestLoadSlices(t *testing.T) {
	files := network()
	files[netcfg.SlicesFile] = `{"slices": [
	  {"id": 1, "space": "1xxxxxxx"},
	  {"id": 2, "space": {"list": ["11xxxxxx"]}}]}`
	files[netcfg.SliceMatrixFile] = ",0,1\n0,,\n1,x,\n"
	dir := xtest.WriteFiles(t, files)

	var overlaps []plumber.SliceOverlapEvent
	p := newPlumber(t, plumber.WithSlicing(), plumber.WithHandler(plumber.Funcs{
		SliceOverlap: func(e plumber.SliceOverlapEvent) { overlaps = append(overlaps, e) },
	}))
	l, err := netcfg.New(p)
	require.NoError(t, err)
	require.NoError(t, l.LoadDir(xtest.Context(t), dir))

	s := l.Summary()
	assert.Equal(t, 1, s.Slices)
	assert.Equal(t, 1, s.SliceOverlaps)
	require.Len(t, overlaps, 1)
	assert.Equal(t, uint64(2), overlaps[0].Slice)
	assert.Equal(t, uint64(1), overlaps[0].Overlap)

	var ids []uint64
	for _, d := range p.DumpSlices() {
		ids = append(ids, d.ID)
	}
	assert.Equal(t, []uint64{0, 1}, ids)
}

func TestLoadSlicesDisabled(t *testing.T) {
	files := network()
	files[netcfg.SlicesFile] = `{"slices": [{"id": 1, "space": "1xxxxxxx"}]}`
	dir := xtest.WriteFiles(t, files)
	p := newPlumber(t)
	l, err := netcfg.New(p)
	require.NoError(t, err)
	require.NoError(t, l.LoadDir(xtest.Context(t), dir))
	assert.Equal(t, 0, l.Summary().Slices)
}

func TestLoadDirErrors(t *testing.T) {
	testCases := map[string]struct {
		Files    map[string]string
		Remove   string
		ErrorIs  error
		Contains string
	}{
		"missing topology": {
			Remove:   netcfg.TopologyFile,
			Contains: "reading file",
		},
		"malformed table": {
			Files:    map[string]string{"t3.tf.json": `{"id": 3, "ports": [5`},
			Contains: "decoding file",
		},
		"partial byte": {
			Files: map[string]string{"t3.tf.json": `{"id": 3, "ports": [5], "rules": [
			  {"id": 1, "action": "fwd", "out_ports": [5], "match": "10x"}]}`},
			Contains: "parsing rule",
		},
		"length mismatch": {
			Files: map[string]string{"t3.tf.json": `{"id": 3, "ports": [5], "rules": [
			  {"id": 1, "action": "fwd", "out_ports": [5], "match": "xxxxxxxxxxxxxxxx"}]}`},
			Contains: "header length mismatch",
		},
		"duplicate index": {
			Files: map[string]string{"t3.tf.json": `{"id": 3, "ports": [5], "rules": [
			  {"id": 1, "action": "fwd", "out_ports": [5], "match": "xxxxxxxx"},
			  {"id": 4294967297, "action": "fwd", "out_ports": [5], "match": "xxxxxxxx"}]}`},
			ErrorIs: plumber.ErrDuplicateIndex,
		},
		"port not in table": {
			Files: map[string]string{"t3.tf.json": `{"id": 3, "ports": [5], "rules": [
			  {"id": 1, "action": "fwd", "out_ports": [6], "match": "xxxxxxxx"}]}`},
			ErrorIs: plumber.ErrPortNotInTable,
		},
		"invalid table": {
			Files:   map[string]string{"t3.tf.json": `{"id": 0, "ports": [5]}`},
			ErrorIs: plumber.ErrInvalidTable,
		},
		"forward rule with rewrite": {
			Files: map[string]string{"t3.tf.json": `{"id": 3, "ports": [5], "rules": [
			  {"id": 1, "action": "fwd", "out_ports": [5], "match": "xxxxxxxx",
			   "mask": "10000000", "rewrite": "00000000"}]}`},
			Contains: "forward rule with mask or rewrite",
		},
		"rewrite rule without mask": {
			Files: map[string]string{"t3.tf.json": `{"id": 3, "ports": [5], "rules": [
			  {"id": 1, "action": "rw", "out_ports": [5], "match": "xxxxxxxx",
			   "rewrite": "00000000"}]}`},
			Contains: "rewrite rule without mask and rewrite",
		},
		"unknown probe mode": {
			Files: map[string]string{netcfg.PolicyFile: `{"commands": [
			  {"method": "add_source_probe", "params": {"id": 1, "ports": [1],
			    "mode": "sometimes"}}]}`},
			Contains: "unknown probe mode {mode=sometimes}",
		},
		"bad condition": {
			Files: map[string]string{netcfg.PolicyFile: `{"commands": [
			  {"method": "add_source_probe", "params": {"id": 1, "ports": [1],
			    "filter": {"type": "maybe"}}}]}`},
			Contains: "applying policy command",
		},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			files := network()
			for k, v := range tc.Files {
				files[k] = v
			}
			delete(files, tc.Remove)
			dir := xtest.WriteFiles(t, files)
			l, err := netcfg.New(newPlumber(t))
			require.NoError(t, err)
			err = l.LoadDir(xtest.Context(t), dir)
			require.Error(t, err)
			if tc.ErrorIs != nil {
				assert.ErrorIs(t, err, tc.ErrorIs)
			}
			assert.Contains(t, err.Error(), tc.Contains)
		})
	}
}

func TestNewFilterLength(t *testing.T) {
	_, err := netcfg.New(newPlumber(t), netcfg.WithFilter(hs.MustParseArray("xxxxxxxxxxxxxxxx")))
	assert.Error(t, err)
}
