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

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netplumber/netplumber/pkg/plumber"
)

type anomaly struct {
	kind  plumber.AnomalyKind
	table plumber.TableID
	rule  plumber.NodeID
}

func anomalies(events []plumber.AnomalyEvent) []anomaly {
	var res []anomaly
	for _, e := range events {
		res = append(res, anomaly{kind: e.Kind, table: e.Table, rule: e.Rule})
	}
	return res
}

func TestCheckAnomalies(t *testing.T) {
	p := newPlumber(t)
	require.NoError(t, p.AddTable(1, plumber.NewPorts(1, 2)))
	require.NoError(t, p.AddTable(2, plumber.NewPorts(3, 4)))
	mustRule(t, p, 1, 0, nil, plumber.Ports{2}, "1xxxxxxx")
	b := mustRule(t, p, 1, 1, nil, plumber.Ports{2}, "11xxxxxx")
	mustRule(t, p, 1, 2, nil, plumber.Ports{2}, "0xxxxxxx")
	d := mustRule(t, p, 1, 3, nil, plumber.Ports{2}, "00xxxxxx")
	narrow := mustRule(t, p, 2, 0, nil, plumber.Ports{4}, "10xxxxxx")
	mustRule(t, p, 2, 1, nil, plumber.Ports{4}, "1xxxxxxx")

	tests := map[string]struct {
		table    plumber.TableID
		checks   plumber.AnomalyChecks
		expected []anomaly
	}{
		"shadow": {
			table:  1,
			checks: plumber.AnomalyChecks{Shadow: true},
			expected: []anomaly{
				{kind: plumber.Shadowed, table: 1, rule: b},
				{kind: plumber.Shadowed, table: 1, rule: d},
			},
		},
		"reach": {
			table:  1,
			checks: plumber.AnomalyChecks{Reach: true},
			expected: []anomaly{
				{kind: plumber.Unreachable, table: 1, rule: d},
			},
		},
		"shadow and reach": {
			table:  1,
			checks: plumber.AnomalyChecks{Shadow: true, Reach: true},
			expected: []anomaly{
				{kind: plumber.Shadowed, table: 1, rule: b},
				{kind: plumber.Unreachable, table: 1, rule: d},
			},
		},
		"general": {
			table:  2,
			checks: plumber.AnomalyChecks{General: true},
			expected: []anomaly{
				{kind: plumber.Generalized, table: 2, rule: narrow},
			},
		},
		"general without finding": {
			table:  1,
			checks: plumber.AnomalyChecks{General: true},
		},
		"all tables": {
			checks: plumber.AnomalyChecks{Shadow: true, General: true},
			expected: []anomaly{
				{kind: plumber.Shadowed, table: 1, rule: b},
				{kind: plumber.Shadowed, table: 1, rule: d},
				{kind: plumber.Generalized, table: 2, rule: narrow},
			},
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			events, err := p.CheckAnomalies(tc.table, tc.checks)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, anomalies(events))
		})
	}

	_, err := p.CheckAnomalies(7, plumber.AnomalyChecks{Shadow: true})
	assert.ErrorIs(t, err, plumber.ErrNoTable)
}

func TestAnomalyChecksOnAddRule(t *testing.T) {
	var events []plumber.AnomalyEvent
	p := newPlumber(t,
		plumber.WithAnomalyChecks(plumber.AnomalyChecks{Shadow: true}),
		plumber.WithHandler(plumber.Funcs{
			Anomaly: func(e plumber.AnomalyEvent) { events = append(events, e) },
		}),
	)
	require.NoError(t, p.AddTable(1, plumber.NewPorts(1, 2)))
	mustRule(t, p, 1, 0, nil, plumber.Ports{2}, "1xxxxxxx")
	assert.Empty(t, events)
	shadowed := mustRule(t, p, 1, 1, nil, plumber.Ports{2}, "10xxxxxx")
	require.Len(t, events, 1)
	assert.Equal(t, plumber.AnomalyEvent{
		Event: plumber.Event{Type: plumber.EventAddRule, ID1: uint64(shadowed)},
		Kind:  plumber.Shadowed,
		Table: 1,
		Rule:  shadowed,
	}, events[0])
	assert.Equal(t, "shadowed", events[0].Kind.String())
}
