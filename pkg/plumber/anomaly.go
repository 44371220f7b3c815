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

	"github.com/netplumber/netplumber/pkg/private/serrors"
)

// CheckAnomalies runs the anomaly checks selected by checks on a table, or on
// all tables if id is zero. Every anomaly is reported to the event handler and
// returned.
func (p *Plumber) CheckAnomalies(id TableID, checks AnomalyChecks) ([]AnomalyEvent, error) {
	if id != 0 {
		t, ok := p.tables[id]
		if !ok {
			return nil, serrors.JoinNoStack(ErrNoTable, nil, "table", id)
		}
		return p.checkTableAnomalies(t, checks), nil
	}
	ids := make([]TableID, 0, len(p.tables))
	for id := range p.tables {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	var res []AnomalyEvent
	for _, id := range ids {
		res = append(res, p.checkTableAnomalies(p.tables[id], checks)...)
	}
	return res, nil
}

func (p *Plumber) checkTableAnomalies(t *table, checks AnomalyChecks) []AnomalyEvent {
	var res []AnomalyEvent
	report := func(kind AnomalyKind, id NodeID) {
		e := AnomalyEvent{Event: p.last, Kind: kind, Table: t.id, Rule: id}
		p.ctx.Logger.Debug("Rule anomaly", "table", t.id, "rule", id, "kind", kind)
		p.ctx.Handler.OnAnomaly(e)
		res = append(res, e)
	}
	full := p.backend.Full(p.length)

	if checks.Shadow || checks.Reach {
		aggr := p.backend.Empty(p.length)
		unreachable := false
		for _, id := range t.rules {
			if unreachable {
				report(Unreachable, id)
				continue
			}
			if checks.Reach && aggr.IsEqual(full) {
				report(Unreachable, id)
				unreachable = true
				continue
			}
			match := p.nodes[id].match
			if checks.Shadow && p.backend.FromArray(match).IsSubsetEqual(aggr) {
				report(Shadowed, id)
			}
			aggr = aggr.UnionArray(match).Compact()
		}
	}

	if checks.General && len(t.rules) > 1 {
		last := t.rules[len(t.rules)-1]
		aggr := p.backend.FromArray(p.nodes[last].match)
		for i := len(t.rules) - 2; i >= 0; i-- {
			match := p.nodes[t.rules[i]].match
			if p.backend.FromArray(match).IsSubsetEqual(aggr) {
				report(Generalized, t.rules[i])
			}
			aggr = aggr.UnionArray(match).Compact()
		}
	}
	return res
}
