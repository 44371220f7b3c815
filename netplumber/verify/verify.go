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

// Package verify loads a network into a plumber and reports the outcome of
// its probes together with the loops, slice leaks and rule anomalies found on
// the way.
package verify

import (
	"context"

	"github.com/opentracing/opentracing-go"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/netplumber/netplumber/netplumber/config"
	"github.com/netplumber/netplumber/pkg/log"
	"github.com/netplumber/netplumber/pkg/plumber"
	"github.com/netplumber/netplumber/pkg/private/serrors"
	"github.com/netplumber/netplumber/private/netcfg"
)

// Network is a loaded network.
type Network struct {
	Plumber *plumber.Plumber
	Loader  *netcfg.Loader
	Events  *Recorder
}

// Load creates a plumber as configured by cfg and loads the network directory
// into it. If reg is not nil, the plumber metrics are registered with it.
func Load(ctx context.Context, cfg *config.Config, reg prometheus.Registerer) (*Network, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "verify.load")
	defer span.Finish()
	logger := log.FromCtx(ctx)

	opts, err := cfg.Plumber.Options()
	if err != nil {
		return nil, err
	}
	rec := NewRecorder(logger)
	opts = append(opts, plumber.WithHandler(rec), plumber.WithLogger(logger))
	if reg != nil {
		opts = append(opts, plumber.WithMetrics(plumber.NewMetrics(reg)))
	}
	p, err := plumber.New(cfg.Plumber.Length, opts...)
	if err != nil {
		return nil, serrors.Wrap("creating plumber", err)
	}
	loader, err := netcfg.New(p, cfg.Network.LoaderOptions()...)
	if err != nil {
		return nil, serrors.Wrap("creating loader", err)
	}
	if err := loader.LoadDir(ctx, cfg.Network.Dir); err != nil {
		return nil, serrors.Wrap("loading network", err, "dir", cfg.Network.Dir)
	}
	if cfg.Network.CheckAnomalies {
		if _, err := p.CheckAnomalies(0, plumber.AnomalyChecks{Shadow: true}); err != nil {
			return nil, serrors.Wrap("checking anomalies", err)
		}
	}
	return &Network{Plumber: p, Loader: loader, Events: rec}, nil
}

// Report summarizes the current state of the network.
func (n *Network) Report() Report {
	r := Report{
		Network: n.Loader.Summary(),
		Stats:   n.Plumber.Stats(),
	}
	for _, id := range n.Loader.Probes() {
		node, _ := n.Loader.Probe(id)
		state, err := n.Plumber.ProbeState(node)
		if err != nil {
			// Removed through the plumber after loading.
			continue
		}
		res := ProbeResult{
			ID:    id,
			Node:  node,
			Mode:  state.Mode,
			Pass:  state.Value,
			Flows: state.Flows,
			Count: state.Count,
		}
		if e, ok := n.Events.LastProbeEvent(node); ok {
			res.Last = e.Transition
		}
		r.Probes = append(r.Probes, res)
	}
	for _, e := range n.Events.Loops() {
		r.Loops = append(r.Loops, LoopResult{Event: e.Event.String(), Path: e.Path.String()})
	}
	for _, e := range n.Events.Leaks() {
		r.Leaks = append(r.Leaks, LeakResult{Node: e.Node, In: e.In, Out: e.Out})
	}
	for _, e := range n.Events.Overlaps() {
		r.Overlaps = append(r.Overlaps, OverlapResult{Slice: e.Slice, Overlap: e.Overlap})
	}
	for _, e := range n.Events.Anomalies() {
		r.Anomalies = append(r.Anomalies, AnomalyResult{Kind: e.Kind, Table: e.Table, Rule: e.Rule})
	}
	return r
}
