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
	"github.com/netplumber/netplumber/pkg/log"
)

// Context carries the collaborators of a Plumber: the event handler receiving
// loop, probe, slice and anomaly notifications, and the diagnostic logger.
type Context struct {
	Handler EventHandler
	Logger  log.Logger
}

// LoopMode selects how forwarding loops are recognized along a flow path.
type LoopMode uint8

const (
	// LoopByNode reports a loop when a flow revisits a node.
	LoopByNode LoopMode = iota
	// LoopByTable reports a loop when a flow revisits a table, regardless of
	// the rule it matches there.
	LoopByTable
)

// AnomalyChecks selects the rule anomaly checks run on every rule insertion.
type AnomalyChecks struct {
	Shadow  bool `toml:"shadow,omitempty" json:"shadow" feature:"shadow"`
	Reach   bool `toml:"reach,omitempty" json:"reach" feature:"reach"`
	General bool `toml:"general,omitempty" json:"general" feature:"general"`
}

func (a AnomalyChecks) any() bool {
	return a.Shadow || a.Reach || a.General
}

type options struct {
	backend hs.Backend
	ctx     Context
	metrics *Metrics
	loops   LoopMode
	anomaly AnomalyChecks
	slicing bool
}

// Option configures a Plumber.
type Option func(*options)

// WithBackend selects the header set backend. The default is hs.Classic.
func WithBackend(b hs.Backend) Option {
	return func(o *options) { o.backend = b }
}

// WithContext sets the handler and the logger.
func WithContext(ctx Context) Option {
	return func(o *options) { o.ctx = ctx }
}

// WithHandler sets the event handler.
func WithHandler(h EventHandler) Option {
	return func(o *options) { o.ctx.Handler = h }
}

// WithLogger sets the logger.
func WithLogger(l log.Logger) Option {
	return func(o *options) { o.ctx.Logger = l }
}

// WithMetrics enables metrics.
func WithMetrics(m *Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithLoopDetection selects the loop detection mode. The default is LoopByNode.
func WithLoopDetection(m LoopMode) Option {
	return func(o *options) { o.loops = m }
}

// WithAnomalyChecks enables rule anomaly checks.
func WithAnomalyChecks(a AnomalyChecks) Option {
	return func(o *options) { o.anomaly = a }
}

// WithSlicing enables the slice overlay.
func WithSlicing() Option {
	return func(o *options) { o.slicing = true }
}

func applyOptions(opts []Option) options {
	o := options{backend: hs.Classic}
	for _, opt := range opts {
		opt(&o)
	}
	if o.ctx.Handler == nil {
		o.ctx.Handler = Funcs{}
	}
	if o.ctx.Logger == nil {
		o.ctx.Logger = log.NewNop()
	}
	return o
}
