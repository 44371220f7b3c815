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

// Package prom contains some utility functions for dealing with prometheus
// metrics.
package prom

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Namespace is the metric namespace of all netplumber metrics.
const Namespace = "netplumber"

// Common label names.
const (
	// LabelOperation is the label for the name of an executed operation.
	LabelOperation = "op"
	// LabelResult is the label for result classifications.
	LabelResult = "result"
	// LabelEvent is the label for probe transition events.
	LabelEvent = "event"
)

// Common result values.
const (
	// Success is no error.
	Success = "ok_success"
	// ErrNotFound is used when the addressed table or node does not exist.
	ErrNotFound = "err_not_found"
	// ErrInvalidReq is an invalid request.
	ErrInvalidReq = "err_invalid_request"
)

// DefaultLatencyBuckets 100us, 200us, 400us, ... 0.8192s, 1.6384s.
var DefaultLatencyBuckets = []float64{0.0001, 0.0002, 0.0004, 0.0008, 0.0016, 0.0032,
	0.0064, 0.0128, 0.0256, 0.0512, 0.1024, 0.2048, 0.4096, 0.8192, 1.6384}

// SafeRegister registers c with reg and returns the registered collector. If c
// was already registered the already registered collector is returned. In case
// of any other error this method panics (as MustRegister). A nil reg selects
// the default registerer.
func SafeRegister(reg prometheus.Registerer, c prometheus.Collector) prometheus.Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector
		}
		panic(err)
	}
	return c
}

// Factory creates collectors in the netplumber namespace and registers them
// with its registerer.
type Factory struct {
	Registerer prometheus.Registerer
	Subsystem  string
}

// NewCounterVec creates a counter vec.
func (f Factory) NewCounterVec(name, help string, labelNames ...string) *prometheus.CounterVec {
	c := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: f.Subsystem,
		Name:      name,
		Help:      help,
	}, labelNames)
	return SafeRegister(f.Registerer, c).(*prometheus.CounterVec)
}

// NewCounter creates a counter.
func (f Factory) NewCounter(name, help string) prometheus.Counter {
	c := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: f.Subsystem,
		Name:      name,
		Help:      help,
	})
	return SafeRegister(f.Registerer, c).(prometheus.Counter)
}

// NewGauge creates a gauge.
func (f Factory) NewGauge(name, help string) prometheus.Gauge {
	g := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: Namespace,
		Subsystem: f.Subsystem,
		Name:      name,
		Help:      help,
	})
	return SafeRegister(f.Registerer, g).(prometheus.Gauge)
}

// NewHistogramVec creates a histogram vec with the given buckets.
func (f Factory) NewHistogramVec(name, help string, buckets []float64,
	labelNames ...string) *prometheus.HistogramVec {

	h := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: Namespace,
		Subsystem: f.Subsystem,
		Name:      name,
		Help:      help,
		Buckets:   buckets,
	}, labelNames)
	return SafeRegister(f.Registerer, h).(*prometheus.HistogramVec)
}
