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

// Package config contains the configuration of the netplumber command.
package config

import (
	"io"
	"net"
	"strings"
	"time"

	"github.com/netplumber/netplumber/pkg/hs"
	"github.com/netplumber/netplumber/pkg/hs/bdd"
	"github.com/netplumber/netplumber/pkg/log"
	"github.com/netplumber/netplumber/pkg/plumber"
	"github.com/netplumber/netplumber/pkg/private/serrors"
	"github.com/netplumber/netplumber/pkg/private/util"
	"github.com/netplumber/netplumber/private/config"
	"github.com/netplumber/netplumber/private/env"
	"github.com/netplumber/netplumber/private/netcfg"
)

// Defaults.
const (
	DefaultBackend = "hs"
	DefaultLoops   = "node"
	DefaultAPIAddr = "127.0.0.1:8080"

	DefaultReadHeaderTimeout = 10 * time.Second
)

var _ config.Config = (*Config)(nil)

// Config is the configuration of the netplumber command.
type Config struct {
	Logging log.Config  `toml:"log,omitempty"`
	Metrics env.Metrics `toml:"metrics,omitempty"`
	Tracing env.Tracing `toml:"tracing,omitempty"`
	Plumber Plumber     `toml:"plumber,omitempty"`
	Network Network     `toml:"network,omitempty"`
	API     API         `toml:"api,omitempty"`
}

func (cfg *Config) InitDefaults() {
	config.InitAll(
		&cfg.Logging,
		&cfg.Metrics,
		&cfg.Tracing,
		&cfg.Plumber,
		&cfg.Network,
		&cfg.API,
	)
}

func (cfg *Config) Validate() error {
	return config.ValidateAll(
		&cfg.Logging,
		&cfg.Metrics,
		&cfg.Tracing,
		&cfg.Plumber,
		&cfg.Network,
		&cfg.API,
	)
}

func (cfg *Config) Sample(dst io.Writer, path config.Path, _ config.CtxMap) {
	config.WriteSample(dst, path, nil,
		&cfg.Logging,
		&cfg.Metrics,
		&cfg.Tracing,
		&cfg.Plumber,
		&cfg.Network,
		&cfg.API,
	)
}

// LoggingConfig returns the log block.
func (cfg *Config) LoggingConfig() *log.Config {
	return &cfg.Logging
}

// Plumber configures the verification engine.
type Plumber struct {
	// Length is the header length in bytes.
	Length int `toml:"length,omitempty"`
	// Backend is the header set backend (hs|bdd).
	Backend string `toml:"backend,omitempty"`
	// BDDCapacity is the maximum header length of the bdd backend.
	BDDCapacity int `toml:"bdd_capacity,omitempty"`
	// Loops selects what a forwarding loop revisits (node|table).
	Loops string `toml:"loops,omitempty"`
	// Slicing enables the slice overlay.
	Slicing bool `toml:"slicing,omitempty"`
	// Anomalies selects the anomaly checks run on every rule insertion.
	Anomalies plumber.AnomalyChecks `toml:"anomalies,omitempty"`
}

func (cfg *Plumber) InitDefaults() {
	if cfg.Backend == "" {
		cfg.Backend = DefaultBackend
	}
	if cfg.BDDCapacity == 0 {
		cfg.BDDCapacity = bdd.DefaultCapacity
	}
	if cfg.Loops == "" {
		cfg.Loops = DefaultLoops
	}
}

func (cfg *Plumber) Validate() error {
	if cfg.Length <= 0 {
		return serrors.New("header length must be positive", "length", cfg.Length)
	}
	switch cfg.Backend {
	case "hs":
	case "bdd":
		if cfg.Length > cfg.BDDCapacity {
			return serrors.New("header length exceeds bdd capacity", "length", cfg.Length,
				"capacity", cfg.BDDCapacity)
		}
	default:
		return serrors.New("unknown backend", "backend", cfg.Backend)
	}
	if _, err := cfg.LoopMode(); err != nil {
		return err
	}
	return nil
}

func (cfg *Plumber) Sample(dst io.Writer, path config.Path, _ config.CtxMap) {
	config.WriteString(dst, plumberSample)
}

func (cfg *Plumber) ConfigName() string {
	return "plumber"
}

// LoopMode returns the configured loop detection mode.
func (cfg *Plumber) LoopMode() (plumber.LoopMode, error) {
	switch strings.ToLower(cfg.Loops) {
	case "node":
		return plumber.LoopByNode, nil
	case "table":
		return plumber.LoopByTable, nil
	}
	return 0, serrors.New("unknown loop mode", "loops", cfg.Loops)
}

// NewBackend creates the configured header set backend.
func (cfg *Plumber) NewBackend() (hs.Backend, error) {
	if cfg.Backend == "bdd" {
		return bdd.New(cfg.BDDCapacity)
	}
	return hs.Classic, nil
}

// Options returns the plumber options of the configuration. The caller adds
// the handler, the logger and the metrics.
func (cfg *Plumber) Options() ([]plumber.Option, error) {
	b, err := cfg.NewBackend()
	if err != nil {
		return nil, serrors.Wrap("creating backend", err, "backend", cfg.Backend)
	}
	loops, err := cfg.LoopMode()
	if err != nil {
		return nil, err
	}
	opts := []plumber.Option{
		plumber.WithBackend(b),
		plumber.WithLoopDetection(loops),
		plumber.WithAnomalyChecks(cfg.Anomalies),
	}
	if cfg.Slicing {
		opts = append(opts, plumber.WithSlicing())
	}
	return opts, nil
}

// Network configures where the network description is read from.
type Network struct {
	config.NoDefaulter
	// Dir is the network directory.
	Dir string `toml:"dir,omitempty"`
	// Policy is the policy file. Defaults to policy.json in Dir.
	Policy string `toml:"policy,omitempty"`
	// Filter restricts the loaded rules and sources to a header array.
	Filter string `toml:"filter,omitempty"`
	// CacheSize is the number of parsed header arrays kept while loading.
	CacheSize int `toml:"cache_size,omitempty"`
	// Workers is the number of table files parsed concurrently.
	Workers int `toml:"workers,omitempty"`
	// CheckAnomalies runs the shadow check on all tables after loading.
	CheckAnomalies bool `toml:"check_anomalies,omitempty"`
}

func (cfg *Network) Validate() error {
	if cfg.Filter != "" {
		if _, err := hs.ParseArray(cfg.Filter); err != nil {
			return serrors.Wrap("invalid filter", err)
		}
	}
	if cfg.CacheSize < 0 {
		return serrors.New("negative cache size", "cache_size", cfg.CacheSize)
	}
	return nil
}

func (cfg *Network) Sample(dst io.Writer, path config.Path, _ config.CtxMap) {
	config.WriteString(dst, networkSample)
}

func (cfg *Network) ConfigName() string {
	return "network"
}

// LoaderOptions returns the loader options of the configuration.
func (cfg *Network) LoaderOptions() []netcfg.Option {
	var opts []netcfg.Option
	if cfg.Filter != "" {
		opts = append(opts, netcfg.WithFilter(hs.MustParseArray(cfg.Filter)))
	}
	if cfg.Policy != "" {
		opts = append(opts, netcfg.WithPolicy(cfg.Policy))
	}
	if cfg.CacheSize > 0 {
		opts = append(opts, netcfg.WithCacheSize(cfg.CacheSize))
	}
	if cfg.Workers > 0 {
		opts = append(opts, netcfg.WithWorkers(cfg.Workers))
	}
	return opts
}

// API configures the HTTP query API of the serve command.
type API struct {
	// Addr is the address the API listens on.
	Addr string `toml:"addr,omitempty"`
	// ReadHeaderTimeout bounds the time to read the headers of a request.
	ReadHeaderTimeout util.DurWrap `toml:"read_header_timeout,omitempty"`
	// ShutdownGrace is the time in-flight requests get to finish on shutdown.
	ShutdownGrace util.DurWrap `toml:"shutdown_grace,omitempty"`
}

func (cfg *API) InitDefaults() {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAPIAddr
	}
	if cfg.ReadHeaderTimeout.Duration == 0 {
		cfg.ReadHeaderTimeout.Duration = DefaultReadHeaderTimeout
	}
	if cfg.ShutdownGrace.Duration == 0 {
		cfg.ShutdownGrace.Duration = env.ShutdownGraceInterval
	}
}

func (cfg *API) Validate() error {
	if _, _, err := net.SplitHostPort(cfg.Addr); err != nil {
		return serrors.Wrap("invalid api address", err, "addr", cfg.Addr)
	}
	return nil
}

func (cfg *API) Sample(dst io.Writer, path config.Path, _ config.CtxMap) {
	config.WriteString(dst, apiSample)
}

func (cfg *API) ConfigName() string {
	return "api"
}
