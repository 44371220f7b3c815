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

package main

import (
	"context"
	"encoding/json"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/opentracing/opentracing-go"
	"github.com/prometheus/client_golang/prometheus"
	"gopkg.in/yaml.v2"

	"github.com/netplumber/netplumber/netplumber/config"
	"github.com/netplumber/netplumber/netplumber/verify"
	"github.com/netplumber/netplumber/pkg/log"
	"github.com/netplumber/netplumber/pkg/private/serrors"
)

// Output formats.
const (
	formatHuman = "human"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

const formatUsage = "Specify the output format (human|json|yaml)"

func checkFormat(format string, human bool) error {
	switch format {
	case formatJSON, formatYAML:
		return nil
	case formatHuman:
		if human {
			return nil
		}
	}
	return serrors.New("output format not supported", "format", format)
}

// encode writes v as json or yaml.
func encode(w io.Writer, format string, v any) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(v)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(v)
	default:
		return serrors.New("output format not supported", "format", format)
	}
}

// isTerminal reports whether w is a terminal. Colors are only used on
// terminals.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// loadNetwork installs the configured tracer and loads the network. The
// returned function closes the tracer.
func loadNetwork(ctx context.Context, cfg *config.Config,
	reg prometheus.Registerer) (*verify.Network, func(), error) {

	tracer, closer, err := cfg.Tracing.NewTracer("netplumber")
	if err != nil {
		return nil, nil, serrors.Wrap("creating tracer", err)
	}
	opentracing.SetGlobalTracer(tracer)
	done := func() {
		if err := closer.Close(); err != nil {
			log.Error("Closing tracer", "err", err)
		}
	}
	ctx = log.CtxWith(ctx, log.Root())
	n, err := verify.Load(ctx, cfg, reg)
	if err != nil {
		done()
		return nil, nil, err
	}
	return n, done, nil
}
