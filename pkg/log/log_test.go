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

package log_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/mocktracer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netplumber/netplumber/pkg/log"
	"github.com/netplumber/netplumber/private/config"
)

func TestSetup(t *testing.T) {
	tests := map[string]struct {
		cfg       log.Config
		assertErr assert.ErrorAssertionFunc
	}{
		"empty, defaults": {
			cfg:       log.Config{},
			assertErr: assert.NoError,
		},
		"json": {
			cfg:       log.Config{Console: log.ConsoleConfig{Level: "debug", Format: "json"}},
			assertErr: assert.NoError,
		},
		"invalid console level": {
			cfg:       log.Config{Console: log.ConsoleConfig{Level: "invalid"}},
			assertErr: assert.Error,
		},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			test.assertErr(t, log.Setup(test.cfg))
		})
	}
	log.Discard()
}

func TestConfigValidate(t *testing.T) {
	cfg := log.Config{Console: log.ConsoleConfig{Format: "xml"}}
	cfg.InitDefaults()
	assert.Equal(t, "info", cfg.Console.Level)
	assert.Error(t, cfg.Validate())
}

func TestConfigSample(t *testing.T) {
	var sample bytes.Buffer
	var cfg log.Config
	config.WriteSample(&sample, nil, nil, &cfg)

	var decoded struct {
		Log log.Config `toml:"log"`
	}
	require.NoError(t, config.Decode(sample.Bytes(), &decoded))
	decoded.Log.InitDefaults()
	assert.NoError(t, decoded.Log.Validate())
	assert.Equal(t, "human", decoded.Log.Console.Format)
}

func TestParseLevel(t *testing.T) {
	lvl, err := log.ParseLevel("DEBUG")
	require.NoError(t, err)
	assert.Equal(t, log.DebugLevel, lvl)
	_, err = log.ParseLevel("crit")
	assert.Error(t, err)
}

func TestFromCtx(t *testing.T) {
	t.Run("no logger", func(t *testing.T) {
		assert.NotNil(t, log.FromCtx(context.Background()))
	})
	t.Run("labels", func(t *testing.T) {
		ctx, l := log.WithLabels(context.Background(), "table", 1)
		assert.Equal(t, l, log.FromCtx(ctx))
	})
	t.Run("span", func(t *testing.T) {
		tracer := mocktracer.New()
		span := tracer.StartSpan("verify")
		ctx := opentracing.ContextWithSpan(context.Background(), span)
		l := log.FromCtx(ctx)
		_, isSpan := l.(log.Span)
		require.True(t, isSpan)
		l.Info("hello", "k", "v")
		span.Finish()
		require.Len(t, tracer.FinishedSpans(), 1)
		assert.Len(t, tracer.FinishedSpans()[0].Logs(), 1)
	})
}

func TestStartSpan(t *testing.T) {
	tracer := mocktracer.New()
	prev := opentracing.GlobalTracer()
	opentracing.SetGlobalTracer(tracer)
	defer opentracing.SetGlobalTracer(prev)

	outer, ctx, _ := log.StartSpan(context.Background(), "load_dir", "dir", "net")
	inner, _, l := log.StartSpan(ctx, "load_tables")
	l.Info("Table loaded", "table", 1)
	inner.Finish()
	outer.Finish()

	spans := tracer.FinishedSpans()
	require.Len(t, spans, 2)
	assert.Equal(t, "load_tables", spans[0].OperationName)
	assert.Equal(t, spans[1].SpanContext.SpanID, spans[0].ParentID)
	assert.Len(t, spans[0].Logs(), 1)
	assert.Empty(t, spans[1].Logs())
	assert.Equal(t, "net", spans[1].Tag("dir"))
}
