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

// Package testlog provides loggers for tests. Messages go to the test output
// and can be recorded for assertions.
package testlog

import (
	"fmt"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/netplumber/netplumber/pkg/log"
)

// NewLogger builds a logger that writes to t.Log.
func NewLogger(t testing.TB, opts ...zaptest.LoggerOption) log.Logger {
	return logger{zaptest.NewLogger(t, opts...)}
}

// NewRecorder builds a logger that writes to t.Log and records every entry at
// debug level or above.
func NewRecorder(t testing.TB) (log.Logger, *Entries) {
	core, logs := observer.New(zapcore.DebugLevel)
	tee := zapcore.NewTee(zaptest.NewLogger(t).Core(), core)
	return logger{zap.New(tee)}, &Entries{logs: logs}
}

// Entries are the entries recorded by a logger from NewRecorder.
type Entries struct {
	logs *observer.ObservedLogs
}

// Messages returns the recorded messages of level lvl, oldest first.
func (e *Entries) Messages(lvl log.Level) []string {
	var msgs []string
	for _, entry := range e.logs.FilterLevelExact(zapcore.Level(lvl)).All() {
		msgs = append(msgs, entry.Message)
	}
	return msgs
}

type logger struct {
	zl *zap.Logger
}

func (l logger) New(ctx ...any) log.Logger {
	return logger{l.zl.With(fields(ctx)...)}
}

func (l logger) Debug(msg string, ctx ...any) { l.zl.Debug(msg, fields(ctx)...) }
func (l logger) Info(msg string, ctx ...any)  { l.zl.Info(msg, fields(ctx)...) }
func (l logger) Error(msg string, ctx ...any) { l.zl.Error(msg, fields(ctx)...) }

func (l logger) Enabled(lvl log.Level) bool {
	return l.zl.Core().Enabled(zapcore.Level(lvl))
}

func fields(ctx []any) []zap.Field {
	fs := make([]zap.Field, 0, len(ctx)/2)
	for i := 0; i+1 < len(ctx); i += 2 {
		fs = append(fs, zap.Any(fmt.Sprint(ctx[i]), ctx[i+1]))
	}
	return fs
}
