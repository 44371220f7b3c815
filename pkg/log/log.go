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

// Package log is a structured logging facade on top of zap.
//
// Messages are logged with alternating key/value context:
//
//	log.Info("Rule added", "table", 1, "rule", id)
//
// Libraries should not use the package-level functions; they accept a Logger, or
// take one from the context with FromCtx.
package log

import (
	"fmt"
	"os"
	"runtime/debug"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/netplumber/netplumber/pkg/private/serrors"
)

// Level is the log level.
type Level zapcore.Level

const (
	DebugLevel = Level(zapcore.DebugLevel)
	InfoLevel  = Level(zapcore.InfoLevel)
	ErrorLevel = Level(zapcore.ErrorLevel)
)

// ParseLevel parses a level name (debug, info or error).
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(s) {
	case "debug", "dbug":
		return DebugLevel, nil
	case "info":
		return InfoLevel, nil
	case "error", "eror":
		return ErrorLevel, nil
	}
	return DebugLevel, serrors.New("unknown log level", "level", s)
}

func (l Level) String() string {
	return zapcore.Level(l).String()
}

// Logger is the logging interface used throughout the code base.
type Logger interface {
	New(ctx ...any) Logger
	Debug(msg string, ctx ...any)
	Info(msg string, ctx ...any)
	Error(msg string, ctx ...any)
	Enabled(lvl Level) bool
}

var (
	rootMtx sync.RWMutex
	root    = &logger{logger: zap.NewNop()}
)

// Setup configures the root logger. It may be called more than once.
func Setup(cfg Config, opts ...Option) error {
	cfg.InitDefaults()
	lvl, err := ParseLevel(cfg.Console.Level)
	if err != nil {
		return serrors.Wrap("parsing console level", err)
	}
	o := applyOptions(opts)

	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	var enc zapcore.Encoder
	switch cfg.Console.Format {
	case "json":
		encCfg = zap.NewProductionEncoderConfig()
		encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		enc = zapcore.NewJSONEncoder(encCfg)
	default:
		enc = zapcore.NewConsoleEncoder(encCfg)
	}
	core := zapcore.NewCore(enc, zapcore.Lock(os.Stderr), zapcore.Level(lvl))
	zopts := append([]zap.Option{zap.AddCallerSkip(1)}, o.zapOptions()...)
	if !cfg.Console.DisableCaller {
		zopts = append(zopts, zap.AddCaller())
	}
	zl := zap.New(core, zopts...)

	rootMtx.Lock()
	defer rootMtx.Unlock()
	root = &logger{logger: zl}
	zap.ReplaceGlobals(zl)
	return nil
}

// Root returns the root logger.
func Root() Logger {
	rootMtx.RLock()
	defer rootMtx.RUnlock()
	return root
}

// New returns a child of the root logger with the context attached.
func New(ctx ...any) Logger {
	return Root().New(ctx...)
}

// Discard replaces the root logger with one that discards everything.
func Discard() {
	rootMtx.Lock()
	defer rootMtx.Unlock()
	root = &logger{logger: zap.NewNop()}
}

// NewNop returns a logger that discards everything.
func NewNop() Logger {
	return &logger{logger: zap.NewNop()}
}

// Flush writes out buffered log entries.
func Flush() {
	rootMtx.RLock()
	defer rootMtx.RUnlock()
	_ = root.logger.Sync()
}

// HandlePanic logs a panic with its stack and re-panics. Use it as the first
// deferred call of a goroutine.
func HandlePanic() {
	if msg := recover(); msg != nil {
		Error("Panic", "msg", msg, "stack", string(debug.Stack()))
		Flush()
		panic(msg)
	}
}

func Debug(msg string, ctx ...any) {
	Root().Debug(msg, ctx...)
}

func Info(msg string, ctx ...any) {
	Root().Info(msg, ctx...)
}

func Error(msg string, ctx ...any) {
	Root().Error(msg, ctx...)
}

type logger struct {
	logger *zap.Logger
}

func (l *logger) New(ctx ...any) Logger {
	return &logger{logger: l.logger.With(convertCtx(ctx)...)}
}

func (l *logger) Debug(msg string, ctx ...any) {
	l.logger.Debug(msg, convertCtx(ctx)...)
}

func (l *logger) Info(msg string, ctx ...any) {
	l.logger.Info(msg, convertCtx(ctx)...)
}

func (l *logger) Error(msg string, ctx ...any) {
	l.logger.Error(msg, convertCtx(ctx)...)
}

func (l *logger) Enabled(lvl Level) bool {
	return l.logger.Core().Enabled(zapcore.Level(lvl))
}

func (l *logger) WithOptions(opts ...zap.Option) Logger {
	return &logger{logger: l.logger.WithOptions(opts...)}
}

// convertCtx turns key/value pairs into zap fields. A dangling key is logged
// under "ctx_error".
func convertCtx(ctx []any) []zap.Field {
	fields := make([]zap.Field, 0, len(ctx)/2+1)
	for i := 0; i+1 < len(ctx); i += 2 {
		fields = append(fields, zap.Any(fmt.Sprint(ctx[i]), ctx[i+1]))
	}
	if len(ctx)%2 == 1 {
		fields = append(fields, zap.Any("ctx_error", ctx[len(ctx)-1]))
	}
	return fields
}
