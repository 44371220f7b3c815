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

package log

import (
	"context"
	"fmt"

	"github.com/opentracing/opentracing-go"
	"go.uber.org/zap"
)

type ctxKey struct{}

// CtxWith returns a new context, based on ctx, that embeds logger.
func CtxWith(ctx context.Context, logger Logger) context.Context {
	if ctx == nil {
		panic("nil context")
	}
	return context.WithValue(ctx, ctxKey{}, logger)
}

// FromCtx returns the logger embedded in ctx, or the root logger if there is
// none. If ctx carries a tracing span, the logger also logs to the span.
func FromCtx(ctx context.Context) Logger {
	if ctx == nil {
		return Root()
	}
	l, ok := ctx.Value(ctxKey{}).(Logger)
	if !ok {
		l = Root()
	}
	if _, isSpan := l.(Span); isSpan {
		return l
	}
	if span := opentracing.SpanFromContext(ctx); span != nil {
		return Span{Logger: skipFrame(l), Span: span}
	}
	return l
}

// WithLabels returns a context and logger with the labels attached.
func WithLabels(ctx context.Context, labels ...any) (context.Context, Logger) {
	logger := FromCtx(ctx).New(labels...)
	return CtxWith(ctx, logger), logger
}

// StartSpan starts the span op as a child of the span in ctx. The labels are
// set as span tags and attached to the returned logger, which logs to the new
// span even if ctx already carries a span logger.
func StartSpan(ctx context.Context, op string,
	labels ...any) (opentracing.Span, context.Context, Logger) {

	l := FromCtx(ctx)
	span, ctx := opentracing.StartSpanFromContext(ctx, op)
	for i := 0; i+1 < len(labels); i += 2 {
		span.SetTag(fmt.Sprint(labels[i]), labels[i+1])
	}
	if s, ok := l.(Span); ok {
		l = s.Logger
	} else {
		l = skipFrame(l)
	}
	logger := Span{Logger: l.New(labels...), Span: span}
	return span, CtxWith(ctx, logger), logger
}

func skipFrame(l Logger) Logger {
	if optioner, ok := l.(interface{ WithOptions(...zap.Option) Logger }); ok {
		return optioner.WithOptions(zap.AddCallerSkip(1))
	}
	return l
}
