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

// Package serrors provides errors that carry structured key/value context.
//
// The context is rendered as part of Error() and, since every error type in this
// package is a zapcore.ObjectMarshaler, it is logged as structured fields:
//
//	err := serrors.New("unknown table", "table", 7)
//	log.Error("Adding rule failed", "err", err)
//
// Errors created with New, Wrap and Join record the stack of the caller, unless a
// cause in the chain already carries one.
package serrors

import (
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type ctxPair struct {
	Key   string
	Value any
}

// details holds the parts shared by all error types of this package.
type details struct {
	ctx   []ctxPair
	cause error
	stack *stack
}

func newDetails(cause error, withStack bool, errCtx ...any) details {
	pairs := make([]ctxPair, 0, len(errCtx)/2)
	for i := 0; i+1 < len(errCtx); i += 2 {
		pairs = append(pairs, ctxPair{Key: fmt.Sprint(errCtx[i]), Value: errCtx[i+1]})
	}
	slices.SortStableFunc(pairs, func(a, b ctxPair) int {
		return strings.Compare(a.Key, b.Key)
	})
	d := details{ctx: pairs, cause: cause}
	if withStack && !hasStack(cause) {
		d.stack = callers()
	}
	return d
}

// hasStack reports whether some error in the chain of err was created by this
// package with a stack trace attached.
func hasStack(err error) bool {
	if err == nil {
		return false
	}
	if st, ok := err.(interface{ StackTrace() StackTrace }); ok && st.StackTrace() != nil {
		return true
	}
	switch e := err.(type) {
	case interface{ Unwrap() []error }:
		for _, c := range e.Unwrap() {
			if hasStack(c) {
				return true
			}
		}
		return false
	case interface{ Unwrap() error }:
		return hasStack(e.Unwrap())
	}
	return false
}

func (d details) suffix() string {
	var b strings.Builder
	if len(d.ctx) != 0 {
		b.WriteString(" {")
		for i, p := range d.ctx {
			if i != 0 {
				b.WriteString("; ")
			}
			fmt.Fprintf(&b, "%s=%v", p.Key, p.Value)
		}
		b.WriteString("}")
	}
	if d.cause != nil {
		fmt.Fprintf(&b, ": %s", d.cause)
	}
	return b.String()
}

func (d details) marshal(enc zapcore.ObjectEncoder) error {
	if d.cause != nil {
		if m, ok := d.cause.(zapcore.ObjectMarshaler); ok {
			if err := enc.AddObject("cause", m); err != nil {
				return err
			}
		} else {
			enc.AddString("cause", d.cause.Error())
		}
	}
	if d.stack != nil {
		if err := enc.AddArray("stacktrace", d.stack); err != nil {
			return err
		}
	}
	for _, p := range d.ctx {
		zap.Any(p.Key, p.Value).AddTo(enc)
	}
	return nil
}

// StackTrace returns the recorded stack, or nil if none was recorded.
func (d details) StackTrace() StackTrace {
	if d.stack == nil {
		return nil
	}
	return d.stack.StackTrace()
}

type basicError struct {
	details
	msg string
}

func (e *basicError) Error() string {
	return e.msg + e.details.suffix()
}

func (e *basicError) Unwrap() error {
	return e.cause
}

func (e *basicError) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("msg", e.msg)
	return e.details.marshal(enc)
}

// New creates a new error with the given message and context. Each call returns a
// distinct error, so the result can be used as a sentinel with errors.Is.
func New(msg string, errCtx ...any) error {
	return &basicError{details: newDetails(nil, true, errCtx...), msg: msg}
}

// Wrap returns an error with message msg that wraps cause.
func Wrap(msg string, cause error, errCtx ...any) error {
	return &basicError{details: newDetails(cause, true, errCtx...), msg: msg}
}

// WrapNoStack is Wrap without a stack trace.
func WrapNoStack(msg string, cause error, errCtx ...any) error {
	return &basicError{details: newDetails(cause, false, errCtx...), msg: msg}
}

// WithCtx attaches context to err.
func WithCtx(err error, errCtx ...any) error {
	return WrapNoStack("error", err, errCtx...)
}

type joinedError struct {
	details
	err error
}

func (e *joinedError) Error() string {
	return e.err.Error() + e.details.suffix()
}

func (e *joinedError) Unwrap() []error {
	if e.cause == nil {
		return []error{e.err}
	}
	return []error{e.err, e.cause}
}

func (e *joinedError) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("msg", e.err.Error())
	return e.details.marshal(enc)
}

// Join returns an error that matches both err and cause with errors.Is and
// errors.As. It is typically used to decorate a sentinel error with the error that
// triggered it. Join returns nil if both errors are nil.
func Join(err, cause error, errCtx ...any) error {
	return join(err, cause, true, errCtx...)
}

// JoinNoStack is Join without a stack trace.
func JoinNoStack(err, cause error, errCtx ...any) error {
	return join(err, cause, false, errCtx...)
}

func join(err, cause error, withStack bool, errCtx ...any) error {
	if err == nil && cause == nil {
		return nil
	}
	if err == nil {
		err, cause = cause, nil
	}
	return &joinedError{details: newDetails(cause, withStack, errCtx...), err: err}
}

// List is a slice of errors.
type List []error

func (e List) Error() string {
	s := make([]string, 0, len(e))
	for _, err := range e {
		s = append(s, err.Error())
	}
	return fmt.Sprintf("[ %s ]", strings.Join(s, "; "))
}

// ToError returns the list as an error, or nil if the list is empty.
func (e List) ToError() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

func (e List) Unwrap() []error {
	return e
}

func (e List) MarshalLogArray(ae zapcore.ArrayEncoder) error {
	for _, err := range e {
		if m, ok := err.(zapcore.ObjectMarshaler); ok {
			if err := ae.AppendObject(m); err != nil {
				return err
			}
		} else {
			ae.AppendString(err.Error())
		}
	}
	return nil
}
