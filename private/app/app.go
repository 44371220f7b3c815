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

// Package app contains helpers shared by the netplumber commands.
package app

import (
	"errors"
)

// ExitCodeError is an error that carries the exit code of the process.
type ExitCodeError struct {
	err  error
	code int
}

// WithExitCode wraps err so that the process exits with code.
func WithExitCode(err error, code int) error {
	return ExitCodeError{err: err, code: code}
}

func (e ExitCodeError) Error() string { return e.err.Error() }
func (e ExitCodeError) Unwrap() error { return e.err }
func (e ExitCodeError) Code() int     { return e.code }

// ExitCode returns the exit code for err: zero for nil, the code of a wrapped
// ExitCodeError, and otherwise two.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var ec ExitCodeError
	if errors.As(err, &ec) {
		return ec.code
	}
	return 2
}
