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

// Package util contains small value types shared by the configuration and
// the command line.
package util

import (
	"encoding"
	"time"

	"github.com/spf13/pflag"

	"github.com/netplumber/netplumber/pkg/private/serrors"
)

var _ (encoding.TextUnmarshaler) = (*DurWrap)(nil)
var _ (encoding.TextMarshaler) = DurWrap{}
var _ (pflag.Value) = (*DurWrap)(nil)

// DurWrap wraps a duration so that it can be read from TOML and flags in the
// time.ParseDuration format, e.g. "1m30s".
type DurWrap struct {
	time.Duration
}

func (d *DurWrap) UnmarshalText(text []byte) error {
	return d.Set(string(text))
}

func (d *DurWrap) Set(text string) error {
	dur, err := time.ParseDuration(text)
	if err != nil {
		return serrors.Wrap("parsing duration", err, "input", text)
	}
	if dur < 0 {
		return serrors.New("negative duration", "input", text)
	}
	d.Duration = dur
	return nil
}

func (d DurWrap) MarshalText() (text []byte, err error) {
	return []byte(d.String()), nil
}

func (d DurWrap) String() string {
	return d.Duration.String()
}

func (d *DurWrap) Type() string {
	return "duration"
}
