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

// Package config defines the interfaces that configuration blocks implement and the
// helpers to load, validate and document them.
//
// A configuration file is TOML. Every block is a struct implementing Config; the
// top-level struct delegates to its blocks:
//
//	func (cfg *Config) InitDefaults() {
//		config.InitAll(&cfg.Logging, &cfg.Plumber)
//	}
//
// Samples are written with WriteSample and are expected to decode back into a
// valid configuration.
package config

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/netplumber/netplumber/pkg/private/serrors"
)

// Config is the interface every configuration block implements.
type Config interface {
	Sampler
	Validator
	Defaulter
}

type Validator interface {
	// Validate recursively checks that all fields contain valid values.
	Validate() error
}

type Defaulter interface {
	// InitDefaults recursively initializes the default values of all
	// uninitialized fields.
	InitDefaults()
}

type Sampler interface {
	// Sample writes a sample of the block to dst. Sample is allowed to panic if
	// writing fails.
	Sample(dst io.Writer, path Path, ctx CtxMap)
}

// TableSampler is a Sampler that is rendered as its own TOML table.
type TableSampler interface {
	Sampler
	// ConfigName returns the name of the TOML table.
	ConfigName() string
}

// Path is the position of a block in the TOML tree.
type Path []string

// Extend returns a copy of the path with s appended.
func (p Path) Extend(s string) Path {
	c := append(Path(nil), p...)
	return append(c, s)
}

// NoValidator can be embedded by blocks without validation.
type NoValidator struct{}

func (NoValidator) Validate() error {
	return nil
}

// NoDefaulter can be embedded by blocks without defaults.
type NoDefaulter struct{}

func (NoDefaulter) InitDefaults() {}

// StringSampler is a TableSampler backed by a constant sample.
type StringSampler struct {
	Text string
	Name string
}

func (s StringSampler) Sample(dst io.Writer, _ Path, _ CtxMap) {
	WriteString(dst, s.Text)
}

func (s StringSampler) ConfigName() string {
	return s.Name
}

// ValidateAll validates all validators and returns the first error.
func ValidateAll(validators ...Validator) error {
	for _, v := range validators {
		if err := v.Validate(); err != nil {
			return serrors.Wrap("validating config", err, "type", fmt.Sprintf("%T", v))
		}
	}
	return nil
}

// InitAll initializes the defaults of all defaulters.
func InitAll(defaulters ...Defaulter) {
	for _, d := range defaulters {
		d.InitDefaults()
	}
}

// Decode decodes raw TOML into cfg. Unknown keys are an error.
func Decode(raw []byte, cfg any) error {
	return toml.NewDecoder(bytes.NewReader(raw)).DisallowUnknownFields().Decode(cfg)
}

// LoadFile decodes the TOML file into cfg.
func LoadFile(file string, cfg any) error {
	raw, err := os.ReadFile(file)
	if err != nil {
		return serrors.Wrap("reading config file", err, "file", file)
	}
	if err := Decode(raw, cfg); err != nil {
		return serrors.Wrap("decoding config file", err, "file", file)
	}
	return nil
}

// Load decodes the file into cfg, initializes defaults and validates the result.
// An empty file name only initializes and validates.
func Load(file string, cfg Config) error {
	if file != "" {
		if err := LoadFile(file, cfg); err != nil {
			return err
		}
	}
	cfg.InitDefaults()
	return cfg.Validate()
}
