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
	"io"

	"github.com/netplumber/netplumber/pkg/private/serrors"
	"github.com/netplumber/netplumber/private/config"
)

const (
	// DefaultConsoleLevel is the default log level for the console.
	DefaultConsoleLevel = "info"
	// DefaultConsoleFormat is the default console format.
	DefaultConsoleFormat = "human"
)

// Config is the configuration of the logger.
type Config struct {
	Console ConsoleConfig `toml:"console,omitempty"`
}

func (c *Config) InitDefaults() {
	c.Console.InitDefaults()
}

func (c *Config) Validate() error {
	return c.Console.Validate()
}

func (c *Config) Sample(dst io.Writer, path config.Path, ctx config.CtxMap) {
	config.WriteSample(dst, path, ctx, &c.Console)
}

func (c *Config) ConfigName() string {
	return "log"
}

// ConsoleConfig is the configuration of the console logger.
type ConsoleConfig struct {
	// Level of console logging (debug|info|error).
	Level string `toml:"level,omitempty"`
	// Format of the console output (human|json).
	Format string `toml:"format,omitempty"`
	// DisableCaller stops annotating entries with the calling function.
	DisableCaller bool `toml:"disable_caller,omitempty"`
}

func (c *ConsoleConfig) InitDefaults() {
	if c.Level == "" {
		c.Level = DefaultConsoleLevel
	}
	if c.Format == "" {
		c.Format = DefaultConsoleFormat
	}
}

func (c *ConsoleConfig) Validate() error {
	if _, err := ParseLevel(c.Level); err != nil {
		return err
	}
	if c.Format != "human" && c.Format != "json" {
		return serrors.New("unknown console format", "format", c.Format)
	}
	return nil
}

func (c *ConsoleConfig) Sample(dst io.Writer, _ config.Path, _ config.CtxMap) {
	config.WriteString(dst, consoleSample)
}

func (c *ConsoleConfig) ConfigName() string {
	return "console"
}

const consoleSample = `
# Console logging level (debug|info|error). (default info)
level = "info"

# Console logging format (human|json). (default human)
format = "human"

# Do not annotate entries with the caller. (default false)
disable_caller = false
`
