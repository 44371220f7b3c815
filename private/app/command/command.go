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

// Package command contains the cobra commands shared by the netplumber
// binaries.
package command

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/netplumber/netplumber/private/config"
)

// Pather returns the command path of the parent command.
type Pather interface {
	CommandPath() string
}

// NewSample returns a command that writes the sample configuration of cfg.
func NewSample(pather Pather, cfg config.Sampler) *cobra.Command {
	return &cobra.Command{
		Use:   "sample",
		Short: "Display a sample configuration file",
		Example: fmt.Sprintf(`  %[1]s sample > netplumber.toml
  %[1]s check --config netplumber.toml`, pather.CommandPath()),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg.Sample(cmd.OutOrStdout(), nil, nil)
			return nil
		},
	}
}

// NewVersion returns a command that prints the build information of the
// binary.
func NewVersion(pather Pather) *cobra.Command {
	return &cobra.Command{
		Use:     "version",
		Short:   "Show the netplumber version information",
		Example: fmt.Sprintf("  %s version", pather.CommandPath()),
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprint(cmd.OutOrStdout(), Version())
			return err
		},
	}
}

// Version returns a multi-line description of the build.
func Version() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "version: unknown\n"
	}
	s := fmt.Sprintf("version: %s\ngo: %s\n", info.Main.Version, info.GoVersion)
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision", "vcs.time", "vcs.modified":
			s += fmt.Sprintf("%s: %s\n", setting.Key, setting.Value)
		}
	}
	return s
}
