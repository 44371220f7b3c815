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

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/netplumber/netplumber/netplumber/config"
	"github.com/netplumber/netplumber/pkg/private/serrors"
	"github.com/netplumber/netplumber/private/app"
	"github.com/netplumber/netplumber/private/app/command"
	"github.com/netplumber/netplumber/private/app/launcher"
)

func newCheck(pather command.Pather, a *launcher.Application,
	cfg *config.Config) *cobra.Command {

	var flags struct {
		format  string
		noColor bool
	}
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Load the network and report its probes, loops and slice leaks",
		Long: `'check' loads the network and reports the result of every probe of the
policy, the forwarding loops and the slice leaks found while loading.

The exit status is 0 if every probe holds and neither loops nor slice leaks
were found, 1 if the check failed and 2 for any other error.`,
		Example: fmt.Sprintf(`  %[1]s check --network.dir ./network --plumber.length 4
  %[1]s check --config netplumber.toml --format json
  %[1]s check --config netplumber.toml --plumber.anomalies all`, pather.CommandPath()),
		Args: cobra.NoArgs,
		RunE: a.RunE(func(ctx context.Context, cmd *cobra.Command, _ []string) error {
			if err := checkFormat(flags.format, true); err != nil {
				return err
			}
			n, done, err := loadNetwork(ctx, cfg, nil)
			if err != nil {
				return err
			}
			defer done()

			r := n.Report()
			w := cmd.OutOrStdout()
			switch flags.format {
			case formatHuman:
				r.Human(w, !flags.noColor && isTerminal(w))
			case formatJSON:
				err = r.JSON(w)
			case formatYAML:
				err = r.YAML(w)
			}
			if err != nil {
				return err
			}
			if r.Failed() {
				return app.WithExitCode(serrors.New("network check failed",
					"loops", len(r.Loops), "leaks", len(r.Leaks)), 1)
			}
			return nil
		}),
	}
	cmd.Flags().StringVar(&flags.format, "format", formatHuman, formatUsage)
	cmd.Flags().BoolVar(&flags.noColor, "no-color", false, "disable colored output")
	return cmd
}
