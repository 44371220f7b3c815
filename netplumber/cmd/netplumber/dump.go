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
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/netplumber/netplumber/netplumber/config"
	"github.com/netplumber/netplumber/pkg/plumber"
	"github.com/netplumber/netplumber/pkg/private/serrors"
	"github.com/netplumber/netplumber/private/app/command"
	"github.com/netplumber/netplumber/private/app/launcher"
)

// dumps are the views of the plumber the dump command can write.
var dumps = map[string]func(p *plumber.Plumber) any{
	"network": func(p *plumber.Plumber) any { return p.DumpNetwork() },
	"links":   func(p *plumber.Plumber) any { return p.Links() },
	"pipes":   func(p *plumber.Plumber) any { return p.DumpPipes() },
	"flows":   func(p *plumber.Plumber) any { return p.DumpFlowTrees() },
	"slices":  func(p *plumber.Plumber) any { return p.DumpSlices() },
	"deps":    func(p *plumber.Plumber) any { return p.DumpDependencies() },
}

func dumpNames() []string {
	names := make([]string, 0, len(dumps))
	for name := range dumps {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func newDump(pather command.Pather, a *launcher.Application,
	cfg *config.Config) *cobra.Command {

	var flags struct {
		format string
	}
	cmd := &cobra.Command{
		Use:   "dump <" + strings.Join(dumpNames(), "|") + ">",
		Short: "Load the network and dump a view of the plumbing graph",
		Example: fmt.Sprintf(`  %[1]s dump network --config netplumber.toml
  %[1]s dump flows --config netplumber.toml --format yaml`, pather.CommandPath()),
		Args:      cobra.ExactArgs(1),
		ValidArgs: dumpNames(),
		RunE: a.RunE(func(ctx context.Context, cmd *cobra.Command, args []string) error {
			view, ok := dumps[args[0]]
			if !ok {
				return serrors.New("unknown dump", "name", args[0], "supported", dumpNames())
			}
			if err := checkFormat(flags.format, false); err != nil {
				return err
			}
			n, done, err := loadNetwork(ctx, cfg, nil)
			if err != nil {
				return err
			}
			defer done()
			return encode(cmd.OutOrStdout(), flags.format, view(n.Plumber))
		}),
	}
	cmd.Flags().StringVar(&flags.format, "format", formatJSON,
		"Specify the output format (json|yaml)")
	return cmd
}
