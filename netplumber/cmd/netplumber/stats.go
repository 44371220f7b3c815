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
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/netplumber/netplumber/netplumber/config"
	"github.com/netplumber/netplumber/pkg/plumber"
	"github.com/netplumber/netplumber/private/app/command"
	"github.com/netplumber/netplumber/private/app/launcher"
	"github.com/netplumber/netplumber/private/netcfg"
)

type statsResult struct {
	Network netcfg.Summary `json:"network" yaml:"network"`
	Plumber plumber.Stats  `json:"plumber" yaml:"plumber"`
	// Tables lists the rule count of every table.
	Tables map[plumber.TableID]int `json:"tables" yaml:"tables"`
}

func newStats(pather command.Pather, a *launcher.Application,
	cfg *config.Config) *cobra.Command {

	var flags struct {
		format string
	}
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Load the network and show the size of the plumbing graph",
		Example: fmt.Sprintf(`  %[1]s stats --config netplumber.toml
  %[1]s stats --config netplumber.toml --format yaml`, pather.CommandPath()),
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

			res := statsResult{
				Network: n.Loader.Summary(),
				Plumber: n.Plumber.Stats(),
				Tables:  make(map[plumber.TableID]int),
			}
			for _, t := range n.Plumber.DumpNetwork().Tables {
				res.Tables[t.ID] = len(t.Rules)
			}
			if flags.format == formatHuman {
				res.human(cmd.OutOrStdout())
				return nil
			}
			return encode(cmd.OutOrStdout(), flags.format, res)
		}),
	}
	cmd.Flags().StringVar(&flags.format, "format", formatHuman, formatUsage)
	return cmd
}

func (r statsResult) human(w io.Writer) {
	s, p := r.Network, r.Plumber
	rows := [][]string{
		{"length", strconv.Itoa(p.Length)},
		{"links", strconv.Itoa(p.Links)},
		{"tables", strconv.Itoa(p.Tables)},
		{"rules", strconv.Itoa(p.Rules)},
		{"sources", strconv.Itoa(p.Sources)},
		{"probes", strconv.Itoa(p.Probes)},
		{"pipes", strconv.Itoa(p.Pipes)},
		{"influences", strconv.Itoa(p.Influences)},
		{"flows", strconv.Itoa(p.Flows)},
		{"live flows", strconv.Itoa(p.LiveFlows)},
		{"slices", strconv.Itoa(p.Slices)},
		{"filtered", strconv.Itoa(s.Filtered)},
		{"unsupported", strconv.Itoa(s.Unsupported)},
		{"unknown commands", strconv.Itoa(s.Unknown)},
		{"load time", s.Duration.String()},
	}
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetBorder(false)
	table.SetHeaderLine(false)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeader([]string{"METRIC", "VALUE"})
	table.AppendBulk(rows)
	table.Render()
}
