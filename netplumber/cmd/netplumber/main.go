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

// netplumber verifies the forwarding state of a network. It loads a network
// description into a plumbing graph and reports the probes, loops and slice
// leaks found in it.
package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/netplumber/netplumber/netplumber/config"
	"github.com/netplumber/netplumber/private/app/command"
	"github.com/netplumber/netplumber/private/app/feature"
	"github.com/netplumber/netplumber/private/app/flag"
	"github.com/netplumber/netplumber/private/app/launcher"
)

// Flag and environment keys. They mirror the TOML keys of the configuration.
const (
	keyNetworkDir     = "network.dir"
	keyNetworkPolicy  = "network.policy"
	keyNetworkFilter  = "network.filter"
	keyNetworkWorkers = "network.workers"
	keyCheckAnomalies = "network.check-anomalies"
	keyLength         = "plumber.length"
	keyBackend        = "plumber.backend"
	keyLoops          = "plumber.loops"
	keySlicing        = "plumber.slicing"
	keyAnomalies      = "plumber.anomalies"
	keyAPIAddr        = "api.addr"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	var cfg config.Config
	a := newApplication(&cfg)
	code := a.Execute(ctx, newRootCommand(filepath.Base(os.Args[0]), a, &cfg))
	stop()
	os.Exit(code)
}

func newApplication(cfg *config.Config) *launcher.Application {
	return &launcher.Application{
		TOMLConfig: cfg,
		Override: func(v *viper.Viper) error {
			return override(v, cfg)
		},
	}
}

func newRootCommand(use string, a *launcher.Application, cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: "Network verification with header space analysis",
		Long: `netplumber loads a network description into a plumbing graph and checks it.

The configuration is read from the file given by --config. Flags and
NETPLUMBER_* environment variables override it, e.g. NETPLUMBER_PLUMBER_LENGTH
sets plumber.length.`,
		Args: cobra.NoArgs,
	}
	a.Register(cmd)
	flags := cmd.PersistentFlags()
	flags.String(keyNetworkDir, "", "Network directory")
	flags.String(keyNetworkPolicy, "", "Policy file (default: policy.json in the network directory)")
	flags.Var(new(flag.HeaderVal), keyNetworkFilter,
		"Only load rules and sources that intersect the header")
	flags.Int(keyNetworkWorkers, 0, "Number of table files parsed concurrently")
	flags.Bool(keyCheckAnomalies, false, "Check all tables for shadowed rules after loading")
	flags.Int(keyLength, 0, "Header length in bytes")
	flags.String(keyBackend, "", "Header set backend (hs|bdd)")
	flags.String(keyLoops, "", "Loop detection (node|table)")
	flags.Bool(keySlicing, false, "Enable network slices")
	flags.StringSlice(keyAnomalies, nil, "Incremental anomaly checks ("+
		feature.All+"|"+strings.Join(feature.Names(&cfg.Plumber.Anomalies), "|")+")")

	cmd.AddCommand(
		newCheck(cmd, a, cfg),
		newStats(cmd, a, cfg),
		newDump(cmd, a, cfg),
		newServe(cmd, a, cfg),
		command.NewSample(cmd, cfg),
		command.NewVersion(cmd),
		command.NewGendocs(cmd),
	)
	return cmd
}

// override applies the flags and environment variables to cfg.
func override(v *viper.Viper, cfg *config.Config) error {
	flag.SetString(v, keyNetworkDir, &cfg.Network.Dir)
	flag.SetString(v, keyNetworkPolicy, &cfg.Network.Policy)
	flag.SetString(v, keyNetworkFilter, &cfg.Network.Filter)
	flag.SetInt(v, keyNetworkWorkers, &cfg.Network.Workers)
	flag.SetBool(v, keyCheckAnomalies, &cfg.Network.CheckAnomalies)
	flag.SetInt(v, keyLength, &cfg.Plumber.Length)
	flag.SetString(v, keyBackend, &cfg.Plumber.Backend)
	flag.SetString(v, keyLoops, &cfg.Plumber.Loops)
	flag.SetBool(v, keySlicing, &cfg.Plumber.Slicing)
	flag.SetString(v, keyAPIAddr, &cfg.API.Addr)

	var anomalies []string
	flag.SetStrings(v, keyAnomalies, &anomalies)
	if anomalies != nil {
		checks, err := feature.ParseAnomalies(anomalies)
		if err != nil {
			return err
		}
		cfg.Plumber.Anomalies = checks
	}
	return nil
}
