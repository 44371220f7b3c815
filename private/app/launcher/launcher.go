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

// Package launcher runs netplumber commands on top of a TOML configuration.
//
// The configuration is read from the file given by --config, then flags and
// NETPLUMBER_* environment variables are applied through the Override hook.
// Finally defaults are initialized, the configuration is validated and logging
// is set up before the command runs.
package launcher

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/netplumber/netplumber/pkg/log"
	"github.com/netplumber/netplumber/pkg/private/serrors"
	"github.com/netplumber/netplumber/private/app"
	"github.com/netplumber/netplumber/private/app/flag"
	libconfig "github.com/netplumber/netplumber/private/config"
)

// Configuration keys handled by the launcher.
const (
	cfgConfigFile       = "config"
	cfgLogConsoleLevel  = "log.console.level"
	cfgLogConsoleFormat = "log.console.format"
)

// LoggingConfig is implemented by configurations that carry a log block.
type LoggingConfig interface {
	LoggingConfig() *log.Config
}

// Main is the logic of a command. It runs after the configuration is loaded.
type Main func(ctx context.Context, cmd *cobra.Command, args []string) error

// Application holds the configuration shared by the commands of a binary.
type Application struct {
	// TOMLConfig is loaded before every command. If it implements
	// LoggingConfig, its log block configures logging.
	TOMLConfig libconfig.Config

	// Override applies flags and environment variables to TOMLConfig after the
	// file is decoded and before defaults are initialized. The flags of the
	// running command are bound to v under their names.
	Override func(v *viper.Viper) error

	// ErrorWriter specifies where error output should be printed. If nil,
	// os.Stderr is used.
	ErrorWriter io.Writer

	config *viper.Viper
}

// Register adds the persistent launcher flags to the root command.
func (a *Application) Register(root *cobra.Command) {
	a.config = flag.NewViper()
	root.PersistentFlags().String(cfgConfigFile, "", "Configuration file (TOML)")
	root.PersistentFlags().String(cfgLogConsoleLevel, "",
		"Console logging level (debug|info|error)")
	root.PersistentFlags().String(cfgLogConsoleFormat, "",
		"Console logging format (human|json)")
}

// RunE returns a cobra RunE function that loads the configuration and then
// calls main.
func (a *Application) RunE(main Main) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if a.config == nil {
			a.config = flag.NewViper()
		}
		if err := a.config.BindPFlags(cmd.Flags()); err != nil {
			return serrors.Wrap("binding flags", err)
		}
		if err := a.Load(); err != nil {
			return err
		}
		cmd.SilenceUsage = true
		if err := a.setupLogging(); err != nil {
			return err
		}
		defer log.Flush()
		defer log.HandlePanic()
		return main(cmd.Context(), cmd, args)
	}
}

// Load loads the configuration file, applies the overrides, initializes the
// defaults and validates the result.
func (a *Application) Load() error {
	if a.config == nil {
		a.config = flag.NewViper()
	}
	if file := a.config.GetString(cfgConfigFile); file != "" {
		if err := libconfig.LoadFile(file, a.TOMLConfig); err != nil {
			return err
		}
	}
	if lc, ok := a.TOMLConfig.(LoggingConfig); ok {
		logging := lc.LoggingConfig()
		flag.SetString(a.config, cfgLogConsoleLevel, &logging.Console.Level)
		flag.SetString(a.config, cfgLogConsoleFormat, &logging.Console.Format)
	}
	if a.Override != nil {
		if err := a.Override(a.config); err != nil {
			return serrors.Wrap("applying flags", err)
		}
	}
	a.TOMLConfig.InitDefaults()
	if err := a.TOMLConfig.Validate(); err != nil {
		return serrors.Wrap("validating config", err)
	}
	return nil
}

func (a *Application) setupLogging() error {
	var cfg log.Config
	if lc, ok := a.TOMLConfig.(LoggingConfig); ok {
		cfg = *lc.LoggingConfig()
	}
	if err := log.Setup(cfg); err != nil {
		return serrors.Wrap("initializing logging", err)
	}
	return nil
}

func (a *Application) errorWriter() io.Writer {
	if a.ErrorWriter != nil {
		return a.ErrorWriter
	}
	return os.Stderr
}

// Execute runs the root command and returns the exit code of the process. The
// error, if any, is printed to the error writer.
func (a *Application) Execute(ctx context.Context, root *cobra.Command) int {
	root.SilenceErrors = true
	err := root.ExecuteContext(ctx)
	if err != nil {
		_, _ = io.WriteString(a.errorWriter(), "Error: "+err.Error()+"\n")
	}
	return app.ExitCode(err)
}
