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
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/netplumber/netplumber/netplumber/api"
	"github.com/netplumber/netplumber/netplumber/config"
	"github.com/netplumber/netplumber/netplumber/verify"
	"github.com/netplumber/netplumber/pkg/log"
	"github.com/netplumber/netplumber/pkg/private/processmetrics"
	"github.com/netplumber/netplumber/pkg/private/serrors"
	"github.com/netplumber/netplumber/private/app/command"
	"github.com/netplumber/netplumber/private/app/launcher"
	"github.com/netplumber/netplumber/private/env"
)

func newServe(pather command.Pather, a *launcher.Application,
	cfg *config.Config) *cobra.Command {

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Load the network and serve queries on it over HTTP",
		Long: `'serve' loads the network and answers read-only queries on the plumbing
graph until it is interrupted. The plumber metrics are exported on /metrics of
the API and, if metrics.prometheus is set, on the prometheus address.`,
		Example: fmt.Sprintf(`  %[1]s serve --config netplumber.toml --api.addr 127.0.0.1:8080
  curl 127.0.0.1:8080/probes`, pather.CommandPath()),
		Args: cobra.NoArgs,
		RunE: a.RunE(func(ctx context.Context, cmd *cobra.Command, _ []string) error {
			n, done, err := loadNetwork(ctx, cfg, prometheus.DefaultRegisterer)
			if err != nil {
				return err
			}
			defer done()
			if err := processmetrics.Init(prometheus.DefaultRegisterer); err != nil {
				log.Info("Process metrics not available", "err", err)
			}
			ln, err := net.Listen("tcp", cfg.API.Addr)
			if err != nil {
				return serrors.Wrap("listening", err, "addr", cfg.API.Addr)
			}

			g, errCtx := errgroup.WithContext(ctx)
			g.Go(func() error {
				defer log.HandlePanic()
				return serve(errCtx, cfg.API, ln, n, prometheus.DefaultRegisterer,
					prometheus.DefaultGatherer)
			})
			g.Go(func() error {
				defer log.HandlePanic()
				return cfg.Metrics.ServePrometheus(errCtx)
			})
			return g.Wait()
		}),
	}
	cmd.Flags().String(keyAPIAddr, "", "Address of the HTTP API (default "+
		config.DefaultAPIAddr+")")
	return cmd
}

// serve serves the API of n on ln until ctx is done. In-flight requests get
// the configured grace period to finish.
func serve(ctx context.Context, cfg config.API, ln net.Listener, n *verify.Network,
	reg prometheus.Registerer, g prometheus.Gatherer) error {

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	r := chi.NewRouter()
	r.Handle("/metrics", env.Handler(reg, g))
	server := &http.Server{
		Handler:           api.New(n).Handler(r),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout.Duration,
	}

	shutdown := make(chan error, 1)
	go func() {
		defer log.HandlePanic()
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGrace.Duration)
		defer cancel()
		shutdown <- server.Shutdown(sctx)
	}()
	log.Info("Exposing API", "addr", ln.Addr())
	err := server.Serve(ln)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return serrors.Wrap("serving API", err)
	}
	if err := <-shutdown; err != nil {
		return serrors.Wrap("shutting down API", err)
	}
	return nil
}
