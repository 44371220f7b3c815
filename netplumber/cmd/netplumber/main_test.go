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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/netplumber/netplumber/netplumber/config"
	"github.com/netplumber/netplumber/netplumber/verify"
	"github.com/netplumber/netplumber/pkg/plumber"
	"github.com/netplumber/netplumber/pkg/private/xtest"
	"github.com/netplumber/netplumber/private/netcfg"
)

const (
	topology = `{"topology": [{"src": 100, "dst": 1}, {"src": 2, "dst": 3}]}`
	table1   = `{"id": 1, "ports": [1, 2], "rules": [
	  {"id": 4294967306, "action": "fwd", "in_ports": [1], "out_ports": [2],
	   "match": "1xxxxxxx"}]}`
	table2 = `{"id": 2, "ports": [3, 4], "rules": [
	  {"id": 8589934593, "action": "rw", "in_ports": [3], "out_ports": [4],
	   "match": "10xxxxxx", "mask": "10000000", "rewrite": "00000000"}]}`
	policyTmpl = `{"commands": [
	  {"method": "add_source", "params": {"id": 7, "hs": "xxxxxxxx", "ports": [100]}},
	  {"method": "add_link", "params": {"from_port": 4, "to_port": 200}},
	  {"method": "add_source_probe", "params": {"id": 9, "ports": [200],
	    "mode": "universal", "filter": {"type": "true"},
	    "test": {"type": "header", "header": "%s"}}}]}`
)

func writeNetwork(t *testing.T, test string) string {
	t.Helper()
	return xtest.WriteFiles(t, map[string]string{
		netcfg.TopologyFile: topology,
		"t1.tf.json":        table1,
		"t2.tf.json":        table2,
		netcfg.PolicyFile:   fmt.Sprintf(policyTmpl, test),
	})
}

// run executes the binary with args and returns the exit code and the
// output.
func run(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var cfg config.Config
	a := newApplication(&cfg)
	var stderr, stdout bytes.Buffer
	a.ErrorWriter = &stderr
	root := newRootCommand("netplumber", a, &cfg)
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(append(args, "--log.console.level", "error"))
	code := a.Execute(context.Background(), root)
	return code, stdout.String(), stderr.String()
}

func TestCheck(t *testing.T) {
	testCases := map[string]struct {
		Test     string
		Args     []string
		Code     int
		Contains []string
	}{
		"pass": {
			Test:     "0xxxxxxx",
			Code:     0,
			Contains: []string{"[9] PASS universal", "Tables: 2"},
		},
		"fail": {
			Test:     "1xxxxxxx",
			Code:     1,
			Contains: []string{"[9] FAIL universal"},
		},
		"json": {
			Test:     "0xxxxxxx",
			Args:     []string{"--format", "json"},
			Code:     0,
			Contains: []string{`"pass": true`, `"mode": "universal"`},
		},
		"yaml": {
			Test:     "1xxxxxxx",
			Args:     []string{"--format", "yaml"},
			Code:     1,
			Contains: []string{"pass: false"},
		},
		"bad format": {
			Test: "0xxxxxxx",
			Args: []string{"--format", "xml"},
			Code: 2,
		},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			dir := writeNetwork(t, tc.Test)
			args := append([]string{"check", "--network.dir", dir, "--plumber.length", "1"},
				tc.Args...)
			code, out, _ := run(t, args...)
			assert.Equal(t, tc.Code, code)
			for _, s := range tc.Contains {
				assert.Contains(t, out, s)
			}
		})
	}
}

func TestCheckConfigErrors(t *testing.T) {
	dir := writeNetwork(t, "0xxxxxxx")
	base := []string{"check", "--network.dir", dir, "--plumber.length", "1"}
	missing := filepath.Join(dir, "nope")
	testCases := map[string][]string{
		"no length":         {"check", "--network.dir", dir},
		"unknown backend":   append(base, "--plumber.backend", "tree"),
		"unknown anomaly":   append(base, "--plumber.anomalies", "cycles"),
		"bad filter":        append(base, "--network.filter", "10"),
		"missing directory": {"check", "--network.dir", missing, "--plumber.length", "1"},
	}
	for name, args := range testCases {
		t.Run(name, func(t *testing.T) {
			code, _, stderr := run(t, args...)
			assert.Equal(t, 2, code)
			assert.Contains(t, stderr, "Error: ")
		})
	}
}

func TestEnvironment(t *testing.T) {
	dir := writeNetwork(t, "0xxxxxxx")
	t.Setenv("NETPLUMBER_NETWORK_DIR", dir)
	t.Setenv("NETPLUMBER_PLUMBER_LENGTH", "1")
	t.Setenv("NETPLUMBER_PLUMBER_ANOMALIES", "shadow,reach")
	code, out, stderr := run(t, "check", "--no-color")
	assert.Equal(t, 0, code, stderr)
	assert.Contains(t, out, "PASS")
}

func TestConfigFile(t *testing.T) {
	dir := writeNetwork(t, "0xxxxxxx")
	file := filepath.Join(t.TempDir(), "netplumber.toml")
	require.NoError(t, os.WriteFile(file, []byte(fmt.Sprintf(`
[plumber]
length = 1
backend = "bdd"
loops = "table"

[network]
dir = %q
check_anomalies = true
`, dir)), 0o644))
	code, out, stderr := run(t, "stats", "--config", file, "--format", "json")
	require.Equal(t, 0, code, stderr)
	var res struct {
		Network netcfg.Summary `json:"network"`
		Plumber plumber.Stats  `json:"plumber"`
		Tables  map[string]int `json:"tables"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 2, res.Network.Tables)
	assert.Equal(t, 2, res.Plumber.Rules)
	assert.Equal(t, 1, res.Plumber.Length)
	assert.Equal(t, map[string]int{"1": 1, "2": 1}, res.Tables)
}

func TestStats(t *testing.T) {
	dir := writeNetwork(t, "0xxxxxxx")
	code, out, stderr := run(t, "stats", "--network.dir", dir, "--plumber.length", "1")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, out, "METRIC")
	assert.Contains(t, out, "live flows")

	code, out, stderr = run(t, "stats", "--network.dir", dir, "--plumber.length", "1",
		"--format", "yaml")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, out, "rules: 2")
}

func TestDump(t *testing.T) {
	dir := writeNetwork(t, "0xxxxxxx")
	base := []string{"--network.dir", dir, "--plumber.length", "1"}

	code, out, stderr := run(t, append([]string{"dump", "links"}, base...)...)
	require.Equal(t, 0, code, stderr)
	var links []plumber.Link
	require.NoError(t, json.Unmarshal([]byte(out), &links))
	assert.Equal(t, []plumber.Link{{From: 2, To: 3}, {From: 4, To: 200}, {From: 100, To: 1}},
		links)

	code, out, stderr = run(t, append([]string{"dump", "flows", "--format", "yaml"}, base...)...)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, out, "header:")

	for _, name := range dumpNames() {
		code, _, stderr = run(t, append([]string{"dump", name}, base...)...)
		assert.Equal(t, 0, code, "%s: %s", name, stderr)
	}

	code, _, _ = run(t, append([]string{"dump", "routes"}, base...)...)
	assert.Equal(t, 2, code)
	code, _, _ = run(t, append([]string{"dump", "links", "--format", "human"}, base...)...)
	assert.Equal(t, 2, code)
}

func TestSample(t *testing.T) {
	code, out, _ := run(t, "sample")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "[plumber]")
	assert.Contains(t, out, "[network]")
}

func TestServe(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	var cfg config.Config
	cfg.InitDefaults()
	cfg.Plumber.Length = 1
	cfg.Network.Dir = writeNetwork(t, "0xxxxxxx")
	reg := prometheus.NewRegistry()
	ctx := xtest.Context(t)
	n, err := verify.Load(ctx, &cfg, reg)
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() {
		errCh <- serve(ctx, cfg.API, ln, n, reg, reg)
	}()

	client := &http.Client{Transport: &http.Transport{}}
	get := func(path string) string {
		resp, err := client.Get("http://" + ln.Addr().String() + path)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
		raw, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return string(raw)
	}
	assert.Contains(t, get("/stats"), `"rules": 2`)
	assert.Contains(t, get("/probes"), `"pass": true`)
	assert.Contains(t, get("/metrics"), "plumber_edits_total")

	client.CloseIdleConnections()
	cancel()
	assert.NoError(t, <-errCh)
}
