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

package env

const metricsSample = `
# Dedicated listen address for the prometheus exporter, as host:port or :port,
# for example ":30442". It serves the plumber_* metrics (edits, live flows,
# loops and probe events) and the process metrics of the serve command under
# /metrics. The HTTP API exports the same metrics under /metrics.
# (default "", no dedicated listener)
prometheus = ""
`

const tracingSample = `
# Report a jaeger span for each stage of loading a network directory
# (verify.load, netcfg.load_dir, netcfg.load_tables and netcfg.load_policy).
# (default false)
enabled = false
# Sample every span instead of relying on the agent's sampling strategy.
# (default false)
debug = false
# UDP address of the jaeger agent the spans are sent to.
# (default "localhost:6831")
agent = "localhost:6831"
`
