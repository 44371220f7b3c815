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

package config

const plumberSample = `
# Header length in bytes. Every array of the network must have this length.
length = 4
# Header set backend (hs|bdd). (default hs)
backend = "hs"
# Maximum header length of the bdd backend in bytes. (default 64)
bdd_capacity = 64
# What a forwarding loop revisits (node|table). (default node)
loops = "node"
# Enable the slice overlay. Slices are read from slices.json. (default false)
slicing = false

[plumber.anomalies]
# Report rules shadowed by higher priority rules. (default false)
shadow = false
# Report rules no header can reach. (default false)
reach = false
# Report rules whose higher priority rules leave no header. (default false)
general = false
`

const networkSample = `
# The network directory holding topology.json and the table files.
dir = "/etc/netplumber/network"
# The policy file. (default policy.json in dir, if present)
policy = ""
# Only load rules and sources intersecting this header array. (default "")
filter = ""
# Number of parsed header arrays cached while loading. (default 4096)
cache_size = 4096
# Number of table files parsed concurrently. (default GOMAXPROCS)
workers = 0
# Check all tables for shadowed rules after loading. (default false)
check_anomalies = false
`

const apiSample = `
# Address of the HTTP query API of the serve command. (default 127.0.0.1:8080)
addr = "127.0.0.1:8080"
# Time allowed to read the headers of a request. (default 10s)
read_header_timeout = "10s"
# Time in-flight requests get to finish on shutdown. (default 5s)
shutdown_grace = "5s"
`
