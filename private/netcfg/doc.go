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

// Package netcfg loads network descriptions into a plumber.
//
// A network directory holds the following files:
//
//	topology.json       {"topology": [{"src": 1, "dst": 2}, ...]}
//	<name>.tf.json      one forwarding table per file
//	<name>.rules.json   same as .tf.json
//	policy.json         sources, probes and extra links (optional)
//	slices.json         {"slices": [{"id": 1, "space": "10xxxxxx"}, ...]} (optional)
//	slice_matrix.csv    slice communication matrix (optional)
//
// A table file has the form
//
//	{"id": 1, "ports": [1, 2], "rules": [
//	  {"id": 4294967297, "action": "fwd", "in_ports": [1], "out_ports": [2],
//	   "match": "10xxxxxx", "mask": null, "rewrite": null}]}
//
// The low 32 bits of a rule id are its priority index within the table. Only
// "fwd" and "rw" rules are loaded; multipath groups and other actions are
// skipped.
//
// The policy file is a list of commands:
//
//	{"commands": [
//	  {"method": "add_source", "params": {"id": 1, "hs": "xxxxxxxx", "ports": [100]}},
//	  {"method": "add_source_probe", "params": {"id": 2, "ports": [200],
//	    "mode": "universal", "match": "xxxxxxxx",
//	    "filter": {"type": "true"}, "test": {"type": "path", "pathlets": [...]}}},
//	  {"method": "add_link", "params": {"from_port": 2, "to_port": 200}}]}
//
// Header sets ("hs", "space") are either a single array string or an object
// {"list": [...], "diff": [...]}.
package netcfg
