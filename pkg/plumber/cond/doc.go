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

// Package cond implements the conditions evaluated by probes.
//
// A condition is evaluated against a Hop, the last hop of a flow path. Path
// conditions walk the path towards its source and match it against a list of
// pathlets, similar to a regular expression anchored at the probe:
//
//	.*(p = 4)(t in 300).*(t in 100)
//
// Conditions are encoded in JSON as objects tagged with their type:
//
//	{"type": "and", "arg1": {"type": "true"}, "arg2": {"type": "path", "pathlets": [...]}}
package cond
