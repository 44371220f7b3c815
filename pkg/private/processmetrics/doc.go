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

// Package processmetrics exports the scheduling times of the process: the CPU
// time its threads ran and the time they were runnable but waiting for a core.
// Together with go_sched_maxprocs_threads they tell how much of the machine a
// long-running check or serve got. Only Linux is supported; elsewhere Init
// does nothing.
package processmetrics
