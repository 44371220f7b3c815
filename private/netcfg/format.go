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

package netcfg

import (
	"encoding/json"

	"github.com/netplumber/netplumber/pkg/hs"
	"github.com/netplumber/netplumber/pkg/plumber/cond"
)

// Rule actions.
const (
	ActionForward   = "fwd"
	ActionRewrite   = "rw"
	ActionMultipath = "multipath"
)

// Policy methods.
const (
	MethodAddSource      = "add_source"
	MethodAddSourceProbe = "add_source_probe"
	MethodAddLink        = "add_link"
)

// File names within a network directory.
const (
	TopologyFile    = "topology.json"
	PolicyFile      = "policy.json"
	SlicesFile      = "slices.json"
	SliceMatrixFile = "slice_matrix.csv"
)

var tableSuffixes = []string{".tf.json", ".rules.json"}

// Link is a topology entry.
type Link struct {
	Src uint32 `json:"src"`
	Dst uint32 `json:"dst"`
}

// Topology is the content of topology.json.
type Topology struct {
	Links []Link `json:"topology"`
}

// Rule is a rule of a table file. Header arrays are kept as strings and
// parsed through the loader cache.
type Rule struct {
	ID       uint64   `json:"id"`
	Action   string   `json:"action"`
	InPorts  []uint32 `json:"in_ports"`
	OutPorts []uint32 `json:"out_ports"`
	Match    string   `json:"match"`
	Mask     string   `json:"mask"`
	Rewrite  string   `json:"rewrite"`
	// Rules holds the members of a multipath group.
	Rules []Rule `json:"rules,omitempty"`
}

// Index returns the priority index of the rule.
func (r Rule) Index() uint32 {
	return uint32(r.ID & 0xffffffff)
}

// Table is the content of a table file.
type Table struct {
	ID    uint32   `json:"id"`
	Ports []uint32 `json:"ports"`
	Rules []Rule   `json:"rules"`
}

// Command is a policy command. The params are decoded according to the
// method.
type Command struct {
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
}

// Policy is the content of a policy file.
type Policy struct {
	Commands []Command `json:"commands"`
}

// SourceParams are the params of add_source.
type SourceParams struct {
	ID    uint64   `json:"id"`
	HS    hs.Spec  `json:"hs"`
	Ports []uint32 `json:"ports"`
}

// ProbeParams are the params of add_source_probe. A missing filter or test
// always holds.
type ProbeParams struct {
	ID     uint64    `json:"id"`
	Ports  []uint32  `json:"ports"`
	Mode   string    `json:"mode"`
	Match  string    `json:"match"`
	Filter cond.JSON `json:"filter"`
	Test   cond.JSON `json:"test"`
}

// LinkParams are the params of add_link.
type LinkParams struct {
	FromPort uint32 `json:"from_port"`
	ToPort   uint32 `json:"to_port"`
}

// Slice is a slice definition.
type Slice struct {
	ID    uint64  `json:"id"`
	Space hs.Spec `json:"space"`
}

// Slices is the content of slices.json.
type Slices struct {
	Slices []Slice `json:"slices"`
}
