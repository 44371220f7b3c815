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

package cond

import (
	"encoding/json"

	"github.com/netplumber/netplumber/pkg/hs"
	"github.com/netplumber/netplumber/pkg/private/serrors"
)

// Typer is implemented by all conditions and pathlets. The type is the value
// of the "type" field of the JSON encoding.
type Typer interface {
	Type() string
}

const (
	TypeTrue   = "true"
	TypeFalse  = "false"
	TypeAnd    = "and"
	TypeOr     = "or"
	TypeNot    = "not"
	TypeHeader = "header"
	TypePath   = "path"

	TypePort       = "port"
	TypeTable      = "table"
	TypeNextPorts  = "next_ports"
	TypeNextTables = "next_tables"
	TypeLastPorts  = "last_ports"
	TypeLastTables = "last_tables"
	TypeSkip       = "skip"
	TypeSkipNext   = "skip_next"
	TypeEnd        = "end"
)

// Conditions and pathlets are encoded as a single JSON object holding the
// fields of the concrete type plus a "type" field. Decoding first reads the
// object into a map of raw messages, and then decodes the fields according to
// the type.

type container map[string]json.RawMessage

func (c container) field(name string, v any) error {
	raw, ok := c[name]
	if !ok {
		return serrors.New("field missing", "field", name)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return serrors.Wrap("decoding field", err, "field", name)
	}
	return nil
}

func (c container) cond(name string) (Condition, error) {
	raw, ok := c[name]
	if !ok {
		return nil, serrors.New("field missing", "field", name)
	}
	return Unmarshal(raw)
}

func decodeContainer(b []byte) (container, string, error) {
	var c container
	if err := json.Unmarshal(b, &c); err != nil {
		return nil, "", err
	}
	var t string
	if err := c.field("type", &t); err != nil {
		return nil, "", err
	}
	return c, t, nil
}

// Marshal encodes a condition.
func Marshal(c Condition) ([]byte, error) {
	return json.Marshal(encode(c))
}

func encode(c Condition) map[string]any {
	m := map[string]any{"type": c.Type()}
	switch c := c.(type) {
	case *And:
		m["arg1"], m["arg2"] = encode(c.Arg1), encode(c.Arg2)
	case *Or:
		m["arg1"], m["arg2"] = encode(c.Arg1), encode(c.Arg2)
	case *Not:
		m["arg"] = encode(c.Arg)
	case *Header:
		m["header"] = c.Header
	case *Path:
		pathlets := make([]map[string]any, 0, len(c.Pathlets))
		for _, pl := range c.Pathlets {
			pathlets = append(pathlets, encodePathlet(pl))
		}
		m["pathlets"] = pathlets
	}
	return m
}

func encodePathlet(pl Pathlet) map[string]any {
	m := map[string]any{"type": pl.Type()}
	switch pl := pl.(type) {
	case Port:
		m["port"] = pl.Port
	case Table:
		m["table"] = pl.Table
	case NextPorts:
		m["ports"] = pl.Ports
	case NextTables:
		m["tables"] = pl.Tables
	case LastPorts:
		m["ports"] = pl.Ports
	case LastTables:
		m["tables"] = pl.Tables
	}
	return m
}

// Unmarshal decodes a condition.
func Unmarshal(b []byte) (Condition, error) {
	c, t, err := decodeContainer(b)
	if err != nil {
		return nil, serrors.Wrap("decoding condition", err)
	}
	switch t {
	case TypeTrue:
		return True{}, nil
	case TypeFalse:
		return False{}, nil
	case TypeAnd, TypeOr:
		arg1, err := c.cond("arg1")
		if err != nil {
			return nil, err
		}
		arg2, err := c.cond("arg2")
		if err != nil {
			return nil, err
		}
		if t == TypeAnd {
			return NewAnd(arg1, arg2), nil
		}
		return NewOr(arg1, arg2), nil
	case TypeNot:
		a, err := c.cond("arg")
		if err != nil {
			return nil, err
		}
		return NewNot(a), nil
	case TypeHeader:
		var h hs.Spec
		if err := c.field("header", &h); err != nil {
			return nil, err
		}
		return NewHeader(h), nil
	case TypePath:
		var raw []json.RawMessage
		if err := c.field("pathlets", &raw); err != nil {
			return nil, err
		}
		path := &Path{Pathlets: make([]Pathlet, 0, len(raw))}
		for i, r := range raw {
			pl, err := UnmarshalPathlet(r)
			if err != nil {
				return nil, serrors.WithCtx(err, "pathlet", i)
			}
			path.Pathlets = append(path.Pathlets, pl)
		}
		return path, nil
	default:
		return nil, serrors.New("unknown condition type", "type", t)
	}
}

// UnmarshalPathlet decodes a pathlet.
func UnmarshalPathlet(b []byte) (Pathlet, error) {
	c, t, err := decodeContainer(b)
	if err != nil {
		return nil, serrors.Wrap("decoding pathlet", err)
	}
	switch t {
	case TypePort:
		var p Port
		if err := c.field("port", &p.Port); err != nil {
			return nil, err
		}
		return p, nil
	case TypeTable:
		var p Table
		if err := c.field("table", &p.Table); err != nil {
			return nil, err
		}
		return p, nil
	case TypeNextPorts:
		var p NextPorts
		if err := c.field("ports", &p.Ports); err != nil {
			return nil, err
		}
		return p, nil
	case TypeNextTables:
		var p NextTables
		if err := c.field("tables", &p.Tables); err != nil {
			return nil, err
		}
		return p, nil
	case TypeLastPorts:
		var p LastPorts
		if err := c.field("ports", &p.Ports); err != nil {
			return nil, err
		}
		return p, nil
	case TypeLastTables:
		var p LastTables
		if err := c.field("tables", &p.Tables); err != nil {
			return nil, err
		}
		return p, nil
	case TypeSkip:
		return Skip{}, nil
	case TypeSkipNext:
		return SkipNext{}, nil
	case TypeEnd:
		return End{}, nil
	default:
		return nil, serrors.New("unknown pathlet type", "type", t)
	}
}

// JSON wraps a condition for use in JSON encoded structures.
type JSON struct {
	Condition
}

func (j JSON) MarshalJSON() ([]byte, error) {
	if j.Condition == nil {
		return []byte("null"), nil
	}
	return Marshal(j.Condition)
}

func (j *JSON) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		j.Condition = nil
		return nil
	}
	c, err := Unmarshal(b)
	if err != nil {
		return err
	}
	j.Condition = c
	return nil
}
