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

// Package feature parses lists of named switches, such as the anomaly checks
// given on the command line, into structs of booleans.
//
// Every boolean field of the struct is a switch. Its name is the value of the
// "feature" tag, or the field name if there is no tag. The name "all" turns on
// every switch.
package feature

import (
	"reflect"
	"sort"
	"strings"

	"github.com/netplumber/netplumber/pkg/plumber"
	"github.com/netplumber/netplumber/pkg/private/serrors"
)

// All is the name that selects every switch.
const All = "all"

// Parse sets the switches named in input on set, which must be a non-nil
// pointer to a struct. Empty names are ignored.
func Parse(input []string, set any) error {
	val := reflect.ValueOf(set)
	if !val.IsValid() || val.IsZero() {
		return serrors.New("switch set must not be nil")
	} else if val.Kind() != reflect.Ptr {
		return serrors.New("switch set must be pointer")
	}

	m := switchMap(set)
	for _, key := range input {
		key = strings.TrimSpace(key)
		switch key {
		case "":
			continue
		case All:
			for _, index := range m {
				val.Elem().Field(index).SetBool(true)
			}
			continue
		}
		index, ok := m[key]
		if !ok {
			return serrors.New("unknown switch", "name", key, "supported", Names(set))
		}
		val.Elem().Field(index).SetBool(true)
	}
	return nil
}

// ParseAnomalies parses a list of anomaly check names.
func ParseAnomalies(input []string) (plumber.AnomalyChecks, error) {
	var checks plumber.AnomalyChecks
	if err := Parse(input, &checks); err != nil {
		return plumber.AnomalyChecks{}, err
	}
	return checks, nil
}

// Names lists the switches of set in alphabetical order.
func Names(set any) []string {
	m := switchMap(set)
	s := make([]string, 0, len(m))
	for k := range m {
		s = append(s, k)
	}
	sort.Strings(s)
	return s
}

// String returns the switches of set that are on, joined by sep.
func String(set any, sep string) string {
	val := reflect.Indirect(reflect.ValueOf(set))
	if !val.IsValid() {
		return ""
	}
	var on []string
	for _, name := range Names(set) {
		if val.Field(switchMap(set)[name]).Bool() {
			on = append(on, name)
		}
	}
	return strings.Join(on, sep)
}

func switchMap(set any) map[string]int {
	m := map[string]int{}
	val := reflect.ValueOf(set)
	if !val.IsValid() {
		return nil
	}
	fields := val.Type()
	if fields.Kind() == reflect.Ptr {
		fields = fields.Elem()
	}
	for i := 0; i < fields.NumField(); i++ {
		if fields.Field(i).Type.Kind() != reflect.Bool {
			continue
		}
		name := fields.Field(i).Name
		if v, ok := fields.Field(i).Tag.Lookup("feature"); ok {
			name = strings.Split(v, ",")[0]
		}
		m[name] = i
	}
	return m
}
