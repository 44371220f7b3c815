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

// Package flag contains command line flag values and helpers that apply flags
// and environment variables on top of a loaded configuration.
package flag

import (
	"strings"

	"github.com/spf13/viper"

	"github.com/netplumber/netplumber/pkg/hs"
)

// EnvPrefix is the prefix of the environment variables read by the netplumber
// commands. The variable of a key is the upper-cased key with dots and dashes
// replaced by underscores: plumber.length is NETPLUMBER_PLUMBER_LENGTH.
const EnvPrefix = "NETPLUMBER"

// NewViper returns a viper instance that reads environment variables with the
// netplumber prefix.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// HeaderVal is a flag value holding a header array.
type HeaderVal hs.Array

func (v *HeaderVal) Set(val string) error {
	a, err := hs.ParseArray(val)
	if err != nil {
		return err
	}
	*v = HeaderVal(a)
	return nil
}

func (v *HeaderVal) Type() string   { return "header" }
func (v *HeaderVal) String() string { return hs.Array(*v).String() }

// SetString sets dst to the value of key if a flag or an environment variable
// sets it.
func SetString(v *viper.Viper, key string, dst *string) {
	if v.IsSet(key) {
		*dst = v.GetString(key)
	}
}

// SetInt is SetString for integers.
func SetInt(v *viper.Viper, key string, dst *int) {
	if v.IsSet(key) {
		*dst = v.GetInt(key)
	}
}

// SetBool is SetString for booleans.
func SetBool(v *viper.Viper, key string, dst *bool) {
	if v.IsSet(key) {
		*dst = v.GetBool(key)
	}
}

// SetStrings is SetString for lists. Environment variables are split at commas.
func SetStrings(v *viper.Viper, key string, dst *[]string) {
	if !v.IsSet(key) {
		return
	}
	var res []string
	for _, s := range v.GetStringSlice(key) {
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				res = append(res, part)
			}
		}
	}
	*dst = res
}
