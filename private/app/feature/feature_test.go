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

package feature_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/netplumber/netplumber/pkg/plumber"
	"github.com/netplumber/netplumber/private/app/feature"
)

func TestParse(t *testing.T) {
	type NoTag struct {
		Untagged        bool
		NotDiscoverable string
	}

	testCases := map[string]struct {
		Input          []string
		Set            any
		ErrorAssertion assert.ErrorAssertionFunc
		Expected       any
	}{
		"anomalies": {
			Input:          []string{"shadow", " reach"},
			Set:            &plumber.AnomalyChecks{},
			ErrorAssertion: assert.NoError,
			Expected:       &plumber.AnomalyChecks{Shadow: true, Reach: true},
		},
		"all": {
			Input:          []string{"all"},
			Set:            &plumber.AnomalyChecks{},
			ErrorAssertion: assert.NoError,
			Expected:       &plumber.AnomalyChecks{Shadow: true, Reach: true, General: true},
		},
		"empty names": {
			Input:          []string{"", "general"},
			Set:            &plumber.AnomalyChecks{},
			ErrorAssertion: assert.NoError,
			Expected:       &plumber.AnomalyChecks{General: true},
		},
		"untagged": {
			Input:          []string{"Untagged"},
			Set:            &NoTag{},
			ErrorAssertion: assert.NoError,
			Expected:       &NoTag{Untagged: true},
		},
		"unknown": {
			Input:          []string{"unknown"},
			Set:            &plumber.AnomalyChecks{},
			ErrorAssertion: assert.Error,
			Expected:       &plumber.AnomalyChecks{},
		},
		"not discoverable": {
			Input:          []string{"NotDiscoverable"},
			Set:            &NoTag{},
			ErrorAssertion: assert.Error,
			Expected:       &NoTag{},
		},
		"nil pointer": {
			Input:          []string{"shadow"},
			Set:            (*plumber.AnomalyChecks)(nil),
			ErrorAssertion: assert.Error,
			Expected:       (*plumber.AnomalyChecks)(nil),
		},
		"struct": {
			Input:          []string{"shadow"},
			Set:            plumber.AnomalyChecks{},
			ErrorAssertion: assert.Error,
			Expected:       plumber.AnomalyChecks{},
		},
		"nil": {
			Input:          []string{"shadow"},
			Set:            nil,
			ErrorAssertion: assert.Error,
			Expected:       nil,
		},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			set := tc.Set
			err := feature.Parse(tc.Input, set)
			tc.ErrorAssertion(t, err)
			assert.Equal(t, tc.Expected, set)
		})
	}
}

func TestParseAnomalies(t *testing.T) {
	checks, err := feature.ParseAnomalies([]string{"reach"})
	assert.NoError(t, err)
	assert.Equal(t, plumber.AnomalyChecks{Reach: true}, checks)

	checks, err = feature.ParseAnomalies([]string{"reach", "loops"})
	assert.Error(t, err)
	assert.Equal(t, plumber.AnomalyChecks{}, checks)
}

func TestNames(t *testing.T) {
	assert.Equal(t, []string{"general", "reach", "shadow"}, feature.Names(plumber.AnomalyChecks{}))
	assert.Equal(t, "reach|shadow",
		feature.String(plumber.AnomalyChecks{Shadow: true, Reach: true}, "|"))
	assert.Empty(t, feature.String(nil, "|"))
}
