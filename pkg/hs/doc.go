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

// Package hs implements header sets: wildcard arrays over the alphabet {0,1,x}
// and unions of such arrays with exclusions.
//
// An Array is a fixed-length vector of wildcard positions. Its length is given in
// bytes; every byte holds eight positions. The textual form groups positions per
// byte, separated by commas:
//
//	10xxxxxx,xxxxxxx1
//
// A Set is a header set built from arrays. Two backends implement Set: the classic
// HeaderSpace, a union of arrays each with a list of subtracted arrays, and the
// BDD backend in package bdd. A Backend is chosen once per network and sets of
// different backends must never be combined.
//
// All binary operations require operands of equal length. A length mismatch is a
// programming error and panics.
package hs
