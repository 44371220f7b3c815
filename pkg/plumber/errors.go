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

package plumber

import (
	"errors"

	"github.com/netplumber/netplumber/pkg/private/prom"
	"github.com/netplumber/netplumber/pkg/private/serrors"
)

var (
	// ErrNoTable indicates that the addressed table does not exist.
	ErrNoTable = serrors.New("table does not exist")
	// ErrPortNotInTable indicates a rule port that is not a port of its table.
	ErrPortNotInTable = serrors.New("port not in table")
	// ErrDuplicateIndex indicates a rule index that is already taken.
	ErrDuplicateIndex = serrors.New("rule index already taken")
	// ErrInvalidTable indicates the reserved table id 0.
	ErrInvalidTable = serrors.New("invalid table")
	// ErrNoNode indicates that the addressed node does not exist or has another
	// kind.
	ErrNoNode = serrors.New("node does not exist")
	// ErrNoLink indicates that the link to remove does not exist.
	ErrNoLink = serrors.New("link does not exist")
	// ErrSliceOverlap indicates a slice whose header space overlaps another one.
	ErrSliceOverlap = serrors.New("slice overlaps existing slice")
	// ErrInvalidSlice indicates an invalid or unknown slice id.
	ErrInvalidSlice = serrors.New("invalid slice")
	// ErrSlicingDisabled indicates a slice operation on a Plumber without the
	// slice overlay.
	ErrSlicingDisabled = serrors.New("slicing disabled")
)

func errorResult(err error) string {
	switch {
	case errors.Is(err, ErrNoTable), errors.Is(err, ErrNoNode), errors.Is(err, ErrNoLink),
		errors.Is(err, ErrInvalidSlice):
		return prom.ErrNotFound
	default:
		return prom.ErrInvalidReq
	}
}
