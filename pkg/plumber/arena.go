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

// handle addresses a slot in an arena. The generation guards against using a
// handle after its slot was recycled. The zero handle is never valid.
type handle struct {
	idx uint32
	gen uint32
}

func (h handle) valid() bool { return h.gen != 0 }

type slot[T any] struct {
	gen  uint32
	live bool
	val  T
}

// arena stores records addressed by handles. Removed slots are reused.
type arena[T any] struct {
	slots []slot[T]
	free  []uint32
	n     int
}

func (a *arena[T]) insert(v T) handle {
	var idx uint32
	if l := len(a.free); l > 0 {
		idx = a.free[l-1]
		a.free = a.free[:l-1]
	} else {
		a.slots = append(a.slots, slot[T]{})
		idx = uint32(len(a.slots) - 1)
	}
	s := &a.slots[idx]
	s.gen++
	if s.gen == 0 {
		s.gen = 1
	}
	s.live = true
	s.val = v
	a.n++
	return handle{idx: idx, gen: s.gen}
}

// get returns the record of h, or nil if h is stale.
func (a *arena[T]) get(h handle) *T {
	if !h.valid() || int(h.idx) >= len(a.slots) {
		return nil
	}
	s := &a.slots[h.idx]
	if !s.live || s.gen != h.gen {
		return nil
	}
	return &s.val
}

// mustGet is get for handles that are known to be live.
func (a *arena[T]) mustGet(h handle) *T {
	v := a.get(h)
	if v == nil {
		panic("stale arena handle")
	}
	return v
}

func (a *arena[T]) remove(h handle) {
	if a.get(h) == nil {
		return
	}
	s := &a.slots[h.idx]
	var zero T
	s.val = zero
	s.live = false
	a.free = append(a.free, h.idx)
	a.n--
}

func (a *arena[T]) len() int { return a.n }

// each calls fn for every live record in slot order.
func (a *arena[T]) each(fn func(handle, *T)) {
	for i := range a.slots {
		s := &a.slots[i]
		if s.live {
			fn(handle{idx: uint32(i), gen: s.gen}, &s.val)
		}
	}
}

// handleList is a list of handles supporting O(1) removal. The position of each
// element is tracked by the owner of the referenced record through setPos.
type handleList []handle

// add appends h and returns its position.
func (l *handleList) add(h handle) int {
	*l = append(*l, h)
	return len(*l) - 1
}

// removeAt swap-removes the element at pos. It returns the handle that was moved
// into pos, if any.
func (l *handleList) removeAt(pos int) (handle, bool) {
	last := len(*l) - 1
	if pos < 0 || pos > last {
		panic("handle list position out of range")
	}
	moved := (*l)[last]
	(*l)[pos] = moved
	(*l)[last] = handle{}
	*l = (*l)[:last]
	if pos == last {
		return handle{}, false
	}
	return moved, true
}

// snapshot returns a copy safe to iterate while the list is mutated.
func (l handleList) snapshot() []handle {
	return append([]handle(nil), l...)
}
