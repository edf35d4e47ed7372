// Copyright 2025 Lumacast Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"github.com/linkdata/deadlock"
)

// handleTable maps opaque uint64 handles to live values. Handles embed a
// generation counter so a stale handle from before a destroy never resolves
// to a recycled slot.
type handleTable[T any] struct {
	mu    deadlock.Mutex
	slots []slot[T]
	free  []uint32
}

type slot[T any] struct {
	generation uint32
	value      T
	live       bool
}

func packHandle(index, generation uint32) uint64 {
	return uint64(index)<<32 | uint64(generation)
}

func unpackHandle(h uint64) (index, generation uint32) {
	return uint32(h >> 32), uint32(h)
}

func (t *handleTable[T]) add(value T) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	var index uint32
	if n := len(t.free); n > 0 {
		index = t.free[n-1]
		t.free = t.free[:n-1]
	} else {
		t.slots = append(t.slots, slot[T]{})
		index = uint32(len(t.slots) - 1)
	}

	s := &t.slots[index]
	s.generation++
	s.value = value
	s.live = true
	return packHandle(index, s.generation)
}

func (t *handleTable[T]) get(h uint64) (T, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var zero T
	index, generation := unpackHandle(h)
	if int(index) >= len(t.slots) {
		return zero, false
	}
	s := &t.slots[index]
	if !s.live || s.generation != generation {
		return zero, false
	}
	return s.value, true
}

func (t *handleTable[T]) remove(h uint64) (T, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var zero T
	index, generation := unpackHandle(h)
	if int(index) >= len(t.slots) {
		return zero, false
	}
	s := &t.slots[index]
	if !s.live || s.generation != generation {
		return zero, false
	}

	value := s.value
	s.value = zero
	s.live = false
	t.free = append(t.free, index)
	return value, true
}
