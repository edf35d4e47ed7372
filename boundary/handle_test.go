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
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHandleTable(t *testing.T) {
	table := &handleTable[string]{}

	h1 := table.add("first")
	h2 := table.add("second")
	require.NotEqual(t, h1, h2)

	v, ok := table.get(h1)
	require.True(t, ok)
	require.Equal(t, "first", v)

	v, ok = table.remove(h1)
	require.True(t, ok)
	require.Equal(t, "first", v)

	_, ok = table.get(h1)
	require.False(t, ok)
	_, ok = table.remove(h1)
	require.False(t, ok)

	v, ok = table.get(h2)
	require.True(t, ok)
	require.Equal(t, "second", v)
}

func TestHandleTableGenerationGuard(t *testing.T) {
	table := &handleTable[int]{}

	h1 := table.add(1)
	_, ok := table.remove(h1)
	require.True(t, ok)

	// the slot is recycled with a new generation
	h2 := table.add(2)
	i1, _ := unpackHandle(h1)
	i2, _ := unpackHandle(h2)
	require.Equal(t, i1, i2)
	require.NotEqual(t, h1, h2)

	_, ok = table.get(h1)
	require.False(t, ok)
	v, ok := table.get(h2)
	require.True(t, ok)
	require.Equal(t, 2, v)
}

func TestHandleTableZeroNeverValid(t *testing.T) {
	table := &handleTable[int]{}
	_, ok := table.get(0)
	require.False(t, ok)

	// generations start at 1, so no live handle ever packs to zero
	h := table.add(7)
	require.NotZero(t, h)
}
