// Copyright 2023 The flatgeobuf (Go) Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package flatqueue

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueue_Empty(t *testing.T) {
	var q Queue[int]

	assert.Equal(t, 0, q.Len())
	_, ok := q.Pop()
	assert.False(t, ok)
	_, ok = q.Peek()
	assert.False(t, ok)
	_, ok = q.PeekValue()
	assert.False(t, ok)
}

func TestQueue_PushPop(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	var q Queue[int]
	values := make([]float64, 1000)
	for i := range values {
		values[i] = r.Float64() * 100
		q.Push(i, values[i])
	}
	require.Equal(t, len(values), q.Len())

	sort.Float64s(values)
	for i := range values {
		v, ok := q.PeekValue()
		require.True(t, ok)
		require.Equal(t, values[i], v)
		peeked, _ := q.Peek()
		item, ok := q.Pop()
		require.True(t, ok)
		require.Equal(t, peeked, item)
	}
	assert.Equal(t, 0, q.Len())
}

func TestQueue_Clear(t *testing.T) {
	var q Queue[string]
	q.Push("b", 2)
	q.Push("a", 1)

	q.Clear()

	assert.Equal(t, 0, q.Len())
	q.Push("c", 3)
	item, ok := q.Pop()
	assert.True(t, ok)
	assert.Equal(t, "c", item)
}

func TestQueue_Interleaved(t *testing.T) {
	var q Queue[int]
	q.Push(5, 5)
	q.Push(1, 1)
	q.Push(3, 3)

	item, _ := q.Pop()
	assert.Equal(t, 1, item)

	q.Push(0, 0)
	q.Push(4, 4)

	var got []int
	for q.Len() > 0 {
		item, _ = q.Pop()
		got = append(got, item)
	}
	assert.Equal(t, []int{0, 3, 4, 5}, got)
}
