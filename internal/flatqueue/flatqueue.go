// Copyright 2023 The flatgeobuf (Go) Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package flatqueue implements a binary min-heap priority queue whose
// storage is kept across Clear calls, so a single queue can serve many
// searches without reallocating.
package flatqueue

// Queue is a min-heap of items ordered by a float64 priority. The zero
// value is an empty queue ready to use. Items of equal priority are
// popped in no particular order.
//
// It does NOT implement container/heap to avoid interface overhead.
type Queue[T any] struct {
	items  []T
	values []float64
}

// Len returns the number of items in the queue.
func (q *Queue[T]) Len() int {
	return len(q.items)
}

// Clear removes all items, keeping the allocated storage.
func (q *Queue[T]) Clear() {
	var zero T
	for i := range q.items {
		q.items[i] = zero
	}
	q.items = q.items[:0]
	q.values = q.values[:0]
}

// Push adds an item with the given priority.
func (q *Queue[T]) Push(item T, value float64) {
	q.items = append(q.items, item)
	q.values = append(q.values, value)
	q.siftUp(len(q.items) - 1)
}

// Pop removes and returns the item with the lowest priority. It returns
// false if the queue is empty.
func (q *Queue[T]) Pop() (T, bool) {
	n := len(q.items)
	if n == 0 {
		var zero T
		return zero, false
	}

	top := q.items[0]
	q.items[0], q.values[0] = q.items[n-1], q.values[n-1]
	var zero T
	q.items[n-1] = zero
	q.items = q.items[:n-1]
	q.values = q.values[:n-1]
	if n > 1 {
		q.siftDown(0)
	}
	return top, true
}

// Peek returns the item with the lowest priority without removing it.
// It returns false if the queue is empty.
func (q *Queue[T]) Peek() (T, bool) {
	if len(q.items) == 0 {
		var zero T
		return zero, false
	}
	return q.items[0], true
}

// PeekValue returns the lowest priority in the queue. It returns false
// if the queue is empty.
func (q *Queue[T]) PeekValue() (float64, bool) {
	if len(q.values) == 0 {
		return 0, false
	}
	return q.values[0], true
}

func (q *Queue[T]) siftUp(i int) {
	item, value := q.items[i], q.values[i]
	for i > 0 {
		parent := (i - 1) >> 1
		if q.values[parent] <= value {
			break
		}
		q.items[i], q.values[i] = q.items[parent], q.values[parent]
		i = parent
	}
	q.items[i], q.values[i] = item, value
}

func (q *Queue[T]) siftDown(i int) {
	n := len(q.items)
	item, value := q.items[i], q.values[i]
	for {
		left := 2*i + 1
		if left >= n {
			break
		}
		best := left
		if right := left + 1; right < n && q.values[right] < q.values[left] {
			best = right
		}
		if q.values[best] >= value {
			break
		}
		q.items[i], q.values[i] = q.items[best], q.values[best]
		i = best
	}
	q.items[i], q.values[i] = item, value
}
