// Copyright 2023 The flatgeobuf (Go) Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package packedrtree

import "math"

// NeighborOption configures a Neighbors query.
type NeighborOption func(*neighborQuery)

type neighborQuery struct {
	maxResults  int
	maxDistance float64
	filter      Filter
}

// MaxResults limits a Neighbors query to the n nearest items. By
// default the number of results is unbounded. n must be positive.
func MaxResults(n int) NeighborOption {
	return func(q *neighborQuery) {
		q.maxResults = n
	}
}

// MaxDistance limits a Neighbors query to items whose boxes lie within
// distance d of the query point. By default the distance is unbounded.
// d must not be negative.
func MaxDistance(d float64) NeighborOption {
	return func(q *neighborQuery) {
		q.maxDistance = d
	}
}

// WithFilter limits a Neighbors query to the items for which f returns
// true.
func WithFilter(f Filter) NeighborOption {
	return func(q *neighborQuery) {
		q.filter = f
	}
}

// Neighbors returns the identifiers of the items nearest to the point
// (x, y), in ascending order of the distance from the point to the
// item's box. The distance to a box containing the point is zero.
//
// The search is best-first: nodes are expanded in order of their
// minimum possible distance to the point, so no subtree is examined
// unless it could hold a closer item than those already returned.
//
// Returns ErrNotIndexed if the Index is not finished, and an
// ErrArgument error if the options are out of range.
func (ix *Index) Neighbors(x, y float64, opts ...NeighborOption) ([]int, error) {
	q := neighborQuery{maxResults: math.MaxInt, maxDistance: math.Inf(1)}
	for _, opt := range opts {
		opt(&q)
	}
	if q.maxResults < 1 {
		return nil, kindErr(ErrArgument, "max results must be > 0, got %d", q.maxResults)
	} else if !(q.maxDistance >= 0) {
		return nil, kindErr(ErrArgument, "max distance must be >= 0, got %v", q.maxDistance)
	}
	if !ix.finished() {
		return nil, ErrNotIndexed
	}

	pq := &ix.queue
	defer pq.Clear()

	maxDistSq := q.maxDistance * q.maxDistance
	leafEnd := 4 * ix.numItems
	r := make([]int, 0)
	nodeIndex := ix.boxes.len() - 4

	for {
		// Queue the children of the current node, skipping any too far
		// away.
		end := ix.runEnd(nodeIndex)
		for pos := nodeIndex; pos < end; pos += 4 {
			n := ix.boxes.box(pos)
			dist := n.distSq(x, y)
			if dist > maxDistSq {
				continue
			}
			index := ix.indices.at(pos >> 2)
			if nodeIndex >= leafEnd {
				pq.Push(entry{index: index}, dist)
			} else if q.filter == nil || q.filter(index) {
				pq.Push(entry{index: index, leaf: true}, dist)
			}
		}

		// Any leaf at the front of the queue is nearer than everything
		// not yet expanded, so it is the next result.
		for {
			e, ok := pq.Peek()
			if !ok || !e.leaf {
				break
			}
			if dist, _ := pq.PeekValue(); dist > maxDistSq {
				return r, nil
			}
			pq.Pop()
			r = append(r, e.index)
			if len(r) == q.maxResults {
				return r, nil
			}
		}

		e, ok := pq.Pop()
		if !ok {
			return r, nil
		}
		nodeIndex = e.index
	}
}
