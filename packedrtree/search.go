// Copyright 2023 The flatgeobuf (Go) Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package packedrtree

import (
	"container/heap"
	"io"
)

// A ticket is a pending work item to be executed during a search loop:
// a run of sibling nodes to scan.
type ticket struct {
	// nodeIndex is the coordinate offset of the first node to scan.
	nodeIndex int
	// level is the tree level that nodeIndex belongs to. Recall that
	// level 0 contains the leaf nodes.
	level int
}

// A ticketBag is a collection of pending work items to be executed
// during a search loop.
//
// The reason type is a "bag" and not, for example, a queue, is that it
// can have arbitrary behavior defined by the pushFunc and popFunc
// passed to search. When searching a stream, Seek wants to read the
// index in one direction only, so ticketBag behaves like a max-heap on
// nodeIndex (and implements heap.Interface for this purpose). When
// searching an in-memory Index, ticketBag behaves like a stack.
type ticketBag []ticket

func (tb ticketBag) Len() int            { return len(tb) }
func (tb ticketBag) Less(i, j int) bool  { return tb[i].nodeIndex > tb[j].nodeIndex }
func (tb ticketBag) Swap(i, j int)       { tb[i], tb[j] = tb[j], tb[i] }
func (tb *ticketBag) Push(x interface{}) { *tb = append(*tb, x.(ticket)) }
func (tb *ticketBag) Pop() interface{} {
	return stackPop(tb)
}

type pushFunc func(tb *ticketBag, t ticket)
type popFunc func(tb *ticketBag) ticket

// fetchFunc makes the nodes in the coordinate offset range [i, j)
// available in the Index's storage before they are scanned.
type fetchFunc func(i, j int) error

func stackPush(tb *ticketBag, t ticket) {
	*tb = append(*tb, t)
}

func stackPop(tb *ticketBag) ticket {
	old := *tb
	n := len(old)
	x := old[n-1]
	*tb = old[0 : n-1]
	return x
}

func heapPush(tb *ticketBag, t ticket) {
	heap.Push(tb, t)
}

func heapPop(tb *ticketBag) ticket {
	return heap.Pop(tb).(ticket)
}

// Search returns the identifiers of all items whose boxes intersect the
// query box (minX, minY, maxX, maxY). Boxes that merely touch the query
// box are included. If filter is not nil, only items for which it
// returns true are included. The order of the results is not defined.
//
// Returns ErrNotIndexed if the Index is not finished.
func (ix *Index) Search(minX, minY, maxX, maxY float64, filter Filter) ([]int, error) {
	if !ix.finished() {
		return nil, ErrNotIndexed
	}
	return ix.search(Box{minX, minY, maxX, maxY}, filter, stackPush, stackPop, nil)
}

// SearchBox is a convenience wrapper around Search.
func (ix *Index) SearchBox(b Box, filter Filter) ([]int, error) {
	return ix.Search(b.XMin, b.YMin, b.XMax, b.YMax, filter)
}

// search implements a generic packed R-Tree search which is capable of
// streaming search depending on the callback functions provided.
func (ix *Index) search(q Box, filter Filter, push pushFunc, pop popFunc, fetch fetchFunc) ([]int, error) {
	tb := make(ticketBag, 1, 16)
	tb[0] = ticket{nodeIndex: ix.boxes.len() - 4, level: len(ix.levelBounds) - 1}
	r := make([]int, 0)
	leafEnd := 4 * ix.numItems

	for len(tb) > 0 {
		t := pop(&tb)
		// Scan at most nodeSize siblings, stopping at the end of the
		// level.
		end := min(t.nodeIndex+4*ix.nodeSize, ix.levelBounds[t.level])
		if fetch != nil {
			if err := fetch(t.nodeIndex, end); err != nil {
				return nil, err
			}
		}
		isLeafLevel := t.nodeIndex < leafEnd
		for pos := t.nodeIndex; pos < end; pos += 4 {
			n := ix.boxes.box(pos)
			if !q.intersects(&n) {
				continue
			}
			index := ix.indices.at(pos >> 2)
			if !isLeafLevel {
				push(&tb, ticket{nodeIndex: index, level: t.level - 1})
			} else if filter == nil || filter(index) {
				r = append(r, index)
			}
		}
	}

	return r, nil
}

// Seek searches the serialized form of an Index directly from a
// seekable stream, without reading the whole Index into memory first.
// Only the header and the runs of nodes visited by the search are read.
// It returns the same results as Index.Search, although not necessarily
// in the same order.
//
// The seekable reader should be positioned at the first byte of the
// serialized Index. If this function returns without error, the reader
// is positioned one past its last byte.
func Seek(rs io.ReadSeeker, q Box, filter Filter) ([]int, error) {
	if rs == nil {
		textPanic("nil read seeker")
	}

	// Cache the start offset of the index.
	startOffset, err := rs.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, wrapErr("failed to cache index start offset", err)
	}

	// Read and validate the header.
	var b [headerLen]byte
	if _, err = io.ReadFull(rs, b[:]); err != nil {
		return nil, wrapErr("failed to read header", err)
	}
	h, err := decodeHeader(b[:])
	if err != nil {
		return nil, err
	}
	numNodes, levelBounds, sz, err := planHeader(h)
	if err != nil {
		return nil, err
	}

	// Construct an Index whose storage is filled on demand.
	ix := &Index{}
	data := make([]byte, sz)
	copy(data, b[:])
	ix.attach(data, h, numNodes, levelBounds)
	ix.pos = ix.boxes.len()

	// Keep track of the current offset, relative to startOffset.
	offset := int64(headerLen)
	boxesStart := int64(headerLen)
	indicesStart := boxesStart + int64(len(ix.boxes.b))
	slotWidth := int64(indexWidth(numNodes))

	readAt := func(off int64, p []byte) error {
		if off != offset {
			if _, err := rs.Seek(startOffset+off, io.SeekStart); err != nil {
				return err
			}
			offset = off
		}
		n, err := io.ReadFull(rs, p)
		offset += int64(n)
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return err
	}

	fetch := func(i, j int) error {
		w := int64(ix.boxes.width)
		if err := readAt(boxesStart+int64(i)*w, data[boxesStart+int64(i)*w:boxesStart+int64(j)*w]); err != nil {
			return wrapErr("failed to read boxes of nodes %d..%d", err, i/4, j/4)
		}
		lo, hi := indicesStart+int64(i/4)*slotWidth, indicesStart+int64(j/4)*slotWidth
		if err := readAt(lo, data[lo:hi]); err != nil {
			return wrapErr("failed to read slots of nodes %d..%d", err, i/4, j/4)
		}
		return nil
	}

	// Search using a max-heap for the ticket bag. Levels are stored
	// leaves first, so visiting the highest offsets first reads each
	// region of the stream backward, one level after another.
	r, err := ix.search(q, filter, heapPush, heapPop, fetch)
	if err != nil {
		return nil, err
	}

	// Skip to the end of the index so that callers can make reasonable
	// assumptions about the read cursor after a successful search.
	if offset != int64(sz) {
		if _, err = rs.Seek(startOffset+int64(sz), io.SeekStart); err != nil {
			return nil, wrapErr("failed to skip to end of index after Seek", err)
		}
	}

	return r, nil
}
