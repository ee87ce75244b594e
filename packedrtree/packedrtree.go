// Copyright 2023 The flatgeobuf (Go) Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package packedrtree

import (
	"fmt"

	"github.com/gogama/flatbush/internal/flatqueue"
)

// Index is a static packed Hilbert R-Tree over axis-aligned boxes.
//
// An Index is created with a fixed item count, filled by calling Add
// once per item, and made queryable by calling Finish. After Finish the
// Index is read-only. The whole tree, including a small header, lives
// in one contiguous byte slice (see Bytes) which can be persisted and
// later reloaded with FromBytes or Unmarshal.
//
// The tree is stored as two parallel arrays indexed by node: the node
// boxes and the node slot indices. Leaf nodes come first, in positions
// [0, NumItems()), followed by each internal level in turn, ending with
// the root. A leaf's slot holds the identifier of its item. An internal
// node's slot holds the coordinate offset (4 × node position) of its
// first child, and its children are the following nodes of the level
// below, up to the node size or the end of that level.
//
// An Index is not safe for concurrent use: Neighbors reuses a private
// priority queue. Concurrent Search calls on a finished Index are safe.
type Index struct {
	// numItems is the number of leaf nodes.
	numItems int
	// nodeSize is the maximum number of children per internal node.
	nodeSize int
	// kind is the coordinate representation.
	kind Kind
	// levelBounds holds, for each level, leaves first, the coordinate
	// offset one past the level's last node.
	levelBounds []int
	// data is the complete serialized form, header included.
	data []byte
	// boxes and indices are views over data.
	boxes   coords
	indices slots
	// pos is the write cursor, in coordinates. The Index is finished
	// when pos reaches boxes.len().
	pos int
	// bounds is the union of all boxes added.
	bounds Box
	// queue is scratch space for Neighbors.
	queue flatqueue.Queue[entry]
}

// Option configures an Index created by New.
type Option func(*config)

type config struct {
	nodeSize int
	kind     Kind
}

// WithNodeSize sets the maximum number of children per internal node.
// Values outside the range [2, MaxNodeSize] are clamped to it. The
// default is DefaultNodeSize.
func WithNodeSize(nodeSize int) Option {
	return func(c *config) {
		c.nodeSize = nodeSize
	}
}

// WithKind sets the numeric representation of stored coordinates. The
// default is Float64. Narrower kinds make the Index smaller, but
// coordinates are converted to the kind when added, so they must be
// representable in it.
func WithKind(kind Kind) Option {
	return func(c *config) {
		c.kind = kind
	}
}

// New creates an empty Index with room for exactly numItems items.
//
// Returns an ErrArgument error if numItems is less than 1 or greater
// than MaxItems, or if the configured Kind is invalid.
func New(numItems int, opts ...Option) (*Index, error) {
	c := config{nodeSize: DefaultNodeSize, kind: Float64}
	for _, opt := range opts {
		opt(&c)
	}
	if err := validateParams(numItems, c.kind); err != nil {
		return nil, err
	}
	ix := &Index{}
	if err := ix.init(numItems, clampNodeSize(c.nodeSize), c.kind); err != nil {
		return nil, err
	}
	return ix, nil
}

// init allocates storage for an empty tree and writes its header.
func (ix *Index) init(numItems, nodeSize int, kind Kind) error {
	numNodes, levelBounds, err := plan(numItems, nodeSize)
	if err != nil {
		return err
	}
	sz, err := byteSize(numNodes, kind)
	if err != nil {
		return err
	}
	h := header{kind: kind, nodeSize: nodeSize, numItems: numItems}
	data := make([]byte, sz)
	h.encode(data)
	ix.attach(data, h, numNodes, levelBounds)
	ix.pos = 0
	ix.bounds = EmptyBox
	return nil
}

// attach points the Index at a serialized tree of the given shape.
func (ix *Index) attach(data []byte, h header, numNodes int, levelBounds []int) {
	boxesEnd := headerLen + numNodes*4*h.kind.Width()
	ix.numItems = h.numItems
	ix.nodeSize = h.nodeSize
	ix.kind = h.kind
	ix.levelBounds = levelBounds
	ix.data = data
	ix.boxes = newCoords(data[headerLen:boxesEnd], h.kind)
	ix.indices = newSlots(data[boxesEnd:], numNodes)
}

func (ix *Index) finished() bool {
	return ix.pos == ix.boxes.len()
}

// numAdded returns the number of items added so far. It is only
// meaningful before Finish.
func (ix *Index) numAdded() int {
	return ix.pos >> 2
}

// Add adds a box to the Index and returns its identifier. Identifiers
// are assigned sequentially from zero in the order items are added, and
// are the values returned by Search and Neighbors.
//
// Returns ErrFinished if the Index is already finished, and a
// CountMismatchError if the Index already holds NumItems() items.
func (ix *Index) Add(minX, minY, maxX, maxY float64) (int, error) {
	if ix.finished() {
		return 0, ErrFinished
	}
	id := ix.numAdded()
	if id == ix.numItems {
		return 0, &CountMismatchError{Added: id + 1, Expected: ix.numItems}
	}
	ix.indices.set(id, id)
	ix.boxes.set(ix.pos+0, minX)
	ix.boxes.set(ix.pos+1, minY)
	ix.boxes.set(ix.pos+2, maxX)
	ix.boxes.set(ix.pos+3, maxY)
	ix.pos += 4
	ix.bounds.Expand(&Box{minX, minY, maxX, maxY})
	return id, nil
}

// AddBox is a convenience wrapper around Add.
func (ix *Index) AddBox(b Box) (int, error) {
	return ix.Add(b.XMin, b.YMin, b.XMax, b.YMax)
}

// Trim shrinks an unfinished Index that has had fewer than NumItems()
// items added so that its item count equals the number added. The
// added boxes, their identifiers and the bounds are preserved; the
// level structure, storage and possibly the slot index width are
// recomputed for the smaller count. Trim does nothing if the Index is
// already full.
//
// Returns ErrFinished if the Index is finished, and an ErrArgument
// error if no items have been added.
func (ix *Index) Trim() error {
	if ix.finished() {
		return ErrFinished
	}
	n := ix.numAdded()
	if n == ix.numItems {
		return nil
	}
	if n == 0 {
		return kindErr(ErrArgument, "cannot trim index with no items added")
	}
	old := *ix
	if err := ix.init(n, old.nodeSize, old.kind); err != nil {
		return err
	}
	copy(ix.boxes.b, old.boxes.b[:old.pos*old.boxes.width])
	for i := 0; i < n; i++ {
		ix.indices.set(i, old.indices.at(i))
	}
	ix.pos = old.pos
	ix.bounds = old.bounds
	return nil
}

// Finish builds the tree, after which the Index can be queried but not
// modified. If fewer than NumItems() items were added, Finish trims the
// Index when autoTrim is true, and otherwise fails with a
// CountMismatchError.
//
// Returns ErrFinished if Finish has already been called.
func (ix *Index) Finish(autoTrim bool) error {
	if ix.finished() {
		return ErrFinished
	}
	if n := ix.numAdded(); n != ix.numItems {
		if !autoTrim {
			return &CountMismatchError{Added: n, Expected: ix.numItems}
		}
		if err := ix.Trim(); err != nil {
			return err
		}
	}

	// A single node covers every item, so there is nothing to sort.
	if ix.numItems <= ix.nodeSize {
		ix.indices.set(ix.pos>>2, 0)
		ix.boxes.setBox(ix.pos, &ix.bounds)
		ix.pos += 4
		return nil
	}

	ix.hilbertSort()
	ix.pack()
	return nil
}

// hilbertSort reorders the leaves by the Hilbert index of their box
// centers, just enough that each run of nodeSize leaves holds the right
// items.
func (ix *Index) hilbertSort() {
	b := ix.bounds
	w := b.Width()
	if w == 0 {
		w = 1
	}
	h := b.Height()
	if h == 0 {
		h = 1
	}
	keys := make([]uint32, ix.numItems)
	for i := range keys {
		leaf := ix.boxes.box(4 * i)
		keys[i] = hilbertFromBox(&leaf, b.XMin, b.YMin, w, h)
	}
	partialSort(keys, &ix.boxes, &ix.indices, 0, ix.numItems-1, ix.nodeSize)
}

// pack generates the internal nodes level by level, bottom-up. Each
// parent covers a run of up to nodeSize consecutive nodes of the level
// below and points at the first node of the run.
func (ix *Index) pack() {
	pos := 0
	for _, end := range ix.levelBounds[:len(ix.levelBounds)-1] {
		for pos < end {
			first := pos
			parent := ix.boxes.box(pos)
			pos += 4
			for j := 1; j < ix.nodeSize && pos < end; j++ {
				child := ix.boxes.box(pos)
				parent.Expand(&child)
				pos += 4
			}
			ix.indices.set(ix.pos>>2, first)
			ix.boxes.setBox(ix.pos, &parent)
			ix.pos += 4
		}
	}
}

// levelEnd returns the coordinate offset one past the last node of the
// level containing the node at coordinate offset pos.
func (ix *Index) levelEnd(pos int) int {
	lo, hi := 0, len(ix.levelBounds)-1
	for lo < hi {
		m := int(uint(lo+hi) >> 1)
		if ix.levelBounds[m] > pos {
			hi = m
		} else {
			lo = m + 1
		}
	}
	return ix.levelBounds[lo]
}

// runEnd returns the coordinate offset one past the last node of the
// run of siblings starting at coordinate offset pos.
func (ix *Index) runEnd(pos int) int {
	return min(pos+4*ix.nodeSize, ix.levelEnd(pos))
}

// Bounds returns the bounding box around all items in the Index. Before
// any items are added it returns EmptyBox.
//
// For an Index built with New, the bounds are the union of the boxes as
// passed to Add. For an Index loaded with FromBytes, Unmarshal or Seek,
// they are the stored root box, whose coordinates have been converted
// to the Index's Kind. The two differ when an integer or Float32 Kind
// cannot represent the added coordinates exactly.
func (ix *Index) Bounds() Box {
	return ix.bounds
}

// NumItems returns the number of items the Index holds, or was created
// to hold if it is not yet finished.
func (ix *Index) NumItems() int {
	return ix.numItems
}

// NodeSize returns the maximum number of children per internal node.
func (ix *Index) NodeSize() int {
	return ix.nodeSize
}

// Kind returns the numeric representation of stored coordinates.
func (ix *Index) Kind() Kind {
	return ix.kind
}

// NumNodes returns the total number of nodes, leaves included.
func (ix *Index) NumNodes() int {
	return ix.boxes.len() / 4
}

// Finished reports whether Finish has been called, or the Index was
// loaded from serialized form.
func (ix *Index) Finished() bool {
	return ix.finished()
}

// Bytes returns the serialized form of the Index. The slice aliases the
// Index's storage and must not be modified. It is only a valid
// serialized Index once Finish has been called.
func (ix *Index) Bytes() []byte {
	return ix.data
}

// String returns a summary description of the Index.
func (ix *Index) String() string {
	return fmt.Sprintf("Index{Bounds:%s,NumItems:%d,NodeSize:%d,Kind:%s}", ix.bounds, ix.numItems, ix.nodeSize, ix.kind)
}

// entry is an item in the Neighbors priority queue. Leaf entries carry
// an item identifier and node entries the coordinate offset of the
// node's first child.
type entry struct {
	index int
	leaf  bool
}
