// Copyright 2023 The flatgeobuf (Go) Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package packedrtree

import (
	"errors"
	"io"
	"math"

	flatbuffers "github.com/google/flatbuffers/go"
)

// Serialized layout. All multi-byte values are little-endian.
//
//	offset  size                      field
//	0       1                         magic (0xfb)
//	1       1                         version<<4 | Kind
//	2       2                         node size (uint16)
//	4       4                         item count (uint32)
//	8       numNodes*4*kind.Width()   boxes: minX, minY, maxX, maxY per node
//	...     numNodes*indexWidth       slot index per node
const (
	magic     = 0xfb
	version   = 3
	headerLen = 8

	// DefaultNodeSize is the node size used by New when WithNodeSize
	// is not given.
	DefaultNodeSize = 16
	// MaxNodeSize is the largest node size representable in the
	// header. Larger requested node sizes are clamped to it.
	MaxNodeSize = math.MaxUint16
	// MaxItems is the largest item count representable in the header.
	// The usable count is lower: New rejects any item count whose tree
	// would have more than maxNodes nodes.
	MaxItems = math.MaxUint32

	// maxNodes is the largest total node count whose coordinate
	// offsets, stored in internal node slots, fit in 32 bits.
	maxNodes = 1 << 30

	// wideIndexThreshold is the total node count at or above which slot
	// indices no longer fit in 16 bits. Internal slots hold coordinate
	// offsets, which are four times the node index.
	wideIndexThreshold = 16384
)

// plan computes the total node count of a tree holding numItems leaves
// with the given node size, together with the cumulative coordinate
// offset at which each level ends, leaves first and root last.
//
// For example, numItems = 5 and nodeSize = 2 yields levels of 5, 3, 2
// and 1 nodes, so numNodes = 11 and levelBounds = [20, 32, 40, 44].
//
// Returns an error if the tree size overflows int, and an ErrArgument
// error if the tree has more than maxNodes nodes.
func plan(numItems, nodeSize int) (numNodes int, levelBounds []int, err error) {
	n := numItems
	numNodes = n
	levelBounds = make([]int, 1, 16)
	levelBounds[0] = 4 * n
	for {
		n = (n + nodeSize - 1) / nodeSize
		if numNodes > math.MaxInt/4-n {
			return 0, nil, textErr("total node count overflows int")
		}
		numNodes += n
		levelBounds = append(levelBounds, 4*numNodes)
		if n == 1 {
			break
		}
	}
	if numNodes > maxNodes {
		return 0, nil, kindErr(ErrArgument, "%d items with node size %d need %d nodes, exceeding maximum %d", numItems, nodeSize, numNodes, maxNodes)
	}
	return
}

// planHeader plans the tree described by a decoded header. A header
// whose tree is too large to build is reported as an ErrFormat error.
func planHeader(h header) (numNodes int, levelBounds []int, sz int, err error) {
	numNodes, levelBounds, err = plan(h.numItems, h.nodeSize)
	if errors.Is(err, ErrArgument) {
		err = kindErr(ErrFormat, "%d items with node size %d need too many nodes", h.numItems, h.nodeSize)
	}
	if err != nil {
		return
	}
	sz, err = byteSize(numNodes, h.kind)
	return
}

// indexWidth returns the byte width of one slot index for a tree with
// the given total node count.
func indexWidth(numNodes int) int {
	if numNodes < wideIndexThreshold {
		return flatbuffers.SizeUint16
	}
	return flatbuffers.SizeUint32
}

// byteSize returns the serialized size of a tree with the given total
// node count and coordinate kind.
func byteSize(numNodes int, kind Kind) (int, error) {
	per := 4*kind.Width() + indexWidth(numNodes)
	if numNodes > (math.MaxInt-headerLen)/per {
		return 0, textErr("index size overflows int")
	}
	return headerLen + numNodes*per, nil
}

// Size returns the size in bytes of an Index holding numItems items
// with the given node size and coordinate kind. The node size is
// clamped exactly as New clamps it. Returns an ErrArgument error if
// numItems is out of range or kind is invalid, and an error if the size
// overflows int.
func Size(numItems, nodeSize int, kind Kind) (int, error) {
	if err := validateParams(numItems, kind); err != nil {
		return 0, err
	}
	numNodes, _, err := plan(numItems, clampNodeSize(nodeSize))
	if err != nil {
		return 0, err
	}
	return byteSize(numNodes, kind)
}

func validateParams(numItems int, kind Kind) error {
	if numItems < 1 {
		return kindErr(ErrArgument, "empty index not allowed (num items must be > 0, got %d)", numItems)
	} else if uint64(numItems) > MaxItems {
		return kindErr(ErrArgument, "num items %d exceeds maximum %d", numItems, uint64(MaxItems))
	} else if !kind.Valid() {
		return kindErr(ErrArgument, "unrecognized kind %d", uint8(kind))
	}
	return nil
}

func clampNodeSize(nodeSize int) int {
	if nodeSize < 2 {
		return 2
	} else if nodeSize > MaxNodeSize {
		return MaxNodeSize
	}
	return nodeSize
}

// header is the decoded fixed-length prefix of a serialized Index.
type header struct {
	kind     Kind
	nodeSize int
	numItems int
}

func (h *header) encode(b []byte) {
	b[0] = magic
	b[1] = version<<4 | byte(h.kind)
	flatbuffers.WriteUint16(b[2:], uint16(h.nodeSize))
	flatbuffers.WriteUint32(b[4:], uint32(h.numItems))
}

func decodeHeader(b []byte) (h header, err error) {
	if len(b) < headerLen {
		err = kindErr(ErrFormat, "need at least %d bytes, got %d", headerLen, len(b))
		return
	}
	if b[0] != magic {
		err = kindErr(ErrFormat, "bad magic 0x%02x", b[0])
		return
	}
	if v := b[1] >> 4; v != version {
		err = kindErr(ErrFormat, "got v%d data when expected v%d", v, version)
		return
	}
	h.kind = Kind(b[1] & 0x0f)
	if !h.kind.Valid() {
		err = kindErr(ErrFormat, "unrecognized kind %d", uint8(h.kind))
		return
	}
	h.nodeSize = int(flatbuffers.GetUint16(b[2:]))
	if h.nodeSize < 2 {
		err = kindErr(ErrFormat, "node size %d is less than 2", h.nodeSize)
		return
	}
	h.numItems = int(flatbuffers.GetUint32(b[4:]))
	if h.numItems < 1 {
		err = kindErr(ErrFormat, "empty index")
	}
	return
}

// coords is a view of box coordinates of one Kind stored over a byte
// slice. Coordinate i of node n is at position 4*n+i.
type coords struct {
	b     []byte
	width int
	get   func([]byte) float64
	put   func([]byte, float64)
}

func newCoords(b []byte, kind Kind) coords {
	c := kind.codec()
	return coords{b: b, width: c.width, get: c.get, put: c.put}
}

func (c *coords) len() int {
	return len(c.b) / c.width
}

func (c *coords) at(i int) float64 {
	return c.get(c.b[i*c.width:])
}

func (c *coords) set(i int, v float64) {
	c.put(c.b[i*c.width:], v)
}

// box returns the node box whose first coordinate is at pos.
func (c *coords) box(pos int) Box {
	return Box{c.at(pos), c.at(pos + 1), c.at(pos + 2), c.at(pos + 3)}
}

func (c *coords) setBox(pos int, b *Box) {
	c.set(pos+0, b.XMin)
	c.set(pos+1, b.YMin)
	c.set(pos+2, b.XMax)
	c.set(pos+3, b.YMax)
}

// swapNodes exchanges the four coordinates of nodes i and j.
func (c *coords) swapNodes(i, j int) {
	n := 4 * c.width
	p := c.b[i*n : (i+1)*n]
	q := c.b[j*n : (j+1)*n]
	for k := range p {
		p[k], q[k] = q[k], p[k]
	}
}

// slots is a view of the per-node slot indices stored over a byte
// slice, either 16 or 32 bits wide.
type slots struct {
	b    []byte
	wide bool
}

func newSlots(b []byte, numNodes int) slots {
	return slots{b: b, wide: indexWidth(numNodes) == flatbuffers.SizeUint32}
}

func (s *slots) at(i int) int {
	if s.wide {
		return int(flatbuffers.GetUint32(s.b[i*flatbuffers.SizeUint32:]))
	}
	return int(flatbuffers.GetUint16(s.b[i*flatbuffers.SizeUint16:]))
}

func (s *slots) set(i, v int) {
	if s.wide {
		flatbuffers.WriteUint32(s.b[i*flatbuffers.SizeUint32:], uint32(v))
	} else {
		flatbuffers.WriteUint16(s.b[i*flatbuffers.SizeUint16:], uint16(v))
	}
}

func (s *slots) swap(i, j int) {
	a, b := s.at(i), s.at(j)
	s.set(i, b)
	s.set(j, a)
}

// FromBytes reconstructs a queryable Index from the serialized form
// returned by Index.Bytes. The Index aliases data rather than copying
// it, so the caller must not modify data for as long as the Index is in
// use. Bytes beyond the end of the serialized Index are ignored.
//
// Returns an ErrFormat error if data is not a valid serialized Index.
func FromBytes(data []byte) (*Index, error) {
	h, err := decodeHeader(data)
	if err != nil {
		return nil, err
	}
	numNodes, levelBounds, sz, err := planHeader(h)
	if err != nil {
		return nil, err
	}
	if len(data) < sz {
		return nil, kindErr(ErrFormat, "need %d bytes for %d items, got %d", sz, h.numItems, len(data))
	}
	ix := &Index{}
	ix.attach(data[:sz:sz], h, numNodes, levelBounds)
	ix.pos = ix.boxes.len()
	ix.bounds = ix.boxes.box(ix.pos - 4)
	return ix, nil
}

// Marshal writes the serialized form of a finished Index to a writer,
// returning the number of bytes written. The bytes written are exactly
// those returned by Bytes.
func (ix *Index) Marshal(w io.Writer) (n int, err error) {
	if w == nil {
		textPanic("nil writer")
	}
	if !ix.finished() {
		return 0, ErrNotIndexed
	}
	return w.Write(ix.data)
}

// Unmarshal reads the serialized form of an Index from a stream,
// returning the Index. Exactly the bytes of the Index are consumed from
// the stream, so a stream positioned at the start of a serialized Index
// will be positioned at its end if this function returns without error.
//
// Returns an ErrFormat error if the header is invalid, and wraps
// io.ErrUnexpectedEOF if the stream ends early.
func Unmarshal(r io.Reader) (*Index, error) {
	if r == nil {
		textPanic("nil reader")
	}
	var b [headerLen]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return nil, wrapErr("failed to read header", err)
	}
	h, err := decodeHeader(b[:])
	if err != nil {
		return nil, err
	}
	numNodes, _, sz, err := planHeader(h)
	if err != nil {
		return nil, err
	}
	data := make([]byte, sz)
	copy(data, b[:])
	if _, err = io.ReadFull(r, data[headerLen:]); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, wrapErr("failed to read %d nodes", err, numNodes)
	}
	return FromBytes(data)
}
