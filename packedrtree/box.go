// Copyright 2023 The flatgeobuf (Go) Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package packedrtree

import (
	"math"
	"strconv"
	"strings"
)

// Box is an axis-aligned bounding rectangle. The edges are inclusive,
// so two boxes that merely touch are considered to overlap.
type Box struct {
	XMin float64
	YMin float64
	XMax float64
	YMax float64
}

// EmptyBox is a Box with inverted infinite edges. Expanding EmptyBox by
// any box yields that box, so it is the correct starting value when
// computing the union of a set of boxes. It overlaps nothing.
var EmptyBox = Box{
	XMin: math.Inf(1),
	YMin: math.Inf(1),
	XMax: math.Inf(-1),
	YMax: math.Inf(-1),
}

// Width returns the X-extent of the box.
func (b *Box) Width() float64 {
	return b.XMax - b.XMin
}

// Height returns the Y-extent of the box.
func (b *Box) Height() float64 {
	return b.YMax - b.YMin
}

func (b *Box) midX() float64 {
	return (b.XMin + b.XMax) / 2
}

func (b *Box) midY() float64 {
	return (b.YMin + b.YMax) / 2
}

// Expand grows the box, if necessary, so that it also covers c.
func (b *Box) Expand(c *Box) {
	if c.XMin < b.XMin {
		b.XMin = c.XMin
	}
	if c.YMin < b.YMin {
		b.YMin = c.YMin
	}
	if c.XMax > b.XMax {
		b.XMax = c.XMax
	}
	if c.YMax > b.YMax {
		b.YMax = c.YMax
	}
}

// ExpandXY grows the box, if necessary, so that it also covers the
// point (x, y).
func (b *Box) ExpandXY(x, y float64) {
	b.Expand(&Box{x, y, x, y})
}

// Contains reports whether c lies entirely within b.
func (b *Box) Contains(c *Box) bool {
	return b.XMin <= c.XMin && b.YMin <= c.YMin && c.XMax <= b.XMax && c.YMax <= b.YMax
}

// intersects reports whether b and o share at least one point. Only
// strict separation on some axis makes two boxes disjoint.
func (b *Box) intersects(o *Box) bool {
	return !(b.XMax < o.XMin || b.YMax < o.YMin || b.XMin > o.XMax || b.YMin > o.YMax)
}

// distSq returns the squared minimum distance from the point (x, y) to
// any point of b. It is zero for points inside b.
func (b *Box) distSq(x, y float64) float64 {
	dx := axisDist(x, b.XMin, b.XMax)
	dy := axisDist(y, b.YMin, b.YMax)
	return dx*dx + dy*dy
}

func axisDist(k, lo, hi float64) float64 {
	if k < lo {
		return lo - k
	} else if k > hi {
		return k - hi
	}
	return 0
}

// String returns the box in the form "[XMin,YMin,XMax,YMax]".
func (b Box) String() string {
	var s strings.Builder
	s.WriteByte('[')
	s.WriteString(strconv.FormatFloat(b.XMin, 'g', -1, 64))
	s.WriteByte(',')
	s.WriteString(strconv.FormatFloat(b.YMin, 'g', -1, 64))
	s.WriteByte(',')
	s.WriteString(strconv.FormatFloat(b.XMax, 'g', -1, 64))
	s.WriteByte(',')
	s.WriteString(strconv.FormatFloat(b.YMax, 'g', -1, 64))
	s.WriteByte(']')
	return s.String()
}
