// Copyright 2023 The flatgeobuf (Go) Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package packedrtree

import (
	"math"
	"strconv"
	"strings"

	flatbuffers "github.com/google/flatbuffers/go"
)

// Kind is the numeric representation used to store box coordinates.
//
// The ordinal value of each Kind is stored in the low nibble of the
// second header byte of a serialized Index, so the order of the
// constants below is part of the format and must never change.
type Kind uint8

const (
	Int8 Kind = iota
	Uint8
	// Uint8Clamped stores unsigned 8-bit integers. Unlike Uint8, out
	// of range values saturate at 0 or 255 instead of wrapping, and
	// fractional values round half to even.
	Uint8Clamped
	Int16
	Uint16
	Int32
	Uint32
	Float32
	Float64

	numKinds
)

// kindCodec reads and writes a single coordinate of one Kind at the
// start of a byte slice, in little-endian order.
type kindCodec struct {
	name  string
	width int
	get   func(b []byte) float64
	put   func(b []byte, v float64)
}

var kindCodecs = [numKinds]kindCodec{
	Int8: {"int8", flatbuffers.SizeInt8,
		func(b []byte) float64 { return float64(flatbuffers.GetInt8(b)) },
		func(b []byte, v float64) { flatbuffers.WriteInt8(b, int8(wrapInt(v))) }},
	Uint8: {"uint8", flatbuffers.SizeUint8,
		func(b []byte) float64 { return float64(flatbuffers.GetUint8(b)) },
		func(b []byte, v float64) { flatbuffers.WriteUint8(b, uint8(wrapInt(v))) }},
	Uint8Clamped: {"uint8clamped", flatbuffers.SizeUint8,
		func(b []byte) float64 { return float64(flatbuffers.GetUint8(b)) },
		func(b []byte, v float64) { flatbuffers.WriteUint8(b, clampUint8(v)) }},
	Int16: {"int16", flatbuffers.SizeInt16,
		func(b []byte) float64 { return float64(flatbuffers.GetInt16(b)) },
		func(b []byte, v float64) { flatbuffers.WriteInt16(b, int16(wrapInt(v))) }},
	Uint16: {"uint16", flatbuffers.SizeUint16,
		func(b []byte) float64 { return float64(flatbuffers.GetUint16(b)) },
		func(b []byte, v float64) { flatbuffers.WriteUint16(b, uint16(wrapInt(v))) }},
	Int32: {"int32", flatbuffers.SizeInt32,
		func(b []byte) float64 { return float64(flatbuffers.GetInt32(b)) },
		func(b []byte, v float64) { flatbuffers.WriteInt32(b, int32(wrapInt(v))) }},
	Uint32: {"uint32", flatbuffers.SizeUint32,
		func(b []byte) float64 { return float64(flatbuffers.GetUint32(b)) },
		func(b []byte, v float64) { flatbuffers.WriteUint32(b, uint32(wrapInt(v))) }},
	Float32: {"float32", flatbuffers.SizeFloat32,
		func(b []byte) float64 { return float64(flatbuffers.GetFloat32(b)) },
		func(b []byte, v float64) { flatbuffers.WriteFloat32(b, float32(v)) }},
	Float64: {"float64", flatbuffers.SizeFloat64,
		flatbuffers.GetFloat64,
		flatbuffers.WriteFloat64},
}

// Valid reports whether k is one of the nine defined kinds.
func (k Kind) Valid() bool {
	return k < numKinds
}

// Width returns the number of bytes used to store one coordinate of
// kind k. Panics if k is not valid.
func (k Kind) Width() int {
	return k.codec().width
}

// String returns the lower-case name of the kind, e.g. "float64".
func (k Kind) String() string {
	if !k.Valid() {
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
	return kindCodecs[k].name
}

func (k Kind) codec() *kindCodec {
	if !k.Valid() {
		textPanic("invalid kind " + strconv.Itoa(int(k)))
	}
	return &kindCodecs[k]
}

// ParseKind returns the Kind whose name, as returned by String, matches
// s without regard to case.
func ParseKind(s string) (Kind, error) {
	for k := Kind(0); k < numKinds; k++ {
		if strings.EqualFold(s, kindCodecs[k].name) {
			return k, nil
		}
	}
	return 0, kindErr(ErrArgument, "unrecognized kind %q", s)
}

// wrapInt truncates v toward zero and reduces it modulo 2^32, so that
// narrowing the result to a smaller integer type wraps around the same
// way for every input. NaN and infinities become zero.
func wrapInt(v float64) int64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return int64(math.Mod(math.Trunc(v), 1<<32))
}

func clampUint8(v float64) uint8 {
	switch {
	case !(v > 0):
		return 0
	case v >= math.MaxUint8:
		return math.MaxUint8
	default:
		return uint8(math.RoundToEven(v))
	}
}
